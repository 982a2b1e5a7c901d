package types

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Bytes is a byte slice which is rendered as 0x prefixed hex string in
// text based encodings (JSON, YAML, log attributes).
type Bytes []byte

func (b Bytes) MarshalText() ([]byte, error) {
	if len(b) == 0 {
		return nil, nil
	}
	return []byte(hexutil.Encode(b)), nil
}

func (b *Bytes) UnmarshalText(src []byte) error {
	if len(src) == 0 {
		*b = nil
		return nil
	}
	res, err := hexutil.Decode(string(src))
	if err != nil {
		return err
	}
	*b = res
	return nil
}

func (b Bytes) String() string {
	return hexutil.Encode(b)
}
