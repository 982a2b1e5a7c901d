package rpc

import (
	"fmt"

	"google.golang.org/grpc/encoding"

	"github.com/alphabill-org/admission/types"
)

const codecName = "cbor"

// CborCodec implements grpc encoding.Codec, requests and responses are the
// cbor encoded wire values of the types package.
type CborCodec struct{}

func (CborCodec) Marshal(v any) ([]byte, error) {
	data, err := types.Cbor.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cbor marshal: %w", err)
	}
	return data, nil
}

func (CborCodec) Unmarshal(data []byte, v any) error {
	if err := types.Cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("cbor unmarshal: %w", err)
	}
	return nil
}

func (CborCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(CborCodec{})
}
