package types

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

/*
Cbor is the codec used for everything which goes over the wire or into the
database: transaction bodies, queries, responses and stored entities.

Encoding is deterministic (core deterministic encoding rules) so the same
value always produces the same bytes, which matters as hashes of the encoded
transactions are used to detect duplicates.
*/
var Cbor = newCborHandler()

type cborHandler struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

func newCborHandler() cborHandler {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	dec, err := cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		MaxNestedLevels: 32,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return cborHandler{encMode: enc, decMode: dec}
}

func (c cborHandler) Marshal(v any) ([]byte, error) {
	return c.encMode.Marshal(v)
}

func (c cborHandler) Unmarshal(data []byte, v any) error {
	return c.decMode.Unmarshal(data, v)
}

func (c cborHandler) Encode(w io.Writer, v any) error {
	return c.encMode.NewEncoder(w).Encode(v)
}

func (c cborHandler) Decode(r io.Reader, v any) error {
	return c.decMode.NewDecoder(r).Decode(v)
}

func (c cborHandler) GetEncoder(w io.Writer) (*cbor.Encoder, error) {
	return c.encMode.NewEncoder(w), nil
}

func (c cborHandler) GetDecoder(r io.Reader) *cbor.Decoder {
	return c.decMode.NewDecoder(r)
}

// RawCBOR is a raw encoded CBOR value, decoding of it is delayed.
type RawCBOR = cbor.RawMessage
