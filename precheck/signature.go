package precheck

import (
	"bytes"
	"crypto/ed25519"

	"github.com/alphabill-org/admission/state"
	"github.com/alphabill-org/admission/types"
)

// SignatureVerifier checks that the transaction carries the signatures the
// payer account requires.
type SignatureVerifier interface {
	HasNecessarySignatures(payer *state.Account, tx *types.Transaction) bool
}

// Ed25519Verifier requires a valid ed25519 signature of the body bytes made
// with the key of the payer account.
type Ed25519Verifier struct{}

func (Ed25519Verifier) HasNecessarySignatures(payer *state.Account, tx *types.Transaction) bool {
	if payer == nil || tx == nil || len(payer.Key) != ed25519.PublicKeySize {
		return false
	}
	for _, sp := range tx.SigMap {
		if !bytes.Equal(sp.PubKey, payer.Key) {
			continue
		}
		if len(sp.Signature) == ed25519.SignatureSize && ed25519.Verify(ed25519.PublicKey(payer.Key), tx.BodyBytes, sp.Signature) {
			return true
		}
	}
	return false
}
