package types

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	ErrTransactionIsNil = errors.New("transaction is nil")
	ErrInvalidBody      = errors.New("invalid transaction body")
)

/*
TxnAccessor gives parsed view of a signed transaction together with its
encoded form which is what gets handed to the consensus platform.

The accessor also carries the "submitted" mark: the platform intake is
attempted at most once per accessor, whatever the outcome of the attempt.
*/
type TxnAccessor struct {
	signedTxn *Transaction
	raw       []byte
	body      TransactionBody
	kind      OperationKind
	submitted atomic.Bool
}

// NewTxnAccessor decodes the body of the transaction. Returned error wraps
// ErrInvalidBody when the body bytes do not decode to a body with exactly one
// operation set.
func NewTxnAccessor(tx *Transaction) (*TxnAccessor, error) {
	if tx == nil {
		return nil, ErrTransactionIsNil
	}
	a := &TxnAccessor{signedTxn: tx}
	if err := Cbor.Unmarshal(tx.BodyBytes, &a.body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	kind, err := a.body.Kind()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	a.kind = kind
	if a.raw, err = Cbor.Marshal(tx); err != nil {
		return nil, fmt.Errorf("encoding signed transaction: %w", err)
	}
	return a, nil
}

func (a *TxnAccessor) SignedTxn() *Transaction { return a.signedTxn }

// Raw returns the encoded signed transaction.
func (a *TxnAccessor) Raw() []byte { return a.raw }

func (a *TxnAccessor) Body() *TransactionBody { return &a.body }

func (a *TxnAccessor) Kind() OperationKind { return a.kind }

func (a *TxnAccessor) TxID() TransactionID { return a.body.TransactionID }

func (a *TxnAccessor) Payer() AccountID { return a.body.TransactionID.Payer }

// MarkSubmitted returns true only for the first call.
func (a *TxnAccessor) MarkSubmitted() bool {
	return a.submitted.CompareAndSwap(false, true)
}

func (a *TxnAccessor) IsSubmitted() bool { return a.submitted.Load() }

// SigValueObj describes the signature related cost inputs of a transaction.
type SigValueObj struct {
	TotalSigCount     int
	PayerAcctSigCount int
	SignatureSize     int
}

// SigUsage returns signature cost inputs where payerKeyCount is the number of
// keys of the payer account.
func (a *TxnAccessor) SigUsage(payerKeyCount int) SigValueObj {
	sv := SigValueObj{
		TotalSigCount:     len(a.signedTxn.SigMap),
		PayerAcctSigCount: payerKeyCount,
	}
	for _, sp := range a.signedTxn.SigMap {
		sv.SignatureSize += len(sp.PubKey) + len(sp.Signature)
	}
	return sv
}
