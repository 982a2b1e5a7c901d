package types

import (
	"errors"
	"fmt"
)

// Transaction is the signed envelope as received from the client: encoded
// TransactionBody and signatures over those bytes.
type Transaction struct {
	_         struct{}        `cbor:",toarray"`
	BodyBytes []byte          `json:"bodyBytes"`
	SigMap    []SignaturePair `json:"sigMap"`
}

type SignaturePair struct {
	_         struct{} `cbor:",toarray"`
	PubKey    Bytes    `json:"pubKey"`
	Signature Bytes    `json:"signature"`
}

/*
TransactionBody is the decoded content of Transaction.BodyBytes. Exactly one
of the operation fields must be set, it determines the OperationKind of the
transaction.
*/
type TransactionBody struct {
	TransactionID            TransactionID `cbor:"1,keyasint" json:"transactionID"`
	NodeAccountID            AccountID     `cbor:"2,keyasint" json:"nodeAccountID"`
	TransactionFee           uint64        `cbor:"3,keyasint" json:"transactionFee"`
	TransactionValidDuration Duration      `cbor:"4,keyasint" json:"transactionValidDuration"`
	Memo                     string        `cbor:"5,keyasint,omitempty" json:"memo,omitempty"`

	CryptoTransfer         *CryptoTransferBody `cbor:"10,keyasint,omitempty" json:"cryptoTransfer,omitempty"`
	ContractCreateInstance *ContractCreateBody `cbor:"11,keyasint,omitempty" json:"contractCreateInstance,omitempty"`
	ContractCall           *ContractCallBody   `cbor:"12,keyasint,omitempty" json:"contractCall,omitempty"`
	ContractUpdateInstance *ContractUpdateBody `cbor:"13,keyasint,omitempty" json:"contractUpdateInstance,omitempty"`
	ContractDeleteInstance *ContractDeleteBody `cbor:"14,keyasint,omitempty" json:"contractDeleteInstance,omitempty"`
	SystemDelete           *SystemDeleteBody   `cbor:"15,keyasint,omitempty" json:"systemDelete,omitempty"`
	SystemUndelete         *SystemUndeleteBody `cbor:"16,keyasint,omitempty" json:"systemUndelete,omitempty"`
}

type AccountAmount struct {
	_         struct{} `cbor:",toarray"`
	AccountID AccountID
	Amount    int64
}

type CryptoTransferBody struct {
	Transfers []AccountAmount `cbor:"1,keyasint" json:"transfers"`
}

type ContractCreateBody struct {
	InitCode              Bytes     `cbor:"1,keyasint,omitempty" json:"initCode,omitempty"`
	AdminKey              Bytes     `cbor:"2,keyasint,omitempty" json:"adminKey,omitempty"`
	Gas                   uint64    `cbor:"3,keyasint" json:"gas"`
	InitialBalance        uint64    `cbor:"4,keyasint" json:"initialBalance"`
	AutoRenewPeriod       *Duration `cbor:"5,keyasint,omitempty" json:"autoRenewPeriod,omitempty"`
	ConstructorParameters Bytes     `cbor:"6,keyasint,omitempty" json:"constructorParameters,omitempty"`
	Memo                  string    `cbor:"7,keyasint,omitempty" json:"memo,omitempty"`
}

type ContractCallBody struct {
	ContractID         *ContractID `cbor:"1,keyasint,omitempty" json:"contractID,omitempty"`
	Gas                uint64      `cbor:"2,keyasint" json:"gas"`
	Amount             uint64      `cbor:"3,keyasint" json:"amount"`
	FunctionParameters Bytes       `cbor:"4,keyasint,omitempty" json:"functionParameters,omitempty"`
}

type ContractUpdateBody struct {
	ContractID      *ContractID `cbor:"1,keyasint,omitempty" json:"contractID,omitempty"`
	ExpirationTime  *Timestamp  `cbor:"2,keyasint,omitempty" json:"expirationTime,omitempty"`
	AdminKey        Bytes       `cbor:"3,keyasint,omitempty" json:"adminKey,omitempty"`
	AutoRenewPeriod *Duration   `cbor:"4,keyasint,omitempty" json:"autoRenewPeriod,omitempty"`
	Memo            *string     `cbor:"5,keyasint,omitempty" json:"memo,omitempty"`
}

type ContractDeleteBody struct {
	ContractID        *ContractID `cbor:"1,keyasint,omitempty" json:"contractID,omitempty"`
	TransferAccountID *AccountID  `cbor:"2,keyasint,omitempty" json:"transferAccountID,omitempty"`
}

type SystemDeleteBody struct {
	ContractID     *ContractID `cbor:"1,keyasint,omitempty" json:"contractID,omitempty"`
	ExpirationTime Timestamp   `cbor:"2,keyasint" json:"expirationTime"`
}

type SystemUndeleteBody struct {
	ContractID *ContractID `cbor:"1,keyasint,omitempty" json:"contractID,omitempty"`
}

var (
	ErrNoOperation        = errors.New("transaction body has no operation set")
	ErrMultipleOperations = errors.New("transaction body has more than one operation set")
)

// Kind returns the operation kind of the body. Error is returned when not
// exactly one operation field is set.
func (b *TransactionBody) Kind() (OperationKind, error) {
	kind := UnknownOperation
	set := func(k OperationKind, isSet bool) error {
		if !isSet {
			return nil
		}
		if kind != UnknownOperation {
			return fmt.Errorf("%w: %s and %s", ErrMultipleOperations, kind, k)
		}
		kind = k
		return nil
	}
	if err := errors.Join(
		set(CryptoTransfer, b.CryptoTransfer != nil),
		set(ContractCreate, b.ContractCreateInstance != nil),
		set(ContractCall, b.ContractCall != nil),
		set(ContractUpdate, b.ContractUpdateInstance != nil),
		set(ContractDelete, b.ContractDeleteInstance != nil),
		set(SystemDelete, b.SystemDelete != nil),
		set(SystemUndelete, b.SystemUndelete != nil),
	); err != nil {
		return UnknownOperation, err
	}
	if kind == UnknownOperation {
		return UnknownOperation, ErrNoOperation
	}
	return kind, nil
}

// TargetContract returns the contract the operation refers to, nil for
// operations which do not refer to an existing contract.
func (b *TransactionBody) TargetContract() *ContractID {
	switch {
	case b.ContractCall != nil:
		return b.ContractCall.ContractID
	case b.ContractUpdateInstance != nil:
		return b.ContractUpdateInstance.ContractID
	case b.ContractDeleteInstance != nil:
		return b.ContractDeleteInstance.ContractID
	case b.SystemDelete != nil:
		return b.SystemDelete.ContractID
	case b.SystemUndelete != nil:
		return b.SystemUndelete.ContractID
	default:
		return nil
	}
}

// TransactionResponse is the answer to all transaction kind RPCs.
type TransactionResponse struct {
	_                           struct{}     `cbor:",toarray"`
	NodeTransactionPrecheckCode ResponseCode `json:"nodeTransactionPrecheckCode"`
	Cost                        uint64       `json:"cost"`
}

func NewTransactionResponse(v TxnValidityAndFeeReq) TransactionResponse {
	return TransactionResponse{NodeTransactionPrecheckCode: v.Validity(), Cost: v.RequiredFee()}
}
