package types

import (
	"fmt"
	"strings"
)

/*
OperationKind identifies the RPC method category. It determines which
operation counters are tracked for the request and which fee schedule
entry is used to price it.
*/
type OperationKind uint16

const (
	UnknownOperation OperationKind = iota
	CryptoTransfer
	ContractCreate
	ContractCall
	ContractCallLocal
	ContractUpdate
	ContractDelete
	SystemDelete
	SystemUndelete
	ContractGetInfo
	ContractGetBytecode
	ContractGetRecords
	GetBySolidityID
)

var operationKindNames = [...]string{
	UnknownOperation:    "UnknownOperation",
	CryptoTransfer:      "CryptoTransfer",
	ContractCreate:      "ContractCreate",
	ContractCall:        "ContractCall",
	ContractCallLocal:   "ContractCallLocal",
	ContractUpdate:      "ContractUpdate",
	ContractDelete:      "ContractDelete",
	SystemDelete:        "SystemDelete",
	SystemUndelete:      "SystemUndelete",
	ContractGetInfo:     "ContractGetInfo",
	ContractGetBytecode: "ContractGetBytecode",
	ContractGetRecords:  "ContractGetRecords",
	GetBySolidityID:     "GetBySolidityID",
}

// AllOperationKinds returns all known kinds, UnknownOperation excluded.
func AllOperationKinds() []OperationKind {
	kinds := make([]OperationKind, 0, len(operationKindNames)-1)
	for k := CryptoTransfer; int(k) < len(operationKindNames); k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

func (k OperationKind) String() string {
	if int(k) < len(operationKindNames) {
		return operationKindNames[k]
	}
	return fmt.Sprintf("OperationKind(%d)", uint16(k))
}

// IsQuery returns true when the kind is answered by the node itself
// rather than submitted to the consensus platform.
func (k OperationKind) IsQuery() bool {
	switch k {
	case ContractCallLocal, ContractGetInfo, ContractGetBytecode, ContractGetRecords, GetBySolidityID:
		return true
	default:
		return false
	}
}

// ParseOperationKind is case insensitive.
func ParseOperationKind(s string) (OperationKind, error) {
	for i, n := range operationKindNames {
		if i != int(UnknownOperation) && strings.EqualFold(n, s) {
			return OperationKind(i), nil
		}
	}
	return UnknownOperation, fmt.Errorf("unknown operation kind %q", s)
}

func (k OperationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *OperationKind) UnmarshalText(text []byte) error {
	v, err := ParseOperationKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ResponseType tells whether the caller wants the answer or only its price.
type ResponseType uint8

const (
	AnswerOnly ResponseType = iota
	AnswerStateProof
	CostAnswer
	CostAnswerStateProof
)

func (t ResponseType) String() string {
	switch t {
	case AnswerOnly:
		return "ANSWER_ONLY"
	case AnswerStateProof:
		return "ANSWER_STATE_PROOF"
	case CostAnswer:
		return "COST_ANSWER"
	case CostAnswerStateProof:
		return "COST_ANSWER_STATE_PROOF"
	default:
		return fmt.Sprintf("ResponseType(%d)", uint8(t))
	}
}

// IsCostOnly returns true for the response types where only the price of the
// answer is returned and no work is performed.
func (t ResponseType) IsCostOnly() bool {
	return t == CostAnswer || t == CostAnswerStateProof
}
