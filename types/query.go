package types

// QueryHeader carries the payment for the query (a CryptoTransfer
// transaction paying the node) and the requested response type.
type QueryHeader struct {
	Payment      *Transaction `cbor:"1,keyasint,omitempty" json:"payment,omitempty"`
	ResponseType ResponseType `cbor:"2,keyasint" json:"responseType"`
}

// Query is the request of all query kind RPCs, exactly one field is set.
type Query struct {
	ContractCallLocal   *ContractCallLocalQuery   `cbor:"1,keyasint,omitempty" json:"contractCallLocal,omitempty"`
	ContractGetInfo     *ContractGetInfoQuery     `cbor:"2,keyasint,omitempty" json:"contractGetInfo,omitempty"`
	ContractGetBytecode *ContractGetBytecodeQuery `cbor:"3,keyasint,omitempty" json:"contractGetBytecode,omitempty"`
	ContractGetRecords  *ContractGetRecordsQuery  `cbor:"4,keyasint,omitempty" json:"contractGetRecords,omitempty"`
	GetBySolidityID     *GetBySolidityIDQuery     `cbor:"5,keyasint,omitempty" json:"getBySolidityID,omitempty"`
}

type ContractCallLocalQuery struct {
	Header             *QueryHeader `cbor:"1,keyasint,omitempty" json:"header,omitempty"`
	ContractID         *ContractID  `cbor:"2,keyasint,omitempty" json:"contractID,omitempty"`
	Gas                uint64       `cbor:"3,keyasint" json:"gas"`
	FunctionParameters Bytes        `cbor:"4,keyasint,omitempty" json:"functionParameters,omitempty"`
	MaxResultSize      uint64       `cbor:"5,keyasint,omitempty" json:"maxResultSize,omitempty"`
}

type ContractGetInfoQuery struct {
	Header     *QueryHeader `cbor:"1,keyasint,omitempty" json:"header,omitempty"`
	ContractID *ContractID  `cbor:"2,keyasint,omitempty" json:"contractID,omitempty"`
}

type ContractGetBytecodeQuery struct {
	Header     *QueryHeader `cbor:"1,keyasint,omitempty" json:"header,omitempty"`
	ContractID *ContractID  `cbor:"2,keyasint,omitempty" json:"contractID,omitempty"`
}

type ContractGetRecordsQuery struct {
	Header     *QueryHeader `cbor:"1,keyasint,omitempty" json:"header,omitempty"`
	ContractID *ContractID  `cbor:"2,keyasint,omitempty" json:"contractID,omitempty"`
}

type GetBySolidityIDQuery struct {
	Header     *QueryHeader `cbor:"1,keyasint,omitempty" json:"header,omitempty"`
	SolidityID string       `cbor:"2,keyasint,omitempty" json:"solidityID,omitempty"`
}

// Kind returns the kind of the first set query field.
func (q *Query) Kind() OperationKind {
	switch {
	case q == nil:
		return UnknownOperation
	case q.ContractCallLocal != nil:
		return ContractCallLocal
	case q.ContractGetInfo != nil:
		return ContractGetInfo
	case q.ContractGetBytecode != nil:
		return ContractGetBytecode
	case q.ContractGetRecords != nil:
		return ContractGetRecords
	case q.GetBySolidityID != nil:
		return GetBySolidityID
	default:
		return UnknownOperation
	}
}

// Header returns the header of the query, nil when the query (or its
// header) is missing.
func (q *Query) Header() *QueryHeader {
	switch q.Kind() {
	case ContractCallLocal:
		return q.ContractCallLocal.Header
	case ContractGetInfo:
		return q.ContractGetInfo.Header
	case ContractGetBytecode:
		return q.ContractGetBytecode.Header
	case ContractGetRecords:
		return q.ContractGetRecords.Header
	case GetBySolidityID:
		return q.GetBySolidityID.Header
	default:
		return nil
	}
}

// ResponseType of the query, ANSWER_ONLY when header is missing.
func (q *Query) ResponseType() ResponseType {
	if h := q.Header(); h != nil {
		return h.ResponseType
	}
	return AnswerOnly
}

// TargetContract returns the contract queried, nil when not set.
func (q *Query) TargetContract() *ContractID {
	switch q.Kind() {
	case ContractCallLocal:
		return q.ContractCallLocal.ContractID
	case ContractGetInfo:
		return q.ContractGetInfo.ContractID
	case ContractGetBytecode:
		return q.ContractGetBytecode.ContractID
	case ContractGetRecords:
		return q.ContractGetRecords.ContractID
	default:
		return nil
	}
}
