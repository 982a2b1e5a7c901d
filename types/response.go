package types

type ResponseHeader struct {
	_                           struct{}     `cbor:",toarray"`
	NodeTransactionPrecheckCode ResponseCode `json:"nodeTransactionPrecheckCode"`
	ResponseType                ResponseType `json:"responseType"`
	Cost                        uint64       `json:"cost"`
}

// Response is the answer to all query kind RPCs. The field set matches the
// field set in the Query.
type Response struct {
	ContractCallLocal   *ContractCallLocalResponse   `cbor:"1,keyasint,omitempty" json:"contractCallLocal,omitempty"`
	ContractGetInfo     *ContractGetInfoResponse     `cbor:"2,keyasint,omitempty" json:"contractGetInfo,omitempty"`
	ContractGetBytecode *ContractGetBytecodeResponse `cbor:"3,keyasint,omitempty" json:"contractGetBytecode,omitempty"`
	ContractGetRecords  *ContractGetRecordsResponse  `cbor:"4,keyasint,omitempty" json:"contractGetRecords,omitempty"`
	GetBySolidityID     *GetBySolidityIDResponse     `cbor:"5,keyasint,omitempty" json:"getBySolidityID,omitempty"`
}

// Header of the set response, zero value when nothing is set.
func (r *Response) Header() ResponseHeader {
	switch {
	case r == nil:
		return ResponseHeader{}
	case r.ContractCallLocal != nil:
		return r.ContractCallLocal.Header
	case r.ContractGetInfo != nil:
		return r.ContractGetInfo.Header
	case r.ContractGetBytecode != nil:
		return r.ContractGetBytecode.Header
	case r.ContractGetRecords != nil:
		return r.ContractGetRecords.Header
	case r.GetBySolidityID != nil:
		return r.GetBySolidityID.Header
	default:
		return ResponseHeader{}
	}
}

// ContractFunctionResult is the outcome of a contract function call.
type ContractFunctionResult struct {
	ContractID         ContractID `cbor:"1,keyasint" json:"contractID"`
	ContractCallResult Bytes      `cbor:"2,keyasint,omitempty" json:"contractCallResult,omitempty"`
	ErrorMessage       string     `cbor:"3,keyasint,omitempty" json:"errorMessage,omitempty"`
	GasUsed            uint64     `cbor:"4,keyasint" json:"gasUsed"`
}

type ContractCallLocalResponse struct {
	Header         ResponseHeader          `cbor:"1,keyasint" json:"header"`
	FunctionResult *ContractFunctionResult `cbor:"2,keyasint,omitempty" json:"functionResult,omitempty"`
}

type ContractInfo struct {
	ContractID      ContractID `cbor:"1,keyasint" json:"contractID"`
	AccountID       AccountID  `cbor:"2,keyasint" json:"accountID"`
	AdminKey        Bytes      `cbor:"3,keyasint,omitempty" json:"adminKey,omitempty"`
	ExpirationTime  Timestamp  `cbor:"4,keyasint" json:"expirationTime"`
	AutoRenewPeriod Duration   `cbor:"5,keyasint" json:"autoRenewPeriod"`
	StorageBytes    uint64     `cbor:"6,keyasint" json:"storage"`
	Memo            string     `cbor:"7,keyasint,omitempty" json:"memo,omitempty"`
	Balance         uint64     `cbor:"8,keyasint" json:"balance"`
	SolidityAddress string     `cbor:"9,keyasint,omitempty" json:"solidityAddress,omitempty"`
}

type ContractGetInfoResponse struct {
	Header       ResponseHeader `cbor:"1,keyasint" json:"header"`
	ContractInfo *ContractInfo  `cbor:"2,keyasint,omitempty" json:"contractInfo,omitempty"`
}

type ContractGetBytecodeResponse struct {
	Header   ResponseHeader `cbor:"1,keyasint" json:"header"`
	Bytecode Bytes          `cbor:"2,keyasint,omitempty" json:"bytecode,omitempty"`
}

// TransactionRecord is the outcome of a handled transaction as kept by the
// ledger state.
type TransactionRecord struct {
	TransactionID      TransactionID           `cbor:"1,keyasint" json:"transactionID"`
	ConsensusTimestamp Timestamp               `cbor:"2,keyasint" json:"consensusTimestamp"`
	TransactionFee     uint64                  `cbor:"3,keyasint" json:"transactionFee"`
	Memo               string                  `cbor:"4,keyasint,omitempty" json:"memo,omitempty"`
	Status             ResponseCode            `cbor:"5,keyasint" json:"status"`
	CallResult         *ContractFunctionResult `cbor:"6,keyasint,omitempty" json:"callResult,omitempty"`
}

type ContractGetRecordsResponse struct {
	Header     ResponseHeader      `cbor:"1,keyasint" json:"header"`
	ContractID *ContractID         `cbor:"2,keyasint,omitempty" json:"contractID,omitempty"`
	Records    []TransactionRecord `cbor:"3,keyasint,omitempty" json:"records,omitempty"`
}

type GetBySolidityIDResponse struct {
	Header     ResponseHeader `cbor:"1,keyasint" json:"header"`
	AccountID  *AccountID     `cbor:"2,keyasint,omitempty" json:"accountID,omitempty"`
	ContractID *ContractID    `cbor:"3,keyasint,omitempty" json:"contractID,omitempty"`
}

// HeaderOnlyResponse builds response of given kind which carries only the
// header (cost answers and rejections).
func HeaderOnlyResponse(kind OperationKind, hdr ResponseHeader) *Response {
	switch kind {
	case ContractCallLocal:
		return &Response{ContractCallLocal: &ContractCallLocalResponse{Header: hdr}}
	case ContractGetInfo:
		return &Response{ContractGetInfo: &ContractGetInfoResponse{Header: hdr}}
	case ContractGetBytecode:
		return &Response{ContractGetBytecode: &ContractGetBytecodeResponse{Header: hdr}}
	case ContractGetRecords:
		return &Response{ContractGetRecords: &ContractGetRecordsResponse{Header: hdr}}
	case GetBySolidityID:
		return &Response{GetBySolidityID: &GetBySolidityIDResponse{Header: hdr}}
	default:
		return &Response{}
	}
}
