package types

import "fmt"

// ResponseCode is the precheck (or execution) outcome reported to the caller
// in the header of every response.
type ResponseCode uint32

const (
	OK ResponseCode = iota
	InvalidTransaction
	PayerAccountNotFound
	InvalidNodeAccount
	TransactionExpired
	InvalidTransactionStart
	InvalidTransactionDuration
	InvalidSignature
	MemoTooLong
	InsufficientTxFee
	InsufficientPayerBalance
	DuplicateTransaction
	Busy
	NotSupported
	InvalidAccountID
	InvalidContractID
	InvalidTransactionID
	InvalidTransactionBody
	AutorenewDurationNotInRange
	PlatformTransactionNotCreated
	PlatformNotActive
	MissingQueryHeader
	AccountDeleted
	ContractDeleted
	InsufficientGas
	ContractExecutionException
	InvalidReceivingNodeAccount
	ResultSizeLimitExceeded
	InvalidAccountAmounts
)

var responseCodeNames = [...]string{
	OK:                            "OK",
	InvalidTransaction:            "INVALID_TRANSACTION",
	PayerAccountNotFound:          "PAYER_ACCOUNT_NOT_FOUND",
	InvalidNodeAccount:            "INVALID_NODE_ACCOUNT",
	TransactionExpired:            "TRANSACTION_EXPIRED",
	InvalidTransactionStart:       "INVALID_TRANSACTION_START",
	InvalidTransactionDuration:    "INVALID_TRANSACTION_DURATION",
	InvalidSignature:              "INVALID_SIGNATURE",
	MemoTooLong:                   "MEMO_TOO_LONG",
	InsufficientTxFee:             "INSUFFICIENT_TX_FEE",
	InsufficientPayerBalance:      "INSUFFICIENT_PAYER_BALANCE",
	DuplicateTransaction:          "DUPLICATE_TRANSACTION",
	Busy:                          "BUSY",
	NotSupported:                  "NOT_SUPPORTED",
	InvalidAccountID:              "INVALID_ACCOUNT_ID",
	InvalidContractID:             "INVALID_CONTRACT_ID",
	InvalidTransactionID:          "INVALID_TRANSACTION_ID",
	InvalidTransactionBody:        "INVALID_TRANSACTION_BODY",
	AutorenewDurationNotInRange:   "AUTORENEW_DURATION_NOT_IN_RANGE",
	PlatformTransactionNotCreated: "PLATFORM_TRANSACTION_NOT_CREATED",
	PlatformNotActive:             "PLATFORM_NOT_ACTIVE",
	MissingQueryHeader:            "MISSING_QUERY_HEADER",
	AccountDeleted:                "ACCOUNT_DELETED",
	ContractDeleted:               "CONTRACT_DELETED",
	InsufficientGas:               "INSUFFICIENT_GAS",
	ContractExecutionException:    "CONTRACT_EXECUTION_EXCEPTION",
	InvalidReceivingNodeAccount:   "INVALID_RECEIVING_NODE_ACCOUNT",
	ResultSizeLimitExceeded:       "RESULT_SIZE_LIMIT_EXCEEDED",
	InvalidAccountAmounts:         "INVALID_ACCOUNT_AMOUNTS",
}

func (c ResponseCode) String() string {
	if int(c) < len(responseCodeNames) && responseCodeNames[c] != "" {
		return responseCodeNames[c]
	}
	return fmt.Sprintf("ResponseCode(%d)", uint32(c))
}

/*
IsRetryable returns true for the codes which signal a transient condition of
the consensus platform intake. The admission layer never retries on its own,
it is up to the client to resubmit the request.
*/
func (c ResponseCode) IsRetryable() bool {
	switch c {
	case Busy, PlatformTransactionNotCreated, PlatformNotActive, DuplicateTransaction:
		return true
	default:
		return false
	}
}

func (c ResponseCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ResponseCode) UnmarshalText(text []byte) error {
	for i, n := range responseCodeNames {
		if n == string(text) {
			*c = ResponseCode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown response code %q", text)
}
