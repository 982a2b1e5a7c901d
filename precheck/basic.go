package precheck

import (
	"time"

	"github.com/holiman/uint256"

	"github.com/alphabill-org/admission/types"
)

// Seconds range of representable timestamps, 0001-01-01T00:00:00Z to
// 9999-12-31T23:59:59Z.
const (
	MinTimestampSeconds = -62135596800
	MaxTimestampSeconds = 253402300799
)

func (v *Validator) basicChecks(body *types.TransactionBody) types.ResponseCode {
	txID := body.TransactionID
	if txID.IsZero() || txID.ValidStart.IsZero() {
		return types.InvalidTransactionID
	}
	if !txID.Payer.IsValid() {
		return types.PayerAccountNotFound
	}
	if body.NodeAccountID != v.node {
		return types.InvalidNodeAccount
	}
	if len(body.Memo) > v.maxMemoBytes {
		return types.MemoTooLong
	}
	duration := body.TransactionValidDuration.Std()
	if duration < v.minValidDuration || duration > v.maxValidDuration {
		return types.InvalidTransactionDuration
	}
	return v.checkValidWindow(txID.ValidStart, duration)
}

// checkValidWindow checks that the node's clock is inside the validity window
// [validStart, validStart+duration) of the transaction, allowing the valid
// start to be slightly in the future.
func (v *Validator) checkValidWindow(validStart types.Timestamp, duration time.Duration) types.ResponseCode {
	if validStart.Seconds < MinTimestampSeconds || validStart.Seconds > MaxTimestampSeconds {
		return types.InvalidTransactionStart
	}
	now := v.now()
	start := validStart.Time()
	if start.After(now.Add(v.validStartSkew)) {
		return types.InvalidTransactionStart
	}
	if !now.Before(start.Add(duration)) {
		return types.TransactionExpired
	}
	return types.OK
}

/*
CheckAutoRenewDuration returns AUTORENEW_DURATION_NOT_IN_RANGE when duration
is outside of the [minDuration, maxDuration] range. The bounds are clamped
to the range of representable timestamps first.
*/
func CheckAutoRenewDuration(duration, minDuration, maxDuration types.Duration) types.ResponseCode {
	lo := clampSeconds(minDuration.Seconds)
	hi := clampSeconds(maxDuration.Seconds)
	if duration.Seconds < lo || duration.Seconds > hi {
		return types.AutorenewDurationNotInRange
	}
	return types.OK
}

func clampSeconds(s int64) int64 {
	return min(max(s, MinTimestampSeconds), MaxTimestampSeconds)
}

/*
checkTransfers returns INVALID_ACCOUNT_AMOUNTS unless the amounts of the
transfer net to zero and the payer is debited. Sums are kept in 256 bits so
huge amounts can't wrap around.
*/
func checkTransfers(ct *types.CryptoTransferBody, payer types.AccountID) types.ResponseCode {
	if ct == nil || len(ct.Transfers) == 0 {
		return types.InvalidAccountAmounts
	}
	var credit, debit, payerCredit, payerDebit uint256.Int
	for _, aa := range ct.Transfers {
		if !aa.AccountID.IsValid() {
			return types.InvalidAccountID
		}
		switch {
		case aa.Amount > 0:
			v := uint256.NewInt(uint64(aa.Amount))
			credit.Add(&credit, v)
			if aa.AccountID == payer {
				payerCredit.Add(&payerCredit, v)
			}
		case aa.Amount < 0:
			v := uint256.NewInt(negate(aa.Amount))
			debit.Add(&debit, v)
			if aa.AccountID == payer {
				payerDebit.Add(&payerDebit, v)
			}
		}
	}
	if !credit.Eq(&debit) || !payerDebit.Gt(&payerCredit) {
		return types.InvalidAccountAmounts
	}
	return types.OK
}

// negate returns absolute value of negative amount, math.MinInt64 included.
func negate(amount int64) uint64 {
	return uint64(-(amount + 1)) + 1
}
