package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExchangeRate_IsValid(t *testing.T) {
	require.NoError(t, ExchangeRate{HbarEquiv: 1, CentEquiv: 12}.IsValid())
	require.ErrorIs(t, ExchangeRate{CentEquiv: 12}.IsValid(), ErrInvalidExchangeRate)
	require.ErrorIs(t, ExchangeRate{HbarEquiv: 1}.IsValid(), ErrInvalidExchangeRate)

	set := ExchangeRateSet{CurrentRate: ExchangeRate{HbarEquiv: 1, CentEquiv: 12}}
	require.ErrorContains(t, set.IsValid(), "next rate: invalid exchange rate: hbar equivalent must be positive")
}

func TestTxnValidityAndFeeReq(t *testing.T) {
	v := NewTxnValidityAndFeeReq(InsufficientTxFee, 42)
	require.Equal(t, InsufficientTxFee, v.Validity())
	require.EqualValues(t, 42, v.RequiredFee())
	require.False(t, v.IsOK())
	require.True(t, Validity(OK).IsOK())
	require.Equal(t, TransactionResponse{NodeTransactionPrecheckCode: InsufficientTxFee, Cost: 42}, NewTransactionResponse(v))
}

func TestFeeComponents_Values(t *testing.T) {
	fc := FeeComponents{Constant: 1, Bpt: 2, Vpt: 3, Rbh: 4, Sbh: 5, Gas: 6, Tv: 7, Bpr: 8, Sbpr: 9}
	require.Equal(t, [9]uint64{1, 2, 3, 4, 5, 6, 7, 8, 9}, fc.Values())
	fd := FeeData{Nodedata: fc}
	require.Equal(t, fc, fd.Partitions()[0])
}
