package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseAccountID(t *testing.T) {
	id, err := ParseAccountID("0.0.1001")
	require.NoError(t, err)
	require.Equal(t, NewAccountID(0, 0, 1001), id)
	require.Equal(t, "0.0.1001", id.String())
	require.True(t, id.IsValid())

	_, err = ParseAccountID("0.0")
	require.ErrorContains(t, err, `invalid account id: expected shard.realm.num, got "0.0"`)
	_, err = ParseAccountID("0.x.1")
	require.ErrorContains(t, err, `parsing "x"`)

	require.False(t, NewAccountID(0, 0, 0).IsValid())
	require.False(t, NewAccountID(0, -1, 5).IsValid())
}

func TestContractID_Text(t *testing.T) {
	id := NewContractID(1, 2, 3)
	data, err := json.Marshal(map[string]ContractID{"id": id})
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"1.2.3"}`, string(data))

	var decoded map[string]ContractID
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, id, decoded["id"])
	require.Equal(t, NewAccountID(1, 2, 3), id.AccountID())
}

func TestTimestamp(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 42, time.UTC)
	ts := TimestampOf(now)
	require.Equal(t, now, ts.Time())
	require.False(t, ts.IsZero())
	require.True(t, Timestamp{}.IsZero())
	require.Equal(t, "1714564800.000000042", ts.String())
}

func TestTransactionID(t *testing.T) {
	require.True(t, TransactionID{}.IsZero())
	id := TransactionID{ValidStart: Timestamp{Seconds: 10}, Payer: NewAccountID(0, 0, 2)}
	require.False(t, id.IsZero())
	require.Equal(t, "0.0.2@10.000000000", id.String())
	require.Equal(t, 90*time.Second, Duration{Seconds: 90}.Std())
	require.Equal(t, Duration{Seconds: 2}, DurationOf(2500*time.Millisecond))
}
