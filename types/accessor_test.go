package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func signedTx(t *testing.T, body TransactionBody) *Transaction {
	t.Helper()
	data, err := Cbor.Marshal(body)
	require.NoError(t, err)
	return &Transaction{
		BodyBytes: data,
		SigMap:    []SignaturePair{{PubKey: make([]byte, 32), Signature: make([]byte, 64)}},
	}
}

func TestNewTxnAccessor(t *testing.T) {
	t.Run("nil transaction", func(t *testing.T) {
		a, err := NewTxnAccessor(nil)
		require.ErrorIs(t, err, ErrTransactionIsNil)
		require.Nil(t, a)
	})

	t.Run("garbage body", func(t *testing.T) {
		a, err := NewTxnAccessor(&Transaction{BodyBytes: []byte{0xff, 0x01}})
		require.ErrorIs(t, err, ErrInvalidBody)
		require.Nil(t, a)
	})

	t.Run("no operation", func(t *testing.T) {
		a, err := NewTxnAccessor(signedTx(t, TransactionBody{}))
		require.ErrorIs(t, err, ErrInvalidBody)
		require.ErrorIs(t, err, ErrNoOperation)
		require.Nil(t, a)
	})

	t.Run("two operations", func(t *testing.T) {
		a, err := NewTxnAccessor(signedTx(t, TransactionBody{
			ContractCall:   &ContractCallBody{},
			SystemUndelete: &SystemUndeleteBody{},
		}))
		require.ErrorIs(t, err, ErrMultipleOperations)
		require.Nil(t, a)
	})

	t.Run("success", func(t *testing.T) {
		txID := TransactionID{ValidStart: Timestamp{Seconds: 1}, Payer: NewAccountID(0, 0, 2)}
		tx := signedTx(t, TransactionBody{
			TransactionID:          txID,
			ContractDeleteInstance: &ContractDeleteBody{ContractID: &ContractID{Num: 7}},
		})
		a, err := NewTxnAccessor(tx)
		require.NoError(t, err)
		require.Equal(t, ContractDelete, a.Kind())
		require.Equal(t, txID, a.TxID())
		require.Equal(t, NewAccountID(0, 0, 2), a.Payer())
		require.Equal(t, &ContractID{Num: 7}, a.Body().TargetContract())
		require.Same(t, tx, a.SignedTxn())

		var decoded Transaction
		require.NoError(t, Cbor.Unmarshal(a.Raw(), &decoded))
		require.Equal(t, tx.BodyBytes, decoded.BodyBytes)

		require.Equal(t, SigValueObj{TotalSigCount: 1, PayerAcctSigCount: 1, SignatureSize: 96}, a.SigUsage(1))
	})
}

func TestTxnAccessor_MarkSubmitted(t *testing.T) {
	a, err := NewTxnAccessor(signedTx(t, TransactionBody{CryptoTransfer: &CryptoTransferBody{}}))
	require.NoError(t, err)
	require.False(t, a.IsSubmitted())
	require.True(t, a.MarkSubmitted())
	require.False(t, a.MarkSubmitted())
	require.True(t, a.IsSubmitted())
}
