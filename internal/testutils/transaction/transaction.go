package testtransaction

import (
	"crypto/ed25519"
	"errors"
	"testing"
	"time"

	"github.com/alphabill-org/admission/types"
	"github.com/stretchr/testify/require"
)

var (
	// Now is the time test transactions are valid from, validators in tests
	// use it as their clock.
	Now = time.Unix(1_700_000_000, 0).UTC()

	DefaultPayer = types.NewAccountID(0, 0, 1001)
	DefaultNode  = types.NewAccountID(0, 0, 3)
)

func defaultBody() *types.TransactionBody {
	return &types.TransactionBody{
		TransactionID: types.TransactionID{
			ValidStart: types.TimestampOf(Now),
			Payer:      DefaultPayer,
		},
		NodeAccountID:            DefaultNode,
		TransactionFee:           1_000_000,
		TransactionValidDuration: types.Duration{Seconds: 120},
	}
}

type Option func(*types.TransactionBody)

func WithPayer(id types.AccountID) Option {
	return func(b *types.TransactionBody) {
		b.TransactionID.Payer = id
	}
}

func WithNode(id types.AccountID) Option {
	return func(b *types.TransactionBody) {
		b.NodeAccountID = id
	}
}

func WithFee(fee uint64) Option {
	return func(b *types.TransactionBody) {
		b.TransactionFee = fee
	}
}

func WithValidStart(t time.Time) Option {
	return func(b *types.TransactionBody) {
		b.TransactionID.ValidStart = types.TimestampOf(t)
	}
}

func WithValidDuration(d time.Duration) Option {
	return func(b *types.TransactionBody) {
		b.TransactionValidDuration = types.DurationOf(d)
	}
}

func WithMemo(memo string) Option {
	return func(b *types.TransactionBody) {
		b.Memo = memo
	}
}

func WithTransfer(to types.AccountID, amount int64) Option {
	return func(b *types.TransactionBody) {
		b.CryptoTransfer = &types.CryptoTransferBody{Transfers: []types.AccountAmount{
			{AccountID: b.TransactionID.Payer, Amount: -amount},
			{AccountID: to, Amount: amount},
		}}
	}
}

// WithTransfers sets the transfer list as is.
func WithTransfers(transfers ...types.AccountAmount) Option {
	return func(b *types.TransactionBody) {
		b.CryptoTransfer = &types.CryptoTransferBody{Transfers: transfers}
	}
}

func WithContractCall(id types.ContractID, gas uint64, params []byte) Option {
	return func(b *types.TransactionBody) {
		b.ContractCall = &types.ContractCallBody{ContractID: &id, Gas: gas, FunctionParameters: params}
	}
}

func WithContractCreate(cc *types.ContractCreateBody) Option {
	return func(b *types.TransactionBody) {
		b.ContractCreateInstance = cc
	}
}

func WithContractUpdate(cu *types.ContractUpdateBody) Option {
	return func(b *types.TransactionBody) {
		b.ContractUpdateInstance = cu
	}
}

func WithContractDelete(id types.ContractID, transferTo types.AccountID) Option {
	return func(b *types.TransactionBody) {
		b.ContractDeleteInstance = &types.ContractDeleteBody{ContractID: &id, TransferAccountID: &transferTo}
	}
}

func WithSystemDelete(id types.ContractID, expiry types.Timestamp) Option {
	return func(b *types.TransactionBody) {
		b.SystemDelete = &types.SystemDeleteBody{ContractID: &id, ExpirationTime: expiry}
	}
}

func WithSystemUndelete(id types.ContractID) Option {
	return func(b *types.TransactionBody) {
		b.SystemUndelete = &types.SystemUndeleteBody{ContractID: &id}
	}
}

// NewBody returns transaction body with defaults overridden by the options.
// Without an operation option the body is a transfer of 1 to the node.
func NewBody(options ...Option) *types.TransactionBody {
	b := defaultBody()
	for _, o := range options {
		o(b)
	}
	if _, err := b.Kind(); errors.Is(err, types.ErrNoOperation) {
		WithTransfer(b.NodeAccountID, 1)(b)
	}
	return b
}

// Sign encodes the body and signs it with all the keys.
func Sign(t testing.TB, body *types.TransactionBody, keys ...ed25519.PrivateKey) *types.Transaction {
	t.Helper()
	data, err := types.Cbor.Marshal(body)
	require.NoError(t, err)
	tx := &types.Transaction{BodyBytes: data}
	for _, k := range keys {
		tx.SigMap = append(tx.SigMap, types.SignaturePair{
			PubKey:    types.Bytes(k.Public().(ed25519.PublicKey)),
			Signature: ed25519.Sign(k, data),
		})
	}
	return tx
}

// NewTransaction is NewBody and Sign in one call.
func NewTransaction(t testing.TB, key ed25519.PrivateKey, options ...Option) *types.Transaction {
	t.Helper()
	return Sign(t, NewBody(options...), key)
}
