package testledger

import (
	"crypto/ed25519"
	"testing"

	"github.com/alphabill-org/admission/fees"
	testsig "github.com/alphabill-org/admission/internal/testutils/sig"
	testtransaction "github.com/alphabill-org/admission/internal/testutils/transaction"
	"github.com/alphabill-org/admission/state"
	"github.com/alphabill-org/admission/types"
	"github.com/stretchr/testify/require"
)

const (
	PayerBalance = 1_000_000_000
	// DefaultPrice is the constant price of every partition in the default
	// prices, so a transaction costs 3*DefaultPrice and a query DefaultPrice.
	DefaultPrice = 100
	// LocalCallBasePrice and LocalCallGasPrice give local call base fee of 500
	// and gas price of 2 tiny units.
	LocalCallBasePrice = 500
	LocalCallGasPrice  = 2000
)

var (
	Contract        = types.NewContractID(0, 0, 2001)
	DeletedContract = types.NewContractID(0, 0, 2002)
	// CallParams are the function parameters the test contract has a result for.
	CallParams = []byte{0x01}
	CallResult = types.Bytes{0xca, 0xfe}
)

// Ledger is a state snapshot with a funded payer and a contract, and the
// fee providers matching the constants of the package.
type Ledger struct {
	State    *state.Memory
	Node     types.AccountID
	Payer    types.AccountID
	PayerKey ed25519.PrivateKey
	Prices   *fees.ScheduleProvider
	Rates    *fees.RateProvider
}

func New(t testing.TB) *Ledger {
	t.Helper()
	pub, priv := testsig.CreateSignerAndVerifier(t)
	s := state.NewMemory()
	require.NoError(t, s.PutAccount(&state.Account{ID: testtransaction.DefaultPayer, Key: types.Bytes(pub), Balance: PayerBalance}))
	require.NoError(t, s.PutAccount(&state.Account{ID: testtransaction.DefaultNode}))
	require.NoError(t, s.PutContract(&state.Contract{
		ID:       Contract,
		Bytecode: types.Bytes{0x60, 0x80},
		Storage:  map[string]types.Bytes{state.StorageKey(CallParams): CallResult},
		Balance:  10,
	}))
	require.NoError(t, s.PutContract(&state.Contract{ID: DeletedContract, Deleted: true}))

	prices, err := fees.NewScheduleProvider(Schedules())
	require.NoError(t, err)
	rates, err := fees.NewRateProvider(types.ExchangeRateSet{
		CurrentRate: types.ExchangeRate{HbarEquiv: 1, CentEquiv: 1, ExpirationTime: testtransaction.Now.Unix() + 3600},
		NextRate:    types.ExchangeRate{HbarEquiv: 1, CentEquiv: 1, ExpirationTime: testtransaction.Now.Unix() + 7200},
	})
	require.NoError(t, err)

	return &Ledger{
		State:    s,
		Node:     testtransaction.DefaultNode,
		Payer:    testtransaction.DefaultPayer,
		PayerKey: priv,
		Prices:   prices,
		Rates:    rates,
	}
}

func Schedules() *fees.FeeSchedules {
	prices := map[types.OperationKind]types.FeeData{
		types.ContractCallLocal: {Nodedata: types.FeeComponents{Constant: LocalCallBasePrice, Gas: LocalCallGasPrice}},
	}
	return &fees.FeeSchedules{
		Current: fees.FeeSchedule{Expiry: testtransaction.Now.Unix() + 3600, Prices: prices},
		Next:    fees.FeeSchedule{Expiry: testtransaction.Now.Unix() + 7200, Prices: prices},
		Default: types.FeeData{
			Nodedata:    types.FeeComponents{Constant: DefaultPrice},
			Networkdata: types.FeeComponents{Constant: DefaultPrice},
			Servicedata: types.FeeComponents{Constant: DefaultPrice},
		},
	}
}

// Tx returns transaction signed by the payer.
func (l *Ledger) Tx(t testing.TB, options ...testtransaction.Option) *types.Transaction {
	t.Helper()
	return testtransaction.NewTransaction(t, l.PayerKey, options...)
}

// Payment returns transfer of amount from the payer to the node.
func (l *Ledger) Payment(t testing.TB, amount uint64, options ...testtransaction.Option) *types.Transaction {
	t.Helper()
	return l.Tx(t, append(options, testtransaction.WithTransfer(l.Node, int64(amount)))...)
}
