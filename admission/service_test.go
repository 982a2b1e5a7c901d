package admission

import (
	"context"
	"crypto"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/admission/contract"
	testledger "github.com/alphabill-org/admission/internal/testutils/ledger"
	testlogger "github.com/alphabill-org/admission/internal/testutils/logger"
	testobserve "github.com/alphabill-org/admission/internal/testutils/observability"
	testtransaction "github.com/alphabill-org/admission/internal/testutils/transaction"
	"github.com/alphabill-org/admission/precheck"
	"github.com/alphabill-org/admission/queries"
	"github.com/alphabill-org/admission/records"
	"github.com/alphabill-org/admission/stats"
	"github.com/alphabill-org/admission/submission"
	"github.com/alphabill-org/admission/txbuffer"
	"github.com/alphabill-org/admission/types"
)

// countingPlatform counts the submissions reaching the tx buffer.
type countingPlatform struct {
	buf   *txbuffer.TxBuffer
	calls atomic.Int32
	err   error
}

func (p *countingPlatform) Add(ctx context.Context, tx *txbuffer.Tx) ([]byte, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return p.buf.Add(ctx, tx)
}

type countingExecutor struct {
	exec  Executor
	calls atomic.Int32
	fn    func() (*types.ContractCallLocalResponse, error)
}

func (e *countingExecutor) CallLocal(ctx context.Context, q *types.ContractCallLocalQuery) (*types.ContractCallLocalResponse, error) {
	e.calls.Add(1)
	if e.fn != nil {
		return e.fn()
	}
	return e.exec.CallLocal(ctx, q)
}

type testEnv struct {
	ledger   *testledger.Ledger
	platform *countingPlatform
	executor *countingExecutor
	counters *stats.OpCounters
	service  *Service
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	l := testledger.New(t)
	obs := testobserve.Default(t)
	log := testlogger.New(t)

	buf, err := txbuffer.New(10, crypto.SHA256, obs)
	require.NoError(t, err)
	cache := records.New(100, time.Minute)
	validator, err := precheck.NewValidator(l.Node, l.State, l.Prices, l.Rates,
		precheck.WithClock(func() time.Time { return testtransaction.Now }),
		precheck.WithDuplicateChecker(cache),
		precheck.WithLogger(log))
	require.NoError(t, err)
	platform := &countingPlatform{buf: buf}
	manager, err := submission.NewManager(platform, cache, obs)
	require.NoError(t, err)
	counters := stats.NewOpCounters()
	helper, err := queries.NewHelper(validator, l.Prices, l.Rates, manager, counters, cfg.IsStaked, log)
	require.NoError(t, err)
	executor := &countingExecutor{exec: contract.NewExecutor(l.State, log)}

	s, err := New(cfg, Components{
		Validator: validator,
		Prices:    l.Prices,
		Rates:     l.Rates,
		Submitter: manager,
		Counters:  counters,
		Executor:  executor,
		Answerer:  helper,
		Answers: ContractAnswers{
			Info:     queries.NewGetInfoAnswer(l.State, log),
			Bytecode: queries.NewGetBytecodeAnswer(l.State, log),
			Records:  queries.NewGetRecordsAnswer(l.State, log),
		},
	}, obs)
	require.NoError(t, err)
	s.now = func() time.Time { return testtransaction.Now }
	return &testEnv{ledger: l, platform: platform, executor: executor, counters: counters, service: s}
}

func stakedConfig() Config {
	cfg := DefaultConfig()
	cfg.MinAutoRenew = types.Duration{Seconds: 10}
	cfg.MaxAutoRenew = types.Duration{Seconds: 100}
	return cfg
}

func durationPtr(seconds int64) *types.Duration {
	return &types.Duration{Seconds: seconds}
}

func endpoints(s *Service) map[types.OperationKind]func(context.Context, *types.Transaction) (types.TransactionResponse, error) {
	return map[types.OperationKind]func(context.Context, *types.Transaction) (types.TransactionResponse, error){
		types.ContractCreate: s.CreateContract,
		types.ContractCall:   s.CallContract,
		types.ContractUpdate: s.UpdateContract,
		types.ContractDelete: s.DeleteContract,
		types.SystemDelete:   s.SystemDelete,
		types.SystemUndelete: s.SystemUndelete,
	}
}

func TestNew(t *testing.T) {
	l := testledger.New(t)
	obs := testobserve.NOPObservability()

	cfg := DefaultConfig()
	cfg.MinAutoRenew, cfg.MaxAutoRenew = cfg.MaxAutoRenew, cfg.MinAutoRenew
	_, err := New(cfg, Components{}, obs)
	require.ErrorContains(t, err, "invalid configuration: min auto renew duration")

	_, err = New(DefaultConfig(), Components{}, obs)
	require.EqualError(t, err, "validator is nil")

	v, err := precheck.NewValidator(l.Node, l.State, l.Prices, l.Rates)
	require.NoError(t, err)
	_, err = New(DefaultConfig(), Components{Validator: v, Prices: l.Prices, Rates: l.Rates}, obs)
	require.EqualError(t, err, "submitter is nil")
}

func TestService_transactions(t *testing.T) {
	beneficiary := types.NewAccountID(0, 0, 98)
	unknown := types.NewContractID(0, 0, 9999)

	var tests = []struct {
		name     string
		kind     types.OperationKind
		opts     []testtransaction.Option
		wantCode types.ResponseCode
	}{
		{
			name:     "create",
			kind:     types.ContractCreate,
			opts:     []testtransaction.Option{testtransaction.WithContractCreate(&types.ContractCreateBody{InitCode: types.Bytes{1}, AutoRenewPeriod: durationPtr(50)})},
			wantCode: types.OK,
		},
		{
			name:     "create with too short auto renew period",
			kind:     types.ContractCreate,
			opts:     []testtransaction.Option{testtransaction.WithContractCreate(&types.ContractCreateBody{AutoRenewPeriod: durationPtr(5)})},
			wantCode: types.AutorenewDurationNotInRange,
		},
		{
			name:     "create without auto renew period",
			kind:     types.ContractCreate,
			opts:     []testtransaction.Option{testtransaction.WithContractCreate(&types.ContractCreateBody{})},
			wantCode: types.AutorenewDurationNotInRange,
		},
		{
			name:     "create with call body",
			kind:     types.ContractCreate,
			opts:     []testtransaction.Option{testtransaction.WithContractCall(testledger.Contract, 1000, nil)},
			wantCode: types.InvalidTransactionBody,
		},
		{
			name:     "call",
			kind:     types.ContractCall,
			opts:     []testtransaction.Option{testtransaction.WithContractCall(testledger.Contract, 1000, testledger.CallParams)},
			wantCode: types.OK,
		},
		{
			name:     "call unknown contract",
			kind:     types.ContractCall,
			opts:     []testtransaction.Option{testtransaction.WithContractCall(unknown, 1000, nil)},
			wantCode: types.InvalidContractID,
		},
		{
			name:     "call deleted contract",
			kind:     types.ContractCall,
			opts:     []testtransaction.Option{testtransaction.WithContractCall(testledger.DeletedContract, 1000, nil)},
			wantCode: types.InvalidContractID,
		},
		{
			name:     "update",
			kind:     types.ContractUpdate,
			opts:     []testtransaction.Option{testtransaction.WithContractUpdate(&types.ContractUpdateBody{ContractID: &testledger.Contract})},
			wantCode: types.OK,
		},
		{
			name:     "update with too long auto renew period",
			kind:     types.ContractUpdate,
			opts:     []testtransaction.Option{testtransaction.WithContractUpdate(&types.ContractUpdateBody{ContractID: &testledger.Contract, AutoRenewPeriod: durationPtr(200)})},
			wantCode: types.AutorenewDurationNotInRange,
		},
		{
			name:     "update without contract id",
			kind:     types.ContractUpdate,
			opts:     []testtransaction.Option{testtransaction.WithContractUpdate(&types.ContractUpdateBody{AutoRenewPeriod: durationPtr(50)})},
			wantCode: types.InvalidContractID,
		},
		{
			name:     "delete",
			kind:     types.ContractDelete,
			opts:     []testtransaction.Option{testtransaction.WithContractDelete(testledger.Contract, beneficiary)},
			wantCode: types.OK,
		},
		{
			name:     "delete unknown contract",
			kind:     types.ContractDelete,
			opts:     []testtransaction.Option{testtransaction.WithContractDelete(unknown, beneficiary)},
			wantCode: types.InvalidContractID,
		},
		{
			name:     "system delete",
			kind:     types.SystemDelete,
			opts:     []testtransaction.Option{testtransaction.WithSystemDelete(testledger.Contract, types.TimestampOf(testtransaction.Now.Add(time.Hour)))},
			wantCode: types.OK,
		},
		{
			name:     "system undelete of deleted contract",
			kind:     types.SystemUndelete,
			opts:     []testtransaction.Option{testtransaction.WithSystemUndelete(testledger.DeletedContract)},
			wantCode: types.OK,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, stakedConfig())
			resp, err := endpoints(env.service)[tc.kind](context.Background(), env.ledger.Tx(t, tc.opts...))
			require.NoError(t, err)
			require.Equal(t, tc.wantCode, resp.NodeTransactionPrecheckCode)
			require.Zero(t, resp.Cost)
			require.EqualValues(t, 1, env.counters.ReceivedSoFar(tc.kind))

			var submitted int32
			if tc.wantCode == types.OK {
				submitted = 1
			}
			require.EqualValues(t, submitted, env.platform.calls.Load())
			require.EqualValues(t, submitted, env.counters.SubmittedSoFar(tc.kind))
		})
	}
}

func TestService_transaction_insufficientFee(t *testing.T) {
	env := newTestEnv(t, stakedConfig())
	tx := env.ledger.Tx(t, testtransaction.WithFee(1), testtransaction.WithContractCall(testledger.Contract, 1000, nil))
	resp, err := env.service.CallContract(context.Background(), tx)
	require.NoError(t, err)
	require.Equal(t, types.InsufficientTxFee, resp.NodeTransactionPrecheckCode)
	require.EqualValues(t, 3*testledger.DefaultPrice, resp.Cost)
	require.Zero(t, env.platform.calls.Load())
}

// unparseable body is rejected without submission
func TestService_transaction_invalidBody(t *testing.T) {
	env := newTestEnv(t, stakedConfig())
	resp, err := env.service.CreateContract(context.Background(), &types.Transaction{BodyBytes: []byte{0xff, 0x00, 0x13}})
	require.NoError(t, err)
	require.Equal(t, types.InvalidTransactionBody, resp.NodeTransactionPrecheckCode)
	require.EqualValues(t, 1, env.counters.ReceivedSoFar(types.ContractCreate))
	require.Zero(t, env.counters.SubmittedSoFar(types.ContractCreate))
	require.Zero(t, env.platform.calls.Load())

	resp, err = env.service.CreateContract(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, types.InvalidTransactionBody, resp.NodeTransactionPrecheckCode)
}

func TestService_transaction_zeroStake(t *testing.T) {
	cfg := stakedConfig()
	cfg.IsStaked = false
	env := newTestEnv(t, cfg)

	calls := endpoints(env.service)
	tx := env.ledger.Tx(t, testtransaction.WithContractCall(testledger.Contract, 1000, nil))
	for kind, call := range calls {
		resp, err := call(context.Background(), tx)
		require.NoError(t, err)
		require.Equal(t, types.InvalidNodeAccount, resp.NodeTransactionPrecheckCode, kind.String())
		require.EqualValues(t, 1, env.counters.ReceivedSoFar(kind))
		require.Zero(t, env.counters.SubmittedSoFar(kind))
		require.Zero(t, env.counters.HandledSoFar(kind))
	}
	require.Zero(t, env.platform.calls.Load())
}

func TestService_transaction_submittedOnce(t *testing.T) {
	env := newTestEnv(t, stakedConfig())
	tx := env.ledger.Tx(t, testtransaction.WithContractCall(testledger.Contract, 1000, nil))

	resp, err := env.service.CallContract(context.Background(), tx)
	require.NoError(t, err)
	require.Equal(t, types.OK, resp.NodeTransactionPrecheckCode)

	resp, err = env.service.CallContract(context.Background(), tx)
	require.NoError(t, err)
	require.Equal(t, types.DuplicateTransaction, resp.NodeTransactionPrecheckCode)
	require.EqualValues(t, 1, env.platform.calls.Load())
	require.EqualValues(t, 2, env.counters.ReceivedSoFar(types.ContractCall))
	require.EqualValues(t, 1, env.counters.SubmittedSoFar(types.ContractCall))
}

func TestService_transaction_platformRejects(t *testing.T) {
	env := newTestEnv(t, stakedConfig())
	env.platform.err = txbuffer.ErrTxBufferFull
	resp, err := env.service.CallContract(context.Background(), env.ledger.Tx(t, testtransaction.WithContractCall(testledger.Contract, 1000, nil)))
	require.NoError(t, err)
	require.Equal(t, types.Busy, resp.NodeTransactionPrecheckCode)
	require.True(t, resp.NodeTransactionPrecheckCode.IsRetryable())
	require.Zero(t, env.counters.SubmittedSoFar(types.ContractCall))
}

func TestService_transaction_cancelled(t *testing.T) {
	env := newTestEnv(t, stakedConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := env.service.CallContract(ctx, env.ledger.Tx(t, testtransaction.WithContractCall(testledger.Contract, 1000, nil)))
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, env.platform.calls.Load())
}

func localCallQuery(rt types.ResponseType, payment *types.Transaction, id types.ContractID, gas uint64, params []byte) *types.Query {
	return &types.Query{ContractCallLocal: &types.ContractCallLocalQuery{
		Header:             &types.QueryHeader{Payment: payment, ResponseType: rt},
		ContractID:         &id,
		Gas:                gas,
		FunctionParameters: params,
	}}
}

// base fee 500 + gas price 2 * 1000 gas
const localCallFee = 2500

func TestService_ContractCallLocal(t *testing.T) {
	t.Run("answer", func(t *testing.T) {
		env := newTestEnv(t, stakedConfig())
		q := localCallQuery(types.AnswerOnly, env.ledger.Payment(t, localCallFee), testledger.Contract, 1000, testledger.CallParams)
		resp, err := env.service.ContractCallLocal(context.Background(), q)
		require.NoError(t, err)
		hdr := resp.Header()
		require.Equal(t, types.OK, hdr.NodeTransactionPrecheckCode)
		require.EqualValues(t, localCallFee, hdr.Cost)
		require.Equal(t, types.AnswerOnly, hdr.ResponseType)
		require.NotNil(t, resp.ContractCallLocal.FunctionResult)
		require.Equal(t, testledger.CallResult, resp.ContractCallLocal.FunctionResult.ContractCallResult)
		require.Equal(t, testledger.Contract, resp.ContractCallLocal.FunctionResult.ContractID)

		require.EqualValues(t, 1, env.platform.calls.Load())
		require.EqualValues(t, 1, env.executor.calls.Load())
		require.EqualValues(t, 1, env.counters.ReceivedSoFar(types.ContractCallLocal))
		require.EqualValues(t, 1, env.counters.AnsweredSoFar(types.ContractCallLocal))
		require.EqualValues(t, 1, env.counters.SubmittedSoFar(types.CryptoTransfer))
	})

	t.Run("cost answer", func(t *testing.T) {
		env := newTestEnv(t, stakedConfig())
		q := localCallQuery(types.CostAnswer, nil, testledger.Contract, 1000, testledger.CallParams)
		resp, err := env.service.ContractCallLocal(context.Background(), q)
		require.NoError(t, err)
		require.Equal(t, types.OK, resp.Header().NodeTransactionPrecheckCode)
		require.EqualValues(t, localCallFee, resp.Header().Cost)
		require.Nil(t, resp.ContractCallLocal.FunctionResult)
		require.Zero(t, env.platform.calls.Load())
		require.Zero(t, env.executor.calls.Load())
		require.EqualValues(t, 1, env.counters.AnsweredSoFar(types.ContractCallLocal))
	})

	t.Run("cost answer with payment is not charged", func(t *testing.T) {
		env := newTestEnv(t, stakedConfig())
		q := localCallQuery(types.CostAnswer, env.ledger.Payment(t, localCallFee), testledger.Contract, 1000, testledger.CallParams)
		resp, err := env.service.ContractCallLocal(context.Background(), q)
		require.NoError(t, err)
		require.Equal(t, types.OK, resp.Header().NodeTransactionPrecheckCode)
		require.Zero(t, env.platform.calls.Load())
		require.Zero(t, env.executor.calls.Load())
	})

	t.Run("gas price never rounds to zero", func(t *testing.T) {
		env := newTestEnv(t, stakedConfig())
		q := localCallQuery(types.CostAnswer, nil, testledger.Contract, 1000, testledger.CallParams)
		schedules := testledger.Schedules()
		schedules.Current.Prices[types.ContractCallLocal] = types.FeeData{Nodedata: types.FeeComponents{Constant: 500, Gas: 999}}
		require.NoError(t, env.ledger.Prices.Update(schedules))
		require.EqualValues(t, 1, env.service.GasPrice(types.TimestampOf(testtransaction.Now)))

		resp, err := env.service.ContractCallLocal(context.Background(), q)
		require.NoError(t, err)
		require.EqualValues(t, 500+1000, resp.Header().Cost)
	})

	t.Run("payment too small", func(t *testing.T) {
		env := newTestEnv(t, stakedConfig())
		q := localCallQuery(types.AnswerOnly, env.ledger.Payment(t, localCallFee-1), testledger.Contract, 1000, testledger.CallParams)
		resp, err := env.service.ContractCallLocal(context.Background(), q)
		require.NoError(t, err)
		require.Equal(t, types.InsufficientTxFee, resp.Header().NodeTransactionPrecheckCode)
		require.EqualValues(t, localCallFee, resp.Header().Cost)
		require.Nil(t, resp.ContractCallLocal.FunctionResult)
		require.Zero(t, env.platform.calls.Load())
		require.EqualValues(t, 1, env.counters.AnsweredSoFar(types.ContractCallLocal))
	})

	t.Run("execution failure is reported", func(t *testing.T) {
		env := newTestEnv(t, stakedConfig())
		q := localCallQuery(types.AnswerOnly, env.ledger.Payment(t, localCallFee), testledger.Contract, 1000, []byte{0x02})
		resp, err := env.service.ContractCallLocal(context.Background(), q)
		require.NoError(t, err)
		require.Equal(t, types.ContractExecutionException, resp.Header().NodeTransactionPrecheckCode)
		require.EqualValues(t, localCallFee, resp.Header().Cost)
		require.NotNil(t, resp.ContractCallLocal.FunctionResult)
		require.Empty(t, resp.ContractCallLocal.FunctionResult.ContractCallResult)
		require.NotEmpty(t, resp.ContractCallLocal.FunctionResult.ErrorMessage)
		// the fee is collected for the failed call too
		require.EqualValues(t, 1, env.platform.calls.Load())
	})

	t.Run("unknown contract", func(t *testing.T) {
		env := newTestEnv(t, stakedConfig())
		q := localCallQuery(types.AnswerOnly, env.ledger.Payment(t, localCallFee), types.NewContractID(0, 0, 9999), 1000, testledger.CallParams)
		resp, err := env.service.ContractCallLocal(context.Background(), q)
		require.NoError(t, err)
		require.Equal(t, types.InvalidContractID, resp.Header().NodeTransactionPrecheckCode)
		require.EqualValues(t, localCallFee, resp.Header().Cost)
		require.Zero(t, env.platform.calls.Load())
	})

	t.Run("executor panics", func(t *testing.T) {
		env := newTestEnv(t, stakedConfig())
		env.executor.fn = func() (*types.ContractCallLocalResponse, error) { panic("boom") }
		q := localCallQuery(types.AnswerOnly, env.ledger.Payment(t, localCallFee), testledger.Contract, 1000, testledger.CallParams)
		resp, err := env.service.ContractCallLocal(context.Background(), q)
		require.NoError(t, err)
		require.Equal(t, types.InvalidTransaction, resp.Header().NodeTransactionPrecheckCode)
		require.Zero(t, resp.Header().Cost)
		require.Zero(t, env.platform.calls.Load())
		require.EqualValues(t, 1, env.counters.AnsweredSoFar(types.ContractCallLocal))
	})

	t.Run("executor error", func(t *testing.T) {
		env := newTestEnv(t, stakedConfig())
		env.executor.fn = func() (*types.ContractCallLocalResponse, error) { return nil, errors.New("state unavailable") }
		q := localCallQuery(types.AnswerOnly, env.ledger.Payment(t, localCallFee), testledger.Contract, 1000, testledger.CallParams)
		resp, err := env.service.ContractCallLocal(context.Background(), q)
		require.NoError(t, err)
		require.Equal(t, types.InvalidTransaction, resp.Header().NodeTransactionPrecheckCode)
		require.EqualValues(t, 1, env.counters.AnsweredSoFar(types.ContractCallLocal))
	})

	t.Run("payment submission fails", func(t *testing.T) {
		env := newTestEnv(t, stakedConfig())
		env.platform.err = errors.New("platform down")
		q := localCallQuery(types.AnswerOnly, env.ledger.Payment(t, localCallFee), testledger.Contract, 1000, testledger.CallParams)
		resp, err := env.service.ContractCallLocal(context.Background(), q)
		require.NoError(t, err)
		require.Equal(t, types.PlatformTransactionNotCreated, resp.Header().NodeTransactionPrecheckCode)
		require.Nil(t, resp.ContractCallLocal.FunctionResult)
		require.Zero(t, env.counters.SubmittedSoFar(types.CryptoTransfer))
	})

	t.Run("invalid payment body", func(t *testing.T) {
		env := newTestEnv(t, stakedConfig())
		q := localCallQuery(types.AnswerOnly, &types.Transaction{BodyBytes: []byte{0xff}}, testledger.Contract, 1000, testledger.CallParams)
		resp, err := env.service.ContractCallLocal(context.Background(), q)
		require.NoError(t, err)
		require.Equal(t, types.InvalidTransactionBody, resp.Header().NodeTransactionPrecheckCode)
		require.Zero(t, env.executor.calls.Load())
	})

	t.Run("zero stake node", func(t *testing.T) {
		cfg := stakedConfig()
		cfg.IsStaked = false
		env := newTestEnv(t, cfg)
		q := localCallQuery(types.AnswerOnly, env.ledger.Payment(t, localCallFee), testledger.Contract, 1000, testledger.CallParams)
		resp, err := env.service.ContractCallLocal(context.Background(), q)
		require.NoError(t, err)
		require.Equal(t, types.InvalidNodeAccount, resp.Header().NodeTransactionPrecheckCode)
		require.Zero(t, env.executor.calls.Load())

		// cost answers are free anyway
		resp, err = env.service.ContractCallLocal(context.Background(), localCallQuery(types.CostAnswer, nil, testledger.Contract, 1000, nil))
		require.NoError(t, err)
		require.Equal(t, types.OK, resp.Header().NodeTransactionPrecheckCode)
		require.EqualValues(t, localCallFee, resp.Header().Cost)
		require.Zero(t, env.platform.calls.Load())
		require.EqualValues(t, 2, env.counters.AnsweredSoFar(types.ContractCallLocal))
	})

	t.Run("executor reports cancellation", func(t *testing.T) {
		env := newTestEnv(t, stakedConfig())
		env.executor.fn = func() (*types.ContractCallLocalResponse, error) { return nil, context.DeadlineExceeded }
		q := localCallQuery(types.AnswerOnly, env.ledger.Payment(t, localCallFee), testledger.Contract, 1000, testledger.CallParams)
		resp, err := env.service.ContractCallLocal(context.Background(), q)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Nil(t, resp)
		require.Zero(t, env.platform.calls.Load())
		require.Zero(t, env.counters.AnsweredSoFar(types.ContractCallLocal))
	})

	t.Run("cancelled before payment submission", func(t *testing.T) {
		env := newTestEnv(t, stakedConfig())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		q := localCallQuery(types.AnswerOnly, env.ledger.Payment(t, localCallFee), testledger.Contract, 1000, testledger.CallParams)
		resp, err := env.service.ContractCallLocal(ctx, q)
		require.ErrorIs(t, err, context.Canceled)
		require.Nil(t, resp)
		require.Zero(t, env.platform.calls.Load())
		require.Zero(t, env.executor.calls.Load())
		require.Zero(t, env.counters.AnsweredSoFar(types.ContractCallLocal))
	})
}

func TestService_GetBySolidityID(t *testing.T) {
	env := newTestEnv(t, stakedConfig())
	for _, q := range []*types.Query{
		{},
		{GetBySolidityID: &types.GetBySolidityIDQuery{}},
		{GetBySolidityID: &types.GetBySolidityIDQuery{
			Header:     &types.QueryHeader{Payment: env.ledger.Payment(t, 100), ResponseType: types.AnswerOnly},
			SolidityID: "000000000000000000000000000000000000abcd",
		}},
	} {
		resp, err := env.service.GetBySolidityID(context.Background(), q)
		require.NoError(t, err)
		require.Equal(t, types.NotSupported, resp.Header().NodeTransactionPrecheckCode)
		require.Zero(t, resp.Header().Cost)
	}
	require.EqualValues(t, 3, env.counters.ReceivedSoFar(types.GetBySolidityID))
	require.Zero(t, env.platform.calls.Load())
}

func TestService_contractQueries(t *testing.T) {
	env := newTestEnv(t, stakedConfig())
	// payments need distinct transaction ids to pass the duplicate check
	hdr := func(age time.Duration) *types.QueryHeader {
		payment := env.ledger.Payment(t, testledger.DefaultPrice, testtransaction.WithValidStart(testtransaction.Now.Add(-age)))
		return &types.QueryHeader{Payment: payment, ResponseType: types.AnswerOnly}
	}

	resp, err := env.service.GetContractInfo(context.Background(), &types.Query{ContractGetInfo: &types.ContractGetInfoQuery{Header: hdr(time.Second), ContractID: &testledger.Contract}})
	require.NoError(t, err)
	require.Equal(t, types.OK, resp.Header().NodeTransactionPrecheckCode)
	require.Equal(t, testledger.Contract, resp.ContractGetInfo.ContractInfo.ContractID)

	resp, err = env.service.GetContractBytecode(context.Background(), &types.Query{ContractGetBytecode: &types.ContractGetBytecodeQuery{Header: hdr(2 * time.Second), ContractID: &testledger.Contract}})
	require.NoError(t, err)
	require.Equal(t, types.OK, resp.Header().NodeTransactionPrecheckCode)
	require.NotEmpty(t, resp.ContractGetBytecode.Bytecode)

	resp, err = env.service.GetContractRecords(context.Background(), &types.Query{ContractGetRecords: &types.ContractGetRecordsQuery{Header: hdr(3 * time.Second), ContractID: &testledger.Contract}})
	require.NoError(t, err)
	require.Equal(t, types.OK, resp.Header().NodeTransactionPrecheckCode)
	require.Empty(t, resp.ContractGetRecords.Records)

	require.EqualValues(t, 3, env.platform.calls.Load())
	require.EqualValues(t, 3, env.counters.SubmittedSoFar(types.CryptoTransfer))

	// records query sent to the bytecode endpoint
	resp, err = env.service.GetContractBytecode(context.Background(), &types.Query{ContractGetRecords: &types.ContractGetRecordsQuery{Header: hdr(4 * time.Second), ContractID: &testledger.Contract}})
	require.NoError(t, err)
	require.Equal(t, types.InvalidTransactionBody, resp.Header().NodeTransactionPrecheckCode)
	require.NotNil(t, resp.ContractGetBytecode)
	require.Empty(t, resp.ContractGetBytecode.Bytecode)
	require.EqualValues(t, 3, env.platform.calls.Load())
}
