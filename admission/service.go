package admission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alphabill-org/admission/fees"
	"github.com/alphabill-org/admission/logger"
	"github.com/alphabill-org/admission/observability"
	"github.com/alphabill-org/admission/queries"
	"github.com/alphabill-org/admission/types"
)

const (
	DefaultMinAutoRenew            = 7_776_000 // 90 days in seconds
	DefaultMaxAutoRenew            = 8_000_001
	DefaultLocalCallEstReturnBytes = 32
)

type (
	// Config holds the node settings the service depends on.
	Config struct {
		MinAutoRenew types.Duration
		MaxAutoRenew types.Duration
		// LocalCallEstReturnBytes is the size of the call result assumed when
		// pricing local call cost answers.
		LocalCallEstReturnBytes int
		// IsStaked is false for zero stake nodes, those can't accept
		// transactions or paid queries.
		IsStaked bool
	}

	Validator interface {
		queries.Validator
		ValidateAccessor(ctx context.Context, acc *types.TxnAccessor, isQuery bool) types.TxnValidityAndFeeReq
		ValidateContractExistence(ctx context.Context, id *types.ContractID) types.ResponseCode
	}

	Counters interface {
		queries.Counters
	}

	// Executor runs contract local calls against the current state.
	Executor interface {
		CallLocal(ctx context.Context, q *types.ContractCallLocalQuery) (*types.ContractCallLocalResponse, error)
	}

	// Answerer answers the paid queries which do not need special handling.
	Answerer interface {
		Answer(ctx context.Context, q *types.Query, answer queries.Answer, kind types.OperationKind) (*types.Response, error)
	}

	// ContractAnswers are the answer implementations of the contract
	// queries.
	ContractAnswers struct {
		Info     queries.Answer
		Bytecode queries.Answer
		Records  queries.Answer
	}

	// Components are the collaborators of the service.
	Components struct {
		Validator Validator
		Prices    fees.PricesProvider
		Rates     fees.ExchangeRateProvider
		Submitter queries.Submitter
		Counters  Counters
		Executor  Executor
		Answerer  Answerer
		Answers   ContractAnswers
	}

	// Service admits smart contract transactions and answers contract
	// queries. Every request results in a well formed response, domain
	// failures are reported as the response code of the response.
	Service struct {
		cfg       Config
		validator Validator
		prices    fees.PricesProvider
		rates     fees.ExchangeRateProvider
		submitter queries.Submitter
		counters  Counters
		executor  Executor
		answerer  Answerer
		answers   ContractAnswers
		hooks     map[types.OperationKind]txHooks
		now       func() time.Time
		log       *slog.Logger
		tracer    trace.Tracer
	}
)

func DefaultConfig() Config {
	return Config{
		MinAutoRenew:            types.Duration{Seconds: DefaultMinAutoRenew},
		MaxAutoRenew:            types.Duration{Seconds: DefaultMaxAutoRenew},
		LocalCallEstReturnBytes: DefaultLocalCallEstReturnBytes,
		IsStaked:                true,
	}
}

func (c Config) IsValid() error {
	if c.MinAutoRenew.Seconds > c.MaxAutoRenew.Seconds {
		return fmt.Errorf("min auto renew duration %ds is greater than max %ds", c.MinAutoRenew.Seconds, c.MaxAutoRenew.Seconds)
	}
	if c.LocalCallEstReturnBytes < 0 {
		return fmt.Errorf("invalid local call estimated return bytes %d", c.LocalCallEstReturnBytes)
	}
	return nil
}

func New(cfg Config, c Components, obs observability.Observability) (*Service, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	switch {
	case c.Validator == nil:
		return nil, errors.New("validator is nil")
	case c.Prices == nil:
		return nil, errors.New("prices provider is nil")
	case c.Rates == nil:
		return nil, errors.New("exchange rate provider is nil")
	case c.Submitter == nil:
		return nil, errors.New("submitter is nil")
	case c.Counters == nil:
		return nil, errors.New("counters is nil")
	case c.Executor == nil:
		return nil, errors.New("executor is nil")
	case c.Answerer == nil:
		return nil, errors.New("answerer is nil")
	case c.Answers.Info == nil || c.Answers.Bytecode == nil || c.Answers.Records == nil:
		return nil, errors.New("contract answers are missing")
	}
	s := &Service{
		cfg:       cfg,
		validator: c.Validator,
		prices:    c.Prices,
		rates:     c.Rates,
		submitter: c.Submitter,
		counters:  c.Counters,
		executor:  c.Executor,
		answerer:  c.Answerer,
		answers:   c.Answers,
		now:       time.Now,
		log:       obs.Logger(),
		tracer:    obs.Tracer("admission"),
	}
	s.hooks = transactionHooks()
	return s, nil
}

func (s *Service) CreateContract(ctx context.Context, tx *types.Transaction) (types.TransactionResponse, error) {
	return s.handleTransaction(ctx, types.ContractCreate, tx)
}

func (s *Service) CallContract(ctx context.Context, tx *types.Transaction) (types.TransactionResponse, error) {
	return s.handleTransaction(ctx, types.ContractCall, tx)
}

func (s *Service) UpdateContract(ctx context.Context, tx *types.Transaction) (types.TransactionResponse, error) {
	return s.handleTransaction(ctx, types.ContractUpdate, tx)
}

func (s *Service) DeleteContract(ctx context.Context, tx *types.Transaction) (types.TransactionResponse, error) {
	return s.handleTransaction(ctx, types.ContractDelete, tx)
}

func (s *Service) SystemDelete(ctx context.Context, tx *types.Transaction) (types.TransactionResponse, error) {
	return s.handleTransaction(ctx, types.SystemDelete, tx)
}

func (s *Service) SystemUndelete(ctx context.Context, tx *types.Transaction) (types.TransactionResponse, error) {
	return s.handleTransaction(ctx, types.SystemUndelete, tx)
}

func (s *Service) GetContractInfo(ctx context.Context, q *types.Query) (*types.Response, error) {
	return s.answerer.Answer(ctx, q, s.answers.Info, types.ContractGetInfo)
}

func (s *Service) GetContractBytecode(ctx context.Context, q *types.Query) (*types.Response, error) {
	return s.answerer.Answer(ctx, q, s.answers.Bytecode, types.ContractGetBytecode)
}

func (s *Service) GetContractRecords(ctx context.Context, q *types.Query) (*types.Response, error) {
	return s.answerer.Answer(ctx, q, s.answers.Records, types.ContractGetRecords)
}

// GetBySolidityID is not supported, the request is counted and answered with
// NOT_SUPPORTED whatever its content.
func (s *Service) GetBySolidityID(ctx context.Context, q *types.Query) (*types.Response, error) {
	s.counters.CountReceived(types.GetBySolidityID)
	return types.HeaderOnlyResponse(types.GetBySolidityID, types.ResponseHeader{
		NodeTransactionPrecheckCode: types.NotSupported,
		ResponseType:                q.ResponseType(),
	}), nil
}

// GasPrice returns the price of one unit of local call gas in tiny units as
// of the given time.
func (s *Service) GasPrice(at types.Timestamp) uint64 {
	return fees.GasPriceInTinyUnits(s.prices.PricesGiven(types.ContractCallLocal, at), s.rates.Rate(at))
}

/*
handleTransaction runs the admission pipeline of the transaction kinds:
stake gate, parsing, precheck, kind specific checks and submission.

Error is returned only when ctx is cancelled before the transaction is
submitted, once submitted the response is built whatever the ctx state.
*/
func (s *Service) handleTransaction(ctx context.Context, kind types.OperationKind, tx *types.Transaction) (_ types.TransactionResponse, rErr error) {
	ctx, span := s.tracer.Start(ctx, "Service.handleTransaction", trace.WithAttributes(observability.OpKind(kind)))
	defer func() {
		if rErr != nil {
			span.RecordError(rErr)
			span.SetStatus(codes.Error, rErr.Error())
		}
		span.End()
	}()

	s.counters.CountReceived(kind)
	reject := func(v types.TxnValidityAndFeeReq) (types.TransactionResponse, error) {
		s.log.DebugContext(ctx, fmt.Sprintf("%s rejected", kind), logger.OpKind(kind), logger.Code(v.Validity()))
		span.SetAttributes(observability.Code(v.Validity()))
		return types.NewTransactionResponse(v), nil
	}

	if !s.cfg.IsStaked {
		return reject(types.Validity(types.InvalidNodeAccount))
	}
	acc, err := types.NewTxnAccessor(tx)
	if err != nil {
		s.log.DebugContext(ctx, "parsing transaction body", logger.OpKind(kind), logger.Error(err))
		return reject(types.Validity(types.InvalidTransactionBody))
	}
	if acc.Kind() != kind {
		s.log.DebugContext(ctx, fmt.Sprintf("%s body sent to %s endpoint", acc.Kind(), kind), logger.TxID(acc.TxID()))
		return reject(types.Validity(types.InvalidTransactionBody))
	}
	span.SetAttributes(observability.TxID(acc.TxID()))

	if v := s.validator.ValidateAccessor(ctx, acc, false); !v.IsOK() {
		return reject(v)
	}
	if code := s.hooks[kind].check(ctx, s.validator, s.cfg, acc.Body()); code != types.OK {
		return reject(types.Validity(code))
	}
	if err := ctx.Err(); err != nil {
		return types.TransactionResponse{}, err
	}

	code := s.submitter.TrySubmission(ctx, acc)
	if code != types.OK {
		return reject(types.Validity(code))
	}
	s.counters.CountSubmitted(kind)
	span.SetAttributes(observability.Code(types.OK))
	return types.NewTransactionResponse(types.Validity(types.OK)), nil
}
