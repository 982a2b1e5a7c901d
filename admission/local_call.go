package admission

import (
	"context"
	"errors"
	"fmt"

	"github.com/alphabill-org/admission/fees"
	"github.com/alphabill-org/admission/logger"
	"github.com/alphabill-org/admission/types"
)

// callOutcome is the result of running (or for cost answers, simulating) a
// local call.
type callOutcome struct {
	// failed is set when the call could not be completed at all, the
	// request is then answered with INVALID_TRANSACTION.
	failed bool
	// code is the execution result code.
	code   types.ResponseCode
	result *types.ContractFunctionResult
}

func failedCall() callOutcome {
	return callOutcome{failed: true, code: types.InvalidTransaction}
}

/*
ContractCallLocal runs the query against the current contract state.

Cost answers are priced with a placeholder result of the estimated size
without running the call. Otherwise the call is run and the query is priced
using the real result: base fee of the usage plus the offered gas at the gas
price. The fee payment is validated and submitted when the node is staked.

The execution code and the precheck code are kept apart, the response carries
the execution code when it is not OK and the precheck code otherwise.
*/
func (s *Service) ContractCallLocal(ctx context.Context, q *types.Query) (*types.Response, error) {
	const kind = types.ContractCallLocal
	s.counters.CountReceived(kind)
	rt := q.ResponseType()
	answered := func(code types.ResponseCode, cost uint64, result *types.ContractFunctionResult) (*types.Response, error) {
		s.counters.CountAnswered(kind)
		if code != types.OK {
			s.log.DebugContext(ctx, "local call rejected", logger.Code(code))
		}
		hdr := types.ResponseHeader{NodeTransactionPrecheckCode: code, ResponseType: rt, Cost: cost}
		return &types.Response{ContractCallLocal: &types.ContractCallLocalResponse{Header: hdr, FunctionResult: result}}, nil
	}

	if code := s.validator.ValidateQuery(ctx, q, s.cfg.IsStaked); code != types.OK {
		return answered(code, 0, nil)
	}
	call := q.ContractCallLocal
	if call == nil {
		return answered(types.InvalidTransactionBody, 0, nil)
	}

	var outcome callOutcome
	if rt.IsCostOnly() {
		outcome = s.costAnswerOutcome(call)
	} else {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		if outcome, err = s.execute(ctx, call); err != nil {
			return nil, err
		}
	}
	if outcome.failed {
		return answered(outcome.code, 0, nil)
	}

	payment := call.Header.Payment
	at := types.TimestampOf(s.now())
	if payment != nil {
		acc, err := types.NewTxnAccessor(payment)
		if err != nil {
			s.log.DebugContext(ctx, "parsing local call payment", logger.Error(err))
			return answered(types.InvalidTransactionBody, 0, nil)
		}
		at = acc.TxID().ValidStart
	}

	prices := s.prices.PricesGiven(kind, at)
	rate := s.rates.Rate(at)
	usage := fees.ContractCallLocalUsage(len(call.FunctionParameters), outcome.result, rt)
	queryFee := fees.LocalCallFee(fees.TotalFee(prices, usage, rate), fees.GasPriceInTinyUnits(prices, rate), call.Gas)

	var scheduledFee uint64
	if s.cfg.IsStaked && rt == types.AnswerOnly {
		scheduledFee = queryFee
	}
	code := s.validator.ValidateScheduledFee(ctx, kind, payment, scheduledFee)
	if code == types.OK {
		code = s.validator.ValidateContractExistence(ctx, call.ContractID)
	}
	switch {
	case scheduledFee == 0:
		// nothing to collect
	case code != types.OK:
		return answered(code, scheduledFee, nil)
	default:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c := s.submitPayment(ctx, payment); c != types.OK {
			return answered(types.PlatformTransactionNotCreated, 0, nil)
		}
	}

	if outcome.code != types.OK {
		code = outcome.code
	}
	if rt.IsCostOnly() {
		return answered(code, queryFee, nil)
	}
	return answered(code, queryFee, outcome.result)
}

func (s *Service) costAnswerOutcome(call *types.ContractCallLocalQuery) callOutcome {
	result := &types.ContractFunctionResult{ContractCallResult: make(types.Bytes, s.cfg.LocalCallEstReturnBytes)}
	if call.ContractID != nil {
		result.ContractID = *call.ContractID
	}
	return callOutcome{code: types.OK, result: result}
}

// execute runs the call, panics and errors of the executor make the outcome
// failed. Cancellation of the request is returned as error.
func (s *Service) execute(ctx context.Context, call *types.ContractCallLocalQuery) (outcome callOutcome, _ error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorContext(ctx, fmt.Sprintf("local call panicked: %v", r))
			outcome = failedCall()
		}
	}()
	resp, err := s.executor.CallLocal(ctx, call)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return outcome, err
		}
		s.log.DebugContext(ctx, "local call failed", logger.Error(err))
		return failedCall(), nil
	}
	if resp == nil {
		return failedCall(), nil
	}

	outcome.code = resp.Header.NodeTransactionPrecheckCode
	outcome.result = &types.ContractFunctionResult{}
	if resp.FunctionResult != nil {
		*outcome.result = *resp.FunctionResult
	}
	if call.ContractID != nil {
		outcome.result.ContractID = *call.ContractID
	}
	// result bytes are returned for successful calls only
	if outcome.code != types.OK {
		outcome.result.ContractCallResult = nil
	}
	return outcome, nil
}

func (s *Service) submitPayment(ctx context.Context, payment *types.Transaction) types.ResponseCode {
	acc, err := types.NewTxnAccessor(payment)
	if err != nil {
		return types.InvalidTransactionBody
	}
	code := s.submitter.TrySubmission(ctx, acc)
	if code == types.OK {
		s.counters.CountSubmitted(acc.Kind())
	}
	return code
}
