package queries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alphabill-org/admission/fees"
	"github.com/alphabill-org/admission/logger"
	"github.com/alphabill-org/admission/types"
)

type (
	// Answer is the kind specific part of answering a query.
	Answer interface {
		// CheckValidity checks the entities the query refers to, OK means
		// the query can be answered.
		CheckValidity(ctx context.Context, q *types.Query) types.ResponseCode
		// UsageGiven estimates the usage of answering the query.
		UsageGiven(ctx context.Context, q *types.Query) (types.FeeData, error)
		// Response builds the answer with given header.
		Response(ctx context.Context, q *types.Query, hdr types.ResponseHeader) *types.Response
	}

	Validator interface {
		ValidateQuery(ctx context.Context, q *types.Query, isStaked bool) types.ResponseCode
		ValidateScheduledFee(ctx context.Context, kind types.OperationKind, payment *types.Transaction, requiredFee uint64) types.ResponseCode
	}

	Submitter interface {
		TrySubmission(ctx context.Context, acc *types.TxnAccessor) types.ResponseCode
	}

	Counters interface {
		CountReceived(kind types.OperationKind)
		CountSubmitted(kind types.OperationKind)
		CountAnswered(kind types.OperationKind)
	}

	// Helper runs the flow common to all the paid queries: validate, price,
	// collect the payment and answer.
	Helper struct {
		validator Validator
		prices    fees.PricesProvider
		rates     fees.ExchangeRateProvider
		submitter Submitter
		counters  Counters
		isStaked  bool
		now       func() time.Time
		log       *slog.Logger
	}
)

func NewHelper(validator Validator, prices fees.PricesProvider, rates fees.ExchangeRateProvider, submitter Submitter, counters Counters, isStaked bool, log *slog.Logger) (*Helper, error) {
	switch {
	case validator == nil:
		return nil, errors.New("validator is nil")
	case prices == nil:
		return nil, errors.New("prices provider is nil")
	case rates == nil:
		return nil, errors.New("exchange rate provider is nil")
	case submitter == nil:
		return nil, errors.New("submitter is nil")
	case counters == nil:
		return nil, errors.New("counters is nil")
	case log == nil:
		return nil, errors.New("logger is nil")
	}
	return &Helper{
		validator: validator,
		prices:    prices,
		rates:     rates,
		submitter: submitter,
		counters:  counters,
		isStaked:  isStaked,
		now:       time.Now,
		log:       log,
	}, nil
}

/*
Answer answers the query of given kind using the answer implementation.

The price of the query is quoted in the response header. Cost answers and
queries to a zero stake node are not charged, otherwise the payment in the
query header must cover the price and it is submitted before the query is
answered. Error is returned only when ctx is cancelled before the payment is
submitted, the response is nil then.
*/
func (h *Helper) Answer(ctx context.Context, q *types.Query, answer Answer, kind types.OperationKind) (*types.Response, error) {
	h.counters.CountReceived(kind)
	rt := q.ResponseType()
	respond := func(code types.ResponseCode, cost uint64) *types.Response {
		if code != types.OK {
			h.log.DebugContext(ctx, "query rejected", logger.OpKind(kind), logger.Code(code))
		}
		return types.HeaderOnlyResponse(kind, types.ResponseHeader{NodeTransactionPrecheckCode: code, ResponseType: rt, Cost: cost})
	}

	if code := h.validator.ValidateQuery(ctx, q, h.isStaked); code != types.OK {
		return h.answered(kind, respond(code, 0)), nil
	}
	if qk := q.Kind(); qk != kind {
		h.log.DebugContext(ctx, fmt.Sprintf("%s query sent to %s endpoint", qk, kind))
		return h.answered(kind, respond(types.InvalidTransactionBody, 0)), nil
	}
	if code := answer.CheckValidity(ctx, q); code != types.OK {
		return h.answered(kind, respond(code, 0)), nil
	}
	usage, err := answer.UsageGiven(ctx, q)
	if err != nil {
		h.log.WarnContext(ctx, "estimating query usage", logger.OpKind(kind), logger.Error(err))
		return h.answered(kind, respond(types.InvalidTransaction, 0)), nil
	}
	var payment *types.Transaction
	if hdr := q.Header(); hdr != nil {
		payment = hdr.Payment
	}
	at := h.pricedAt(payment)
	cost := fees.TotalFee(h.prices.PricesGiven(kind, at), usage, h.rates.Rate(at))
	if rt.IsCostOnly() {
		return h.answered(kind, respond(types.OK, cost)), nil
	}

	var scheduledFee uint64
	if h.isStaked {
		scheduledFee = cost
	}
	if code := h.validator.ValidateScheduledFee(ctx, kind, payment, scheduledFee); code != types.OK {
		return h.answered(kind, respond(code, cost)), nil
	}
	if scheduledFee > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if code := h.submitPayment(ctx, payment); code != types.OK {
			return h.answered(kind, respond(types.PlatformTransactionNotCreated, cost)), nil
		}
	}
	hdr := types.ResponseHeader{NodeTransactionPrecheckCode: types.OK, ResponseType: rt, Cost: cost}
	return h.answered(kind, answer.Response(ctx, q, hdr)), nil
}

func (h *Helper) answered(kind types.OperationKind, resp *types.Response) *types.Response {
	h.counters.CountAnswered(kind)
	return resp
}

func (h *Helper) submitPayment(ctx context.Context, payment *types.Transaction) types.ResponseCode {
	acc, err := types.NewTxnAccessor(payment)
	if err != nil {
		return types.InvalidTransactionBody
	}
	code := h.submitter.TrySubmission(ctx, acc)
	if code == types.OK {
		h.counters.CountSubmitted(acc.Kind())
	}
	return code
}

// pricedAt returns the time the query is priced at: valid start of the
// payment, current time when there is no payment.
func (h *Helper) pricedAt(payment *types.Transaction) types.Timestamp {
	if payment != nil {
		if acc, err := types.NewTxnAccessor(payment); err == nil {
			return acc.TxID().ValidStart
		}
	}
	return types.TimestampOf(h.now())
}
