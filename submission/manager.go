package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alphabill-org/admission/logger"
	"github.com/alphabill-org/admission/observability"
	"github.com/alphabill-org/admission/txbuffer"
	"github.com/alphabill-org/admission/types"
)

var ErrAlreadySubmitted = errors.New("transaction already submitted")

type (
	// Platform is the intake of the consensus platform. Add must not block,
	// rejection is reported by the returned error.
	Platform interface {
		Add(ctx context.Context, tx *txbuffer.Tx) ([]byte, error)
	}

	// Recorder remembers ids of submitted transactions for duplicate
	// detection.
	Recorder interface {
		AddPreConsensus(id types.TransactionID)
	}

	Manager struct {
		platform Platform
		records  Recorder
		log      *slog.Logger
		tracer   trace.Tracer
	}
)

func NewManager(platform Platform, records Recorder, obs observability.Observability) (*Manager, error) {
	if platform == nil {
		return nil, errors.New("platform is nil")
	}
	if records == nil {
		return nil, errors.New("records is nil")
	}
	return &Manager{
		platform: platform,
		records:  records,
		log:      obs.Logger(),
		tracer:   obs.Tracer("submission"),
	}, nil
}

/*
TrySubmission hands the transaction to the consensus platform. Only the first
call per accessor reaches the platform, any further call returns
DUPLICATE_TRANSACTION without contacting the platform.

Platform rejections map to response codes: full intake to BUSY, transaction
already in the intake to DUPLICATE_TRANSACTION and everything else to
PLATFORM_TRANSACTION_NOT_CREATED. The submission is not retried.
*/
func (m *Manager) TrySubmission(ctx context.Context, acc *types.TxnAccessor) types.ResponseCode {
	ctx, span := m.tracer.Start(ctx, "Manager.TrySubmission")
	defer span.End()

	if acc == nil {
		span.SetStatus(codes.Error, "transaction is nil")
		return types.PlatformTransactionNotCreated
	}
	span.SetAttributes(observability.TxID(acc.TxID()), observability.OpKind(acc.Kind()))
	if !acc.MarkSubmitted() {
		m.log.WarnContext(ctx, "submission attempted twice", logger.TxID(acc.TxID()), logger.Error(ErrAlreadySubmitted))
		span.SetStatus(codes.Error, ErrAlreadySubmitted.Error())
		return types.DuplicateTransaction
	}

	// submission must not be abandoned halfway when the caller goes away
	_, err := m.platform.Add(context.WithoutCancel(ctx), &txbuffer.Tx{ID: acc.TxID(), Kind: acc.Kind(), Bytes: acc.Raw()})
	code := platformCode(err)
	span.SetAttributes(observability.Code(code))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.log.DebugContext(ctx, fmt.Sprintf("platform rejected %s", acc.Kind()), logger.TxID(acc.TxID()), logger.Code(code), logger.Error(err))
		return code
	}
	m.records.AddPreConsensus(acc.TxID())
	return types.OK
}

func platformCode(err error) types.ResponseCode {
	switch {
	case err == nil:
		return types.OK
	case errors.Is(err, txbuffer.ErrTxBufferFull):
		return types.Busy
	case errors.Is(err, txbuffer.ErrTxInBuffer):
		return types.DuplicateTransaction
	default:
		return types.PlatformTransactionNotCreated
	}
}
