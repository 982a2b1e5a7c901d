/*
Package platform stands in for the consensus platform of a single node
deployment: it takes the admitted transactions from the intake buffer in the
order they were added and records their outcome.

Transactions are not executed, contract targeted transactions get a
transaction record with status OK in the contract's record list.
*/
package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/alphabill-org/admission/logger"
	"github.com/alphabill-org/admission/observability"
	"github.com/alphabill-org/admission/txbuffer"
	"github.com/alphabill-org/admission/types"
)

type (
	// Intake is the queue of admitted transactions.
	Intake interface {
		Remove(ctx context.Context) (*txbuffer.Tx, error)
	}

	RecordWriter interface {
		AddRecord(id types.ContractID, rec types.TransactionRecord) error
	}

	Counters interface {
		CountHandled(kind types.OperationKind)
	}

	// Forgetter releases id of a transaction which is dropped by the platform
	// so that it is not a duplicate when submitted again.
	Forgetter interface {
		Forget(id types.TransactionID)
	}

	Handler struct {
		records  RecordWriter
		counters Counters
		dropped  Forgetter
		now      func() time.Time
		log      *slog.Logger
		tracer   trace.Tracer

		txCnt metric.Int64Counter
	}
)

func NewHandler(records RecordWriter, counters Counters, dropped Forgetter, obs observability.Observability) (*Handler, error) {
	if records == nil {
		return nil, errors.New("record writer is nil")
	}
	if counters == nil {
		return nil, errors.New("counters is nil")
	}
	if dropped == nil {
		return nil, errors.New("duplicate cache is nil")
	}
	txCnt, err := obs.Meter("platform").Int64Counter("tx.handled",
		metric.WithUnit("{transaction}"),
		metric.WithDescription("Number of transactions taken from the intake"))
	if err != nil {
		return nil, fmt.Errorf("creating tx.handled metric: %w", err)
	}
	return &Handler{
		records:  records,
		counters: counters,
		dropped:  dropped,
		now:      time.Now,
		log:      obs.Logger(),
		tracer:   obs.Tracer("platform"),
		txCnt:    txCnt,
	}, nil
}

/*
ProcessTransactions takes transactions from the intake until ctx is
cancelled. Failure to handle a transaction is logged and the loop continues
with the next one. Transaction which can't be decoded is dropped and its id
forgotten by the duplicate cache.
*/
func (h *Handler) ProcessTransactions(ctx context.Context, intake Intake) error {
	ctx, span := h.tracer.Start(ctx, "Handler.ProcessTransactions")
	defer span.End()
	for {
		tx, err := intake.Remove(ctx)
		if err != nil {
			// context cancelled, no need to log
			return ctx.Err()
		}
		err = h.handle(ctx, tx)
		h.txCnt.Add(ctx, 1, metric.WithAttributes(observability.OpKind(tx.Kind), observability.ErrStatus(err)))
		if err != nil {
			h.log.WarnContext(ctx, "handling transaction", logger.Error(err), logger.TxID(tx.ID))
		}
	}
}

func (h *Handler) handle(ctx context.Context, tx *txbuffer.Tx) error {
	signed := &types.Transaction{}
	if err := types.Cbor.Unmarshal(tx.Bytes, signed); err != nil {
		h.dropped.Forget(tx.ID)
		return fmt.Errorf("decoding transaction: %w", err)
	}
	acc, err := types.NewTxnAccessor(signed)
	if err != nil {
		h.dropped.Forget(tx.ID)
		return fmt.Errorf("parsing transaction: %w", err)
	}
	h.counters.CountHandled(acc.Kind())

	target := acc.Body().TargetContract()
	if target == nil {
		return nil
	}
	rec := types.TransactionRecord{
		TransactionID:      acc.TxID(),
		ConsensusTimestamp: types.TimestampOf(h.now()),
		TransactionFee:     acc.Body().TransactionFee,
		Memo:               acc.Body().Memo,
		Status:             types.OK,
	}
	if err := h.records.AddRecord(*target, rec); err != nil {
		return fmt.Errorf("adding record of contract %s: %w", target, err)
	}
	h.log.DebugContext(ctx, fmt.Sprintf("%s handled", acc.Kind()), logger.TxID(acc.TxID()))
	return nil
}
