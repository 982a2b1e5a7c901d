package txbuffer

import (
	"context"
	"crypto"
	_ "crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/alphabill-org/admission/logger"
	"github.com/alphabill-org/admission/observability"
	"github.com/alphabill-org/admission/types"
)

var (
	ErrTxIsNil      = errors.New("tx is nil")
	ErrTxInBuffer   = errors.New("tx already in tx buffer")
	ErrTxBufferFull = errors.New("tx buffer is full")
)

type (
	// TxBuffer is the intake of the consensus platform: an in-memory queue of
	// admitted transactions waiting to be picked up for ordering.
	TxBuffer struct {
		mutex          sync.Mutex
		transactions   map[string]time.Time // index of pending transactions, hash->added_ts
		transactionsCh chan *Tx
		hashAlgorithm  crypto.Hash
		log            *slog.Logger
		tracer         trace.Tracer

		mDur metric.Float64Histogram
	}

	// Tx is a signed transaction queued for the consensus platform.
	Tx struct {
		ID   types.TransactionID
		Kind types.OperationKind
		// encoded signed transaction
		Bytes []byte
	}
)

/*
New creates a new instance of the TxBuffer.
MaxSize specifies the total number of transactions the TxBuffer may contain.
*/
func New(maxSize uint, hashAlgorithm crypto.Hash, obs observability.Observability) (*TxBuffer, error) {
	if maxSize < 1 {
		return nil, fmt.Errorf("buffer max size must be greater than zero, got %d", maxSize)
	}
	if !hashAlgorithm.Available() {
		return nil, fmt.Errorf("buffer hash algorithm not available")
	}

	buf := &TxBuffer{
		hashAlgorithm:  hashAlgorithm,
		transactions:   make(map[string]time.Time),
		transactionsCh: make(chan *Tx, maxSize),
		log:            obs.Logger(),
		tracer:         obs.Tracer("txBuffer"),
	}
	if err := buf.initMetrics(obs); err != nil {
		return nil, fmt.Errorf("initializing metrics: %w", err)
	}

	return buf, nil
}

/*
Add adds the given transaction into the transaction buffer.
Returns an error if the transaction is nil, is already present in the TxBuffer,
or TxBuffer is full. Add never blocks.
*/
func (buf *TxBuffer) Add(ctx context.Context, tx *Tx) ([]byte, error) {
	ctx, span := buf.tracer.Start(ctx, "TxBuffer.Add")
	defer span.End()
	if tx == nil {
		return nil, ErrTxIsNil
	}

	txHash := buf.hash(tx)
	buf.log.DebugContext(ctx, fmt.Sprintf("received transaction (%s), hash %X", tx.Kind, txHash), logger.TxID(tx.ID))
	txId := string(txHash)
	span.SetAttributes(observability.TxHash(txHash), observability.TxID(tx.ID), observability.OpKind(tx.Kind))

	buf.mutex.Lock()
	defer buf.mutex.Unlock()

	if _, found := buf.transactions[txId]; found {
		return nil, ErrTxInBuffer
	}

	select {
	case buf.transactionsCh <- tx:
		buf.transactions[txId] = time.Now()
	default:
		return nil, ErrTxBufferFull
	}

	return txHash, nil
}

/*
Remove blocks until there is a transaction in the buffer or ctx is cancelled.
*/
func (buf *TxBuffer) Remove(ctx context.Context) (*Tx, error) {
	_, span := buf.tracer.Start(ctx, "TxBuffer.Remove")
	defer span.End()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case tx := <-buf.transactionsCh:
		txHash := buf.hash(tx)
		span.SetAttributes(observability.TxHash(txHash), observability.TxID(tx.ID), observability.OpKind(tx.Kind))
		buf.removeFromIndex(ctx, string(txHash))
		return tx, nil
	}
}

// Len returns number of transactions waiting in the buffer.
func (buf *TxBuffer) Len() int {
	return len(buf.transactionsCh)
}

/*
removeFromIndex deletes the transaction with given id from the index.
*/
func (buf *TxBuffer) removeFromIndex(ctx context.Context, id string) {
	_, span := buf.tracer.Start(ctx, "TxBuffer.removeFromIndex")
	defer span.End()

	buf.mutex.Lock()
	defer buf.mutex.Unlock()

	if added, found := buf.transactions[id]; found {
		bufTime := time.Since(added)
		span.SetAttributes(attribute.String("buffered.duration", bufTime.String()))
		buf.mDur.Record(ctx, bufTime.Seconds())
		delete(buf.transactions, id)
	}
}

func (buf *TxBuffer) hash(tx *Tx) []byte {
	h := buf.hashAlgorithm.New()
	h.Write(tx.Bytes)
	return h.Sum(nil)
}

func (buf *TxBuffer) HashAlgorithm() crypto.Hash {
	return buf.hashAlgorithm
}

func (buf *TxBuffer) initMetrics(obs observability.Observability) (err error) {
	m := obs.Meter("txbuffer")

	if _, err = m.Int64ObservableUpDownCounter(
		"count",
		metric.WithDescription(`Number of transactions in the buffer.`),
		metric.WithUnit("{transaction}"),
		metric.WithInt64Callback(func(ctx context.Context, io metric.Int64Observer) error {
			io.Observe(int64(len(buf.transactionsCh)))
			return nil
		}),
	); err != nil {
		return fmt.Errorf("creating tx counter: %w", err)
	}

	if buf.mDur, err = m.Float64Histogram(
		"queued",
		metric.WithDescription("For how long transaction was in the buffer before being processed."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(50e-6, 100e-6, 250e-6, 500e-6, 0.001, 0.01, 0.1, 0.2, 0.4, 0.8, 1.5, 3),
	); err != nil {
		return fmt.Errorf("creating duration histogram: %w", err)
	}

	return nil
}
