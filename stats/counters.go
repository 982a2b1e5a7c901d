package stats

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/alphabill-org/admission/types"
)

/*
OpCounters counts the requests received, transactions submitted to the
consensus platform, transactions handled after consensus and queries answered,
per operation kind.

The counter maps are populated at construction and never modified after, so
reads of the maps need no synchronization. Query kinds have "received" and
"answered" counters, transaction kinds have "received", "submitted" and
"handled" counters. Counting a kind which has no counter of the family is a
no-op.
*/
type OpCounters struct {
	received  map[types.OperationKind]*atomic.Uint64
	submitted map[types.OperationKind]*atomic.Uint64
	handled   map[types.OperationKind]*atomic.Uint64
	answered  map[types.OperationKind]*atomic.Uint64
}

// Snapshot is point in time copy of the counters of a kind.
type Snapshot struct {
	Kind      types.OperationKind `json:"kind"`
	Received  uint64              `json:"received"`
	Submitted uint64              `json:"submitted,omitempty"`
	Handled   uint64              `json:"handled,omitempty"`
	Answered  uint64              `json:"answered,omitempty"`
}

func NewOpCounters(kinds ...types.OperationKind) *OpCounters {
	if len(kinds) == 0 {
		kinds = types.AllOperationKinds()
	}
	oc := &OpCounters{
		received:  make(map[types.OperationKind]*atomic.Uint64),
		submitted: make(map[types.OperationKind]*atomic.Uint64),
		handled:   make(map[types.OperationKind]*atomic.Uint64),
		answered:  make(map[types.OperationKind]*atomic.Uint64),
	}
	for _, k := range kinds {
		oc.received[k] = &atomic.Uint64{}
		if k.IsQuery() {
			oc.answered[k] = &atomic.Uint64{}
		} else {
			oc.submitted[k] = &atomic.Uint64{}
			oc.handled[k] = &atomic.Uint64{}
		}
	}
	return oc
}

func (oc *OpCounters) CountReceived(kind types.OperationKind)  { inc(oc.received, kind) }
func (oc *OpCounters) CountSubmitted(kind types.OperationKind) { inc(oc.submitted, kind) }
func (oc *OpCounters) CountHandled(kind types.OperationKind)   { inc(oc.handled, kind) }
func (oc *OpCounters) CountAnswered(kind types.OperationKind)  { inc(oc.answered, kind) }

func (oc *OpCounters) ReceivedSoFar(kind types.OperationKind) uint64 { return load(oc.received, kind) }
func (oc *OpCounters) SubmittedSoFar(kind types.OperationKind) uint64 {
	return load(oc.submitted, kind)
}
func (oc *OpCounters) HandledSoFar(kind types.OperationKind) uint64  { return load(oc.handled, kind) }
func (oc *OpCounters) AnsweredSoFar(kind types.OperationKind) uint64 { return load(oc.answered, kind) }

// Tracks returns true when the kind has counters.
func (oc *OpCounters) Tracks(kind types.OperationKind) bool {
	_, ok := oc.received[kind]
	return ok
}

func (oc *OpCounters) Snapshot(kind types.OperationKind) Snapshot {
	return Snapshot{
		Kind:      kind,
		Received:  oc.ReceivedSoFar(kind),
		Submitted: oc.SubmittedSoFar(kind),
		Handled:   oc.HandledSoFar(kind),
		Answered:  oc.AnsweredSoFar(kind),
	}
}

// SnapshotAll returns snapshots of all tracked kinds ordered by kind.
func (oc *OpCounters) SnapshotAll() []Snapshot {
	var res []Snapshot
	for _, k := range types.AllOperationKinds() {
		if oc.Tracks(k) {
			res = append(res, oc.Snapshot(k))
		}
	}
	return res
}

/*
RegisterWith creates observable counters "ops.received", "ops.submitted",
"ops.handled" and "ops.answered" in the meter, kind of the operation is
reported as "op" attribute.
*/
func (oc *OpCounters) RegisterWith(m metric.Meter) error {
	families := []struct {
		name     string
		desc     string
		counters map[types.OperationKind]*atomic.Uint64
	}{
		{name: "ops.received", desc: "Number of requests received", counters: oc.received},
		{name: "ops.submitted", desc: "Number of transactions submitted to the platform", counters: oc.submitted},
		{name: "ops.handled", desc: "Number of transactions handled", counters: oc.handled},
		{name: "ops.answered", desc: "Number of queries answered", counters: oc.answered},
	}
	for _, f := range families {
		attrs := make(map[types.OperationKind]metric.MeasurementOption, len(f.counters))
		for k := range f.counters {
			attrs[k] = metric.WithAttributeSet(attribute.NewSet(attribute.String("op", k.String())))
		}
		counters := f.counters
		if _, err := m.Int64ObservableCounter(
			f.name,
			metric.WithDescription(f.desc),
			metric.WithUnit("{operation}"),
			metric.WithInt64Callback(func(ctx context.Context, io metric.Int64Observer) error {
				for k, c := range counters {
					io.Observe(int64(c.Load()), attrs[k])
				}
				return nil
			}),
		); err != nil {
			return fmt.Errorf("creating %s counter: %w", f.name, err)
		}
	}
	return nil
}

func inc(m map[types.OperationKind]*atomic.Uint64, kind types.OperationKind) {
	if c, ok := m[kind]; ok {
		c.Add(1)
	}
}

func load(m map[types.OperationKind]*atomic.Uint64, kind types.OperationKind) uint64 {
	if c, ok := m[kind]; ok {
		return c.Load()
	}
	return 0
}
