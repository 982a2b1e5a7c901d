package observability

import (
	"encoding/hex"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/alphabill-org/admission/types"
)

const OpKindKey attribute.Key = "op"
const TxHashKey attribute.Key = "tx.hash"
const TxIDKey attribute.Key = "tx.id"
const CodeKey attribute.Key = "code"
const NodeAccountKey attribute.Key = "service.node.name" // ECS convention

/*
Observability is the set of providers components need for logging, metrics
and tracing.
*/
type Observability interface {
	Meter(name string, opts ...metric.MeterOption) metric.Meter
	Tracer(name string, options ...trace.TracerOption) trace.Tracer
	Logger() *slog.Logger
}

func OpKind(kind types.OperationKind) attribute.KeyValue {
	return OpKindKey.String(kind.String())
}

func TxHash(value []byte) attribute.KeyValue {
	return TxHashKey.String(hex.EncodeToString(value))
}

func TxID(id types.TransactionID) attribute.KeyValue {
	return TxIDKey.String(id.String())
}

func Code(code types.ResponseCode) attribute.KeyValue {
	return CodeKey.String(code.String())
}

// Node returns measurement option with node account attribute and extra
// attributes.
func Node(account types.AccountID, extra ...attribute.KeyValue) metric.MeasurementOption {
	return metric.WithAttributeSet(attribute.NewSet(
		append(extra, NodeAccountKey.String(account.String()))...,
	))
}

/*
ErrStatus returns attribute named "status" with value "ok" if the param
err is nil and "err" when it is not.
*/
func ErrStatus(err error) attribute.KeyValue {
	status := "ok"
	if err != nil {
		status = "err"
	}
	return attribute.String("status", status)
}
