package rpc

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/alphabill-org/admission/logger"
	"github.com/alphabill-org/admission/observability"
	"github.com/alphabill-org/admission/types"
)

// latency buckets in seconds, admission calls are expected to be answered
// well under a millisecond unless a payment is submitted.
var durationBuckets = []float64{50e-6, 100e-6, 200e-6, 400e-6, 800e-6, 0.0016, 0.005, 0.01, 0.05, 0.1}

/*
callMetrics counts and times the calls of one API surface. All the surfaces
use the same instrument names ("calls" and "duration"), the meter scope tells
them apart. Nil *callMetrics records nothing.
*/
type callMetrics struct {
	count    metric.Int64Counter
	duration metric.Float64Histogram
	fixed    []attribute.KeyValue
}

func newCallMetrics(mtr metric.Meter, log *slog.Logger, fixed ...attribute.KeyValue) *callMetrics {
	count, err := mtr.Int64Counter("calls", metric.WithDescription("Number of API calls"))
	if err != nil {
		log.Error("creating calls counter", logger.Error(err))
		return nil
	}
	duration, err := mtr.Float64Histogram("duration",
		metric.WithDescription("Time it took to answer the API call"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...))
	if err != nil {
		log.Error("creating duration histogram", logger.Error(err))
		return nil
	}
	return &callMetrics{count: count, duration: duration, fixed: fixed}
}

func (m *callMetrics) record(ctx context.Context, start time.Time, attrs ...attribute.KeyValue) {
	if m == nil {
		return
	}
	opt := metric.WithAttributeSet(attribute.NewSet(append(attrs, m.fixed...)...))
	m.count.Add(ctx, 1, opt)
	m.duration.Record(ctx, time.Since(start).Seconds(), opt)
}

/*
metricsUpdater returns func which records JSON-RPC calls of the admission API.
Node account is a fixed attribute of every measurement.
*/
func metricsUpdater(mtr metric.Meter, node types.AccountID, log *slog.Logger) func(ctx context.Context, method string, start time.Time, apiErr error) {
	m := newCallMetrics(mtr, log, observability.NodeAccountKey.String(node.String()))
	return func(ctx context.Context, method string, start time.Time, apiErr error) {
		m.record(ctx, start, semconv.RPCMethod(method), observability.ErrStatus(apiErr))
	}
}

/*
InstrumentMetricsUnaryServerInterceptor records the gRPC calls with the full
method name and the status code of the call.
*/
func InstrumentMetricsUnaryServerInterceptor(mtr metric.Meter, log *slog.Logger) grpc.UnaryServerInterceptor {
	m := newCallMetrics(mtr, log, semconv.RPCSystemGRPC)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		rsp, err := handler(ctx, req)
		s, _ := status.FromError(err)
		m.record(ctx, start, semconv.RPCMethod(info.FullMethod), semconv.RPCGRPCStatusCodeKey.Int(int(s.Code())))
		return rsp, err
	}
}

/*
instrumentHTTP returns middleware recording the REST calls by route template
and response status. Calls of the per kind routes carry the operation kind
too when it parses.
*/
func instrumentHTTP(mtr metric.Meter, log *slog.Logger) mux.MiddlewareFunc {
	m := newCallMetrics(mtr, log)
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, req)

			attrs := []attribute.KeyValue{semconv.HTTPResponseStatusCode(rw.status)}
			if route := mux.CurrentRoute(req); route != nil {
				if path, err := route.GetPathTemplate(); err == nil {
					attrs = append(attrs, semconv.HTTPRoute(path))
				}
			}
			if kind, err := types.ParseOperationKind(mux.Vars(req)["kind"]); err == nil {
				attrs = append(attrs, observability.OpKind(kind))
			}
			m.record(req.Context(), start, attrs...)
		})
	}
}

// statusRecorder remembers the first status code written.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.status = code
		r.written = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.written = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
