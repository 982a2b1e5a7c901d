package rpc

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	testlogger "github.com/alphabill-org/admission/internal/testutils/logger"
	"github.com/alphabill-org/admission/internal/testutils/observability"
	"github.com/alphabill-org/admission/stats"
	"github.com/alphabill-org/admission/types"
)

// callAttributes returns attribute sets of the "calls" data points.
func callAttributes(t *testing.T, rm *metricdata.ResourceMetrics) []attribute.Set {
	t.Helper()
	var sets []attribute.Set
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "calls" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				sets = append(sets, dp.Attributes)
			}
		}
	}
	return sets
}

func TestInstrumentHTTP(t *testing.T) {
	obs := observability.Default(t)
	srv := newTestHTTPServer(t, obs, stats.NewOpCounters(types.ContractCall))

	require.Equal(t, http.StatusOK, doGet(t, srv, "/api/v1/counters/contractcall").Code)
	require.Equal(t, http.StatusBadRequest, doGet(t, srv, "/api/v1/counters/Mint").Code)

	sets := callAttributes(t, obs.Metrics(t))
	require.Len(t, sets, 2)
	for _, set := range sets {
		route, ok := set.Value("http.route")
		require.True(t, ok)
		require.Equal(t, "/api/v1/counters/{kind}", route.AsString())

		status, ok := set.Value("http.response.status_code")
		require.True(t, ok)
		op, hasOp := set.Value("op")
		switch status.AsInt64() {
		case http.StatusOK:
			require.True(t, hasOp)
			require.Equal(t, "ContractCall", op.AsString())
		case http.StatusBadRequest:
			require.False(t, hasOp, "unparsable kind must not be recorded")
		default:
			t.Fatalf("unexpected status %d", status.AsInt64())
		}
	}
}

func TestMetricsUpdater(t *testing.T) {
	obs := observability.Default(t)
	update := metricsUpdater(obs.Meter(metricsScopeJRPCAPI), types.NewAccountID(0, 0, 3), obs.Logger())
	update(context.Background(), "getGasPrice", time.Now(), nil)

	sets := callAttributes(t, obs.Metrics(t))
	require.Len(t, sets, 1)
	node, ok := sets[0].Value("service.node.name")
	require.True(t, ok)
	require.Equal(t, "0.0.3", node.AsString())
	method, ok := sets[0].Value("rpc.method")
	require.True(t, ok)
	require.Equal(t, "getGasPrice", method.AsString())
}

func TestCallMetrics_nil(t *testing.T) {
	var m *callMetrics
	require.NotPanics(t, func() { m.record(context.Background(), time.Now()) })

	m = newCallMetrics(noop.NewMeterProvider().Meter("test"), testlogger.New(t))
	require.NotNil(t, m)
	require.NotPanics(t, func() { m.record(context.Background(), time.Now(), attribute.String("k", "v")) })
}
