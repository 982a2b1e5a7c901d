package rpc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"

	testledger "github.com/alphabill-org/admission/internal/testutils/ledger"
	"github.com/alphabill-org/admission/internal/testutils/observability"
	"github.com/alphabill-org/admission/stats"
	"github.com/alphabill-org/admission/types"
)

// promObservability serves metrics of the prometheus registry.
type promObservability struct {
	*observability.Observability
	reg *prometheus.Registry
}

func (o promObservability) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(o.reg, promhttp.HandlerOpts{})
}

func newTestHTTPServer(t *testing.T, obs Observability, counters *stats.OpCounters) *http.Server {
	t.Helper()
	l := testledger.New(t)
	srv, err := NewHTTPServer(&ServerConfiguration{MaxBodyBytes: DefaultMaxBodyBytes},
		obs, AdmissionEndpoints(counters, l.Rates, l.Prices, obs.Logger()))
	require.NoError(t, err)
	return srv
}

func doGet(t *testing.T, srv *http.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	recorder := httptest.NewRecorder()
	srv.Handler.ServeHTTP(recorder, req)
	return recorder
}

func TestRESTServer_GetCounters(t *testing.T) {
	counters := stats.NewOpCounters(types.ContractCall, types.ContractCallLocal)
	counters.CountReceived(types.ContractCall)
	counters.CountReceived(types.ContractCall)
	counters.CountSubmitted(types.ContractCall)
	counters.CountReceived(types.ContractCallLocal)
	counters.CountAnswered(types.ContractCallLocal)
	srv := newTestHTTPServer(t, observability.Default(t), counters)

	t.Run("all", func(t *testing.T) {
		rsp := doGet(t, srv, "/api/v1/counters")
		require.Equal(t, http.StatusOK, rsp.Code)
		require.Equal(t, applicationJson, rsp.Header().Get(headerContentType))
		var snapshots []stats.Snapshot
		require.NoError(t, json.NewDecoder(rsp.Body).Decode(&snapshots))
		require.Equal(t, []stats.Snapshot{
			{Kind: types.ContractCall, Received: 2, Submitted: 1},
			{Kind: types.ContractCallLocal, Received: 1, Answered: 1},
		}, snapshots)
	})

	t.Run("kind", func(t *testing.T) {
		rsp := doGet(t, srv, "/api/v1/counters/contractcall")
		require.Equal(t, http.StatusOK, rsp.Code)
		var snapshot stats.Snapshot
		require.NoError(t, json.NewDecoder(rsp.Body).Decode(&snapshot))
		require.Equal(t, stats.Snapshot{Kind: types.ContractCall, Received: 2, Submitted: 1}, snapshot)
	})

	t.Run("unknown kind", func(t *testing.T) {
		rsp := doGet(t, srv, "/api/v1/counters/Mint")
		require.Equal(t, http.StatusBadRequest, rsp.Code)
		require.Contains(t, rsp.Body.String(), `unknown operation kind \"Mint\"`)
	})

	t.Run("kind not counted", func(t *testing.T) {
		rsp := doGet(t, srv, "/api/v1/counters/ContractDelete")
		require.Equal(t, http.StatusNotFound, rsp.Code)
		require.Contains(t, rsp.Body.String(), "operation ContractDelete is not counted")
	})
}

func TestRESTServer_FeeData(t *testing.T) {
	l := testledger.New(t)
	srv := newTestHTTPServer(t, observability.Default(t), stats.NewOpCounters())

	rsp := doGet(t, srv, "/api/v1/exchange-rate")
	require.Equal(t, http.StatusOK, rsp.Code)
	var rates types.ExchangeRateSet
	require.NoError(t, json.NewDecoder(rsp.Body).Decode(&rates))
	require.Equal(t, l.Rates.Rates(), rates)

	rsp = doGet(t, srv, "/api/v1/fee-schedules")
	require.Equal(t, http.StatusOK, rsp.Code)
	require.Contains(t, rsp.Body.String(), `"ContractCallLocal"`)
}

func TestRESTServer_NotFound(t *testing.T) {
	srv := newTestHTTPServer(t, observability.Default(t), stats.NewOpCounters())
	require.Equal(t, http.StatusNotFound, doGet(t, srv, "/api/v1/blocks/1").Code)
	// metrics are not served unless the observability has a handler
	require.Equal(t, http.StatusNotFound, doGet(t, srv, "/api/v1/metrics").Code)
}

func TestRESTServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	cnt := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_requests_total", Help: "test counter"})
	reg.MustRegister(cnt)
	cnt.Add(3)

	srv := newTestHTTPServer(t, promObservability{Observability: observability.Default(t), reg: reg}, stats.NewOpCounters())
	rsp := doGet(t, srv, "/api/v1/metrics")
	require.Equal(t, http.StatusOK, rsp.Code)
	require.True(t, strings.Contains(rsp.Body.String(), "test_requests_total 3"), rsp.Body.String())
}
