package rpc

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/admission/internal/testutils/observability"
	"github.com/alphabill-org/admission/stats"
)

func TestServerConfiguration_Validate(t *testing.T) {
	valid := func() *ServerConfiguration {
		return &ServerConfiguration{
			Address:                "localhost:26866",
			MaxBodyBytes:           DefaultMaxBodyBytes,
			BatchItemLimit:         DefaultBatchItemLimit,
			BatchResponseSizeLimit: DefaultBatchResponseSizeLimit,
			APIs:                   []API{{Namespace: "admission", Service: &AdmissionAPI{}}},
		}
	}
	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.MaxBodyBytes = 0
	require.EqualError(t, cfg.Validate(), "max body size must be positive, got 0")

	cfg = valid()
	cfg.BatchItemLimit = -1
	require.EqualError(t, cfg.Validate(), "batch limits must not be negative, got -1 items and 4194304 bytes")

	cfg = valid()
	cfg.APIs = append(cfg.APIs, API{Namespace: "admission"})
	require.EqualError(t, cfg.Validate(), "JSON-RPC API must have namespace and service")

	_, err := NewHTTPServer(&ServerConfiguration{}, observability.Default(t))
	require.ErrorContains(t, err, "invalid RPC server configuration: max body size must be positive")
}

func TestNewHTTPServer_unknownEndpoint(t *testing.T) {
	srv := newTestHTTPServer(t, observability.Default(t), stats.NewOpCounters())

	rsp := doGet(t, srv, "/api/v1/contracts/0.0.1001")
	require.Equal(t, http.StatusNotFound, rsp.Code)
	require.Equal(t, applicationJson, rsp.Header().Get(headerContentType))
	require.JSONEq(t, `{"message":"no endpoint GET /api/v1/contracts/0.0.1001"}`, rsp.Body.String())

	// outside of the API prefix plain text answer is given
	rsp = doGet(t, srv, "/index.html")
	require.Equal(t, http.StatusNotFound, rsp.Code)
	require.NotEqual(t, applicationJson, rsp.Header().Get(headerContentType))
}

func TestIsAddressEmpty(t *testing.T) {
	require.True(t, (&ServerConfiguration{}).IsAddressEmpty())
	require.True(t, (&ServerConfiguration{Address: "  "}).IsAddressEmpty())
	require.False(t, (&ServerConfiguration{Address: ":8080"}).IsAddressEmpty())
}
