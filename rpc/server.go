package rpc

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/metric"
)

const (
	headerContentType = "Content-Type"
	applicationJson   = "application/json"

	metricsScopeJRPCAPI = "jrpc_api" // json-rpc
	metricsScopeRESTAPI = "rest_api"

	restPathPrefix = "/api/v1"
	jsonRPCPath    = "/rpc"

	DefaultMaxBodyBytes           int64 = 4194304 // 4MB
	DefaultBatchItemLimit         int   = 1000
	DefaultBatchResponseSizeLimit int   = int(DefaultMaxBodyBytes)
)

var allowedCORSHeaders = []string{"Accept", "Accept-Language", "Content-Language", "Origin", headerContentType}

type (
	// Registrar adds REST endpoints to the router of the API path prefix.
	Registrar interface {
		Register(r *mux.Router)
	}

	RegistrarFunc func(r *mux.Router)

	Observability interface {
		Meter(name string, opts ...metric.MeterOption) metric.Meter
		// MetricsHandler returns handler of the metrics pull endpoint, nil
		// when metrics are not exported that way.
		MetricsHandler() http.Handler
		Logger() *slog.Logger
	}

	// API is a JSON-RPC service, its exported methods are served as
	// "<Namespace>_<method>".
	API struct {
		Namespace string
		Service   any
	}

	// ServerConfiguration of the HTTP server of the node. Zero (or negative)
	// timeouts mean no timeout, zero MaxHeaderBytes means http.DefaultMaxHeaderBytes.
	ServerConfiguration struct {
		// Address in the form "host:port", the server is not started when empty.
		Address string

		ReadTimeout       time.Duration
		ReadHeaderTimeout time.Duration
		WriteTimeout      time.Duration
		IdleTimeout       time.Duration
		MaxHeaderBytes    int

		// MaxBodyBytes limits the request body of every endpoint.
		MaxBodyBytes int64

		// JSON-RPC batch limits, zero means no limit.
		BatchItemLimit         int
		BatchResponseSizeLimit int

		APIs []API
	}
)

func (c *ServerConfiguration) IsAddressEmpty() bool {
	return strings.TrimSpace(c.Address) == ""
}

func (c *ServerConfiguration) Validate() error {
	var errs []error
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max body size must be positive, got %d", c.MaxBodyBytes))
	}
	if c.BatchItemLimit < 0 || c.BatchResponseSizeLimit < 0 {
		errs = append(errs, fmt.Errorf("batch limits must not be negative, got %d items and %d bytes", c.BatchItemLimit, c.BatchResponseSizeLimit))
	}
	for _, api := range c.APIs {
		if api.Namespace == "" || api.Service == nil {
			errs = append(errs, errors.New("JSON-RPC API must have namespace and service"))
		}
	}
	return errors.Join(errs...)
}

/*
NewHTTPServer returns server with the REST endpoints of the registrars under
the "/api/v1" prefix and the JSON-RPC APIs of the configuration on "/rpc"
(both plain HTTP and websocket). Metrics pull endpoint "/api/v1/metrics" is
added when the observability provides a handler for it.
*/
func NewHTTPServer(conf *ServerConfiguration, obs Observability, registrars ...Registrar) (*http.Server, error) {
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid RPC server configuration: %w", err)
	}
	jrpc, err := newJSONRPCServer(conf)
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	cors := handlers.CORS(handlers.AllowedHeaders(allowedCORSHeaders))

	api := router.PathPrefix(restPathPrefix).Subrouter()
	api.Use(cors, instrumentHTTP(obs.Meter(metricsScopeRESTAPI), obs.Logger()))
	api.NotFoundHandler = notFound(obs.Logger())
	for _, r := range registrars {
		r.Register(api)
	}
	if h := obs.MetricsHandler(); h != nil {
		api.Handle("/metrics", h).Methods(http.MethodGet)
	}

	router.Handle(jsonRPCPath, jrpc.WebsocketHandler([]string{"*"})).Headers("Connection", "Upgrade", "Upgrade", "websocket")
	router.Handle(jsonRPCPath, cors(jrpc))
	router.NotFoundHandler = http.HandlerFunc(http.NotFound)

	return &http.Server{
		Addr:              conf.Address,
		ReadTimeout:       conf.ReadTimeout,
		ReadHeaderTimeout: conf.ReadHeaderTimeout,
		WriteTimeout:      conf.WriteTimeout,
		IdleTimeout:       conf.IdleTimeout,
		MaxHeaderBytes:    conf.MaxHeaderBytes,
		Handler:           http.MaxBytesHandler(router, conf.MaxBodyBytes),
	}, nil
}

func newJSONRPCServer(conf *ServerConfiguration) (*rpc.Server, error) {
	s := rpc.NewServer()
	s.SetBatchLimits(conf.BatchItemLimit, conf.BatchResponseSizeLimit)
	for _, api := range conf.APIs {
		if err := s.RegisterName(api.Namespace, api.Service); err != nil {
			return nil, fmt.Errorf("registering JSON-RPC API %q: %w", api.Namespace, err)
		}
	}
	return s, nil
}

func notFound(log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, fmt.Errorf("no endpoint %s %s", r.Method, r.URL.Path), http.StatusNotFound, log)
	})
}

func (f RegistrarFunc) Register(r *mux.Router) {
	f(r)
}
