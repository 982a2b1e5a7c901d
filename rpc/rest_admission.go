package rpc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/alphabill-org/admission/fees"
	"github.com/alphabill-org/admission/logger"
	"github.com/alphabill-org/admission/stats"
	"github.com/alphabill-org/admission/types"
)

type (
	countersReader interface {
		Tracks(kind types.OperationKind) bool
		Snapshot(kind types.OperationKind) stats.Snapshot
		SnapshotAll() []stats.Snapshot
	}

	ratesReader interface {
		Rates() types.ExchangeRateSet
	}

	schedulesReader interface {
		Schedules() *fees.FeeSchedules
	}
)

// AdmissionEndpoints registers read only endpoints of the operation counters
// and fee data of the node.
func AdmissionEndpoints(counters countersReader, rates ratesReader, schedules schedulesReader, log *slog.Logger) RegistrarFunc {
	return func(r *mux.Router) {
		r.HandleFunc("/counters", getCounters(counters, log)).Methods(http.MethodGet)
		r.HandleFunc("/counters/{kind}", getKindCounters(counters, log)).Methods(http.MethodGet)
		r.HandleFunc("/exchange-rate", func(w http.ResponseWriter, _ *http.Request) {
			WriteJSONResponse(w, rates.Rates(), http.StatusOK, log)
		}).Methods(http.MethodGet)
		r.HandleFunc("/fee-schedules", func(w http.ResponseWriter, _ *http.Request) {
			WriteJSONResponse(w, schedules.Schedules(), http.StatusOK, log)
		}).Methods(http.MethodGet)
	}
}

func getCounters(counters countersReader, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSONResponse(w, counters.SnapshotAll(), http.StatusOK, log)
	}
}

func getKindCounters(counters countersReader, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := types.ParseOperationKind(mux.Vars(r)["kind"])
		if err != nil {
			WriteJSONError(w, err, http.StatusBadRequest, log)
			return
		}
		if !counters.Tracks(kind) {
			WriteJSONError(w, fmt.Errorf("operation %s is not counted", kind), http.StatusNotFound, log)
			return
		}
		WriteJSONResponse(w, counters.Snapshot(kind), http.StatusOK, log)
	}
}

func WriteJSONResponse(w http.ResponseWriter, data any, statusCode int, log *slog.Logger) {
	w.Header().Set(headerContentType, applicationJson)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn("failed to write JSON response", logger.Error(err))
	}
}

func WriteJSONError(w http.ResponseWriter, e error, statusCode int, log *slog.Logger) {
	WriteJSONResponse(w, struct {
		Err string `json:"message"`
	}{Err: e.Error()}, statusCode, log)
}
