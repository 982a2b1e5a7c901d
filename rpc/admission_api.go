package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/alphabill-org/admission/fees"
	"github.com/alphabill-org/admission/stats"
	"github.com/alphabill-org/admission/types"
)

type (
	// AdmissionAPI is the JSON-RPC API of the fee data and operation
	// counters of the node, registered under the "admission" namespace.
	AdmissionAPI struct {
		counters   countersReader
		rates      rateSource
		prices     fees.PricesProvider
		now        func() time.Time
		updMetrics func(ctx context.Context, method string, start time.Time, apiErr error)
	}

	rateSource interface {
		ratesReader
		fees.ExchangeRateProvider
	}

	// FeeQuote is the price vectors of an operation kind and the exchange
	// rate in effect at given time.
	FeeQuote struct {
		Kind   types.OperationKind `json:"kind"`
		At     types.Timestamp     `json:"at"`
		Prices types.FeeData       `json:"prices"`
		Rate   types.ExchangeRate  `json:"rate"`
	}
)

func NewAdmissionAPI(counters countersReader, rates rateSource, prices fees.PricesProvider, node types.AccountID, mtr metric.Meter, log *slog.Logger) *AdmissionAPI {
	return &AdmissionAPI{
		counters:   counters,
		rates:      rates,
		prices:     prices,
		now:        time.Now,
		updMetrics: metricsUpdater(mtr, node, log),
	}
}

// GetCounters returns the counters of the operation kind or of all the
// counted kinds when kind is not given.
func (a *AdmissionAPI) GetCounters(ctx context.Context, kind *types.OperationKind) (_ []stats.Snapshot, rErr error) {
	defer func(start time.Time) { a.updMetrics(ctx, "getCounters", start, rErr) }(time.Now())

	if kind == nil {
		return a.counters.SnapshotAll(), nil
	}
	if !a.counters.Tracks(*kind) {
		return nil, fmt.Errorf("operation %s is not counted", *kind)
	}
	return []stats.Snapshot{a.counters.Snapshot(*kind)}, nil
}

// GetExchangeRate returns the current and the next exchange rate.
func (a *AdmissionAPI) GetExchangeRate(ctx context.Context) (types.ExchangeRateSet, error) {
	defer func(start time.Time) { a.updMetrics(ctx, "getExchangeRate", start, nil) }(time.Now())
	return a.rates.Rates(), nil
}

// GetGasPrice returns price of the local call gas unit in tiny units at
// the given time (seconds since epoch), current time when not given.
func (a *AdmissionAPI) GetGasPrice(ctx context.Context, at *int64) (uint64, error) {
	defer func(start time.Time) { a.updMetrics(ctx, "getGasPrice", start, nil) }(time.Now())
	ts := a.timestamp(at)
	return fees.GasPriceInTinyUnits(a.prices.PricesGiven(types.ContractCallLocal, ts), a.rates.Rate(ts)), nil
}

// GetPrices returns the prices of the operation kind in effect at the
// given time (seconds since epoch), current time when not given.
func (a *AdmissionAPI) GetPrices(ctx context.Context, kind types.OperationKind, at *int64) (*FeeQuote, error) {
	defer func(start time.Time) { a.updMetrics(ctx, "getPrices", start, nil) }(time.Now())

	ts := a.timestamp(at)
	return &FeeQuote{
		Kind:   kind,
		At:     ts,
		Prices: a.prices.PricesGiven(kind, ts),
		Rate:   a.rates.Rate(ts),
	}, nil
}

func (a *AdmissionAPI) timestamp(at *int64) types.Timestamp {
	if at == nil {
		return types.TimestampOf(a.now())
	}
	return types.Timestamp{Seconds: *at}
}
