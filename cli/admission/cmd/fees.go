package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alphabill-org/admission/fees"
	"github.com/alphabill-org/admission/rpc"
	"github.com/alphabill-org/admission/types"
)

type feesQuoteConfiguration struct {
	Base          *baseConfiguration
	FeeSchedule   string
	ExchangeRates string
	Kind          string
	// At is the quote time in seconds since Unix epoch, current time when zero.
	At int64
}

type feeQuote struct {
	rpc.FeeQuote
	// GasPrice is the price of a unit of gas in tiny units.
	GasPrice uint64 `json:"gasPrice"`
}

func newFeesCmd(baseConfig *baseConfiguration) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "fees",
		Short: "Tools for the fee schedule and exchange rates of the node",
	}
	cmd.AddCommand(newFeesQuoteCmd(baseConfig))
	return cmd
}

func newFeesQuoteCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &feesQuoteConfiguration{Base: baseConfig}
	var cmd = &cobra.Command{
		Use:   "quote",
		Short: "Prints the prices and exchange rate in effect for an operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := quoteFees(config, time.Now())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(q)
		},
	}
	cmd.Flags().StringVar(&config.FeeSchedule, keyFeeSchedule, defaultFeeScheduleFile, "fee schedule file. Considered absolute if starts with '/'. Otherwise relative from $ADM_HOME.")
	cmd.Flags().StringVar(&config.ExchangeRates, keyExchangeRates, defaultExchangeRatesFile, "exchange rates file. Considered absolute if starts with '/'. Otherwise relative from $ADM_HOME.")
	cmd.Flags().StringVar(&config.Kind, "kind", types.ContractCall.String(), "operation kind")
	cmd.Flags().Int64Var(&config.At, "at", 0, "quote time in seconds since Unix epoch (default is current time)")
	return cmd
}

func quoteFees(cfg *feesQuoteConfiguration, now time.Time) (*feeQuote, error) {
	kind, err := types.ParseOperationKind(cfg.Kind)
	if err != nil {
		return nil, fmt.Errorf("invalid kind: %w", err)
	}
	prices, rates, err := loadFeeData(cfg.Base, cfg.FeeSchedule, cfg.ExchangeRates)
	if err != nil {
		return nil, err
	}
	at := types.TimestampOf(now)
	if cfg.At != 0 {
		at = types.Timestamp{Seconds: cfg.At}
	}
	q := &feeQuote{
		FeeQuote: rpc.FeeQuote{
			Kind:   kind,
			At:     at,
			Prices: prices.PricesGiven(kind, at),
			Rate:   rates.Rate(at),
		},
	}
	q.GasPrice = fees.GasPriceInTinyUnits(q.Prices, q.Rate)
	return q, nil
}
