package fees

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/alphabill-org/admission/types"
)

type ExchangeRateProvider interface {
	Rate(at types.Timestamp) types.ExchangeRate
}

// RateProvider serves rates from an exchange rate set which can be replaced
// while the provider is in use.
type RateProvider struct {
	rates atomic.Pointer[types.ExchangeRateSet]
}

func NewRateProvider(set types.ExchangeRateSet) (*RateProvider, error) {
	rp := &RateProvider{}
	if err := rp.Update(set); err != nil {
		return nil, err
	}
	return rp, nil
}

// Update replaces the rate set, invalid set is rejected and the previous one
// stays in effect.
func (rp *RateProvider) Update(set types.ExchangeRateSet) error {
	if err := set.IsValid(); err != nil {
		return fmt.Errorf("updating exchange rates: %w", err)
	}
	rp.rates.Store(&set)
	return nil
}

func (rp *RateProvider) Rates() types.ExchangeRateSet {
	return *rp.rates.Load()
}

/*
Rate returns the current rate while "at" is before its expiration time and
the next rate otherwise. As the next rate is the most recent known rate it is
returned also when it has expired, Rate never fails.
*/
func (rp *RateProvider) Rate(at types.Timestamp) types.ExchangeRate {
	set := rp.rates.Load()
	if at.Seconds < set.CurrentRate.ExpirationTime {
		return set.CurrentRate
	}
	return set.NextRate
}

// LoadExchangeRates reads exchange rate set from yaml file.
func LoadExchangeRates(filename string) (types.ExchangeRateSet, error) {
	data, err := os.ReadFile(filepath.Clean(filename))
	if err != nil {
		return types.ExchangeRateSet{}, fmt.Errorf("reading exchange rates file: %w", err)
	}
	var set types.ExchangeRateSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return types.ExchangeRateSet{}, fmt.Errorf("decoding exchange rates (%s): %w", filename, err)
	}
	return set, nil
}
