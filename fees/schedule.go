package fees

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/alphabill-org/admission/types"
)

// PricesProvider returns the price vectors of an operation kind valid at
// given time.
type PricesProvider interface {
	PricesGiven(kind types.OperationKind, at types.Timestamp) types.FeeData
}

// FeeSchedule is set of prices per operation kind valid until Expiry
// (seconds since Unix epoch, exclusive).
type FeeSchedule struct {
	Expiry int64                                 `yaml:"expiry" json:"expiry"`
	Prices map[types.OperationKind]types.FeeData `yaml:"prices" json:"prices"`
}

/*
FeeSchedules is the document loaded from the fee schedule file. Default
prices are used for kinds which are missing from the schedule in effect.
*/
type FeeSchedules struct {
	Current FeeSchedule   `yaml:"current" json:"current"`
	Next    FeeSchedule   `yaml:"next" json:"next"`
	Default types.FeeData `yaml:"default" json:"default"`
}

// ScheduleProvider serves prices from the fee schedules, schedules can be
// replaced while the provider is in use.
type ScheduleProvider struct {
	schedules atomic.Pointer[FeeSchedules]
}

func NewScheduleProvider(s *FeeSchedules) (*ScheduleProvider, error) {
	sp := &ScheduleProvider{}
	if err := sp.Update(s); err != nil {
		return nil, err
	}
	return sp, nil
}

func (sp *ScheduleProvider) Update(s *FeeSchedules) error {
	if s == nil {
		return fmt.Errorf("fee schedules is nil")
	}
	if s.Next.Expiry != 0 && s.Next.Expiry < s.Current.Expiry {
		return fmt.Errorf("next schedule expires (%d) before the current one (%d)", s.Next.Expiry, s.Current.Expiry)
	}
	sp.schedules.Store(s)
	return nil
}

// Schedules returns the schedules currently in use.
func (sp *ScheduleProvider) Schedules() *FeeSchedules {
	return sp.schedules.Load()
}

/*
PricesGiven returns prices of the kind from the current schedule when "at" is
before the expiry of the current schedule, otherwise from the next schedule.
*/
func (sp *ScheduleProvider) PricesGiven(kind types.OperationKind, at types.Timestamp) types.FeeData {
	s := sp.schedules.Load()
	active := &s.Current
	if at.Seconds >= s.Current.Expiry {
		active = &s.Next
	}
	if p, ok := active.Prices[kind]; ok {
		return p
	}
	return s.Default
}

// LoadFeeSchedules reads fee schedules from yaml file.
func LoadFeeSchedules(filename string) (*FeeSchedules, error) {
	data, err := os.ReadFile(filepath.Clean(filename))
	if err != nil {
		return nil, fmt.Errorf("reading fee schedule file: %w", err)
	}
	s := &FeeSchedules{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decoding fee schedule (%s): %w", filename, err)
	}
	return s, nil
}
