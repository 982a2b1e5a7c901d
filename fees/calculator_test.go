package fees

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/admission/types"
)

var (
	usageVector = types.FeeComponents{Constant: 1, Bpt: 2, Vpt: 3, Rbh: 4, Sbh: 5, Gas: 6, Tv: 7, Bpr: 8, Sbpr: 9}
	priceVector = types.FeeComponents{Constant: 10, Bpt: 20, Vpt: 30, Rbh: 40, Sbh: 50, Gas: 60, Tv: 70, Bpr: 80, Sbpr: 90}
	// 1:1 conversion
	unitRate = types.ExchangeRate{HbarEquiv: 1, CentEquiv: 1}
)

func TestComponentFee(t *testing.T) {
	// 10*(1+4+9+16+25+36+49+64+81)
	require.EqualValues(t, 2850, ComponentFee(priceVector, usageVector).Uint64())
	require.True(t, ComponentFee(priceVector, types.FeeComponents{}).IsZero())

	maxed := types.FeeComponents{Constant: math.MaxUint64, Gas: math.MaxUint64}
	require.False(t, ComponentFee(maxed, maxed).IsUint64(), "product must not wrap around")
}

func TestTotalFee(t *testing.T) {
	usage := types.FeeData{Nodedata: usageVector, Networkdata: usageVector, Servicedata: usageVector}
	prices := types.FeeData{Nodedata: priceVector, Networkdata: priceVector, Servicedata: priceVector}
	require.EqualValues(t, 3*2850, TotalFee(prices, usage, unitRate))

	t.Run("partitions are priced separately", func(t *testing.T) {
		usage := types.FeeData{Nodedata: types.FeeComponents{Constant: 1}}
		prices := types.FeeData{Networkdata: types.FeeComponents{Constant: 1000}}
		require.Zero(t, TotalFee(prices, usage, unitRate))
	})

	t.Run("conversion", func(t *testing.T) {
		// 12 cents for one unit of currency
		rate := types.ExchangeRate{HbarEquiv: 1, CentEquiv: 12}
		require.EqualValues(t, 3*2850/12, TotalFee(prices, usage, rate))
	})

	t.Run("saturates", func(t *testing.T) {
		maxed := types.FeeComponents{Constant: math.MaxUint64}
		fd := types.FeeData{Nodedata: maxed, Networkdata: maxed}
		require.EqualValues(t, uint64(math.MaxUint64), TotalFee(fd, fd, unitRate))
	})
}

func TestTinyCentsToTinyUnits(t *testing.T) {
	rate := types.ExchangeRate{HbarEquiv: 30_000, CentEquiv: 12}
	require.EqualValues(t, 2500, TinyCentsToTinyUnits(rate, 1))
	require.EqualValues(t, 0, TinyCentsToTinyUnits(rate, 0))
	// floor
	require.EqualValues(t, 8, TinyCentsToTinyUnits(types.ExchangeRate{HbarEquiv: 2, CentEquiv: 3}, 13))
	// monotonic
	prev := uint64(0)
	for tc := uint64(0); tc < 100; tc++ {
		v := TinyCentsToTinyUnits(types.ExchangeRate{HbarEquiv: 7, CentEquiv: 13}, tc)
		require.GreaterOrEqual(t, v, prev)
		prev = v
	}
	require.EqualValues(t, uint64(math.MaxUint64), TinyCentsToTinyUnits(types.ExchangeRate{HbarEquiv: 2, CentEquiv: 1}, math.MaxUint64))
	require.Zero(t, TinyCentsToTinyUnits(types.ExchangeRate{HbarEquiv: 2}, 100))
}

func TestGasPriceInTinyUnits(t *testing.T) {
	rate := types.ExchangeRate{HbarEquiv: 1, CentEquiv: 12}
	cases := []struct {
		name string
		gas  uint64
		want uint64
	}{
		{name: "zero schedule price", gas: 0, want: 1},
		{name: "rounds to zero before conversion", gas: 999, want: 1},
		{name: "rounds to zero after conversion", gas: 11_999, want: 1},
		{name: "exact", gas: 24_000, want: 2},
		{name: "floor", gas: 35_999, want: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prices := types.FeeData{Nodedata: types.FeeComponents{Gas: tc.gas}, Servicedata: types.FeeComponents{Gas: 1e9}}
			require.Equal(t, tc.want, GasPriceInTinyUnits(prices, rate))
		})
	}
}

func TestLocalCallFee(t *testing.T) {
	require.EqualValues(t, 2500, LocalCallFee(500, 2, 1000))
	require.EqualValues(t, 500, LocalCallFee(500, 2, 0))
	require.EqualValues(t, uint64(math.MaxUint64), LocalCallFee(1, math.MaxUint64, 2))
}
