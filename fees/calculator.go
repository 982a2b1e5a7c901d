package fees

import (
	"math"

	"github.com/holiman/uint256"

	"github.com/alphabill-org/admission/types"
)

/*
Conversion convention: an ExchangeRate says that HbarEquiv units of currency
are worth CentEquiv cents, so

	tinyUnits = floor(tinyCents * HbarEquiv / CentEquiv)

All intermediate values are 256 bit so the products can't overflow, final
results saturate at math.MaxUint64.
*/

var maxUint64 = uint256.NewInt(math.MaxUint64)

// ComponentFee returns the dot product of the price and usage vector, in
// tiny-cents.
func ComponentFee(price, usage types.FeeComponents) *uint256.Int {
	p, u := price.Values(), usage.Values()
	sum := new(uint256.Int)
	term := new(uint256.Int)
	for i := range p {
		term.Mul(uint256.NewInt(p[i]), uint256.NewInt(u[i]))
		sum.Add(sum, term)
	}
	return sum
}

// TotalTinyCents sums the partition subtotals of the usage priced with prices.
func TotalTinyCents(prices, usage types.FeeData) *uint256.Int {
	pp, up := prices.Partitions(), usage.Partitions()
	total := new(uint256.Int)
	for i := range pp {
		total.Add(total, ComponentFee(pp[i], up[i]))
	}
	return total
}

// TinyCentsToTinyUnits converts the amount using the rate. Zero is returned
// for a rate with zero CentEquiv, callers are expected to validate rates.
func TinyCentsToTinyUnits(rate types.ExchangeRate, tinyCents uint64) uint64 {
	return toTinyUnits(rate, uint256.NewInt(tinyCents))
}

func toTinyUnits(rate types.ExchangeRate, tinyCents *uint256.Int) uint64 {
	v := new(uint256.Int).Mul(tinyCents, uint256.NewInt(rate.HbarEquiv))
	v.Div(v, uint256.NewInt(rate.CentEquiv))
	return saturate(v)
}

// TotalFee is the fee of the request in tiny-units.
func TotalFee(prices, usage types.FeeData, rate types.ExchangeRate) uint64 {
	return toTinyUnits(rate, TotalTinyCents(prices, usage))
}

/*
GasPriceInTinyUnits derives price of one unit of gas from the node partition
gas price (which is per thousand gas units). The result is never less than 1
even when the schedule price rounds down to zero.
*/
func GasPriceInTinyUnits(prices types.FeeData, rate types.ExchangeRate) uint64 {
	return max(1, TinyCentsToTinyUnits(rate, prices.Nodedata.Gas/1000))
}

// LocalCallFee returns baseFee + gasPrice*gasOffered.
func LocalCallFee(baseFee, gasPrice, gasOffered uint64) uint64 {
	v := new(uint256.Int).Mul(uint256.NewInt(gasPrice), uint256.NewInt(gasOffered))
	v.Add(v, uint256.NewInt(baseFee))
	return saturate(v)
}

func saturate(v *uint256.Int) uint64 {
	if v.Gt(maxUint64) {
		return math.MaxUint64
	}
	return v.Uint64()
}
