package types

import (
	"errors"
	"fmt"
)

/*
FeeComponents is a 9-dimensional resource vector. It is used both as a usage
vector (resources consumed by a request) and as a price vector (price of one
unit of each resource in tiny-cents), the meaning is given by the context.
*/
type FeeComponents struct {
	_        struct{} `cbor:",toarray"`
	Constant uint64   `json:"constant" yaml:"constant"`
	Bpt      uint64   `json:"bpt" yaml:"bpt"`   // bytes per transaction
	Vpt      uint64   `json:"vpt" yaml:"vpt"`   // signature verifications per transaction
	Rbh      uint64   `json:"rbh" yaml:"rbh"`   // ram byte hours
	Sbh      uint64   `json:"sbh" yaml:"sbh"`   // storage byte hours
	Gas      uint64   `json:"gas" yaml:"gas"`   // contract execution gas
	Tv       uint64   `json:"tv" yaml:"tv"`     // transferred value
	Bpr      uint64   `json:"bpr" yaml:"bpr"`   // bytes per response
	Sbpr     uint64   `json:"sbpr" yaml:"sbpr"` // storage bytes per response
}

// Values returns the components in their canonical order.
func (fc FeeComponents) Values() [9]uint64 {
	return [9]uint64{fc.Constant, fc.Bpt, fc.Vpt, fc.Rbh, fc.Sbh, fc.Gas, fc.Tv, fc.Bpr, fc.Sbpr}
}

// FeeData partitions the cost of a request into the three cost centers.
type FeeData struct {
	_           struct{}      `cbor:",toarray"`
	Nodedata    FeeComponents `json:"nodedata" yaml:"nodedata"`
	Networkdata FeeComponents `json:"networkdata" yaml:"networkdata"`
	Servicedata FeeComponents `json:"servicedata" yaml:"servicedata"`
}

// Partitions returns node, network and service partitions in that order.
func (fd FeeData) Partitions() [3]FeeComponents {
	return [3]FeeComponents{fd.Nodedata, fd.Networkdata, fd.Servicedata}
}

/*
ExchangeRate converts tiny-cents into tiny-units of the ledger currency:
HbarEquiv units of currency are worth CentEquiv cents. The rate is valid
until ExpirationTime (seconds since Unix epoch, exclusive).
*/
type ExchangeRate struct {
	_              struct{} `cbor:",toarray"`
	HbarEquiv      uint64   `json:"hbarEquiv" yaml:"hbarEquiv"`
	CentEquiv      uint64   `json:"centEquiv" yaml:"centEquiv"`
	ExpirationTime int64    `json:"expirationTime" yaml:"expirationTime"`
}

var ErrInvalidExchangeRate = errors.New("invalid exchange rate")

func (r ExchangeRate) IsValid() error {
	if r.HbarEquiv == 0 {
		return fmt.Errorf("%w: hbar equivalent must be positive", ErrInvalidExchangeRate)
	}
	if r.CentEquiv == 0 {
		return fmt.Errorf("%w: cent equivalent must be positive", ErrInvalidExchangeRate)
	}
	return nil
}

func (r ExchangeRate) String() string {
	return fmt.Sprintf("%d/%d until %d", r.HbarEquiv, r.CentEquiv, r.ExpirationTime)
}

// ExchangeRateSet is the currently active rate and the one which takes over
// once the current expires.
type ExchangeRateSet struct {
	_           struct{}     `cbor:",toarray"`
	CurrentRate ExchangeRate `json:"currentRate" yaml:"currentRate"`
	NextRate    ExchangeRate `json:"nextRate" yaml:"nextRate"`
}

func (s ExchangeRateSet) IsValid() error {
	if err := s.CurrentRate.IsValid(); err != nil {
		return fmt.Errorf("current rate: %w", err)
	}
	if err := s.NextRate.IsValid(); err != nil {
		return fmt.Errorf("next rate: %w", err)
	}
	return nil
}

/*
TxnValidityAndFeeReq is the outcome of a precheck stage: response code and,
when the check computed one, the fee the request must pay.
*/
type TxnValidityAndFeeReq struct {
	validity    ResponseCode
	requiredFee uint64
}

func NewTxnValidityAndFeeReq(validity ResponseCode, requiredFee uint64) TxnValidityAndFeeReq {
	return TxnValidityAndFeeReq{validity: validity, requiredFee: requiredFee}
}

func Validity(code ResponseCode) TxnValidityAndFeeReq {
	return TxnValidityAndFeeReq{validity: code}
}

func (v TxnValidityAndFeeReq) Validity() ResponseCode { return v.validity }

func (v TxnValidityAndFeeReq) RequiredFee() uint64 { return v.requiredFee }

func (v TxnValidityAndFeeReq) IsOK() bool { return v.validity == OK }
