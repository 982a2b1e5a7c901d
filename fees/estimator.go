package fees

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/alphabill-org/admission/types"
)

// Sizes (in bytes) of the basic building blocks of requests and responses
// used to estimate the usage.
const (
	IntSize             = 4
	LongSize            = 8
	BoolSize            = 4
	EntityIDSize        = 3 * LongSize
	TxIDSize            = EntityIDSize + LongSize + IntSize
	BasicTxBodySize     = EntityIDSize + TxIDSize + LongSize + LongSize
	BasicReceiptSize    = 4*LongSize + IntSize
	BasicQueryHeader    = 2 * IntSize
	BasicQueryResHeader = 2*IntSize + LongSize
	StateProofSize      = 2000
	ContractInfoSize    = 2*EntityIDSize + 3*LongSize + BoolSize

	// receipts are kept for three minutes
	ReceiptStorageTimeSec = 180
	hour                  = 3600
)

/*
TransactionUsage estimates the resource usage of a transaction from its body
and signature cost shape.

The node partition charges for the bytes and payer signature verifications,
network partition for the bytes, all the signature verifications and the
receipt storage. The service partition charges for the operation specific
work.
*/
func TransactionUsage(body *types.TransactionBody, sv types.SigValueObj) (types.FeeData, error) {
	kind, err := body.Kind()
	if err != nil {
		return types.FeeData{}, err
	}
	bpt := uint64(BasicTxBodySize + len(body.Memo) + sv.SignatureSize)
	svc := types.FeeComponents{Constant: 1}

	switch kind {
	case types.CryptoTransfer:
		ct := body.CryptoTransfer
		bpt += uint64(len(ct.Transfers) * (EntityIDSize + LongSize))
		tv := new(uint256.Int)
		for _, aa := range ct.Transfers {
			if aa.Amount > 0 {
				tv.Add(tv, uint256.NewInt(uint64(aa.Amount)))
			}
		}
		svc.Tv = saturate(tv)
	case types.ContractCreate:
		cc := body.ContractCreateInstance
		varSize := uint64(len(cc.AdminKey) + len(cc.Memo))
		bpt += uint64(len(cc.InitCode)+len(cc.ConstructorParameters)+3*LongSize) + varSize
		renew := uint64(0)
		if cc.AutoRenewPeriod != nil && cc.AutoRenewPeriod.Seconds > 0 {
			renew = uint64(cc.AutoRenewPeriod.Seconds)
		}
		svc.Rbh = byteHours(ContractInfoSize+varSize, renew)
		svc.Sbh = byteHours(uint64(len(cc.InitCode)), renew)
		svc.Gas = cc.Gas
		svc.Tv = cc.InitialBalance
	case types.ContractCall:
		cc := body.ContractCall
		bpt += uint64(EntityIDSize + 2*LongSize + len(cc.FunctionParameters))
		svc.Gas = cc.Gas
		svc.Tv = cc.Amount
	case types.ContractUpdate:
		cu := body.ContractUpdateInstance
		bpt += EntityIDSize + uint64(len(cu.AdminKey))
		if cu.ExpirationTime != nil {
			bpt += LongSize
		}
		if cu.AutoRenewPeriod != nil {
			bpt += LongSize
		}
		if cu.Memo != nil {
			bpt += uint64(len(*cu.Memo))
		}
	case types.ContractDelete:
		bpt += 2 * EntityIDSize
	case types.SystemDelete:
		bpt += EntityIDSize + LongSize
	case types.SystemUndelete:
		bpt += EntityIDSize
	default:
		return types.FeeData{}, fmt.Errorf("no usage estimate for %s", kind)
	}

	return types.FeeData{
		Nodedata: types.FeeComponents{
			Constant: 1,
			Bpt:      bpt,
			Vpt:      uint64(sv.PayerAcctSigCount),
			Bpr:      BasicQueryResHeader,
		},
		Networkdata: types.FeeComponents{
			Constant: 1,
			Bpt:      bpt,
			Vpt:      uint64(sv.TotalSigCount),
			Rbh:      byteHours(BasicReceiptSize, ReceiptStorageTimeSec),
		},
		Servicedata: svc,
	}, nil
}

/*
ContractCallLocalUsage estimates local call usage. Response sizes are
computed from the result of the call (for cost answers from a placeholder of
the estimated size) so the usage can only be computed after the call.
*/
func ContractCallLocalUsage(funcParamsSize int, result *types.ContractFunctionResult, rt types.ResponseType) types.FeeData {
	bpt := uint64(BasicQueryHeader + EntityIDSize + LongSize + funcParamsSize + LongSize)
	var resultSize, sbpr uint64
	if result != nil {
		resultSize = uint64(EntityIDSize + len(result.ContractCallResult) + len(result.ErrorMessage) + LongSize)
		sbpr = uint64(len(result.ContractCallResult))
	}
	return queryFeeData(bpt, resultSize, sbpr, rt)
}

// QueryUsage estimates usage of a query about a single entity where the
// answer is answerSize bytes of stored data.
func QueryUsage(answerSize int, rt types.ResponseType) types.FeeData {
	return queryFeeData(BasicQueryHeader+EntityIDSize, uint64(answerSize), uint64(answerSize), rt)
}

// queries are paid to the node only
func queryFeeData(bpt, resultSize, sbpr uint64, rt types.ResponseType) types.FeeData {
	bpr := BasicQueryResHeader + stateProofSize(rt) + resultSize
	return types.FeeData{
		Nodedata: types.FeeComponents{
			Constant: 1,
			Bpt:      bpt,
			Bpr:      bpr,
			Sbpr:     sbpr,
		},
	}
}

func stateProofSize(rt types.ResponseType) uint64 {
	if rt == types.AnswerStateProof || rt == types.CostAnswerStateProof {
		return StateProofSize
	}
	return 0
}

// byteHours rounds up
func byteHours(bytes, seconds uint64) uint64 {
	if bytes == 0 || seconds == 0 {
		return 0
	}
	v := new(uint256.Int).Mul(uint256.NewInt(bytes), uint256.NewInt(seconds))
	v.Add(v, uint256.NewInt(hour-1))
	return saturate(v.Div(v, uint256.NewInt(hour)))
}
