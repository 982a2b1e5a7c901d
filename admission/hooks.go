package admission

import (
	"context"

	"github.com/alphabill-org/admission/precheck"
	"github.com/alphabill-org/admission/types"
)

// txHooks are the kind specific checks of a transaction which has passed the
// precheck. Nil hook means there is nothing to check.
type txHooks struct {
	// target returns the contract which must exist and not be deleted.
	target func(*types.TransactionBody) *types.ContractID
	// autoRenew returns the auto renew period to check and false when the
	// transaction doesn't set it.
	autoRenew func(*types.TransactionBody) (types.Duration, bool)
}

func transactionHooks() map[types.OperationKind]txHooks {
	return map[types.OperationKind]txHooks{
		types.ContractCreate: {
			autoRenew: func(b *types.TransactionBody) (types.Duration, bool) {
				// unset period is zero seconds and fails the check
				if p := b.ContractCreateInstance.AutoRenewPeriod; p != nil {
					return *p, true
				}
				return types.Duration{}, true
			},
		},
		types.ContractCall: {
			target: func(b *types.TransactionBody) *types.ContractID { return b.ContractCall.ContractID },
		},
		types.ContractUpdate: {
			target: func(b *types.TransactionBody) *types.ContractID { return b.ContractUpdateInstance.ContractID },
			autoRenew: func(b *types.TransactionBody) (types.Duration, bool) {
				if p := b.ContractUpdateInstance.AutoRenewPeriod; p != nil {
					return *p, true
				}
				return types.Duration{}, false
			},
		},
		types.ContractDelete: {
			target: func(b *types.TransactionBody) *types.ContractID { return b.ContractDeleteInstance.ContractID },
		},
		// system delete and undelete are checked by the precheck only, the
		// target of undelete is a deleted contract
		types.SystemDelete:   {},
		types.SystemUndelete: {},
	}
}

func (h txHooks) check(ctx context.Context, v Validator, cfg Config, body *types.TransactionBody) types.ResponseCode {
	if h.target != nil {
		if code := v.ValidateContractExistence(ctx, h.target(body)); code != types.OK {
			return code
		}
	}
	if h.autoRenew != nil {
		if d, ok := h.autoRenew(body); ok {
			return precheck.CheckAutoRenewDuration(d, cfg.MinAutoRenew, cfg.MaxAutoRenew)
		}
	}
	return types.OK
}
