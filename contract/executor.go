package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alphabill-org/admission/logger"
	"github.com/alphabill-org/admission/state"
	"github.com/alphabill-org/admission/types"
)

const (
	// CallGas is the gas charged for any call which reaches the contract.
	CallGas = 100
	// ResultByteGas is charged per byte of the returned value.
	ResultByteGas = 3
)

/*
Executor runs local (read-only) contract calls against the entity store.

Contracts do not run bytecode here: the value a function returns for given
parameters is looked up from the contract storage, keyed by the hex encoded
function parameters. Execution never modifies the store.
*/
type Executor struct {
	state state.Reader
	log   *slog.Logger
}

func NewExecutor(s state.Reader, log *slog.Logger) *Executor {
	return &Executor{state: s, log: log}
}

/*
CallLocal executes the call described by the query. Failures of the call
itself (unknown contract, not enough gas, result too large) are reported by
the response code in the header of the returned response, error is returned
only when the call could not be executed at all.
*/
func (e *Executor) CallLocal(ctx context.Context, q *types.ContractCallLocalQuery) (*types.ContractCallLocalResponse, error) {
	if q == nil {
		return nil, errors.New("query is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hdr := types.ResponseHeader{NodeTransactionPrecheckCode: types.OK}
	if q.Header != nil {
		hdr.ResponseType = q.Header.ResponseType
	}
	respond := func(code types.ResponseCode, res *types.ContractFunctionResult) *types.ContractCallLocalResponse {
		hdr.NodeTransactionPrecheckCode = code
		return &types.ContractCallLocalResponse{Header: hdr, FunctionResult: res}
	}

	if q.ContractID == nil {
		return respond(types.InvalidContractID, nil), nil
	}
	c, err := e.state.Contract(*q.ContractID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return respond(types.InvalidContractID, nil), nil
		}
		return nil, fmt.Errorf("loading contract: %w", err)
	}
	if c.Deleted {
		return respond(types.ContractDeleted, nil), nil
	}

	result := &types.ContractFunctionResult{ContractID: c.ID}
	if q.Gas < CallGas {
		result.GasUsed = q.Gas
		result.ErrorMessage = "out of gas"
		return respond(types.InsufficientGas, result), nil
	}
	key := state.StorageKey(q.FunctionParameters)
	value, ok := c.Storage[key]
	if !ok {
		e.log.DebugContext(ctx, fmt.Sprintf("contract %s has no function for parameters %s", c.ID, key))
		result.GasUsed = CallGas
		result.ErrorMessage = fmt.Sprintf("no function for parameters %s", key)
		return respond(types.ContractExecutionException, result), nil
	}
	gasUsed := CallGas + ResultByteGas*uint64(len(value))
	if gasUsed > q.Gas {
		result.GasUsed = q.Gas
		result.ErrorMessage = "out of gas"
		return respond(types.InsufficientGas, result), nil
	}
	result.GasUsed = gasUsed
	if q.MaxResultSize > 0 && uint64(len(value)) > q.MaxResultSize {
		e.log.DebugContext(ctx, "call result exceeds size limit", logger.Data(map[string]uint64{"size": uint64(len(value)), "limit": q.MaxResultSize}))
		return respond(types.ResultSizeLimitExceeded, result), nil
	}
	result.ContractCallResult = value
	return respond(types.OK, result), nil
}
