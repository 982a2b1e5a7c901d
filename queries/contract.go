package queries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alphabill-org/admission/fees"
	"github.com/alphabill-org/admission/logger"
	"github.com/alphabill-org/admission/state"
	"github.com/alphabill-org/admission/types"
)

// size of a transaction record without the variable length parts
const recordSize = fees.TxIDSize + fees.LongSize + fees.IntSize + fees.LongSize + fees.IntSize

// contractAnswer is the common part of the answers about a single contract.
type contractAnswer struct {
	state state.Reader
	log   *slog.Logger
}

func (a contractAnswer) contract(ctx context.Context, q *types.Query) (*state.Contract, types.ResponseCode) {
	id := q.TargetContract()
	if id == nil || !id.IsValid() {
		return nil, types.InvalidContractID
	}
	c, err := a.state.Contract(*id)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, types.InvalidContractID
		}
		a.log.WarnContext(ctx, fmt.Sprintf("loading contract %s", id), logger.Error(err))
		return nil, types.InvalidTransaction
	}
	if c.Deleted {
		return nil, types.ContractDeleted
	}
	return c, types.OK
}

func (a contractAnswer) CheckValidity(ctx context.Context, q *types.Query) types.ResponseCode {
	_, code := a.contract(ctx, q)
	return code
}

// GetInfoAnswer answers ContractGetInfo queries.
type GetInfoAnswer struct{ contractAnswer }

func NewGetInfoAnswer(s state.Reader, log *slog.Logger) *GetInfoAnswer {
	return &GetInfoAnswer{contractAnswer{state: s, log: log}}
}

func (a *GetInfoAnswer) UsageGiven(ctx context.Context, q *types.Query) (types.FeeData, error) {
	c, code := a.contract(ctx, q)
	if code != types.OK {
		return types.FeeData{}, fmt.Errorf("contract not available: %s", code)
	}
	return fees.QueryUsage(fees.ContractInfoSize+len(c.AdminKey)+len(c.Memo), q.ResponseType()), nil
}

func (a *GetInfoAnswer) Response(ctx context.Context, q *types.Query, hdr types.ResponseHeader) *types.Response {
	c, code := a.contract(ctx, q)
	if code != types.OK {
		hdr.NodeTransactionPrecheckCode = code
		return types.HeaderOnlyResponse(types.ContractGetInfo, hdr)
	}
	return &types.Response{ContractGetInfo: &types.ContractGetInfoResponse{Header: hdr, ContractInfo: c.Info()}}
}

// GetBytecodeAnswer answers ContractGetBytecode queries.
type GetBytecodeAnswer struct{ contractAnswer }

func NewGetBytecodeAnswer(s state.Reader, log *slog.Logger) *GetBytecodeAnswer {
	return &GetBytecodeAnswer{contractAnswer{state: s, log: log}}
}

func (a *GetBytecodeAnswer) UsageGiven(ctx context.Context, q *types.Query) (types.FeeData, error) {
	c, code := a.contract(ctx, q)
	if code != types.OK {
		return types.FeeData{}, fmt.Errorf("contract not available: %s", code)
	}
	return fees.QueryUsage(len(c.Bytecode), q.ResponseType()), nil
}

func (a *GetBytecodeAnswer) Response(ctx context.Context, q *types.Query, hdr types.ResponseHeader) *types.Response {
	c, code := a.contract(ctx, q)
	if code != types.OK {
		hdr.NodeTransactionPrecheckCode = code
		return types.HeaderOnlyResponse(types.ContractGetBytecode, hdr)
	}
	return &types.Response{ContractGetBytecode: &types.ContractGetBytecodeResponse{Header: hdr, Bytecode: c.Bytecode}}
}

// GetRecordsAnswer answers ContractGetRecords queries.
type GetRecordsAnswer struct{ contractAnswer }

func NewGetRecordsAnswer(s state.Reader, log *slog.Logger) *GetRecordsAnswer {
	return &GetRecordsAnswer{contractAnswer{state: s, log: log}}
}

func (a *GetRecordsAnswer) UsageGiven(ctx context.Context, q *types.Query) (types.FeeData, error) {
	c, code := a.contract(ctx, q)
	if code != types.OK {
		return types.FeeData{}, fmt.Errorf("contract not available: %s", code)
	}
	recs, err := a.state.ContractRecords(c.ID)
	if err != nil {
		return types.FeeData{}, fmt.Errorf("loading records: %w", err)
	}
	return fees.QueryUsage(recordsSize(recs), q.ResponseType()), nil
}

func (a *GetRecordsAnswer) Response(ctx context.Context, q *types.Query, hdr types.ResponseHeader) *types.Response {
	c, code := a.contract(ctx, q)
	if code == types.OK {
		recs, err := a.state.ContractRecords(c.ID)
		if err == nil {
			return &types.Response{ContractGetRecords: &types.ContractGetRecordsResponse{Header: hdr, ContractID: &c.ID, Records: recs}}
		}
		a.log.WarnContext(ctx, "loading records", logger.Error(err))
		code = types.InvalidTransaction
	}
	hdr.NodeTransactionPrecheckCode = code
	return types.HeaderOnlyResponse(types.ContractGetRecords, hdr)
}

func recordsSize(recs []types.TransactionRecord) int {
	size := 0
	for _, r := range recs {
		size += recordSize + len(r.Memo)
		if r.CallResult != nil {
			size += fees.EntityIDSize + len(r.CallResult.ContractCallResult) + len(r.CallResult.ErrorMessage) + fees.LongSize
		}
	}
	return size
}
