package rpc

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/alphabill-org/admission/observability"
	"github.com/alphabill-org/admission/types"
)

const MetricsScopeGRPCAPI = "grpc_api"

type (
	grpcServer struct {
		svc   contractService
		txCnt metric.Int64Counter
	}

	// contractService is the admission service the gRPC methods are
	// dispatched to.
	contractService interface {
		CreateContract(ctx context.Context, tx *types.Transaction) (types.TransactionResponse, error)
		CallContract(ctx context.Context, tx *types.Transaction) (types.TransactionResponse, error)
		UpdateContract(ctx context.Context, tx *types.Transaction) (types.TransactionResponse, error)
		DeleteContract(ctx context.Context, tx *types.Transaction) (types.TransactionResponse, error)
		SystemDelete(ctx context.Context, tx *types.Transaction) (types.TransactionResponse, error)
		SystemUndelete(ctx context.Context, tx *types.Transaction) (types.TransactionResponse, error)
		ContractCallLocal(ctx context.Context, q *types.Query) (*types.Response, error)
		GetContractInfo(ctx context.Context, q *types.Query) (*types.Response, error)
		GetContractBytecode(ctx context.Context, q *types.Query) (*types.Response, error)
		GetContractRecords(ctx context.Context, q *types.Query) (*types.Response, error)
		GetBySolidityID(ctx context.Context, q *types.Query) (*types.Response, error)
	}

	Metrics interface {
		Meter(name string, opts ...metric.MeterOption) metric.Meter
	}
)

func NewGRPCServer(svc contractService, obs Metrics) (*grpcServer, error) {
	if svc == nil {
		return nil, errors.New("admission service which implements the methods must be assigned")
	}

	mtr := obs.Meter(MetricsScopeGRPCAPI)
	txCnt, err := mtr.Int64Counter("tx.count", metric.WithUnit("{transaction}"), metric.WithDescription("Number of transactions received"))
	if err != nil {
		return nil, fmt.Errorf("creating tx.count metric: %w", err)
	}

	return &grpcServer{svc: svc, txCnt: txCnt}, nil
}

func (r *grpcServer) CreateContract(ctx context.Context, tx *types.Transaction) (*types.TransactionResponse, error) {
	return r.transaction(ctx, types.ContractCreate, tx, r.svc.CreateContract)
}

func (r *grpcServer) ContractCallMethod(ctx context.Context, tx *types.Transaction) (*types.TransactionResponse, error) {
	return r.transaction(ctx, types.ContractCall, tx, r.svc.CallContract)
}

func (r *grpcServer) UpdateContract(ctx context.Context, tx *types.Transaction) (*types.TransactionResponse, error) {
	return r.transaction(ctx, types.ContractUpdate, tx, r.svc.UpdateContract)
}

func (r *grpcServer) DeleteContract(ctx context.Context, tx *types.Transaction) (*types.TransactionResponse, error) {
	return r.transaction(ctx, types.ContractDelete, tx, r.svc.DeleteContract)
}

func (r *grpcServer) SystemDelete(ctx context.Context, tx *types.Transaction) (*types.TransactionResponse, error) {
	return r.transaction(ctx, types.SystemDelete, tx, r.svc.SystemDelete)
}

func (r *grpcServer) SystemUndelete(ctx context.Context, tx *types.Transaction) (*types.TransactionResponse, error) {
	return r.transaction(ctx, types.SystemUndelete, tx, r.svc.SystemUndelete)
}

func (r *grpcServer) ContractCallLocalMethod(ctx context.Context, q *types.Query) (*types.Response, error) {
	return query(r.svc.ContractCallLocal(ctx, q))
}

func (r *grpcServer) GetContractInfo(ctx context.Context, q *types.Query) (*types.Response, error) {
	return query(r.svc.GetContractInfo(ctx, q))
}

func (r *grpcServer) ContractGetBytecode(ctx context.Context, q *types.Query) (*types.Response, error) {
	return query(r.svc.GetContractBytecode(ctx, q))
}

func (r *grpcServer) GetTxRecordByContractID(ctx context.Context, q *types.Query) (*types.Response, error) {
	return query(r.svc.GetContractRecords(ctx, q))
}

func (r *grpcServer) GetBySolidityID(ctx context.Context, q *types.Query) (*types.Response, error) {
	return query(r.svc.GetBySolidityID(ctx, q))
}

func (r *grpcServer) transaction(ctx context.Context, kind types.OperationKind, tx *types.Transaction, handle func(context.Context, *types.Transaction) (types.TransactionResponse, error)) (*types.TransactionResponse, error) {
	rsp, err := handle(ctx, tx)
	if err != nil {
		r.txCnt.Add(ctx, 1, metric.WithAttributes(observability.OpKind(kind), attribute.String("status", "err.ctx")))
		return nil, grpcError(err)
	}
	r.txCnt.Add(ctx, 1, metric.WithAttributes(observability.OpKind(kind), observability.Code(rsp.NodeTransactionPrecheckCode)))
	return &rsp, nil
}

func query(rsp *types.Response, err error) (*types.Response, error) {
	if err != nil {
		return nil, grpcError(err)
	}
	return rsp, nil
}

// grpcError converts service error into gRPC status error. Domain failures
// are response codes so the service only fails when the request context is
// done.
func grpcError(err error) error {
	if s := status.FromContextError(err); s.Code() != codes.Unknown {
		return s.Err()
	}
	return status.Error(codes.Internal, err.Error())
}
