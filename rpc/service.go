package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/alphabill-org/admission/types"
)

const serviceName = "admission.v1.SmartContractService"

// SmartContractServer is the server side of the smart contract gRPC service.
type SmartContractServer interface {
	CreateContract(context.Context, *types.Transaction) (*types.TransactionResponse, error)
	ContractCallMethod(context.Context, *types.Transaction) (*types.TransactionResponse, error)
	UpdateContract(context.Context, *types.Transaction) (*types.TransactionResponse, error)
	DeleteContract(context.Context, *types.Transaction) (*types.TransactionResponse, error)
	SystemDelete(context.Context, *types.Transaction) (*types.TransactionResponse, error)
	SystemUndelete(context.Context, *types.Transaction) (*types.TransactionResponse, error)
	ContractCallLocalMethod(context.Context, *types.Query) (*types.Response, error)
	GetContractInfo(context.Context, *types.Query) (*types.Response, error)
	ContractGetBytecode(context.Context, *types.Query) (*types.Response, error)
	GetTxRecordByContractID(context.Context, *types.Query) (*types.Response, error)
	GetBySolidityID(context.Context, *types.Query) (*types.Response, error)
}

func RegisterSmartContractServer(s grpc.ServiceRegistrar, srv SmartContractServer) {
	s.RegisterService(&serviceDesc, srv)
}

func fullMethod(method string) string {
	return fmt.Sprintf("/%s/%s", serviceName, method)
}

// transactionHandler builds handler of the method which takes a transaction.
func transactionHandler(method string, call func(SmartContractServer, context.Context, *types.Transaction) (*types.TransactionResponse, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(types.Transaction)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SmartContractServer), ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(SmartContractServer), ctx, req.(*types.Transaction))
			})
		},
	}
}

// queryHandler builds handler of the method which takes a query.
func queryHandler(method string, call func(SmartContractServer, context.Context, *types.Query) (*types.Response, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(types.Query)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SmartContractServer), ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(SmartContractServer), ctx, req.(*types.Query))
			})
		},
	}
}

// serviceDesc is the hand written descriptor of the service, messages are
// encoded with the cbor codec so there is no generated code.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SmartContractServer)(nil),
	Methods: []grpc.MethodDesc{
		transactionHandler("CreateContract", SmartContractServer.CreateContract),
		transactionHandler("ContractCallMethod", SmartContractServer.ContractCallMethod),
		transactionHandler("UpdateContract", SmartContractServer.UpdateContract),
		transactionHandler("DeleteContract", SmartContractServer.DeleteContract),
		transactionHandler("SystemDelete", SmartContractServer.SystemDelete),
		transactionHandler("SystemUndelete", SmartContractServer.SystemUndelete),
		queryHandler("ContractCallLocalMethod", SmartContractServer.ContractCallLocalMethod),
		queryHandler("GetContractInfo", SmartContractServer.GetContractInfo),
		queryHandler("ContractGetBytecode", SmartContractServer.ContractGetBytecode),
		queryHandler("GetTxRecordByContractID", SmartContractServer.GetTxRecordByContractID),
		queryHandler("GetBySolidityID", SmartContractServer.GetBySolidityID),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "admission/v1/smart_contract_service.cbor",
}
