package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/alphabill-org/admission/types"
)

// Client calls the smart contract service of a remote node.
type Client struct {
	cc *grpc.ClientConn
}

// Dial creates client of the service at addr. Messages are always encoded
// with the cbor codec, transport credentials must be given in opts.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append(opts, grpc.WithDefaultCallOptions(grpc.ForceCodec(CborCodec{})))
	cc, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating client of %s: %w", addr, err)
	}
	return &Client{cc: cc}, nil
}

func (c *Client) Close() error {
	return c.cc.Close()
}

func (c *Client) CreateContract(ctx context.Context, tx *types.Transaction) (*types.TransactionResponse, error) {
	return c.transaction(ctx, "CreateContract", tx)
}

func (c *Client) CallContract(ctx context.Context, tx *types.Transaction) (*types.TransactionResponse, error) {
	return c.transaction(ctx, "ContractCallMethod", tx)
}

func (c *Client) UpdateContract(ctx context.Context, tx *types.Transaction) (*types.TransactionResponse, error) {
	return c.transaction(ctx, "UpdateContract", tx)
}

func (c *Client) DeleteContract(ctx context.Context, tx *types.Transaction) (*types.TransactionResponse, error) {
	return c.transaction(ctx, "DeleteContract", tx)
}

func (c *Client) SystemDelete(ctx context.Context, tx *types.Transaction) (*types.TransactionResponse, error) {
	return c.transaction(ctx, "SystemDelete", tx)
}

func (c *Client) SystemUndelete(ctx context.Context, tx *types.Transaction) (*types.TransactionResponse, error) {
	return c.transaction(ctx, "SystemUndelete", tx)
}

func (c *Client) ContractCallLocal(ctx context.Context, q *types.Query) (*types.Response, error) {
	return c.query(ctx, "ContractCallLocalMethod", q)
}

func (c *Client) GetContractInfo(ctx context.Context, q *types.Query) (*types.Response, error) {
	return c.query(ctx, "GetContractInfo", q)
}

func (c *Client) GetContractBytecode(ctx context.Context, q *types.Query) (*types.Response, error) {
	return c.query(ctx, "ContractGetBytecode", q)
}

func (c *Client) GetContractRecords(ctx context.Context, q *types.Query) (*types.Response, error) {
	return c.query(ctx, "GetTxRecordByContractID", q)
}

func (c *Client) GetBySolidityID(ctx context.Context, q *types.Query) (*types.Response, error) {
	return c.query(ctx, "GetBySolidityID", q)
}

func (c *Client) transaction(ctx context.Context, method string, tx *types.Transaction) (*types.TransactionResponse, error) {
	rsp := new(types.TransactionResponse)
	if err := c.cc.Invoke(ctx, fullMethod(method), tx, rsp); err != nil {
		return nil, err
	}
	return rsp, nil
}

func (c *Client) query(ctx context.Context, method string, q *types.Query) (*types.Response, error) {
	rsp := new(types.Response)
	if err := c.cc.Invoke(ctx, fullMethod(method), q, rsp); err != nil {
		return nil, err
	}
	return rsp, nil
}
