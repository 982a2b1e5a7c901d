package cmd

import (
	"github.com/spf13/cobra"

	"github.com/alphabill-org/admission/rpc"
)

const defaultRPCServerAddr = "localhost:26866"

// addRPCServerFlags adds flags of the HTTP server serving JSON-RPC and REST endpoints.
func addRPCServerFlags(cmd *cobra.Command, c *rpc.ServerConfiguration) {
	cmd.Flags().StringVar(&c.Address, "rpc-server-address", defaultRPCServerAddr, "Specifies the TCP address for the RPC server to listen on, in the form \"host:port\". RPC server isn't initialised if Address is empty.")
	cmd.Flags().DurationVar(&c.ReadTimeout, "rpc-server-read-timeout", 0, "The maximum duration for reading the entire request, including the body. A zero or negative value means there will be no timeout.")
	cmd.Flags().DurationVar(&c.ReadHeaderTimeout, "rpc-server-read-header-timeout", 0, "The amount of time allowed to read request headers. If rpc-server-read-header-timeout is zero, the value of rpc-server-read-timeout is used. If both are zero, there is no timeout.")
	cmd.Flags().DurationVar(&c.WriteTimeout, "rpc-server-write-timeout", 0, "The maximum duration before timing out writes of the response. A zero or negative value means there will be no timeout.")
	cmd.Flags().DurationVar(&c.IdleTimeout, "rpc-server-idle-timeout", 0, "The maximum amount of time to wait for the next request when keep-alives are enabled. If rpc-server-idle-timeout is zero, the value of rpc-server-read-timeout is used. If both are zero, there is no timeout.")
	cmd.Flags().IntVar(&c.MaxHeaderBytes, "rpc-server-max-header", 0, "Controls the maximum number of bytes the server will read parsing the request header's keys and values, including the request line. A zero value means http.DefaultMaxHeaderBytes is used.")
	cmd.Flags().Int64Var(&c.MaxBodyBytes, "rpc-server-max-body", rpc.DefaultMaxBodyBytes, "The maximum request body size in bytes.")
	cmd.Flags().IntVar(&c.BatchItemLimit, "rpc-server-batch-item-limit", rpc.DefaultBatchItemLimit, "The maximum number of requests in a batch.")
	cmd.Flags().IntVar(&c.BatchResponseSizeLimit, "rpc-server-batch-response-size-limit", rpc.DefaultBatchResponseSizeLimit, "The maximum number of response bytes across all requests in a batch.")
}
