package server

import (
	"github.com/kvmesh/kvclient/kvstore"
	"github.com/kvmesh/kvclient/rpc/common"
)

// IRPCServerAdapter is the interface for the RPC server adapter
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response
	// It takes a Message and a backing kvstore.Client as parameters.
	// It returns a Message as a response
	// If an error occurs, it should be set in the response
	Handle(req *common.Message, store kvstore.Client) (resp *common.Message)
}
