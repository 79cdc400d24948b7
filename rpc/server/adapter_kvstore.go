package server

import (
	"context"
	"fmt"
	"time"

	"github.com/kvmesh/kvclient/kvstore"
	"github.com/kvmesh/kvclient/rpc/common"
)

// NewKvStoreServerAdapter creates an adapter dispatching RPC messages
// against a kvstore.Client backend, bounding each call with timeout.
func NewKvStoreServerAdapter(timeout time.Duration) IRPCServerAdapter {
	return &kvStoreServerAdapterImpl{timeout: timeout}
}

type kvStoreServerAdapterImpl struct {
	timeout time.Duration
}

func (adapter *kvStoreServerAdapterImpl) Handle(req *common.Message, store kvstore.Client) *common.Message {
	if store == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	ctx := context.Background()
	if adapter.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, adapter.timeout)
		defer cancel()
	}

	switch req.MsgType {
	case common.MsgTKVGet:
		pub, err := store.Get(ctx, req.Area, req.Keys)
		return common.NewGetResponse(pub, err)
	case common.MsgTKVDump:
		pubs, err := store.Dump(ctx, []kvstore.AreaId{req.Area}, kvstore.DumpParams{Prefix: req.Prefix, Keys: req.Keys})
		if err != nil {
			return common.NewErrorResponse(err.Error())
		}
		if len(pubs) == 0 {
			return common.NewDumpResponse(kvstore.Publication{Area: req.Area}, nil)
		}
		return common.NewDumpResponse(pubs[0], nil)
	case common.MsgTKVSet:
		err := store.Set(ctx, req.Area, req.KeyVals)
		return common.NewSetResponse(err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("rpc: unsupported message type: %s", req.MsgType),
		)
	}
}

type MessageHandler func(req *common.Message) (resp *common.Message)

type RegisterMessageHandler func(handler MessageHandler)
