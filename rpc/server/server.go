package server

import (
	"fmt"
	"time"

	"github.com/kvmesh/kvclient/kvstore"
	"github.com/kvmesh/kvclient/memkv"
	"github.com/kvmesh/kvclient/rpc/common"
	"github.com/kvmesh/kvclient/rpc/serializer"
	"github.com/kvmesh/kvclient/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("rpc")

// rpcServer fronts a single kvstore.Client backend over a transport. The
// donor this package is grounded on ran a map of shards, each its own
// raft-replicated store or lock manager; this domain has no consensus
// group, so one server fronts exactly one store instance.
type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	adapter    IRPCServerAdapter
	store      kvstore.Client
	closeStore func() error
}

// NewRPCServer creates a new RPC server fronting store via adapter.
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewJSONSerializer(),
//		NewKvStoreServerAdapter(5*time.Second),
//		memkv.NewStore(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
	adapter IRPCServerAdapter,
	store kvstore.Client,
) *rpcServer {
	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	s := &rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		adapter:    adapter,
		store:      store,
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		s.closeStore = closer.Close
	}
	return s
}

func (s *rpcServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(shardId uint64, req []byte) []byte {
		var msg common.Message
		var respMsg common.Message

		// Decode the request
		err := s.serializer.Deserialize(req, &msg)
		if err != nil {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     fmt.Sprintf("failed to deserialize request: %s", err),
			}
		} else {
			respMsg = *s.adapter.Handle(&msg, s.store)
		}

		// Return result
		val, err := s.serializer.Serialize(respMsg)
		if err != nil {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     fmt.Sprintf("failed to serialize response: %s", err),
			}
			val, _ = s.serializer.Serialize(respMsg)
		}
		return val
	})
}

func (s *rpcServer) init() error {
	common.InitLoggers(s.config)
	s.registerTransportHandler()
	Logger.Infof("kvclient RPC server setup completed successfully")
	return nil
}

// Serve starts the RPC server. It initializes the transport handler and
// then blocks listening for incoming requests.
func (s *rpcServer) Serve() error {
	if err := s.init(); err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// Close releases the backing store's resources, if it offers any (e.g.
// memkv.Store's expiry scan goroutine and maple engine).
func (s *rpcServer) Close() error {
	if s.closeStore != nil {
		return s.closeStore()
	}
	return nil
}

// NewMemkvRPCServer is a convenience constructor wiring an in-process
// memkv.Store as the backing kvstore.Client - the common case for the
// standalone "serve" binary, where no separate store process exists.
func NewMemkvRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *rpcServer {
	timeout := time.Duration(config.TimeoutSecond) * time.Second
	return NewRPCServer(config, transport, serializer, NewKvStoreServerAdapter(timeout), memkv.NewStore())
}
