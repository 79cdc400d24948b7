// Package server implements the RPC-facing half of the client-side
// replication agent's transport: a thin handler that unmarshals incoming
// common.Message requests, dispatches them to a kvstore.Client, and
// marshals the result back.
//
// Key Components:
//
//   - IRPCServerAdapter: translates a decoded common.Message into a
//     kvstore.Client call and back into a response Message.
//
//   - NewKvStoreServerAdapter: the only adapter this package ships -
//     handles MsgTKVGet, MsgTKVDump and MsgTKVSet against any
//     kvstore.Client (in-process memkv.Store or another rpcClient).
//
//   - NewRPCServer / NewMemkvRPCServer: wires an adapter, a store and a
//     transport.IRPCServerTransport together and exposes Serve/Close.
//
// Usage Example:
//
//	s := server.NewMemkvRPCServer(
//		config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//	defer s.Close()
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
//
// Thread Safety:
//
//	The handler registered with the transport is invoked concurrently by
//	the transport's own connection-handling goroutines. kvstore.Client
//	implementations are required to be safe for concurrent use; memkv.Store
//	and rpcClient both satisfy this.
package server
