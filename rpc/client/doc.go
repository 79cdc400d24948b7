// Package client implements an RPC-backed kvstore.Client: a thin
// transport/serializer-agnostic forwarder that lets the replication
// agent (or any other kvstore.Client caller) talk to a remote store
// process instead of an in-process one such as memkv.Store.
//
// Key Components:
//
//   - NewRPCClient: factory function that creates a kvstore.Client
//     forwarding every call through the given transport and serializer.
//
// Usage Example:
//
//	conf := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:  []string{"localhost:8080"},
//	    RetryCount: 3,
//	  },
//	}
//
//	store, err := client.NewRPCClient(conf, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	if err != nil {
//	  panic(err)
//	}
//	defer store.(interface{ Close() error }).Close()
//
//	pub, _ := store.Get(ctx, "A", []string{"mykey"})
//
// Performance Considerations:
//
//   - For applications that frequently send large payloads, increasing
//     ConnectionsPerEndpoint can improve throughput by allowing parallel
//     requests.
//
//   - The choice of serializer significantly affects performance. The
//     binary serializer provides the best performance and smallest
//     payload size.
//
// Thread Safety:
//
//	rpcClient is safe for concurrent use - it has no mutable state of
//	its own beyond the transport, which is itself documented thread-safe.
package client
