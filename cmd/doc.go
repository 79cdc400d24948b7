// Package cmd implements the command-line interface for kvclient, a
// client-side replication agent for a shared key-value store. It provides
// a hierarchical command structure with operations for running a store
// server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value operations against a remote store
//     (set, setE, setEIfUnset, get, expr, del, has) and a throughput
//     benchmarking tool
//   - serve: Commands for starting and configuring a kvclient store server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See kvclient -help for a list of all commands.
package cmd
