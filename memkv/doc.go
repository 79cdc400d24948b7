// Package memkv is an in-process, multi-area fake of kvstore.Client,
// used both as a test double for replagent and as the backend the
// standalone "serve" binary exposes over RPC.
//
// Storage is delegated to the donor's maple KVDB engine
// (lib/db/engines/maple): each kvstore.Value is gob-encoded into
// maple's raw byte storage under a composite "area\x00key" key, and
// wall-clock milliseconds are used as maple's logical write index so
// its own expire/delete machinery provides real TTL enforcement for
// the store side of the contract, instead of memkv reimplementing
// expiry bookkeeping from scratch.
package memkv
