// Package kvstore defines the data model and external store contract shared
// between the replication agent and whatever replicated key-value store it
// talks to. It declares types only; no implementation lives here.
//
// The replicated store itself, any network/serialization framing and the
// routing/prefix-management applications that call the agent are external
// collaborators - see the Client interface below for the exact boundary.
package kvstore
