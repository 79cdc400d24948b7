package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerTransportConfig carries the fields specific transport connectors
// (tcp, http) read off config.Transport - see rpc/transport/tcp/server.go
// and rpc/transport/http/server.go.
type ServerTransportConfig struct {
	// Endpoint is the address the transport listens on, e.g.
	// "0.0.0.0:8080" for http/tcp or a filesystem path for unix.
	Endpoint string
}

// ServerConfig holds all configuration parameters for the RPC server that
// fronts a replicated kvstore.Client backend.
type ServerConfig struct {
	// NodeId identifies this node for logging and for the replication agent
	// it fronts.
	NodeId string

	// Endpoint is the listen address. Kept flat (in addition to
	// Transport.Endpoint) because the unix connector and the base
	// transport's own logging read it directly off the top-level config,
	// while the tcp and http connectors read it off Transport - see
	// rpc/transport/{unix,tcp,http}/server.go.
	Endpoint string

	// Transport carries the fields the tcp/http server connectors need.
	Transport ServerTransportConfig

	// TimeoutSecond bounds every inbound request handed to the backend.
	TimeoutSecond int64

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("RPC Server")
	addField("Node ID", c.NodeId)
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig carries the fields the base transport (used by tcp
// and unix) reads off config.Transport - see
// rpc/transport/base/client.go and rpc/transport/tcp/client.go.
type ClientTransportConfig struct {
	Endpoints              []string
	ConnectionsPerEndpoint int
	RetryCount             int

	WriteBufferSize int
	ReadBufferSize  int
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// ClientConfig configures an RPC client. Endpoints and RetryCount are
// duplicated flat (in addition to living under Transport) because the
// http connector reads them directly off the top-level config while the
// base connector (tcp, unix) reads them off Transport - see
// rpc/transport/http/client.go vs rpc/transport/base/client.go.
type ClientConfig struct {
	Endpoints     []string
	TimeoutSecond int
	RetryCount    int

	Transport ClientTransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(c.Transport.ConnectionsPerEndpoint))

	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
