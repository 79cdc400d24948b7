// Package config holds the constants the replication agent reads rather
// than hardcodes, per spec.md §6: TTLInfinite (re-exported from kvstore
// for callers that only import config), advertisement pacing, and the
// ttl timer ceiling.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kvmesh/kvclient/kvstore"
)

// Config is the shared tuning surface for one Agent. Zero-value fields
// other than SweepPeriod are rejected by Validate; callers should start
// from Default() and
// override only what they need.
type Config struct {
	// NodeId is this node's originator id. Must be non-empty - an empty
	// NodeId is a programmer error per spec.md §7.4.
	NodeId string

	// InitialBackoff is the starting delay for the advertisement
	// backoff tracker.
	InitialBackoff time.Duration
	// MaxBackoff caps the advertisement backoff tracker, and is also the
	// default re-arm delay for the advertise timer when dirty is empty.
	MaxBackoff time.Duration
	// MaxTTLUpdateInterval ceilings the ttl timer's re-arm delay.
	MaxTTLUpdateInterval time.Duration
	// SweepPeriod is the configured period of the sweep engine's timer.
	// Zero disables the sweep engine.
	SweepPeriod time.Duration
}

// TTLInfinite re-exports kvstore.TTLInfinite so callers of config don't
// need to import kvstore just for the sentinel.
const TTLInfinite = kvstore.TTLInfinite

// Default returns sane defaults matching the donor's own backoff
// constants in scale (hundreds of ms initial, tens of seconds max).
func Default(nodeId string) Config {
	return Config{
		NodeId:                nodeId,
		InitialBackoff:        100 * time.Millisecond,
		MaxBackoff:            60 * time.Second,
		MaxTTLUpdateInterval:  2500 * time.Millisecond,
		SweepPeriod:           25 * time.Second,
	}
}

// Validate fails loudly on precondition violations per spec.md §7.4.
func (c Config) Validate() error {
	if strings.TrimSpace(c.NodeId) == "" {
		return fmt.Errorf("config: NodeId must not be empty")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("config: InitialBackoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("config: MaxBackoff must be >= InitialBackoff")
	}
	if c.MaxTTLUpdateInterval <= 0 {
		return fmt.Errorf("config: MaxTTLUpdateInterval must be positive")
	}
	return nil
}

// String renders the configuration the way the donor's ServerConfig/
// ClientConfig pretty-printers do, with a strings.Builder and
// addSection/addField helpers.
func (c Config) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Identity")
	addField("Node Id", c.NodeId)

	addSection("Backoff")
	addField("Initial", c.InitialBackoff.String())
	addField("Max", c.MaxBackoff.String())

	addSection("TTL")
	addField("Max Update Interval", c.MaxTTLUpdateInterval.String())

	addSection("Sweep")
	if c.SweepPeriod <= 0 {
		addField("Period", "disabled")
	} else {
		addField("Period", c.SweepPeriod.String())
	}

	return sb.String()
}
