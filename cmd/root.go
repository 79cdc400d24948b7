package cmd

import (
	"fmt"
	"os"

	"github.com/kvmesh/kvclient/cmd/kv"
	"github.com/kvmesh/kvclient/cmd/serve"
	"github.com/kvmesh/kvclient/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvclient",
		Short: "node-local replication agent for a shared key-value store",
		Long: fmt.Sprintf(`kvclient (v%s)

A client-side replication agent: keeps a local cache of keys in sync with
a remote key-value store, resolving conflicts by version, refreshing TTLs,
and dispatching updates to subscribers.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvclient",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kvclient v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
