package main

import (
	"github.com/spf13/cobra"

	"github.com/veilchat/zkregistry/server"
)

var serveCfg = server.DefaultConfig()

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the registry HTTP service",
	RunE: func(_ *cobra.Command, _ []string) error {
		return server.Run(serveCfg)
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveCfg.Addr, "addr", serveCfg.Addr, "listen address")
	f.StringVar(&serveCfg.DatabasePath, "db", serveCfg.DatabasePath, "path to the registry database")
	f.StringVar(&serveCfg.KeysDir, "keys-dir", serveCfg.KeysDir, "directory holding circuit verification keys")
	f.IntVar(&serveCfg.TreeDepth, "tree-depth", serveCfg.TreeDepth, "accumulator depth (capacity 2^depth)")
	f.DurationVar(&serveCfg.ReadTimeout, "read-timeout", serveCfg.ReadTimeout, "HTTP read timeout")
	f.DurationVar(&serveCfg.WriteTimeout, "write-timeout", serveCfg.WriteTimeout, "HTTP write timeout")
	f.DurationVar(&serveCfg.ShutdownTimeout, "shutdown-timeout", serveCfg.ShutdownTimeout, "graceful shutdown timeout")
	f.Int64Var(&serveCfg.MaxRequestSize, "max-request-size", serveCfg.MaxRequestSize, "maximum request body size in bytes")
	f.BoolVar(&serveCfg.EnableCORS, "cors", serveCfg.EnableCORS, "enable CORS")
	f.StringSliceVar(&serveCfg.CORSOrigins, "cors-origins", serveCfg.CORSOrigins, "allowed CORS origins")
	f.StringVar(&serveCfg.LogLevel, "log-level", serveCfg.LogLevel, "log level (debug, info, warn, error)")
}
