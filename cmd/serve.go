package cmd

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bnema/keytap/internal/config"
	"github.com/bnema/keytap/internal/input"
	"github.com/bnema/keytap/internal/logger"
	"github.com/bnema/keytap/internal/stream"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Stream captured events to SSH clients",
	Long: `Run a listen session and stream every event to SSH clients whose key
fingerprint is whitelisted (see 'keytap config ssh').

The session command selects the format:
  ssh -p 52600 host          text lines
  ssh -p 52600 host json     JSON lines
  ssh -p 52600 host raw      length-prefixed protobuf frames`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on")
	serveCmd.Flags().StringP("bind", "b", "", "Bind address")

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.bind_address", serveCmd.Flags().Lookup("bind"))

	rootCmd.AddCommand(serveCmd)
}

// authorizer accepts whitelisted fingerprints, or any key when whitelist-only
// mode is disabled.
func authorizer(cfg *config.Config) stream.Authorizer {
	return func(fingerprint string) bool {
		if config.IsSSHKeyWhitelisted(fingerprint) {
			return true
		}
		return !cfg.Server.SSHWhitelistOnly
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	if cfg.Server.SSHWhitelistOnly && len(cfg.Server.SSHWhitelist) == 0 {
		logger.Warn("SSH whitelist is empty, no client can connect (add one with 'keytap config ssh add')")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Server.SSHHostKeyPath), 0700); err != nil {
		return fmt.Errorf("failed to create host key directory: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	hub := input.NewHub(hubSize)
	go hub.Run(ctx)

	srv := stream.NewServer(hub, stream.Options{
		Address:     net.JoinHostPort(cfg.Server.BindAddress, strconv.Itoa(cfg.Server.Port)),
		HostKeyPath: cfg.Server.SSHHostKeyPath,
		MaxClients:  cfg.Server.MaxClients,
		Authorize:   authorizer(cfg),
	})
	srv.OnClientConnected = func(addr, fingerprint string) {
		logger.Info("Client connected", "addr", addr, "key", fingerprint)
	}
	srv.OnClientDisconnected = func(addr string) {
		logger.Info("Client disconnected", "addr", addr)
	}

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start stream server: %w", err)
	}
	defer srv.Stop()

	errCh := startListen(hub)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen failed: %w", err)
		}
	case <-ctx.Done():
	}
	return nil
}
