/*
Copyright 2024 BattleLink Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/Shoaibashk/BattleLink/config"
	"github.com/Shoaibashk/BattleLink/internal/api"
	"github.com/Shoaibashk/BattleLink/internal/bridge"
	"github.com/Shoaibashk/BattleLink/internal/game"
	"github.com/Shoaibashk/BattleLink/internal/serial"
	"github.com/Shoaibashk/BattleLink/service"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the headless bridge agent",
	Long: `Run the BattleLink bridge agent.

The agent opens the controller's serial port, decodes its messages into game
state and exposes that state to remote displays over gRPC and, when enabled,
WebSocket. Remote clients can send operator commands back to the controller.

If the port cannot be opened the agent keeps running without a controller;
every command is then rejected.

Example:
  battlelink serve
  battlelink serve --config /etc/battlelink/bridge.yaml
  battlelink serve --device /dev/ttyACM0 --address 0.0.0.0:50061 --websocket`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	addBridgeFlags(serveCmd)
	serveCmd.Flags().String("address", "", "gRPC server address (overrides config)")
	serveCmd.Flags().Bool("websocket", false, "enable the WebSocket endpoint")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("address"); addr != "" {
		cfg.Server.GRPCAddress = addr
	}
	if ws, _ := cmd.Flags().GetBool("websocket"); ws {
		cfg.Server.WebSocketEnabled = true
	}

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	return service.Run(cfg.Service.Name, func(ctx context.Context) error {
		return runAgent(ctx, cfg, logger)
	})
}

func runAgent(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	logger.Info().
		Str("device", cfg.Serial.Device).
		Bool("grpc", cfg.Server.GRPCEnabled).
		Bool("websocket", cfg.Server.WebSocketEnabled).
		Bool("tls", cfg.TLS.Enabled).
		Msg("starting BattleLink agent")

	state := game.NewState()
	events := api.NewEventHandler()

	b, scanner, err := newBridge(cfg, bridge.MultiHandler{state, events}, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if err := b.Open(gctx); err != nil {
		logger.Warn().Err(err).Msg("running without a controller")
	} else {
		scanner.SetActive(b.PortName(), b.SessionID())
		if err := applyDifficulty(b, cfg.Game.Difficulty); err != nil {
			logger.Warn().Err(err).Msg("controller keeps its own difficulty")
		}
	}

	if cfg.Serial.ScanInterval > 0 {
		interval := time.Duration(cfg.Serial.ScanInterval) * time.Second
		g.Go(func() error {
			scanner.Watch(gctx, interval, func(ports []serial.PortInfo) {
				_, err := serial.Detect(ports)
				logger.Info().Int("ports", len(ports)).Bool("controller_present", err == nil).Msg("serial ports changed")
			})
			return nil
		})
	}

	if cfg.Server.GRPCEnabled {
		srv := api.NewServer(b, state, cfg.Server.MaxSubscribers, logger.With().Str("component", "grpc").Logger())
		events.Add(srv)
		if err := startGRPC(gctx, g, cfg, srv, logger); err != nil {
			b.Close()
			return err
		}
	}

	if cfg.Server.WebSocketEnabled {
		hub := api.NewHub(b, state, logger.With().Str("component", "websocket").Logger())
		events.Add(hub)
		startWebSocket(gctx, g, cfg.Server.WebSocketAddress, hub, logger)
	}

	g.Go(func() error {
		return b.Run(gctx, cfg.TickInterval())
	})

	err = g.Wait()

	// Run has returned, so nothing dispatches anymore
	b.Close()
	logger.Info().Uint64("events", b.Dispatched()).Msg("agent stopped")
	return err
}

func startGRPC(ctx context.Context, g *errgroup.Group, cfg *config.Config, srv *api.Server, logger zerolog.Logger) error {
	var opts []grpc.ServerOption
	if cfg.TLS.Enabled {
		creds, err := loadTLSCredentials(cfg.TLS)
		if err != nil {
			return fmt.Errorf("failed to load TLS credentials: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	}

	grpcServer := grpc.NewServer(opts...)
	srv.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddress)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	g.Go(func() error {
		logger.Info().Str("address", cfg.Server.GRPCAddress).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("gRPC server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		srv.Close()
		grpcServer.GracefulStop()
		return nil
	})
	return nil
}

func startWebSocket(ctx context.Context, g *errgroup.Group, addr string, hub *api.Hub, logger zerolog.Logger) {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           hub.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info().Str("address", addr).Msg("WebSocket server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("WebSocket server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
}

func loadTLSCredentials(cfg config.TLSConfig) (credentials.TransportCredentials, error) {
	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, err
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	// a CA file turns on client certificate checks
	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.CAFile)
		}
		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return credentials.NewTLS(tlsConfig), nil
}
