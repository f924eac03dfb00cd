// Package server exposes the membership registry's four operations over
// HTTP: register a commitment, fetch a leaf's Merkle path, read the
// current root, and verify a membership proof. The wider platform
// surface (messaging, presence, federation) lives elsewhere and calls
// into the same registry.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/veilchat/zkregistry/cache"
	"github.com/veilchat/zkregistry/loaders"
	"github.com/veilchat/zkregistry/logger"
	"github.com/veilchat/zkregistry/merkle"
	"github.com/veilchat/zkregistry/nullifier"
	"github.com/veilchat/zkregistry/registry"
	"github.com/veilchat/zkregistry/storage"
)

// Server wires the registry behind HTTP handlers.
type Server struct {
	cfg   *Config
	reg   *registry.Registry
	keys  loaders.VerificationKeyLoader
	roots *cache.Cache[registry.RootInfo]
	log   zerolog.Logger
}

// rootCacheKey is the single key under which the current root snapshot
// is cached between registrations.
const rootCacheKey = "active"

// NewServer builds a server around an already-constructed registry.
func NewServer(cfg *Config, reg *registry.Registry, keys loaders.VerificationKeyLoader) *Server {
	return &Server{
		cfg:   cfg,
		reg:   reg,
		keys:  keys,
		roots: cache.New[registry.RootInfo](4, time.Second),
		log:   logger.Logger().With().Str("component", "server").Logger(),
	}
}

// Run opens the durable store, restores the accumulator, and serves
// until SIGINT/SIGTERM.
func Run(cfg *Config) error {
	if err := cfg.validate(); err != nil {
		return errors.WithMessage(err, "invalid configuration")
	}
	logger.SetLevel(cfg.LogLevel)
	log := logger.Logger()

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	tree, err := merkle.Restore(context.Background(), store, cfg.TreeDepth)
	if err != nil {
		return errors.WithMessage(err, "restore accumulator")
	}
	log.Info().
		Uint64("leaves", tree.LeafCount()).
		Int("depth", tree.Depth()).
		Msg("accumulator restored")

	reg := registry.New(tree, store, nullifier.NewRegistry(store))
	keys := loaders.NewCachedKeyLoader(loaders.FSKeyLoader{Dir: cfg.KeysDir})
	srv := NewServer(cfg, reg, keys)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("registry listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
