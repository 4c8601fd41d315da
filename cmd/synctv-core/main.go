// If you are AI: This is the main entrypoint for the synctv-core server.
// It handles configuration loading, server startup, and graceful shutdown.

package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/synctv-org/synctv-core/internal/config"
	"github.com/synctv-org/synctv-core/internal/server"
)

// main is the entrypoint for the synctv-core server. It loads
// configuration, constructs every cluster subsystem, starts listening, and
// blocks until a termination signal drains everything cleanly.
func main() {
	configPath := flag.String("config", "configs/synctv-core.example.yaml", "Path to configuration file")
	devLog := flag.Bool("dev", false, "Use a human-readable development logger instead of JSON production logging")
	flag.Parse()

	log := newLogger(*devLog)
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalw("load config", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid config", "error", err)
	}

	srv, err := server.New(cfg, log)
	if err != nil {
		log.Fatalw("construct server", "error", err)
	}

	shutdownHandler := server.NewShutdownHandler(srv, context.Background())

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Errorw("server error", "error", err)
			os.Exit(1)
		}
	}()

	if err := shutdownHandler.Wait(); err != nil {
		log.Errorw("shutdown error", "error", err)
		os.Exit(1)
	}
	log.Info("server shut down cleanly")
}

// newLogger builds a production (JSON) or development (human-readable)
// zap logger depending on dev, and panics if zap itself fails to build one.
func newLogger(dev bool) *zap.SugaredLogger {
	var l *zap.Logger
	var err error
	if dev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return l.Sugar()
}
