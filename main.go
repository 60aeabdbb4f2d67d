package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mpetrov/whosaid/internal/middleware"
	"github.com/mpetrov/whosaid/internal/room"
	"github.com/mpetrov/whosaid/internal/router"
	"github.com/mpetrov/whosaid/internal/server"
)

const releaseVersion = "0.1.0"

func main() {
	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

func newLogger(cfg *Config) *logrus.Logger {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.logLevel); err == nil {
		logger.SetLevel(lvl)
	}
	if cfg.logJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

func serve(ctx context.Context, cfg *Config) error {
	logger := newLogger(cfg)

	rm := room.New(room.DefaultPrompts)
	hub := server.NewHub(logger)
	rm.BroadcastFn = func(payload any) {
		hub.Broadcast(payload, uuid.Nil)
	}
	rt := router.New(rm, hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", server.HealthzHandler)
	mux.HandleFunc("/status", server.StatusHandler(rm))
	mux.HandleFunc("/qr", server.QRHandler(logger, cfg.publicURL))
	mux.HandleFunc("/ws", server.WSHandler(logger, hub, rt))

	srv := &http.Server{
		Handler:     middleware.LogMiddleware(logger)(mux),
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: websocket connections are long-lived.
	}

	l, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.bind, cfg.port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	logger.Infof("whosaid v%s listening on %s", releaseVersion, l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)

	select {
	case err := <-errc:
		logger.Errorf("failed to serve: %v", err)
		return err
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	case <-ctx.Done():
		logger.Info("terminating: context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
