/*
main.go - Application entry point

STARTUP SEQUENCE:
  1. Read environment config, let flags override
  2. Open the SQLite store (auto-migrates)
  3. Build the engine with the deployment's policy flags
  4. Configure the HTTP router
  5. Serve with graceful shutdown on SIGINT/SIGTERM

CONFIGURATION (env, overridable by flags):
  PORT                     HTTP port (default 8080)
  DB_PATH                  SQLite path, ":memory:" for in-memory
  CANCEL_LEAVE_REQUEST     allow cancelling Requested leaves
  CANCEL_ACCEPTED_LEAVE    allow cancelling Accepted leaves
  CANCEL_PAST_REQUESTS     owner may cancel an already-started leave
  DELETE_REJECTED_REQUESTS owner may delete a Rejected request
  EDIT_REJECTED_REQUESTS   owner may edit a Rejected request
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/absentia/leave-engine/api"
	"github.com/absentia/leave-engine/engine"
	"github.com/absentia/leave-engine/store/sqlite"
)

type config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"leave.db"`

	CancelLeaveRequest     bool `env:"CANCEL_LEAVE_REQUEST" envDefault:"true"`
	CancelAcceptedLeave    bool `env:"CANCEL_ACCEPTED_LEAVE" envDefault:"false"`
	CancelPastRequests     bool `env:"CANCEL_PAST_REQUESTS" envDefault:"false"`
	DeleteRejectedRequests bool `env:"DELETE_REJECTED_REQUESTS" envDefault:"false"`
	EditRejectedRequests   bool `env:"EDIT_REJECTED_REQUESTS" envDefault:"false"`
}

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatal().Err(err).Msg("parse environment")
	}
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (\":memory:\" for in-memory)")
	flag.Parse()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", cfg.DBPath).Msg("open database")
	}
	defer store.Close()

	eng := engine.New(store, engine.ConfigFlags{
		CancelLeaveRequest:     cfg.CancelLeaveRequest,
		CancelAcceptedLeave:    cfg.CancelAcceptedLeave,
		CancelPastRequests:     cfg.CancelPastRequests,
		DeleteRejectedRequests: cfg.DeleteRejectedRequests,
		EditRejectedRequests:   cfg.EditRejectedRequests,
	})

	router := api.NewRouter(api.NewHandler(eng, log))
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
