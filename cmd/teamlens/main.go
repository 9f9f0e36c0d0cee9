package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	ghclient "github.com/teamlens/teamlens/internal/client/github"
	"github.com/teamlens/teamlens/internal/client/jira"
	"github.com/teamlens/teamlens/internal/config"
	"github.com/teamlens/teamlens/internal/domain"
	"github.com/teamlens/teamlens/internal/repository/sqlite"
	"github.com/teamlens/teamlens/internal/service"
	myhttp "github.com/teamlens/teamlens/internal/transport/http"

	"github.com/teamlens/teamlens/pkg/logger/sl"
	"github.com/teamlens/teamlens/pkg/logger/slogpretty"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.MustLoad()
	log := slogpretty.SetupLogger(cfg.Env)

	log.Info("starting teamlens", slog.String("env", cfg.Env))

	errChan := make(chan error, 1)

	db, err := sqlite.NewDB(cfg.SQLite, log)
	if err != nil {
		return fmt.Errorf("failed to init db: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("db close failed", sl.Err(err))
		}
	}()

	prRepo := sqlite.NewPullRequestRepository(db.DB(), log)
	sprintRepo := sqlite.NewSprintRepository(db.DB(), log)
	metaRepo := sqlite.NewSyncMetadataRepository(db.DB(), log)
	memberRepo := sqlite.NewMemberStatsRepository(db.DB(), log)

	github := ghclient.New(cfg.GitHub.Token, log, cfg.Sync.CommitMaxPages, cfg.Sync.CommitPageTimeout)
	jiraClient := jira.New(cfg.Jira.BaseURL, cfg.Jira.Token, cfg.Jira.FieldChain(), log)

	syncer := service.NewSyncService(log, github, jiraClient, prRepo, sprintRepo, metaRepo, memberRepo, cfg)
	query := service.NewQueryService(log, syncer, prRepo, sprintRepo, memberRepo, cfg)

	// Warm the cache on startup without blocking readiness.
	for _, source := range domain.Sources {
		if syncer.IsStale(ctx, source) {
			log.Info("cache is stale on startup, syncing", slog.String("source", string(source)))
			syncer.TriggerBackground(source)
		}
	}

	srv := myhttp.NewServer(log, syncer, query, cfg)
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	go startServer(log, httpServer, errChan)

	select {
	case err := <-errChan:
		return fmt.Errorf("http server error: %v", err)

	case <-ctx.Done():
		log.Info("stopping server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shuting down http server: %v", err)
	}

	return nil
}

func startServer(log *slog.Logger, httpServer *http.Server, errChan chan error) {
	defer close(errChan)

	log.Info("service started", slog.String("addr", httpServer.Addr))

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		errChan <- fmt.Errorf("error listening and serving: %v", err)
	}
}
