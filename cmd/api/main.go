package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/koperasichain/backend/internal/blockchain"
	"github.com/koperasichain/backend/internal/config"
	"github.com/koperasichain/backend/internal/domain/member"
	"github.com/koperasichain/backend/internal/events"
	"github.com/koperasichain/backend/internal/http/handlers"
	"github.com/koperasichain/backend/internal/ledger"
	"github.com/koperasichain/backend/internal/observability"
	"github.com/koperasichain/backend/internal/server"
	"github.com/koperasichain/backend/internal/session"
	"github.com/koperasichain/backend/internal/tx"
	"github.com/koperasichain/backend/internal/ws"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env)

	rpc, err := blockchain.NewClient(cfg.ChainHTTPRPC)
	if err != nil {
		logger.Error("failed to create rpc client", "err", err)
		os.Exit(1)
	}

	reader, err := ledger.NewReader(rpc, cfg.CooperativeContract, cfg.TokenContract)
	if err != nil {
		logger.Error("failed to create ledger reader", "err", err)
		os.Exit(1)
	}
	writer, err := ledger.NewWriterFromConfig(cfg, rpc)
	if err != nil {
		logger.Error("failed to create ledger writer", "err", err)
		os.Exit(1)
	}
	confirmer := ledger.NewConfirmer(rpc, cfg.ConfirmPatience, cfg.ConfirmPollInterval)

	engine, err := events.NewEngine(rpc, reader, cfg.CooperativeContract, logger)
	if err != nil {
		logger.Error("failed to create event engine", "err", err)
		os.Exit(1)
	}
	accountService := member.NewService(reader, engine, logger)

	registry := session.NewRegistry()
	hub := ws.NewHub()
	notifier := ws.NewNotifier(hub)
	refresher := session.NewRefresher(registry, accountService, notifier, logger)

	orchestrator := tx.NewOrchestrator(reader, writer, confirmer, refresher, reader.CooperativeAddress(), logger)

	sessionHandler := handlers.NewSessionHandler(registry, refresher, engine, reader, cfg.TokenDecimals)
	actionsHandler := handlers.NewActionsHandler(registry, orchestrator, writer, reader, cfg.TokenDecimals, cfg.DevFaucet, cfg.ChainFromAddress)

	r := server.NewRouter(cfg, logger, server.Dependencies{
		Pinger:         rpc,
		SessionHandler: sessionHandler,
		ActionsHandler: actionsHandler,
		WSHandler:      ws.NewHandler(hub),
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api server starting", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	logger.Info("api server stopped")
}
