package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelvari/groupsync/internal/config"
	"github.com/kelvari/groupsync/internal/database"
	"github.com/kelvari/groupsync/internal/gateway"
	"github.com/kelvari/groupsync/internal/group"
	"github.com/kelvari/groupsync/internal/groupstore"
	"github.com/kelvari/groupsync/internal/logger"
)

func main() {
	log := logger.NewLogger("scened")
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store group.Store
	switch cfg.DBDriver {
	case "memory":
		store = groupstore.NewMemory()
	default:
		db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			log.Fatal("open database", "driver", cfg.DBDriver, "error", err)
		}
		defer db.Close()

		sqlStore := groupstore.NewSQL(db, groupstore.Dialect(cfg.DBDriver))
		if err := sqlStore.Bootstrap(ctx); err != nil {
			log.Fatal("bootstrap schema", "error", err)
		}
		store = sqlStore
	}

	hub := gateway.NewHub(log)
	ledger := group.NewInviteLedger()
	party := group.NewEngine(group.PartyPolicy(cfg.MaxPartySize), store, hub, ledger, log)
	guild := group.NewEngine(group.GuildPolicy(cfg.MaxGuildSize, cfg.MaxGuildNameLength), store, hub, ledger, log)

	runner := group.NewRunner(log, cfg.PumpInterval, party, guild)
	go runner.Run(ctx)

	handler := gateway.NewHandler(hub, runner, log, cfg.JWTSecret)
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handler.Routes(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("scene server listening", "addr", cfg.ListenAddr, "driver", cfg.DBDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("serve", "error", err)
	}
}
