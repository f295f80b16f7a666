package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/campuslink/campus-chat/internal/api"
	"github.com/campuslink/campus-chat/internal/config"
	"github.com/campuslink/campus-chat/internal/database"
	"github.com/campuslink/campus-chat/internal/server"
	"github.com/campuslink/campus-chat/internal/stats"
)

var (
	configFile string
	migrateUp  bool
)

func main() {
	flag.StringVar(&configFile, "config", "", "path to config file (optional, env vars apply either way)")
	flag.BoolVar(&migrateUp, "migrate", true, "apply schema migrations at startup")
	flag.Parse()

	logger := log.New(os.Stderr, "[campus-chat] ", log.LstdFlags)

	cfg, err := config.Load(configFile)
	if err != nil {
		logger.Fatal("config: ", err)
	}

	dbConn, err := database.NewPgCampusChatRepository(cfg.DatabaseDSN, cfg.QueryTimeout)
	if err != nil {
		logger.Fatal("db open: ", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Println("db close:", err)
		}
	}()

	if migrateUp {
		if err := dbConn.ApplyMigrations(); err != nil {
			logger.Fatal("migrate: ", err)
		}
	}

	var mirror *server.RedisPresenceMirror
	if cfg.RedisAddr != "" {
		mirror = server.NewRedisPresenceMirror(cfg.RedisAddr, cfg.PresenceTTL, logger)
		defer mirror.Close()
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	campusServer, err := server.NewCampusServer(logger, dbConn, statsUpdater, mirror)
	if err != nil {
		logger.Fatal("new campus server: ", err)
	}

	srv := api.NewCampusChatApp(mux, logger, campusServer, dbConn, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go campusServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	if err := campusServer.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("campus server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
