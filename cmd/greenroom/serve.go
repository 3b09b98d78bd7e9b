package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gigroom/greenroom/internal/api"
	"github.com/gigroom/greenroom/internal/auth"
	"github.com/gigroom/greenroom/internal/band"
	"github.com/gigroom/greenroom/internal/blob"
	"github.com/gigroom/greenroom/internal/config"
	"github.com/gigroom/greenroom/internal/member"
	"github.com/gigroom/greenroom/internal/metrics"
	"github.com/gigroom/greenroom/internal/ratelimit"
	"github.com/gigroom/greenroom/internal/setlist"
	"github.com/gigroom/greenroom/internal/show"
	"github.com/gigroom/greenroom/internal/song"
	"github.com/gigroom/greenroom/internal/user"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Greenroom server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	slog.Info("connected to database")

	m := metrics.New()
	m.RegisterDBPoolCollector(func() (total, idle, acquired int32) {
		stat := pool.Stat()
		return stat.TotalConns(), stat.IdleConns(), stat.AcquiredConns()
	})

	userStore := user.NewStore(pool)
	bandStore := band.NewStore(pool)
	memberStore := member.NewStore(pool)
	songStore := song.NewStore(pool)
	setlistStore := setlist.NewStore(pool)
	showStore := show.NewStore(pool)

	gate := band.NewGate(bandStore, memberStore)
	linker := member.NewLinker(pool, m.AddMemberLinks)

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	google := auth.NewGoogleClient(cfg.Auth.GoogleClientID, cfg.Auth.GoogleClientSecret, cfg.Auth.GoogleRedirectURL)
	authService := auth.NewService(userStore, linker, tokens)

	blobs, err := blob.NewDiskStore(cfg.Uploads.Dir)
	if err != nil {
		return err
	}

	limiter := ratelimit.New(cfg.RateLimit.Default, cfg.RateLimit.Window)

	router := api.NewRouter(api.RouterDeps{
		Users:    userStore,
		Bands:    bandStore,
		Members:  memberStore,
		Songs:    songStore,
		Setlists: setlistStore,
		Shows:    showStore,
		Gate:     gate,
		Auth:     authService,
		Tokens:   tokens,
		Google:   google,
		Blobs:    blobs,
		Limiter:  limiter,
		Metrics:  m,

		FrontendURL:    cfg.Auth.FrontendURL,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxUploadSize:  cfg.Uploads.MaxSize,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}
