// Command grcdesk serves the ticket triage and risk intelligence API.
//
// Usage:
//
//	grcdesk                          # defaults + environment
//	grcdesk -config grcdesk.yaml     # run with config file
package main

import (
	"context"
	"crypto/subtle"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/grcdesk/dbopen"
	"github.com/hazyhaar/grcdesk/shield"
	"github.com/hazyhaar/grcdesk/triage"
)

func main() {
	configPath := flag.String("config", "", "path to grcdesk.yaml config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	svc, err := triage.New(ctx, db, triage.Config{
		Embed:     cfg.Embed,
		Sentiment: cfg.Sentiment,
		Insight:   cfg.Insight,
		Workers:   cfg.Workers,
		Logger:    logger,
	})
	if err != nil {
		slog.Error("triage service", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	startReprocessScheduler(ctx, svc, cfg.ReprocessSchedule)

	if cfg.MCPTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "grcdesk",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)
		go func() {
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("mcp server", "error", err)
			}
		}()
		slog.Info("mcp server starting", "transport", "stdio")
	}

	limiter, err := shield.NewRateLimiter(db, "/health")
	if err != nil {
		slog.Error("rate limiter", "error", err)
		os.Exit(1)
	}
	limiter.StartReloader(ctx.Done())

	r := chi.NewRouter()
	for _, mw := range shield.APIStack(limiter) {
		r.Use(mw)
	}
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Group(func(r chi.Router) {
		if cfg.Auth.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Auth.Password), bcrypt.DefaultCost)
			if err != nil {
				slog.Error("hash auth password", "error", err)
				os.Exit(1)
			}
			r.Use(basicAuth(cfg.Auth.User, hash))
		} else {
			slog.Warn("AUTH_PASSWORD not set, API is unauthenticated")
		}
		svc.RegisterHTTP(r)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// basicAuth guards the API with HTTP Basic credentials checked against a
// bcrypt hash.
func basicAuth(user string, passwordHash []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
				bcrypt.CompareHashAndPassword(passwordHash, []byte(p)) != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="grcdesk"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// startReprocessScheduler re-runs enrichment on the stored corpus on a
// cron schedule, so rule edits and taxonomy learning propagate to old
// tickets without manual reprocess calls.
func startReprocessScheduler(ctx context.Context, svc *triage.Service, schedule string) {
	if schedule == "" {
		return
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		slog.Error("invalid reprocess_schedule, scheduler disabled", "schedule", schedule, "error", err)
		return
	}
	slog.Info("reprocess scheduled", "cron", schedule)

	go func() {
		for {
			next := sched.Next(time.Now())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			n, err := svc.Reprocess(ctx)
			if err != nil {
				slog.Error("scheduled reprocess", "error", err)
				continue
			}
			slog.Info("scheduled reprocess complete", "tickets", n)
		}
	}()
}
