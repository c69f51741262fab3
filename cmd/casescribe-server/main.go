package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/casescribe/casescribe/internal/calendar"
	"github.com/casescribe/casescribe/internal/casestore"
	"github.com/casescribe/casescribe/internal/extract"
	"github.com/casescribe/casescribe/internal/httpapi"
	"github.com/casescribe/casescribe/internal/notify"
	"github.com/casescribe/casescribe/internal/telemetry"
	"github.com/casescribe/casescribe/internal/workflow"
)

func main() {
	dbFlag := flag.String("db", "", "path to SQLite database file (overrides CASESCRIBE_DB env var)")
	flag.Parse()

	_ = godotenv.Load()

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	dbPath := *dbFlag
	if dbPath == "" {
		dbPath = os.Getenv("CASESCRIBE_DB")
	}
	if dbPath == "" {
		dbPath = "./data/casescribe.db"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, "casescribe-server")
	if err != nil {
		log.Fatalf("tracing setup: %v", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		_ = shutdownTracing(flushCtx)
	}()

	store, err := casestore.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open case store (%s): %v", dbPath, err)
	}
	defer store.Close()
	log.Printf("using case store at %s", dbPath)

	caller, err := extract.NewAnthropicCallerFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	engine := workflow.NewEngine(
		store,
		calendar.NewClient(calendar.Config{WebhookURL: os.Getenv("CALENDAR_WEBHOOK_URL")}),
		notify.NewMailer(notify.Config{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			From:     os.Getenv("SMTP_FROM"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
		}),
		extract.NewCaseExtractor(caller),
		workflow.Config{CaseBaseURL: os.Getenv("CASE_BASE_URL")},
	)

	handler := httpapi.NewServer(engine, store, httpapi.Config{Secret: os.Getenv("CASESCRIBE_API_SECRET")})
	server := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("casescribe-server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
