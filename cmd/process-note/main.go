// process-note runs one voice-note transcript through the workflow and
// prints the run result as JSON. Meant for local testing and replays.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/casescribe/casescribe/internal/calendar"
	"github.com/casescribe/casescribe/internal/casestore"
	"github.com/casescribe/casescribe/internal/docket"
	"github.com/casescribe/casescribe/internal/extract"
	"github.com/casescribe/casescribe/internal/workflow"
)

func main() {
	dbFlag := flag.String("db", "./data/casescribe.db", "path to SQLite database file")
	transcriptFlag := flag.String("transcript", "", "path to a transcript text file (default: stdin)")
	actorName := flag.String("actor", "Senior Counsel", "display name of the dictating lawyer")
	actorEmail := flag.String("actor-email", "", "email of the dictating lawyer")
	actorRole := flag.String("role", "SENIOR", "actor role (SENIOR or JUNIOR)")
	flag.Parse()

	_ = godotenv.Load()

	transcript, err := readTranscript(*transcriptFlag)
	if err != nil {
		log.Fatal(err)
	}
	if strings.TrimSpace(transcript) == "" {
		log.Fatal("transcript is empty")
	}

	store, err := casestore.Open(*dbFlag)
	if err != nil {
		log.Fatalf("failed to open case store (%s): %v", *dbFlag, err)
	}
	defer store.Close()

	caller, err := extract.NewAnthropicCallerFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	engine := workflow.NewEngine(
		store,
		calendar.NewClient(calendar.Config{WebhookURL: os.Getenv("CALENDAR_WEBHOOK_URL")}),
		noopNotifier{},
		extract.NewCaseExtractor(caller),
		workflow.Config{CaseBaseURL: os.Getenv("CASE_BASE_URL")},
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result := engine.Run(ctx, transcript, docket.Actor{
		ID:          "cli",
		Role:        docket.Role(strings.ToUpper(*actorRole)),
		DisplayName: *actorName,
		Email:       *actorEmail,
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatal(err)
	}
	if result.Status == workflow.RunErrored {
		os.Exit(1)
	}
}

func readTranscript(path string) (string, error) {
	if path == "" {
		blob, err := os.ReadFile("/dev/stdin")
		return string(blob), err
	}
	blob, err := os.ReadFile(path)
	return string(blob), err
}

// noopNotifier keeps CLI runs from emailing real clients.
type noopNotifier struct{}

func (noopNotifier) Send(_ context.Context, to, subject, _ string) (workflow.SendResult, error) {
	log.Printf("email suppressed (to=%s, subject=%q)", to, subject)
	return workflow.SendResult{Skipped: true}, nil
}
