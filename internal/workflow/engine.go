package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/casescribe/casescribe/internal/docket"
)

type Config struct {
	// CaseBaseURL, when set, is used to build links back to the record
	// store in duplicate-case results (e.g. https://app.example.com).
	CaseBaseURL string
}

// Engine runs the case resolution workflow: one transcript in, one
// aggregated result plus operation log out. All collaborators are injected;
// the engine holds no network clients of its own.
type Engine struct {
	store     CaseStore
	scheduler Scheduler
	notifier  Notifier
	extractor Extractor
	cfg       Config
	tracer    trace.Tracer
	now       func() time.Time
}

func NewEngine(store CaseStore, scheduler Scheduler, notifier Notifier, extractor Extractor, cfg Config) *Engine {
	return &Engine{
		store:     store,
		scheduler: scheduler,
		notifier:  notifier,
		extractor: extractor,
		cfg:       cfg,
		tracer:    otel.Tracer("casescribe/workflow"),
		now:       time.Now,
	}
}

// Run extracts case payloads from a transcript and processes each one. Any
// failure not attributable to a single payload is reported on the run result
// with the partial operation log preserved.
func (e *Engine) Run(ctx context.Context, transcript string, actor docket.Actor) RunResult {
	actor = docket.NormalizeActor(actor)
	log := NewOperationLog(actor.DisplayName, e.now)

	ctx, span := e.tracer.Start(ctx, "workflow.run")
	defer span.End()

	if strings.TrimSpace(transcript) == "" {
		log.Record(OpError, "empty transcript rejected")
		return RunResult{
			Success:    false,
			Status:     RunErrored,
			Error:      NewValidationError("transcript is required").Error(),
			Cases:      []PayloadResult{},
			Operations: log.Entries(),
		}
	}

	ext, err := e.extractor.Extract(ctx, transcript, actor)
	if err != nil {
		log.Record(OpError, "extraction failed: %v", err)
		return RunResult{
			Success:    false,
			Status:     RunErrored,
			Error:      NewExtractionError(err).Error(),
			Cases:      []PayloadResult{},
			Operations: log.Entries(),
		}
	}
	log.Record(OpExtraction, "extracted %d case payload(s) from transcript", len(ext.Cases))
	span.SetAttributes(attribute.Int("workflow.payloads", len(ext.Cases)))

	if ext.RequiresClarification {
		log.Record(OpClarification, "extractor requested clarification: %s", ext.ClarificationMessage)
		return RunResult{
			Success:    true,
			Status:     RunNeedsClarification,
			Summary:    ext.ClarificationMessage,
			Cases:      []PayloadResult{},
			Operations: log.Entries(),
		}
	}

	results := e.processAll(ctx, ext.Cases, actor, log)
	return RunResult{
		Success:    true,
		Status:     RunProcessed,
		Summary:    ext.OverallSummary,
		Cases:      results,
		Operations: log.Entries(),
	}
}

// ProcessPayloads runs already-extracted payloads, bypassing the extractor.
func (e *Engine) ProcessPayloads(ctx context.Context, payloads []CasePayload, actor docket.Actor) RunResult {
	actor = docket.NormalizeActor(actor)
	log := NewOperationLog(actor.DisplayName, e.now)
	results := e.processAll(ctx, payloads, actor, log)
	return RunResult{
		Success:    true,
		Status:     RunProcessed,
		Cases:      results,
		Operations: log.Entries(),
	}
}

// processAll handles payloads strictly sequentially. One payload's failure
// never aborts its siblings.
func (e *Engine) processAll(ctx context.Context, payloads []CasePayload, actor docket.Actor, log *OperationLog) []PayloadResult {
	results := make([]PayloadResult, 0, len(payloads))
	for _, p := range payloads {
		results = append(results, e.processPayload(ctx, p, actor, log))
	}
	return results
}

func (e *Engine) processPayload(ctx context.Context, p CasePayload, actor docket.Actor, log *OperationLog) (result PayloadResult) {
	p = p.normalize(actor)

	ctx, span := e.tracer.Start(ctx, "workflow.payload",
		trace.WithAttributes(attribute.String("workflow.action_type", string(p.ActionType))))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			log.Record(OpError, "payload processing panicked: %v", r)
			result = PayloadResult{
				Status:   StatusErrored,
				CaseName: p.displayName(),
				Actions:  []string{},
				Error:    fmt.Sprintf("internal failure: %v", r),
			}
		}
		span.SetAttributes(attribute.String("workflow.result_status", string(result.Status)))
	}()

	switch p.ActionType {
	case ActionUpdateExisting:
		return e.runUpdate(ctx, p, actor, log)
	case ActionCreateNew:
		return e.runCreate(ctx, p, actor, log)
	case ActionClarificationNeeded:
		log.Record(OpClarification, "extractor flagged %q for clarification", p.displayName())
		return PayloadResult{
			Status:   StatusClarificationNeeded,
			CaseName: p.displayName(),
			Actions:  []string{"clarification_requested"},
		}
	default:
		log.Record(OpError, "unknown action type %q for %q", p.ActionType, p.displayName())
		return PayloadResult{
			Status:   StatusUnknownAction,
			CaseName: p.displayName(),
			Actions:  []string{},
			Error:    fmt.Sprintf("unsupported action type %q", p.ActionType),
		}
	}
}

func (e *Engine) errorResult(p CasePayload, log *OperationLog, err error) PayloadResult {
	log.Record(OpError, "processing %q failed: %v", p.displayName(), err)
	return PayloadResult{
		Status:   StatusErrored,
		CaseName: p.displayName(),
		Actions:  []string{},
		Error:    err.Error(),
	}
}

func (e *Engine) caseURL(id string) string {
	base := strings.TrimRight(e.cfg.CaseBaseURL, "/")
	if base == "" {
		return ""
	}
	return base + "/cases/" + id
}

func (e *Engine) today() string {
	return e.now().Format("2006-01-02")
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
