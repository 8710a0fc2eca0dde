package dedupe

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/item-dedupe/internal/analyze"
	"github.com/sells-group/item-dedupe/internal/model"
	"github.com/sells-group/item-dedupe/internal/report"
	"github.com/sells-group/item-dedupe/internal/runs"
)

// Run status messages shown to pollers.
const (
	MsgFetching      = "Fetching items from Zoho..."
	MsgGenerating    = "Generating Excel report..."
	MsgNoItems       = "No items retrieved from Zoho. Please check your API credentials and organization ID."
	MsgParseFailed   = "Failed to parse JSON from AI response"
	MsgEmptyResponse = "No duplicate data found in AI response"
)

// ErrNoItems is returned when the organization has no items to analyze.
var ErrNoItems = errors.New("dedupe: no items retrieved")

// TokenSource yields a usable access token.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// ItemSource lists every item of an organization.
type ItemSource interface {
	FetchAll(ctx context.Context, accessToken, organizationID string) ([]model.Item, error)
}

// Outcome summarizes a completed run.
type Outcome struct {
	RunID      string
	Filename   string
	ResultFile string
	Items      int
	Groups     int
	Failed     []model.BatchFailure
}

// Pipeline runs fetch, analysis and reporting for one organization.
type Pipeline struct {
	tokens       TokenSource
	items        ItemSource
	orchestrator *Orchestrator
	builder      *report.Builder
	artifacts    *report.Artifacts
	registry     *runs.Registry
	now          func() time.Time
	printer      *message.Printer
}

// NewPipeline wires a Pipeline from its collaborators.
func NewPipeline(tokens TokenSource, items ItemSource, o *Orchestrator, b *report.Builder, a *report.Artifacts, r *runs.Registry) *Pipeline {
	return &Pipeline{
		tokens:       tokens,
		items:        items,
		orchestrator: o,
		builder:      b,
		artifacts:    a,
		registry:     r,
		now:          time.Now,
		printer:      message.NewPrinter(language.English),
	}
}

// Registry returns the registry runs are tracked in.
func (p *Pipeline) Registry() *runs.Registry { return p.registry }

// Run executes one detection run for orgID under runID. The registry entry
// for runID reflects every phase; on failure it holds the error message
// and the error is also returned.
func (p *Pipeline) Run(ctx context.Context, orgID, runID string) (*Outcome, error) {
	log := zap.L().With(zap.String("run_id", runID), zap.String("org_id", orgID))
	start := p.now()

	p.registry.Start(runID)
	progress := p.registry.Progress(runID)
	progress(MsgFetching)

	items, err := p.fetch(ctx, orgID)
	if err != nil {
		return nil, p.fail(log, runID, err.Error(), err)
	}
	if len(items) == 0 {
		return nil, p.fail(log, runID, MsgNoItems, ErrNoItems)
	}
	log.Info("dedupe: items fetched", zap.Int("items", len(items)))

	outcome, err := p.orchestrator.Analyze(ctx, items, progress)
	if err != nil {
		return nil, p.analysisFailed(log, runID, err)
	}

	if outcome.Batches > 1 {
		progress("Generating final Excel report...")
	} else {
		progress(MsgGenerating)
	}

	filename := report.ReportName(orgID, p.now())
	if err := p.builder.Write(p.artifacts.Path(filename), orgID, outcome.Result, items, p.now()); err != nil {
		return nil, p.fail(log, runID, err.Error(), err)
	}
	resultFile, err := p.artifacts.WriteResult(filename, outcome.Result)
	if err != nil {
		return nil, p.fail(log, runID, err.Error(), err)
	}

	done := p.printer.Sprintf("Found %d duplicate groups in %d items", len(outcome.Result.Duplicates), len(items))
	p.registry.Update(runID, func(st *model.RunStatus) {
		st.State = model.RunStateCompleted
		st.Filename = filename
		st.Progress = done
		st.FailedBatches = outcome.Failed
	})

	log.Info("dedupe: run completed",
		zap.String("filename", filename),
		zap.Int("groups", len(outcome.Result.Duplicates)),
		zap.Int("batches", outcome.Batches),
		zap.Int("failed_batches", len(outcome.Failed)),
		zap.Duration("elapsed", p.now().Sub(start)),
	)

	return &Outcome{
		RunID:      runID,
		Filename:   filename,
		ResultFile: resultFile,
		Items:      len(items),
		Groups:     len(outcome.Result.Duplicates),
		Failed:     outcome.Failed,
	}, nil
}

func (p *Pipeline) fetch(ctx context.Context, orgID string) ([]model.Item, error) {
	token, err := p.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return p.items.FetchAll(ctx, token, orgID)
}

func (p *Pipeline) analysisFailed(log *zap.Logger, runID string, err error) error {
	var pe *analyze.ResponseParseError
	switch {
	case errors.As(err, &pe):
		name, werr := p.artifacts.WriteErrorText(p.now(), pe.Raw)
		if werr != nil {
			log.Error("dedupe: save unparseable response", zap.Error(werr))
		} else {
			log.Warn("dedupe: saved unparseable response", zap.String("file", name))
		}
		return p.fail(log, runID, MsgParseFailed, err)
	case errors.Is(err, analyze.ErrEmptyResponse):
		return p.fail(log, runID, MsgEmptyResponse, err)
	default:
		return p.fail(log, runID, err.Error(), err)
	}
}

func (p *Pipeline) fail(log *zap.Logger, runID, msg string, err error) error {
	p.registry.Fail(runID, msg)
	log.Error("dedupe: run failed", zap.String("status", msg), zap.Error(err))
	return eris.Wrap(err, "dedupe: run "+runID)
}
