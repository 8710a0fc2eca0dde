// Package dedupe drives one duplicate-detection run: it fetches items,
// sends them to the analyzer in batches and writes the report.
package dedupe

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/item-dedupe/internal/analyze"
	"github.com/sells-group/item-dedupe/internal/model"
	"github.com/sells-group/item-dedupe/internal/resilience"
)

// ProgressFunc receives human-readable progress updates.
type ProgressFunc func(msg string)

// BatchOutcome accumulates the results of a batched analysis.
type BatchOutcome struct {
	Result  model.DuplicateResult
	Failed  []model.BatchFailure
	Batches int
}

// Orchestrator picks single or batched analysis and folds batch replies
// into one result.
type Orchestrator struct {
	analyzer          analyze.Analyzer
	batchSize         int
	largeSetThreshold int
	printer           *message.Printer
}

// NewOrchestrator creates an Orchestrator. Item sets larger than
// largeSetThreshold are split into batches of batchSize.
func NewOrchestrator(a analyze.Analyzer, batchSize, largeSetThreshold int) *Orchestrator {
	return &Orchestrator{
		analyzer:          a,
		batchSize:         batchSize,
		largeSetThreshold: largeSetThreshold,
		printer:           message.NewPrinter(language.English),
	}
}

// Analyze runs the analysis mode appropriate for len(items).
func (o *Orchestrator) Analyze(ctx context.Context, items []model.Item, progress ProgressFunc) (BatchOutcome, error) {
	progress = orNoop(progress)

	if len(items) > o.largeSetThreshold {
		progress(o.printer.Sprintf("Batch processing %d items...", len(items)))
		return o.RunBatches(ctx, items, progress), nil
	}

	progress(o.printer.Sprintf("Analyzing %d items with AI...", len(items)))
	result, err := o.RunSingle(ctx, items)
	if err != nil {
		return BatchOutcome{}, err
	}
	return BatchOutcome{Result: result, Batches: 1}, nil
}

// RunBatches analyzes items batch by batch. A failing batch is recorded in
// Failed and skipped. Groups are concatenated in batch order and never
// reconciled across batches.
func (o *Orchestrator) RunBatches(ctx context.Context, items []model.Item, progress ProgressFunc) BatchOutcome {
	progress = orNoop(progress)
	batches := Partition(items, o.batchSize)

	out := BatchOutcome{
		Result:  model.DuplicateResult{Duplicates: []model.DuplicateGroup{}},
		Batches: len(batches),
	}
	for i, batch := range batches {
		index := i + 1
		progress(o.printer.Sprintf("Analyzing batch %d of %d (%d items)...", index, len(batches), len(batch)))

		result, err := o.analyzeOnce(ctx, batch)
		if err != nil {
			failure := model.BatchFailure{Index: index, Kind: classify(err), Error: err.Error()}
			zap.L().Warn("dedupe: skipping batch",
				zap.Int("batch", index),
				zap.Int("batches", len(batches)),
				zap.String("kind", string(failure.Kind)),
				zap.Error(err),
			)
			out.Failed = append(out.Failed, failure)
			continue
		}
		out.Result.Duplicates = append(out.Result.Duplicates, result.Duplicates...)
	}

	out.Result.Summary = model.DuplicateSummary{
		TotalItems:      len(items),
		DuplicateGroups: len(out.Result.Duplicates),
	}
	return out
}

// RunSingle analyzes all items in one call. Any failure is returned; a
// reply that cannot be decoded yields *analyze.ResponseParseError with the
// full reply attached.
func (o *Orchestrator) RunSingle(ctx context.Context, items []model.Item) (model.DuplicateResult, error) {
	result, err := o.analyzeOnce(ctx, items)
	if err != nil {
		return model.DuplicateResult{}, err
	}
	result.Summary = model.DuplicateSummary{
		TotalItems:      len(items),
		DuplicateGroups: len(result.Duplicates),
	}
	return result, nil
}

func (o *Orchestrator) analyzeOnce(ctx context.Context, items []model.Item) (model.DuplicateResult, error) {
	text, err := o.analyzer.Analyze(ctx, items)
	if err != nil {
		return model.DuplicateResult{}, err
	}
	return analyze.Decode(text)
}

func classify(err error) model.FailureKind {
	var pe *analyze.ResponseParseError
	switch {
	case errors.As(err, &pe):
		return model.FailureParse
	case resilience.IsTransient(err):
		return model.FailureTransport
	default:
		return model.FailureAnalyzer
	}
}

func orNoop(p ProgressFunc) ProgressFunc {
	if p == nil {
		return func(string) {}
	}
	return p
}
