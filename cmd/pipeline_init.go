package main

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/item-dedupe/internal/analyze"
	"github.com/sells-group/item-dedupe/internal/dedupe"
	"github.com/sells-group/item-dedupe/internal/inventory"
	"github.com/sells-group/item-dedupe/internal/report"
	"github.com/sells-group/item-dedupe/internal/runs"
	"github.com/sells-group/item-dedupe/internal/tokens"
	anthropicpkg "github.com/sells-group/item-dedupe/pkg/anthropic"
	"github.com/sells-group/item-dedupe/pkg/zoho"
)

// pipelineEnv holds the clients and components shared by the detect and
// serve commands.
type pipelineEnv struct {
	Tokens    *tokens.Manager
	Pipeline  *dedupe.Pipeline
	Registry  *runs.Registry
	Artifacts *report.Artifacts
}

func newZohoClient() zoho.Client {
	return zoho.NewClient(
		zoho.WithAccountsURL(cfg.Zoho.AccountsURL),
		zoho.WithAPIURL(cfg.Zoho.APIURL),
		zoho.WithTimeout(cfg.Zoho.Timeout()),
	)
}

// newTokenManager builds the credential manager alone, for commands that
// never call the analyzer.
func newTokenManager(client zoho.Client) *tokens.Manager {
	return tokens.NewManager(tokens.NewFileStore(cfg.Zoho.TokenFile), client)
}

// initPipeline validates config for mode and wires the full detection
// pipeline.
func initPipeline(mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	rules, err := analyze.LoadRules(cfg.Analyzer.RulesFile)
	if err != nil {
		return nil, eris.Wrap(err, "load analyzer rules")
	}

	zohoClient := newZohoClient()
	tm := newTokenManager(zohoClient)
	fetcher := inventory.NewFetcher(zohoClient,
		inventory.WithPerPage(cfg.Zoho.PerPage),
		inventory.WithRequestsPerMinute(cfg.Zoho.RequestsPerMinute),
	)

	aiClient := anthropicpkg.NewClient(cfg.Anthropic.Key, cfg.Analyzer.Timeout())
	analyzer := analyze.NewClaudeAnalyzer(aiClient, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens,
		analyze.WithRules(rules),
		analyze.WithTemperature(cfg.Analyzer.Temperature),
		analyze.WithTimeout(cfg.Analyzer.Timeout()),
		analyze.WithMaxAttempts(cfg.Analyzer.MaxAttempts),
	)

	orchestrator := dedupe.NewOrchestrator(analyzer, cfg.Pipeline.BatchSize, cfg.Pipeline.LargeSetThreshold)
	artifacts := report.NewArtifacts(cfg.Results.Dir)
	registry := runs.NewRegistry()

	return &pipelineEnv{
		Tokens:    tm,
		Pipeline:  dedupe.NewPipeline(tm, fetcher, orchestrator, report.NewBuilder(), artifacts, registry),
		Registry:  registry,
		Artifacts: artifacts,
	}, nil
}
