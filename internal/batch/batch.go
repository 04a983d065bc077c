// Package batch drives metadata generation for a list of media files:
// preparation, the optional quality gate, primary generation with retry and
// fallback, validation, and title de-duplication, up to MaxThreads files at
// a time.
package batch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"stockgen/internal/aiclient"
	"stockgen/internal/config"
	"stockgen/internal/models"
	"stockgen/internal/naturalsort"
	"stockgen/internal/parse"
	"stockgen/internal/prep"
)

// Caller sends one prompt, with an optional image payload, to the provider.
type Caller interface {
	Call(ctx context.Context, model, prompt string, payload *prep.Payload) (aiclient.Result, error)
}

// Preparer turns a media file into an inline image payload.
type Preparer interface {
	Prepare(path string) (prep.Payload, error)
}

// Router relocates a file the quality gate rejected. gen carries metadata
// already generated for the file, or nil when none exists yet.
type Router interface {
	Route(path string, failedChecks []string, reason string, gen *models.Generated) error
}

// Runner executes batch runs against a fixed configuration.
type Runner struct {
	cfg    config.Settings
	client Caller
	prep   Preparer
	router Router
}

func New(cfg config.Settings, client Caller, preparer Preparer, router Router) *Runner {
	return &Runner{cfg: cfg, client: client, prep: preparer, router: router}
}

// Run processes files in natural-sort order and returns exactly one record
// per file that exists on disk. Failures and gate rejections yield error
// records instead of being dropped, so no per-file error aborts the run and
// the usage spent on a rejected file still shows up in reports. The
// returned order matches the sorted input order regardless of which files
// finish first.
func (r *Runner) Run(ctx context.Context, files []string) []models.Generated {
	sorted := append([]string(nil), files...)
	naturalsort.Sort(sorted)

	var existing []string
	for _, f := range sorted {
		info, err := os.Stat(f)
		if err != nil || info.IsDir() {
			slog.Warn("Skipping missing file", "path", f)
			continue
		}
		existing = append(existing, f)
	}

	// Each task writes only its own slot, so slots needs no lock.
	slots := make([]*models.Generated, len(existing))
	sem := make(chan struct{}, r.cfg.Threads())
	var wg sync.WaitGroup
	for i, path := range existing {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			slots[i] = r.process(ctx, path)
		}(i, path)
	}
	wg.Wait()

	// Validation and title de-duplication run sequentially over the ordered
	// slots so suffix assignment is deterministic.
	titles := newTitleSet()
	banned := r.cfg.BannedWordList()
	out := make([]models.Generated, 0, len(existing))
	for _, g := range slots {
		if !g.IsError() {
			g.Keywords = NormalizeKeywords(g.Keywords, banned, r.cfg.KeywordsMaxCount)
			if !Valid(g, r.cfg) {
				g.FailedChecks = append(g.FailedChecks, validationFailedCheck)
			}
			g.Title = titles.Claim(g.Title)
		}
		out = append(out, *g)
	}
	return out
}

// process runs the per-file pipeline and always produces a record. Failures
// and gate rejections are encoded via Source == "error"; a rejected file is
// additionally routed to the rejected folder.
func (r *Runner) process(ctx context.Context, path string) *models.Generated {
	gen := &models.Generated{
		File:     filepath.Base(path),
		FilePath: path,
	}

	payload, err := r.prep.Prepare(path)
	if err != nil {
		slog.Error("Unable to prepare media", "path", path, "err", err)
		return errorRecord(gen, err.Error())
	}

	sel := r.cfg.Selection
	if sel.Enabled && sel.Order == config.SelectionBefore {
		res, err := r.client.Call(ctx, r.cfg.Model, selectionPrompt(sel), &payload)
		if err != nil {
			slog.Error("Quality gate call failed", "path", path, "err", err)
			return errorRecord(gen, err.Error())
		}
		r.addVision(gen, res)
		if verdict := parse.Selection(res.Text); !verdict.Accepted() {
			slog.Info("Rejected by quality gate", "path", path, "reason", verdict.Reason)
			r.reject(path, verdict, nil)
			return errorRecord(gen, "Rejected: "+verdict.Reason)
		}
	}

	res, err := r.client.Call(ctx, r.cfg.Model, primaryPrompt(r.cfg), &payload)
	if err != nil {
		slog.Error("Generation call failed", "path", path, "err", err)
		return errorRecord(gen, err.Error())
	}
	r.addVision(gen, res)

	fields, ok := parse.Generated(res.Text)
	if !ok {
		slog.Error("Unparseable model response", "path", path)
		return errorRecord(gen, "unable to parse model response as metadata JSON")
	}
	gen.Title = fields.Title
	gen.Description = fields.Description
	gen.Keywords = fields.Keywords
	gen.Category = fields.Category
	gen.Source = r.cfg.Model
	gen.Provider = res.Provider

	if sel.Enabled && sel.Order == config.SelectionAfter {
		selRes, err := r.client.Call(ctx, r.cfg.Model, selectionPrompt(sel), &payload)
		if err != nil {
			slog.Error("Quality gate call failed", "path", path, "err", err)
			return errorRecord(gen, err.Error())
		}
		r.addVision(gen, selRes)
		if verdict := parse.Selection(selRes.Text); !verdict.Accepted() {
			slog.Info("Rejected by quality gate", "path", path, "reason", verdict.Reason)
			// Gate ran after generation, so the metadata travels with the
			// rejected file, normalized the same way an accepted record
			// would be.
			routed := *gen
			routed.Keywords = NormalizeKeywords(routed.Keywords, r.cfg.BannedWordList(), r.cfg.KeywordsMaxCount)
			r.reject(path, verdict, &routed)
			return errorRecord(gen, "Rejected: "+verdict.Reason)
		}
	}

	return gen
}

// addVision folds one image-bearing call's telemetry into the record.
func (r *Runner) addVision(g *models.Generated, res aiclient.Result) {
	g.VisionUsage.Add(res.Usage)
	g.VisionCost += res.Cost
	if g.VisionUsage.TotalTokens > 0 {
		g.VisionModel = r.cfg.Model
	}
	g.InputTokens = g.VisionUsage.PromptTokens + g.TextUsage.PromptTokens
	g.OutputTokens = g.VisionUsage.CompletionTokens + g.TextUsage.CompletionTokens
	g.Cost = g.VisionCost + g.TextCost
}

// errorRecord converts the record into a failure marker, keeping the
// accumulated usage and cost for reporting.
func errorRecord(g *models.Generated, msg string) *models.Generated {
	g.Title = "ERROR"
	g.Description = msg
	g.Keywords = nil
	g.Category = ""
	g.Source = "error"
	g.Provider = ""
	return g
}

func (r *Runner) reject(path string, v models.SelectionVerdict, gen *models.Generated) {
	if r.router == nil {
		return
	}
	if err := r.router.Route(path, v.FailedChecks, v.Reason, gen); err != nil {
		slog.Error("Unable to route rejected file", "path", path, "err", err)
	}
}
