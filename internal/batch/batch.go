// Package batch orchestrates validation runs: it persists an uploaded
// record set, validates and scores every record concurrently, and rolls
// the results up into a batch summary.
package batch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/directory-cli/internal/config"
	"github.com/sells-group/directory-cli/internal/enrich"
	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/resilience"
	"github.com/sells-group/directory-cli/internal/store"
	"github.com/sells-group/directory-cli/internal/validate"
)

// Summary reports the outcome of one validation run.
type Summary struct {
	BatchID      string `json:"batch_id"`
	Total        int    `json:"total"`
	Validated    int    `json:"validated"`
	Flagged      int    `json:"flagged"`
	Failed       int    `json:"failed"`
	EnrichErrors int    `json:"enrich_errors"`
}

// Runner executes validation batches against a store.
type Runner struct {
	store     store.Store
	validator *validate.Validator
	enricher  enrich.Client
	cfg       config.BatchConfig
	retryCfg  resilience.RetryConfig
}

// New creates a batch runner. enricher may be nil to skip suggestion
// enrichment entirely.
func New(st store.Store, v *validate.Validator, enricher enrich.Client, cfg config.BatchConfig) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	return &Runner{
		store:     st,
		validator: v,
		enricher:  enricher,
		cfg:       cfg,
		retryCfg:  resilience.DefaultRetryConfig(),
	}
}

// Run ingests records as a new batch and validates each one. Individual
// record failures only abort the run when ContinueOnError is off.
func (r *Runner) Run(ctx context.Context, name, fileName string, source model.Source, records []*model.Provider) (*Summary, error) {
	if len(records) == 0 {
		return nil, eris.New("batch: no records to validate")
	}

	b := &model.ValidationBatch{
		Name:         name,
		FileName:     fileName,
		Source:       source,
		TotalRecords: len(records),
	}
	if err := r.store.CreateBatch(ctx, b); err != nil {
		return nil, err
	}

	for _, p := range records {
		p.BatchID = b.ID
	}
	if err := resilience.Do(ctx, r.retryCfg, func(ctx context.Context) error {
		_, err := r.store.BulkCreateProviders(ctx, records)
		return err
	}); err != nil {
		return nil, err
	}

	if err := r.store.CreateAuditEntry(ctx, &model.AuditEntry{
		Action:      model.AuditUpload,
		Description: fmt.Sprintf("uploaded %d records from %s", len(records), fileName),
		BatchID:     b.ID,
		Actor:       r.cfg.Actor,
	}); err != nil {
		return nil, err
	}

	zap.L().Info("validating batch",
		zap.String("batch_id", b.ID),
		zap.Int("records", len(records)),
		zap.Int("concurrency", r.cfg.Concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	var validated, flagged, failed, enrichErrors atomic.Int64

	for _, p := range records {
		g.Go(func() error {
			log := zap.L().With(zap.String("provider_id", p.ID), zap.String("name", p.Name))

			results, deduction := r.validator.Validate(p)

			adjustment := 0
			if r.enricher != nil {
				sugg, err := resilience.DoVal(gctx, r.retryCfg, func(ctx context.Context) (*enrich.Suggestions, error) {
					return r.enricher.SuggestCorrections(ctx, p)
				})
				if err != nil {
					// Suggestions are advisory; a failed call never
					// fails the record.
					enrichErrors.Add(1)
					log.Warn("suggestion enrichment failed", zap.Error(err))
				} else {
					if len(sugg.Fields) > 0 {
						p.Suggestions = sugg.Fields
					}
					adjustment = sugg.Adjustment
				}
			}

			score, status := r.validator.Score(deduction, adjustment)
			now := time.Now().UTC()
			p.ValidationResults = results
			p.ConfidenceScore = score
			p.Status = status
			p.LastValidated = &now

			if err := resilience.Do(gctx, r.retryCfg, func(ctx context.Context) error {
				return r.store.UpdateValidation(ctx, p)
			}); err != nil {
				failed.Add(1)
				log.Error("persisting validation failed", zap.Error(err))
				if r.cfg.ContinueOnError {
					return nil
				}
				return err
			}

			if status == model.StatusValidated {
				validated.Add(1)
			} else {
				flagged.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch: validation run")
	}

	summary := &Summary{
		BatchID:      b.ID,
		Total:        len(records),
		Validated:    int(validated.Load()),
		Flagged:      int(flagged.Load()),
		Failed:       int(failed.Load()),
		EnrichErrors: int(enrichErrors.Load()),
	}

	if err := r.store.CompleteBatch(ctx, b.ID, summary.Validated, summary.Flagged); err != nil {
		return nil, err
	}
	if err := r.store.CreateAuditEntry(ctx, &model.AuditEntry{
		Action: model.AuditValidationRun,
		Description: fmt.Sprintf("validated %d records: %d passed, %d flagged",
			summary.Total, summary.Validated, summary.Flagged),
		BatchID: b.ID,
		Actor:   r.cfg.Actor,
	}); err != nil {
		return nil, err
	}

	zap.L().Info("batch complete",
		zap.String("batch_id", b.ID),
		zap.Int("validated", summary.Validated),
		zap.Int("flagged", summary.Flagged),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}
