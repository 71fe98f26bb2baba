package runner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ev28032024/TempoMetamask/pkg/models"
)

// AdapterFactory prepares the external collaborators (browser session,
// wallet) for one profile and returns the adapter plus a cleanup function.
type AdapterFactory interface {
	Open(ctx context.Context, rec *models.ProfileRecord) (StepAdapter, func(), error)
}

// Journal records run history. Implementations must tolerate being called
// from concurrent workers. A nil Journal disables journaling.
type Journal interface {
	RecordStart(ctx context.Context, serial int) (runID string, err error)
	RecordStep(ctx context.Context, runID string, step models.StepName, status string, duration time.Duration) error
	RecordFinish(ctx context.Context, runID string, status string, atStep models.StepName, cause string) error
}

// Summary aggregates the outcomes of one invocation. Interrupted counts
// profiles stopped by cancellation mid-run; they are not failures.
type Summary struct {
	Total       int
	Succeeded   int
	Failed      int
	Skipped     int
	Interrupted int
}

// Pool processes profiles with bounded parallelism. Each worker owns one
// record end-to-end; the only shared mutable state is the external store,
// which serializes writes to distinct rows on its own.
type Pool struct {
	runner     *StepRunner
	store      RecordStore
	factory    AdapterFactory
	journal    Journal
	startDelay time.Duration
	log        *zap.Logger
}

// NewPool assembles a pool. journal may be nil.
func NewPool(r *StepRunner, store RecordStore, factory AdapterFactory, journal Journal, startDelay time.Duration, log *zap.Logger) *Pool {
	return &Pool{
		runner:     r,
		store:      store,
		factory:    factory,
		journal:    journal,
		startDelay: startDelay,
		log:        log,
	}
}

// Run processes the selected records. A failing profile never aborts the
// others; cancellation of ctx stops scheduling and interrupts running
// profiles between steps.
func (p *Pool) Run(ctx context.Context, records []*models.ProfileRecord, req models.RunRequest) Summary {
	parallelism := req.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	var (
		mu  sync.Mutex
		sum = Summary{Total: len(records)}
	)

	g := new(errgroup.Group)
	g.SetLimit(parallelism)

	for i, rec := range records {
		if ctx.Err() != nil {
			break
		}

		i, rec := i, rec
		g.Go(func() error {
			// Sequential mode pauses between profile starts to let AdsPower
			// settle. The pause lives in the worker so the gap opens after the
			// previous profile released its slot, not during its run.
			if i > 0 && parallelism == 1 && !req.DryRun {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(p.startDelay):
				}
			}

			outcome := p.runOne(ctx, rec, req)

			mu.Lock()
			switch outcome.Status {
			case OutcomeCompleted:
				sum.Succeeded++
			case OutcomeSkipped:
				sum.Skipped++
			case OutcomePartial:
				sum.Interrupted++
			default:
				sum.Failed++
			}
			mu.Unlock()
			return nil
		})
	}

	g.Wait()
	return sum
}

func (p *Pool) runOne(ctx context.Context, rec *models.ProfileRecord, req models.RunRequest) Outcome {
	log := p.log.With(zap.Int("serial", rec.SerialNumber))

	// Skips and dry runs never touch the journal or a browser.
	if rec.IsReady() && !req.Force {
		out, _ := p.runner.Run(ctx, rec, req, nil)
		return out
	}
	if req.DryRun {
		out, _ := p.runner.Run(ctx, rec, req, nil)
		log.Info("dry run", zap.Any("planned_steps", out.Planned))
		return out
	}

	var runID string
	if p.journal != nil {
		id, err := p.journal.RecordStart(ctx, rec.SerialNumber)
		if err != nil {
			log.Warn("journal start failed", zap.Error(err))
		} else {
			runID = id
		}
	}

	outcome := p.execute(ctx, rec, req, runID, log)

	if p.journal != nil && runID != "" {
		cause := ""
		if outcome.Cause != nil {
			cause = outcome.Cause.Error()
		}
		if err := p.journal.RecordFinish(ctx, runID, string(outcome.Status), outcome.AtStep, cause); err != nil {
			log.Warn("journal finish failed", zap.Error(err))
		}
	}

	switch outcome.Status {
	case OutcomeCompleted:
		log.Info("profile run completed")
	case OutcomeSkipped:
		log.Info("profile run skipped", zap.String("reason", outcome.Reason))
	case OutcomePartial:
		log.Warn("profile run interrupted", zap.String("at_step", string(outcome.AtStep)))
	default:
		log.Error("profile run failed",
			zap.String("status", string(outcome.Status)),
			zap.String("at_step", string(outcome.AtStep)),
			zap.Error(outcome.Cause))
	}
	return outcome
}

func (p *Pool) execute(ctx context.Context, rec *models.ProfileRecord, req models.RunRequest, runID string, log *zap.Logger) Outcome {
	adapter, cleanup, err := p.factory.Open(ctx, rec)
	if err != nil {
		// Failed before any step ran: record Error, leave step cells alone.
		log.Error("failed to prepare profile session", zap.Error(err))
		rec.FinalStatus = models.FinalStatusError
		if perr := p.store.SaveFinalStatus(ctx, rec, err.Error()); perr != nil {
			log.Error("failed to persist error status", zap.Error(perr))
		}
		return Outcome{Status: OutcomeFailed, Cause: err}
	}
	defer cleanup()

	if p.journal != nil && runID != "" {
		adapter = &journaledAdapter{inner: adapter, journal: p.journal, runID: runID, log: log}
	}

	outcome, err := p.runner.Run(ctx, rec, req, adapter)
	if err != nil {
		// Store write failed; the sheet may lag behind reality but the next
		// run re-derives state from whatever was persisted.
		return Outcome{Status: OutcomeFailed, Cause: err}
	}
	return outcome
}

// journaledAdapter mirrors each step's result into the run journal.
type journaledAdapter struct {
	inner   StepAdapter
	journal Journal
	runID   string
	log     *zap.Logger
}

func (j *journaledAdapter) RunStep(ctx context.Context, step models.StepName) error {
	start := time.Now()
	err := j.inner.RunStep(ctx, step)

	status := models.StepStatusOK
	if err != nil {
		status = "failed"
	}
	if jerr := j.journal.RecordStep(ctx, j.runID, step, status, time.Since(start)); jerr != nil {
		j.log.Warn("journal step failed", zap.Error(jerr))
	}
	return err
}
