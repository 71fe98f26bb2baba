// Package runner contains the per-profile step runner, the profile selector
// and the worker pool that fans profiles out to browser sessions.
package runner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ev28032024/TempoMetamask/pkg/models"
)

// RecordStore persists record mutations back to the system of record. Every
// call writes through immediately; the runner never batches.
type RecordStore interface {
	// SaveStepStatus writes the step's current status cell for the record.
	SaveStepStatus(ctx context.Context, rec *models.ProfileRecord, step models.StepName) error
	// SaveFinalStatus writes the overall status cell, with an optional
	// operator-facing note for errors.
	SaveFinalStatus(ctx context.Context, rec *models.ProfileRecord, note string) error
}

// StepAdapter executes one external action per step. Implementations own the
// browser session and wallet for a single profile.
type StepAdapter interface {
	RunStep(ctx context.Context, step models.StepName) error
}

// ==================== Outcomes ====================

// OutcomeStatus classifies how a profile's run ended.
type OutcomeStatus string

const (
	OutcomeCompleted OutcomeStatus = "completed"
	OutcomePartial   OutcomeStatus = "partial"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeSkipped   OutcomeStatus = "skipped"
)

// Outcome is the result of running (or planning) one profile.
type Outcome struct {
	Status  OutcomeStatus
	AtStep  models.StepName   // step reached, for partial and failed
	Cause   error             // failure cause
	Reason  string            // skip reason
	Planned []models.StepName // dry-run only: steps that would execute
}

// ==================== Step Runner ====================

// StepRunner walks one profile through the step checklist, skipping steps the
// sheet already marks done and persisting after every state change.
type StepRunner struct {
	store RecordStore
	log   *zap.Logger
}

// NewStepRunner creates a runner over the given store.
func NewStepRunner(store RecordStore, log *zap.Logger) *StepRunner {
	return &StepRunner{store: store, log: log}
}

// Plan returns the steps a run would execute for the record, in order. A
// Ready record with force unset plans nothing.
func (r *StepRunner) Plan(rec *models.ProfileRecord, req models.RunRequest) []models.StepName {
	if rec.IsReady() && !req.Force {
		return nil
	}

	var planned []models.StepName
	for _, step := range models.Steps() {
		if req.Force || !rec.StepDone(step) {
			planned = append(planned, step)
		}
	}
	return planned
}

// Run executes the remaining steps for one record.
//
// The contract, in order:
//   - Ready + no force: Skipped, no external contact.
//   - Dry run: report the plan, touch nothing.
//   - Each pending step invokes the adapter exactly once; success persists
//     the step cell before moving on, failure persists final status Error
//     and halts.
//   - All steps done: final status Ready.
//
// A non-nil error is returned only for store failures; adapter failures are
// reported through the Outcome so other profiles keep running.
func (r *StepRunner) Run(ctx context.Context, rec *models.ProfileRecord, req models.RunRequest, adapter StepAdapter) (Outcome, error) {
	log := r.log.With(zap.Int("serial", rec.SerialNumber))

	if rec.IsReady() && !req.Force {
		log.Info("profile already ready, skipping")
		return Outcome{Status: OutcomeSkipped, Reason: "already ready"}, nil
	}

	planned := r.Plan(rec, req)
	if req.DryRun {
		return Outcome{Status: OutcomeSkipped, Reason: "dry run", Planned: planned}, nil
	}

	// Clear a stale terminal status (Error, or Ready under force) before the
	// first step: the overall cell stays empty while work is in flight, so an
	// interrupted run leaves the row pending and re-selectable. A run that
	// then completes rewrites Ready at the end, so a force re-run of a Ready
	// row always writes the cell twice.
	if rec.FinalStatus != "" {
		rec.FinalStatus = ""
		if err := r.store.SaveFinalStatus(ctx, rec, ""); err != nil {
			return Outcome{}, fmt.Errorf("failed to clear final status: %w", err)
		}
	}

	for _, step := range planned {
		if err := ctx.Err(); err != nil {
			log.Warn("run interrupted", zap.String("step", string(step)))
			return Outcome{Status: OutcomePartial, AtStep: step, Cause: err}, nil
		}

		log.Info("executing step", zap.String("step", string(step)))

		if err := adapter.RunStep(ctx, step); err != nil {
			aerr := &AdapterError{Step: step, Err: err}
			log.Error("step failed", zap.String("step", string(step)), zap.Error(err))

			rec.FinalStatus = models.FinalStatusError
			if perr := r.store.SaveFinalStatus(ctx, rec, err.Error()); perr != nil {
				log.Error("failed to persist error status", zap.Error(perr))
			}
			return Outcome{Status: OutcomeFailed, AtStep: step, Cause: aerr}, nil
		}

		rec.MarkStep(step)
		if err := r.store.SaveStepStatus(ctx, rec, step); err != nil {
			return Outcome{}, fmt.Errorf("failed to persist step %s: %w", step, err)
		}
		log.Info("step completed", zap.String("step", string(step)))
	}

	rec.FinalStatus = models.FinalStatusReady
	if err := r.store.SaveFinalStatus(ctx, rec, ""); err != nil {
		return Outcome{}, fmt.Errorf("failed to persist ready status: %w", err)
	}

	log.Info("profile completed")
	return Outcome{Status: OutcomeCompleted}, nil
}
