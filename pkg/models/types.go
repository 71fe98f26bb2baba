package models

// ==================== Steps ====================

// StepName identifies one tracked automation step for a profile.
type StepName string

const (
	StepAddFunds    StepName = "AddFunds"
	StepSetFeeToken StepName = "SetFeeToken"
	StepGM          StepName = "GM"
)

// Steps returns every step in execution order. Resumability depends on this
// order staying stable between runs.
func Steps() []StepName {
	return []StepName{StepAddFunds, StepSetFeeToken, StepGM}
}

// ==================== Statuses ====================

// StepStatusOK is the only recognized non-empty step status. Anything else in
// a step cell is treated as pending.
const StepStatusOK = "OK"

// Final (overall) statuses. An empty final status means the profile is
// pending.
const (
	FinalStatusReady = "Ready"
	FinalStatusError = "Error"
)

// ==================== Profile Records ====================

// ProfileRecord is one row of the profile sheet: an AdsPower profile plus its
// per-step completion state. Records are mutated in place by the runner and
// persisted cell-by-cell after each mutation.
type ProfileRecord struct {
	SerialNumber int
	Address      string
	Row          int // 1-indexed sheet row, used for write-back
	StepStatus   map[StepName]string
	FinalStatus  string
}

// NewProfileRecord creates an empty record for the given serial and sheet row.
func NewProfileRecord(serial, row int) *ProfileRecord {
	return &ProfileRecord{
		SerialNumber: serial,
		Row:          row,
		StepStatus:   make(map[StepName]string),
	}
}

// StepDone reports whether the step is already marked "OK".
func (r *ProfileRecord) StepDone(step StepName) bool {
	return r.StepStatus[step] == StepStatusOK
}

// MarkStep records a successful step.
func (r *ProfileRecord) MarkStep(step StepName) {
	if r.StepStatus == nil {
		r.StepStatus = make(map[StepName]string)
	}
	r.StepStatus[step] = StepStatusOK
}

// AllStepsDone reports whether every step is marked "OK".
func (r *ProfileRecord) AllStepsDone() bool {
	for _, step := range Steps() {
		if !r.StepDone(step) {
			return false
		}
	}
	return true
}

// IsReady reports whether the profile reached the terminal success state.
func (r *ProfileRecord) IsReady() bool {
	return r.FinalStatus == FinalStatusReady
}

// ==================== Run Requests ====================

// Target selects which profiles a run processes.
type Target string

const (
	TargetAll     Target = "all"
	TargetPending Target = "pending"
	TargetSingle  Target = "single"
)

// RunRequest describes one invocation of the automation.
type RunRequest struct {
	Target       Target
	SerialNumber int // only meaningful for TargetSingle
	Force        bool
	Parallelism  int
	DryRun       bool
}
