package runner

import (
	"errors"
	"fmt"

	"github.com/ev28032024/TempoMetamask/pkg/models"
)

// ErrProfileNotFound is returned when a requested serial number has no row in
// the profile store.
var ErrProfileNotFound = errors.New("profile not found in store")

// AdapterError wraps a failure of an external action, recording which step it
// halted.
type AdapterError struct {
	Step models.StepName
	Err  error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}
