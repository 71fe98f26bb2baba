package runner

import (
	"errors"
	"testing"

	"github.com/ev28032024/TempoMetamask/pkg/models"
)

func recordsFixture() []*models.ProfileRecord {
	ready := models.NewProfileRecord(1, 2)
	for _, step := range models.Steps() {
		ready.MarkStep(step)
	}
	ready.FinalStatus = models.FinalStatusReady

	pending := models.NewProfileRecord(2, 3)

	failed := models.NewProfileRecord(3, 4)
	failed.MarkStep(models.StepAddFunds)
	failed.FinalStatus = models.FinalStatusError

	// Deliberately out of serial order.
	return []*models.ProfileRecord{failed, ready, pending}
}

func TestSelectPendingSkipsReady(t *testing.T) {
	got, err := Select(recordsFixture(), models.RunRequest{Target: models.TargetPending})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	want := []int{2, 3}
	if len(got) != len(want) {
		t.Fatalf("selected %d records, want %d", len(got), len(want))
	}
	for i, serial := range want {
		if got[i].SerialNumber != serial {
			t.Errorf("got[%d].SerialNumber = %d, want %d", i, got[i].SerialNumber, serial)
		}
	}
}

func TestSelectAllIncludesReady(t *testing.T) {
	got, err := Select(recordsFixture(), models.RunRequest{Target: models.TargetAll})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("selected %d records, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].SerialNumber > got[i].SerialNumber {
			t.Errorf("records not in ascending serial order: %d before %d",
				got[i-1].SerialNumber, got[i].SerialNumber)
		}
	}
}

func TestSelectSingle(t *testing.T) {
	got, err := Select(recordsFixture(), models.RunRequest{
		Target:       models.TargetSingle,
		SerialNumber: 2,
	})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(got) != 1 || got[0].SerialNumber != 2 {
		t.Errorf("Select() = %v, want the single record with serial 2", got)
	}
}

func TestSelectSingleNotFound(t *testing.T) {
	_, err := Select(recordsFixture(), models.RunRequest{
		Target:       models.TargetSingle,
		SerialNumber: 99,
	})
	if !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("Select() error = %v, want ErrProfileNotFound", err)
	}
}
