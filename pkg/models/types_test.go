package models

import "testing"

func TestStepsOrder(t *testing.T) {
	want := []StepName{StepAddFunds, StepSetFeeToken, StepGM}
	got := Steps()

	if len(got) != len(want) {
		t.Fatalf("Steps() returned %d steps, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Steps()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestAllStepsDone(t *testing.T) {
	tests := []struct {
		name   string
		status map[StepName]string
		want   bool
	}{
		{
			name:   "empty record",
			status: nil,
			want:   false,
		},
		{
			name: "partial",
			status: map[StepName]string{
				StepAddFunds: StepStatusOK,
			},
			want: false,
		},
		{
			name: "unrecognized value does not count",
			status: map[StepName]string{
				StepAddFunds:    StepStatusOK,
				StepSetFeeToken: "done",
				StepGM:          StepStatusOK,
			},
			want: false,
		},
		{
			name: "all ok",
			status: map[StepName]string{
				StepAddFunds:    StepStatusOK,
				StepSetFeeToken: StepStatusOK,
				StepGM:          StepStatusOK,
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &ProfileRecord{SerialNumber: 1, Row: 2, StepStatus: tt.status}
			if got := rec.AllStepsDone(); got != tt.want {
				t.Errorf("AllStepsDone() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMarkStepOnNilMap(t *testing.T) {
	rec := &ProfileRecord{SerialNumber: 7, Row: 3}
	rec.MarkStep(StepGM)

	if !rec.StepDone(StepGM) {
		t.Error("StepDone(StepGM) = false after MarkStep")
	}
	if rec.StepDone(StepAddFunds) {
		t.Error("StepDone(StepAddFunds) = true, want false")
	}
}
