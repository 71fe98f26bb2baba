package sheets

import (
	"testing"

	"github.com/ev28032024/TempoMetamask/pkg/config"
	"github.com/ev28032024/TempoMetamask/pkg/models"
)

func testColumns() config.Columns {
	return config.Default().Sheets.Columns
}

func TestParseRow(t *testing.T) {
	cols := testColumns()

	tests := []struct {
		name      string
		row       []interface{}
		wantOK    bool
		wantSteps []models.StepName
		wantFinal string
	}{
		{
			name:   "fresh row with serial only",
			row:    []interface{}{"12"},
			wantOK: true,
		},
		{
			name:      "fully completed row",
			row:       []interface{}{"7", "0xabc", "OK", "OK", "OK", "Ready", ""},
			wantOK:    true,
			wantSteps: models.Steps(),
			wantFinal: models.FinalStatusReady,
		},
		{
			name:      "partial progress with error note",
			row:       []interface{}{"3", "0xdef", "OK", "", "", "Error", "timeout waiting for button"},
			wantOK:    true,
			wantSteps: []models.StepName{models.StepAddFunds},
			wantFinal: models.FinalStatusError,
		},
		{
			name:      "ready is case insensitive",
			row:       []interface{}{"5", "", "OK", "OK", "OK", "ready"},
			wantOK:    true,
			wantSteps: models.Steps(),
			wantFinal: models.FinalStatusReady,
		},
		{
			name:      "error prefix with detail still counts",
			row:       []interface{}{"6", "", "", "", "", "Error: wallet locked"},
			wantOK:    true,
			wantFinal: models.FinalStatusError,
		},
		{
			name:   "step cell other than OK stays pending",
			row:    []interface{}{"8", "", "done", "yes", "ok", ""},
			wantOK: true,
		},
		{
			name:   "whitespace around values is ignored",
			row:    []interface{}{" 9 ", "", " OK ", "", "", ""},
			wantOK: true,
			wantSteps: []models.StepName{
				models.StepAddFunds,
			},
		},
		{
			name:   "non-numeric serial",
			row:    []interface{}{"profile-1"},
			wantOK: false,
		},
		{
			name:   "zero serial",
			row:    []interface{}{"0"},
			wantOK: false,
		},
		{
			name:   "empty row",
			row:    nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := parseRow(tt.row, cols, 2)
			if ok != tt.wantOK {
				t.Fatalf("parseRow() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}

			if rec.Row != 2 {
				t.Errorf("Row = %d, want 2", rec.Row)
			}
			for _, step := range models.Steps() {
				want := false
				for _, s := range tt.wantSteps {
					if s == step {
						want = true
					}
				}
				if rec.StepDone(step) != want {
					t.Errorf("StepDone(%s) = %v, want %v", step, rec.StepDone(step), want)
				}
			}
			if rec.FinalStatus != tt.wantFinal {
				t.Errorf("FinalStatus = %q, want %q", rec.FinalStatus, tt.wantFinal)
			}
		})
	}
}

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		col  int
		want string
	}{
		{0, "A"},
		{1, "B"},
		{5, "F"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
	}

	for _, tt := range tests {
		if got := columnLetter(tt.col); got != tt.want {
			t.Errorf("columnLetter(%d) = %q, want %q", tt.col, got, tt.want)
		}
	}
}

func TestTruncateNote(t *testing.T) {
	if got := truncateNote("short"); got != "short" {
		t.Errorf("truncateNote(short) = %q", got)
	}

	long := "failed to click the add funds button on the faucet page"
	got := truncateNote(long)
	if len([]rune(got)) != noteLimit {
		t.Errorf("truncated note has %d runes, want %d", len([]rune(got)), noteLimit)
	}

	// Truncation counts runes, not bytes.
	cyrillic := "Ошибка подтверждения транзакции в кошельке профиля"
	got = truncateNote(cyrillic)
	if len([]rune(got)) != noteLimit {
		t.Errorf("truncated cyrillic note has %d runes, want %d", len([]rune(got)), noteLimit)
	}
}
