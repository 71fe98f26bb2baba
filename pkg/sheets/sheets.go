// Package sheets implements the profile store on top of a Google Sheet. The
// sheet is the system of record: one row per AdsPower profile, one column per
// step, and every status change is written back immediately.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ev28032024/TempoMetamask/pkg/config"
	"github.com/ev28032024/TempoMetamask/pkg/models"
)

// noteLimit caps the operator-facing error note so it stays readable in a
// spreadsheet cell.
const noteLimit = 30

// ==================== Store ====================

// Store reads and writes profile records in one worksheet.
type Store struct {
	svc *sheets.Service
	cfg config.SheetsConfig
	log *zap.Logger
}

// New opens the Sheets API using the service account credentials file.
func New(ctx context.Context, cfg config.SheetsConfig, log *zap.Logger) (*Store, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Store{svc: svc, cfg: cfg, log: log}, nil
}

// LoadProfiles reads every data row of the worksheet. The first row is a
// header. Rows without a positive integer serial number are logged and
// skipped, they never fail the load.
func (s *Store) LoadProfiles(ctx context.Context) ([]*models.ProfileRecord, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, s.cfg.Worksheet).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", s.cfg.Worksheet, err)
	}

	var records []*models.ProfileRecord
	for i, row := range resp.Values {
		if i == 0 {
			continue
		}
		rowNum := i + 1 // sheet rows are 1-indexed

		rec, ok := parseRow(row, s.cfg.Columns, rowNum)
		if !ok {
			s.log.Warn("skipping malformed sheet row", zap.Int("row", rowNum))
			continue
		}
		records = append(records, rec)
	}

	s.log.Info("loaded profiles from sheet",
		zap.Int("count", len(records)),
		zap.String("worksheet", s.cfg.Worksheet))
	return records, nil
}

// SaveStepStatus writes the record's current value for one step cell.
func (s *Store) SaveStepStatus(ctx context.Context, rec *models.ProfileRecord, step models.StepName) error {
	col, ok := s.stepColumn(step)
	if !ok {
		return fmt.Errorf("no sheet column configured for step %s", step)
	}
	return s.writeCell(ctx, rec.Row, col, rec.StepStatus[step])
}

// SaveFinalStatus writes the overall status cell and the note cell. The note
// is kept only for Error statuses and is truncated for readability.
func (s *Store) SaveFinalStatus(ctx context.Context, rec *models.ProfileRecord, note string) error {
	if err := s.writeCell(ctx, rec.Row, s.cfg.Columns.Overall, rec.FinalStatus); err != nil {
		return err
	}
	if rec.FinalStatus != models.FinalStatusError {
		note = ""
	}
	return s.writeCell(ctx, rec.Row, s.cfg.Columns.Note, truncateNote(note))
}

// SaveAddress writes the wallet address cell.
func (s *Store) SaveAddress(ctx context.Context, rec *models.ProfileRecord) error {
	return s.writeCell(ctx, rec.Row, s.cfg.Columns.Address, rec.Address)
}

func (s *Store) stepColumn(step models.StepName) (int, bool) {
	switch step {
	case models.StepAddFunds:
		return s.cfg.Columns.AddFunds, true
	case models.StepSetFeeToken:
		return s.cfg.Columns.FeeToken, true
	case models.StepGM:
		return s.cfg.Columns.GM, true
	}
	return 0, false
}

func (s *Store) writeCell(ctx context.Context, rowNum, col int, value string) error {
	rng := fmt.Sprintf("%s!%s%d", s.cfg.Worksheet, columnLetter(col), rowNum)
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}

	_, err := s.svc.Spreadsheets.Values.Update(s.cfg.SpreadsheetID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write cell %s: %w", rng, err)
	}
	return nil
}

// ==================== Row Parsing ====================

// parseRow builds a record from one sheet row. It returns false when the
// serial cell does not hold a positive integer.
func parseRow(row []interface{}, cols config.Columns, rowNum int) (*models.ProfileRecord, bool) {
	serial, err := strconv.Atoi(strings.TrimSpace(cellString(row, cols.Serial)))
	if err != nil || serial <= 0 {
		return nil, false
	}

	rec := models.NewProfileRecord(serial, rowNum)
	rec.Address = strings.TrimSpace(cellString(row, cols.Address))

	stepCols := []struct {
		step models.StepName
		col  int
	}{
		{models.StepAddFunds, cols.AddFunds},
		{models.StepSetFeeToken, cols.FeeToken},
		{models.StepGM, cols.GM},
	}
	for _, sc := range stepCols {
		// Only an exact "OK" counts as done; anything else stays pending.
		if strings.TrimSpace(cellString(row, sc.col)) == models.StepStatusOK {
			rec.MarkStep(sc.step)
		}
	}

	final := strings.TrimSpace(cellString(row, cols.Overall))
	switch {
	case strings.EqualFold(final, models.FinalStatusReady):
		rec.FinalStatus = models.FinalStatusReady
	case strings.HasPrefix(final, models.FinalStatusError):
		rec.FinalStatus = models.FinalStatusError
	}

	return rec, true
}

func cellString(row []interface{}, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	s, _ := row[col].(string)
	return s
}

// columnLetter converts a 0-indexed column into A1 notation.
func columnLetter(col int) string {
	col++
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

func truncateNote(note string) string {
	r := []rune(note)
	if len(r) > noteLimit {
		return string(r[:noteLimit])
	}
	return note
}
