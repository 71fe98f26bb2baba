package runner

import (
	"fmt"
	"sort"

	"github.com/ev28032024/TempoMetamask/pkg/models"
)

// Select returns the records a run request targets, in ascending serial
// order.
func Select(records []*models.ProfileRecord, req models.RunRequest) ([]*models.ProfileRecord, error) {
	var out []*models.ProfileRecord

	switch req.Target {
	case models.TargetAll:
		out = append(out, records...)

	case models.TargetSingle:
		for _, rec := range records {
			if rec.SerialNumber == req.SerialNumber {
				out = append(out, rec)
				break
			}
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("serial %d: %w", req.SerialNumber, ErrProfileNotFound)
		}

	default: // TargetPending
		for _, rec := range records {
			if !rec.IsReady() {
				out = append(out, rec)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].SerialNumber < out[j].SerialNumber
	})
	return out, nil
}
