// Package export flattens sessions into downloadable formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/splitfair/splitfair/internal/models"
)

// csvHeader is the column order of the flat export. One row is emitted per
// (line item, assigned participant) pair.
var csvHeader = []string{
	"Session Name",
	"Date",
	"Participant",
	"Item",
	"Price",
	"Split Count",
	"Amount Owed",
	"Settled",
	"Total",
}

// Filename returns a timestamped attachment name for a CSV download.
func Filename(now time.Time) string {
	return fmt.Sprintf("splitfair-export-%d.csv", now.Unix())
}

// WriteCSV writes the flattened rows for the given sessions. Items without
// assignments produce no rows. The settled column reflects the participant's
// settlement row for the session, "No" when there is none.
func WriteCSV(w io.Writer, sessions []models.Session) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, session := range sessions {
		names := make(map[string]string, len(session.Participants))
		for _, p := range session.Participants {
			names[p.ID] = p.Name
		}
		settled := make(map[string]bool, len(session.Settlements))
		for _, s := range session.Settlements {
			settled[s.ParticipantID] = s.Settled
		}

		date := time.Unix(session.CreatedAt, 0).UTC().Format("2006-01-02")

		for _, item := range session.Items {
			count := len(item.AssignedTo)
			if count == 0 {
				continue
			}
			share := decimal.NewFromFloat(item.Price).
				Div(decimal.NewFromInt(int64(count))).
				Round(2)

			for _, pid := range item.AssignedTo {
				row := []string{
					session.Name,
					date,
					names[pid],
					item.Name,
					strconv.FormatFloat(item.Price, 'f', 2, 64),
					strconv.Itoa(count),
					share.StringFixed(2),
					yesNo(settled[pid]),
					strconv.FormatFloat(session.TotalAmount, 'f', 2, 64),
				}
				if err := cw.Write(row); err != nil {
					return fmt.Errorf("failed to write CSV row: %w", err)
				}
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
