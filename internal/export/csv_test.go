package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitfair/splitfair/internal/models"
)

func TestWriteCSV(t *testing.T) {
	created := time.Date(2026, 3, 12, 18, 30, 0, 0, time.UTC).Unix()
	sessions := []models.Session{
		{
			Name:        "Costco run",
			TotalAmount: 39.33,
			CreatedAt:   created,
			Participants: []models.Participant{
				{ID: "p1", Name: "Alice"},
				{ID: "p2", Name: "Bob"},
			},
			Items: []models.LineItem{
				{Name: "Eggs", Price: 9.98, AssignedTo: []string{"p1", "p2"}},
				{Name: "Towels", Price: 24.99, AssignedTo: []string{"p1"}},
				{Name: "Unassigned", Price: 2.49},
			},
			Settlements: []models.Settlement{
				{ParticipantID: "p1", Settled: true},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sessions))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 4, "header + two shared rows + one solo row")
	assert.Equal(t, csvHeader, rows[0])

	assert.Equal(t,
		[]string{"Costco run", "2026-03-12", "Alice", "Eggs", "9.98", "2", "4.99", "Yes", "39.33"},
		rows[1])
	assert.Equal(t,
		[]string{"Costco run", "2026-03-12", "Bob", "Eggs", "9.98", "2", "4.99", "No", "39.33"},
		rows[2])
	assert.Equal(t,
		[]string{"Costco run", "2026-03-12", "Alice", "Towels", "24.99", "1", "24.99", "Yes", "39.33"},
		rows[3])
}

func TestWriteCSVEmptySessions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1, "only the header")
}

func TestFilename(t *testing.T) {
	now := time.Unix(1700000000, 0)
	assert.Equal(t, "splitfair-export-1700000000.csv", Filename(now))
}
