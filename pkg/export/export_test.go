package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Timetable",
		Headers: []string{"Day", "Slot", "Room"},
		Rows: [][]string{
			{"Monday", "8:30-10:00", "101"},
			{"Tuesday", "10:10-11:40", "102, annex"},
		},
	}
}

func TestCSVRenderer(t *testing.T) {
	out, err := NewCSVRenderer().Render(sampleDataset())
	require.NoError(t, err)

	expected := "Day,Slot,Room\nMonday,8:30-10:00,101\nTuesday,10:10-11:40,\"102, annex\"\n"
	assert.Equal(t, expected, string(out))
}

func TestPDFRenderer(t *testing.T) {
	out, err := NewPDFRenderer().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRejectsRaggedRows(t *testing.T) {
	data := sampleDataset()
	data.Rows = append(data.Rows, []string{"Friday"})

	_, err := NewCSVRenderer().Render(data)
	assert.Error(t, err)
	_, err = NewPDFRenderer().Render(Dataset{})
	assert.Error(t, err)
}
