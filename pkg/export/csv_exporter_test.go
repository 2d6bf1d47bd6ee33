package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderAlignsPartialRows(t *testing.T) {
	data := Dataset{
		Headers: []string{"Farm", "Status"},
		Rows: []map[string]string{
			{"Farm": "Green Acres", "Status": "APPROVED"},
			{"Farm": "Sunrise Poultry"},
		},
	}

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Farm,Status\nGreen Acres,APPROVED\nSunrise Poultry,\n", string(out))
}

func TestCSVRenderRejectsEmptyHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFRenderProducesDocument(t *testing.T) {
	data := Dataset{
		Title:       "Compliance Log Report",
		Region:      "Zaria District, Kaduna State",
		GeneratedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Headers:     []string{"Farm", "Farmer", "Type", "District", "Status", "Submitted At", "Reviewed At"},
		Rows:        []map[string]string{{"Farm": "Green Acres", "Status": "PENDING"}},
	}

	out, err := NewPDFExporter().Render(data)
	require.NoError(t, err)
	assert.True(t, len(out) > 0)
	assert.Equal(t, "%PDF", string(out[:4]))
}
