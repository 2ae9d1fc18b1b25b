package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docugen/api/internal/model"
)

func sampleProject() model.Project {
	return model.Project{
		ID:        "proj-1",
		Title:     "Q3 Market Report",
		Type:      model.DocTypeDocument,
		MainTopic: "Renewable energy trends 2024",
		Sections: []model.Section{
			{
				ID:          "sec-1",
				Title:       "Executive Summary",
				Content:     "First draft.",
				IsGenerated: true,
				History: []model.RefinementHistory{
					{Timestamp: 1718000000123, Prompt: "make it formal", PreviousContent: "draft"},
				},
			},
			{ID: "sec-2", Title: "Conclusion", Content: "", IsGenerated: false, History: nil},
		},
		CreatedAt: 1717990000000,
		UpdatedAt: 1718000001000,
	}
}

func TestProjectRowRoundTrip(t *testing.T) {
	original := sampleProject()

	row, err := rowFromProject(original, "user-9")
	require.NoError(t, err)
	assert.Equal(t, "user-9", row.UserID)
	assert.Equal(t, "DOCX", row.Type)
	assert.Equal(t, original.CreatedAt, row.CreatedAt.UnixMilli())
	assert.Equal(t, original.UpdatedAt, row.UpdatedAt.UnixMilli())

	back, err := projectFromRow(row)
	require.NoError(t, err)
	// History entries on empty sections normalize to an empty slice, not nil.
	original.Sections[1].History = []model.RefinementHistory{}
	assert.Equal(t, original, back)
}

func TestEncodedSectionsUseSnakeCaseKeys(t *testing.T) {
	blob, err := encodeSections(sampleProject().Sections)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(blob, &raw))
	require.Len(t, raw, 2)

	_, hasSnake := raw[0]["is_generated"]
	assert.True(t, hasSnake, "sections blob must use snake_case keys")
	_, hasCamel := raw[0]["isGenerated"]
	assert.False(t, hasCamel)

	history, ok := raw[0]["history"].([]any)
	require.True(t, ok)
	require.Len(t, history, 1)
	entry := history[0].(map[string]any)
	_, hasPrev := entry["previous_content"]
	assert.True(t, hasPrev)

	// History timestamps persist as ISO-8601, not epoch numbers.
	ts, ok := entry["timestamp"].(string)
	require.True(t, ok)
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	require.NoError(t, err)
	assert.Equal(t, int64(1718000000123), parsed.UnixMilli())
}

func TestDecodeSectionsEmptyBlob(t *testing.T) {
	sections, err := decodeSections(nil)
	require.NoError(t, err)
	assert.Empty(t, sections)

	sections, err = decodeSections([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestDecodeSectionsRejectsBadTimestamp(t *testing.T) {
	_, err := decodeSections([]byte(`[{"id":"s","title":"t","content":"","is_generated":false,"history":[{"timestamp":"not-a-time","prompt":"p","previous_content":"c"}]}]`))
	require.Error(t, err)
}
