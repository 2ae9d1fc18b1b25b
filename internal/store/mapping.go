package store

import (
	"encoding/json"
	"fmt"
	"time"

	"docugen/api/internal/model"
)

// The mapping pair below is the adapter's boundary translation. It is kept
// free of any database dependency so it can be exercised directly in tests.

func rowFromProject(p model.Project, userID string) (projectRow, error) {
	sections, err := encodeSections(p.Sections)
	if err != nil {
		return projectRow{}, fmt.Errorf("encode sections: %w", err)
	}
	return projectRow{
		ID:        p.ID,
		UserID:    userID,
		Title:     p.Title,
		Type:      string(p.Type),
		MainTopic: p.MainTopic,
		Sections:  sections,
		CreatedAt: time.UnixMilli(p.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(p.UpdatedAt).UTC(),
	}, nil
}

func projectFromRow(row projectRow) (model.Project, error) {
	sections, err := decodeSections(row.Sections)
	if err != nil {
		return model.Project{}, fmt.Errorf("decode sections: %w", err)
	}
	return model.Project{
		ID:        row.ID,
		Title:     row.Title,
		Type:      model.DocType(row.Type),
		MainTopic: row.MainTopic,
		Sections:  sections,
		CreatedAt: row.CreatedAt.UnixMilli(),
		UpdatedAt: row.UpdatedAt.UnixMilli(),
	}, nil
}

func encodeSections(sections []model.Section) ([]byte, error) {
	records := make([]sectionRecord, 0, len(sections))
	for _, s := range sections {
		record := sectionRecord{
			ID:          s.ID,
			Title:       s.Title,
			Content:     s.Content,
			IsGenerated: s.IsGenerated,
			History:     make([]historyRecord, 0, len(s.History)),
		}
		for _, h := range s.History {
			record.History = append(record.History, historyRecord{
				Timestamp:       time.UnixMilli(h.Timestamp).UTC().Format(time.RFC3339Nano),
				Prompt:          h.Prompt,
				PreviousContent: h.PreviousContent,
			})
		}
		records = append(records, record)
	}
	return json.Marshal(records)
}

func decodeSections(blob []byte) ([]model.Section, error) {
	if len(blob) == 0 {
		return []model.Section{}, nil
	}
	var records []sectionRecord
	if err := json.Unmarshal(blob, &records); err != nil {
		return nil, err
	}
	sections := make([]model.Section, 0, len(records))
	for _, record := range records {
		section := model.Section{
			ID:          record.ID,
			Title:       record.Title,
			Content:     record.Content,
			IsGenerated: record.IsGenerated,
			History:     make([]model.RefinementHistory, 0, len(record.History)),
		}
		for _, h := range record.History {
			ts, err := time.Parse(time.RFC3339Nano, h.Timestamp)
			if err != nil {
				return nil, fmt.Errorf("parse history timestamp %q: %w", h.Timestamp, err)
			}
			section.History = append(section.History, model.RefinementHistory{
				Timestamp:       ts.UnixMilli(),
				Prompt:          h.Prompt,
				PreviousContent: h.PreviousContent,
			})
		}
		sections = append(sections, section)
	}
	return sections, nil
}
