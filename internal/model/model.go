// Package model holds the application-shape types shared across adapters.
// Wire representation is camelCase JSON with epoch-millisecond timestamps;
// the store adapter owns the translation to its own schema.
package model

// DocType selects the output format a project targets. It is chosen at
// creation and never changes for the life of the project.
type DocType string

const (
	DocTypeDocument  DocType = "DOCX"
	DocTypeSlideDeck DocType = "PPTX"
)

// Valid reports whether t is one of the two supported document types.
func (t DocType) Valid() bool {
	return t == DocTypeDocument || t == DocTypeSlideDeck
}

// RefinementHistory is an append-only snapshot taken immediately before an
// instruction-driven rewrite. Only the newest entry is ever consulted (the
// single-step undo); entries are never removed.
type RefinementHistory struct {
	Timestamp       int64  `json:"timestamp"`
	Prompt          string `json:"prompt"`
	PreviousContent string `json:"previousContent"`
}

// Section is one unit of a project's ordered sequence. Slice order is the
// document/slide order.
type Section struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Content     string              `json:"content"`
	IsGenerated bool                `json:"isGenerated"`
	History     []RefinementHistory `json:"history"`
}

// Project is the in-memory project shape.
type Project struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      DocType   `json:"type"`
	MainTopic string    `json:"mainTopic"`
	Sections  []Section `json:"sections"`
	CreatedAt int64     `json:"createdAt"`
	UpdatedAt int64     `json:"updatedAt"`
}

// SectionIndex returns the position of the section with the given id, or -1.
func (p *Project) SectionIndex(sectionID string) int {
	for i := range p.Sections {
		if p.Sections[i].ID == sectionID {
			return i
		}
	}
	return -1
}

// User is the normalized user shape. ID comes from the identity provider;
// Name resolves through the fallback chain full name, metadata name, email,
// then the literal "User".
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
