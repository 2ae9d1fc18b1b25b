package export

import (
	"strings"

	"docugen/api/internal/model"
)

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Export serializes the project according to its document type. The project
// is read, never mutated.
func (s *Service) Export(project model.Project) (*Result, error) {
	switch project.Type {
	case model.DocTypeDocument:
		data, err := buildDocx(project)
		if err != nil {
			return nil, &ExportError{Format: "docx", Err: err}
		}
		return &Result{Data: data, Filename: slugify(project.Title) + ".docx", MimeType: mimeDOCX}, nil
	case model.DocTypeSlideDeck:
		data, err := buildPptx(project)
		if err != nil {
			return nil, &ExportError{Format: "pptx", Err: err}
		}
		return &Result{Data: data, Filename: slugify(project.Title) + ".pptx", MimeType: mimePPTX}, nil
	default:
		return nil, ErrUnsupportedType
	}
}

// slugify derives the download filename stem: lowercased, each
// non-alphanumeric character replaced by an underscore.
func slugify(title string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "project"
	}
	return sb.String()
}

// contentLines splits section content into trimmed non-blank lines.
func contentLines(content string) []string {
	lines := make([]string, 0)
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lines = append(lines, trimmed)
	}
	return lines
}

// bulletLines additionally strips leading bullet glyphs; the slide format
// supplies its own.
func bulletLines(content string) []string {
	lines := contentLines(content)
	for i, line := range lines {
		stripped := strings.TrimLeft(line, "-*•")
		lines[i] = strings.TrimSpace(stripped)
	}
	return lines
}
