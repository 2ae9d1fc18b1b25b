// Package export serializes a finished project into its target file format:
// a paginated text document or a slide deck with a fixed master layout.
package export

import "errors"

const (
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// Result contains the export output. Data is the complete artifact; nothing
// partial is ever handed to the caller.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrUnsupportedType indicates a project with a document type the exporter
// does not know.
var ErrUnsupportedType = errors.New("export: unsupported document type")

// ExportError wraps an encoding failure from either format path.
type ExportError struct {
	Format string
	Err    error
}

func (e *ExportError) Error() string {
	return "export " + e.Format + ": " + e.Err.Error()
}

func (e *ExportError) Unwrap() error { return e.Err }
