package export

import (
	"bytes"
	"fmt"

	"baliance.com/gooxml/document"
	"baliance.com/gooxml/measurement"
	"baliance.com/gooxml/schema/soo/wml"

	"docugen/api/internal/model"
)

// buildDocx lays the project out as a paginated document: centered title,
// centered topic subtitle, then per section a heading followed by one
// paragraph per non-blank content line.
func buildDocx(project model.Project) ([]byte, error) {
	doc := document.New()

	title := doc.AddParagraph()
	title.SetStyle("Title")
	title.Properties().SetAlignment(wml.ST_JcCenter)
	titleRun := title.AddRun()
	titleRun.AddText(project.Title)

	subtitle := doc.AddParagraph()
	subtitle.SetStyle("Heading2")
	subtitle.Properties().SetAlignment(wml.ST_JcCenter)
	subtitleRun := subtitle.AddRun()
	subtitleRun.AddText("Topic: " + project.MainTopic)

	for _, section := range project.Sections {
		heading := doc.AddParagraph()
		heading.SetStyle("Heading1")
		headingRun := heading.AddRun()
		headingRun.AddText(section.Title)

		for _, line := range contentLines(section.Content) {
			para := doc.AddParagraph()
			run := para.AddRun()
			run.Properties().SetSize(12 * measurement.Point)
			run.AddText(line)
		}
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return buf.Bytes(), nil
}
