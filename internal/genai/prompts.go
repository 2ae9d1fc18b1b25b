package genai

import (
	"fmt"

	"docugen/api/internal/model"
)

const (
	outlineSystemDocument = "You are an expert document architect. Create a structured outline for a professional business document. Return only a JSON array of section titles."
	outlineSystemSlides   = "You are an expert presentation designer. Create a list of slide titles for a professional presentation. Return only a JSON array of slide titles."

	contentStyleSlides   = "Write 4-6 concise, high-impact bullet points for a presentation slide. Do not use markdown headers. Each point should be a separate line."
	contentStyleDocument = "Use comprehensive paragraphs and professional formatting. Do not include the section title."

	contentFailedText = "Content generation failed. Please try again."
	contentErrorText  = "Error generating content. Please check your API key and try again."
)

func outlineSystemInstruction(docType model.DocType) string {
	if docType == model.DocTypeSlideDeck {
		return outlineSystemSlides
	}
	return outlineSystemDocument
}

func outlinePrompt(topic string, docType model.DocType) string {
	shape := "5-7 section outline"
	if docType == model.DocTypeSlideDeck {
		shape = "5-8 slide deck outline"
	}
	return fmt.Sprintf("Create a %s for the topic: %q.", shape, topic)
}

func contentPrompt(topic, sectionTitle string, docType model.DocType) string {
	kind := "business document"
	style := contentStyleDocument
	if docType == model.DocTypeSlideDeck {
		kind = "presentation slide"
		style = contentStyleSlides
	}
	return fmt.Sprintf(
		"Topic: %s\nCurrent Section: %s\n\nTask: Write detailed content for this section of a %s.\n\nStyle Guide:\n%s",
		topic, sectionTitle, kind, style,
	)
}

func refinePrompt(currentContent, instruction string) string {
	return fmt.Sprintf(
		"Original Content:\n%s\n\nUser Instruction: %s\n\nRewrite the content above following the user instruction. Maintain professional tone unless specified otherwise.",
		currentContent, instruction,
	)
}

// Fixed outlines substituted when the model call fails or cannot be parsed.
// The wizard must never dead-end on a transient failure.
func fallbackOutline(docType model.DocType) []string {
	if docType == model.DocTypeSlideDeck {
		return []string{"Title Slide", "Agenda", "Market Overview", "Strategic Plan", "Next Steps"}
	}
	return []string{"Executive Summary", "Problem Statement", "Solution Overview", "Market Analysis", "Conclusion"}
}

// emptyResponseOutline covers the narrower case of a successful call with an
// empty body.
func emptyResponseOutline() []string {
	return []string{"Introduction", "Market Analysis", "Conclusion"}
}
