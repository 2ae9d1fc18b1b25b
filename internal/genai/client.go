package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"docugen/api/internal/model"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(apiKey, baseURL, modelName string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   modelName,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// request/response wire shapes for the generateContent endpoint

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	Contents          []generateContent `json:"contents"`
	SystemInstruction *generateContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
}

// stringArraySchema constrains outline responses to a JSON array of strings.
var stringArraySchema = json.RawMessage(`{"type":"ARRAY","items":{"type":"STRING"}}`)

// GenerateOutline produces section/slide titles for a topic: 5-7 for a
// document, 5-8 for a deck. A missing API key fails fast; any call or parse
// failure substitutes the fixed per-type fallback outline instead of
// propagating the error.
func (c *Client) GenerateOutline(ctx context.Context, topic string, docType model.DocType) (OutlineResult, error) {
	if c.apiKey == "" {
		return OutlineResult{}, ErrMissingAPIKey
	}

	req := generateRequest{
		Contents:          []generateContent{{Parts: []generatePart{{Text: outlinePrompt(topic, docType)}}}},
		SystemInstruction: &generateContent{Parts: []generatePart{{Text: outlineSystemInstruction(docType)}}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   stringArraySchema,
		},
	}

	text, err := c.generate(ctx, req)
	if err != nil {
		c.log.Warn().Err(err).Str("topic", topic).Msg("outline generation failed, using fallback")
		return OutlineResult{Titles: fallbackOutline(docType), Source: SourceFallback}, nil
	}
	if strings.TrimSpace(text) == "" {
		return OutlineResult{Titles: emptyResponseOutline(), Source: SourceFallback}, nil
	}

	var titles []string
	if err := json.Unmarshal([]byte(text), &titles); err != nil || len(titles) == 0 {
		c.log.Warn().Err(err).Msg("outline response unparseable, using fallback")
		return OutlineResult{Titles: fallbackOutline(docType), Source: SourceFallback}, nil
	}
	return OutlineResult{Titles: titles, Source: SourceGenerated}, nil
}

// GenerateSectionContent drafts body content for one section. The prompt is
// bullet-oriented for slides and prose-oriented for documents. Failures
// return a fixed human-readable error string as content rather than failing
// the caller.
func (c *Client) GenerateSectionContent(ctx context.Context, topic, sectionTitle string, docType model.DocType) (TextResult, error) {
	if c.apiKey == "" {
		return TextResult{}, ErrMissingAPIKey
	}

	req := generateRequest{
		Contents: []generateContent{{Parts: []generatePart{{Text: contentPrompt(topic, sectionTitle, docType)}}}},
	}
	text, err := c.generate(ctx, req)
	if err != nil {
		c.log.Warn().Err(err).Str("section", sectionTitle).Msg("content generation failed")
		return TextResult{Content: contentErrorText, Source: SourceError}, nil
	}
	if strings.TrimSpace(text) == "" {
		return TextResult{Content: contentFailedText, Source: SourceError}, nil
	}
	return TextResult{Content: text, Source: SourceGenerated}, nil
}

// RefineContent rewrites existing content under a free-text instruction. On
// failure the original content comes back unchanged: a no-op, not an error.
func (c *Client) RefineContent(ctx context.Context, currentContent, instruction string) (TextResult, error) {
	if c.apiKey == "" {
		return TextResult{}, ErrMissingAPIKey
	}

	req := generateRequest{
		Contents: []generateContent{{Parts: []generatePart{{Text: refinePrompt(currentContent, instruction)}}}},
	}
	text, err := c.generate(ctx, req)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			c.log.Warn().Err(err).Msg("refinement failed, keeping original content")
		}
		return TextResult{Content: currentContent, Source: SourceFallback}, nil
	}
	return TextResult{Content: text, Source: SourceGenerated}, nil
}

func (c *Client) generate(ctx context.Context, req generateRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("model call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
