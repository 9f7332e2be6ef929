package datasheet

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"kitchen-inventory/internal/llm"
	"kitchen-inventory/internal/shared"
)

//go:embed extractor_prompt.md
var extractorPrompt string

var promptTemplate = template.Must(template.New("extractor").Parse(extractorPrompt))

// AgentName labels extractor runs in the usage metrics.
const AgentName = "DatasheetExtractor"

// Extractor reads a datasheet source and asks the model for structured data.
type Extractor struct {
	textGen llm.TextGenerator
	reader  SourceReader
}

// NewExtractor creates an Extractor.
func NewExtractor(textGen llm.TextGenerator, reader SourceReader) *Extractor {
	return &Extractor{textGen: textGen, reader: reader}
}

// Extract reads source (a URL or a local HTML, PDF or text file) and
// returns the extracted datasheet. The returned meta carries token usage
// even when decoding the model output failed.
func (e *Extractor) Extract(ctx context.Context, source string) (Datasheet, shared.AgentMeta, error) {
	meta := shared.AgentMeta{AgentName: AgentName}

	content, err := e.reader.Text(ctx, source)
	if err != nil {
		return Datasheet{}, meta, fmt.Errorf("failed to read source: %w", err)
	}

	prompt, err := buildPrompt(source, content)
	if err != nil {
		return Datasheet{}, meta, err
	}

	start := time.Now()
	resp, err := e.textGen.GenerateContent(ctx, prompt)
	meta.Latency = time.Since(start)
	if err != nil {
		return Datasheet{}, meta, fmt.Errorf("failed to get LLM response: %w", err)
	}
	meta.Usage = resp.Usage

	var ds Datasheet
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Content)), &ds); err != nil {
		return Datasheet{}, meta, fmt.Errorf("failed to unmarshal LLM response: %w", err)
	}
	if strings.TrimSpace(ds.Name) == "" {
		return Datasheet{}, meta, fmt.Errorf("no product name found in %s", source)
	}
	ds.Source = source
	return ds, meta, nil
}

func buildPrompt(source, content string) (string, error) {
	var buf bytes.Buffer
	err := promptTemplate.Execute(&buf, struct {
		Source  string
		Content string
	}{Source: source, Content: content})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

// stripCodeFence removes a surrounding Markdown code fence some models add
// despite being asked for bare JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
