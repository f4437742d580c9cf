package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sahanw/valuerpro/internal/merge"
)

const analysisSystemPrompt = `You are a document analyst for a Sri Lankan property valuation practice.
You will be given text extracted from a deed, survey plan, building plan or prior valuation report.
Produce a structured JSON extraction. Respond with valid JSON only — no markdown, no commentary.

The JSON must have this exact shape (omit sections with nothing to report):
{
  "comprehensive_data": {
    "property_identification": {"lot_number": "...", "plan_number": "...", "plan_date": "YYYY-MM-DD", "surveyor_name": "...", "land_name": "...", "extent_perches": <number>, "extent_sqm": <number>, "boundaries": {"north": "...", "south": "...", "east": "...", "west": "..."}},
    "location_details": {"address": "...", "village": "...", "gn_division": "...", "ds_division": "...", "district": "...", "province": "..."},
    "site_characteristics": {"topography": "...", "soil_type": "...", "frontage": <number>, "access_road_width": <number>, "shape": "..."},
    "buildings_improvements": {"buildings": [{"type": "...", "floor_area": <number>, "construction_year": <number>, "condition": "..."}], "overall_condition": "..."},
    "utilities_assessment": {"electricity": "...", "water": "...", "telephone": "...", "drainage": "..."},
    "market_analysis": {"comparable_sales": [{"address": "...", "sale_price": <number>, "land_extent": <number>, "sale_date": "YYYY-MM-DD"}]},
    "report_information": {"purpose": "...", "report_date": "YYYY-MM-DD"},
    "legal_information": {"title_owner": "...", "deed_number": "...", "deed_date": "YYYY-MM-DD", "notary": "..."}
  }
}

Extents: report perches when the document states perches; report square metres only when no perch figure exists.
Dates must be ISO formatted. Never invent values not supported by the document text.`

const analysisUserPrompt = `Extract the structured property data from the following document text.

--- BEGIN DOCUMENT TEXT ---
%s
--- END DOCUMENT TEXT ---

Respond with the JSON extraction only.`

// Caller abstracts the LLM call so tests can inject a fake.
type Caller interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

type AnthropicCaller struct {
	messages AnthropicMessager
}

// AnthropicMessager is the subset of the Anthropic client the analyzer uses.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

// newAnthropicClient is the package-level creator, overridable in tests.
var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

func NewAnthropicCallerFromEnv() (*AnthropicCaller, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	return &AnthropicCaller{messages: newAnthropicClient(apiKey)}, nil
}

func (c *AnthropicCaller) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.ModelClaudeSonnet4_20250514,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: analysisSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic call failed: %w", err)
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	raw := strings.Join(parts, "")
	if strings.TrimSpace(raw) == "" {
		return "", errors.New("empty response from model")
	}
	return raw, nil
}

// Analyzer turns extracted document text into a typed merge payload.
type Analyzer struct {
	caller Caller
}

func NewAnalyzer(caller Caller) *Analyzer {
	return &Analyzer{caller: caller}
}

// AnalyzeDocument runs the structured extraction over document text. The
// response is parsed at the boundary; an unrecognized shape is an error, not
// a best-effort guess.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, text string) (merge.Payload, error) {
	if strings.TrimSpace(text) == "" {
		return merge.Payload{}, errors.New("document text is empty")
	}
	raw, err := a.caller.GenerateJSON(ctx, fmt.Sprintf(analysisUserPrompt, text))
	if err != nil {
		return merge.Payload{}, err
	}
	cleaned := stripCodeFences(raw)
	payload, err := merge.ParsePayload([]byte(cleaned))
	if err != nil {
		return merge.Payload{}, fmt.Errorf("parse analysis response: %w", err)
	}
	return payload, nil
}

// stripCodeFences removes markdown fences the model sometimes wraps JSON in.
func stripCodeFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		if idx := strings.Index(cleaned[3:], "\n"); idx >= 0 {
			cleaned = cleaned[3+idx+1:]
		}
		if strings.HasSuffix(cleaned, "```") {
			cleaned = cleaned[:len(cleaned)-3]
		}
		cleaned = strings.TrimSpace(cleaned)
	}
	return cleaned
}
