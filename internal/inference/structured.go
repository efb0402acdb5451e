package inference

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/invopop/jsonschema"
)

// ErrNotJSON is returned by Structured.Decode when the answer held no JSON.
var ErrNotJSON = errors.New("model answer is not valid JSON")

// Structured is a parsed structured answer. When the text could not be
// parsed, JSON is nil and RawText keeps the original answer.
type Structured struct {
	JSON    json.RawMessage
	RawText string
}

// Parsed reports whether the answer contained a JSON document.
func (s Structured) Parsed() bool { return len(s.JSON) > 0 }

// Decode unmarshals the parsed JSON into target.
func (s Structured) Decode(target any) error {
	if !s.Parsed() {
		return ErrNotJSON
	}
	return json.Unmarshal(s.JSON, target)
}

// InferStructured calls Infer and parses the answer as JSON. Parse failures
// are not errors: the caller receives Structured{RawText: text}.
func (g *Gateway) InferStructured(ctx context.Context, prompt string, opts Options) (Structured, error) {
	text, err := g.Infer(ctx, prompt, opts)
	if err != nil {
		return Structured{}, err
	}

	payload := extractJSON(text)
	if payload == "" || !json.Valid([]byte(payload)) {
		return Structured{RawText: text}, nil
	}
	return Structured{JSON: json.RawMessage(payload), RawText: text}, nil
}

// extractJSON strips Markdown code fences and surrounding prose.
func extractJSON(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return ""
		}
		s = s[idx+1:]
		if end := strings.LastIndex(s, "```"); end != -1 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return s
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// SchemaFor renders the JSON Schema of v for inclusion in a prompt.
func SchemaFor(v any) string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	schema := reflector.Reflect(v)
	schema.Version = ""

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
