package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ParseError reports an LLM reply that could not be turned into a
// StructureDraft. Callers may retry the generation or fall back to the
// synchronous path.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparsable structure output: %s", e.Reason)
}

// structureSchema constrains the JSON shape the LLM must produce. Validated
// before decoding so a malformed reply fails with a precise reason instead
// of a half-filled struct.
const structureSchema = `{
	"type": "object",
	"required": ["directories", "files"],
	"properties": {
		"directories": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["path"],
				"properties": {
					"path": {"type": "string", "minLength": 1},
					"description": {"type": "string"},
					"module_number": {"type": "integer"}
				}
			}
		},
		"files": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["path", "filename"],
				"properties": {
					"path": {"type": "string", "minLength": 1},
					"filename": {"type": "string", "minLength": 1},
					"file_type": {"type": "string"},
					"language": {"type": "string"},
					"description": {"type": "string"},
					"purpose": {"type": "string"},
					"priority": {"type": "string"},
					"module_number": {"type": "integer"}
				}
			}
		},
		"shared_modules": {"type": "array", "items": {"type": "string"}},
		"architecture_notes": {"type": "string"}
	}
}`

var structureSchemaLoader = gojsonschema.NewStringLoader(structureSchema)

// ParseStructure extracts and validates a StructureDraft from raw LLM
// output. It tolerates markdown fences and leading prose around the JSON
// object.
func ParseStructure(raw string) (*StructureDraft, error) {
	jsonText, ok := extractJSON(raw)
	if !ok {
		return nil, &ParseError{Reason: "no JSON object found in reply", Raw: raw}
	}

	result, err := gojsonschema.Validate(structureSchemaLoader, gojsonschema.NewStringLoader(jsonText))
	if err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("invalid JSON: %v", err), Raw: raw}
	}
	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, &ParseError{Reason: strings.Join(problems, "; "), Raw: raw}
	}

	var draft StructureDraft
	if err := json.Unmarshal([]byte(jsonText), &draft); err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("decode failed: %v", err), Raw: raw}
	}
	return &draft, nil
}

// extractJSON pulls the first JSON object out of LLM output, preferring a
// fenced code block.
func extractJSON(content string) (string, bool) {
	content = strings.TrimSpace(content)

	// Fenced block first: ```json ... ``` or plain ``` ... ```
	if idx := strings.Index(content, "```"); idx >= 0 {
		rest := content[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			candidate := strings.TrimSpace(rest[:end])
			if strings.HasPrefix(candidate, "{") {
				return candidate, true
			}
		}
	}

	// Otherwise take the outermost brace pair.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return content[start : end+1], true
}
