// internal/dispatch/arguments.go
package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mwiater/mcpchat/internal/logging"
	"github.com/mwiater/mcpchat/internal/providers"
)

var (
	singleQuotedStringPattern = regexp.MustCompile(`'([^']*)'`)
	trailingCommaPattern      = regexp.MustCompile(`,\s*([}\]])`)
)

// ParseArguments decodes the raw argument text of a tool request into a JSON
// object. Besides a plain object it accepts a double-encoded string holding an
// object, and repairs single-quoted strings and trailing commas. Empty input
// means no arguments.
func ParseArguments(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return map[string]any{}, nil
	}

	args, err := decodeObject(trimmed)
	if err == nil {
		return args, nil
	}

	var inner string
	if json.Unmarshal([]byte(trimmed), &inner) == nil {
		inner = strings.TrimSpace(inner)
		if inner == "" {
			return map[string]any{}, nil
		}
		args, err = decodeObject(inner)
		if err == nil {
			return args, nil
		}
		trimmed = inner
	}

	if sanitized := sanitizeLegacyJSON(trimmed); sanitized != trimmed {
		if args, sanErr := decodeObject(sanitized); sanErr == nil {
			return args, nil
		}
	}
	return nil, fmt.Errorf("parse tool arguments: %w", err)
}

func decodeObject(text string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	switch obj := v.(type) {
	case map[string]any:
		return obj, nil
	case nil:
		return map[string]any{}, nil
	case string:
		return nil, errors.New("arguments are a JSON string, not an object")
	default:
		return nil, fmt.Errorf("arguments must be a JSON object, got %T", v)
	}
}

func sanitizeLegacyJSON(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return s
	}
	replaced := singleQuotedStringPattern.ReplaceAllStringFunc(s, func(match string) string {
		if len(match) < 2 {
			return match
		}
		inner := match[1 : len(match)-1]
		inner = strings.ReplaceAll(inner, `"`, `\"`)
		return `"` + inner + `"`
	})
	return trailingCommaPattern.ReplaceAllString(replaced, "$1")
}

// ValidateArguments checks args against the tool's input schema. A tool
// without a schema accepts anything, and so does a schema the validator
// cannot compile; the peer remains the final judge in that case.
func ValidateArguments(def providers.ToolDefinition, args map[string]any) error {
	if len(def.Parameters) == 0 {
		return nil
	}
	schema := def.Parameters
	if _, ok := schema["$schema"]; ok {
		schema = make(map[string]any, len(def.Parameters))
		for k, v := range def.Parameters {
			if k != "$schema" {
				schema[k] = v
			}
		}
	}
	schemaLoader := gojsonschema.NewGoLoader(schema)
	argBytes, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal arguments for validation: %w", err)
	}
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(argBytes))
	if err != nil {
		logging.LogEvent("Schema validation skipped: tool=%s reason=%v", def.Name, err)
		return nil
	}
	if result.Valid() {
		return nil
	}
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("arguments failed validation: %s", strings.Join(details, "; "))
}
