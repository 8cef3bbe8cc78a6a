package ai

import (
	_ "embed"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed evaluation.schema.json
var evaluationSchemaSource string

var (
	evaluationSchema = jsonschema.MustCompileString("evaluation.schema.json", evaluationSchemaSource)
	fencedJSONBlock  = regexp.MustCompile("(?is)```json\\b\\s*(.*?)\\n\\s*```")
)

// ExtractResult recovers a validated EvaluationResult from free-text model
// output. A ```json fenced block wins over any bare object in the text.
func ExtractResult(raw string) (EvaluationResult, error) {
	candidate, ok := locateJSON(raw)
	if !ok {
		return EvaluationResult{}, &ExtractionError{
			Reason:  "could not parse model response",
			Excerpt: excerpt(strings.TrimSpace(raw)),
		}
	}

	var document interface{}
	if err := json.Unmarshal([]byte(candidate), &document); err != nil {
		return EvaluationResult{}, &ExtractionError{
			Reason:  "invalid JSON in model response",
			Excerpt: excerpt(candidate),
			Err:     err,
		}
	}

	if err := evaluationSchema.Validate(document); err != nil {
		return EvaluationResult{}, schemaViolation(err)
	}

	var result EvaluationResult
	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		return EvaluationResult{}, &ValidationError{Reason: "unexpected result shape", Result: true, Err: err}
	}

	result.Feedback = strings.TrimSpace(result.Feedback)
	if result.Strengths == nil {
		result.Strengths = []string{}
	}
	if result.Weaknesses == nil {
		result.Weaknesses = []string{}
	}

	return result, nil
}

func locateJSON(raw string) (string, bool) {
	if match := fencedJSONBlock.FindStringSubmatch(raw); match != nil {
		return strings.TrimSpace(match[1]), true
	}
	return firstObject(raw)
}

// firstObject returns the first balanced {...} span that decodes as JSON,
// skipping braces inside quoted strings, so prose such as "{0-100}" ahead of
// the reply is passed over. When no span decodes, the first balanced span is
// returned so the parse error can be reported. When the braces never balance
// it falls back to the greedy span ending at the last closing brace.
func firstObject(s string) (string, bool) {
	first := strings.IndexByte(s, '{')
	if first == -1 {
		return "", false
	}

	fallback := ""
	for start := first; start != -1; {
		if end, ok := balancedEnd(s, start); ok {
			span := s[start : end+1]
			if json.Valid([]byte(span)) {
				return span, true
			}
			if start == first {
				fallback = span
			}
		}

		next := strings.IndexByte(s[start+1:], '{')
		if next == -1 {
			break
		}
		start += next + 1
	}

	if fallback != "" {
		return fallback, true
	}

	end := strings.LastIndexByte(s, '}')
	if end <= first {
		return "", false
	}
	return s[first : end+1], true
}

// balancedEnd returns the index of the brace closing the object opened at start.
func balancedEnd(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func schemaViolation(err error) error {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return &ValidationError{Reason: err.Error(), Result: true, Err: err}
	}

	leaf := verr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	field := strings.TrimPrefix(leaf.InstanceLocation, "/")
	return &ValidationError{Field: field, Reason: leaf.Message, Result: true, Err: err}
}
