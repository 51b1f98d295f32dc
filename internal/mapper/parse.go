package mapper

import (
	"encoding/json"
	"fmt"
	"strings"
)

// projectResult is the expected shape of a project determination reply.
type projectResult struct {
	ProjectID  int64   `json:"project_id"`
	Confidence float64 `json:"confidence"`
}

// taskResult is the expected shape of a task association reply. TaskID is
// a pointer because null is a valid verdict.
type taskResult struct {
	TaskID          *int64  `json:"task_id"`
	ConfidenceScore float64 `json:"confidence_score"`
	Reasoning       string  `json:"reasoning"`
}

// stripFences removes a surrounding markdown code fence. Models sometimes
// wrap JSON in ```json ... ``` despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// Drop the language tag line (e.g. "json")
		first := strings.TrimSpace(s[:idx])
		if first == "" || !strings.ContainsAny(first, "{}") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseProjectResult decodes a project determination reply. Both keys are
// required; a reply missing either is rejected.
func parseProjectResult(text string) (projectResult, error) {
	raw, err := requireKeys(text, "project_id", "confidence")
	if err != nil {
		return projectResult{}, err
	}
	var r projectResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return projectResult{}, fmt.Errorf("decode project reply: %w", err)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return projectResult{}, fmt.Errorf("confidence %v out of range", r.Confidence)
	}
	return r, nil
}

// parseTaskResult decodes a task association reply. All three keys are
// required; task_id may be null.
func parseTaskResult(text string) (taskResult, error) {
	raw, err := requireKeys(text, "task_id", "confidence_score", "reasoning")
	if err != nil {
		return taskResult{}, err
	}
	var r taskResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return taskResult{}, fmt.Errorf("decode task reply: %w", err)
	}
	if r.ConfidenceScore < 0 || r.ConfidenceScore > 1 {
		return taskResult{}, fmt.Errorf("confidence_score %v out of range", r.ConfidenceScore)
	}
	return r, nil
}

// requireKeys checks that the fenced-stripped text is a JSON object
// containing every named key, and returns the cleaned bytes for decoding.
func requireKeys(text string, keys ...string) ([]byte, error) {
	cleaned := []byte(stripFences(text))

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(cleaned, &obj); err != nil {
		return nil, fmt.Errorf("reply is not a JSON object: %w", err)
	}
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			return nil, fmt.Errorf("reply missing %q", k)
		}
	}
	return cleaned, nil
}
