package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Result is the structured verdict the drafting stage must produce: the
// draft itself, the reviewer's decision, and the feedback that seeds the
// next attempt.
type Result struct {
	Content  string `json:"content"`
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

// Reviewer verdicts.
const (
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

var fenceRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// Parse extracts a Result from raw model output. It tries each fenced code
// block in order and uses the first whose body decodes and validates; with
// no fence present the whole text is decoded instead. Parse never panics on
// arbitrary input, it only returns an error.
func Parse(raw string) (*Result, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty response")
	}

	matches := fenceRe.FindAllStringSubmatch(raw, -1)
	for _, m := range matches {
		if r, err := decode(m[1]); err == nil {
			return r, nil
		}
	}
	if len(matches) > 0 {
		return nil, errors.New("no fenced block held a valid review")
	}

	return decode(raw)
}

// Format renders a Result as a fenced JSON block, the inverse of Parse.
func Format(r *Result) string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return ""
	}
	return "```json\n" + string(data) + "\n```"
}

func decode(text string) (*Result, error) {
	var r Result
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &r); err != nil {
		return nil, fmt.Errorf("decoding review JSON: %w", err)
	}
	if err := validate(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

func validate(r *Result) error {
	switch r.Status {
	case StatusApproved:
		if strings.TrimSpace(r.Content) == "" {
			return errors.New("approved review with empty content")
		}
	case StatusRejected:
	default:
		return fmt.Errorf("unknown review status %q", r.Status)
	}
	return nil
}
