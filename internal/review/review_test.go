package review

import (
	"strings"
	"testing"
)

func TestParseFencedJSON(t *testing.T) {
	raw := "Here is the final verdict:\n```json\n{\"content\": \"# Weekly Brief\", \"status\": \"APPROVED\", \"feedback\": \"ok\"}\n```"
	r, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Content != "# Weekly Brief" {
		t.Errorf("expected content '# Weekly Brief', got %q", r.Content)
	}
	if r.Status != StatusApproved {
		t.Errorf("expected status APPROVED, got %q", r.Status)
	}
	if r.Feedback != "ok" {
		t.Errorf("expected feedback 'ok', got %q", r.Feedback)
	}
}

func TestParsePlainFence(t *testing.T) {
	raw := "```\n{\"content\": \"draft\", \"status\": \"REJECTED\", \"feedback\": \"too long\"}\n```"
	r, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Status != StatusRejected {
		t.Errorf("expected status REJECTED, got %q", r.Status)
	}
	if r.Feedback != "too long" {
		t.Errorf("expected feedback 'too long', got %q", r.Feedback)
	}
}

func TestParseBareJSON(t *testing.T) {
	raw := `{"content": "draft body", "status": "APPROVED", "feedback": "fine"}`
	r, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Content != "draft body" {
		t.Errorf("expected content 'draft body', got %q", r.Content)
	}
}

func TestParseUsesFirstWellFormedBlock(t *testing.T) {
	raw := "```\nthis block is not JSON\n```\nsome prose\n```json\n{\"content\": \"real\", \"status\": \"APPROVED\", \"feedback\": \"good\"}\n```"
	r, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Content != "real" {
		t.Errorf("expected content 'real', got %q", r.Content)
	}
}

func TestParseProseFails(t *testing.T) {
	if _, err := Parse("The newsletter looks great, ship it."); err == nil {
		t.Error("expected error for plain prose")
	}
}

func TestParseEmptyFails(t *testing.T) {
	if _, err := Parse("   \n  "); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestParseUnknownStatusFails(t *testing.T) {
	raw := `{"content": "draft", "status": "MAYBE", "feedback": "hmm"}`
	if _, err := Parse(raw); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestParseApprovedEmptyContentFails(t *testing.T) {
	raw := `{"content": "  ", "status": "APPROVED", "feedback": "ok"}`
	if _, err := Parse(raw); err == nil {
		t.Error("expected error for approved verdict with empty content")
	}
}

func TestParseRejectedEmptyContentAllowed(t *testing.T) {
	raw := `{"content": "", "status": "REJECTED", "feedback": "start over"}`
	r, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Feedback != "start over" {
		t.Errorf("expected feedback 'start over', got %q", r.Feedback)
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []Result{
		{Content: "# Brief\n\nBody with ünïcode and \"quotes\".", Status: StatusApproved, Feedback: "ok"},
		{Content: "", Status: StatusRejected, Feedback: "needs sources"},
		{Content: "multi\nline\ncontent", Status: StatusApproved, Feedback: "None"},
	}
	for _, want := range cases {
		got, err := Parse(Format(&want))
		if err != nil {
			t.Fatalf("round-trip parse failed for %+v: %v", want, err)
		}
		if *got != want {
			t.Errorf("round-trip mismatch: got %+v, want %+v", *got, want)
		}
	}
}

func TestParseNeverPanics(t *testing.T) {
	inputs := []string{
		"```json\n```",
		"``````",
		"```json\n{\"content\": 42}\n```",
		`{"content": ["not", "a", "string"]}`,
		strings.Repeat("`", 7),
		"null",
		"[1,2,3]",
	}
	for _, in := range inputs {
		if _, err := Parse(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}
