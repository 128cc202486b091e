package draft

import (
	"context"
	"errors"
	"strings"
	"testing"

	"geonews/internal/gather"
)

type fakeProvider struct {
	responses []string
	prompts   []string
	err       error
}

func (f *fakeProvider) Generate(_ context.Context, prompt string, _ int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	i := len(f.prompts) - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

func (f *fakeProvider) IsConfigured() bool { return true }

type staticMaterials struct {
	items []gather.Item
	err   error
}

func (s *staticMaterials) Materials(string) ([]gather.Item, error) {
	return s.items, s.err
}

const goodResponse = "```json\n{\"content\": \"# Brief\", \"status\": \"APPROVED\", \"feedback\": \"ok\"}\n```"

func TestGeneratePassesThroughValidOutput(t *testing.T) {
	provider := &fakeProvider{responses: []string{goodResponse}}
	d := NewDrafter(provider, &staticMaterials{}, 3, 0)

	raw, err := d.Generate(context.Background(), "2025-12-13", "None")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw != goodResponse {
		t.Errorf("expected raw response passed through, got %q", raw)
	}
	if len(provider.prompts) != 1 {
		t.Errorf("expected 1 LLM call, got %d", len(provider.prompts))
	}
}

func TestGuardrailRetriesMalformedOutput(t *testing.T) {
	provider := &fakeProvider{responses: []string{"oops, no JSON here", goodResponse}}
	d := NewDrafter(provider, &staticMaterials{}, 3, 0)

	raw, err := d.Generate(context.Background(), "2025-12-13", "None")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw != goodResponse {
		t.Errorf("expected corrected response, got %q", raw)
	}
	if len(provider.prompts) != 2 {
		t.Fatalf("expected 2 LLM calls, got %d", len(provider.prompts))
	}
	if !strings.Contains(provider.prompts[1], "could not be parsed") {
		t.Error("retry prompt should carry the correction note")
	}
}

func TestGuardrailExhaustionReturnsLastRaw(t *testing.T) {
	provider := &fakeProvider{responses: []string{"still not JSON"}}
	d := NewDrafter(provider, &staticMaterials{}, 2, 0)

	raw, err := d.Generate(context.Background(), "2025-12-13", "None")
	if err != nil {
		t.Fatalf("guardrail exhaustion must not be an error: %v", err)
	}
	if raw != "still not JSON" {
		t.Errorf("expected last raw response, got %q", raw)
	}
	// initial attempt + 2 retries
	if len(provider.prompts) != 3 {
		t.Errorf("expected 3 LLM calls, got %d", len(provider.prompts))
	}
}

func TestGenerateProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model offline")}
	d := NewDrafter(provider, &staticMaterials{}, 3, 0)

	if _, err := d.Generate(context.Background(), "2025-12-13", "None"); err == nil {
		t.Error("expected provider error to propagate")
	}
}

func TestGenerateMaterialError(t *testing.T) {
	provider := &fakeProvider{responses: []string{goodResponse}}
	d := NewDrafter(provider, &staticMaterials{err: errors.New("db locked")}, 3, 0)

	if _, err := d.Generate(context.Background(), "2025-12-13", "None"); err == nil {
		t.Error("expected material error to propagate")
	}
	if len(provider.prompts) != 0 {
		t.Error("must not call the LLM without source material")
	}
}

func TestPromptCarriesFeedbackAndMaterial(t *testing.T) {
	provider := &fakeProvider{responses: []string{goodResponse}}
	materials := &staticMaterials{items: []gather.Item{
		{Source: "The Diplomat", Title: "Quad Summit Recap", URL: "https://example.com/q", Content: "summit details"},
	}}
	d := NewDrafter(provider, materials, 3, 0)

	if _, err := d.Generate(context.Background(), "2025-12-13", "tighten the lede"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := provider.prompts[0]
	for _, want := range []string{"2025-12-13", "tighten the lede", "Quad Summit Recap", "The Diplomat"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestFormatMaterialsEmpty(t *testing.T) {
	if got := formatMaterials(nil); got != noMaterialNote {
		t.Errorf("expected placeholder for empty material, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %q", got)
	}
	long := strings.Repeat("x", 20)
	if got := truncate(long, 10); got != strings.Repeat("x", 10)+"..." {
		t.Errorf("unexpected truncation: %q", got)
	}
}
