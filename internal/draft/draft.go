package draft

import (
	"context"
	"fmt"
	"log"
	"strings"

	"geonews/internal/gather"
	"geonews/internal/llm"
	"geonews/internal/review"
)

const draftPrompt = `You are drafting the GeoNews briefing, a newsletter on India's foreign policy and geopolitics, for %s. You act as researcher, analyst, writer, and quality editor in one pass.

Source material gathered for this edition:

%s

Reviewer feedback on the previous draft (address it if present):
%s

Write the newsletter in markdown: a short lede, 3-5 thematic sections weaving the source material into analysis, and a closing outlook. Cite sources by name inline. Then review your own draft as a strict quality editor: APPROVE it only if it is well-sourced, balanced, and tight; REJECT it with concrete feedback otherwise.

Respond with ONLY this JSON in a fenced code block:
` + "```json" + `
{
    "content": "The full newsletter in markdown",
    "status": "APPROVED" or "REJECTED",
    "feedback": "The editor's feedback on this draft"
}
` + "```"

const guardrailNote = `

Your previous response could not be parsed: %v
Respond again with ONLY the JSON object in a fenced code block, exactly matching the schema above.`

const noMaterialNote = "(no source material found in the window; say so briefly and keep the edition short)"

// MaterialSource supplies gathered source articles for a run date.
type MaterialSource interface {
	Materials(date string) ([]gather.Item, error)
}

// Drafter produces newsletter drafts with an LLM. It implements
// flow.GenerationStage. Before a response ever reaches the flow, a bounded
// guardrail re-prompts the model when its output fails the review schema;
// after the budget is spent the last raw response is returned as-is and the
// flow decides what to do with it.
type Drafter struct {
	provider  llm.Provider
	materials MaterialSource
	retries   int
	maxTokens int
}

// NewDrafter creates a drafting stage. guardrailRetries of zero or less
// falls back to 3.
func NewDrafter(provider llm.Provider, materials MaterialSource, guardrailRetries, maxTokens int) *Drafter {
	if guardrailRetries <= 0 {
		guardrailRetries = 3
	}
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &Drafter{
		provider:  provider,
		materials: materials,
		retries:   guardrailRetries,
		maxTokens: maxTokens,
	}
}

// Generate drafts a newsletter for the date, steering by the previous
// reviewer feedback.
func (d *Drafter) Generate(ctx context.Context, date, feedback string) (string, error) {
	if d.provider == nil {
		return "", fmt.Errorf("no LLM provider available")
	}

	items, err := d.materials.Materials(date)
	if err != nil {
		return "", fmt.Errorf("gathering source material: %w", err)
	}

	prompt := fmt.Sprintf(draftPrompt, date, formatMaterials(items), feedback)

	var raw string
	for attempt := 0; attempt <= d.retries; attempt++ {
		raw, err = d.provider.Generate(ctx, prompt, d.maxTokens)
		if err != nil {
			return "", fmt.Errorf("drafting attempt %d: %w", attempt+1, err)
		}

		if _, perr := review.Parse(raw); perr == nil {
			return raw, nil
		} else if attempt < d.retries {
			log.Printf("Draft output failed schema check (attempt %d/%d): %v",
				attempt+1, d.retries+1, perr)
			prompt = fmt.Sprintf(draftPrompt, date, formatMaterials(items), feedback) +
				fmt.Sprintf(guardrailNote, perr)
		}
	}

	log.Printf("Draft guardrail exhausted after %d attempts", d.retries+1)
	return raw, nil
}

func formatMaterials(items []gather.Item) string {
	if len(items) == 0 {
		return noMaterialNote
	}

	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. [%s] %s", i+1, item.Source, item.Title)
		if item.PublishedDate != "" {
			fmt.Fprintf(&b, " (%s)", item.PublishedDate)
		}
		b.WriteString("\n")
		if item.Content != "" {
			b.WriteString(truncate(item.Content, 1500))
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "   %s\n\n", item.URL)
	}
	return strings.TrimSpace(b.String())
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
