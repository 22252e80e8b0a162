package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alexnetwork99/quotation-automation/internal/llm"
	"github.com/alexnetwork99/quotation-automation/internal/models"
)

const systemPrompt = `You are a quotation assistant for a hardware supplier.
You are given a customer inquiry and a numbered list of catalog items with fixed prices.
Select the catalog items that satisfy the inquiry and determine quantities from the inquiry text.
Respond with a single JSON object and nothing else:
{"items": [{"id": "<catalog item id>", "quantity": <number>}], "note": "<short remark, may be empty>"}
Rules:
- Only use ids from the provided list. Never invent items or prices.
- If the inquiry states a quantity, use it; otherwise use the provided default quantity.
- If none of the items fit the inquiry, return an empty items array and explain in the note.`

// selection is the JSON shape the model is asked to return. It deliberately
// carries no prices; those are resolved from the catalog.
type selection struct {
	Items []struct {
		ID       string  `json:"id"`
		Quantity float64 `json:"quantity"`
	} `json:"items"`
	Note string `json:"note"`
}

// Composer turns retrieved candidates into a finished quote via the language
// model. Candidate lists beyond maxPromptItems are truncated before prompting.
type Composer struct {
	generator      llm.Generator
	maxPromptItems int
	logger         *zap.Logger
}

// NewComposer creates a composer.
func NewComposer(generator llm.Generator, maxPromptItems int, logger *zap.Logger) *Composer {
	if maxPromptItems <= 0 {
		maxPromptItems = 8
	}
	return &Composer{
		generator:      generator,
		maxPromptItems: maxPromptItems,
		logger:         logger,
	}
}

// Compose builds a quote for the inquiry from the given candidates.
//
// With no candidates it returns a no_match quote without calling the model.
// Unparseable model output gets one corrective re-prompt; if that also fails,
// the quote degrades to the top candidate at quantity 1 rather than failing
// the request.
func (c *Composer) Compose(ctx context.Context, req models.InquiryRequest, candidates []models.RetrievedCandidate) (*models.Quote, error) {
	quote := &models.Quote{Inquiry: req.Inquiry}
	if len(candidates) == 0 {
		quote.Status = models.QuoteStatusNoMatch
		quote.Note = "no catalog items matched the inquiry"
		quote.Finalize()
		return quote, nil
	}
	if len(candidates) > c.maxPromptItems {
		candidates = candidates[:c.maxPromptItems]
	}

	user := c.userPrompt(req, candidates)
	raw, err := c.generator.Complete(ctx, systemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("generate quote: %w", err)
	}

	sel, parseErr := parseSelection(raw)
	if parseErr != nil {
		c.logger.Warn("model output unparseable, re-prompting", zap.Error(parseErr))
		raw, err = c.generator.Complete(ctx, systemPrompt,
			user+"\n\nYour previous reply was not valid JSON. Reply with only the JSON object described above.")
		if err != nil {
			return nil, fmt.Errorf("generate quote (retry): %w", err)
		}
		sel, parseErr = parseSelection(raw)
	}
	if parseErr != nil {
		c.logger.Warn("model output unparseable after retry, degrading",
			zap.Error(parseErr))
		return c.degraded(req, candidates), nil
	}

	byID := make(map[string]models.CatalogItem, len(candidates))
	for _, cand := range candidates {
		byID[cand.Item.ID] = cand.Item
	}
	for _, line := range sel.Items {
		item, ok := byID[line.ID]
		if !ok {
			c.logger.Warn("dropping line with unknown item id", zap.String("id", line.ID))
			continue
		}
		qty := line.Quantity
		if qty <= 0 {
			qty = req.Quantity
		}
		quote.Lines = append(quote.Lines, models.NewQuoteLine(item, qty))
	}

	quote.Note = sel.Note
	if len(quote.Lines) == 0 {
		quote.Status = models.QuoteStatusNoMatch
		if quote.Note == "" {
			quote.Note = "no catalog items matched the inquiry"
		}
	} else {
		quote.Status = models.QuoteStatusOK
	}
	quote.Finalize()
	return quote, nil
}

// userPrompt renders the inquiry and candidate list for the model.
func (c *Composer) userPrompt(req models.InquiryRequest, candidates []models.RetrievedCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Inquiry: %s\n", req.Inquiry)
	defaultQty := req.Quantity
	if defaultQty <= 0 {
		defaultQty = 1
	}
	fmt.Fprintf(&b, "Default quantity when the inquiry states none: %g\n", defaultQty)
	b.WriteString("Catalog items:\n")
	for i, cand := range candidates {
		it := cand.Item
		fmt.Fprintf(&b, "%d. id=%s name=%s spec=%s unit=%s price=%.2f supplier=%s\n",
			i+1, it.ID, it.Name, it.Spec, it.Unit, it.Price, it.Supplier)
	}
	return b.String()
}

// degraded builds a fallback quote: the top candidate at quantity 1.
func (c *Composer) degraded(req models.InquiryRequest, candidates []models.RetrievedCandidate) *models.Quote {
	quote := &models.Quote{
		Inquiry: req.Inquiry,
		Status:  models.QuoteStatusDegraded,
		Note:    "automatic selection unavailable; quoting closest catalog match",
		Lines:   []models.QuoteLine{models.NewQuoteLine(candidates[0].Item, 1)},
	}
	quote.Finalize()
	return quote
}

// parseSelection extracts the selection JSON from raw model output, tolerating
// markdown code fences and surrounding prose.
func parseSelection(raw string) (*selection, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("no JSON object in output")}
	}
	var sel selection
	if err := json.Unmarshal([]byte(text[start:end+1]), &sel); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	return &sel, nil
}
