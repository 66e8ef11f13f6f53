package ledger

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

// MarkupRate is the fixed surcharge applied to every metered cost line item.
const MarkupRate = 0.20

// round4 rounds to 4 decimal places, half away from zero. All monetary
// values in the ledger pass through it.
func round4(value float64) float64 {
	return math.Round(value*10000) / 10000
}

// CostLineItem is one metered agent task.
type CostLineItem struct {
	Agent    string  `json:"agent"`
	Task     string  `json:"task"`
	BaseCost float64 `json:"base_cost"`
	Markup   float64 `json:"markup"`
	Total    float64 `json:"total"`
}

// Invoice aggregates a run's line items. Once generated it is immutable;
// the ledger is append-only and never edited in place.
//
// Subtotal, MarkupTotal, and TotalDue are each independently rounded to 4
// decimal places, so TotalDue may differ from Subtotal+MarkupTotal by up to
// 0.0001 per item. That divergence is an accepted tolerance of the rounding
// policy, not a defect.
type Invoice struct {
	JobID       string         `json:"job_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	LineItems   []CostLineItem `json:"line_items"`
	Subtotal    float64        `json:"subtotal"`
	MarkupTotal float64        `json:"markup_total"`
	TotalDue    float64        `json:"total_due"`
	Verified    bool           `json:"verified"`
}

// ManifestGenerator accumulates cost line items for one run and produces
// the final invoice. Safe for concurrent use.
type ManifestGenerator struct {
	mu    sync.Mutex
	items []CostLineItem
	now   func() time.Time
}

// NewManifestGenerator returns an empty generator.
func NewManifestGenerator() *ManifestGenerator {
	return &ManifestGenerator{now: time.Now}
}

// AddEntry appends a line item, applying the fixed markup.
func (g *ManifestGenerator) AddEntry(agent, task string, baseCost float64) (CostLineItem, error) {
	if strings.TrimSpace(agent) == "" {
		return CostLineItem{}, fmt.Errorf("ledger: agent is required")
	}
	if baseCost < 0 {
		return CostLineItem{}, fmt.Errorf("ledger: base cost must not be negative, got %v", baseCost)
	}

	markup := round4(baseCost * MarkupRate)
	item := CostLineItem{
		Agent:    agent,
		Task:     task,
		BaseCost: baseCost,
		Markup:   markup,
		Total:    round4(baseCost + markup),
	}

	g.mu.Lock()
	g.items = append(g.items, item)
	g.mu.Unlock()
	return item, nil
}

// LineItems returns a copy of the accumulated items.
func (g *ManifestGenerator) LineItems() []CostLineItem {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := make([]CostLineItem, len(g.items))
	copy(cp, g.items)
	return cp
}

// Generate produces the invoice for the accumulated items. The returned
// invoice holds its own copy of the line items; later AddEntry calls do not
// mutate an already-generated invoice.
func (g *ManifestGenerator) Generate(jobID string) Invoice {
	items := g.LineItems()

	var subtotal, markupTotal, totalDue float64
	for _, item := range items {
		subtotal += item.BaseCost
		markupTotal += item.Markup
		totalDue += item.Total
	}

	return Invoice{
		JobID:       jobID,
		GeneratedAt: g.now().UTC(),
		LineItems:   items,
		Subtotal:    round4(subtotal),
		MarkupTotal: round4(markupTotal),
		TotalDue:    round4(totalDue),
		Verified:    true,
	}
}
