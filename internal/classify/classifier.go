// Package classify maps free-form dispute reasons onto document categories.
package classify

import (
	"io"
	"log/slog"
	"strings"

	"github.com/vanshika/chargeback/backend/internal/domain"
)

// Tables holds the keyword sets for each category. Values are compared after
// normalization, so entries should already be lower-case snake_case.
type Tables struct {
	Fraud                []string
	ProductNotReceived   []string
	ProductNotAcceptable []string
	CreditNotProcessed   []string
}

// DefaultTables returns the built-in keyword sets.
func DefaultTables() Tables {
	return Tables{
		Fraud: []string{
			"unrecognized_transaction",
			"fraud",
			"fraudulent",
			"unauthorized",
			"stolen_card",
			"card_not_present",
			"no_authorization",
		},
		ProductNotReceived: []string{
			"product_not_received",
			"merchandise_not_received",
			"13.1",
			"delivery_confirmed",
		},
		ProductNotAcceptable: []string{
			"product_unacceptable",
			"not_as_described",
			"services_not_rendered",
			"quality_issue",
		},
		CreditNotProcessed: []string{
			"credit_not_processed",
			"credit_not_issued",
			"refund_not_processed",
		},
	}
}

// Overlaps returns keywords that appear in more than one category set.
func (t Tables) Overlaps() []string {
	seen := make(map[string]domain.ReasonCategory)
	var out []string
	for _, entry := range t.ordered() {
		for _, kw := range entry.keywords {
			key := Normalize(kw)
			if prev, ok := seen[key]; ok && prev != entry.category {
				out = append(out, key)
				continue
			}
			seen[key] = entry.category
		}
	}
	return out
}

type keywordSet struct {
	category domain.ReasonCategory
	keywords []string
}

// ordered fixes the resolution priority: fraud, pnr, pna, cnp.
func (t Tables) ordered() []keywordSet {
	return []keywordSet{
		{domain.CategoryFraud, t.Fraud},
		{domain.CategoryProductNotReceived, t.ProductNotReceived},
		{domain.CategoryProductNotAcceptable, t.ProductNotAcceptable},
		{domain.CategoryCreditNotProcessed, t.CreditNotProcessed},
	}
}

// Classifier resolves reasons against an immutable copy of its tables.
type Classifier struct {
	sets   []lookupSet
	logger *slog.Logger
}

type lookupSet struct {
	category domain.ReasonCategory
	keywords map[string]struct{}
}

// New builds a classifier. A nil logger discards warnings.
func New(tables Tables, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Classifier{logger: logger}
	for _, entry := range tables.ordered() {
		set := lookupSet{category: entry.category, keywords: make(map[string]struct{}, len(entry.keywords))}
		for _, kw := range entry.keywords {
			set.keywords[Normalize(kw)] = struct{}{}
		}
		c.sets = append(c.sets, set)
	}
	return c
}

// Classify returns the category for a raw reason. Empty input and unknown
// reasons resolve to fraud; unknown reasons are logged so the tables can be extended.
func (c *Classifier) Classify(raw string) domain.ReasonCategory {
	normalized := Normalize(raw)
	if normalized == "" {
		return domain.CategoryFraud
	}
	for _, set := range c.sets {
		if _, ok := set.keywords[normalized]; ok {
			return set.category
		}
	}
	c.logger.Warn("reason classification fell back to fraud",
		slog.String("reason", raw),
		slog.String("normalized", normalized),
	)
	return domain.CategoryFraud
}

// Normalize lower-cases and trims the reason and turns spaces and hyphens into underscores.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
