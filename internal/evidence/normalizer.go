// Package evidence turns the loosely structured reasoning-service response into
// a canonical evidence record.
package evidence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vanshika/chargeback/backend/internal/domain"
)

var (
	// ErrEmptyResponse is returned for an empty reasoning-service body.
	ErrEmptyResponse = errors.New("reasoning response is empty")
	// ErrMalformedResponse is returned when the body is not a JSON object.
	ErrMalformedResponse = errors.New("reasoning response is not a JSON object")
)

// DefaultTenant is used when no tenant label can be resolved.
const DefaultTenant = "default"

// SlotNarrative is the coerced form of one evidence slot in the narrative.
type SlotNarrative struct {
	Present     bool
	Text        string
	Placeholder string
	AVSCode     string
}

// Narrative is the structured record embedded in the reasoning response.
type Narrative struct {
	Reference        string
	TransactionID    string
	Amount           domain.Amount
	Currency         string
	TransactionDate  string
	ChargebackReason string
	Tenant           string
	CustomerName     string
	CustomerGender   string
	Carrier          string
	OpeningStatement string
	ClosingStatement string
	Slots            map[domain.SlotName]SlotNarrative
}

// Slot returns the coerced slot, zero when absent.
func (n Narrative) Slot(name domain.SlotName) SlotNarrative {
	return n.Slots[name]
}

// Normalized is the canonical output of the normalizer.
type Normalized struct {
	Narrative Narrative
	KYC       domain.KYCImages
	Reason    string
	Tenant    string
}

// Normalizer coerces reasoning responses. It never fails on nested fields.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer builds a normalizer. A nil logger discards diagnostics.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Normalizer{logger: logger}
}

// NormalizeJSON decodes a raw response body. Only an empty or undecodable body
// is an error; a single-element array wrapping the object is accepted.
func (n *Normalizer) NormalizeJSON(body []byte) (Normalized, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Normalized{}, ErrEmptyResponse
	}
	doc, err := decode(body)
	if err != nil {
		return Normalized{}, fmt.Errorf("decode reasoning response: %w", err)
	}
	switch v := doc.(type) {
	case map[string]any:
		return n.Normalize(v), nil
	case []any:
		if len(v) == 1 {
			if obj, ok := v[0].(map[string]any); ok {
				return n.Normalize(obj), nil
			}
		}
	}
	return Normalized{}, ErrMalformedResponse
}

// Normalize extracts the canonical record from a decoded response.
func (n *Normalizer) Normalize(resp map[string]any) Normalized {
	data := n.unwrapOutput(resp)

	out := Normalized{
		Narrative: narrativeFrom(data),
		KYC:       kycFrom(resp["kyc_images"]),
	}

	// Explicit precedence: top-level reason, then the narrative's chargeback_reason.
	out.Reason = firstNonEmpty(
		stringOf(resp["reason"]),
		out.Narrative.ChargebackReason,
	)

	// Explicit precedence: tenant, tenant_name, narrative tenant, "default".
	out.Tenant = firstNonEmpty(
		sanitizeString(stringOf(resp["tenant"])),
		sanitizeString(stringOf(resp["tenant_name"])),
		sanitizeString(out.Narrative.Tenant),
		DefaultTenant,
	)
	return out
}

func (n *Normalizer) unwrapOutput(resp map[string]any) map[string]any {
	raw, ok := resp["output"]
	if !ok || raw == nil {
		return map[string]any{}
	}
	switch v := raw.(type) {
	case map[string]any:
		return v
	case string:
		doc, err := decode([]byte(v))
		if err != nil {
			n.logger.Warn("reasoning output is not valid JSON, continuing without structured data",
				slog.String("error", err.Error()),
			)
			return map[string]any{}
		}
		if obj, ok := doc.(map[string]any); ok {
			return obj
		}
		n.logger.Warn("reasoning output is not a JSON object, continuing without structured data")
	default:
		n.logger.Warn("reasoning output has unexpected type", slog.String("type", fmt.Sprintf("%T", raw)))
	}
	return map[string]any{}
}

func decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func narrativeFrom(data map[string]any) Narrative {
	n := Narrative{
		Reference:        stringOf(data["reference"]),
		TransactionID:    stringOf(data["transaction_id"]),
		Amount:           amountOf(data["amount"]),
		Currency:         stringOf(data["currency"]),
		TransactionDate:  stringOf(data["transaction_date"]),
		ChargebackReason: stringOf(data["chargeback_reason"]),
		Tenant:           stringOf(data["tenant"]),
		CustomerName:     stringOf(data["customer_name"]),
		CustomerGender:   stringOf(data["customer_gender"]),
		Carrier:          stringOf(data["carrier"]),
		OpeningStatement: stringOf(data["opening_statement"]),
		ClosingStatement: stringOf(data["closing_statement"]),
		Slots:            make(map[domain.SlotName]SlotNarrative),
	}
	for _, name := range domain.SlotOrder {
		if slot := coerceSlot(data[string(name)]); slot.Present {
			n.Slots[name] = slot
		}
	}
	return n
}

func coerceSlot(v any) SlotNarrative {
	switch t := v.(type) {
	case nil:
		return SlotNarrative{}
	case string:
		if t == "" {
			return SlotNarrative{}
		}
		return SlotNarrative{Present: true, Text: t}
	case map[string]any:
		if len(t) == 0 {
			return SlotNarrative{}
		}
		return SlotNarrative{
			Present:     true,
			Text:        stringOf(t["text"]),
			Placeholder: stringOf(t["proof_placeholder"]),
			AVSCode:     strings.ToUpper(firstNonEmpty(stringOf(t["avs_result_code"]), stringOf(t["avs_code"]))),
		}
	case bool:
		return SlotNarrative{Present: t}
	case []any:
		return SlotNarrative{Present: len(t) > 0}
	case json.Number:
		return SlotNarrative{Present: t.String() != "0"}
	case float64:
		return SlotNarrative{Present: t != 0}
	}
	return SlotNarrative{}
}

func kycFrom(v any) domain.KYCImages {
	m, ok := v.(map[string]any)
	if !ok {
		return domain.KYCImages{}
	}
	return domain.KYCImages{
		IDCard: stringOf(m["id_card"]),
		Selfie: stringOf(m["selfie"]),
		Card:   stringOf(m["card"]),
	}
}

// amountOf keeps numeric values exact and passes anything else through verbatim.
func amountOf(v any) domain.Amount {
	switch t := v.(type) {
	case nil:
		return domain.NumericAmount(decimal.Zero)
	case json.Number:
		if d, err := decimal.NewFromString(t.String()); err == nil {
			return domain.NumericAmount(d)
		}
		return domain.RawAmount(t.String())
	case float64:
		return domain.NumericAmount(decimal.NewFromFloat(t))
	case int:
		return domain.NumericAmount(decimal.NewFromInt(int64(t)))
	case int64:
		return domain.NumericAmount(decimal.NewFromInt(t))
	case string:
		return domain.RawAmount(t)
	}
	return domain.RawAmount(fmt.Sprint(v))
}

func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "true"
		}
		return ""
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
