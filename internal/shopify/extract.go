package shopify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vanshika/chargeback/backend/internal/domain"
)

const createdLayout = "Jan 02, 2006, 03:04 PM"

// primary picks the first successful authorization, capture or sale, falling
// back to the first transaction.
func primary(txns []Transaction, kinds ...string) (Transaction, bool) {
	for _, t := range txns {
		if t == nil || str(t["status"]) != "success" {
			continue
		}
		kind := str(t["kind"])
		for _, k := range kinds {
			if kind == k {
				return t, true
			}
		}
	}
	for _, t := range txns {
		if t != nil {
			return t, true
		}
	}
	return nil, false
}

// charge resolves the gateway charge object of a receipt. latest_charge may be
// an id string, in which case the first entry of charges.data is used.
func charge(receipt map[string]any) map[string]any {
	if c := obj(receipt["latest_charge"]); c != nil {
		return c
	}
	charges := obj(receipt["charges"])
	if data, ok := charges["data"].([]any); ok && len(data) > 0 {
		if c := obj(data[0]); c != nil {
			return c
		}
	}
	return map[string]any{}
}

// ExtractCard summarises the card behind an order's primary transaction.
func ExtractCard(txns []Transaction, reference string) (domain.CardDetails, bool) {
	txn, ok := primary(txns, "authorization", "capture", "sale")
	if !ok {
		return domain.CardDetails{}, false
	}
	details := orEmpty(obj(txn["payment_details"]))
	ch := charge(orEmpty(obj(txn["receipt"])))
	outcome := orEmpty(obj(ch["outcome"]))
	method := orEmpty(obj(ch["payment_method_details"]))
	card := orEmpty(obj(method["card"]))

	last4 := str(card["last4"])
	if last4 == "" {
		digits := []rune(strings.NewReplacer("•", "", " ", "").Replace(str(details["credit_card_number"])))
		if len(digits) >= 4 {
			last4 = string(digits[len(digits)-4:])
		} else {
			last4 = "****"
		}
	}

	brand := str(details["credit_card_company"])
	if brand == "" {
		brand = titleWords(str(card["brand"]))
	}
	if brand == "" && str(method["type"]) == "affirm" {
		brand = "Affirm"
	}
	if brand == "" && strings.Contains(strings.ToLower(str(details["payment_method_name"])), "installments") {
		brand = "Shop Pay Installments"
	}
	if brand == "" {
		brand = "Card"
	}

	message := str(outcome["seller_message"])
	if message == "" {
		message = "Payment complete."
	}
	amount := str(txn["amount"])
	if amount == "" {
		amount = "0.00"
	}

	return domain.CardDetails{
		OrderNumber:    reference,
		Brand:          brand,
		Last4:          last4,
		CardholderName: str(details["credit_card_name"]),
		Authorization:  str(txn["authorization"]),
		Message:        message,
		Amount:         "$" + amount,
		Gateway:        titleWords(strings.ReplaceAll(str(txn["gateway"]), "_", " ")),
		Status:         titleWords(str(txn["status"])),
		Kind:           titleWords(str(txn["kind"])),
		Created:        formatCreated(str(txn["created_at"])),
	}, true
}

// ExtractAVS collects the address-verification results of an order's primary
// authorization or capture.
func ExtractAVS(txns []Transaction, reference string) (domain.AVSDetails, bool) {
	txn, ok := primary(txns, "authorization", "capture")
	if !ok {
		return domain.AVSDetails{}, false
	}
	details := orEmpty(obj(txn["payment_details"]))
	ch := charge(orEmpty(obj(txn["receipt"])))
	outcome := orEmpty(obj(ch["outcome"]))
	card := orEmpty(obj(orEmpty(obj(ch["payment_method_details"]))["card"]))
	checks := orEmpty(obj(card["checks"]))

	brand := str(details["credit_card_company"])
	if brand == "" {
		brand = titleWords(str(card["brand"]))
	}
	number := str(details["credit_card_number"])
	if number == "" {
		last4 := str(card["last4"])
		if last4 == "" {
			last4 = "****"
		}
		number = "•••• •••• •••• " + last4
	}

	return domain.AVSDetails{
		OrderNumber:       reference,
		Brand:             brand,
		CardNumber:        number,
		CardType:          str(card["description"]),
		Funding:           titleWords(str(card["funding"])),
		CardholderName:    str(details["credit_card_name"]),
		ExpMonth:          firstNonEmpty(str(card["exp_month"]), str(details["credit_card_expiration_month"])),
		ExpYear:           firstNonEmpty(str(card["exp_year"]), str(details["credit_card_expiration_year"])),
		Issuer:            str(card["issuer"]),
		Country:           str(card["country"]),
		BIN:               firstNonEmpty(str(card["iin"]), str(details["credit_card_bin"])),
		AVSCode:           strings.ToUpper(str(details["avs_result_code"])),
		AddressCheck:      str(checks["address_line1_check"]),
		ZipCheck:          str(checks["address_postal_code_check"]),
		CVCCheck:          str(checks["cvc_check"]),
		AuthorizationCode: str(card["authorization_code"]),
		NetworkStatus:     titleWords(strings.ReplaceAll(str(outcome["network_status"]), "_", " ")),
		RiskLevel:         titleWords(str(outcome["risk_level"])),
		SellerMessage:     str(outcome["seller_message"]),
	}, true
}

func formatCreated(raw string) string {
	if raw == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.Format(createdLayout)
}

func obj(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func str(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
