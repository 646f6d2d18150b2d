package generator

import "time"

// Config drives the synthetic evidence generator.
type Config struct {
	NumPayments int
	// MaxSessions bounds the browsing sessions recorded per payment.
	MaxSessions       int
	IPShareChance     float64
	DeviceShareChance float64
	// FarShippingChance is the probability that the shipping address lies
	// outside the proximity threshold of the billing address.
	FarShippingChance float64
	BotChance         float64
	Seed              int64
	// Reference anchors generated timestamps. Zero means now.
	Reference time.Time
}

// DefaultConfig returns settings for a small local dataset.
func DefaultConfig() Config {
	return Config{
		NumPayments:       500,
		MaxSessions:       3,
		IPShareChance:     0.1,
		DeviceShareChance: 0.15,
		FarShippingChance: 0.2,
		BotChance:         0.05,
		Seed:              42,
	}
}
