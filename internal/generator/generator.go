package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/vanshika/chargeback/backend/internal/service"
)

// Dataset contains the generated evidence records.
type Dataset struct {
	Evidence []service.EvidenceInput `json:"evidence" yaml:"evidence"`
}

// Generator produces synthetic evidence records aligned with the graph schema
// the document pipeline reads.
type Generator struct {
	cfg       Config
	rand      *rand.Rand
	fragments fragments
	pools     attributePools
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumPayments <= 0 {
		cfg.NumPayments = def.NumPayments
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = def.MaxSessions
	}
	cfg.IPShareChance = clamp(cfg.IPShareChance)
	cfg.DeviceShareChance = clamp(cfg.DeviceShareChance)
	cfg.FarShippingChance = clamp(cfg.FarShippingChance)
	cfg.BotChance = clamp(cfg.BotChance)
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Reference.IsZero() {
		cfg.Reference = time.Now().UTC()
	}

	return &Generator{
		cfg:       cfg,
		rand:      rand.New(rand.NewSource(cfg.Seed)),
		fragments: defaultFragments(),
	}
}

// Generate synthesises one evidence record per payment. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	out := make([]service.EvidenceInput, g.cfg.NumPayments)

	for i := range out {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}

		createdAt := g.cfg.Reference.Add(-time.Duration(g.rand.Intn(90*24*60)) * time.Minute)
		first, last := g.randomName()
		home := g.randomCity()
		ip := g.maybeShared(&g.pools.ips, g.cfg.IPShareChance, g.randomIP)

		billing := g.near(home, 0.05)
		shipping := g.near(home, 0.05)
		if g.rand.Float64() < g.cfg.FarShippingChance {
			shipping = g.near(g.otherCity(home), 0.05)
		}
		origin := g.near(home, 0.3)

		out[i] = service.EvidenceInput{
			PaymentID:         fmt.Sprintf("pay_%06d", i+1),
			ExternalReference: fmt.Sprintf("#%d", 1001+i),
			CreatedAt:         &createdAt,
			PayerName:         first,
			PayerSurname:      last,
			Email:             g.randomEmail(first, last),
			Mobile:            g.randomPhone(),
			IP:                ip,
			DeviceSignature:   g.maybeShared(&g.pools.devices, g.cfg.DeviceShareChance, g.randomDevice),
			BillingAddress:    billing.Address,
			Intel: &service.IPIntelInput{
				Country:     "United States",
				CountryCode: "US",
				City:        home.name,
				Region:      home.state,
				Postal:      fmt.Sprintf("%05d", g.rand.Intn(99999)),
				Timezone:    home.timezone,
				ISP:         g.fragments.isps[g.rand.Intn(len(g.fragments.isps))],
				Proxy:       g.rand.Float64() < 0.03,
				Latitude:    &origin.Latitude,
				Longitude:   &origin.Longitude,
			},
			Locations: []service.LocationInput{
				withLabel(billing, "billing"),
				withLabel(shipping, "shipping"),
			},
			Sessions: g.sessions(createdAt, ip),
		}
	}

	return Dataset{Evidence: out}, nil
}

type attributePools struct {
	ips     []string
	devices []string
}

func (g *Generator) maybeShared(pool *[]string, chance float64, newValue func() string) string {
	if len(*pool) > 0 && g.rand.Float64() < chance {
		return (*pool)[g.rand.Intn(len(*pool))]
	}
	val := newValue()
	*pool = append(*pool, val)
	return val
}

// sessions records browsing activity that ends shortly before the order.
func (g *Generator) sessions(orderAt time.Time, ip string) []service.SessionInput {
	count := 1 + g.rand.Intn(g.cfg.MaxSessions)
	out := make([]service.SessionInput, 0, count)
	end := orderAt
	for i := 0; i < count; i++ {
		duration := time.Duration(30+g.rand.Intn(1800)) * time.Second
		start := end.Add(-duration)
		sessionEnd := end
		bot := g.rand.Float64() < g.cfg.BotChance

		clicks, moves := 3+g.rand.Intn(40), 50+g.rand.Intn(900)
		if bot {
			clicks, moves = g.rand.Intn(3), 0
		}
		out = append(out, service.SessionInput{
			ID:              fmt.Sprintf("sess_%08x", g.rand.Uint32()),
			Start:           &start,
			End:             &sessionEnd,
			DurationSeconds: duration.Seconds(),
			IPAddresses:     []string{ip},
			PreviousOrders:  g.rand.Intn(4),
			Clicks:          clicks,
			Moves:           moves,
			UserAgents:      []string{g.fragments.userAgents[g.rand.Intn(len(g.fragments.userAgents))]},
			Bot:             bot,
		})
		end = start.Add(-time.Duration(1+g.rand.Intn(72)) * time.Hour)
	}
	return out
}

type city struct {
	name     string
	state    string
	timezone string
	lat, lng float64
}

type place struct {
	Latitude, Longitude float64
	Address             string
	City, Region        string
}

func withLabel(p place, label string) service.LocationInput {
	return service.LocationInput{
		Label:     label,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Address:   p.Address,
		City:      p.City,
		Region:    p.Region,
		Country:   "US",
	}
}

// near returns a street address within spread degrees of the city centre.
func (g *Generator) near(c city, spread float64) place {
	return place{
		Latitude:  round4(c.lat + (g.rand.Float64()*2-1)*spread),
		Longitude: round4(c.lng + (g.rand.Float64()*2-1)*spread),
		Address:   fmt.Sprintf("%s, %s, %s", g.randomStreet(), c.name, c.state),
		City:      c.name,
		Region:    c.state,
	}
}

func (g *Generator) randomCity() city {
	return g.fragments.cities[g.rand.Intn(len(g.fragments.cities))]
}

func (g *Generator) otherCity(c city) city {
	for {
		other := g.randomCity()
		if other.name != c.name {
			return other
		}
	}
}

func (g *Generator) randomName() (string, string) {
	return g.fragments.first[g.rand.Intn(len(g.fragments.first))],
		g.fragments.last[g.rand.Intn(len(g.fragments.last))]
}

func (g *Generator) randomEmail(first, last string) string {
	domain := g.fragments.domains[g.rand.Intn(len(g.fragments.domains))]
	return fmt.Sprintf("%s.%s%d@%s", first, last, g.rand.Intn(100), domain)
}

func (g *Generator) randomPhone() string {
	return fmt.Sprintf("+1%03d%03d%04d", g.rand.Intn(900)+100, g.rand.Intn(900)+100, g.rand.Intn(10000))
}

func (g *Generator) randomStreet() string {
	return fmt.Sprintf("%d %s %s", g.rand.Intn(9999)+1,
		g.fragments.streetNames[g.rand.Intn(len(g.fragments.streetNames))],
		g.fragments.streetSuffix[g.rand.Intn(len(g.fragments.streetSuffix))])
}

func (g *Generator) randomIP() string {
	return fmt.Sprintf("%d.%d.%d.%d", g.rand.Intn(223)+1, g.rand.Intn(256), g.rand.Intn(256), 1+g.rand.Intn(254))
}

func (g *Generator) randomDevice() string {
	return fmt.Sprintf("dev-%012x", g.rand.Int63n(1<<48))
}

func round4(v float64) float64 {
	return float64(int64(v*10000)) / 10000
}

func clamp(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

type fragments struct {
	first        []string
	last         []string
	domains      []string
	streetNames  []string
	streetSuffix []string
	cities       []city
	isps         []string
	userAgents   []string
}

func defaultFragments() fragments {
	return fragments{
		first:        []string{"Jane", "John", "Alex", "Priya", "Liu", "Maria", "Omar", "Sofia", "Noah", "Emma", "Lucas", "Mia", "Ava", "Ethan", "Zara"},
		last:         []string{"Doe", "Smith", "Chen", "Patel", "Garcia", "Khan", "Kim", "Ivanov", "Nguyen", "Silva", "Brown", "Lee"},
		domains:      []string{"example.com", "mail.com", "inbox.net", "shopper.org"},
		streetNames:  []string{"Market", "Mission", "Broadway", "Fifth", "Sunset", "Park", "Cedar", "Oak", "Pine", "Ash"},
		streetSuffix: []string{"St", "Ave", "Blvd", "Ln", "Rd", "Way"},
		cities: []city{
			{"New York", "NY", "America/New_York", 40.7128, -74.0060},
			{"Newark", "NJ", "America/New_York", 40.7357, -74.1724},
			{"Chicago", "IL", "America/Chicago", 41.8781, -87.6298},
			{"Austin", "TX", "America/Chicago", 30.2672, -97.7431},
			{"Denver", "CO", "America/Denver", 39.7392, -104.9903},
			{"Seattle", "WA", "America/Los_Angeles", 47.6062, -122.3321},
			{"Los Angeles", "CA", "America/Los_Angeles", 34.0522, -118.2437},
			{"Miami", "FL", "America/New_York", 25.7617, -80.1918},
			{"Boston", "MA", "America/New_York", 42.3601, -71.0589},
		},
		isps:       []string{"Comcast Cable", "Verizon Fios", "AT&T Internet", "Spectrum", "T-Mobile USA"},
		userAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
			"Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Mobile Safari/537.36",
		},
	}
}
