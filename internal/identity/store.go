// Package identity looks up public-records matches for a phone number in the
// identity-record store.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/vanshika/chargeback/backend/internal/domain"
	"github.com/vanshika/chargeback/backend/internal/evidence"
)

// ErrNoMatch is returned when no key variant of the phone holds a record.
var ErrNoMatch = errors.New("no identity record for phone")

// Getter reads raw values by key. ok is false for missing keys.
type Getter interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
}

// Store resolves identity records.
type Store struct {
	getter Getter
}

// New wraps a Getter.
func New(getter Getter) *Store {
	return &Store{getter: getter}
}

// Connect initializes a Redis client from a redis:// URL or a host:port address.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisGetter adapts a go-redis client.
type RedisGetter struct {
	Client redis.Cmdable
}

// Get implements Getter.
func (g RedisGetter) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := g.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Ping checks connectivity to the store.
func (g RedisGetter) Ping(ctx context.Context) error {
	return g.Client.Ping(ctx).Err()
}

type record struct {
	Name                 string   `json:"name"`
	FirstName            string   `json:"firstname"`
	MiddleName           string   `json:"middlename"`
	LastName             string   `json:"lastname"`
	AgeRange             string   `json:"age_range"`
	Gender               string   `json:"gender"`
	LinkToPhoneStartDate string   `json:"link_to_phone_start_date"`
	Type                 string   `json:"type"`
	Industry             string   `json:"industry"`
	AlternateNames       []string `json:"alternate_names"`
}

// Lookup normalizes the phone and tries each key variant in turn. The queried
// number is attached to the returned record.
func (s *Store) Lookup(ctx context.Context, phone string) (domain.IdentityRecord, error) {
	normalized := evidence.NormalizePhone(phone)
	if normalized == "" {
		return domain.IdentityRecord{}, fmt.Errorf("%w: empty phone number", ErrNoMatch)
	}

	for _, key := range evidence.PhoneKeys(normalized) {
		raw, ok, err := s.getter.Get(ctx, key)
		if err != nil {
			return domain.IdentityRecord{}, fmt.Errorf("get identity record %s: %w", key, err)
		}
		if !ok || raw == "" || raw == "null" {
			continue
		}
		rec, ok := parse(raw)
		if !ok {
			continue
		}
		rec.Phone = phone
		return rec, nil
	}
	return domain.IdentityRecord{}, fmt.Errorf("%w %s", ErrNoMatch, normalized)
}

// parse decodes a stored value. Values that are not JSON are taken as a bare name.
func parse(raw string) (domain.IdentityRecord, bool) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return domain.IdentityRecord{Name: raw}, true
	}
	switch t := v.(type) {
	case nil:
		return domain.IdentityRecord{}, false
	case string:
		if t == "" {
			return domain.IdentityRecord{}, false
		}
		return domain.IdentityRecord{Name: t}, true
	case map[string]any:
		var r record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return domain.IdentityRecord{}, false
		}
		return domain.IdentityRecord{
			Name:                 r.Name,
			FirstName:            r.FirstName,
			MiddleName:           r.MiddleName,
			LastName:             r.LastName,
			AgeRange:             r.AgeRange,
			Gender:               r.Gender,
			LinkToPhoneStartDate: r.LinkToPhoneStartDate,
			RecordType:           r.Type,
			Industry:             r.Industry,
			AlternateNames:       r.AlternateNames,
		}, true
	}
	return domain.IdentityRecord{}, false
}
