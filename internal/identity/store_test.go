package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/chargeback/backend/internal/domain"
)

type mapGetter struct {
	values map[string]string
	keys   []string
	err    error
}

func (m *mapGetter) Get(_ context.Context, key string) (string, bool, error) {
	m.keys = append(m.keys, key)
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func TestLookup_TriesKeyVariantsInOrder(t *testing.T) {
	g := &mapGetter{values: map[string]string{
		`"+15551234567"`: "null",
		"15551234567":    `{"firstname": "Ana", "lastname": "Diaz", "gender": "F", "age_range": "30-34", "alternate_names": ["A. Diaz"]}`,
	}}

	rec, err := New(g).Lookup(context.Background(), "(555) 123-4567")
	require.NoError(t, err)
	assert.Equal(t, []string{"+15551234567", `"+15551234567"`, "15551234567"}, g.keys)
	assert.Equal(t, "Ana Diaz", rec.DisplayName())
	assert.Equal(t, "(555) 123-4567", rec.Phone)
	assert.Equal(t, []domain.Field{
		{Label: domain.FieldPhoneNumber, Value: "(555) 123-4567"},
		{Label: "Name:", Value: "Ana Diaz"},
		{Label: "Age Range:", Value: "30-34"},
		{Label: "Gender:", Value: "Female"},
		{Label: "Alternate Names:", Value: "A. Diaz"},
	}, rec.Rows())
}

func TestLookup_NonJSONValueIsAName(t *testing.T) {
	g := &mapGetter{values: map[string]string{"+442071234567": "John Smith"}}
	rec, err := New(g).Lookup(context.Background(), "+442071234567")
	require.NoError(t, err)
	assert.Equal(t, "John Smith", rec.Name)
}

func TestLookup_NoMatch(t *testing.T) {
	g := &mapGetter{values: map[string]string{"+15551234567": "null"}}
	_, err := New(g).Lookup(context.Background(), "5551234567")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = New(g).Lookup(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestLookup_StoreError(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := New(&mapGetter{err: boom}).Lookup(context.Background(), "5551234567")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNoMatch)
}
