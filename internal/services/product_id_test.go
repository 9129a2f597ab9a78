package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIDStore records taken product ids
type fakeIDStore struct {
	taken map[string]bool
}

func (f *fakeIDStore) ProductIDExists(ctx context.Context, productID string) (bool, error) {
	return f.taken[productID], nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGenerate(t *testing.T) {
	gen := NewProductIDGenerator(&fakeIDStore{taken: map[string]bool{}})
	gen.now = fixedClock(time.UnixMilli(1700000123456))

	id, err := gen.Generate(context.Background(), "Basmati Rice")
	require.NoError(t, err)
	assert.Equal(t, "BAS123456", id)
}

func TestGenerate_Prefix(t *testing.T) {
	gen := NewProductIDGenerator(&fakeIDStore{taken: map[string]bool{}})
	gen.now = fixedClock(time.UnixMilli(1700000000000))

	tests := []struct {
		name string
		want string
	}{
		{"rice", "RIC000000"},
		{"Tea", "TEA000000"},
		{"Ox", "OX000000"},
		{" 7-Up ", "UP000000"},
	}

	for _, tt := range tests {
		id, err := gen.Generate(context.Background(), tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, id, "name %q", tt.name)
	}
}

func TestGenerate_Collision(t *testing.T) {
	store := &fakeIDStore{taken: map[string]bool{"SUG123456": true}}
	gen := NewProductIDGenerator(store)
	gen.now = fixedClock(time.UnixMilli(1700000123456))

	id, err := gen.Generate(context.Background(), "Sugar")
	require.NoError(t, err)
	assert.NotEqual(t, "SUG123456", id)
	assert.Regexp(t, `^SUG123456[0-9]{2}$`, id)
}

func TestGenerate_Exhausted(t *testing.T) {
	// Every candidate is taken, so the bounded retry loop must give up
	store := &fakeIDStore{taken: map[string]bool{}}
	gen := NewProductIDGenerator(store)
	gen.now = fixedClock(time.UnixMilli(1700000123456))

	store.taken["SUG123456"] = true
	for i := 0; i < 100; i++ {
		store.taken[fmt.Sprintf("SUG123456%02d", i)] = true
	}

	_, err := gen.Generate(context.Background(), "Sugar")
	assert.Error(t, err)
}
