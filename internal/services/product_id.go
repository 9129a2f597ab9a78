package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"
)

// ProductIDStore is the store surface the identifier generator needs
type ProductIDStore interface {
	ProductIDExists(ctx context.Context, productID string) (bool, error)
}

// maxIDAttempts bounds the collision retry loop. The store additionally
// enforces uniqueness with a constraint on product_id, so exhausting the
// loop can only reject a creation, never corrupt the ledger.
const maxIDAttempts = 5

// ProductIDGenerator derives candidate product identifiers from a product
// name and a millisecond clock: the first three letters of the name,
// upper-cased (names with fewer letters yield a shorter prefix), followed by
// the six least-significant digits of the timestamp. On collision a random
// two-digit suffix is appended and the candidate re-checked, up to
// maxIDAttempts times.
type ProductIDGenerator struct {
	store ProductIDStore
	now   func() time.Time
}

// NewProductIDGenerator creates a generator backed by the given store
func NewProductIDGenerator(store ProductIDStore) *ProductIDGenerator {
	return &ProductIDGenerator{
		store: store,
		now:   time.Now,
	}
}

// Generate returns a product identifier not currently present in the store.
// The result is probably unique: a concurrent creation can still take the
// identifier between the check and the insert, which the store's unique
// constraint turns into a retryable error for the caller.
func (g *ProductIDGenerator) Generate(ctx context.Context, name string) (string, error) {
	base := productIDPrefix(name) + fmt.Sprintf("%06d", g.now().UnixMilli()%1_000_000)

	candidate := base
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		exists, err := g.store.ProductIDExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check product id %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%02d", base, rand.Intn(100))
	}

	return "", fmt.Errorf("could not find a free product id for %q after %d attempts", name, maxIDAttempts)
}

// productIDPrefix returns up to the first three letters of a name, upper-cased
func productIDPrefix(name string) string {
	var b strings.Builder
	count := 0
	for _, r := range name {
		if !unicode.IsLetter(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		count++
		if count == 3 {
			break
		}
	}
	return b.String()
}
