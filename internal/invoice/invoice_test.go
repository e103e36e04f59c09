package invoice

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextFormat(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*60*60)
	clock := func() time.Time { return time.Date(2026, 5, 31, 22, 30, 0, 0, time.UTC) }
	g := NewGenerator(nairobi, WithClock(clock))

	inv, err := g.Next()
	require.NoError(t, err)
	assert.True(t, Valid(inv), inv)
	assert.True(t, strings.HasPrefix(inv, "INV-20260601-"), "date follows the business time zone: %s", inv)
}

func TestNextIsMostlyUnique(t *testing.T) {
	g := NewGenerator(time.UTC)
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		inv, err := g.Next()
		require.NoError(t, err)
		require.True(t, Valid(inv))
		seen[inv] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}

func TestNextSkipsBiasedBytes(t *testing.T) {
	random := bytes.NewReader(append(bytes.Repeat([]byte{255}, 16), bytes.Repeat([]byte{0, 35}, 8)...))
	g := NewGenerator(time.UTC, WithRandom(random), WithClock(func() time.Time {
		return time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	}))

	inv, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, "INV-20260109-A9A9A9A9", inv)
}

func TestNextRandomFailure(t *testing.T) {
	g := NewGenerator(time.UTC, WithRandom(bytes.NewReader(nil)))

	_, err := g.Next()
	assert.Error(t, err)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("INV-20260101-ABCD1234"))
	assert.False(t, Valid("INV-2026011-ABCD1234"))
	assert.False(t, Valid("INV-20260101-abcd1234"))
	assert.False(t, Valid("ORD-20260101-ABCD1234"))
}
