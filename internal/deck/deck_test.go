package deck

import (
	"testing"

	"github.com/pokertutor/pokertutor/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeckHas52UniqueCards(t *testing.T) {
	t.Parallel()

	d := New()
	require.Equal(t, 52, d.Remaining())

	seen := make(map[Card]bool)
	for d.Remaining() > 0 {
		c := d.Draw()
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}

func TestDrawRemovesCard(t *testing.T) {
	t.Parallel()

	d := New()
	d.Draw()
	assert.Equal(t, 51, d.Remaining())
}

func TestDrawFromEmptyDeckPanics(t *testing.T) {
	t.Parallel()

	d := New()
	for d.Remaining() > 0 {
		d.Draw()
	}
	require.PanicsWithValue(t, "deck: draw from empty deck", func() {
		d.Draw()
	})
}

func TestResetRestocksAndReshuffles(t *testing.T) {
	t.Parallel()

	d := New()
	for i := 0; i < 10; i++ {
		d.Draw()
	}
	require.Equal(t, 42, d.Remaining())

	d.Reset()
	assert.Equal(t, 52, d.Remaining())
}

func TestShuffleIsDeterministicPerSeed(t *testing.T) {
	t.Parallel()

	a := NewWithRNG(randutil.New(42))
	b := NewWithRNG(randutil.New(42))
	for i := 0; i < 52; i++ {
		assert.Equal(t, a.Draw(), b.Draw(), "card %d differs", i)
	}

	c := NewWithRNG(randutil.New(1))
	d := NewWithRNG(randutil.New(2))
	same := true
	for i := 0; i < 52; i++ {
		if c.Draw() != d.Draw() {
			same = false
			break
		}
	}
	assert.False(t, same, "different seeds produced identical shuffles")
}
