package relation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdvance(t *testing.T) {
	tests := []struct {
		in   Type
		want Type
	}{
		{Kissed, Fucked},
		{Fucked, Talked},
		{Talked, Dated},
		{Dated, Kissed},
		{Type("hugged"), Kissed},
		{Type(""), Kissed},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, Advance(tt.in))
		})
	}
}

func TestAdvance_FullCycle(t *testing.T) {
	cur := Default
	for range Ring() {
		cur = Advance(cur)
	}
	assert.Equal(t, Default, cur)
}

func TestStyleFor(t *testing.T) {
	assert.Equal(t, "gradient-kissed", StyleFor(Kissed).Gradient)
	assert.Equal(t, "gradient-dated", StyleFor(Type("legacy")).Gradient)
	assert.False(t, Known(Type("legacy")))
	assert.Len(t, Legend(), 4)
}

func TestRing_ReturnsCopy(t *testing.T) {
	r := Ring()
	r[0] = "mutated"
	assert.Equal(t, Kissed, Ring()[0])
}

func TestPulses_Expire(t *testing.T) {
	now := time.Unix(1000, 0)
	p := NewPulses(func() time.Time { return now })

	p.Start("c1")
	assert.True(t, p.Active("c1"))
	assert.False(t, p.Active("c2"))

	now = now.Add(299 * time.Millisecond)
	assert.Equal(t, map[string]bool{"c1": true}, p.Snapshot())

	now = now.Add(time.Millisecond)
	assert.False(t, p.Active("c1"))
	assert.Empty(t, p.Snapshot())
}

func TestPulses_Restart(t *testing.T) {
	now := time.Unix(0, 0)
	p := NewPulses(func() time.Time { return now })

	p.Start("c1")
	now = now.Add(200 * time.Millisecond)
	p.Start("c1")
	now = now.Add(200 * time.Millisecond)
	assert.True(t, p.Active("c1"))
}
