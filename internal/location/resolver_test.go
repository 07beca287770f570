package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantKey     string
		wantDisplay string
		wantErr     error
	}{
		{name: "simple", input: "Mumbai", wantKey: "mumbai", wantDisplay: "Mumbai"},
		{name: "surrounding whitespace", input: "  New York  ", wantKey: "new york", wantDisplay: "New York"},
		{name: "mixed case", input: "kAkInAdA", wantKey: "kakinada", wantDisplay: "Kakinada"},
		{name: "multi word lowered", input: "SAO PAULO", wantKey: "sao paulo", wantDisplay: "Sao Paulo"},
		{name: "too short", input: "x", wantErr: ErrInvalidInput},
		{name: "whitespace only", input: "   ", wantErr: ErrInvalidInput},
		{name: "empty", input: "", wantErr: ErrInvalidInput},
		{name: "two runes is enough", input: "Ny", wantKey: "ny", wantDisplay: "Ny"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, display, err := Canonicalize(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantDisplay, display)
		})
	}
}

func TestSeedDeterministic(t *testing.T) {
	s1 := Seed("mumbai")
	s2 := Seed("mumbai")
	assert.Equal(t, s1, s2)
	assert.GreaterOrEqual(t, s1, int64(0))
	assert.Less(t, s1, int64(1_000_000))

	assert.NotEqual(t, Seed("mumbai"), Seed("delhi"))
}

func TestResolveExactMatch(t *testing.T) {
	r := NewResolver()

	loc, err := r.Resolve("Mumbai")
	require.NoError(t, err)

	assert.Equal(t, "mumbai", loc.Key)
	assert.Equal(t, "Mumbai", loc.DisplayName)
	assert.Equal(t, MatchExact, loc.Match)
	assert.InDelta(t, 19.0760, loc.Coordinates.Lat, 1e-9)
	assert.InDelta(t, 72.8777, loc.Coordinates.Lon, 1e-9)
}

func TestResolveSubstringMatch(t *testing.T) {
	r := NewResolver()

	// Table key contained in the input.
	loc, err := r.Resolve("Greater Mumbai Metropolitan Area")
	require.NoError(t, err)
	assert.Equal(t, MatchSubstring, loc.Match)
	assert.InDelta(t, 19.0760, loc.Coordinates.Lat, 1e-9)

	// Input contained in a table key.
	loc, err = r.Resolve("kakina")
	require.NoError(t, err)
	assert.Equal(t, MatchSubstring, loc.Match)
	assert.InDelta(t, 16.9891, loc.Coordinates.Lat, 1e-9)
}

func TestResolveSubstringMultipleCandidates(t *testing.T) {
	r := NewResolver()

	// Matches both "delhi" and "mumbai"; table order picks "delhi" every time.
	first, err := r.Resolve("Delhi Mumbai")
	require.NoError(t, err)
	assert.Equal(t, MatchSubstring, first.Match)
	assert.InDelta(t, 28.7041, first.Coordinates.Lat, 1e-9)
	assert.InDelta(t, 77.1025, first.Coordinates.Lon, 1e-9)

	for i := 0; i < 200; i++ {
		again, err := r.Resolve("Delhi Mumbai")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestResolveRegionKeyword(t *testing.T) {
	r := NewResolver()

	loc, err := r.Resolve("Araku Valley, Andhra Pradesh")
	require.NoError(t, err)
	assert.Equal(t, MatchRegion, loc.Match)

	// Inside the India region bounds.
	assert.InDelta(t, 20.5937, loc.Coordinates.Lat, 12.0)
	assert.InDelta(t, 78.9629, loc.Coordinates.Lon, 15.0)
}

func TestResolveDefaultRegion(t *testing.T) {
	r := NewResolver()

	loc, err := r.Resolve("Zzyx")
	require.NoError(t, err)
	assert.Equal(t, MatchDefault, loc.Match)
	assert.InDelta(t, 25.0, loc.Coordinates.Lat, 10.0)
	assert.InDelta(t, 50.0, loc.Coordinates.Lon, 20.0)
}

func TestResolveDeterministic(t *testing.T) {
	r := NewResolver()

	inputs := []string{"Zzyx", "Araku Valley, Andhra Pradesh", "somewhere remote", "Mumbai"}
	for _, in := range inputs {
		first, err := r.Resolve(in)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := r.Resolve(in)
			require.NoError(t, err)
			assert.Equal(t, first, again, "input %q must resolve identically", in)
		}
	}
}

func TestResolveCaseAndWhitespaceInsensitive(t *testing.T) {
	r := NewResolver()

	a, err := r.Resolve("  ZZYX  ")
	require.NoError(t, err)
	b, err := r.Resolve("zzyx")
	require.NoError(t, err)

	assert.Equal(t, a.Key, b.Key)
	assert.Equal(t, a.Coordinates, b.Coordinates)
}

func TestResolveInvalidInput(t *testing.T) {
	r := NewResolver()

	_, err := r.Resolve(" a ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
