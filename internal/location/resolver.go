package location

import (
	"sort"
	"strings"
)

// Resolver maps free-text place names to coordinates.
//
// Resolution order, first match wins:
//  1. exact match against the city table
//  2. case-insensitive substring match (either direction) against table keys
//  3. region-keyword heuristic: coarse region center plus deterministic jitter
//  4. global default region with the same jitter rule
//
// Resolve is pure and total: any name that passes validation resolves to the
// same coordinates on every call, with no clock or unseeded randomness.
type Resolver struct {
	cities    map[string]Coordinates
	cityOrder []string
	regions   []region
	fallback  region
}

// region is a coarse geographic area addressed by name keywords.
type region struct {
	keywords  []string
	center    Coordinates
	latRadius float64
	lonRadius float64
}

// NewResolver creates a Resolver with the built-in city and region tables.
func NewResolver() *Resolver {
	return &Resolver{
		cities:    cityTable,
		cityOrder: sortedKeys(cityTable),
		regions:   regionTable,
		fallback:  defaultRegion,
	}
}

// sortedKeys fixes the scan order for substring matching. Map iteration is
// randomized, so without it an input matching several cities would resolve
// differently between calls.
func sortedKeys(m map[string]Coordinates) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve turns a free-text name into a Location.
// Returns ErrInvalidInput only for names shorter than 2 runes after trimming.
func (r *Resolver) Resolve(input string) (*Location, error) {
	key, display, err := Canonicalize(input)
	if err != nil {
		return nil, err
	}

	loc := &Location{Key: key, DisplayName: display}

	// 1. Exact table match.
	if coords, ok := r.cities[key]; ok {
		loc.Coordinates = coords
		loc.Match = MatchExact
		return loc, nil
	}

	// 2. Substring match, either direction, in table order.
	for _, city := range r.cityOrder {
		if strings.Contains(key, city) || strings.Contains(city, key) {
			loc.Coordinates = r.cities[city]
			loc.Match = MatchSubstring
			return loc, nil
		}
	}

	// 3. Region keyword heuristic.
	for _, reg := range r.regions {
		for _, kw := range reg.keywords {
			if strings.Contains(key, kw) {
				loc.Coordinates = jitter(key, reg)
				loc.Match = MatchRegion
				return loc, nil
			}
		}
	}

	// 4. Global default region.
	loc.Coordinates = jitter(key, r.fallback)
	loc.Match = MatchDefault
	return loc, nil
}

// jitter places a point inside a region, offset from the center by a
// deterministic amount derived from the canonical-key hash. The two axes use
// independent slices of the hash so they do not correlate.
func jitter(key string, reg region) Coordinates {
	const buckets = 2001 // odd so zero offset is representable

	h := Hash(key)
	latFrac := float64(h%buckets)/float64(buckets-1)*2 - 1 // [-1, 1]
	lonFrac := float64((h/buckets)%buckets)/float64(buckets-1)*2 - 1

	return Coordinates{
		Lat: reg.center.Lat + latFrac*reg.latRadius,
		Lon: reg.center.Lon + lonFrac*reg.lonRadius,
	}
}

// cityTable holds known cities keyed by canonical name.
var cityTable = map[string]Coordinates{
	// India
	"mumbai":        {Lat: 19.0760, Lon: 72.8777},
	"delhi":         {Lat: 28.7041, Lon: 77.1025},
	"bangalore":     {Lat: 12.9716, Lon: 77.5946},
	"chennai":       {Lat: 13.0827, Lon: 80.2707},
	"kolkata":       {Lat: 22.5726, Lon: 88.3639},
	"hyderabad":     {Lat: 17.3850, Lon: 78.4867},
	"pune":          {Lat: 18.5204, Lon: 73.8567},
	"ahmedabad":     {Lat: 23.0225, Lon: 72.5714},
	"jaipur":        {Lat: 26.9124, Lon: 75.7873},
	"kakinada":      {Lat: 16.9891, Lon: 82.2475},
	"visakhapatnam": {Lat: 17.6868, Lon: 83.2185},
	"vijayawada":    {Lat: 16.5062, Lon: 80.6480},
	"guntur":        {Lat: 16.3067, Lon: 80.4365},
	"tirupati":      {Lat: 13.6288, Lon: 79.4192},
	"kochi":         {Lat: 9.9312, Lon: 76.2673},
	"trivandrum":    {Lat: 8.5241, Lon: 76.9366},

	// International
	"new york":    {Lat: 40.7128, Lon: -74.0060},
	"london":      {Lat: 51.5074, Lon: -0.1278},
	"paris":       {Lat: 48.8566, Lon: 2.3522},
	"berlin":      {Lat: 52.5200, Lon: 13.4050},
	"tokyo":       {Lat: 35.6762, Lon: 139.6503},
	"beijing":     {Lat: 39.9042, Lon: 116.4074},
	"shanghai":    {Lat: 31.2304, Lon: 121.4737},
	"sydney":      {Lat: -33.8688, Lon: 151.2093},
	"sao paulo":   {Lat: -23.5505, Lon: -46.6333},
	"mexico city": {Lat: 19.4326, Lon: -99.1332},
	"singapore":   {Lat: 1.3521, Lon: 103.8198},
	"hong kong":   {Lat: 22.3193, Lon: 114.1694},
	"bangkok":     {Lat: 13.7563, Lon: 100.5018},
	"cairo":       {Lat: 30.0444, Lon: 31.2357},
	"istanbul":    {Lat: 41.0082, Lon: 28.9784},
	"moscow":      {Lat: 55.7558, Lon: 37.6176},
	"dubai":       {Lat: 25.2048, Lon: 55.2708},
	"abu dhabi":   {Lat: 24.4539, Lon: 54.3773},
	"doha":        {Lat: 25.2854, Lon: 51.5310},
	"riyadh":      {Lat: 24.7136, Lon: 46.6753},
	"jeddah":      {Lat: 21.4858, Lon: 39.1925},
	"muscat":      {Lat: 23.5859, Lon: 58.4059},
	"manama":      {Lat: 26.0667, Lon: 50.5577},
	"kuwait city": {Lat: 29.3759, Lon: 47.9774},
}

// regionTable holds coarse regions matched by name keywords, evaluated in
// order. Keyword sets favor country and state names that commonly appear in
// free-text location strings.
var regionTable = []region{
	{
		keywords: []string{
			"india", "indian", "andhra pradesh", "telangana", "karnataka",
			"tamil nadu", "kerala", "maharashtra", "gujarat", "rajasthan",
			"madhya pradesh", "bihar", "assam",
		},
		center: Coordinates{Lat: 20.5937, Lon: 78.9629}, latRadius: 12, lonRadius: 15,
	},
	{
		keywords: []string{"uae", "emirates"},
		center:   Coordinates{Lat: 24.0, Lon: 54.0}, latRadius: 1, lonRadius: 2,
	},
	{
		keywords: []string{"qatar"},
		center:   Coordinates{Lat: 25.3, Lon: 51.5}, latRadius: 0.5, lonRadius: 1,
	},
	{
		keywords: []string{"kuwait"},
		center:   Coordinates{Lat: 29.4, Lon: 47.9}, latRadius: 1, lonRadius: 2,
	},
	{
		keywords: []string{"saudi"},
		center:   Coordinates{Lat: 24.0, Lon: 45.0}, latRadius: 5, lonRadius: 5,
	},
	{
		keywords: []string{"oman"},
		center:   Coordinates{Lat: 23.6, Lon: 58.4}, latRadius: 2, lonRadius: 3,
	},
	{
		keywords: []string{"bahrain"},
		center:   Coordinates{Lat: 26.1, Lon: 50.6}, latRadius: 0.3, lonRadius: 0.5,
	},
	{
		keywords: []string{"thailand"},
		center:   Coordinates{Lat: 13.8, Lon: 100.5}, latRadius: 3, lonRadius: 5,
	},
	{
		keywords: []string{"egypt"},
		center:   Coordinates{Lat: 30.0, Lon: 31.2}, latRadius: 3, lonRadius: 5,
	},
	{
		keywords: []string{"turkey", "turkiye"},
		center:   Coordinates{Lat: 41.0, Lon: 28.9}, latRadius: 5, lonRadius: 8,
	},
	{
		keywords: []string{"russia"},
		center:   Coordinates{Lat: 55.8, Lon: 37.6}, latRadius: 10, lonRadius: 20,
	},
	{
		keywords: []string{"china", "chinese"},
		center:   Coordinates{Lat: 35.0, Lon: 104.0}, latRadius: 10, lonRadius: 15,
	},
	{
		keywords: []string{"usa", "america", "united states"},
		center:   Coordinates{Lat: 39.8283, Lon: -98.5795}, latRadius: 10, lonRadius: 20,
	},
	{
		keywords: []string{"uk", "england", "britain", "scotland", "wales"},
		center:   Coordinates{Lat: 54.5973, Lon: -3.9969}, latRadius: 3, lonRadius: 5,
	},
	{
		keywords: []string{"france", "french"},
		center:   Coordinates{Lat: 46.6034, Lon: 1.8883}, latRadius: 5, lonRadius: 10,
	},
	{
		keywords: []string{"germany", "german"},
		center:   Coordinates{Lat: 51.1657, Lon: 10.4515}, latRadius: 5, lonRadius: 8,
	},
	{
		keywords: []string{"japan", "japanese"},
		center:   Coordinates{Lat: 36.2048, Lon: 138.2529}, latRadius: 8, lonRadius: 10,
	},
	{
		keywords: []string{"australia", "australian"},
		center:   Coordinates{Lat: -25.2744, Lon: 133.7751}, latRadius: 15, lonRadius: 20,
	},
	{
		keywords: []string{"brazil", "brazilian"},
		center:   Coordinates{Lat: -14.2350, Lon: -51.9253}, latRadius: 15, lonRadius: 20,
	},
	{
		keywords: []string{"mexico", "mexican"},
		center:   Coordinates{Lat: 23.6345, Lon: -102.5528}, latRadius: 8, lonRadius: 15,
	},
}

// defaultRegion is where wholly unknown names land.
var defaultRegion = region{
	center: Coordinates{Lat: 25.0, Lon: 50.0}, latRadius: 10, lonRadius: 20,
}
