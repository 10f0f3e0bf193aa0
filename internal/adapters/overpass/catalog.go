package overpass

import (
	"strings"

	"github.com/xrash/smetrics"
)

// commonAmenities are frequently used values of the OSM amenity key.
var commonAmenities = []string{
	"arts_centre", "atm", "bank", "bar", "bbq", "bench", "bicycle_parking",
	"bicycle_rental", "biergarten", "bureau_de_change", "bus_station", "cafe",
	"car_rental", "car_sharing", "car_wash", "casino", "charging_station",
	"cinema", "clinic", "college", "community_centre", "courthouse",
	"dentist", "doctors", "drinking_water", "fast_food", "ferry_terminal",
	"fire_station", "food_court", "fountain", "fuel", "hospital", "ice_cream",
	"kindergarten", "library", "marketplace", "nightclub", "parking",
	"pharmacy", "place_of_worship", "police", "post_box", "post_office",
	"pub", "recycling", "restaurant", "school", "shelter", "taxi", "theatre",
	"toilets", "townhall", "university", "vending_machine", "veterinary",
	"waste_basket",
}

// Catalog suggests known amenity tags for misspelled input using
// Jaro-Winkler similarity.
type Catalog struct {
	tags      []string
	threshold float64
}

// NewCatalog returns a Catalog over the common OSM amenity values.
func NewCatalog() *Catalog {
	return &Catalog{tags: commonAmenities, threshold: 0.85}
}

// Known reports whether amenity is one of the catalog's tags.
func (c *Catalog) Known(amenity string) bool {
	amenity = normalizeTag(amenity)
	for _, t := range c.tags {
		if t == amenity {
			return true
		}
	}
	return false
}

// Suggest returns the most similar known tag, or "" when amenity is already
// known or nothing scores above the threshold.
func (c *Catalog) Suggest(amenity string) string {
	amenity = normalizeTag(amenity)
	if amenity == "" || c.Known(amenity) {
		return ""
	}

	best, bestScore := "", 0.0
	for _, t := range c.tags {
		score := smetrics.JaroWinkler(amenity, t, 0.7, 4)
		if score > bestScore {
			best, bestScore = t, score
		}
	}
	if bestScore < c.threshold {
		return ""
	}
	return best
}

// Tags returns a copy of the known tags.
func (c *Catalog) Tags() []string {
	return append([]string(nil), c.tags...)
}

func normalizeTag(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "_")
}
