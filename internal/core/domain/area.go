package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseArea builds an area from a name or a "min_lat,min_lon,max_lat,max_lon"
// bounding box. The name wins when both are present. Bounds are validated.
func ParseArea(name, bbox string) (Area, error) {
	if name = strings.TrimSpace(name); name != "" {
		return Area{Name: name}, nil
	}
	if strings.TrimSpace(bbox) == "" {
		return Area{}, fmt.Errorf("%w: an area name or bbox is required", ErrInvalidArea)
	}
	b, err := ParseBounds(bbox)
	if err != nil {
		return Area{}, err
	}
	return Area{Bounds: b}, nil
}

// ParseBounds reads "min_lat,min_lon,max_lat,max_lon".
func ParseBounds(s string) (*Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: bbox needs min_lat,min_lon,max_lat,max_lon", ErrInvalidArea)
	}
	var v [4]float64
	for k, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bbox value %q is not a number", ErrInvalidArea, p)
		}
		v[k] = f
	}
	b := &Bounds{MinLat: v[0], MinLon: v[1], MaxLat: v[2], MaxLon: v[3]}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArea, err)
	}
	return b, nil
}
