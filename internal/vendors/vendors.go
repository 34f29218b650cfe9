// Package vendors holds the clean-fuel vendor directory shown on the map tab.
package vendors

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"sort"

	"gopkg.in/yaml.v3"
)

type Type string

const (
	TypeLPG      Type = "lpg"
	TypeElectric Type = "electric"
	TypeBiomass  Type = "biomass"
)

// Types lists vendor types in display order.
var Types = []Type{TypeLPG, TypeElectric, TypeBiomass}

// EarthRadiusKm is the mean Earth radius used for distances.
const EarthRadiusKm = 6371

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64
	Lng float64
}

type Vendor struct {
	ID       int      `yaml:"id"`
	Name     string   `yaml:"name"`
	Type     Type     `yaml:"type"`
	Lat      float64  `yaml:"lat"`
	Lng      float64  `yaml:"lng"`
	Address  string   `yaml:"address"`
	Phone    string   `yaml:"phone"`
	Rating   float64  `yaml:"rating"`
	Services []string `yaml:"services"`
}

func (v Vendor) Location() Point { return Point{Lat: v.Lat, Lng: v.Lng} }

//go:embed vendors.yaml
var demoData []byte

type file struct {
	Vendors []Vendor `yaml:"vendors"`
}

// Demo returns the built-in Nairobi directory.
func Demo() ([]Vendor, error) {
	return Load(demoData)
}

// Load parses a YAML vendor directory.
func Load(data []byte) ([]Vendor, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse vendor directory: %w", err)
	}
	for _, v := range f.Vendors {
		if v.Name == "" {
			return nil, errors.New("vendor without a name")
		}
		if !validType(v.Type) {
			return nil, fmt.Errorf("vendor %q: unknown type %q", v.Name, v.Type)
		}
	}
	return f.Vendors, nil
}

func validType(t Type) bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Distance is the haversine great-circle distance between a and b in km.
func Distance(a, b Point) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(b.Lat - a.Lat)
	dLng := rad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Filter reports which vendor types are shown.
type Filter map[Type]bool

// AllTypes shows every vendor type.
func AllTypes() Filter {
	f := Filter{}
	for _, t := range Types {
		f[t] = true
	}
	return f
}

// Listing is a vendor as displayed, with its distance when a location is known.
type Listing struct {
	Vendor
	DistanceKm  float64
	HasDistance bool
}

func (l Listing) DistanceText() string {
	if !l.HasDistance {
		return "Distance unknown"
	}
	return fmt.Sprintf("%.1f km away", l.DistanceKm)
}

// List keeps the vendors whose type is enabled. With a location the result
// is sorted nearest first, otherwise the directory order is kept.
func List(all []Vendor, filter Filter, from *Point) []Listing {
	out := make([]Listing, 0, len(all))
	for _, v := range all {
		if !filter[v.Type] {
			continue
		}
		l := Listing{Vendor: v}
		if from != nil {
			l.DistanceKm = Distance(*from, v.Location())
			l.HasDistance = true
		}
		out = append(out, l)
	}
	if from != nil {
		sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	}
	return out
}
