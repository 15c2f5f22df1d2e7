package geodesy

import (
	"fmt"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/tzneal/coordconv"
)

// GridReference is a human-readable rendering of a geodetic position
type GridReference struct {
	Zone       int     `json:"zone"`
	Hemisphere string  `json:"hemisphere"`
	Easting    float64 `json:"easting"`
	Northing   float64 `json:"northing"`
	MGRS       string  `json:"mgrs"`
}

// LatLng returns the position as an s2 point on the unit sphere, dropping height
func (p LLH) LatLng() s2.LatLng {
	return s2.LatLng{Lat: s1.Angle(p.Lat), Lng: s1.Angle(p.Lon)}
}

// AngleTo returns the great-circle angle between two positions
func (p LLH) AngleTo(q LLH) s1.Angle {
	return p.LatLng().Distance(q.LatLng())
}

// Grid converts the position to UTM and MGRS. precision is the number of MGRS
// digits per axis (1 to 5).
func (p LLH) Grid(precision int) (GridReference, error) {
	ll := p.LatLng()

	utm, err := coordconv.DefaultUTMConverter.ConvertFromGeodetic(ll, 0)
	if err != nil {
		return GridReference{}, fmt.Errorf("utm conversion: %w", err)
	}

	ref := GridReference{
		Zone:     utm.Zone,
		Easting:  utm.Easting,
		Northing: utm.Northing,
	}
	switch utm.Hemisphere {
	case coordconv.HemisphereNorth:
		ref.Hemisphere = "N"
	case coordconv.HemisphereSouth:
		ref.Hemisphere = "S"
	}

	mgrs, err := coordconv.DefaultMGRSConverter.ConvertFromGeodetic(ll, precision)
	if err != nil {
		return ref, fmt.Errorf("mgrs conversion: %w", err)
	}
	ref.MGRS = fmt.Sprint(mgrs)

	return ref, nil
}
