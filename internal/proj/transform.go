package proj

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// ErrOutOfDomain marks a coordinate outside the projection's valid domain.
// Callers treat it as fatal for the feature only, never for the batch.
var ErrOutOfDomain = errors.New("coordinate outside projection domain")

// WGS84 ellipsoid parameters
const (
	semiMajor  = 6378137.0
	flattening = 1 / 298.257223563

	scaleFactor  = 0.9996 // UTM central meridian scale
	falseEasting = 500000.0
	falseNorth   = 10000000.0 // applied in the southern hemisphere

	// Validity limits: UTM is defined between 80S and 84N. The series keeps
	// the round trip within 1e-7 degrees out to about 5 degrees from the
	// central meridian; beyond that the truncation error dominates.
	maxLat      = 84.0
	minLat      = -80.0
	maxDeltaLon = 5.0
)

// Zone identifies a UTM zone and hemisphere
type Zone struct {
	Number int // 1..60
	North  bool
}

// EPSG returns the zone's EPSG code (326xx north, 327xx south)
func (z Zone) EPSG() int {
	if z.North {
		return 32600 + z.Number
	}
	return 32700 + z.Number
}

func (z Zone) String() string {
	return fmt.Sprintf("EPSG:%d", z.EPSG())
}

// centralMeridian returns the zone's central meridian in degrees
func (z Zone) centralMeridian() float64 {
	return float64(z.Number-1)*6 - 180 + 3
}

// ZoneFor returns the UTM zone containing a geographic point
func ZoneFor(p orb.Point) Zone {
	n := int(math.Floor((p[0]+180)/6)) + 1
	if n < 1 {
		n = 1
	} else if n > 60 {
		n = 60
	}
	return Zone{Number: n, North: p[1] >= 0}
}

// ParseZone parses a UTM zone from an EPSG string.
// Accepts "EPSG:32649" or "32649" (326xx north, 327xx south).
func ParseZone(s string) (Zone, error) {
	code, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(s), "EPSG:"))
	if err != nil {
		return Zone{}, fmt.Errorf("unsupported projection %q: %w", s, err)
	}
	switch {
	case code >= 32601 && code <= 32660:
		return Zone{Number: code - 32600, North: true}, nil
	case code >= 32701 && code <= 32760:
		return Zone{Number: code - 32700, North: false}, nil
	}
	return Zone{}, fmt.Errorf("unsupported projection EPSG:%d (expected a UTM code 32601-32660 or 32701-32760)", code)
}

// Transformer converts coordinates between geographic WGS84 and a fixed
// UTM zone, coordinate by coordinate. It is stateless aside from the zone
// and safe for concurrent use.
type Transformer struct {
	zone Zone

	// derived ellipsoid constants
	e2  float64 // first eccentricity squared
	ep2 float64 // second eccentricity squared
	e1  float64 // series constant for the inverse footpoint latitude
}

// NewTransformer creates a transformer for the given UTM zone
func NewTransformer(zone Zone) *Transformer {
	e2 := flattening * (2 - flattening)
	sqrt1e2 := math.Sqrt(1 - e2)
	return &Transformer{
		zone: zone,
		e2:   e2,
		ep2:  e2 / (1 - e2),
		e1:   (1 - sqrt1e2) / (1 + sqrt1e2),
	}
}

// Zone returns the transformer's UTM zone
func (t *Transformer) Zone() Zone {
	return t.zone
}

// ToPlanar projects a geographic (lon, lat) point to UTM (easting,
// northing) meters. Returns ErrOutOfDomain for coordinates the projection
// cannot represent accurately.
func (t *Transformer) ToPlanar(p orb.Point) (orb.Point, error) {
	lon, lat := p[0], p[1]
	lon0 := t.zone.centralMeridian()

	if lat > maxLat || lat < minLat {
		return orb.Point{}, fmt.Errorf("latitude %.6f: %w", lat, ErrOutOfDomain)
	}
	if d := math.Abs(lon - lon0); d > maxDeltaLon {
		return orb.Point{}, fmt.Errorf("longitude %.6f is %.1f degrees from central meridian %.1f: %w",
			lon, d, lon0, ErrOutOfDomain)
	}

	phi := lat * math.Pi / 180
	dLam := (lon - lon0) * math.Pi / 180

	sinPhi, cosPhi := math.Sincos(phi)
	tanPhi := math.Tan(phi)

	e2 := t.e2
	n := semiMajor / math.Sqrt(1-e2*sinPhi*sinPhi)
	tt := tanPhi * tanPhi
	c := t.ep2 * cosPhi * cosPhi
	a := cosPhi * dLam

	m := t.meridionalArc(phi)

	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	x := scaleFactor*n*(a+(1-tt+c)*a3/6+(5-18*tt+tt*tt+72*c-58*t.ep2)*a5/120) + falseEasting
	y := scaleFactor * (m + n*tanPhi*(a2/2+(5-tt+9*c+4*c*c)*a4/24+(61-58*tt+tt*tt+600*c-330*t.ep2)*a6/720))

	if !t.zone.North {
		y += falseNorth
	}
	return orb.Point{x, y}, nil
}

// ToGeographic inverts ToPlanar: UTM (easting, northing) meters back to
// geographic (lon, lat) degrees.
func (t *Transformer) ToGeographic(p orb.Point) orb.Point {
	x := p[0] - falseEasting
	y := p[1]
	if !t.zone.North {
		y -= falseNorth
	}

	e2 := t.e2
	e1 := t.e1

	m := y / scaleFactor
	mu := m / (semiMajor * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	// Footpoint latitude
	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sinPhi1, cosPhi1 := math.Sincos(phi1)
	tanPhi1 := math.Tan(phi1)

	c1 := t.ep2 * cosPhi1 * cosPhi1
	tt1 := tanPhi1 * tanPhi1
	oneMinus := 1 - e2*sinPhi1*sinPhi1
	n1 := semiMajor / math.Sqrt(oneMinus)
	r1 := semiMajor * (1 - e2) / (oneMinus * math.Sqrt(oneMinus))
	d := x / (n1 * scaleFactor)

	d2 := d * d
	d3 := d2 * d
	d4 := d3 * d
	d5 := d4 * d
	d6 := d5 * d

	phi := phi1 - (n1*tanPhi1/r1)*(d2/2-
		(5+3*tt1+10*c1-4*c1*c1-9*t.ep2)*d4/24+
		(61+90*tt1+298*c1+45*tt1*tt1-252*t.ep2-3*c1*c1)*d6/720)
	lam := (d - (1+2*tt1+c1)*d3/6 +
		(5-2*c1+28*tt1-3*c1*c1+8*t.ep2+24*tt1*tt1)*d5/120) / cosPhi1

	lat := phi * 180 / math.Pi
	lon := t.zone.centralMeridian() + lam*180/math.Pi
	return orb.Point{lon, lat}
}

// LineToPlanar projects every point of a sequence. Any out-of-domain point
// fails the whole sequence; no interpolation, no reordering.
func (t *Transformer) LineToPlanar(line orb.LineString) (orb.LineString, error) {
	out := make(orb.LineString, len(line))
	for i, p := range line {
		q, err := t.ToPlanar(p)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

// LineToGeographic inverts LineToPlanar point by point
func (t *Transformer) LineToGeographic(line orb.LineString) orb.LineString {
	out := make(orb.LineString, len(line))
	for i, p := range line {
		out[i] = t.ToGeographic(p)
	}
	return out
}

// meridionalArc returns the distance along the meridian from the equator
// to latitude phi (radians), per the standard series expansion.
func (t *Transformer) meridionalArc(phi float64) float64 {
	e2 := t.e2
	e4 := e2 * e2
	e6 := e4 * e2
	return semiMajor * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}
