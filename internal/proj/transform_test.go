package proj

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestParseZone(t *testing.T) {
	tests := []struct {
		input   string
		want    Zone
		wantErr bool
	}{
		{"EPSG:32649", Zone{Number: 49, North: true}, false},
		{"32649", Zone{Number: 49, North: true}, false},
		{"epsg:32749", Zone{Number: 49, North: false}, false},
		{"EPSG:32601", Zone{Number: 1, North: true}, false},
		{"EPSG:32760", Zone{Number: 60, North: false}, false},
		{"EPSG:4326", Zone{}, true},
		{"EPSG:3857", Zone{}, true},
		{"EPSG:32661", Zone{}, true},
		{"not-a-code", Zone{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseZone(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseZone(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseZone(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseZone(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestZoneFor(t *testing.T) {
	tests := []struct {
		name  string
		point orb.Point
		want  Zone
	}{
		{"Guangzhou", orb.Point{113.26, 23.13}, Zone{Number: 49, North: true}},
		{"London", orb.Point{-0.13, 51.51}, Zone{Number: 30, North: true}},
		{"Sydney", orb.Point{151.21, -33.87}, Zone{Number: 56, North: false}},
		{"antimeridian west", orb.Point{-179.9, 10}, Zone{Number: 1, North: true}},
		{"antimeridian east", orb.Point{179.9, 10}, Zone{Number: 60, North: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ZoneFor(tt.point); got != tt.want {
				t.Errorf("ZoneFor(%v) = %v, want %v", tt.point, got, tt.want)
			}
		})
	}
}

func TestZoneEPSG(t *testing.T) {
	if got := (Zone{Number: 49, North: true}).EPSG(); got != 32649 {
		t.Errorf("EPSG = %d, want 32649", got)
	}
	if got := (Zone{Number: 49, North: false}).EPSG(); got != 32749 {
		t.Errorf("EPSG = %d, want 32749", got)
	}
}

func TestToPlanarCentralMeridian(t *testing.T) {
	// A point on the central meridian projects to the false easting exactly
	tr := NewTransformer(Zone{Number: 49, North: true})

	p, err := tr.ToPlanar(orb.Point{111, 23})
	if err != nil {
		t.Fatalf("ToPlanar returned error: %v", err)
	}
	if math.Abs(p[0]-falseEasting) > 1e-6 {
		t.Errorf("easting = %v, want %v", p[0], falseEasting)
	}
	if p[1] <= 0 {
		t.Errorf("northing = %v, want > 0 in the northern hemisphere", p[1])
	}
}

func TestToPlanarEquator(t *testing.T) {
	tr := NewTransformer(Zone{Number: 31, North: true})

	// Origin of zone 31N: equator at the central meridian (3E)
	p, err := tr.ToPlanar(orb.Point{3, 0})
	if err != nil {
		t.Fatalf("ToPlanar returned error: %v", err)
	}
	if math.Abs(p[0]-500000) > 1e-6 || math.Abs(p[1]) > 1e-6 {
		t.Errorf("zone origin projects to (%v, %v), want (500000, 0)", p[0], p[1])
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		zone Zone
		p    orb.Point
	}{
		{"Guangzhou", Zone{Number: 49, North: true}, orb.Point{113.26443, 23.12911}},
		{"zone edge", Zone{Number: 49, North: true}, orb.Point{108.00001, 22.5}},
		{"east domain edge", Zone{Number: 49, North: true}, orb.Point{115.99, 23.0}},
		{"west domain edge", Zone{Number: 49, North: true}, orb.Point{106.01, 23.0}},
		{"high latitude", Zone{Number: 33, North: true}, orb.Point{15.1, 78.2}},
		{"southern hemisphere", Zone{Number: 56, North: false}, orb.Point{151.2093, -33.8688}},
		{"near equator", Zone{Number: 32, North: true}, orb.Point{9.0, 0.001}},
	}

	const tolerance = 1e-7 // degrees, ~1cm

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransformer(tt.zone)

			planar, err := tr.ToPlanar(tt.p)
			if err != nil {
				t.Fatalf("ToPlanar returned error: %v", err)
			}
			back := tr.ToGeographic(planar)

			if math.Abs(back[0]-tt.p[0]) > tolerance {
				t.Errorf("lon round trip: %v -> %v (diff %g)", tt.p[0], back[0], back[0]-tt.p[0])
			}
			if math.Abs(back[1]-tt.p[1]) > tolerance {
				t.Errorf("lat round trip: %v -> %v (diff %g)", tt.p[1], back[1], back[1]-tt.p[1])
			}
		})
	}
}

func TestLineRoundTrip(t *testing.T) {
	tr := NewTransformer(Zone{Number: 49, North: true})
	line := orb.LineString{
		{113.0, 22.8}, {113.1, 22.9}, {113.2, 23.0}, {113.3, 23.1},
	}

	planar, err := tr.LineToPlanar(line)
	if err != nil {
		t.Fatalf("LineToPlanar returned error: %v", err)
	}
	if len(planar) != len(line) {
		t.Fatalf("planar has %d points, want %d", len(planar), len(line))
	}

	back := tr.LineToGeographic(planar)
	for i := range line {
		if math.Abs(back[i][0]-line[i][0]) > 1e-7 || math.Abs(back[i][1]-line[i][1]) > 1e-7 {
			t.Errorf("point %d round trip: %v -> %v", i, line[i], back[i])
		}
	}
}

func TestToPlanarOutOfDomain(t *testing.T) {
	tr := NewTransformer(Zone{Number: 49, North: true})

	tests := []struct {
		name string
		p    orb.Point
	}{
		{"north of UTM limit", orb.Point{111, 85}},
		{"south of UTM limit", orb.Point{111, -81}},
		{"just past the longitude band", orb.Point{117.5, 23}},
		{"far from central meridian", orb.Point{150, 23}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tr.ToPlanar(tt.p); !errors.Is(err, ErrOutOfDomain) {
				t.Errorf("ToPlanar(%v) error = %v, want ErrOutOfDomain", tt.p, err)
			}
		})
	}
}

func TestLineToPlanarFailsWholeSequence(t *testing.T) {
	tr := NewTransformer(Zone{Number: 49, North: true})
	line := orb.LineString{{113, 23}, {150, 23}} // second point out of domain

	if _, err := tr.LineToPlanar(line); !errors.Is(err, ErrOutOfDomain) {
		t.Errorf("LineToPlanar error = %v, want ErrOutOfDomain", err)
	}
}

func TestPlanarDistancesAreMetric(t *testing.T) {
	// Two points ~1 degree of latitude apart should be ~110.6km apart in
	// planar units
	tr := NewTransformer(Zone{Number: 49, North: true})

	a, err := tr.ToPlanar(orb.Point{113, 23})
	if err != nil {
		t.Fatal(err)
	}
	b, err := tr.ToPlanar(orb.Point{113, 24})
	if err != nil {
		t.Fatal(err)
	}

	dist := math.Hypot(b[0]-a[0], b[1]-a[1])
	if dist < 110000 || dist > 112000 {
		t.Errorf("1 degree latitude spans %.0f m, want ~110600 m", dist)
	}
}
