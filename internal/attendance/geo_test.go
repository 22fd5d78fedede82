package attendance

import "testing"

func TestDistanceZeroAndSymmetry(t *testing.T) {
	a := Coordinate{Latitude: 40.0, Longitude: 116.0}
	b := Coordinate{Latitude: 40.0005, Longitude: 116.0}

	if d := Distance(a, a); d != 0 {
		t.Errorf("Distance(a, a) = %d, want 0", d)
	}
	if Distance(a, b) != Distance(b, a) {
		t.Errorf("distance is not symmetric: %d vs %d", Distance(a, b), Distance(b, a))
	}
}

func TestDistanceKnownValues(t *testing.T) {
	// 赤道上 1 度经度 ≈ 111195 米
	equatorA := Coordinate{Latitude: 0, Longitude: 0}
	equatorB := Coordinate{Latitude: 0, Longitude: 1}
	if d := Distance(equatorA, equatorB); d != 111195 {
		t.Errorf("one degree at the equator = %d, want 111195", d)
	}

	// 0.0005 度纬度 ≈ 56 米，教室尺度
	campusA := Coordinate{Latitude: 40.0, Longitude: 116.0}
	campusB := Coordinate{Latitude: 40.0005, Longitude: 116.0}
	if d := Distance(campusA, campusB); d != 56 {
		t.Errorf("campus-scale distance = %d, want 56", d)
	}
}

func TestVerifyProximityBoundaryInclusive(t *testing.T) {
	target := Coordinate{Latitude: 0, Longitude: 0}
	reporter := Coordinate{Latitude: 0, Longitude: 1}

	p, err := VerifyProximity(&reporter, &target, 111195)
	if err != nil {
		t.Fatalf("VerifyProximity returned error: %v", err)
	}
	if !p.WithinRange {
		t.Errorf("distance equal to radius must count as within range, got %+v", p)
	}

	p, err = VerifyProximity(&reporter, &target, 111194)
	if err != nil {
		t.Fatalf("VerifyProximity returned error: %v", err)
	}
	if p.WithinRange {
		t.Errorf("distance one meter beyond radius must be out of range, got %+v", p)
	}
}

func TestVerifyProximityMissingInputs(t *testing.T) {
	c := Coordinate{Latitude: 40.0, Longitude: 116.0}

	cases := []struct {
		name     string
		reporter *Coordinate
		target   *Coordinate
		radius   int
	}{
		{"nil reporter", nil, &c, 100},
		{"nil target", &c, nil, 100},
		{"zero radius", &c, &c, 0},
		{"negative radius", &c, &c, -5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := VerifyProximity(tc.reporter, tc.target, tc.radius); err == nil {
				t.Error("expected an error for missing geo input")
			}
		})
	}
}
