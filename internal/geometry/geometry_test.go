package geometry

import (
	"math/rand/v2"
	"testing"
)

func TestConfineLeavesContainedPointsAlone(t *testing.T) {
	rs := Rectangles{{X: 0, Y: 0, Width: 100, Height: 100}, {X: 100, Y: 0, Width: 50, Height: 50}}

	for _, p := range []PointF{{0, 0}, {99, 99}, {120.5, 10}, {149, 49}} {
		if got := rs.Confine(p); got != p {
			t.Errorf("Confine(%v) = %v, want unchanged", p, got)
		}
	}
}

func TestConfineClampsToNearestRectangle(t *testing.T) {
	rs := Rectangles{{X: 0, Y: 0, Width: 100, Height: 100}, {X: 200, Y: 0, Width: 100, Height: 100}}

	tests := []struct {
		in, want PointF
	}{
		{PointF{-10, 50}, PointF{0, 50}},
		{PointF{120, 50}, PointF{99, 50}},
		{PointF{180, 50}, PointF{200, 50}},
		{PointF{350, 150}, PointF{299, 99}},
		{PointF{50, -3}, PointF{50, 0}},
	}
	for _, tt := range tests {
		got := rs.Confine(tt.in)
		if got != tt.want {
			t.Errorf("Confine(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if again := rs.Confine(got); again != got {
			t.Errorf("Confine is not idempotent at %v: %v", got, again)
		}
	}
}

func TestConfineTieGoesToFirstRectangle(t *testing.T) {
	rs := Rectangles{{X: 0, Y: 0, Width: 10, Height: 10}, {X: 20, Y: 0, Width: 10, Height: 10}}

	// 14.5 is 5.5 from both x=9 and x=20
	got := rs.Confine(PointF{14.5, 5})
	if got != (PointF{9, 5}) {
		t.Errorf("Confine tie = %v, want first rectangle", got)
	}
}

func TestConfineEmptySet(t *testing.T) {
	var rs Rectangles
	p := PointF{-5, 1e6}
	if got := rs.Confine(p); got != p {
		t.Errorf("Confine on empty set = %v", got)
	}
	rs = Rectangles{{Width: 0, Height: 10}}
	if got := rs.Confine(p); got != p {
		t.Errorf("Confine with only empty rectangles = %v", got)
	}
}

func TestParseRectangle(t *testing.T) {
	r, err := ParseRectangle("1920x1080+1280+0")
	if err != nil {
		t.Fatalf("ParseRectangle: %v", err)
	}
	if r != (Rectangle{X: 1280, Y: 0, Width: 1920, Height: 1080}) {
		t.Errorf("ParseRectangle = %+v", r)
	}
	if r.String() != "1920x1080+1280+0" {
		t.Errorf("String() = %q", r.String())
	}

	for _, bad := range []string{"", "10x10", "10+0+0", "0x10+0+0", "axb+0+0"} {
		if _, err := ParseRectangle(bad); err == nil {
			t.Errorf("ParseRectangle(%q) succeeded", bad)
		}
	}
}

func TestBoundingRectangle(t *testing.T) {
	rs := Rectangles{{X: 0, Y: 0, Width: 100, Height: 50}, {X: 100, Y: -20, Width: 30, Height: 30}}
	want := Rectangle{X: 0, Y: -20, Width: 130, Height: 70}
	if got := rs.BoundingRectangle(); got != want {
		t.Errorf("BoundingRectangle = %+v, want %+v", got, want)
	}
}

func TestConfineMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for round := 0; round < 50; round++ {
		var rs Rectangles
		for i := 0; i < 1+rng.IntN(3); i++ {
			rs = append(rs, Rectangle{
				X: rng.IntN(40) - 20, Y: rng.IntN(40) - 20,
				Width: 1 + rng.IntN(15), Height: 1 + rng.IntN(15),
			})
		}
		p := PointF{X: float32(rng.IntN(100) - 50), Y: float32(rng.IntN(100) - 50)}

		got := rs.Confine(p)
		if !rs.Contains(got) {
			t.Fatalf("Confine(%v) = %v which is outside %v", p, got, rs)
		}
		gotDist := dist2(p, got)

		// every integer point of the union is a valid point, and the
		// nearest point of an integer box to an integer point is integral
		for _, r := range rs {
			for x := r.X; x < r.X+r.Width; x++ {
				for y := r.Y; y < r.Y+r.Height; y++ {
					if d := dist2(p, PointF{float32(x), float32(y)}); d < gotDist-1e-6 {
						t.Fatalf("Confine(%v) = %v (d²=%v) but (%d,%d) is closer (d²=%v) in %v", p, got, gotDist, x, y, d, rs)
					}
				}
			}
		}
	}
}

func dist2(a, b PointF) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return dx*dx + dy*dy
}
