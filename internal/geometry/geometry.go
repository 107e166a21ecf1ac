package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PointF is a position in seat coordinates.
type PointF struct {
	X, Y float32
}

// DisplacementF is a relative motion.
type DisplacementF struct {
	DX, DY float32
}

func (p PointF) Add(d DisplacementF) PointF {
	return PointF{X: p.X + d.DX, Y: p.Y + d.DY}
}

// Rectangle covers the pixels [X, X+Width-1] x [Y, Y+Height-1].
type Rectangle struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Rectangle) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Rectangle) right() float32  { return float32(r.X + r.Width - 1) }
func (r Rectangle) bottom() float32 { return float32(r.Y + r.Height - 1) }

func (r Rectangle) Contains(p PointF) bool {
	if r.Empty() {
		return false
	}
	return p.X >= float32(r.X) && p.X <= r.right() &&
		p.Y >= float32(r.Y) && p.Y <= r.bottom()
}

// clamp returns the closest point inside r.
func (r Rectangle) clamp(p PointF) PointF {
	return PointF{
		X: clampf(p.X, float32(r.X), r.right()),
		Y: clampf(p.Y, float32(r.Y), r.bottom()),
	}
}

func (r Rectangle) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// ParseRectangle parses the "WxH+X+Y" form used in configuration and on the
// command line.
func ParseRectangle(s string) (Rectangle, error) {
	var r Rectangle

	size, pos, found := strings.Cut(strings.TrimSpace(s), "+")
	if !found {
		return r, fmt.Errorf("rectangle %q: missing position", s)
	}
	w, h, found := strings.Cut(size, "x")
	if !found {
		return r, fmt.Errorf("rectangle %q: missing size", s)
	}
	xs, ys, found := strings.Cut(pos, "+")
	if !found {
		return r, fmt.Errorf("rectangle %q: missing y position", s)
	}

	var err error
	for _, f := range []struct {
		dst *int
		src string
	}{{&r.Width, w}, {&r.Height, h}, {&r.X, xs}, {&r.Y, ys}} {
		if *f.dst, err = strconv.Atoi(f.src); err != nil {
			return Rectangle{}, fmt.Errorf("rectangle %q: %w", s, err)
		}
	}
	if r.Empty() {
		return Rectangle{}, fmt.Errorf("rectangle %q: empty", s)
	}
	return r, nil
}

// Rectangles is an ordered union of rectangles.
type Rectangles []Rectangle

func (rs Rectangles) String() string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	return strings.Join(parts, " ")
}

func (rs Rectangles) Contains(p PointF) bool {
	for _, r := range rs {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

// Confine returns the point of the union closest to p. Points already inside
// are returned unchanged. On a tie the earliest rectangle wins. An empty set
// leaves p alone.
func (rs Rectangles) Confine(p PointF) PointF {
	if rs.Contains(p) {
		return p
	}

	best := p
	bestDist := math.Inf(1)
	for _, r := range rs {
		if r.Empty() {
			continue
		}
		c := r.clamp(p)
		dx := float64(c.X - p.X)
		dy := float64(c.Y - p.Y)
		if d := dx*dx + dy*dy; d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

// BoundingRectangle is the smallest rectangle covering every member.
func (rs Rectangles) BoundingRectangle() Rectangle {
	var out Rectangle
	first := true
	for _, r := range rs {
		if r.Empty() {
			continue
		}
		if first {
			out = r
			first = false
			continue
		}
		x0 := min(out.X, r.X)
		y0 := min(out.Y, r.Y)
		x1 := max(out.X+out.Width, r.X+r.Width)
		y1 := max(out.Y+out.Height, r.Y+r.Height)
		out = Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
	}
	return out
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
