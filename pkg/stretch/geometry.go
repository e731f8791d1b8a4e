package stretch

import "github.com/modhaus/modlayout/pkg/layout"

// Vec3 is a point in world space.
type Vec3 struct {
	X, Y, Z float64
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max Vec3
}

// Intersects reports whether b and o overlap. Touching faces do not count.
func (b Box) Intersects(o Box) bool {
	return b.Min.X < o.Max.X && o.Min.X < b.Max.X &&
		b.Min.Y < o.Max.Y && o.Min.Y < b.Max.Y &&
		b.Min.Z < o.Max.Z && o.Min.Z < b.Max.Z
}

// Collider tests candidate column bounds against neighbouring buildings.
type Collider interface {
	Collides(bounds Box) bool
}

// ColliderFunc adapts a function to Collider.
type ColliderFunc func(bounds Box) bool

// Collides implements Collider.
func (f ColliderFunc) Collides(bounds Box) bool { return f(bounds) }

// Boxes is a Collider over a fixed set of obstacles.
type Boxes []Box

// Collides implements Collider.
func (bs Boxes) Collides(bounds Box) bool {
	for _, b := range bs {
		if b.Intersects(bounds) {
			return true
		}
	}
	return false
}

// Axis selects the world axis a building's columns advance along.
type Axis int

const (
	// AxisDepth stretches along Z; the building's width spans X.
	AxisDepth Axis = iota
	// AxisWidth stretches along X; the building's width spans Z.
	AxisWidth
)

func (a Axis) String() string {
	if a == AxisWidth {
		return "width"
	}
	return "depth"
}

// Frame places a layout in the world. Column offsets run from Origin along
// the stretch axis; Width is centred on Origin across it.
type Frame struct {
	Origin Vec3
	Width  float64
	Height float64
}

// bounds returns the world box of a column spanning [offset, offset+depth)
// along axis.
func (f Frame) bounds(axis Axis, offset, depth float64) Box {
	half := f.Width / 2
	b := Box{
		Min: Vec3{Y: f.Origin.Y},
		Max: Vec3{Y: f.Origin.Y + f.Height},
	}
	switch axis {
	case AxisWidth:
		b.Min.X, b.Max.X = f.Origin.X+offset, f.Origin.X+offset+depth
		b.Min.Z, b.Max.Z = f.Origin.Z-half, f.Origin.Z+half
	default:
		b.Min.Z, b.Max.Z = f.Origin.Z+offset, f.Origin.Z+offset+depth
		b.Min.X, b.Max.X = f.Origin.X-half, f.Origin.X+half
	}
	return b
}

// shift moves the origin by d along axis.
func (f Frame) shift(axis Axis, d float64) Frame {
	if axis == AxisWidth {
		f.Origin.X = layout.Round3(f.Origin.X + d)
	} else {
		f.Origin.Z = layout.Round3(f.Origin.Z + d)
	}
	return f
}
