package model

import "math"

// CentimetersToPoints converts centimetres (the unit tagging plans are
// authored in) to PDF points.
const CentimetersToPoints = 28.3465

// Point represents a 2D point
type Point struct {
	X, Y float64
}

// BBox represents a bounding box (rectangle)
type BBox struct {
	X      float64 // Left
	Y      float64 // Bottom (PDF coordinate system)
	Width  float64
	Height float64
}

// NewBBox creates a bounding box from coordinates
func NewBBox(x, y, width, height float64) BBox {
	return BBox{X: x, Y: y, Width: width, Height: height}
}

// Left returns the left edge X coordinate
func (b BBox) Left() float64 {
	return b.X
}

// Right returns the right edge X coordinate
func (b BBox) Right() float64 {
	return b.X + b.Width
}

// Bottom returns the bottom edge Y coordinate
func (b BBox) Bottom() float64 {
	return b.Y
}

// Top returns the top edge Y coordinate
func (b BBox) Top() float64 {
	return b.Y + b.Height
}

// Intersects reports whether the two boxes overlap on both axes.
// Boxes that only share an edge do not intersect.
func (b BBox) Intersects(other BBox) bool {
	return b.X < other.X+other.Width &&
		b.X+b.Width > other.X &&
		b.Y < other.Y+other.Height &&
		b.Y+b.Height > other.Y
}

// Union returns the smallest box containing both boxes
func (b BBox) Union(other BBox) BBox {
	x := math.Min(b.Left(), other.Left())
	y := math.Min(b.Bottom(), other.Bottom())
	right := math.Max(b.Right(), other.Right())
	top := math.Max(b.Top(), other.Top())

	return BBox{
		X:      x,
		Y:      y,
		Width:  right - x,
		Height: top - y,
	}
}

// Union combines two optional boxes. A nil box is the identity element, so
// Union(nil, b) returns b and Union(nil, nil) returns nil.
func Union(a, b *BBox) *BBox {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	u := a.Union(*b)
	return &u
}

// UnionAll returns the union of every box, or the zero box when none are given.
// The result does not depend on the order of the boxes.
func UnionAll(boxes ...BBox) BBox {
	var acc *BBox
	for i := range boxes {
		acc = Union(acc, &boxes[i])
	}
	if acc == nil {
		return BBox{}
	}
	return *acc
}

// Equal reports whether two boxes describe the same rectangle within eps.
func (b BBox) Equal(other BBox, eps float64) bool {
	return math.Abs(b.X-other.X) <= eps &&
		math.Abs(b.Y-other.Y) <= eps &&
		math.Abs(b.Width-other.Width) <= eps &&
		math.Abs(b.Height-other.Height) <= eps
}

// IsValid returns true if the bounding box has non-negative, finite dimensions
func (b BBox) IsValid() bool {
	for _, v := range [...]float64{b.X, b.Y, b.Width, b.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Width >= 0 && b.Height >= 0
}

// Converter maps top-left-origin user coordinates (for example centimetres
// measured from the top of the page) into bottom-left-origin point space.
type Converter struct {
	// Scale is the number of points per user unit
	Scale float64
}

// NewConverter returns a converter for the given unit scale. A non-positive
// scale falls back to centimetres.
func NewConverter(scale float64) Converter {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = CentimetersToPoints
	}
	return Converter{Scale: scale}
}

// ToPageSpace converts the top-left corner of a box of the given user height
// into the bottom-left corner in page space. pageHeight is in points and must
// be supplied per page, since pages may differ in size.
func (c Converter) ToPageSpace(x, y, height, pageHeight float64) (float64, float64) {
	return x * c.Scale, pageHeight - y*c.Scale - height*c.Scale
}

// Rect converts a user-space rectangle into a page-space bounding box.
func (c Converter) Rect(x, y, width, height, pageHeight float64) BBox {
	px, py := c.ToPageSpace(x, y, height, pageHeight)
	return BBox{X: px, Y: py, Width: width * c.Scale, Height: height * c.Scale}
}

// Matrix represents a 2D affine transformation matrix
type Matrix [6]float64

// Identity returns an identity matrix
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Transform applies the matrix transformation to a point
func (m Matrix) Transform(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Multiply multiplies two matrices
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		m[0]*other[0] + m[1]*other[2],
		m[0]*other[1] + m[1]*other[3],
		m[2]*other[0] + m[3]*other[2],
		m[2]*other[1] + m[3]*other[3],
		m[4]*other[0] + m[5]*other[2] + other[4],
		m[4]*other[1] + m[5]*other[3] + other[5],
	}
}

// Translate creates a translation matrix
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Scale creates a scaling matrix
func Scale(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}
