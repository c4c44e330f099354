// Package geometry holds the plain data values exchanged with the rect guest,
// together with their fixed-width binary encodings.
package geometry

import (
	ssz "github.com/ferranbt/fastssz"
)

const (
	pointSize = 8
	rectSize  = 16
	pairSize  = 2 * pointSize
)

// Point is a 2D integer coordinate.
type Point struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Left   int32 `json:"left"`
	Right  int32 `json:"right"`
	Top    int32 `json:"top"`
	Bottom int32 `json:"bottom"`
}

// PointPair is the (Point, Point) tuple sent to the compute export.
type PointPair struct {
	First  Point `json:"first"`
	Second Point `json:"second"`
}

// Bound returns the smallest Rect containing both points. The result does not
// depend on argument order.
func Bound(a, b Point) Rect {
	return Rect{
		Left:   min(a.X, b.X),
		Right:  max(a.X, b.X),
		Top:    min(a.Y, b.Y),
		Bottom: max(a.Y, b.Y),
	}
}

// Bound returns the bounding Rect of both points of the pair.
func (p PointPair) Bound() Rect {
	return Bound(p.First, p.Second)
}

// SizeSSZ returns the encoded size of a Point.
func (p *Point) SizeSSZ() int { return pointSize }

// MarshalSSZ encodes the Point.
func (p *Point) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(p)
}

// MarshalSSZTo appends the encoded Point to dst.
func (p *Point) MarshalSSZTo(dst []byte) ([]byte, error) {
	dst = ssz.MarshalUint32(dst, uint32(p.X))
	dst = ssz.MarshalUint32(dst, uint32(p.Y))
	return dst, nil
}

// UnmarshalSSZ decodes a Point.
func (p *Point) UnmarshalSSZ(buf []byte) error {
	if len(buf) != pointSize {
		return ssz.ErrSize
	}
	p.X = int32(ssz.UnmarshallUint32(buf[0:4]))
	p.Y = int32(ssz.UnmarshallUint32(buf[4:8]))
	return nil
}

// SizeSSZ returns the encoded size of a Rect.
func (r *Rect) SizeSSZ() int { return rectSize }

// MarshalSSZ encodes the Rect.
func (r *Rect) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(r)
}

// MarshalSSZTo appends the encoded Rect to dst.
func (r *Rect) MarshalSSZTo(dst []byte) ([]byte, error) {
	dst = ssz.MarshalUint32(dst, uint32(r.Left))
	dst = ssz.MarshalUint32(dst, uint32(r.Right))
	dst = ssz.MarshalUint32(dst, uint32(r.Top))
	dst = ssz.MarshalUint32(dst, uint32(r.Bottom))
	return dst, nil
}

// UnmarshalSSZ decodes a Rect.
func (r *Rect) UnmarshalSSZ(buf []byte) error {
	if len(buf) != rectSize {
		return ssz.ErrSize
	}
	r.Left = int32(ssz.UnmarshallUint32(buf[0:4]))
	r.Right = int32(ssz.UnmarshallUint32(buf[4:8]))
	r.Top = int32(ssz.UnmarshallUint32(buf[8:12]))
	r.Bottom = int32(ssz.UnmarshallUint32(buf[12:16]))
	return nil
}

// SizeSSZ returns the encoded size of a PointPair.
func (p *PointPair) SizeSSZ() int { return pairSize }

// MarshalSSZ encodes the PointPair.
func (p *PointPair) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(p)
}

// MarshalSSZTo appends the encoded PointPair to dst.
func (p *PointPair) MarshalSSZTo(dst []byte) ([]byte, error) {
	dst, err := p.First.MarshalSSZTo(dst)
	if err != nil {
		return nil, err
	}
	return p.Second.MarshalSSZTo(dst)
}

// UnmarshalSSZ decodes a PointPair.
func (p *PointPair) UnmarshalSSZ(buf []byte) error {
	if len(buf) != pairSize {
		return ssz.ErrSize
	}
	if err := p.First.UnmarshalSSZ(buf[:pointSize]); err != nil {
		return err
	}
	return p.Second.UnmarshalSSZ(buf[pointSize:])
}
