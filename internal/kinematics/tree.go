// Package kinematics builds a tree of rotating reference frames and located
// points and evaluates their orientations, angular velocities and velocities.
//
// Frames are introduced one at a time as single-axis rotations of an already
// defined parent, driven by one generalized coordinate and one generalized
// speed. Points are located from an already defined parent point and move as
// material points of a named frame, so their velocity follows the two-point
// theorem v = v_parent + ω_frame × r. Construction order is the only
// precondition; referencing a parent that does not exist yet is an error.
//
// Evaluation is two staged. [Tree.Pose] resolves orientations and positions
// from coordinates, and [Pose.Motion] resolves angular velocities and point
// velocities from speeds. Both stages take dual numbers, so seeding the dual
// parts with coordinate and speed rates yields time derivatives for free.
package kinematics

import (
	"errors"
	"fmt"

	"github.com/san-kum/bikesim/internal/spatial"
)

var (
	ErrUnknownParent = errors.New("kinematics: parent not in tree")
	ErrDuplicate     = errors.New("kinematics: name already in tree")
	ErrIndex         = errors.New("kinematics: coordinate or speed index out of range")
	ErrUnknownName   = errors.New("kinematics: name not in tree")
	ErrDimension     = errors.New("kinematics: input length does not match tree")
)

// Frame is a handle to a frame in a Tree.
type Frame int

// Point is a handle to a point in a Tree.
type Point int

type frameNode struct {
	name   string
	parent Frame
	axis   spatial.Axis
	coord  int
	speed  int
}

type pointNode struct {
	name   string
	parent Point
	offset Offset
	frame  Frame
}

// VelocityTerm contributes u[Speed] along Axis of the inertial frame to the
// velocity of the origin point.
type VelocityTerm struct {
	Speed int
	Axis  spatial.Axis
}

// Tree is a kinematic chain rooted at an inertial frame and an origin point.
// A Tree is built once and then only read, so a finished Tree may be shared
// between goroutines.
type Tree struct {
	numCoords int
	numSpeeds int
	frames    []frameNode
	points    []pointNode
	origin    []VelocityTerm
	frameIdx  map[string]Frame
	pointIdx  map[string]Point
}

// NewTree creates a tree with an inertial frame and an origin point fixed in it.
func NewTree(inertial, origin string, numCoords, numSpeeds int) *Tree {
	t := &Tree{
		numCoords: numCoords,
		numSpeeds: numSpeeds,
		frameIdx:  make(map[string]Frame),
		pointIdx:  make(map[string]Point),
	}
	t.frames = append(t.frames, frameNode{name: inertial, parent: -1, coord: -1, speed: -1})
	t.frameIdx[inertial] = 0
	t.points = append(t.points, pointNode{name: origin, parent: -1, frame: 0})
	t.pointIdx[origin] = 0
	return t
}

func (t *Tree) Inertial() Frame { return 0 }
func (t *Tree) Origin() Point   { return 0 }
func (t *Tree) NumCoords() int  { return t.numCoords }
func (t *Tree) NumSpeeds() int  { return t.numSpeeds }
func (t *Tree) NumFrames() int  { return len(t.frames) }
func (t *Tree) NumPoints() int  { return len(t.points) }

func (t *Tree) FrameName(f Frame) string {
	return t.frames[f].name
}

func (t *Tree) PointName(p Point) string {
	return t.points[p].name
}

func (t *Tree) hasFrame(f Frame) bool { return f >= 0 && int(f) < len(t.frames) }
func (t *Tree) hasPoint(p Point) bool { return p >= 0 && int(p) < len(t.points) }

// AddFrame orients a new frame relative to parent by a rotation of q[coord]
// about axis. Its angular velocity in parent is u[speed] along the same axis.
func (t *Tree) AddFrame(name string, parent Frame, axis spatial.Axis, coord, speed int) (Frame, error) {
	if !t.hasFrame(parent) {
		return -1, fmt.Errorf("frame %q: %w", name, ErrUnknownParent)
	}
	if _, ok := t.frameIdx[name]; ok {
		return -1, fmt.Errorf("frame %q: %w", name, ErrDuplicate)
	}
	if coord < 0 || coord >= t.numCoords || speed < 0 || speed >= t.numSpeeds {
		return -1, fmt.Errorf("frame %q (q%d, u%d): %w", name, coord+1, speed+1, ErrIndex)
	}
	if !axis.Valid() {
		return -1, fmt.Errorf("frame %q: invalid axis %d", name, axis)
	}

	f := Frame(len(t.frames))
	t.frames = append(t.frames, frameNode{name: name, parent: parent, axis: axis, coord: coord, speed: speed})
	t.frameIdx[name] = f
	return f, nil
}

// SetOriginVelocity declares the velocity of the origin point.
func (t *Tree) SetOriginVelocity(terms ...VelocityTerm) error {
	for _, term := range terms {
		if term.Speed < 0 || term.Speed >= t.numSpeeds {
			return fmt.Errorf("origin velocity (u%d): %w", term.Speed+1, ErrIndex)
		}
	}
	t.origin = append([]VelocityTerm(nil), terms...)
	return nil
}

// AddPoint locates a new point from parent. The point is treated as a material
// point of frame when its velocity is composed.
func (t *Tree) AddPoint(name string, parent Point, offset Offset, frame Frame) (Point, error) {
	if !t.hasPoint(parent) {
		return -1, fmt.Errorf("point %q: %w", name, ErrUnknownParent)
	}
	if !t.hasFrame(frame) {
		return -1, fmt.Errorf("point %q velocity frame: %w", name, ErrUnknownParent)
	}
	if offset.computed == nil && !t.hasFrame(offset.frame) {
		return -1, fmt.Errorf("point %q offset frame: %w", name, ErrUnknownParent)
	}
	if _, ok := t.pointIdx[name]; ok {
		return -1, fmt.Errorf("point %q: %w", name, ErrDuplicate)
	}

	p := Point(len(t.points))
	t.points = append(t.points, pointNode{name: name, parent: parent, offset: offset, frame: frame})
	t.pointIdx[name] = p
	return p, nil
}

func (t *Tree) Frame(name string) (Frame, error) {
	f, ok := t.frameIdx[name]
	if !ok {
		return -1, fmt.Errorf("frame %q: %w", name, ErrUnknownName)
	}
	return f, nil
}

func (t *Tree) Point(name string) (Point, error) {
	p, ok := t.pointIdx[name]
	if !ok {
		return -1, fmt.Errorf("point %q: %w", name, ErrUnknownName)
	}
	return p, nil
}

// Parent returns the parent of f; the inertial frame has none.
func (t *Tree) Parent(f Frame) (Frame, bool) {
	if !t.hasFrame(f) || f == 0 {
		return -1, false
	}
	return t.frames[f].parent, true
}

// Traceback lists f and its ancestors up to and including the inertial frame.
func (t *Tree) Traceback(f Frame) ([]Frame, error) {
	if !t.hasFrame(f) {
		return nil, fmt.Errorf("frame %d: %w", f, ErrUnknownName)
	}
	chain := []Frame{f}
	for f != 0 {
		f = t.frames[f].parent
		chain = append(chain, f)
	}
	return chain, nil
}
