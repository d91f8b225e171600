package kinematics

import (
	"fmt"

	"gonum.org/v1/gonum/num/dual"

	"github.com/san-kum/bikesim/internal/spatial"
)

// Offset locates a point relative to its parent point.
type Offset struct {
	frame    Frame
	local    spatial.Vec
	computed func(p *Pose) spatial.Vec
}

// Fixed is a constant offset expressed in the basis of frame f.
func Fixed(f Frame, x, y, z float64) Offset {
	return Offset{frame: f, local: spatial.Real(x, y, z)}
}

// Zero places a point on top of its parent.
func Zero() Offset {
	return Offset{frame: 0}
}

// Computed derives the offset, in inertial components, from the current pose.
// Only frames and points defined before the point may be queried.
func Computed(fn func(p *Pose) spatial.Vec) Offset {
	return Offset{computed: fn}
}

// Pose holds the orientation of every frame and the position of every point,
// all in inertial components.
type Pose struct {
	tree   *Tree
	rot    []spatial.Mat
	pos    []spatial.Vec
	offset []spatial.Vec
}

// Pose evaluates orientations and positions. The dual part of q is carried
// through, so seeding it with q' gives orientation and position rates.
func (t *Tree) Pose(q []dual.Number) (*Pose, error) {
	if len(q) != t.numCoords {
		return nil, fmt.Errorf("pose: got %d coordinates, want %d: %w", len(q), t.numCoords, ErrDimension)
	}

	p := &Pose{
		tree:   t,
		rot:    make([]spatial.Mat, len(t.frames)),
		pos:    make([]spatial.Vec, len(t.points)),
		offset: make([]spatial.Vec, len(t.points)),
	}

	p.rot[0] = spatial.Identity()
	for i := 1; i < len(t.frames); i++ {
		f := t.frames[i]
		p.rot[i] = p.rot[f.parent].Mul(spatial.Rotation(f.axis, q[f.coord]))
	}

	for i := 1; i < len(t.points); i++ {
		pt := t.points[i]
		var r spatial.Vec
		if pt.offset.computed != nil {
			// later entries of pos are still zero; callers only see earlier points
			r = pt.offset.computed(p)
		} else {
			r = p.rot[pt.offset.frame].Apply(pt.offset.local)
		}
		p.offset[i] = r
		p.pos[i] = p.pos[pt.parent].Add(r)
	}

	return p, nil
}

func (p *Pose) Tree() *Tree { return p.tree }

// Rotation returns the direction cosine matrix from f to the inertial frame.
func (p *Pose) Rotation(f Frame) spatial.Mat { return p.rot[f] }

// Basis returns the unit vector along axis a of frame f in inertial components.
func (p *Pose) Basis(f Frame, a spatial.Axis) spatial.Vec { return p.rot[f].Col(int(a)) }

// Express maps components in the basis of f to inertial components.
func (p *Pose) Express(f Frame, v spatial.Vec) spatial.Vec { return p.rot[f].Apply(v) }

// Position returns the location of pt relative to the origin.
func (p *Pose) Position(pt Point) spatial.Vec { return p.pos[pt] }

// Between returns the vector from a to b.
func (p *Pose) Between(a, b Point) spatial.Vec { return p.pos[b].Sub(p.pos[a]) }

// Motion holds angular velocities of frames and velocities of points in the
// inertial frame, all in inertial components.
type Motion struct {
	pose  *Pose
	omega []spatial.Vec
	vel   []spatial.Vec
}

// Motion evaluates angular velocities by composition down the frame chain and
// point velocities by the two-point theorem. Every result is linear in u.
func (p *Pose) Motion(u []dual.Number) (*Motion, error) {
	t := p.tree
	if len(u) != t.numSpeeds {
		return nil, fmt.Errorf("motion: got %d speeds, want %d: %w", len(u), t.numSpeeds, ErrDimension)
	}

	m := &Motion{
		pose:  p,
		omega: make([]spatial.Vec, len(t.frames)),
		vel:   make([]spatial.Vec, len(t.points)),
	}

	for i := 1; i < len(t.frames); i++ {
		f := t.frames[i]
		m.omega[i] = m.omega[f.parent].Add(p.Basis(Frame(i), f.axis).Mul(u[f.speed]))
	}

	for _, term := range t.origin {
		m.vel[0] = m.vel[0].Add(term.Axis.Unit().Mul(u[term.Speed]))
	}
	for i := 1; i < len(t.points); i++ {
		pt := t.points[i]
		m.vel[i] = m.vel[pt.parent].Add(m.omega[pt.frame].Cross(p.offset[i]))
	}

	return m, nil
}

// Unit evaluates the motion for the k-th unit speed, i.e. the partial
// angular velocities and partial velocities with respect to u[k].
func (p *Pose) Unit(k int) (*Motion, error) {
	u := make([]dual.Number, p.tree.numSpeeds)
	if k < 0 || k >= len(u) {
		return nil, fmt.Errorf("unit motion u%d: %w", k+1, ErrIndex)
	}
	u[k].Real = 1
	return p.Motion(u)
}

func (m *Motion) Pose() *Pose { return m.pose }

func (m *Motion) AngularVelocity(f Frame) spatial.Vec { return m.omega[f] }

func (m *Motion) Velocity(pt Point) spatial.Vec { return m.vel[pt] }
