package bicycle

// Generalized coordinate indices, q1..q8.
const (
	Q1 = iota // rear contact, N.x
	Q2        // rear contact, N.y
	Q3        // yaw
	Q4        // roll
	Q5        // pitch
	Q6        // rear wheel spin
	Q7        // steer
	Q8        // front wheel spin
	NumCoords
)

// Generalized speed indices, u1..u8. Each ui is paired with qi.
const (
	U1 = iota
	U2
	U3
	U4
	U5
	U6
	U7
	U8
	NumSpeeds
)

type Role int

const (
	Independent Role = iota
	Dependent
	// Cyclic coordinates do not enter the equations of motion and are not
	// integrated.
	Cyclic
)

func (r Role) String() string {
	switch r {
	case Independent:
		return "independent"
	case Dependent:
		return "dependent"
	case Cyclic:
		return "cyclic"
	}
	return "unknown"
}

type Variable struct {
	Name  string
	Index int
	Role  Role
	Unit  string
}

// Coordinates is the coordinate partition. Pitch is eliminated by the
// holonomic constraint.
var Coordinates = [NumCoords]Variable{
	{"q1", Q1, Independent, "m"},
	{"q2", Q2, Independent, "m"},
	{"q3", Q3, Independent, "rad"},
	{"q4", Q4, Independent, "rad"},
	{"q5", Q5, Dependent, "rad"},
	{"q6", Q6, Cyclic, "rad"},
	{"q7", Q7, Independent, "rad"},
	{"q8", Q8, Cyclic, "rad"},
}

// Speeds is the speed partition. Dependent speeds are fixed by the five
// nonholonomic constraints.
var Speeds = [NumSpeeds]Variable{
	{"u1", U1, Dependent, "m/s"},
	{"u2", U2, Dependent, "m/s"},
	{"u3", U3, Dependent, "rad/s"},
	{"u4", U4, Independent, "rad/s"},
	{"u5", U5, Dependent, "rad/s"},
	{"u6", U6, Independent, "rad/s"},
	{"u7", U7, Independent, "rad/s"},
	{"u8", U8, Dependent, "rad/s"},
}

var (
	// StateCoords are the integrated coordinates in state order.
	StateCoords = [...]int{Q1, Q2, Q3, Q4, Q7, Q5}
	// IndependentSpeeds follow the coordinates in the state.
	IndependentSpeeds = [...]int{U4, U6, U7}
	// DependentSpeeds in the column order of the dependent constraint block.
	DependentSpeeds = [...]int{U1, U2, U3, U5, U8}
)

// Layout of the integrated state.
const (
	StateDim   = len(StateCoords) + len(IndependentSpeeds)
	ControlDim = 3 // T4, T6, T7

	XQ1 = 0
	XQ2 = 1
	XQ3 = 2
	XQ4 = 3
	XQ7 = 4
	XQ5 = 5
	XU4 = 6
	XU6 = 7
	XU7 = 8
)

// Channels names the columns of an expanded trajectory row: the state
// followed by the dependent speeds.
var Channels = [...]string{
	"q1", "q2", "q3", "q4", "q7", "q5",
	"u4", "u6", "u7",
	"u1", "u2", "u3", "u5", "u8",
}

// CoordinatesOf expands a state into all eight coordinates. The cyclic wheel
// angles are not tracked and read as zero.
func CoordinatesOf(x []float64) []float64 {
	q := make([]float64, NumCoords)
	for i, c := range StateCoords {
		q[c] = x[i]
	}
	return q
}
