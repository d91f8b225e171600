package bicycle

import (
	"fmt"
	"sort"

	"github.com/san-kum/bikesim/internal/dynamo"
	"github.com/san-kum/bikesim/internal/rootfind"
)

// InitialConditions are the freely chosen initial values. Pitch and the
// dependent speeds are derived.
type InitialConditions struct {
	X         float64 `yaml:"q1" json:"q1"`
	Y         float64 `yaml:"q2" json:"q2"`
	Yaw       float64 `yaml:"q3" json:"q3"`
	Roll      float64 `yaml:"q4" json:"q4"`
	Steer     float64 `yaml:"q7" json:"q7"`
	Speed     float64 `yaml:"u1" json:"u1"`
	RollRate  float64 `yaml:"u4" json:"u4"`
	SteerRate float64 `yaml:"u7" json:"u7"`
}

// InitialConditionsFromMap binds initial values by coordinate or speed name.
// Unnamed entries are zero. Names of derived quantities are rejected.
func InitialConditionsFromMap(values map[string]float64) (InitialConditions, error) {
	var ic InitialConditions
	slots := map[string]*float64{
		"q1": &ic.X, "q2": &ic.Y, "q3": &ic.Yaw, "q4": &ic.Roll, "q7": &ic.Steer,
		"u1": &ic.Speed, "u4": &ic.RollRate, "u7": &ic.SteerRate,
	}

	names := make([]string, 0, len(values))
	for n := range values {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		p, ok := slots[n]
		if !ok {
			return InitialConditions{}, fmt.Errorf("initial condition %q is derived or unknown", n)
		}
		*p = values[n]
	}
	return ic, nil
}

// Map is the inverse of InitialConditionsFromMap.
func (ic InitialConditions) Map() map[string]float64 {
	return map[string]float64{
		"q1": ic.X, "q2": ic.Y, "q3": ic.Yaw, "q4": ic.Roll, "q7": ic.Steer,
		"u1": ic.Speed, "u4": ic.RollRate, "u7": ic.SteerRate,
	}
}

// WheelRates returns the rear and front wheel spin rates for rolling at speed
// without slip. Both are negative for forward motion.
func WheelRates(c Constants, speed float64) (rear, front float64) {
	return -speed / c.Rr, -speed / c.Rf
}

// Pitch solves the holonomic constraint for pitch by Newton's method from
// zero, holding roll and steer fixed.
func (m *Model) Pitch(roll, steer float64) (rootfind.Result, error) {
	return rootfind.Newton(m.holonomicIn(roll, steer), 0, rootfind.DefaultOptions())
}

// SolveInitial completes ic into a consistent state. The exactly upright,
// stationary, unsteered configuration is rejected; a tiny nonzero steer
// angle is the conventional way around it.
func (m *Model) SolveInitial(ic InitialConditions) (dynamo.State, error) {
	// a guard against the trivial equilibrium, not a numerical singularity
	if ic.Speed == 0 && ic.RollRate == 0 && ic.SteerRate == 0 && ic.Roll == 0 && ic.Steer == 0 {
		return nil, ErrDegenerateConfiguration
	}

	res, err := m.Pitch(ic.Roll, ic.Steer)
	if err != nil {
		return nil, fmt.Errorf("pitch for roll %g, steer %g: %w", ic.Roll, ic.Steer, err)
	}

	rear, _ := WheelRates(m.consts, ic.Speed)

	x := make(dynamo.State, StateDim)
	x[XQ1] = ic.X
	x[XQ2] = ic.Y
	x[XQ3] = ic.Yaw
	x[XQ4] = ic.Roll
	x[XQ7] = ic.Steer
	x[XQ5] = res.Root
	x[XU4] = ic.RollRate
	x[XU6] = rear
	x[XU7] = ic.SteerRate
	return x, nil
}
