package bicycle

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/multierr"
)

// Constants are the geometry, mass and inertia parameters of the four bodies.
// Lengths are in m, masses in kg, inertias in kg m^2 about the mass center.
type Constants struct {
	Rf float64 `yaml:"rf" json:"rf"`
	Rr float64 `yaml:"rr" json:"rr"`

	// D1 is the rear-wheel-center to steer-axis distance along C.x; D3 and
	// D2 place the front wheel center from there along E.x and E.z.
	D1 float64 `yaml:"d1" json:"d1"`
	D2 float64 `yaml:"d2" json:"d2"`
	D3 float64 `yaml:"d3" json:"d3"`

	// L1, L2 locate the rear frame center from the rear wheel center in C;
	// L3, L4 locate the front frame center from the front wheel center in E.
	L1 float64 `yaml:"l1" json:"l1"`
	L2 float64 `yaml:"l2" json:"l2"`
	L3 float64 `yaml:"l3" json:"l3"`
	L4 float64 `yaml:"l4" json:"l4"`

	Mc float64 `yaml:"mc" json:"mc"`
	Md float64 `yaml:"md" json:"md"`
	Me float64 `yaml:"me" json:"me"`
	Mf float64 `yaml:"mf" json:"mf"`

	Ic11 float64 `yaml:"ic11" json:"ic11"`
	Ic22 float64 `yaml:"ic22" json:"ic22"`
	Ic33 float64 `yaml:"ic33" json:"ic33"`
	Ic31 float64 `yaml:"ic31" json:"ic31"`
	Id11 float64 `yaml:"id11" json:"id11"`
	Id22 float64 `yaml:"id22" json:"id22"`
	Ie11 float64 `yaml:"ie11" json:"ie11"`
	Ie22 float64 `yaml:"ie22" json:"ie22"`
	Ie33 float64 `yaml:"ie33" json:"ie33"`
	Ie31 float64 `yaml:"ie31" json:"ie31"`
	If11 float64 `yaml:"if11" json:"if11"`
	If22 float64 `yaml:"if22" json:"if22"`

	G float64 `yaml:"g" json:"g"`
}

// Benchmark returns the parameter set of the benchmark Whipple bicycle
// expressed in this model's geometry.
func Benchmark() Constants {
	return Constants{
		Rf:   0.35,
		Rr:   0.3,
		D1:   0.9534570696121849,
		D2:   0.2676445084476887,
		D3:   0.03207142672761929,
		L1:   0.4707271515135145,
		L2:   -0.47792881146460797,
		L3:   -0.00597083392418685,
		L4:   -0.3699518200282974,
		Mc:   85.0,
		Md:   2.0,
		Me:   4.0,
		Mf:   3.0,
		Ic11: 7.178169776497895,
		Ic22: 11.0,
		Ic33: 4.821830223502103,
		Ic31: 3.8225535938357873,
		Id11: 0.0603,
		Id22: 0.12,
		Ie11: 0.05841337700152972,
		Ie22: 0.06,
		Ie33: 0.007586622998470264,
		Ie31: 0.009119225261946298,
		If11: 0.1405,
		If22: 0.28,
		G:    9.81,
	}
}

type field struct {
	name     string
	ptr      *float64
	positive bool
}

func (c *Constants) fields() []field {
	return []field{
		{"rf", &c.Rf, true},
		{"rr", &c.Rr, true},
		{"d1", &c.D1, false},
		{"d2", &c.D2, false},
		{"d3", &c.D3, false},
		{"l1", &c.L1, false},
		{"l2", &c.L2, false},
		{"l3", &c.L3, false},
		{"l4", &c.L4, false},
		{"mc", &c.Mc, true},
		{"md", &c.Md, true},
		{"me", &c.Me, true},
		{"mf", &c.Mf, true},
		{"ic11", &c.Ic11, true},
		{"ic22", &c.Ic22, true},
		{"ic33", &c.Ic33, true},
		{"ic31", &c.Ic31, false},
		{"id11", &c.Id11, true},
		{"id22", &c.Id22, true},
		{"ie11", &c.Ie11, true},
		{"ie22", &c.Ie22, true},
		{"ie33", &c.Ie33, true},
		{"ie31", &c.Ie31, false},
		{"if11", &c.If11, true},
		{"if22", &c.If22, true},
		{"g", &c.G, false},
	}
}

// ConstantNames lists every parameter name in declaration order.
func ConstantNames() []string {
	var c Constants
	fs := c.fields()
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.name
	}
	return names
}

// ConstantsFromMap binds every named parameter. Missing and unknown names are
// all reported together.
func ConstantsFromMap(values map[string]float64) (Constants, error) {
	var c Constants
	var err error
	known := make(map[string]bool)
	for _, f := range c.fields() {
		known[f.name] = true
		v, ok := values[f.name]
		if !ok {
			err = multierr.Append(err, fmt.Errorf("constant %q: %w", f.name, ErrMissingConstant))
			continue
		}
		*f.ptr = v
	}

	var unknown []string
	for name := range values {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		err = multierr.Append(err, fmt.Errorf("constant %q: %w", name, ErrUnknownConstant))
	}

	if err != nil {
		return Constants{}, err
	}
	return c, c.Validate()
}

// Map returns the parameters keyed by name.
func (c Constants) Map() map[string]float64 {
	m := make(map[string]float64)
	for _, f := range c.fields() {
		m[f.name] = *f.ptr
	}
	return m
}

// Validate reports every parameter that is not finite, and every radius,
// mass or principal inertia that is not positive.
func (c Constants) Validate() error {
	var err error
	for _, f := range c.fields() {
		v := *f.ptr
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			err = multierr.Append(err, fmt.Errorf("constant %q = %g: %w", f.name, v, ErrInvalidConstant))
		case f.positive && v <= 0:
			err = multierr.Append(err, fmt.Errorf("constant %q = %g must be positive: %w", f.name, v, ErrInvalidConstant))
		}
	}
	return err
}
