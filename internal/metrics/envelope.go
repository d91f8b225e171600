package metrics

import (
	"math"

	"github.com/san-kum/bikesim/internal/dynamo"
)

// Envelope is the largest absolute value of one state component, used on
// the roll angle to spot a capsize.
type Envelope struct {
	name  string
	index int
	max   float64
}

func NewEnvelope(name string, index int) *Envelope {
	return &Envelope{name: name, index: index}
}

func (e *Envelope) Name() string { return e.name }

func (e *Envelope) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if e.index < len(x) {
		e.max = math.Max(e.max, math.Abs(x[e.index]))
	}
}

func (e *Envelope) Value() float64 { return e.max }

func (e *Envelope) Reset() { e.max = 0 }

// ControlEffort is the root mean square of all control inputs over the
// samples.
type ControlEffort struct {
	name    string
	sumSq   float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	for _, val := range u {
		c.sumSq += val * val
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return math.Sqrt(c.sumSq / float64(c.samples))
}

func (c *ControlEffort) Reset() {
	c.sumSq = 0
	c.samples = 0
}
