package nnue

// accumulator is the incremental first-layer state shared by the material and
// positional halves of the evaluator. Slot 0 is the side to move.
type accumulator interface {
	// Refresh recomputes both perspectives from the active feature sets.
	Refresh(us, them []uint16)
	// Add activates one feature per perspective in place.
	Add(us, them uint16)
	// Remove deactivates one feature per perspective in place.
	Remove(us, them uint16)
	// Mirror swaps the two perspectives.
	Mirror()
	// Evaluate forwards through the corresponding output for the phase.
	Evaluate(phase int) int32
}

// Material accumulates the piece-square transformer per perspective.
type Material struct {
	acc [2][Phases]int32
}

func (m *Material) Refresh(us, them []uint16) {
	nn.psqtRefresh(us, &m.acc[0])
	nn.psqtRefresh(them, &m.acc[1])
}

func (m *Material) Add(us, them uint16) {
	nn.psqtAdd(us, &m.acc[0])
	nn.psqtAdd(them, &m.acc[1])
}

func (m *Material) Remove(us, them uint16) {
	nn.psqtRemove(us, &m.acc[0])
	nn.psqtRemove(them, &m.acc[1])
}

func (m *Material) Mirror() {
	m.acc[0], m.acc[1] = m.acc[1], m.acc[0]
}

func (m *Material) Evaluate(phase int) int32 {
	return (m.acc[0][phase] - m.acc[1][phase]) / 32
}

// Positional accumulates the feature transformer per perspective.
type Positional struct {
	acc [2][TransformedSize]int16
}

func (p *Positional) Refresh(us, them []uint16) {
	nn.ftRefresh(us, &p.acc[0])
	nn.ftRefresh(them, &p.acc[1])
}

func (p *Positional) Add(us, them uint16) {
	nn.ftAdd(us, &p.acc[0])
	nn.ftAdd(them, &p.acc[1])
}

func (p *Positional) Remove(us, them uint16) {
	nn.ftRemove(us, &p.acc[0])
	nn.ftRemove(them, &p.acc[1])
}

func (p *Positional) Mirror() {
	p.acc[0], p.acc[1] = p.acc[1], p.acc[0]
}

func (p *Positional) Evaluate(phase int) int32 {
	return nn.output[phase].forward(&p.acc[0], &p.acc[1]) / 16
}

// combined is the full accumulator: material plus positional.
type combined struct {
	material   Material
	positional Positional
}

func (c *combined) Refresh(us, them []uint16) {
	c.material.Refresh(us, them)
	c.positional.Refresh(us, them)
}

func (c *combined) Add(us, them uint16) {
	c.material.Add(us, them)
	c.positional.Add(us, them)
}

func (c *combined) Remove(us, them uint16) {
	c.material.Remove(us, them)
	c.positional.Remove(us, them)
}

func (c *combined) Mirror() {
	c.material.Mirror()
	c.positional.Mirror()
}

func (c *combined) Evaluate(phase int) int32 {
	return c.material.Evaluate(phase) + c.positional.Evaluate(phase)
}
