package scroll

// State is the output of Compute: the sampled position, the signed delta from the
// previous position and the direction of that delta on each axis.
type State struct {
	Position  Position   `json:"position"`
	Delta     Position   `json:"delta"`
	Direction Directions `json:"direction"`
}

// StateComputer turns the previous state (nil on the first call) and a new position
// into the next state. Implementations must not mutate old.
type StateComputer[S any] func(old *S, pos Position) S

// Compute is the base StateComputer. Without a previous state the delta is measured
// from the origin, so the first call reports the full position as movement.
func Compute(old *State, pos Position) State {
	var prev Position
	if old != nil {
		prev = old.Position
	}

	delta := pos.Sub(prev)
	return State{
		Position: pos,
		Delta:    delta,
		Direction: Directions{
			X: DirectionOf(AxisX, delta.X),
			Y: DirectionOf(AxisY, delta.Y),
		},
	}
}
