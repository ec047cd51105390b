package scroll

// Position holds the horizontal and vertical scroll offsets at one sampling instant.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Sub returns the componentwise difference p - q.
func (p Position) Sub(q Position) Position {
	return Position{X: p.X - q.X, Y: p.Y - q.Y}
}

// Axis selects which pair of directions applies to a delta
type Axis string

const (
	AxisX Axis = "X"
	AxisY Axis = "Y"
)

// Direction is the coarse sign of a delta on one axis
type Direction string

const (
	Up    Direction = "UP"
	Down  Direction = "DOWN"
	Left  Direction = "LEFT"
	Right Direction = "RIGHT"
	None  Direction = "NONE"
)

// Directions is the per-axis direction of a State.
type Directions struct {
	X Direction `json:"x"`
	Y Direction `json:"y"`
}

// DirectionOf classifies delta on axis. Positive deltas are RIGHT on X and DOWN on Y,
// negative deltas LEFT and UP, and zero (or NaN) is NONE.
func DirectionOf(axis Axis, delta float64) Direction {
	switch {
	case delta > 0:
		if axis == AxisX {
			return Right
		}
		return Down
	case delta < 0:
		if axis == AxisX {
			return Left
		}
		return Up
	}
	return None
}

// Increasing reports whether d is the positive direction of its axis.
func (d Direction) Increasing() bool {
	return d == Right || d == Down
}

// Decreasing reports whether d is the negative direction of its axis.
func (d Direction) Decreasing() bool {
	return d == Left || d == Up
}
