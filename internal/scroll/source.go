package scroll

// PositionGetter reads the current position from whatever surface is observed.
type PositionGetter func() Position

// WithPositionSource adapts compute into an update function that reads its
// position from get instead of taking it as an argument.
func WithPositionSource[S any](get PositionGetter, compute StateComputer[S]) func(old *S) S {
	return func(old *S) S {
		return compute(old, get())
	}
}
