package meta

// Call is the calling convention of a function-like body.
type Call uint8

const (
	CallImmediate Call = iota
	CallGenerator
	CallAsync
	CallStream
)

// CallFor derives the convention from the body's suspension markers.
func CallFor(generator, isAsync bool) Call {
	switch {
	case isAsync && generator:
		return CallStream
	case isAsync:
		return CallAsync
	case generator:
		return CallGenerator
	default:
		return CallImmediate
	}
}

func (c Call) String() string {
	switch c {
	case CallImmediate:
		return "immediate"
	case CallGenerator:
		return "generator"
	case CallAsync:
		return "async"
	case CallStream:
		return "stream"
	default:
		return "invalid"
	}
}
