package pipeline

// Envelope is what travels through the queue: either one payload value or
// the end-of-stream marker. The marker is a distinct variant, so any T,
// including zero values and nil pointers, can be carried as a payload.
type Envelope[T any] struct {
	value T
	end   bool
}

// Payload wraps v.
func Payload[T any](v T) Envelope[T] {
	return Envelope[T]{value: v}
}

// EndOfStream returns the marker the producer sends exactly once.
func EndOfStream[T any]() Envelope[T] {
	return Envelope[T]{end: true}
}

// IsEnd reports whether e is the end-of-stream marker.
func (e Envelope[T]) IsEnd() bool { return e.end }

// Value returns the payload; the zero value for the marker.
func (e Envelope[T]) Value() T { return e.value }
