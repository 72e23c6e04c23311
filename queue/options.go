package queue

// Observer receives queue events. Calls are made after the lock is released
// and must not call back into the queue that emitted them.
type Observer interface {
	// QueueWaited is called when op had to block at least once.
	QueueWaited(op string)
	// QueueTimedOut is called when op gave up because its deadline passed.
	QueueTimedOut(op string)
	// QueueTransferred is called after a successful op with the resulting size.
	QueueTransferred(op string, size int)
}

// Option configures a Queue at construction.
type Option func(*options)

type options struct {
	observer Observer
}

// WithObserver installs an Observer.
func WithObserver(o Observer) Option {
	return func(opts *options) { opts.observer = o }
}

type nopObserver struct{}

func (nopObserver) QueueWaited(string)           {}
func (nopObserver) QueueTimedOut(string)         {}
func (nopObserver) QueueTransferred(string, int) {}
