package outbound

// TaskDispatcher schedules work onto a shared worker pool.
type TaskDispatcher interface {
	Submit(task func()) error
}
