package jobqueue

import "errors"

// ErrSlotBusy is returned when a job is started while another is in flight.
var ErrSlotBusy = errors.New("current job slot is occupied")

// Queue is an unbounded FIFO of pending jobs plus one current-job slot.
type Queue struct {
	pending []Job
	current *Job
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{}
}

// Enqueue appends job to the tail. It never fails.
func (q *Queue) Enqueue(job Job) {
	q.pending = append(q.pending, job)
}

// Dequeue removes and returns the head, or false when nothing is pending.
func (q *Queue) Dequeue() (Job, bool) {
	if len(q.pending) == 0 {
		return Job{}, false
	}
	job := q.pending[0]
	q.pending[0] = Job{}
	q.pending = q.pending[1:]
	if len(q.pending) == 0 {
		q.pending = nil
	}
	return job, true
}

// Occupy places job in the current slot.
func (q *Queue) Occupy(job Job) error {
	if q.current != nil {
		return ErrSlotBusy
	}
	q.current = &job
	return nil
}

// Current returns the in-flight job, if any.
func (q *Queue) Current() (Job, bool) {
	if q.current == nil {
		return Job{}, false
	}
	return *q.current, true
}

// Clear empties the current slot.
func (q *Queue) Clear() {
	q.current = nil
}

// Busy reports whether a job occupies the current slot.
func (q *Queue) Busy() bool {
	return q.current != nil
}

// Len returns the number of pending jobs, excluding the current one.
func (q *Queue) Len() int {
	return len(q.pending)
}

// Pending returns a copy of the pending jobs in execution order.
func (q *Queue) Pending() []Job {
	return append([]Job(nil), q.pending...)
}

// Next moves the head of the backlog into the current slot. It does nothing
// and returns false when the slot is busy or the backlog is empty.
func (q *Queue) Next() (Job, bool) {
	if q.Busy() {
		return Job{}, false
	}
	job, ok := q.Dequeue()
	if !ok {
		return Job{}, false
	}
	q.current = &job
	return job, true
}
