package device

import (
	"sync"
	"time"
)

// Execution time for a single queued command.
type CommandTiming struct {
	Label   string
	Elapsed time.Duration
}

type command struct {
	label string
	run   func() error
}

// A command stream. Commands are recorded in order, submitted with Commit
// and executed asynchronously on a background goroutine in exactly the
// order they were recorded. Once a command fails, every following command
// is skipped until the error is collected by Wait.
type Queue struct {
	device *Device
	name   string

	mu      sync.Mutex
	pending []command
	tail    chan struct{}
	err     error
	timings []CommandTiming
}

// Create a new command queue for this device.
func (d *Device) NewQueue(name string) *Queue {
	return &Queue{
		device: d,
		name:   name,
	}
}

// Get the device that owns this queue.
func (q *Queue) Device() *Device {
	return q.device
}

// Record a 1D kernel dispatch using the kernel's current arguments. The
// argument buffers are resolved when the dispatch is recorded.
func (q *Queue) Dispatch1D(k *Kernel, offset, globalWorkSize int) error {
	return q.dispatch(k, offset, 0, globalWorkSize, 1)
}

// Record a 2D kernel dispatch using the kernel's current arguments.
func (q *Queue) Dispatch2D(k *Kernel, offsetX, offsetY, globalWorkSizeX, globalWorkSizeY int) error {
	return q.dispatch(k, offsetX, offsetY, globalWorkSizeX, globalWorkSizeY)
}

func (q *Queue) dispatch(k *Kernel, offsetX, offsetY, sizeX, sizeY int) error {
	launch, err := k.launcher(offsetX, offsetY, sizeX, sizeY)
	if err != nil {
		return err
	}
	q.Do(k.name, launch)
	return nil
}

// Record a host-side command.
func (q *Queue) Do(label string, fn func() error) {
	q.mu.Lock()
	q.pending = append(q.pending, command{label: label, run: fn})
	q.mu.Unlock()
}

// Drop all recorded commands that have not been committed yet.
func (q *Queue) Discard() {
	q.mu.Lock()
	q.pending = nil
	q.mu.Unlock()
}

// Get the number of recorded commands that have not been committed yet.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Submit all recorded commands for execution and return immediately.
func (q *Queue) Commit() {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	prev := q.tail
	done := make(chan struct{})
	q.tail = done
	q.mu.Unlock()

	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		q.execute(batch)
	}()
}

func (q *Queue) execute(batch []command) {
	for _, cmd := range batch {
		q.mu.Lock()
		failed := q.err != nil
		q.mu.Unlock()
		if failed {
			return
		}

		tick := time.Now()
		err := cmd.run()
		elapsed := time.Since(tick)

		q.mu.Lock()
		if err != nil && q.err == nil {
			q.err = err
		}
		q.timings = append(q.timings, CommandTiming{Label: cmd.label, Elapsed: elapsed})
		q.mu.Unlock()
	}
}

// Commit any recorded commands and block until every submitted command has
// completed. Returns the first error encountered since the last call to
// Wait and clears it.
func (q *Queue) Wait() error {
	q.Commit()

	q.mu.Lock()
	tail := q.tail
	q.mu.Unlock()
	<-tail

	q.mu.Lock()
	defer q.mu.Unlock()
	err := q.err
	q.err = nil
	return err
}

// Collect and clear the execution timings of completed commands.
func (q *Queue) Timings() []CommandTiming {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.timings
	q.timings = nil
	return out
}
