package page

import (
	"sync"

	"amia-console/internal/logger"
)

// Scheduler runs console work. Post queues a task on the console loop after
// the current task; Go runs background work whose results are posted back.
type Scheduler interface {
	Post(task func())
	Go(task func())
}

// Loop is the production Scheduler: a single goroutine draining an
// unbounded FIFO of tasks.
type Loop struct {
	log *logger.Logger

	mu     sync.Mutex
	tasks  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
	bg     sync.WaitGroup
}

func NewLoop(log *logger.Logger) *Loop {
	if log == nil {
		log = logger.Nop()
	}
	l := &Loop{
		log:  log,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) Post(task func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) Go(task func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.bg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.bg.Done()
		defer l.recover("background task")
		task()
	}()
}

// Close drops pending tasks, stops the loop and waits for background work.
// Tasks posted afterwards are ignored.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	l.tasks = nil
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	<-l.done
	l.bg.Wait()
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return
		}
		if len(l.tasks) == 0 {
			l.mu.Unlock()
			<-l.wake
			continue
		}
		task := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		l.mu.Unlock()

		l.exec(task)
	}
}

func (l *Loop) exec(task func()) {
	defer l.recover("loop task")
	task()
}

func (l *Loop) recover(what string) {
	if r := recover(); r != nil {
		l.log.Error("console task panicked", "task", what, "panic", r)
	}
}

// Queue is a deterministic Scheduler for tests: nothing runs until Flush.
type Queue struct {
	mu    sync.Mutex
	tasks []func()
	jobs  []func()
}

func (q *Queue) Post(task func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
}

func (q *Queue) Go(task func()) {
	q.mu.Lock()
	q.jobs = append(q.jobs, task)
	q.mu.Unlock()
}

// Pending reports queued loop tasks and background jobs.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks) + len(q.jobs)
}

// RunPosted runs loop tasks, including ones they post, but no background jobs.
func (q *Queue) RunPosted() {
	for {
		task := q.pop(&q.tasks)
		if task == nil {
			return
		}
		task()
	}
}

// Flush runs loop tasks and background jobs until both queues are empty.
func (q *Queue) Flush() {
	for {
		q.RunPosted()
		job := q.pop(&q.jobs)
		if job == nil {
			return
		}
		job()
	}
}

func (q *Queue) pop(list *[]func()) func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(*list) == 0 {
		return nil
	}
	next := (*list)[0]
	*list = (*list)[1:]
	return next
}
