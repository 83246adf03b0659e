package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"
)

// ErrQueueFull очередь переполнена, задача отброшена
var ErrQueueFull = errors.New("worker: queue is full")

// ErrStopped очередь остановлена
var ErrStopped = errors.New("worker: queue is stopped")

// Task фоновая задача (побочный эффект перехода статуса)
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Executor исполнитель фоновых задач
type Executor interface {
	Submit(task Task) error
}

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Queue ограниченная очередь с пулом воркеров
type Queue struct {
	tasks   chan Task
	workers int
	timeout time.Duration
	log     Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewQueue создает очередь; Start запускает воркеры
func NewQueue(workers, size int, timeout time.Duration, log Logger) *Queue {
	if workers <= 0 {
		workers = 1
	}
	return &Queue{
		tasks:   make(chan Task, size),
		workers: workers,
		timeout: timeout,
		log:     log,
	}
}

// Start запускает воркеры
func (q *Queue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for task := range q.tasks {
				runTask(context.Background(), task, q.timeout, q.log)
			}
		}()
	}
}

// Submit ставит задачу в очередь без блокировки
func (q *Queue) Submit(task Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.stopped {
		return ErrStopped
	}

	select {
	case q.tasks <- task:
		return nil
	default:
		q.log.Warn("Submit: queue is full, task %s dropped", task.Name)
		return fmt.Errorf("%w: %s", ErrQueueFull, task.Name)
	}
}

// Stop прекращает прием задач и дожидается выполнения очереди
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.stopped {
		q.stopped = true
		close(q.tasks)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inline выполняет задачи синхронно в вызывающей горутине
type Inline struct {
	Timeout time.Duration
	Log     Logger
}

// Submit выполняет задачу сразу
func (i Inline) Submit(task Task) error {
	runTask(context.Background(), task, i.Timeout, i.Log)
	return nil
}

func runTask(ctx context.Context, task Task, timeout time.Duration, log Logger) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("task %s panicked: %v\n%s", task.Name, r, debug.Stack())
		}
	}()

	if err := task.Run(ctx); err != nil {
		log.Warn("task %s failed: %v", task.Name, err)
	}
}
