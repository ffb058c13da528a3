package workerpool

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Task 后台任务，ctx 在关闭超时后被取消
type Task func(ctx context.Context)

// Pool 固定数量 worker 的后台任务池
// 用于牌谱持久化和事件发布，不阻塞记录请求
type Pool struct {
	workers   int
	taskQueue chan Task

	mu     sync.RWMutex
	closed bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	done    atomic.Int64
	dropped atomic.Int64
	panics  atomic.Int64
}

// Stats 任务统计
type Stats struct {
	Done    int64 `json:"done"`
	Dropped int64 `json:"dropped"`
	Panics  int64 `json:"panics"`
	Queued  int   `json:"queued"`
}

// New 创建并启动 worker pool
func New(workers int, queueSize int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	pool := &Pool{
		workers:   workers,
		taskQueue: make(chan Task, queueSize),
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger.With("component", "WorkerPool"),
	}

	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	pool.logger.Info("Worker pool started",
		"workers", workers,
		"queue_size", queueSize)

	return pool
}

// worker 依次执行队列中的任务，直到队列关闭并取空
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for task := range p.taskQueue {
		p.run(id, task)
	}
}

func (p *Pool) run(id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.panics.Add(1)
			p.logger.Error("Task panic recovered",
				"worker_id", id,
				"panic", r)
		}
	}()
	task(p.ctx)
	p.done.Add(1)
}

// Submit 提交任务，队列满时阻塞
func (p *Pool) Submit(ctx context.Context, task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped.Add(1)
		return false
	}

	select {
	case p.taskQueue <- task:
		return true
	case <-ctx.Done():
		p.dropped.Add(1)
		return false
	}
}

// TrySubmit 尝试提交任务，队列满时立即返回 false
func (p *Pool) TrySubmit(task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped.Add(1)
		return false
	}

	select {
	case p.taskQueue <- task:
		return true
	default:
		p.dropped.Add(1)
		p.logger.Warn("Task queue full, task dropped")
		return false
	}
}

// Stats 返回任务统计
func (p *Pool) Stats() Stats {
	return Stats{
		Done:    p.done.Load(),
		Dropped: p.dropped.Load(),
		Panics:  p.panics.Load(),
		Queued:  len(p.taskQueue),
	}
}

// Shutdown 停止接收任务并等待队列中的任务完成
// ctx 到期时取消仍在执行的任务
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.taskQueue)
	p.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		p.cancel()
		p.logger.Info("Worker pool shutdown completed")
		return nil
	case <-ctx.Done():
		p.cancel()
		<-finished
		p.logger.Warn("Worker pool shutdown timed out, running tasks cancelled")
		return ctx.Err()
	}
}
