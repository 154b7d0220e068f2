package worker

import (
	"context"
	"sync"
	"time"

	"nepeats/internal/pkg/events"
	"nepeats/pkg/logger"

	"go.uber.org/zap"
)

// Task 一个事件投递到一个下游
type Task struct {
	Event events.Event
	Sink  string
	Retry int // 重试次数
}

// Pool 异步事件分发池，下游失败时按次数退避重试
type Pool struct {
	TaskQueue  chan Task
	RetryQueue chan Task // 重试队列
	WorkerNum  int
	MaxRetry   int // 最大重试次数
	Backoff    time.Duration

	// OnDrop 任务被丢弃时回调（队列满或超过重试次数）
	OnDrop func(task Task, err error)

	sinks map[string]events.Publisher
	quit  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

func NewPool(workerNum int, bufferSize int) *Pool {
	return &Pool{
		TaskQueue:  make(chan Task, bufferSize),
		RetryQueue: make(chan Task, bufferSize/2),
		WorkerNum:  workerNum,
		MaxRetry:   3, // 最多重试3次
		Backoff:    time.Second,
		sinks:      make(map[string]events.Publisher),
		quit:       make(chan struct{}),
	}
}

// AddSink 注册下游，须在 Start 之前调用
func (p *Pool) AddSink(name string, sink events.Publisher) {
	p.sinks[name] = sink
}

func (p *Pool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	// 启动重试处理协程
	p.wg.Add(1)
	go p.retryWorker()
	logger.Log.Info("event worker pool started", zap.Int("workers", p.WorkerNum), zap.Int("sinks", len(p.sinks)))
}

// Stop 停止所有协程，队列中剩余任务被丢弃
func (p *Pool) Stop() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// Publish 实现 events.Publisher，为每个下游入队一个任务，不阻塞调用方
func (p *Pool) Publish(_ context.Context, e events.Event) error {
	for name := range p.sinks {
		p.AddTask(Task{Event: e, Sink: name})
	}
	return nil
}

func (p *Pool) AddTask(task Task) {
	select {
	case p.TaskQueue <- task:
	default:
		logger.Log.Warn("event queue full, dropping task",
			zap.String("sink", task.Sink), zap.String("event", string(task.Event.Type)))
		p.drop(task, nil)
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.TaskQueue:
			p.handle(id, task)
		}
	}
}

func (p *Pool) handle(id int, task Task) {
	sink, ok := p.sinks[task.Sink]
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	err := sink.Publish(ctx, task.Event)
	cancel()
	if err == nil {
		return
	}

	logger.Log.Warn("event delivery failed",
		zap.Int("worker", id),
		zap.String("sink", task.Sink),
		zap.String("order_id", task.Event.OrderID),
		zap.Int("attempt", task.Retry+1),
		zap.Error(err),
	)

	// 如果未达到最大重试次数，加入重试队列
	if task.Retry >= p.MaxRetry {
		p.drop(task, err)
		return
	}
	task.Retry++
	select {
	case p.RetryQueue <- task:
	default:
		p.drop(task, err)
	}
}

func (p *Pool) retryWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.RetryQueue:
			// 延迟重试，避免立即重试
			timer := time.NewTimer(time.Duration(task.Retry) * p.Backoff)
			select {
			case <-p.quit:
				timer.Stop()
				return
			case <-timer.C:
			}

			select {
			case p.TaskQueue <- task:
			default:
				p.drop(task, nil)
			}
		}
	}
}

func (p *Pool) drop(task Task, err error) {
	logger.Log.Error("event dropped",
		zap.String("sink", task.Sink),
		zap.String("event", string(task.Event.Type)),
		zap.String("order_id", task.Event.OrderID),
		zap.Int("retries", task.Retry),
		zap.Error(err),
	)
	if p.OnDrop != nil {
		p.OnDrop(task, err)
	}
}

var _ events.Publisher = (*Pool)(nil)
