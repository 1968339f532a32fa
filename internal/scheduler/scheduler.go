// Package scheduler 提供定时任务调度
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/inventory-backend/internal/common/logger"
)

const defaultTaskTimeout = 2 * time.Minute

// Scheduler 定时任务调度器
type Scheduler struct {
	tasks   []*Task
	timeout time.Duration
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Task 定时任务
type Task struct {
	Name     string
	Interval time.Duration
	Handler  func(ctx context.Context) error
}

// NewScheduler 创建调度器
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:   make([]*Task, 0),
		timeout: defaultTaskTimeout,
		log:     logger.Named("scheduler"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddTask 添加任务，interval 不大于 0 的任务被忽略
func (s *Scheduler) AddTask(name string, interval time.Duration, handler func(ctx context.Context) error) {
	if interval <= 0 {
		s.log.Info("task disabled", zap.String("task", name))
		return
	}
	s.tasks = append(s.tasks, &Task{
		Name:     name,
		Interval: interval,
		Handler:  handler,
	})
}

// Tasks 已注册的任务数
func (s *Scheduler) Tasks() int {
	return len(s.tasks)
}

// Start 启动调度器
func (s *Scheduler) Start() {
	s.log.Info("scheduler starting", zap.Int("tasks", len(s.tasks)))

	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(task)
	}
}

// Stop 停止调度器并等待运行中的任务结束
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) runTask(task *Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	// 启动时立即执行一次
	s.executeTask(task)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.executeTask(task)
		}
	}
}

func (s *Scheduler) executeTask(task *Task) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("task panicked", zap.String("task", task.Name), zap.Any("panic", r))
		}
	}()

	if err := task.Handler(ctx); err != nil {
		s.log.Warn("task failed", zap.String("task", task.Name), logger.Latency(time.Since(start)), logger.Err(err))
		return
	}
	s.log.Debug("task completed", zap.String("task", task.Name), logger.Latency(time.Since(start)))
}
