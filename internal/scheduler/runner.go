package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/forhay123/haybee-edu-sub014/internal/service"
	"github.com/forhay123/haybee-edu-sub014/pkg/logger"
	"github.com/forhay123/haybee-edu-sub014/pkg/monitoring"

	"go.uber.org/zap"
)

// Task 周期任务的统一形态，返回错误只记日志不中断调度
type Task struct {
	Name string
	Run  func() error
}

// Runner 后台任务调度器
// 间隔任务用 Ticker，定点任务按时钟对齐到下一次触发点
type Runner struct {
	Clock  service.Clock
	wg     sync.WaitGroup
	cancel context.CancelFunc
	ctx    context.Context
}

func NewRunner(clock service.Clock) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{Clock: clock, ctx: ctx, cancel: cancel}
}

// Every 固定间隔执行
func (r *Runner) Every(interval time.Duration, task Task) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				r.execute(task)
			}
		}
	}()
}

// DailyAt 每天在 hour:minute 执行
func (r *Runner) DailyAt(hour, minute int, task Task) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			next := r.nextDaily(hour, minute)
			select {
			case <-r.ctx.Done():
				return
			case <-time.After(time.Until(next)):
				r.execute(task)
			}
		}
	}()
}

// WeeklyAt 每周 weekday 的 hour:minute 执行
func (r *Runner) WeeklyAt(weekday time.Weekday, hour, minute int, task Task) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			next := r.nextWeekly(weekday, hour, minute)
			select {
			case <-r.ctx.Done():
				return
			case <-time.After(time.Until(next)):
				r.execute(task)
			}
		}
	}()
}

// Stop 停止调度并等待在跑的任务结束
func (r *Runner) Stop() {
	r.cancel()
	r.wg.Wait()
}

func (r *Runner) execute(task Task) {
	defer func() {
		if rec := recover(); rec != nil {
			monitoring.TaskFailures.WithLabelValues(task.Name).Inc()
			logger.Log.Error("task panicked", zap.String("task", task.Name), zap.Any("panic", rec))
		}
	}()
	start := time.Now()
	err := task.Run()
	monitoring.TaskDuration.WithLabelValues(task.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		monitoring.TaskFailures.WithLabelValues(task.Name).Inc()
		logger.Log.Error("task failed", zap.String("task", task.Name), zap.Error(err))
		return
	}
	monitoring.TaskRuns.WithLabelValues(task.Name).Inc()
}

func (r *Runner) nextDaily(hour, minute int) time.Time {
	now := r.Clock.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (r *Runner) nextWeekly(weekday time.Weekday, hour, minute int) time.Time {
	now := r.Clock.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	for next.Weekday() != weekday || !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
