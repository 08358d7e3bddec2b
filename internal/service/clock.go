package service

import "time"

// Clock 给所有周期任务注入时间来源，测试里替换为固定时钟
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// SystemClock 进程内共享的真实时钟
var SystemClock Clock = realClock{}

// FixedClock 测试用时钟，可手动拨动
type FixedClock struct {
	Current time.Time
}

func (c *FixedClock) Now() time.Time { return c.Current }

// Advance 向前拨动时钟
func (c *FixedClock) Advance(d time.Duration) { c.Current = c.Current.Add(d) }
