package util

import "time"

// 评估窗口与宽限期参数，与课堂作息绑定，改动需要同步前端展示
const (
	// WindowLeadTime 评估窗口在课时开始前提前开放的时长
	WindowLeadTime = 30 * time.Minute
	// WindowTailTime 评估窗口在课时结束后保持开放的时长
	WindowTailTime = 2 * time.Hour
	// GraceTolerance 宽限判定的容忍抖动，抵消任务调度误差
	GraceTolerance = 5 * time.Minute

	// MinimumQuestions 题库自动组卷的最低题量门槛
	MinimumQuestions = 5

	// FinalizerLookback 兜底定稿任务的回看区间
	FinalizerLookback = 7 * 24 * time.Hour
	// GradebookLookback 成绩册扫描的回看区间，刻意比兜底任务短
	GradebookLookback = 2 * time.Hour

	// ClassScheduleRetention 班级课表滚动保留天数
	ClassScheduleRetention = 30

	// BlockingReasonPreviousPeriod 前序课时未完成时的阻断提示
	BlockingReasonPreviousPeriod = "Previous period not completed"
)

// 允许开课的时段，周一到周五 16:00-18:00，周六 12:00-15:00，周日不开课
const (
	WeekdayWindowStart  = "16:00"
	WeekdayWindowEnd    = "18:00"
	SaturdayWindowStart = "12:00"
	SaturdayWindowEnd   = "15:00"
)
