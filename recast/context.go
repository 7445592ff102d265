package recast

import (
	"time"

	"go.uber.org/zap"
)

// RcLogCategory is the severity of a build log message.
type RcLogCategory int

const (
	RC_LOG_PROGRESS RcLogCategory = iota + 1
	RC_LOG_WARNING
	RC_LOG_ERROR
)

// RcTimerLabel identifies one of the performance timers of the build.
type RcTimerLabel int

const (
	RC_TIMER_TOTAL RcTimerLabel = iota
	RC_TIMER_RASTERIZE_TRIANGLES
	RC_TIMER_BUILD_COMPACTHEIGHTFIELD
	RC_TIMER_FILTER_BORDER
	RC_TIMER_FILTER_WALKABLE
	RC_TIMER_FILTER_LOW_OBSTACLES
	RC_TIMER_ERODE_AREA
	RC_TIMER_MEDIAN_AREA
	RC_TIMER_MARK_BOX_AREA
	RC_TIMER_MARK_CONVEXPOLY_AREA
	RC_TIMER_MARK_CYLINDER_AREA
	RC_TIMER_BUILD_DISTANCEFIELD
	RC_TIMER_BUILD_DISTANCEFIELD_DIST
	RC_TIMER_BUILD_DISTANCEFIELD_BLUR
	RC_TIMER_BUILD_REGIONS
	RC_TIMER_BUILD_REGIONS_WATERSHED
	RC_TIMER_BUILD_REGIONS_EXPAND
	RC_TIMER_BUILD_REGIONS_FLOOD
	RC_TIMER_BUILD_REGIONS_FILTER
	RC_TIMER_BUILD_LAYERS
	RC_MAX_TIMERS
)

var timerNames = [RC_MAX_TIMERS]string{
	RC_TIMER_TOTAL:                    "total",
	RC_TIMER_RASTERIZE_TRIANGLES:      "rasterize",
	RC_TIMER_BUILD_COMPACTHEIGHTFIELD: "build_compact",
	RC_TIMER_FILTER_BORDER:            "filter_border",
	RC_TIMER_FILTER_WALKABLE:          "filter_walkable",
	RC_TIMER_FILTER_LOW_OBSTACLES:     "filter_low_obstacles",
	RC_TIMER_ERODE_AREA:               "erode_area",
	RC_TIMER_MEDIAN_AREA:              "median_area",
	RC_TIMER_MARK_BOX_AREA:            "mark_box_area",
	RC_TIMER_MARK_CONVEXPOLY_AREA:     "mark_convex_area",
	RC_TIMER_MARK_CYLINDER_AREA:       "mark_cylinder_area",
	RC_TIMER_BUILD_DISTANCEFIELD:      "build_distance_field",
	RC_TIMER_BUILD_DISTANCEFIELD_DIST: "distance",
	RC_TIMER_BUILD_DISTANCEFIELD_BLUR: "blur",
	RC_TIMER_BUILD_REGIONS:            "build_regions",
	RC_TIMER_BUILD_REGIONS_WATERSHED:  "watershed",
	RC_TIMER_BUILD_REGIONS_EXPAND:     "expand",
	RC_TIMER_BUILD_REGIONS_FLOOD:      "find_basins",
	RC_TIMER_BUILD_REGIONS_FILTER:     "filter",
	RC_TIMER_BUILD_LAYERS:             "build_layers",
}

func (l RcTimerLabel) String() string {
	if l < 0 || l >= RC_MAX_TIMERS {
		return "unknown"
	}
	return timerNames[l]
}

// RcContext carries the logger and the stage timers through a build.
// A nil *RcContext is valid: it logs nothing and times nothing.
type RcContext struct {
	logger       *zap.Logger
	timerEnabled bool
	startTime    [RC_MAX_TIMERS]time.Time
	accumulated  [RC_MAX_TIMERS]time.Duration
	timerCalls   [RC_MAX_TIMERS]int
	now          func() time.Time
}

func NewRcContext(logger *zap.Logger) *RcContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RcContext{
		logger:       logger,
		timerEnabled: true,
		now:          time.Now,
	}
}

func (ctx *RcContext) Logger() *zap.Logger {
	if ctx == nil {
		return zap.NewNop()
	}
	return ctx.logger
}

func (ctx *RcContext) EnableTimer(state bool) {
	if ctx == nil {
		return
	}
	ctx.timerEnabled = state
}

func (ctx *RcContext) Log(category RcLogCategory, msg string, fields ...zap.Field) {
	if ctx == nil {
		return
	}
	switch category {
	case RC_LOG_WARNING:
		ctx.logger.Warn(msg, fields...)
	case RC_LOG_ERROR:
		ctx.logger.Error(msg, fields...)
	default:
		ctx.logger.Info(msg, fields...)
	}
}

func (ctx *RcContext) ResetTimers() {
	if ctx == nil {
		return
	}
	for i := range ctx.accumulated {
		ctx.accumulated[i] = 0
		ctx.timerCalls[i] = 0
	}
}

func (ctx *RcContext) StartTimer(label RcTimerLabel) {
	if ctx == nil || !ctx.timerEnabled {
		return
	}
	ctx.startTime[label] = ctx.now()
}

func (ctx *RcContext) StopTimer(label RcTimerLabel) {
	if ctx == nil || !ctx.timerEnabled {
		return
	}
	ctx.accumulated[label] += ctx.now().Sub(ctx.startTime[label])
	ctx.timerCalls[label]++
}

// AccumulatedTime returns the total time recorded for the label, or -1 when
// the timer never ran.
func (ctx *RcContext) AccumulatedTime(label RcTimerLabel) time.Duration {
	if ctx == nil || !ctx.timerEnabled || ctx.timerCalls[label] == 0 {
		return -1
	}
	return ctx.accumulated[label]
}

// scopedTimer starts the timer and returns its stop function, for use with defer.
func (ctx *RcContext) scopedTimer(label RcTimerLabel) func() {
	ctx.StartTimer(label)
	return func() { ctx.StopTimer(label) }
}
