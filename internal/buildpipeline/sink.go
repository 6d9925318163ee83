package buildpipeline

import (
	"time"

	"go.uber.org/zap"
)

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// LogSink writes events to a logger at debug level.
type LogSink struct {
	Log *zap.Logger
}

func (s LogSink) OnEvent(evt Event) {
	if s.Log == nil {
		return
	}
	fields := []zap.Field{
		zap.String("stage", string(evt.Stage)),
		zap.String("status", string(evt.Status)),
	}
	if evt.Module != "" {
		fields = append(fields, zap.String("module", evt.Module))
	}
	if evt.Task != "" {
		fields = append(fields, zap.String("task", evt.Task))
	}
	if evt.Elapsed > 0 {
		fields = append(fields, zap.Duration("elapsed", evt.Elapsed))
	}
	if evt.Err != nil {
		fields = append(fields, zap.Error(evt.Err))
	}
	s.Log.Debug("progress", fields...)
}

// MultiSink fans events out to every non-nil sink in order.
type MultiSink []ProgressSink

func (m MultiSink) OnEvent(evt Event) {
	for _, s := range m {
		if s != nil {
			s.OnEvent(evt)
		}
	}
}

func emit(sink ProgressSink, module, task string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Module: module, Task: task, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}
