package services

import (
	"context"
	"time"

	"github.com/yungbote/trackflow-backend/internal/clients/redis"
	jobrt "github.com/yungbote/trackflow-backend/internal/jobs/runtime"
	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/sse"
	"github.com/yungbote/trackflow-backend/internal/types"
)

// jobNotifier pushes job lifecycle events to SSE subscribers. When a redis bus
// is configured the event goes through it so every API replica's hub sees it;
// otherwise it lands on the local hub directly.
type jobNotifier struct {
	log *logger.Logger
	hub *sse.Hub
	bus redis.SSEBus
}

func NewJobNotifier(baseLog *logger.Logger, hub *sse.Hub, bus redis.SSEBus) jobrt.Notifier {
	return &jobNotifier{
		log: baseLog.With("service", "JobNotifier"),
		hub: hub,
		bus: bus,
	}
}

func (n *jobNotifier) emit(event sse.Event, job *types.JobRun, data map[string]any) {
	if n == nil || job == nil {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["job_id"] = job.ID
	data["job_type"] = job.JobType
	data["job"] = job

	for _, channel := range []string{sse.ChannelJobs, sse.JobChannel(job.ID)} {
		msg := sse.Message{Channel: channel, Event: event, Data: data}
		if n.bus != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			err := n.bus.Publish(ctx, msg)
			cancel()
			if err == nil {
				continue
			}
			n.log.Warn("SSE bus publish failed; falling back to local hub", "event", event, "job_id", job.ID, "error", err)
		}
		if n.hub != nil {
			n.hub.Broadcast(msg)
		}
	}
}

func (n *jobNotifier) JobCreated(job *types.JobRun) {
	n.emit(sse.EventJobCreated, job, nil)
}

func (n *jobNotifier) JobProgress(job *types.JobRun, stage string, percent int, message string) {
	n.emit(sse.EventJobProgress, job, map[string]any{
		"stage":    stage,
		"progress": percent,
		"message":  message,
	})
}

func (n *jobNotifier) JobDone(job *types.JobRun) {
	n.emit(sse.EventJobDone, job, nil)
}

func (n *jobNotifier) JobFailed(job *types.JobRun, stage string, message string) {
	n.emit(sse.EventJobFailed, job, map[string]any{
		"stage": stage,
		"error": message,
	})
}

func (n *jobNotifier) JobCancelled(job *types.JobRun, message string) {
	n.emit(sse.EventJobCancelled, job, map[string]any{
		"message": message,
	})
}
