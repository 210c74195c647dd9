package services

import (
	"encoding/json"

	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/types"
)

// StatusService flattens a JobRun row into the polling response shape shared
// by every job kind. Pollers only ever see one of five states.
type StatusService interface {
	Status(job *types.JobRun) types.JobStatusResponse
}

type statusService struct {
	log *logger.Logger
}

func NewStatusService(baseLog *logger.Logger) StatusService {
	return &statusService{log: baseLog.With("service", "StatusService")}
}

func (s *statusService) Status(job *types.JobRun) types.JobStatusResponse {
	if job == nil {
		return types.JobStatusResponse{
			State:  types.JobStatusFailed,
			Total:  100,
			Status: "Unknown task",
			Error:  "job not found",
		}
	}

	switch job.Status {
	case types.JobStatusPending:
		return types.JobStatusResponse{
			State:   types.JobStatusPending,
			Current: 0,
			Total:   100,
			Percent: 0,
			Status:  "Task pending...",
		}
	case types.JobStatusCompleted:
		return types.JobStatusResponse{
			State:   types.JobStatusCompleted,
			Current: 100,
			Total:   100,
			Percent: 100,
			Status:  "Complete!",
			Result:  decodeResult(job),
		}
	case types.JobStatusFailed:
		msg := job.Error
		if msg == "" {
			msg = job.Message
		}
		return types.JobStatusResponse{
			State:   types.JobStatusFailed,
			Current: job.Current,
			Total:   job.Total,
			Percent: job.Progress,
			Status:  job.Message,
			Error:   msg,
		}
	case types.JobStatusCancelled:
		return types.JobStatusResponse{
			State:   types.JobStatusCancelled,
			Current: job.Current,
			Total:   job.Total,
			Percent: job.Progress,
			Status:  job.Message,
			Error:   job.Message,
		}
	default:
		return types.JobStatusResponse{
			State:   types.JobStatusProcessing,
			Current: job.Current,
			Total:   job.Total,
			Percent: job.Progress,
			Status:  job.Message,
		}
	}
}

func decodeResult(job *types.JobRun) map[string]any {
	if len(job.Result) == 0 || string(job.Result) == "null" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(job.Result, &out); err != nil {
		return nil
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
