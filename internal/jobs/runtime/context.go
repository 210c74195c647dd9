package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/trackflow-backend/internal/data/repos"
	"github.com/yungbote/trackflow-backend/internal/pkg/dbctx"
	"github.com/yungbote/trackflow-backend/internal/types"
)

// Notifier is the side channel for job lifecycle events (SSE fanout).
// Declared here so runtime does not depend on the services package.
type Notifier interface {
	JobCreated(job *types.JobRun)
	JobProgress(job *types.JobRun, stage string, percent int, message string)
	JobDone(job *types.JobRun)
	JobFailed(job *types.JobRun, stage string, message string)
	JobCancelled(job *types.JobRun, message string)
}

// Context is the execution handle for a single job run. It wraps the job_run
// row, the repo that mutates it, and the notifier, and is the only sanctioned
// way for pipelines to report progress or terminate. Pipelines never touch
// the job_run row directly.
//
// Every write is guarded with UnlessStatus(cancelled): once a caller cancels
// the job, in-flight progress and terminal writes from the runner lose the
// race and are dropped.
type Context struct {
	Ctx    context.Context
	DB     *gorm.DB
	Job    *types.JobRun
	Repo   repos.JobRunRepo
	Notify Notifier

	payload map[string]any
}

func NewContext(ctx context.Context, db *gorm.DB, job *types.JobRun, repo repos.JobRunRepo, notify Notifier) *Context {
	c := &Context{
		Ctx:    ctx,
		DB:     db,
		Job:    job,
		Repo:   repo,
		Notify: notify,
	}
	_ = c.decodePayload()
	return c
}

func (c *Context) decodePayload() error {
	if c.Job == nil {
		return nil
	}
	if len(c.Job.Payload) == 0 {
		c.payload = map[string]any{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(c.Job.Payload, &m); err != nil {
		c.payload = map[string]any{}
		return err
	}
	c.payload = m
	return nil
}

// Payload returns the decoded payload map, never nil.
func (c *Context) Payload() map[string]any {
	if c.payload == nil {
		c.payload = map[string]any{}
	}
	return c.payload
}

// PayloadUUID reads a payload field by key and parses it as a UUID.
func (c *Context) PayloadUUID(key string) (uuid.UUID, bool) {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(fmt.Sprint(v))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (c *Context) ctx() context.Context {
	if c.Ctx != nil {
		return c.Ctx
	}
	return context.Background()
}

// Progress publishes a non-terminal status update. current/total map 1:1 to
// the polling shape; percent is derived and clamped to [0,100]. The guarded
// write keeps cancelled rows untouched; when it is rejected no in-memory
// or notifier update happens either.
func (c *Context) Progress(stage string, current, total int, msg string) {
	if c == nil {
		return
	}
	now := time.Now()
	pct := percentOf(current, total)

	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: c.ctx()}, c.Job.ID, []string{types.JobStatusCancelled}, map[string]interface{}{
			"stage":        stage,
			"progress":     pct,
			"current":      current,
			"total":        total,
			"message":      msg,
			"heartbeat_at": now,
			"updated_at":   now,
		})
		if !ok {
			return
		}
	}

	if c.Job != nil {
		c.Job.Stage = stage
		c.Job.Progress = pct
		c.Job.Current = current
		c.Job.Total = total
		c.Job.Message = msg
		c.Job.HeartbeatAt = &now
		c.Job.UpdatedAt = now
	}
	if c.Notify != nil && c.Job != nil {
		c.Notify.JobProgress(c.Job, stage, pct, msg)
	}
}

// Fail marks the run terminally failed. Cancelled rows win the race and are
// not overwritten.
func (c *Context) Fail(stage string, err error) {
	if c == nil {
		return
	}
	now := time.Now()
	msg := ""
	if err != nil {
		msg = err.Error()
	}

	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: c.ctx()}, c.Job.ID, []string{types.JobStatusCancelled}, map[string]interface{}{
			"status":        types.JobStatusFailed,
			"stage":         stage,
			"message":       "",
			"error":         msg,
			"last_error_at": now,
			"locked_at":     nil,
			"updated_at":    now,
		})
		if !ok {
			return
		}
	}

	if c.Job != nil {
		c.Job.Status = types.JobStatusFailed
		c.Job.Stage = stage
		c.Job.Message = ""
		c.Job.Error = msg
		c.Job.LastErrorAt = &now
		c.Job.LockedAt = nil
		c.Job.UpdatedAt = now
	}
	if c.Notify != nil && c.Job != nil {
		c.Notify.JobFailed(c.Job, stage, msg)
	}
}

// Cancel marks the run terminally cancelled with a descriptive message.
// Handlers call it after noticing the cooperative token; it is idempotent
// with the caller-side cancellation write and never downgrades a run that
// already completed or failed.
func (c *Context) Cancel(stage, msg string) {
	if c == nil {
		return
	}
	now := time.Now()

	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: c.ctx()}, c.Job.ID,
			[]string{types.JobStatusCompleted, types.JobStatusFailed},
			map[string]interface{}{
				"status":     types.JobStatusCancelled,
				"stage":      stage,
				"message":    msg,
				"error":      "",
				"locked_at":  nil,
				"updated_at": now,
			})
		if !ok {
			return
		}
	}

	if c.Job != nil {
		c.Job.Status = types.JobStatusCancelled
		c.Job.Stage = stage
		c.Job.Message = msg
		c.Job.Error = ""
		c.Job.LockedAt = nil
		c.Job.UpdatedAt = now
	}
	if c.Notify != nil && c.Job != nil {
		c.Notify.JobCancelled(c.Job, msg)
	}
}

// Succeed marks the run terminally completed and persists a result payload.
func (c *Context) Succeed(finalStage string, result any) {
	if c == nil {
		return
	}
	now := time.Now()
	var res datatypes.JSON
	if result != nil {
		b, _ := json.Marshal(result)
		res = datatypes.JSON(b)
	}

	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: c.ctx()}, c.Job.ID, []string{types.JobStatusCancelled}, map[string]interface{}{
			"status":       types.JobStatusCompleted,
			"stage":        finalStage,
			"progress":     100,
			"current":      100,
			"total":        100,
			"message":      "",
			"error":        "",
			"result":       res,
			"locked_at":    nil,
			"heartbeat_at": now,
			"updated_at":   now,
		})
		if !ok {
			return
		}
	}

	if c.Job != nil {
		c.Job.Status = types.JobStatusCompleted
		c.Job.Stage = finalStage
		c.Job.Progress = 100
		c.Job.Current = 100
		c.Job.Total = 100
		c.Job.Message = ""
		c.Job.Error = ""
		c.Job.Result = res
		c.Job.LockedAt = nil
		c.Job.HeartbeatAt = &now
		c.Job.UpdatedAt = now
	}
	if c.Notify != nil && c.Job != nil {
		c.Notify.JobDone(c.Job)
	}
}

// Cancelled re-reads the row and reports whether a caller cancelled this
// run. Pipelines poll it between units of work (windows, nodes) as the
// cooperative cancellation token.
func (c *Context) Cancelled() bool {
	if c == nil || c.Repo == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return false
	}
	row, err := c.Repo.GetByID(dbctx.Context{Ctx: c.ctx()}, c.Job.ID)
	if err != nil || row == nil {
		return false
	}
	return row.Status == types.JobStatusCancelled
}

func percentOf(current, total int) int {
	if total <= 0 {
		return 0
	}
	pct := current * 100 / total
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
