package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/sse"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *sse.Hub
}

func NewRealtimeHandler(log *logger.Logger, hub *sse.Hub) *RealtimeHandler {
	return &RealtimeHandler{
		log: log.With("handler", "RealtimeHandler"),
		hub: hub,
	}
}

// GET /api/sse/stream
//
// Every stream is subscribed to the global jobs channel. Pass
// ?job_id=<uuid> to additionally follow a single job's channel, or
// ?channels=a,b for explicit channel names.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	client := h.hub.NewClient()
	h.hub.AddChannel(client, sse.ChannelJobs)

	if raw := c.Query("job_id"); raw != "" {
		if jobID, err := uuid.Parse(raw); err == nil {
			h.hub.AddChannel(client, sse.JobChannel(jobID))
		}
	}
	for _, ch := range strings.Split(c.Query("channels"), ",") {
		if ch = strings.TrimSpace(ch); ch != "" {
			h.hub.AddChannel(client, ch)
		}
	}

	h.log.Info("sse stream open", "client_id", client.ID.String())
	h.hub.ServeHTTP(c.Writer, c.Request, client)
	h.hub.CloseClient(client)
}
