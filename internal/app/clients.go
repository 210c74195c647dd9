package app

import (
	"os"
	"strings"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/trackflow-backend/internal/clients/redis"
	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/spotify"
	"github.com/yungbote/trackflow-backend/internal/temporalx"
)

type Clients struct {
	Temporal temporalsdkclient.Client
	SSEBus   redis.SSEBus
	Spotify  spotify.Client
}

// wireClients tolerates missing optional backends. Redis and Spotify are
// optional; Temporal comes back nil when TEMPORAL_ADDRESS is unset, in which
// case enqueued jobs stay pending until a worker runs elsewhere.
func wireClients(log *logger.Logger) (Clients, error) {
	var c Clients

	tc, err := temporalx.NewClient(log)
	if err != nil {
		return c, err
	}
	c.Temporal = tc

	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		bus, err := redis.NewSSEBus(log)
		if err != nil {
			log.Warn("redis SSE bus unavailable, falling back to in-process fanout", "error", err)
		} else {
			c.SSEBus = bus
		}
	} else {
		log.Info("REDIS_ADDR not set, SSE events stay in-process")
	}

	if strings.TrimSpace(os.Getenv("SPOTIFY_CLIENT_ID")) != "" {
		sp, err := spotify.NewFromEnv(log)
		if err != nil {
			log.Warn("spotify client init failed, enrichment jobs will fail at validation", "error", err)
		} else {
			c.Spotify = sp
		}
	} else {
		log.Warn("SPOTIFY_CLIENT_ID not set, enrichment jobs will fail at validation")
	}

	return c, nil
}
