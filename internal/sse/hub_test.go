package sse

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/trackflow-backend/internal/platform/logger"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return NewHub(log)
}

func TestBroadcastReachesSubscribedChannelOnly(t *testing.T) {
	hub := testHub(t)

	jobID := uuid.New()
	global := hub.NewClient()
	hub.AddChannel(global, ChannelJobs)
	perJob := hub.NewClient()
	hub.AddChannel(perJob, JobChannel(jobID))

	hub.Broadcast(Message{Channel: ChannelJobs, Event: EventJobProgress, Data: "x"})

	select {
	case msg := <-global.Outbound:
		if msg.Event != EventJobProgress {
			t.Fatalf("unexpected event: %q", msg.Event)
		}
	default:
		t.Fatal("global subscriber did not receive broadcast")
	}
	select {
	case msg := <-perJob.Outbound:
		t.Fatalf("per-job subscriber received foreign message: %+v", msg)
	default:
	}

	hub.Broadcast(Message{Channel: JobChannel(jobID), Event: EventJobDone})
	select {
	case msg := <-perJob.Outbound:
		if msg.Channel != JobChannel(jobID) {
			t.Fatalf("unexpected channel: %q", msg.Channel)
		}
	default:
		t.Fatal("per-job subscriber did not receive its message")
	}
}

func TestRemoveChannelStopsDelivery(t *testing.T) {
	hub := testHub(t)

	client := hub.NewClient()
	hub.AddChannel(client, ChannelJobs)
	hub.RemoveChannel(client, ChannelJobs)

	hub.Broadcast(Message{Channel: ChannelJobs, Event: EventJobCreated})
	select {
	case msg := <-client.Outbound:
		t.Fatalf("received after unsubscribe: %+v", msg)
	default:
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := testHub(t)

	client := hub.NewClient()
	hub.AddChannel(client, ChannelJobs)

	for i := 0; i < cap(client.Outbound)+5; i++ {
		hub.Broadcast(Message{Channel: ChannelJobs, Event: EventJobProgress, Data: i})
	}
	if got := len(client.Outbound); got != cap(client.Outbound) {
		t.Fatalf("expected full buffer, got %d", got)
	}
}
