package scheduler

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type stubConfig struct {
	redisURL string
	queue    string
}

func (c stubConfig) GetRedisURL() string       { return c.redisURL }
func (c stubConfig) GetAsynqQueueName() string { return c.queue }
func (c stubConfig) GetAsynqConcurrency() int  { return 1 }

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(stubConfig{}); err == nil {
		t.Fatalf("expected error without a redis url")
	}
}

func TestEnqueueSourceRefresh(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := stubConfig{redisURL: "redis://" + mr.Addr(), queue: "engine"}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	defer client.Close()

	if err := client.EnqueueSourceRefresh(context.Background(), "startup"); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	opt, queue, err := connection(cfg)
	if err != nil {
		t.Fatalf("connection failed: %v", err)
	}
	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	pending, err := inspector.ListPendingTasks(queue)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Type != TaskSourceRefresh {
		t.Fatalf("expected one pending source-refresh task, got %v", pending)
	}
	payload, err := ParseSourceRefreshPayload(asynq.NewTask(pending[0].Type, pending[0].Payload))
	if err != nil {
		t.Fatalf("parse payload failed: %v", err)
	}
	if payload.Trigger != "startup" {
		t.Fatalf("expected startup trigger, got %q", payload.Trigger)
	}
}
