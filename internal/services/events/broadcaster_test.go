package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return client, mr
}

func receive(t *testing.T, ch <-chan *redis.Message) Event {
	t.Helper()
	select {
	case msg := <-ch:
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			t.Fatalf("Failed to unmarshal event: %v", err)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestBroadcaster_Publish(t *testing.T) {
	client, _ := setupTestRedis(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	b := NewBroadcaster(client, logger)

	ctx := context.Background()
	visitor := uuid.New()

	sub := client.Subscribe(ctx, Channel(visitor))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	ch := sub.Channel()

	if err := b.PublishGateUnlocked(ctx, visitor, "3rd", []string{"3rd"}); err != nil {
		t.Fatalf("PublishGateUnlocked: %v", err)
	}
	ev := receive(t, ch)
	if ev.Type != EventTypeGateUnlocked || ev.VisitorID != visitor.String() {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ev.Data["scope"] != "3rd" {
		t.Errorf("scope = %v", ev.Data["scope"])
	}

	if err := b.PublishGateWrong(ctx, visitor, "entry", 900); err != nil {
		t.Fatalf("PublishGateWrong: %v", err)
	}
	ev = receive(t, ch)
	if ev.Type != EventTypeGateWrong {
		t.Errorf("unexpected event type: %s", ev.Type)
	}
	if ev.Data["clear_after_ms"] != float64(900) {
		t.Errorf("clear_after_ms = %v", ev.Data["clear_after_ms"])
	}
}

func TestBroadcaster_PublishFailsWhenRedisDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	b := NewBroadcaster(client, logger)

	mr.Close()
	if err := b.PublishGateUnlocked(context.Background(), uuid.New(), "entry", nil); err == nil {
		t.Error("expected publish error with redis down")
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.PublishGateUnlocked(context.Background(), uuid.New(), "entry", nil); err != nil {
		t.Error(err)
	}
	if err := p.PublishGateWrong(context.Background(), uuid.New(), "entry", 1); err != nil {
		t.Error(err)
	}
}
