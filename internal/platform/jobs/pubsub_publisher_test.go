package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/stockroom/api/internal/services"
)

func TestPubSubEventPublisherPublishesMessage(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "domain-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubEventPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubEventPublisher: %v", err)
	}

	event := services.DomainEvent{
		Type:       "order.created",
		EntityType: "order",
		EntityID:   "o_test",
		ActorID:    "user-1",
		OccurredAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Payload: map[string]any{
			"orderNumber": "ORD-1748000000000-ABCDEF0123",
		},
	}

	if _, err := publisher.PublishEvent(ctx, event); err != nil {
		t.Fatalf("PublishEvent: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload services.DomainEvent
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Type != event.Type || payload.EntityID != event.EntityID {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if attr := messages[0].Attributes["entityType"]; attr != "order" {
		t.Fatalf("expected entityType attribute, got %q", attr)
	}
	if _, ok := messages[0].Attributes["payload"]; ok {
		t.Fatalf("payload attribute should not be present")
	}
}

func TestPubSubEventPublisherRequiresTopic(t *testing.T) {
	if _, err := NewPubSubEventPublisher(nil); err == nil {
		t.Fatal("expected error for nil topic")
	}
}
