package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/yardops-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "yard-prod"}

	if got := c.topicResourceName("yardops-notification-events"); got != "projects/yard-prod/topics/yardops-notification-events" {
		t.Fatalf("unexpected topic name %q", got)
	}
	if got := c.topicResourceName("projects/other/topics/t"); got != "projects/other/topics/t" {
		t.Fatalf("full topic names should pass through, got %q", got)
	}
	if got := c.subscriptionResourceName("notifications-sub"); got != "projects/yard-prod/subscriptions/notifications-sub" {
		t.Fatalf("unexpected subscription name %q", got)
	}
	if got := c.subscriptionResourceName("  "); got != "" {
		t.Fatalf("blank names should resolve empty, got %q", got)
	}
}

func TestRequiredResourcesByRole(t *testing.T) {
	if _, _, err := requiredResources(config.PubSubConfig{}, RoleConsumer); err == nil {
		t.Fatal("consumer without a subscription should fail")
	}
	topics, subs, err := requiredResources(config.PubSubConfig{NotificationSubscription: " notifications-sub "}, RoleConsumer)
	if err != nil || len(topics) != 0 || len(subs) != 1 || subs[0] != "notifications-sub" {
		t.Fatalf("unexpected consumer resources %v %v %v", topics, subs, err)
	}

	if _, _, err := requiredResources(config.PubSubConfig{}, RolePublisher); err == nil {
		t.Fatal("publisher without topics should fail")
	}
	topics, subs, err = requiredResources(config.PubSubConfig{
		DomainTopic:              "yardops-domain-events",
		NotificationTopic:        " ",
		NotificationSubscription: "ignored",
	}, RolePublisher)
	if err != nil || len(subs) != 0 || len(topics) != 1 || topics[0] != "yardops-domain-events" {
		t.Fatalf("unexpected publisher resources %v %v %v", topics, subs, err)
	}
}

func TestRoleString(t *testing.T) {
	if RolePublisher.String() != "publisher" || RoleConsumer.String() != "consumer" {
		t.Fatalf("unexpected role names %s %s", RolePublisher, RoleConsumer)
	}
}

func TestClientOptions(t *testing.T) {
	if opts := clientOptions(config.GCPConfig{}); len(opts) != 0 {
		t.Fatalf("expected default credentials, got %d options", len(opts))
	}
	if opts := clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`}); len(opts) != 1 {
		t.Fatalf("expected credentials option, got %d", len(opts))
	}
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	if c.Publisher("t") != nil {
		t.Fatal("nil client should return nil publisher")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("nil client ping should fail")
	}
}
