package main

import (
	"context"
	"errors"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

// topicPublishers reuses one Pub/Sub publisher per topic. Creating a
// publisher per message would defeat its batching.
type topicPublishers struct {
	client pubSubClient
	mu     sync.Mutex
	byName map[string]*gcppubsub.Publisher
}

func newTopicPublishers(client pubSubClient) *topicPublishers {
	return &topicPublishers{client: client, byName: make(map[string]*gcppubsub.Publisher)}
}

func (t *topicPublishers) get(topic string) publisher {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.byName[topic]
	if !ok {
		p = t.client.Publisher(topic)
		if p == nil {
			return nil
		}
		t.byName[topic] = p
	}
	return gcpPublisher{p}
}

// stop flushes buffered messages on every cached publisher.
func (t *topicPublishers) stop() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, p := range t.byName {
		p.Stop()
		delete(t.byName, name)
	}
}

type gcpPublisher struct {
	p *gcppubsub.Publisher
}

func (g gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return gcpResult{g.p.Publish(ctx, msg)}
}

type gcpResult struct {
	r *gcppubsub.PublishResult
}

func (g gcpResult) Get(ctx context.Context) (string, error) {
	if g.r == nil {
		return "", errors.New("publish result is nil")
	}
	return g.r.Get(ctx)
}
