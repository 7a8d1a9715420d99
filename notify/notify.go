// The change notifier (C11): publishes one Kafka record per directory whose fragment changed in
// this run. This inverts the consumer pattern in sonalyze/daemon/kafka.go -- same client
// (github.com/twmb/franz-go/pkg/kgo), same seed-broker construction, but producing records instead
// of polling a consumer group. Publication failures are a soft error: logged, never fatal.

package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"framecache/store"
)

// Envelope is the record value published for one changed directory.
type Envelope struct {
	DC  store.Fragment `json:"dc"`
	Hot int64          `json:"hot"`
}

// Notifier publishes change envelopes to a Kafka broker.
type Notifier struct {
	client *kgo.Client
	topic  string
}

// Open connects to broker and prepares to publish to <namespaceBasename>.index.
func Open(broker, namespaceBasename string) (*Notifier, error) {
	cl, err := kgo.NewClient(kgo.SeedBrokers(broker))
	if err != nil {
		return nil, fmt.Errorf("connecting to kafka broker %s: %w", broker, err)
	}
	return &Notifier{client: cl, topic: namespaceBasename + ".index"}, nil
}

// Close releases the underlying client.
func (n *Notifier) Close() {
	if n != nil && n.client != nil {
		n.client.Close()
	}
}

// PublishChanges emits one record per (dir, fragment) pair in changed, keyed by dir. failed is
// called once per record that could not be encoded or produced; it never aborts the loop.
func (n *Notifier) PublishChanges(ctx context.Context, changed map[string]store.Fragment, hot map[string]int64, failed func(dir string, err error)) {
	for dir, frag := range changed {
		env := Envelope{DC: frag, Hot: hot[dir]}
		data, err := json.Marshal(env)
		if err != nil {
			failed(dir, err)
			continue
		}
		record := &kgo.Record{Topic: n.topic, Key: []byte(dir), Value: data}
		n.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
			if err != nil {
				failed(dir, err)
			}
		})
	}
	n.client.Flush(ctx)
}
