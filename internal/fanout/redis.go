package fanout

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBroadcaster fans out over Redis pub/sub. Each tenant namespace maps
// to the channel "<tenantID>:<namespace>"; subscribers attach to those
// channels through their tenant-scoped transport.
type RedisBroadcaster struct {
	client   redis.UniversalClient
	tenantID string
}

func NewRedisBroadcaster(client redis.UniversalClient, tenantID string) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, tenantID: tenantID}
}

func (b *RedisBroadcaster) Broadcast(ctx context.Context, namespace string, payload []byte) error {
	channel := b.tenantID + ":" + namespace
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("broadcasting to %s: %w", channel, err)
	}
	return nil
}
