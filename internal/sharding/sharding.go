package sharding

import "github.com/cespare/xxhash/v2"

// ShardRouter maps a user to one of ShardCount databases. Orders and coupons
// of a user always live on the same shard so they can share a transaction.
type ShardRouter struct {
	ShardCount int // Number of shards
}

func NewShardRouter(shardCount int) *ShardRouter {
	if shardCount < 1 {
		shardCount = 1
	}
	return &ShardRouter{ShardCount: shardCount}
}

func (r *ShardRouter) GetShard(userID string) int {
	// Hash the user ID and get the shard index
	return int(xxhash.Sum64String(userID) % uint64(r.ShardCount))
}
