// Package registry implements the service registry: a Redis-backed KV store
// with per-key TTL that agents use to advertise liveness and discover
// peers. The TTL/heartbeat/staleness pattern is grounded on the teacher's
// registry/health_tracker.go (itself backed by goa.design/pulse/rmap, which
// is in turn Redis-backed — see DESIGN.md), implemented here directly
// against redis/go-redis/v9 since the module does not need pulse's
// distributed-ticker/NATS machinery for a single-writer-per-key registry.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/types"
)

const keyPrefix = "registry:"

// Registry is a thin wrapper around a Redis client scoped to agent
// liveness entries.
type Registry struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to the Redis instance described by dsn (e.g.
// "redis://localhost:6379/0").
func New(dsn string, ttl time.Duration) (*Registry, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse registry dsn: %w", err)
	}
	return &Registry{client: redis.NewClient(opts), ttl: ttl}, nil
}

func key(role string) string { return keyPrefix + role }

// Register writes this agent's registry entry with the registry's
// configured TTL. Callers are expected to call Register again at half the
// TTL (see StartHeartbeat) to keep the entry alive.
func (r *Registry) Register(ctx context.Context, role string, entry types.RegistryEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal registry entry: %w", err)
	}
	return r.client.Set(ctx, key(role), raw, r.ttl).Err()
}

// Deregister deletes this agent's registry entry. The agent processes do
// not call it on shutdown, so a stopped agent's entry, like a crashed
// one's, stays until its TTL expires.
func (r *Registry) Deregister(ctx context.Context, role string) error {
	return r.client.Del(ctx, key(role)).Err()
}

// StartHeartbeat refreshes the registry entry for role at half the
// registry's TTL until ctx is cancelled. It runs as a background goroutine
// started by the caller.
func (r *Registry) StartHeartbeat(ctx context.Context, role string, entry types.RegistryEntry) {
	interval := r.ttl / 2
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.Register(ctx, role, entry)
		}
	}
}

// Lookup returns the current registry entry for role, or ErrNotFound if the
// key has expired or was never written.
func (r *Registry) Lookup(ctx context.Context, role string) (types.RegistryEntry, error) {
	raw, err := r.client.Get(ctx, key(role)).Bytes()
	if err == redis.Nil {
		return types.RegistryEntry{}, ErrNotFound
	}
	if err != nil {
		return types.RegistryEntry{}, fmt.Errorf("lookup registry entry: %w", err)
	}
	var entry types.RegistryEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return types.RegistryEntry{}, fmt.Errorf("decode registry entry: %w", err)
	}
	return entry, nil
}

// Discover scans all registry:* keys and returns a role -> entry map. SCAN
// is used rather than KEYS so this is safe to run against a Redis instance
// shared with other workloads.
func (r *Registry) Discover(ctx context.Context) (map[string]types.RegistryEntry, error) {
	out := make(map[string]types.RegistryEntry)
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		raw, err := r.client.Get(ctx, k).Bytes()
		if err == redis.Nil {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, fmt.Errorf("discover: get %s: %w", k, err)
		}
		var entry types.RegistryEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		out[k[len(keyPrefix):]] = entry
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("discover: scan: %w", err)
	}
	return out, nil
}

// IsFresh reports whether entry is still within the registry's TTL of its
// StartedAt timestamp. Nothing in the module calls it: the Coordinator
// reaches its peers through the configured PeerURLs, not the registry.
func (r *Registry) IsFresh(entry types.RegistryEntry) bool {
	return time.Since(entry.StartedAt) < r.ttl
}

// Close releases the underlying Redis connection.
func (r *Registry) Close() error { return r.client.Close() }
