package redis

import (
	"testing"
	"time"

	"github.com/pearcestephens/stocklink-backend/pkg/config"
)

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when url and address are both empty")
	}
}

func TestOptionsFromConfigAddress(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		Address:     "localhost:6379",
		Password:    "pw",
		DB:          2,
		PoolSize:    5,
		DialTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("optionsFromConfig: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.Password != "pw" || opts.DB != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.PoolSize != 5 || opts.DialTimeout != time.Second {
		t.Fatalf("pool settings not applied: %+v", opts)
	}
}

func TestKeyBuilders(t *testing.T) {
	c := &Client{}
	if got := c.IdempotencyKey("webhooks", "wh_1"); got != "sl:idempotency:webhooks:wh_1" {
		t.Fatalf("unexpected idempotency key %q", got)
	}
	if got := c.LockKey("sync-worker"); got != "sl:lock:sync-worker" {
		t.Fatalf("unexpected lock key %q", got)
	}
	if got := c.CounterKey("pages"); got != "sl:counter:pages" {
		t.Fatalf("unexpected counter key %q", got)
	}
}
