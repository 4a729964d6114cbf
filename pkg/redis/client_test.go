package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected allowed on first request")
	}
	if count != 1 {
		t.Fatalf("expected counter 1 got %d", count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected expire for first increment")
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.CartKey("owner-1")
	if err := client.Set(ctx, key, `[{"productId":"p1","quantity":2}]`, time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != `[{"productId":"p1","quantity":2}]` {
		t.Fatalf("unexpected stored cart %q", got)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); err != redis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if _, err := client.SetNX(context.Background(), "k", "v", time.Second); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	cases := map[string]string{
		client.IdempotencyKey("checkout", "abc"): "hn:idempotency:checkout:abc",
		client.RateLimitKey("login:ip:1.2.3.4"):  "hn:rate_limit:login:ip:1.2.3.4",
		client.AccessSessionKey("jti-1"):         "hn:session:access:jti-1",
		client.CartKey("owner-1"):                "hn:cart:owner-1",
		client.WishlistKey("owner-1"):            "hn:wishlist:owner-1",
		client.LockKey("wallet-reconcile"):       "hn:lock:wallet-reconcile",
		client.CartKey(""):                       "hn:cart",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("expected key %q, got %q", want, got)
		}
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	cmd := redis.NewCmd(ctx)
	if len(keys) != 1 || len(args) == 0 || m.data[keys[0]] != fmt.Sprint(args[0]) {
		cmd.SetVal(int64(0))
		return cmd
	}
	switch script {
	case releaseLockScript:
		delete(m.data, keys[0])
	case extendLockScript:
		m.expireCalls = append(m.expireCalls, expireCall{key: keys[0], ttl: time.Duration(args[1].(int64)) * time.Millisecond})
	}
	cmd.SetVal(int64(1))
	return cmd
}

func TestLockOwnership(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.LockKey("cron-worker")

	ok, err := client.SetNX(ctx, key, "owner-a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected lock acquired, got ok=%v err=%v", ok, err)
	}

	extended, err := client.ExtendLock(ctx, key, "owner-b", time.Minute)
	if err != nil || extended {
		t.Fatalf("foreign owner must not extend, got %v err=%v", extended, err)
	}
	released, err := client.ReleaseLock(ctx, key, "owner-b")
	if err != nil || released {
		t.Fatalf("foreign owner must not release, got %v err=%v", released, err)
	}

	extended, err = client.ExtendLock(ctx, key, "owner-a", 2*time.Minute)
	if err != nil || !extended {
		t.Fatalf("owner should extend, got %v err=%v", extended, err)
	}
	if last := mock.expireCalls[len(mock.expireCalls)-1]; last.ttl != 2*time.Minute {
		t.Fatalf("unexpected extend ttl %s", last.ttl)
	}
	released, err = client.ReleaseLock(ctx, key, "owner-a")
	if err != nil || !released {
		t.Fatalf("owner should release, got %v err=%v", released, err)
	}
	if _, exists := mock.data[key]; exists {
		t.Fatalf("lock key should be gone")
	}
}

func TestJSONRoundTripAndCorruption(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	type line struct {
		Name     string `json:"name"`
		Quantity int    `json:"quantity"`
	}

	var empty []line
	found, err := client.GetJSON(ctx, client.CartKey("missing"), &empty)
	if err != nil || found {
		t.Fatalf("expected missing key to read as not found, got found=%v err=%v", found, err)
	}

	key := client.WishlistKey("owner-2")
	if err := client.SetJSON(ctx, key, []line{{Name: "Tea", Quantity: 2}}, 0); err != nil {
		t.Fatalf("set json failed: %v", err)
	}
	var got []line
	found, err = client.GetJSON(ctx, key, &got)
	if err != nil || !found {
		t.Fatalf("expected stored value, got found=%v err=%v", found, err)
	}
	if len(got) != 1 || got[0].Name != "Tea" || got[0].Quantity != 2 {
		t.Fatalf("unexpected decoded value %+v", got)
	}

	mock.data[key] = "{not json"
	var corrupt []line
	found, err = client.GetJSON(ctx, key, &corrupt)
	if err != nil || found {
		t.Fatalf("expected corrupt payload to read as not found, got found=%v err=%v", found, err)
	}
}
