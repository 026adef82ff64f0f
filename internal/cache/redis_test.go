package cache_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/totals/internal/cache"
)

// memoryStore answers GET and SET from a map so no server is needed
type memoryStore struct {
	data map[string]string
}

func (m *memoryStore) DialHook(next redis.DialHook) redis.DialHook { return next }

func (m *memoryStore) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (m *memoryStore) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		args := cmd.Args()
		switch cmd.Name() {
		case "set":
			m.data[fmt.Sprint(args[1])] = toString(args[2])
			cmd.(*redis.StatusCmd).SetVal("OK")
			return nil
		case "get":
			v, ok := m.data[fmt.Sprint(args[1])]
			if !ok {
				cmd.SetErr(redis.Nil)
				return redis.Nil
			}
			cmd.(*redis.StringCmd).SetVal(v)
			return nil
		}
		err := fmt.Errorf("unexpected command %s", cmd.Name())
		cmd.SetErr(err)
		return err
	}
}

func toString(v interface{}) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}

func newCache(t *testing.T) (*cache.RedisCache, *memoryStore) {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	store := &memoryStore{data: map[string]string{}}
	client.AddHook(store)
	t.Cleanup(func() { client.Close() })
	return cache.NewRedisCacheFromClient(client), store
}

type snapshot struct {
	Games []string `json:"games"`
}

func TestGetJSONMiss(t *testing.T) {
	rc, _ := newCache(t)

	var got snapshot
	if err := rc.GetJSON(context.Background(), cache.LiveOddsKey, &got); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}
}

func TestSetThenGetJSON(t *testing.T) {
	rc, _ := newCache(t)
	ctx := context.Background()

	if err := rc.SetJSON(ctx, cache.LiveOddsKey, snapshot{Games: []string{"g1", "g2"}}, time.Minute); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	var got snapshot
	if err := rc.GetJSON(ctx, cache.LiveOddsKey, &got); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if len(got.Games) != 2 || got.Games[1] != "g2" {
		t.Errorf("got %+v", got)
	}
}

func TestGetJSONCorruptValue(t *testing.T) {
	rc, store := newCache(t)
	store.data[cache.LiveOddsKey] = "{not json"

	var got snapshot
	err := rc.GetJSON(context.Background(), cache.LiveOddsKey, &got)
	if err == nil || errors.Is(err, cache.ErrMiss) {
		t.Errorf("expected decode error, got %v", err)
	}
}
