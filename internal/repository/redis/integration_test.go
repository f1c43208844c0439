//go:build integration

package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/forgehex/hexwar/api/internal/testutil"
)

var testRDB *goredis.Client

func setup(t *testing.T) *Client {
	t.Helper()
	if testRDB == nil {
		testRDB = testutil.SetupRedis(t)
	}
	testutil.CleanupRedis(t, testRDB)
	return &Client{rdb: testRDB}
}

func TestBattleStateRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	battleID := "test-battle-1"

	state := json.RawMessage(`{"turn":3,"units":[{"id":1,"side":0,"count":8}]}`)

	if err := c.SetBattleState(ctx, battleID, state); err != nil {
		t.Fatalf("set battle state: %v", err)
	}

	got, err := c.GetBattleState(ctx, battleID)
	if err != nil {
		t.Fatalf("get battle state: %v", err)
	}
	if got == nil {
		t.Fatal("expected non-nil state")
	}

	var fetched map[string]any
	json.Unmarshal(got, &fetched)
	if fetched["turn"].(float64) != 3 {
		t.Fatalf("state round-trip failed: %s", string(got))
	}
}

func TestBattleStateNotFound(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	got, err := c.GetBattleState(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("get missing state: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil for missing battle state")
	}
}

func TestPendingCommandQueue(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	battleID := "test-battle-2"

	first := json.RawMessage(`{"kind":"move","unit":1,"target_cell":10}`)
	second := json.RawMessage(`{"kind":"attack","unit":1,"target":2}`)

	if err := c.PushPendingCommand(ctx, battleID, first); err != nil {
		t.Fatalf("push pending: %v", err)
	}
	if err := c.PushPendingCommand(ctx, battleID, second); err != nil {
		t.Fatalf("push pending: %v", err)
	}

	got, err := c.PopPendingCommand(ctx, battleID)
	if err != nil {
		t.Fatalf("pop pending: %v", err)
	}
	if string(got) != string(first) {
		t.Fatalf("expected FIFO order, got %s", got)
	}

	got, err = c.PopPendingCommand(ctx, battleID)
	if err != nil {
		t.Fatalf("pop pending: %v", err)
	}
	if string(got) != string(second) {
		t.Fatalf("expected second command, got %s", got)
	}

	empty, err := c.PopPendingCommand(ctx, battleID)
	if err != nil {
		t.Fatalf("pop empty queue: %v", err)
	}
	if empty != nil {
		t.Fatal("expected nil for drained queue")
	}
}

func TestTurnTimerWithTTL(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	battleID := "test-battle-3"

	deadline := time.Now().Add(10 * time.Second)
	if err := c.SetTurnTimer(ctx, battleID, deadline); err != nil {
		t.Fatalf("set turn timer: %v", err)
	}

	ttl := testRDB.TTL(ctx, timerKey(battleID)).Val()
	if ttl <= 0 || ttl > 16*time.Second {
		t.Fatalf("expected TTL ~15s, got %v", ttl)
	}

	c.ClearTurnTimer(ctx, battleID)
	exists := testRDB.Exists(ctx, timerKey(battleID)).Val()
	if exists != 0 {
		t.Fatal("expected timer key to be deleted")
	}
}

func TestTurnTimerPastDeadline(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	battleID := "test-battle-3b"

	deadline := time.Now().Add(-5 * time.Second)
	if err := c.SetTurnTimer(ctx, battleID, deadline); err != nil {
		t.Fatalf("set turn timer past deadline: %v", err)
	}

	ttl := testRDB.TTL(ctx, timerKey(battleID)).Val()
	if ttl <= 0 || ttl > 2*time.Second {
		t.Fatalf("expected TTL ~1s for past deadline, got %v", ttl)
	}
}

func TestDeleteBattleData(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	battleID := "test-battle-4"

	c.SetBattleState(ctx, battleID, json.RawMessage(`{"turn":1}`))
	c.PushPendingCommand(ctx, battleID, json.RawMessage(`{"kind":"skip"}`))
	c.SetTurnTimer(ctx, battleID, time.Now().Add(10*time.Second))

	if err := c.DeleteBattleData(ctx, battleID); err != nil {
		t.Fatalf("delete battle data: %v", err)
	}

	state, _ := c.GetBattleState(ctx, battleID)
	if state != nil {
		t.Fatal("expected battle state deleted")
	}
	pending, _ := c.PopPendingCommand(ctx, battleID)
	if pending != nil {
		t.Fatal("expected pending queue deleted")
	}
	exists := testRDB.Exists(ctx, timerKey(battleID)).Val()
	if exists != 0 {
		t.Fatal("expected timer deleted")
	}
}
