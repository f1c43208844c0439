package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key patterns for live battle state, the analogue of the teacher's
// game/orders/timer keys but scoped to one battle's suspension point
// instead of a whole multi-phase game.
func stateKey(battleID string) string   { return "battle:" + battleID + ":state" }
func pendingKey(battleID string) string { return "battle:" + battleID + ":pending" }
func timerKey(battleID string) string   { return "battle:" + battleID + ":timer" }

// SetBattleState stores the serialized Arena snapshot so a second host
// process (or a restarted one) can resume a battle without replaying the
// full command log.
func (c *Client) SetBattleState(ctx context.Context, battleID string, state json.RawMessage) error {
	return c.rdb.Set(ctx, stateKey(battleID), []byte(state), 0).Err()
}

// GetBattleState retrieves the live battle state JSON, or nil if none is
// cached.
func (c *Client) GetBattleState(ctx context.Context, battleID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, stateKey(battleID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get battle state: %w", err)
	}
	return json.RawMessage(data), nil
}

// PushPendingCommand enqueues a command awaiting resolution, the
// suspension point a host polls while waiting on a human controller's
// submission or a slow AI planner call running out-of-process.
func (c *Client) PushPendingCommand(ctx context.Context, battleID string, cmd json.RawMessage) error {
	return c.rdb.LPush(ctx, pendingKey(battleID), []byte(cmd)).Err()
}

// PopPendingCommand dequeues the oldest pending command, or nil if the
// queue is empty.
func (c *Client) PopPendingCommand(ctx context.Context, battleID string) (json.RawMessage, error) {
	data, err := c.rdb.RPop(ctx, pendingKey(battleID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop pending command: %w", err)
	}
	return json.RawMessage(data), nil
}

// turnGracePeriod is the extra time after the displayed deadline before
// auto-skip triggers for an idle human-controlled turn.
const turnGracePeriod = 5 * time.Second

// SetTurnTimer creates a timer key with a TTL keyed to deadline. When the
// key expires, Redis keyspace notifications can trigger an auto-skip for
// an unresponsive human controller.
func (c *Client) SetTurnTimer(ctx context.Context, battleID string, deadline time.Time) error {
	ttl := time.Until(deadline) + turnGracePeriod
	if ttl <= 0 {
		ttl = time.Second
	}
	return c.rdb.Set(ctx, timerKey(battleID), deadline.Unix(), ttl).Err()
}

// ClearTurnTimer removes the turn timer for a battle.
func (c *Client) ClearTurnTimer(ctx context.Context, battleID string) error {
	return c.rdb.Del(ctx, timerKey(battleID)).Err()
}

// DeleteBattleData removes all Redis data for a battle, called once it
// finishes.
func (c *Client) DeleteBattleData(ctx context.Context, battleID string) error {
	return c.rdb.Del(ctx, stateKey(battleID), pendingKey(battleID), timerKey(battleID)).Err()
}
