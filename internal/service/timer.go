package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// TurnTimerListener listens for Redis keyspace notifications on expired
// turn-timer keys and auto-skips a human-controlled unit's turn when its
// clock runs out, the analogue of the teacher's phase-deadline
// TimerListener but scoped to one unit's turn instead of a whole game
// phase. It relies on keyspace notifications alone; there is no polling
// fallback if they are disabled on the Redis server.
type TurnTimerListener struct {
	rdb *redis.Client
	svc *BattleService
}

// NewTurnTimerListener creates a TurnTimerListener.
func NewTurnTimerListener(rdb *redis.Client, svc *BattleService) *TurnTimerListener {
	return &TurnTimerListener{rdb: rdb, svc: svc}
}

// Start begins listening for expired timer keys until ctx is canceled.
func (t *TurnTimerListener) Start(ctx context.Context) {
	log.Info().Msg("Turn timer listener started, listening for expired keys")
	pubsub := t.rdb.PSubscribe(ctx, "__keyevent@0__:expired")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			t.handleExpiry(ctx, msg.Payload)
		}
	}
}

// handleExpiry processes an expired key. Only acts on battle turn-timer
// keys ("battle:<id>:timer").
func (t *TurnTimerListener) handleExpiry(ctx context.Context, key string) {
	if !strings.HasPrefix(key, "battle:") || !strings.HasSuffix(key, ":timer") {
		return
	}

	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 {
		return
	}
	battleID := parts[1]

	log.Info().Str("battleId", battleID).Msg("Turn timer expired, auto-skipping")
	if err := t.svc.AutoSkipTurn(ctx, battleID); err != nil {
		log.Error().Err(err).Str("battleId", battleID).Msg("Auto-skip failed after timer expiry")
	}
}

// turnDeadline computes a deadline turnSeconds from now, used by the
// handler when starting a human-controlled turn's clock.
func turnDeadline(turnSeconds int) time.Time {
	return time.Now().Add(time.Duration(turnSeconds) * time.Second)
}
