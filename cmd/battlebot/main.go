// Command battlebot drives one battle against a running cmd/server
// instance over HTTP/WebSocket, the analogue of the teacher's cmd/bot
// but scoped to a single battle instead of orchestrating 7 Diplomacy
// players. Since both sides' AI turns are resolved server-side (see
// internal/service.BattleService.driveAutoCombat), battlebot's job is to
// create the battle, hand control to the server's planner for both
// sides, and report the terminal result it observes over the socket.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/forgehex/hexwar/api/internal/battleclient"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	url := flag.String("url", "http://localhost:3009", "server base URL")
	rosterPath := flag.String("rosters", "", "Path to a JSON file with {\"attacker\":[...],\"defender\":[...]} unit specs")
	attackerDisposition := flag.String("attacker", "offensive", "Attacker AI disposition")
	defenderDisposition := flag.String("defender", "defensive", "Defender AI disposition")
	timeout := flag.Duration("timeout", 2*time.Minute, "max time to wait for the battle to end")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if *rosterPath == "" {
		log.Fatal().Msg("-rosters is required")
	}
	rosterData, err := os.ReadFile(*rosterPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read roster file")
	}
	var rosters struct {
		Attacker json.RawMessage `json:"attacker"`
		Defender json.RawMessage `json:"defender"`
	}
	if err := json.Unmarshal(rosterData, &rosters); err != nil {
		log.Fatal().Err(err).Msg("Failed to parse roster file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Received shutdown signal")
		cancel()
	}()

	c := battleclient.NewClient("battlebot", *url)
	if err := c.Login(); err != nil {
		log.Fatal().Err(err).Msg("Login failed")
	}

	createReq := map[string]any{
		"attacker_roster":  rosters.Attacker,
		"defender_roster":  rosters.Defender,
		"attacker_control": *attackerDisposition,
		"defender_control": *defenderDisposition,
	}
	battleID, err := c.CreateBattle(createReq)
	if err != nil {
		log.Fatal().Err(err).Msg("Create battle failed")
	}
	log.Info().Str("battleId", battleID).Msg("Battle created")

	if err := c.ConnectWS(); err != nil {
		log.Fatal().Err(err).Msg("WebSocket connect failed")
	}
	defer c.CloseWS()
	if err := c.SubscribeBattle(battleID); err != nil {
		log.Fatal().Err(err).Msg("WebSocket subscribe failed")
	}

	if err := c.StartBattle(battleID); err != nil {
		log.Fatal().Err(err).Msg("Start battle failed")
	}

	// Hand the rest of the battle to the server's AI planner on both
	// sides via the QuickCombat command.
	if _, err := c.SubmitCommand(battleID, map[string]any{
		"kind": "toggle-auto-combat",
		"side": 0,
	}); err != nil {
		log.Warn().Err(err).Msg("Enabling attacker auto-combat failed")
	}
	if _, err := c.SubmitCommand(battleID, map[string]any{
		"kind": "toggle-auto-combat",
		"side": 1,
	}); err != nil {
		log.Warn().Err(err).Msg("Enabling defender auto-combat failed")
	}
	if _, err := c.SubmitCommand(battleID, map[string]any{"kind": "quick-combat"}); err != nil {
		log.Fatal().Err(err).Msg("Quick-combat submission failed")
	}

	for {
		select {
		case <-ctx.Done():
			log.Fatal().Msg("Timed out waiting for battle to end")
		case event, ok := <-c.Events():
			if !ok {
				log.Fatal().Msg("WebSocket connection closed before battle ended")
			}
			if event.Type == "battle_ended" {
				fmt.Printf("battle %s ended: %v\n", battleID, event.Data)
				return
			}
			log.Debug().Str("type", event.Type).Msg("Event received")
		}
	}
}
