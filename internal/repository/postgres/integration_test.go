//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/forgehex/hexwar/api/internal/model"
	"github.com/forgehex/hexwar/api/internal/testutil"
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	m.Run()
}

func setup(t *testing.T) {
	t.Helper()
	if testDB == nil {
		testDB = testutil.SetupDB(t)
	}
	testutil.CleanupDB(t, testDB)
}

// createTestUser is a helper that inserts a user and returns it.
func createTestUser(t *testing.T, repo *UserRepo, id, displayName string) *model.User {
	t.Helper()
	u, err := repo.Upsert(context.Background(), id, displayName)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return u
}

// --- UserRepo Tests ---

func TestUserUpsertCreates(t *testing.T) {
	setup(t)
	repo := NewUserRepo(testDB)

	u, err := repo.Upsert(context.Background(), "11111111-1111-1111-1111-111111111111", "Alice")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected non-empty ID")
	}
	if u.DisplayName != "Alice" {
		t.Fatalf("expected display name Alice, got %s", u.DisplayName)
	}
}

func TestUserUpsertUpdates(t *testing.T) {
	setup(t)
	repo := NewUserRepo(testDB)

	id := "22222222-2222-2222-2222-222222222222"
	u1, err := repo.Upsert(context.Background(), id, "Bob")
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	u2, err := repo.Upsert(context.Background(), id, "Bobby")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if u1.ID != u2.ID {
		t.Fatalf("upsert should return same ID: %s vs %s", u1.ID, u2.ID)
	}
	if u2.DisplayName != "Bobby" {
		t.Fatalf("expected updated name Bobby, got %s", u2.DisplayName)
	}
}

func TestUserFindByID(t *testing.T) {
	setup(t)
	repo := NewUserRepo(testDB)

	created := createTestUser(t, repo, "33333333-3333-3333-3333-333333333333", "FindMe")
	found, err := repo.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatal("expected to find user by ID")
	}

	notFound, err := repo.FindByID(context.Background(), "00000000-0000-0000-0000-000000000000")
	if err != nil {
		t.Fatalf("find missing: %v", err)
	}
	if notFound != nil {
		t.Fatal("expected nil for missing user")
	}
}

// --- BattleRepo Tests ---

func TestBattleCreate(t *testing.T) {
	setup(t)
	battleRepo := NewBattleRepo(testDB)

	b, err := battleRepo.Create(context.Background(), "left-fortress", "right-keep", "ai", "ai", 42)
	if err != nil {
		t.Fatalf("create battle: %v", err)
	}
	if b.ID == "" {
		t.Fatal("expected non-empty battle ID")
	}
	if b.Status != "pending" {
		t.Fatalf("expected pending status, got %s", b.Status)
	}
	if b.Seed != 42 {
		t.Fatalf("expected seed 42, got %d", b.Seed)
	}
}

func TestBattleFindByID(t *testing.T) {
	setup(t)
	battleRepo := NewBattleRepo(testDB)

	created, _ := battleRepo.Create(context.Background(), "a", "b", "human", "ai", 7)
	found, err := battleRepo.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatal("expected to find battle by ID")
	}

	notFound, err := battleRepo.FindByID(context.Background(), "00000000-0000-0000-0000-000000000000")
	if err != nil {
		t.Fatalf("find missing: %v", err)
	}
	if notFound != nil {
		t.Fatal("expected nil for missing battle")
	}
}

func TestBattleListActiveAndFinished(t *testing.T) {
	setup(t)
	battleRepo := NewBattleRepo(testDB)

	b1, _ := battleRepo.Create(context.Background(), "a", "b", "ai", "ai", 1)
	b2, _ := battleRepo.Create(context.Background(), "a", "b", "ai", "ai", 2)

	if err := battleRepo.SetFinished(context.Background(), b2.ID, "attacker_wins", 14); err != nil {
		t.Fatalf("set finished: %v", err)
	}

	active, err := battleRepo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected 0 active (battles are 'pending' until started), got %d", len(active))
	}

	finished, err := battleRepo.ListFinished(context.Background())
	if err != nil {
		t.Fatalf("list finished: %v", err)
	}
	if len(finished) != 1 || finished[0].ID != b2.ID {
		t.Fatalf("expected 1 finished battle matching b2, got %d", len(finished))
	}

	_ = b1
}

func TestBattleSetFinished(t *testing.T) {
	setup(t)
	battleRepo := NewBattleRepo(testDB)

	b, _ := battleRepo.Create(context.Background(), "a", "b", "ai", "ai", 3)

	if err := battleRepo.SetFinished(context.Background(), b.ID, "defender_wins", 21); err != nil {
		t.Fatalf("set finished: %v", err)
	}

	found, _ := battleRepo.FindByID(context.Background(), b.ID)
	if found.Status != "finished" {
		t.Fatalf("expected finished, got %s", found.Status)
	}
	if found.Outcome != "defender_wins" {
		t.Fatalf("expected outcome defender_wins, got %s", found.Outcome)
	}
	if found.Turns != 21 {
		t.Fatalf("expected 21 turns, got %d", found.Turns)
	}
	if found.FinishedAt == nil {
		t.Fatal("expected finished_at to be set")
	}
}

func TestBattleDelete(t *testing.T) {
	setup(t)
	battleRepo := NewBattleRepo(testDB)

	b, _ := battleRepo.Create(context.Background(), "a", "b", "ai", "ai", 9)
	if err := battleRepo.Delete(context.Background(), b.ID); err != nil {
		t.Fatalf("delete battle: %v", err)
	}

	found, _ := battleRepo.FindByID(context.Background(), b.ID)
	if found != nil {
		t.Fatal("expected battle to be gone after delete")
	}
}

// --- CommandLogRepo Tests ---

func TestCommandLogAppendAndFetch(t *testing.T) {
	setup(t)
	battleRepo := NewBattleRepo(testDB)
	cmdRepo := NewCommandLogRepo(testDB)

	b, _ := battleRepo.Create(context.Background(), "a", "b", "ai", "ai", 5)

	rows := []model.BattleCommandRow{
		{BattleID: b.ID, Turn: 1, Kind: "move", Payload: json.RawMessage(`{"unit":1}`), Accepted: true},
		{BattleID: b.ID, Turn: 1, Kind: "attack", Payload: json.RawMessage(`{"unit":1,"target":2}`), Accepted: true, Damage: 12, Killed: 0},
		{BattleID: b.ID, Turn: 2, Kind: "spellcast", Payload: json.RawMessage(`{"unit":3}`), Accepted: false, Reason: "out of range"},
	}

	if err := cmdRepo.AppendCommands(context.Background(), b.ID, rows); err != nil {
		t.Fatalf("append commands: %v", err)
	}

	fetched, err := cmdRepo.CommandsByBattle(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("commands by battle: %v", err)
	}
	if len(fetched) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(fetched))
	}

	var rejected *model.BattleCommandRow
	for i := range fetched {
		if !fetched[i].Accepted {
			rejected = &fetched[i]
		}
	}
	if rejected == nil {
		t.Fatal("expected to find the rejected spellcast command")
	}
	if rejected.Reason != "out of range" {
		t.Fatalf("expected reason 'out of range', got %s", rejected.Reason)
	}
}

func TestCommandLogAppendEmptyIsNoop(t *testing.T) {
	setup(t)
	cmdRepo := NewCommandLogRepo(testDB)
	if err := cmdRepo.AppendCommands(context.Background(), "any-id", nil); err != nil {
		t.Fatalf("expected nil error for empty batch, got %v", err)
	}
}

// --- MessageRepo Tests ---

func TestMessageCreateAndList(t *testing.T) {
	setup(t)
	battleRepo := NewBattleRepo(testDB)
	msgRepo := NewMessageRepo(testDB)

	b, _ := battleRepo.Create(context.Background(), "a", "b", "human", "ai", 1)

	m1, err := msgRepo.Create(context.Background(), b.ID, "spectator-1", "Nice opening move!")
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	if m1.ID == "" {
		t.Fatal("expected non-empty message ID")
	}

	msgRepo.Create(context.Background(), b.ID, "spectator-2", "The defender is overextended")

	msgs, err := msgRepo.ListByBattle(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("list by battle: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "Nice opening move!" {
		t.Fatalf("expected oldest-first ordering, got %s", msgs[0].Content)
	}
}
