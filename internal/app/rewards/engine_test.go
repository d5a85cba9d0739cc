package rewards

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/questkeep/questkeep/internal/domain"
	"github.com/questkeep/questkeep/internal/infra/sqlite"
)

// ─── Test Fixtures ──────────────────────────────────────────────────────────

func newTestEngine(t *testing.T) (*Engine, *sqlite.DB, int64) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "rewards.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	user, err := db.CreateUser(context.Background(), "tester", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewEngine(db), db, user.ID
}

func setPoints(t *testing.T, db *sqlite.DB, userID int64, b domain.PointsBalance) {
	t.Helper()
	err := db.Update(context.Background(), func(tx *sqlite.Tx) error {
		return tx.SetPoints(userID, b)
	})
	if err != nil {
		t.Fatalf("set points: %v", err)
	}
}

func mustPoints(t *testing.T, db *sqlite.DB, userID int64) domain.PointsBalance {
	t.Helper()
	b, err := db.Points(context.Background(), userID)
	if err != nil {
		t.Fatalf("read points: %v", err)
	}
	return b
}

func createQuest(t *testing.T, db *sqlite.DB, userID int64, body, mind, soul int64, rewardItems ...int64) *domain.Quest {
	t.Helper()
	q, err := db.CreateQuest(context.Background(), &domain.Quest{
		UserID:        userID,
		Title:         "quest",
		Group:         domain.DefaultGroup,
		RewardBody:    body,
		RewardMind:    mind,
		RewardSoul:    soul,
		RewardItemIDs: rewardItems,
	})
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}
	return q
}

func createItem(t *testing.T, db *sqlite.DB, userID, qty, body, mind, soul int64) *domain.Item {
	t.Helper()
	i, err := db.CreateItem(context.Background(), &domain.Item{
		UserID:    userID,
		Title:     "item",
		Category:  domain.DefaultGroup,
		Quantity:  qty,
		PriceBody: body,
		PriceMind: mind,
		PriceSoul: soul,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	return i
}

// ─── ToggleQuestCompletion ──────────────────────────────────────────────────

func TestToggleQuest_CompleteCreditsLedger(t *testing.T) {
	engine, db, userID := newTestEngine(t)
	setPoints(t, db, userID, domain.PointsBalance{Body: 10, Mind: 10, Soul: 10})
	quest := createQuest(t, db, userID, 5, 0, 0)

	updated, err := engine.ToggleQuestCompletion(context.Background(), userID, quest.ID, true)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !updated.Completed {
		t.Error("quest should be completed")
	}

	got := mustPoints(t, db, userID)
	want := domain.PointsBalance{Body: 15, Mind: 10, Soul: 10}
	if got != want {
		t.Errorf("points = %+v, want %+v", got, want)
	}
}

func TestToggleQuest_RoundTrip(t *testing.T) {
	engine, db, userID := newTestEngine(t)
	setPoints(t, db, userID, domain.PointsBalance{Body: 10, Mind: 10, Soul: 10})
	quest := createQuest(t, db, userID, 5, 0, 0)

	ctx := context.Background()
	if _, err := engine.ToggleQuestCompletion(ctx, userID, quest.ID, true); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := mustPoints(t, db, userID); got != (domain.PointsBalance{Body: 15, Mind: 10, Soul: 10}) {
		t.Fatalf("after complete: %+v", got)
	}

	if _, err := engine.ToggleQuestCompletion(ctx, userID, quest.ID, false); err != nil {
		t.Fatalf("uncomplete: %v", err)
	}
	if got := mustPoints(t, db, userID); got != (domain.PointsBalance{Body: 10, Mind: 10, Soul: 10}) {
		t.Errorf("after uncomplete: %+v, want starting balance back", got)
	}
}

func TestToggleQuest_Idempotent(t *testing.T) {
	engine, db, userID := newTestEngine(t)
	quest := createQuest(t, db, userID, 5, 3, 1)

	ctx := context.Background()
	if _, err := engine.ToggleQuestCompletion(ctx, userID, quest.ID, true); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	first := mustPoints(t, db, userID)

	// Second identical call must be a no-op on the ledger.
	updated, err := engine.ToggleQuestCompletion(ctx, userID, quest.ID, true)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if !updated.Completed {
		t.Error("quest should stay completed")
	}
	if got := mustPoints(t, db, userID); got != first {
		t.Errorf("points changed on idempotent toggle: %+v → %+v", first, got)
	}
}

func TestToggleQuest_UncompleteRejectedWhenSpent(t *testing.T) {
	engine, db, userID := newTestEngine(t)
	quest := createQuest(t, db, userID, 5, 0, 0)

	ctx := context.Background()
	if _, err := engine.ToggleQuestCompletion(ctx, userID, quest.ID, true); err != nil {
		t.Fatalf("complete: %v", err)
	}
	// Simulate spending: only 3 body points left, less than the 5 to revoke.
	setPoints(t, db, userID, domain.PointsBalance{Body: 3, Mind: 7, Soul: 9})

	_, err := engine.ToggleQuestCompletion(ctx, userID, quest.ID, false)
	if !errors.Is(err, domain.ErrInsufficientPoints) {
		t.Fatalf("err = %v, want ErrInsufficientPoints", err)
	}

	// The whole operation must be rejected: ledger untouched, quest still completed.
	if got := mustPoints(t, db, userID); got != (domain.PointsBalance{Body: 3, Mind: 7, Soul: 9}) {
		t.Errorf("ledger mutated on rejected toggle: %+v", got)
	}
	stored, err := db.QuestByID(ctx, userID, quest.ID)
	if err != nil {
		t.Fatalf("reload quest: %v", err)
	}
	if !stored.Completed {
		t.Error("quest flag mutated on rejected toggle")
	}
}

func TestToggleQuest_NotFound(t *testing.T) {
	engine, _, userID := newTestEngine(t)

	_, err := engine.ToggleQuestCompletion(context.Background(), userID, 9999, true)
	if !errors.Is(err, domain.ErrQuestNotFound) {
		t.Errorf("err = %v, want ErrQuestNotFound", err)
	}
}

func TestToggleQuest_OtherUsersQuestIsNotFound(t *testing.T) {
	engine, db, userID := newTestEngine(t)
	other, err := db.CreateUser(context.Background(), "other", "hash")
	if err != nil {
		t.Fatal(err)
	}
	quest := createQuest(t, db, other.ID, 5, 0, 0)

	_, err = engine.ToggleQuestCompletion(context.Background(), userID, quest.ID, true)
	if !errors.Is(err, domain.ErrQuestNotFound) {
		t.Errorf("err = %v, want ErrQuestNotFound for foreign quest", err)
	}
}

func TestToggleQuest_ZeroRewardSkipsLedger(t *testing.T) {
	engine, db, userID := newTestEngine(t)
	quest := createQuest(t, db, userID, 0, 0, 0)

	if _, err := engine.ToggleQuestCompletion(context.Background(), userID, quest.ID, true); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got := mustPoints(t, db, userID); got != (domain.PointsBalance{}) {
		t.Errorf("zero-reward quest touched the ledger: %+v", got)
	}
}

// ─── Reward Items ───────────────────────────────────────────────────────────

func TestToggleQuest_GrantsRewardItems(t *testing.T) {
	engine, db, userID := newTestEngine(t)
	item := createItem(t, db, userID, 0, 0, 0, 0)
	quest := createQuest(t, db, userID, 1, 0, 0, item.ID)

	ctx := context.Background()
	if _, err := engine.ToggleQuestCompletion(ctx, userID, quest.ID, true); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	stored, err := db.ItemByID(ctx, userID, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Quantity != 1 {
		t.Errorf("quantity = %d, want 1 after grant", stored.Quantity)
	}
}

func TestToggleQuest_RevokesRewardItems(t *testing.T) {
	engine, db, userID := newTestEngine(t)
	item := createItem(t, db, userID, 0, 0, 0, 0)
	quest := createQuest(t, db, userID, 0, 0, 0, item.ID)

	ctx := context.Background()
	if _, err := engine.ToggleQuestCompletion(ctx, userID, quest.ID, true); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.ToggleQuestCompletion(ctx, userID, quest.ID, false); err != nil {
		t.Fatalf("uncomplete: %v", err)
	}

	stored, err := db.ItemByID(ctx, userID, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Quantity != 0 {
		t.Errorf("quantity = %d, want 0 after revoke", stored.Quantity)
	}
}

func TestToggleQuest_RevokeRejectedWhenRewardConsumed(t *testing.T) {
	engine, db, userID := newTestEngine(t)
	item := createItem(t, db, userID, 0, 0, 0, 0)
	quest := createQuest(t, db, userID, 2, 0, 0, item.ID)

	ctx := context.Background()
	if _, err := engine.ToggleQuestCompletion(ctx, userID, quest.ID, true); err != nil {
		t.Fatal(err)
	}
	// Consume the granted unit; the completion can no longer be undone.
	if _, err := engine.UseItem(ctx, userID, item.ID); err != nil {
		t.Fatal(err)
	}

	_, err := engine.ToggleQuestCompletion(ctx, userID, quest.ID, false)
	if !errors.Is(err, domain.ErrNoRemainingQuantity) {
		t.Fatalf("err = %v, want ErrNoRemainingQuantity", err)
	}

	// Nothing rolled: points keep the credit, quest stays completed.
	if got := mustPoints(t, db, userID); got != (domain.PointsBalance{Body: 2}) {
		t.Errorf("ledger mutated on rejected revoke: %+v", got)
	}
	stored, _ := db.QuestByID(ctx, userID, quest.ID)
	if !stored.Completed {
		t.Error("quest flag mutated on rejected revoke")
	}
}

// ─── UseItem ────────────────────────────────────────────────────────────────

func TestUseItem_DecrementsQuantity(t *testing.T) {
	engine, db, userID := newTestEngine(t)
	item := createItem(t, db, userID, 2, 0, 0, 0)

	updated, err := engine.UseItem(context.Background(), userID, item.ID)
	if err != nil {
		t.Fatalf("use: %v", err)
	}
	if updated.Quantity != 1 {
		t.Errorf("quantity = %d, want 1", updated.Quantity)
	}
	// The ledger is never involved.
	if got := mustPoints(t, db, userID); got != (domain.PointsBalance{}) {
		t.Errorf("use item touched the ledger: %+v", got)
	}
}

func TestUseItem_EmptyStock(t *testing.T) {
	engine, db, userID := newTestEngine(t)
	item := createItem(t, db, userID, 0, 0, 0, 0)

	_, err := engine.UseItem(context.Background(), userID, item.ID)
	if !errors.Is(err, domain.ErrNoRemainingQuantity) {
		t.Errorf("err = %v, want ErrNoRemainingQuantity", err)
	}
}

func TestUseItem_NotFound(t *testing.T) {
	engine, _, userID := newTestEngine(t)

	_, err := engine.UseItem(context.Background(), userID, 9999)
	if !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("err = %v, want ErrItemNotFound", err)
	}
}

// ─── BuyItem ────────────────────────────────────────────────────────────────

func TestBuyItem_DebitsAndGrants(t *testing.T) {
	engine, db, userID := newTestEngine(t)
	setPoints(t, db, userID, domain.PointsBalance{Body: 5, Mind: 5, Soul: 5})
	item := createItem(t, db, userID, 0, 3, 2, 0)

	updated, err := engine.BuyItem(context.Background(), userID, item.ID)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if updated.Quantity != 1 {
		t.Errorf("quantity = %d, want 1", updated.Quantity)
	}

	got := mustPoints(t, db, userID)
	want := domain.PointsBalance{Body: 2, Mind: 3, Soul: 5}
	if got != want {
		t.Errorf("points = %+v, want %+v", got, want)
	}
}

func TestBuyItem_InsufficientOneDimension(t *testing.T) {
	engine, db, userID := newTestEngine(t)
	setPoints(t, db, userID, domain.PointsBalance{Body: 2, Mind: 1, Soul: 5})
	item := createItem(t, db, userID, 0, 3, 2, 0)

	_, err := engine.BuyItem(context.Background(), userID, item.ID)
	if !errors.Is(err, domain.ErrInsufficientPoints) {
		t.Fatalf("err = %v, want ErrInsufficientPoints", err)
	}

	// No partial debit, no item granted.
	if got := mustPoints(t, db, userID); got != (domain.PointsBalance{Body: 2, Mind: 1, Soul: 5}) {
		t.Errorf("ledger mutated on rejected buy: %+v", got)
	}
	stored, _ := db.ItemByID(context.Background(), userID, item.ID)
	if stored.Quantity != 0 {
		t.Errorf("quantity = %d, want 0 after rejected buy", stored.Quantity)
	}
}

func TestBuyItem_FreeItemSkipsLedger(t *testing.T) {
	engine, db, userID := newTestEngine(t)
	item := createItem(t, db, userID, 0, 0, 0, 0)

	// Zero balance everywhere; a free item must still succeed.
	updated, err := engine.BuyItem(context.Background(), userID, item.ID)
	if err != nil {
		t.Fatalf("buy free item: %v", err)
	}
	if updated.Quantity != 1 {
		t.Errorf("quantity = %d, want 1", updated.Quantity)
	}
	if got := mustPoints(t, db, userID); got != (domain.PointsBalance{}) {
		t.Errorf("free buy touched the ledger: %+v", got)
	}
}

func TestBuyItem_NotFound(t *testing.T) {
	engine, _, userID := newTestEngine(t)

	_, err := engine.BuyItem(context.Background(), userID, 9999)
	if !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("err = %v, want ErrItemNotFound", err)
	}
}

func TestBuyItem_OtherUsersItemIsNotFound(t *testing.T) {
	engine, db, userID := newTestEngine(t)
	other, err := db.CreateUser(context.Background(), "other", "hash")
	if err != nil {
		t.Fatal(err)
	}
	item := createItem(t, db, other.ID, 0, 0, 0, 0)

	_, err = engine.BuyItem(context.Background(), userID, item.ID)
	if !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("err = %v, want ErrItemNotFound for foreign item", err)
	}
}

// ─── Concurrency ────────────────────────────────────────────────────────────

func TestBuyItem_ConcurrentPurchasesNeverOverspend(t *testing.T) {
	engine, db, userID := newTestEngine(t)
	// Each purchase fits individually, the pair does not.
	setPoints(t, db, userID, domain.PointsBalance{Body: 5, Mind: 0, Soul: 0})
	a := createItem(t, db, userID, 0, 4, 0, 0)
	b := createItem(t, db, userID, 0, 4, 0, 0)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, itemID := range []int64{a.ID, b.ID} {
		wg.Add(1)
		go func(i int, itemID int64) {
			defer wg.Done()
			_, errs[i] = engine.BuyItem(context.Background(), userID, itemID)
		}(i, itemID)
	}
	wg.Wait()

	var committed, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			committed++
		case errors.Is(err, domain.ErrInsufficientPoints):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if committed != 1 || rejected != 1 {
		t.Errorf("committed=%d rejected=%d, want exactly one of each", committed, rejected)
	}

	got := mustPoints(t, db, userID)
	if got.Body < 0 || got.Mind < 0 || got.Soul < 0 {
		t.Fatalf("negative balance observed: %+v", got)
	}
	if got.Body != 1 {
		t.Errorf("body = %d, want 1 after exactly one purchase", got.Body)
	}
}

func TestToggleQuest_ConcurrentCompletionsAllCredit(t *testing.T) {
	engine, db, userID := newTestEngine(t)
	const n = 8
	quests := make([]*domain.Quest, n)
	for i := range quests {
		quests[i] = createQuest(t, db, userID, 1, 1, 1)
	}

	var wg sync.WaitGroup
	for _, q := range quests {
		wg.Add(1)
		go func(questID int64) {
			defer wg.Done()
			if _, err := engine.ToggleQuestCompletion(context.Background(), userID, questID, true); err != nil {
				t.Errorf("toggle: %v", err)
			}
		}(q.ID)
	}
	wg.Wait()

	got := mustPoints(t, db, userID)
	want := domain.PointsBalance{Body: n, Mind: n, Soul: n}
	if got != want {
		t.Errorf("points = %+v, want %+v (no lost updates)", got, want)
	}
}
