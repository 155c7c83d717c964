package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/splitfair/splitfair/internal/models"
	"github.com/splitfair/splitfair/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "splitfair-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func createTestUser(t *testing.T, store *SQLiteStore, email, username string) *models.User {
	t.Helper()

	user := models.NewUser(email, username, "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func TestSQLiteStoreSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice@example.com", "alice")

	t.Run("CreateSession generates IDs", func(t *testing.T) {
		session := &models.Session{
			UserID: user.ID,
			Name:   "Costco Run",
			Participants: []models.Participant{
				{Name: "Alice"},
				{Name: "Bob"},
			},
		}

		if err := store.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
		if session.ID == "" {
			t.Error("Expected session ID to be generated")
		}
		if session.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
		for _, p := range session.Participants {
			if p.ID == "" {
				t.Error("Expected participant ID to be generated")
			}
			if p.SessionID != session.ID {
				t.Errorf("Participant session = %s, want %s", p.SessionID, session.ID)
			}
		}
	})

	t.Run("GetSession loads the full graph", func(t *testing.T) {
		session := &models.Session{
			UserID:    user.ID,
			Name:      "Dinner",
			TaxAmount: 2.50,
			Participants: []models.Participant{
				{Name: "Alice"},
				{Name: "Bob"},
			},
		}
		if err := store.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}

		item := &models.LineItem{
			SessionID:  session.ID,
			Name:       "Pizza",
			Price:      20.00,
			Taxable:    true,
			AssignedTo: []string{session.Participants[0].ID, session.Participants[1].ID},
		}
		if err := store.AddLineItem(ctx, item); err != nil {
			t.Fatalf("AddLineItem failed: %v", err)
		}

		retrieved, err := store.GetSession(ctx, user.ID, session.ID)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if retrieved.Name != "Dinner" || retrieved.TaxAmount != 2.50 {
			t.Errorf("Session fields mismatch: %+v", retrieved)
		}
		if len(retrieved.Participants) != 2 {
			t.Fatalf("Participants = %d, want 2", len(retrieved.Participants))
		}
		if len(retrieved.Items) != 1 {
			t.Fatalf("Items = %d, want 1", len(retrieved.Items))
		}
		if len(retrieved.Items[0].AssignedTo) != 2 {
			t.Errorf("Assignments = %d, want 2", len(retrieved.Items[0].AssignedTo))
		}
	})

	t.Run("GetSession hides other users' sessions", func(t *testing.T) {
		other := createTestUser(t, store, "mallory@example.com", "mallory")
		session := &models.Session{UserID: user.ID, Name: "Private"}
		if err := store.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}

		_, err := store.GetSession(ctx, other.ID, session.ID)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for foreign session, got %v", err)
		}
	})

	t.Run("ListSessions filters archived", func(t *testing.T) {
		owner := createTestUser(t, store, "carol@example.com", "carol")

		active := &models.Session{UserID: owner.ID, Name: "Active"}
		archived := &models.Session{UserID: owner.ID, Name: "Old"}
		for _, s := range []*models.Session{active, archived} {
			if err := store.CreateSession(ctx, s); err != nil {
				t.Fatalf("CreateSession failed: %v", err)
			}
		}
		if err := store.ArchiveSession(ctx, owner.ID, archived.ID, true); err != nil {
			t.Fatalf("ArchiveSession failed: %v", err)
		}

		visible, err := store.ListSessions(ctx, owner.ID, false)
		if err != nil {
			t.Fatalf("ListSessions failed: %v", err)
		}
		if len(visible) != 1 || visible[0].ID != active.ID {
			t.Errorf("Visible sessions = %d, want just the active one", len(visible))
		}

		all, err := store.ListSessions(ctx, owner.ID, true)
		if err != nil {
			t.Fatalf("ListSessions failed: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("All sessions = %d, want 2", len(all))
		}
	})
}

func TestSQLiteStoreItems(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "dave@example.com", "dave")

	session := &models.Session{
		UserID:       user.ID,
		Name:         "Groceries",
		Participants: []models.Participant{{Name: "Dave"}},
	}
	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	participantID := session.Participants[0].ID

	t.Run("AddLineItem assigns contiguous order indexes", func(t *testing.T) {
		for i, name := range []string{"Eggs", "Milk", "Bread"} {
			item := &models.LineItem{SessionID: session.ID, Name: name, Price: 1.00}
			if err := store.AddLineItem(ctx, item); err != nil {
				t.Fatalf("AddLineItem failed: %v", err)
			}
			if item.OrderIndex != i {
				t.Errorf("%s order index = %d, want %d", name, item.OrderIndex, i)
			}
		}
	})

	t.Run("AssignItem replaces the whole set", func(t *testing.T) {
		item := &models.LineItem{
			SessionID:  session.ID,
			Name:       "Cheese",
			Price:      5.00,
			AssignedTo: []string{participantID},
		}
		if err := store.AddLineItem(ctx, item); err != nil {
			t.Fatalf("AddLineItem failed: %v", err)
		}

		if err := store.AssignItem(ctx, session.ID, item.ID, nil); err != nil {
			t.Fatalf("AssignItem failed: %v", err)
		}

		retrieved, err := store.GetSession(ctx, user.ID, session.ID)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		for _, it := range retrieved.Items {
			if it.ID == item.ID && len(it.AssignedTo) != 0 {
				t.Errorf("Assignments = %v, want empty after replace", it.AssignedTo)
			}
		}
	})

	t.Run("ReplaceLineItems reindexes from zero", func(t *testing.T) {
		items := []*models.LineItem{
			{Name: "Chicken", Price: 9.98, Taxable: true},
			{Name: "Rice", Price: 12.49},
		}
		if err := store.ReplaceLineItems(ctx, session.ID, items); err != nil {
			t.Fatalf("ReplaceLineItems failed: %v", err)
		}

		retrieved, err := store.GetSession(ctx, user.ID, session.ID)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if len(retrieved.Items) != 2 {
			t.Fatalf("Items = %d, want 2", len(retrieved.Items))
		}
		for i, it := range retrieved.Items {
			if it.OrderIndex != i {
				t.Errorf("Item %s order index = %d, want %d", it.Name, it.OrderIndex, i)
			}
		}
	})

	t.Run("DeleteLineItem returns ErrNotFound for missing item", func(t *testing.T) {
		err := store.DeleteLineItem(ctx, session.ID, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestSQLiteStoreSettlements(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "erin@example.com", "erin")

	session := &models.Session{
		UserID: user.ID,
		Name:   "Trip",
		Participants: []models.Participant{
			{Name: "Erin"},
			{Name: "Frank"},
		},
	}
	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	erin := session.Participants[0]
	frank := session.Participants[1]

	t.Run("Upsert keeps one row per participant, last write wins", func(t *testing.T) {
		first := &models.Settlement{
			SessionID:       session.ID,
			ParticipantID:   erin.ID,
			ParticipantName: erin.Name,
			AmountOwed:      10.00,
		}
		if err := store.UpsertSettlements(ctx, []*models.Settlement{first}); err != nil {
			t.Fatalf("UpsertSettlements failed: %v", err)
		}

		second := &models.Settlement{
			SessionID:       session.ID,
			ParticipantID:   erin.ID,
			ParticipantName: erin.Name,
			AmountOwed:      12.50,
			AmountPaid:      12.50,
			Settled:         true,
			SettledAt:       1700000000,
		}
		if err := store.UpsertSettlements(ctx, []*models.Settlement{second}); err != nil {
			t.Fatalf("UpsertSettlements failed: %v", err)
		}

		retrieved, err := store.GetSession(ctx, user.ID, session.ID)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if len(retrieved.Settlements) != 1 {
			t.Fatalf("Settlements = %d, want 1 (upsert, not insert)", len(retrieved.Settlements))
		}
		row := retrieved.Settlements[0]
		if row.AmountOwed != 12.50 || !row.Settled {
			t.Errorf("Settlement = %+v, want second write's values", row)
		}
		if row.ID != first.ID {
			t.Errorf("Row ID changed across upserts: %s vs %s", row.ID, first.ID)
		}
	})

	t.Run("SettleSession flips the session flag atomically", func(t *testing.T) {
		rows := []*models.Settlement{
			{
				SessionID:       session.ID,
				ParticipantID:   frank.ID,
				ParticipantName: frank.Name,
				AmountOwed:      8.00,
				AmountPaid:      8.00,
				Settled:         true,
				SettledAt:       1700000100,
			},
		}
		if err := store.SettleSession(ctx, session.ID, rows, true, 1700000100); err != nil {
			t.Fatalf("SettleSession failed: %v", err)
		}

		retrieved, err := store.GetSession(ctx, user.ID, session.ID)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if !retrieved.Settled || retrieved.SettledAt != 1700000100 {
			t.Errorf("Session settled = %v at %d, want true at 1700000100", retrieved.Settled, retrieved.SettledAt)
		}
		if len(retrieved.Settlements) != 2 {
			t.Errorf("Settlements = %d, want 2", len(retrieved.Settlements))
		}
	})

	t.Run("SettleSession rejects unknown session", func(t *testing.T) {
		err := store.SettleSession(ctx, "nonexistent-id", nil, true, 1700000200)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestSQLiteStoreUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("Lookups by email, username and google ID", func(t *testing.T) {
		user := createTestUser(t, store, "grace@example.com", "grace")

		byEmail, err := store.GetUserByEmail(ctx, "grace@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if byEmail.ID != user.ID {
			t.Errorf("Email lookup ID = %s, want %s", byEmail.ID, user.ID)
		}

		byUsername, err := store.GetUserByUsername(ctx, "grace")
		if err != nil {
			t.Fatalf("GetUserByUsername failed: %v", err)
		}
		if byUsername.ID != user.ID {
			t.Errorf("Username lookup ID = %s, want %s", byUsername.ID, user.ID)
		}

		if err := store.LinkGoogleAccount(ctx, user.ID, "google-sub-123", "https://pic"); err != nil {
			t.Fatalf("LinkGoogleAccount failed: %v", err)
		}
		byGoogle, err := store.GetUserByGoogleID(ctx, "google-sub-123")
		if err != nil {
			t.Fatalf("GetUserByGoogleID failed: %v", err)
		}
		if byGoogle.Provider != models.AuthProviderGoogle {
			t.Errorf("Provider = %s, want google after link", byGoogle.Provider)
		}
	})

	t.Run("Missing user yields ErrNotFound", func(t *testing.T) {
		_, err := store.GetUserByEmail(ctx, "nobody@example.com")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Duplicate email is rejected", func(t *testing.T) {
		createTestUser(t, store, "dup@example.com", "dup1")
		err := store.CreateUser(ctx, models.NewUser("dup@example.com", "dup2", "hash"))
		if err == nil {
			t.Error("Expected unique constraint error for duplicate email")
		}
	})

	t.Run("ListUsers returns everyone", func(t *testing.T) {
		users, err := store.ListUsers(ctx)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(users) < 2 {
			t.Errorf("ListUsers returned %d users, want at least 2", len(users))
		}
	})
}

func TestSQLiteStoreGlobalParticipants(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "heidi@example.com", "heidi")

	for _, name := range []string{"Bob", "Alice", "Bob"} {
		err := store.UpsertGlobalParticipant(ctx, &models.GlobalParticipant{
			UserID: user.ID,
			Name:   name,
		})
		if err != nil {
			t.Fatalf("UpsertGlobalParticipant(%s) failed: %v", name, err)
		}
	}

	list, err := store.ListGlobalParticipants(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListGlobalParticipants failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Global participants = %d, want 2 (duplicate collapsed)", len(list))
	}
	if list[0].Name != "Alice" || list[1].Name != "Bob" {
		t.Errorf("Order = [%s, %s], want [Alice, Bob]", list[0].Name, list[1].Name)
	}
}
