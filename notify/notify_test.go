package notify

import (
	"context"
	"path/filepath"
	"testing"

	pointsnav "github.com/pointsnav/go-pointsnav"
	"github.com/pointsnav/go-pointsnav/apitest"
	"github.com/pointsnav/go-pointsnav/events"
	"github.com/pointsnav/go-pointsnav/models"
	"github.com/pointsnav/go-pointsnav/session"
	"github.com/pointsnav/go-pointsnav/store"
)

func setupAggregator(t *testing.T, srv *apitest.Server) (*Aggregator, *session.Manager) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ev := events.NewManager(nil)
	api := pointsnav.New(pointsnav.Options{BaseURL: srv.URL()})
	sess := session.NewManager(api, st, ev, nil)

	return New(api, sess, ev, nil), sess
}

func login(t *testing.T, srv *apitest.Server, sess *session.Manager) models.User {
	t.Helper()

	user := srv.SeedUser("Ana", "ana@example.com", "Sup3rSecret", models.RoleUser)
	if err := sess.Login(context.Background(), "ana@example.com", "Sup3rSecret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return user
}

func TestFetchAll_UnauthenticatedIsNoOp(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	agg, _ := setupAggregator(t, srv)

	list, err := agg.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d", len(list))
	}
	if agg.UnreadCount() != 0 {
		t.Errorf("unread = %d, want 0", agg.UnreadCount())
	}
}

func TestFetchAll_CountsUnread(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	agg, sess := setupAggregator(t, srv)
	user := login(t, srv, sess)

	srv.SeedNotification(user.ID, "Points credited", "900 points posted", models.KindNotice, false)
	srv.SeedNotification(user.ID, "New promotion", "Double miles this month", models.KindPromo, false)
	srv.SeedNotification(user.ID, "Welcome", "Account created", models.KindNotice, true)

	list, err := agg.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(list))
	}
	if agg.UnreadCount() != 2 {
		t.Errorf("unread = %d, want 2", agg.UnreadCount())
	}
}

func TestFetchAll_FailureKeepsLocalState(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	agg, sess := setupAggregator(t, srv)
	user := login(t, srv, sess)
	srv.SeedNotification(user.ID, "Points credited", "900 points posted", models.KindNotice, false)

	if _, err := agg.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	srv.InjectFailure("/notifications", 500)
	if _, err := agg.FetchAll(context.Background()); err == nil {
		t.Fatal("expected an error from the injected failure")
	}

	if agg.UnreadCount() != 1 {
		t.Errorf("unread = %d, want the pre-failure value 1", agg.UnreadCount())
	}
	if len(agg.Notifications()) != 1 {
		t.Errorf("local list should survive the failed fetch")
	}
}

func TestMarkRead_DecrementsOnce(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	agg, sess := setupAggregator(t, srv)
	user := login(t, srv, sess)

	n1 := srv.SeedNotification(user.ID, "Points credited", "900 points posted", models.KindNotice, false)
	srv.SeedNotification(user.ID, "New promotion", "Double miles", models.KindPromo, false)

	if _, err := agg.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	if err := agg.MarkRead(context.Background(), n1.ID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if agg.UnreadCount() != 1 {
		t.Errorf("unread = %d, want 1", agg.UnreadCount())
	}

	// Marking the same notification again is a safe no-op.
	if err := agg.MarkRead(context.Background(), n1.ID); err != nil {
		t.Fatalf("second MarkRead failed: %v", err)
	}
	if agg.UnreadCount() != 1 {
		t.Errorf("unread = %d after repeat, want 1", agg.UnreadCount())
	}
}

func TestMarkRead_AlreadyReadNeverGoesNegative(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	agg, sess := setupAggregator(t, srv)
	user := login(t, srv, sess)

	n := srv.SeedNotification(user.ID, "Welcome", "Account created", models.KindNotice, true)

	if _, err := agg.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if agg.UnreadCount() != 0 {
		t.Fatalf("unread = %d, want 0", agg.UnreadCount())
	}

	if err := agg.MarkRead(context.Background(), n.ID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if agg.UnreadCount() != 0 {
		t.Errorf("unread = %d, want 0", agg.UnreadCount())
	}
}

func TestMarkRead_FailureLeavesStateUntouched(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	agg, sess := setupAggregator(t, srv)
	user := login(t, srv, sess)
	n := srv.SeedNotification(user.ID, "Points credited", "900 points posted", models.KindNotice, false)

	if _, err := agg.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	srv.InjectFailure("/notifications/"+n.ID, 500)
	if err := agg.MarkRead(context.Background(), n.ID); err == nil {
		t.Fatal("expected an error from the injected failure")
	}

	if agg.UnreadCount() != 1 {
		t.Errorf("unread = %d, want 1 after failed mark", agg.UnreadCount())
	}
	if agg.Notifications()[0].Read {
		t.Error("local copy must stay unread after a failed mark")
	}
}

func TestMarkAllRead_Idempotent(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	agg, sess := setupAggregator(t, srv)
	user := login(t, srv, sess)

	srv.SeedNotification(user.ID, "Points credited", "900 points posted", models.KindNotice, false)
	srv.SeedNotification(user.ID, "New promotion", "Double miles", models.KindPromo, false)

	if _, err := agg.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	if err := agg.MarkAllRead(context.Background()); err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}
	if agg.UnreadCount() != 0 {
		t.Errorf("unread = %d, want 0", agg.UnreadCount())
	}
	for _, n := range agg.Notifications() {
		if !n.Read {
			t.Errorf("notification %s should be read", n.ID)
		}
	}

	// Repeat confirms the already-zero state.
	if err := agg.MarkAllRead(context.Background()); err != nil {
		t.Fatalf("second MarkAllRead failed: %v", err)
	}
	if agg.UnreadCount() != 0 {
		t.Errorf("unread = %d after repeat, want 0", agg.UnreadCount())
	}
}
