package events

import (
	"errors"
	"testing"

	"github.com/pointsnav/go-pointsnav/models"
)

func TestPublish_DeliversToSubscribers(t *testing.T) {
	m := NewManager(nil)

	var got []Event
	m.Subscribe(TypeLoggedIn, func(e Event) error {
		got = append(got, e)
		return nil
	})

	user := models.User{ID: "u1", Email: "ana@example.com"}
	m.Publish(TypeLoggedIn, LoggedInData{User: user})

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Type != TypeLoggedIn {
		t.Errorf("Type = %q", got[0].Type)
	}
	if got[0].Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}
	data, ok := got[0].Data.(LoggedInData)
	if !ok || data.User.ID != "u1" {
		t.Errorf("unexpected data: %+v", got[0].Data)
	}
}

func TestPublish_OnlyMatchingType(t *testing.T) {
	mgr := NewManager(nil)
	fired := 0
	mgr.Subscribe(TypeLoggedOut, func(Event) error {
		fired++
		return nil
	})

	mgr.Publish(TypeLoggedIn, nil)
	mgr.Publish(TypeSessionExpired, nil)
	if fired != 0 {
		t.Errorf("handler fired %d times for other types", fired)
	}

	mgr.Publish(TypeLoggedOut, nil)
	if fired != 1 {
		t.Errorf("fired = %d, want 1", fired)
	}
}

func TestPublish_HandlerErrorDoesNotStopFanout(t *testing.T) {
	m := NewManager(nil)

	second := false
	m.Subscribe(TypeSessionExpired, func(Event) error {
		return errors.New("boom")
	})
	m.Subscribe(TypeSessionExpired, func(Event) error {
		second = true
		return nil
	})

	m.Publish(TypeSessionExpired, nil)
	if !second {
		t.Error("second handler should run despite the first failing")
	}
}

func TestPublish_NoSubscribersIsNoOp(t *testing.T) {
	m := NewManager(nil)
	m.Publish(TypeNotificationsRead, NotificationsReadData{IDs: []string{"n1"}})
}
