package watch

import (
	"testing"

	"crm_dashboard_backend/internal/leads/domain"
	"crm_dashboard_backend/platform/logger"
)

func newNotifier() *Notifier {
	return NewNotifier(logger.New("development"))
}

func TestSubscribeReplaysCurrentList(t *testing.T) {
	n := newNotifier()
	n.Notify([]domain.Lead{{ID: "1"}})

	var got []domain.Lead
	calls := 0
	unsubscribe := n.Subscribe(func(leads []domain.Lead) {
		got = leads
		calls++
	})
	defer unsubscribe()

	if calls != 1 {
		t.Fatalf("expected immediate replay, got %d calls", calls)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("expected current list on subscribe, got %v", got)
	}
}

func TestNotifyReachesAllListeners(t *testing.T) {
	n := newNotifier()
	var a, b int
	defer n.Subscribe(func([]domain.Lead) { a++ })()
	defer n.Subscribe(func([]domain.Lead) { b++ })()

	n.Notify(nil)
	n.Notify(nil)

	if a != 3 || b != 3 {
		t.Fatalf("expected replay + 2 notifications each, got a=%d b=%d", a, b)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	n := newNotifier()
	calls := 0
	unsubscribe := n.Subscribe(func([]domain.Lead) { calls++ })

	unsubscribe()
	unsubscribe() // second call is a no-op
	n.Notify(nil)

	if calls != 1 {
		t.Fatalf("expected only the replay call, got %d", calls)
	}
	if n.ListenerCount() != 0 {
		t.Fatalf("expected no listeners after unsubscribe")
	}
}

func TestPanickingListenerDoesNotBlockOthers(t *testing.T) {
	n := newNotifier()
	defer n.Subscribe(func([]domain.Lead) { panic("boom") })()
	calls := 0
	defer n.Subscribe(func([]domain.Lead) { calls++ })()

	n.Notify([]domain.Lead{{ID: "1"}})

	if calls != 2 {
		t.Fatalf("expected healthy listener to keep receiving, got %d calls", calls)
	}
}
