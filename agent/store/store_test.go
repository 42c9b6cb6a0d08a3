package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	contractx "github.com/grubgather/grubgather/agent/contract"
)

func TestAddOrderAppendsInSubmissionOrder(t *testing.T) {
	s := New()

	if err := s.AddOrder("ana", []string{"2 Tacos"}); err != nil {
		t.Fatalf("AddOrder: %v", err)
	}
	if err := s.AddOrder("ben", []string{"1 Burrito"}); err != nil {
		t.Fatalf("AddOrder: %v", err)
	}
	if err := s.AddOrder("ana", []string{"1 Coke", "1 Flan"}); err != nil {
		t.Fatalf("AddOrder: %v", err)
	}

	snap := s.Snapshot()
	if len(snap.Orders) != 2 {
		t.Fatalf("snapshot has %d users, want 2", len(snap.Orders))
	}
	if snap.Orders[0].User != "ana" || snap.Orders[1].User != "ben" {
		t.Errorf("user order = %s, %s; want ana, ben", snap.Orders[0].User, snap.Orders[1].User)
	}

	anaItems := snap.Orders[0].Items
	want := []string{"2 Tacos", "1 Coke", "1 Flan"}
	if len(anaItems) != len(want) {
		t.Fatalf("ana items = %v, want %v", anaItems, want)
	}
	for i := range want {
		if anaItems[i] != want[i] {
			t.Errorf("ana items[%d] = %q, want %q", i, anaItems[i], want[i])
		}
	}
}

func TestAddOrderRejectedAfterPlaced(t *testing.T) {
	s := New()
	if err := s.AddOrder("ana", []string{"2 Tacos"}); err != nil {
		t.Fatalf("AddOrder: %v", err)
	}
	if _, triggered := s.PlaceOrder(); !triggered {
		t.Fatal("first PlaceOrder should trigger")
	}

	err := s.AddOrder("ben", []string{"1 Burrito"})
	if !errors.Is(err, contractx.ErrOrderClosed) {
		t.Errorf("AddOrder after place = %v, want ErrOrderClosed", err)
	}
	if got := len(s.Snapshot().Orders); got != 1 {
		t.Errorf("users after rejected add = %d, want 1", got)
	}
}

func TestSummaryEmptyState(t *testing.T) {
	s := New()
	if got := s.Summary(); got != emptySummary {
		t.Errorf("Summary() = %q, want %q", got, emptySummary)
	}
}

func TestSummaryListsUsersInInsertionOrder(t *testing.T) {
	s := New()
	_ = s.AddOrder("ana", []string{"2 Tacos"})
	_ = s.AddOrder("ben", []string{"1 Burrito", "1 Sprite"})

	got := s.Summary()
	anaIdx := strings.Index(got, "- ana: 2 Tacos")
	benIdx := strings.Index(got, "- ben: 1 Burrito, 1 Sprite")
	if anaIdx < 0 || benIdx < 0 {
		t.Fatalf("summary missing expected lines:\n%s", got)
	}
	if anaIdx > benIdx {
		t.Errorf("ana should render before ben:\n%s", got)
	}
}

func TestPlaceOrderEmptyStore(t *testing.T) {
	s := New()
	text, triggered := s.PlaceOrder()
	if triggered {
		t.Error("empty store must not trigger checkout")
	}
	if text != emptyPlace {
		t.Errorf("PlaceOrder() = %q, want %q", text, emptyPlace)
	}
	if s.Status() != StatusCollecting {
		t.Errorf("status = %s, want collecting", s.Status())
	}
}

func TestPlaceOrderIdempotent(t *testing.T) {
	s := New()
	_ = s.AddOrder("ana", []string{"2 Tacos"})

	first, triggered := s.PlaceOrder()
	if !triggered {
		t.Fatal("first PlaceOrder should trigger")
	}
	if s.Status() != StatusPlaced {
		t.Fatalf("status = %s, want placed", s.Status())
	}

	second, triggered := s.PlaceOrder()
	if triggered {
		t.Error("second PlaceOrder must not re-trigger")
	}
	if second != first {
		t.Errorf("second snapshot = %q, want same as first %q", second, first)
	}
}

func TestClearResetsEverything(t *testing.T) {
	s := New()
	_ = s.AddOrder("ana", []string{"2 Tacos"})
	s.SetRestaurant(contractx.RestaurantInfo{Name: "Mr. Broadway"})
	s.SetLastCheckout(contractx.CheckoutResult{Success: true})
	s.PlaceOrder()

	s.Clear()

	snap := s.Snapshot()
	if len(snap.Orders) != 0 {
		t.Errorf("orders after clear = %v, want none", snap.Orders)
	}
	if snap.Restaurant != nil {
		t.Errorf("restaurant after clear = %v, want nil", snap.Restaurant)
	}
	if snap.Status != StatusCollecting {
		t.Errorf("status after clear = %s, want collecting", snap.Status)
	}
	if snap.LastCheckout != nil {
		t.Error("last checkout should be cleared")
	}
}

func TestConcurrentAddsLoseNoAppends(t *testing.T) {
	s := New()

	const perUser = 50
	var wg sync.WaitGroup
	for _, user := range []string{"ana", "ben", "cal"} {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			for i := 0; i < perUser; i++ {
				if err := s.AddOrder(user, []string{fmt.Sprintf("item-%d", i)}); err != nil {
					t.Errorf("AddOrder(%s): %v", user, err)
				}
			}
		}(user)
	}
	wg.Wait()

	for _, uo := range s.Snapshot().Orders {
		if len(uo.Items) != perUser {
			t.Errorf("%s has %d items, want %d", uo.User, len(uo.Items), perUser)
		}
	}
}

func TestSnapshotIsDetachedCopy(t *testing.T) {
	s := New()
	_ = s.AddOrder("ana", []string{"2 Tacos"})

	snap := s.Snapshot()
	snap.Orders[0].Items[0] = "mutated"

	if got := s.Snapshot().Orders[0].Items[0]; got != "2 Tacos" {
		t.Errorf("store item = %q after snapshot mutation, want %q", got, "2 Tacos")
	}
}
