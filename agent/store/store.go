// Package store holds the in-memory aggregate of one group order: per-user
// item lists, the selected restaurant, and the collection status. One store
// instance lives for one collection+checkout cycle; Clear starts the next.
package store

import (
	"fmt"
	"strings"
	"sync"

	contractx "github.com/grubgather/grubgather/agent/contract"
)

type Status string

const (
	StatusCollecting Status = "collecting"
	StatusPlaced     Status = "placed"
)

const (
	emptySummary = "📝 No orders yet."
	emptyPlace   = "📭 No orders to place."
)

// OrderStore is safe for concurrent use. Writes serialize on the mutex;
// reads observe a consistent snapshot, never a mid-mutation view.
type OrderStore struct {
	mu sync.RWMutex

	orders map[string][]string
	users  []string // user insertion order, drives summary rendering

	restaurant   *contractx.RestaurantInfo
	status       Status
	lastCheckout *contractx.CheckoutResult
}

func New() *OrderStore {
	return &OrderStore{
		orders: make(map[string][]string),
		status: StatusCollecting,
	}
}

// AddOrder appends items to user's list, creating the entry on first use.
// Items are append-only; a correction is a new item, never an edit.
func (s *OrderStore) AddOrder(user string, items []string) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: no items to add", contractx.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusCollecting {
		return fmt.Errorf("%w: status=%s", contractx.ErrOrderClosed, s.status)
	}

	if _, ok := s.orders[user]; !ok {
		s.users = append(s.users, user)
	}
	s.orders[user] = append(s.orders[user], items...)
	return nil
}

// Summary renders the grouped listing. Read-only, safe at any status.
func (s *OrderStore) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.renderSummary()
}

// PlaceOrder flips the store to PLACED on first call and returns the placing
// notice. Repeat calls return the same snapshot with triggered=false so the
// caller never re-runs checkout automation.
func (s *OrderStore) PlaceOrder() (text string, triggered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.orders) == 0 {
		return emptyPlace, false
	}

	text = "🚚 Placing order...\n\n" + s.renderSummary()
	if s.status == StatusPlaced {
		return text, false
	}

	s.status = StatusPlaced
	return text, true
}

// Clear resets to the initial empty state regardless of prior status.
func (s *OrderStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = make(map[string][]string)
	s.users = nil
	s.restaurant = nil
	s.status = StatusCollecting
	s.lastCheckout = nil
}

func (s *OrderStore) SetRestaurant(info contractx.RestaurantInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restaurant = &info
}

func (s *OrderStore) Restaurant() (contractx.RestaurantInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.restaurant == nil {
		return contractx.RestaurantInfo{}, false
	}
	return *s.restaurant, true
}

func (s *OrderStore) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *OrderStore) SetLastCheckout(res contractx.CheckoutResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCheckout = &res
}

// Snapshot is a read-only view for dashboards and for handing the collected
// order to checkout automation.
type Snapshot struct {
	Summary      string                    `json:"summary"`
	Restaurant   *contractx.RestaurantInfo `json:"restaurant"`
	Orders       []contractx.UserItems     `json:"orders"`
	Status       Status                    `json:"status"`
	LastCheckout *contractx.CheckoutResult `json:"last_checkout,omitempty"`
}

func (s *OrderStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Summary: s.renderSummary(),
		Status:  s.status,
	}

	if s.restaurant != nil {
		info := *s.restaurant
		snap.Restaurant = &info
	}
	if s.lastCheckout != nil {
		res := *s.lastCheckout
		snap.LastCheckout = &res
	}

	for _, user := range s.users {
		snap.Orders = append(snap.Orders, contractx.UserItems{
			User:  user,
			Items: append([]string(nil), s.orders[user]...),
		})
	}

	return snap
}

// renderSummary assumes the caller holds at least a read lock.
func (s *OrderStore) renderSummary() string {
	if len(s.orders) == 0 {
		return emptySummary
	}

	var b strings.Builder
	b.WriteString("🧾 Group Order Summary:")
	for _, user := range s.users {
		b.WriteString(fmt.Sprintf("\n- %s: %s", user, strings.Join(s.orders[user], ", ")))
	}
	return b.String()
}
