package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/grubgather/grubgather/agent/contract"
	dispatcherx "github.com/grubgather/grubgather/agent/dispatcher"
	storex "github.com/grubgather/grubgather/agent/store"
)

type stubClassifier struct {
	intent contractx.Intent
}

func (s *stubClassifier) Classify(ctx context.Context, text string) contractx.Intent {
	return s.intent
}

type stubCheckout struct{}

func (stubCheckout) Run(ctx context.Context, req contractx.CheckoutRequest) contractx.CheckoutResult {
	return contractx.CheckoutResult{Success: true, Message: "staged"}
}

func newTestServer(t *testing.T, intent contractx.Intent) (*Server, *storex.OrderStore) {
	t.Helper()
	st := storex.New()
	d, err := dispatcherx.New(st, &stubClassifier{intent: intent}, nil, stubCheckout{}, nil, dispatcherx.Config{})
	require.NoError(t, err)
	return New(d, st, Config{}), st
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestProcessMessageAddsOrder(t *testing.T) {
	srv, st := newTestServer(t, contractx.Intent{
		Type:  contractx.IntentOrder,
		Items: []string{"2 Tacos"},
	})

	w := doJSON(t, srv.Handler(), http.MethodPost, "/api/process_message",
		`{"user":"Ana","message":"2 tacos please"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Response string           `json:"response"`
		Parsed   contractx.Intent `json:"parsed"`
		Success  bool             `json:"success"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Response, "Added 2 Tacos to Ana's order")
	assert.Equal(t, contractx.IntentOrder, resp.Parsed.Type)

	snap := st.Snapshot()
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, []string{"2 Tacos"}, snap.Orders[0].Items)
}

func TestProcessMessageRequiresMessage(t *testing.T) {
	srv, _ := newTestServer(t, contractx.Intent{Type: contractx.IntentUnknown})

	w := doJSON(t, srv.Handler(), http.MethodPost, "/api/process_message", `{"user":"Ana"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, srv.Handler(), http.MethodPost, "/api/process_message", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessMessageDefaultsAnonymousUser(t *testing.T) {
	srv, st := newTestServer(t, contractx.Intent{
		Type:  contractx.IntentOrder,
		Items: []string{"1 Coke"},
	})

	w := doJSON(t, srv.Handler(), http.MethodPost, "/api/process_message", `{"message":"a coke"}`)
	require.Equal(t, http.StatusOK, w.Code)

	snap := st.Snapshot()
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, "Anonymous", snap.Orders[0].User)
}

func TestGetStatusReturnsSnapshot(t *testing.T) {
	srv, st := newTestServer(t, contractx.Intent{Type: contractx.IntentUnknown})
	require.NoError(t, st.AddOrder("Ana", []string{"2 Tacos"}))
	st.SetRestaurant(contractx.RestaurantInfo{Name: "Mr. Broadway", URL: "https://example.test"})

	w := doJSON(t, srv.Handler(), http.MethodGet, "/api/get_status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap storex.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Contains(t, snap.Summary, "Ana: 2 Tacos")
	require.NotNil(t, snap.Restaurant)
	assert.Equal(t, "Mr. Broadway", snap.Restaurant.Name)
	assert.Equal(t, storex.StatusCollecting, snap.Status)
}

func TestClearOrders(t *testing.T) {
	srv, st := newTestServer(t, contractx.Intent{Type: contractx.IntentUnknown})
	require.NoError(t, st.AddOrder("Ana", []string{"2 Tacos"}))

	w := doJSON(t, srv.Handler(), http.MethodGet, "/api/clear_orders", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, st.Snapshot().Orders)
	assert.Equal(t, storex.StatusCollecting, st.Status())
}
