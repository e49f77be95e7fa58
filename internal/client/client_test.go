package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"finhistory/internal/models"
	"finhistory/internal/poller"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// historyServer serves body with status and counts requests.
func historyServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, HistoryPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestHistoryKey(t *testing.T) {
	assert.Equal(t, "/api/transaction?userId=42", HistoryKey(42))
}

func TestNew_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, New("http://localhost", 0).timeout)
	assert.Equal(t, DefaultTimeout, New("http://localhost", -time.Second).timeout)
	assert.Equal(t, 3*time.Second, New("http://localhost/", 3*time.Second).timeout)
	assert.Equal(t, "http://localhost", New("http://localhost/", 0).baseURL)
}

func TestClient_Fetch(t *testing.T) {
	srv, hits := historyServer(t, http.StatusOK, `{
		"success": true,
		"depositHistory": [{"id": 1, "userId": 42, "type": "deposit", "amount": 100, "status": "completed", "createdAt": "2025-01-02T00:00:00Z"}],
		"withdrawalHistory": [],
		"investmentHistory": [{"id": 3, "planName": "Gold", "amount": 50, "roi": 12, "duration": "30 days", "status": "active", "startDate": "2025-01-01T00:00:00Z", "endDate": null, "createdAt": "2025-01-01T00:00:00Z"}]
	}`)

	snap, err := New(srv.URL+"/", time.Second).Fetch(context.Background(), HistoryKey(42))
	require.NoError(t, err)

	require.Len(t, snap.DepositHistory, 1)
	assert.Equal(t, uint(1), snap.DepositHistory[0].ID)
	assert.Equal(t, "deposit", *snap.DepositHistory[0].Type)
	assert.Empty(t, snap.WithdrawalHistory)
	require.Len(t, snap.InvestmentHistory, 1)
	assert.Equal(t, "Gold", snap.InvestmentHistory[0].PlanName)
	assert.Nil(t, snap.InvestmentHistory[0].EndDate)
	assert.Equal(t, int64(1), hits.Load())
}

func TestClient_FetchNormalizesMissingArrays(t *testing.T) {
	srv, _ := historyServer(t, http.StatusOK, `{"success": true, "depositHistory": [], "withdrawalHistory": null}`)

	snap, err := New(srv.URL, time.Second).Fetch(context.Background(), HistoryKey(42))
	require.NoError(t, err)

	assert.NotNil(t, snap.DepositHistory)
	assert.NotNil(t, snap.WithdrawalHistory)
	assert.NotNil(t, snap.InvestmentHistory)
	assert.Empty(t, snap.InvestmentHistory)
}

func TestClient_FetchStatusError(t *testing.T) {
	srv, _ := historyServer(t, http.StatusInternalServerError, `{"success":false,"message":"Failed to fetch transactions"}`)

	_, err := New(srv.URL, time.Second).Fetch(context.Background(), HistoryKey(42))
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
	assert.Contains(t, statusErr.Body, "Failed to fetch transactions")
	assert.Contains(t, err.Error(), "failed to load transactions: 500 - ")
}

func TestClient_FetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).Fetch(context.Background(), HistoryKey(42))
	assert.ErrorIs(t, err, ErrTransport)
}

func TestClient_FetchCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New("http://127.0.0.1:1", time.Second).Fetch(ctx, HistoryKey(42))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalize(t *testing.T) {
	snap := Normalize(models.HistorySnapshot{})
	assert.Equal(t, models.EmptySnapshot(), snap)

	deposit := "deposit"
	kept := Normalize(models.HistorySnapshot{DepositHistory: []models.Transaction{{ID: 1, Type: &deposit}}})
	assert.Len(t, kept.DepositHistory, 1)
	assert.NotNil(t, kept.InvestmentHistory)
}

func newHistoryPoller(t *testing.T, baseURL string, interval time.Duration) *HistoryPoller {
	t.Helper()
	p := NewPoller(New(baseURL, time.Second), poller.NewCache[models.HistorySnapshot](), poller.Options{Interval: interval})
	t.Cleanup(p.Close)
	return p
}

func TestUseHistory_NilUserIDNeverFetches(t *testing.T) {
	srv, hits := historyServer(t, http.StatusOK, `{"success":true}`)
	p := newHistoryPoller(t, srv.URL, 5*time.Millisecond)

	zero := int64(0)
	for _, userID := range []*int64{nil, &zero} {
		h := UseHistory(p, userID, func(State) { t.Error("unexpected update") })

		assert.Empty(t, h.Key())
		state := h.State()
		assert.False(t, state.IsLoading)
		assert.False(t, state.IsError)
		assert.Equal(t, models.EmptySnapshot(), state.Data)
		assert.Equal(t, models.EmptySnapshot(), h.Refresh(context.Background()).Data)
		h.Close()
	}

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int64(0), hits.Load())
	assert.Equal(t, 0, p.Cache().Len())
}

func TestUseHistory_LoadsAndRefreshes(t *testing.T) {
	srv, hits := historyServer(t, http.StatusOK, `{"success":true,"depositHistory":[{"id":1,"type":"deposit"}]}`)
	p := newHistoryPoller(t, srv.URL, time.Hour)

	userID := int64(42)
	updates := make(chan State, 8)
	h := UseHistory(p, &userID, func(s State) { updates <- s })
	defer h.Close()

	select {
	case s := <-updates:
		assert.False(t, s.IsLoading)
		assert.False(t, s.IsError)
		assert.Len(t, s.Data.DepositHistory, 1)
		assert.NotNil(t, s.Data.InvestmentHistory)
	case <-time.After(2 * time.Second):
		t.Fatal("no update received")
	}

	state := h.Refresh(context.Background())
	assert.False(t, state.IsError)
	assert.Equal(t, int64(2), hits.Load())
	assert.Equal(t, HistoryKey(42), h.Key())
}

func TestUseHistory_ErrorState(t *testing.T) {
	srv, _ := historyServer(t, http.StatusBadRequest, `{"success":false,"message":"Missing or invalid userId"}`)
	p := newHistoryPoller(t, srv.URL, time.Hour)

	userID := int64(-1)
	h := UseHistory(p, &userID, nil)
	defer h.Close()

	assert.Eventually(t, func() bool { return h.State().IsError }, 2*time.Second, 5*time.Millisecond)

	state := h.State()
	assert.False(t, state.IsLoading)
	assert.Equal(t, models.EmptySnapshot(), state.Data)

	var statusErr *StatusError
	require.ErrorAs(t, state.Err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Status)
}

func TestUseHistory_RefreshPastDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := New(srv.URL, time.Second)
	p := NewPoller(c, poller.NewCache[models.HistorySnapshot](), poller.Options{Interval: time.Hour})
	t.Cleanup(p.Close)

	h := &History{poller: p, key: HistoryKey(42), unsubscribe: func() {}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	state := h.Refresh(ctx)
	assert.True(t, state.IsError)
	assert.False(t, state.IsLoading)
	assert.ErrorIs(t, state.Err, context.DeadlineExceeded)
	assert.Equal(t, models.EmptySnapshot(), state.Data)

	_, cached := p.Cache().Get(HistoryKey(42))
	assert.False(t, cached)
}

func TestStateFrom_Loading(t *testing.T) {
	state := stateFrom(poller.Entry[models.HistorySnapshot]{})

	assert.True(t, state.IsLoading)
	assert.False(t, state.IsError)
	assert.Equal(t, models.EmptySnapshot(), state.Data)
}
