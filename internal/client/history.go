package client

import (
	"context"

	"finhistory/internal/models"
	"finhistory/internal/poller"
)

// HistoryPoller is a poller specialised to history snapshots.
type HistoryPoller = poller.Poller[models.HistorySnapshot]

// NewPoller wires c into a poller writing to cache.
func NewPoller(c *Client, cache *poller.Cache[models.HistorySnapshot], opts poller.Options) *HistoryPoller {
	return poller.New(c.Fetch, cache, opts)
}

// State is what a consumer renders.
type State struct {
	Data      models.HistorySnapshot
	IsLoading bool
	IsError   bool
	Err       error
}

// History follows one user's history through a poller.
type History struct {
	poller      *HistoryPoller
	key         string
	unsubscribe func()
}

// UseHistory subscribes to userID's history. A nil or zero userID disables
// fetching: State then always reports an empty snapshot that is not loading.
// onChange, if set, is called after every fetch.
func UseHistory(p *HistoryPoller, userID *int64, onChange func(State)) *History {
	h := &History{poller: p, unsubscribe: func() {}}
	if userID == nil || *userID == 0 {
		return h
	}

	h.key = HistoryKey(*userID)
	h.unsubscribe = p.Subscribe(h.key, func(e poller.Entry[models.HistorySnapshot]) {
		if onChange != nil {
			onChange(stateFrom(e))
		}
	})
	return h
}

// Key returns the request key, or "" when fetching is disabled.
func (h *History) Key() string {
	return h.key
}

func (h *History) State() State {
	if h.key == "" {
		return State{Data: models.EmptySnapshot()}
	}
	e, _ := h.poller.Cache().Get(h.key)
	return stateFrom(e)
}

// Refresh fetches outside the regular interval and returns the new state.
// When ctx ends first, the returned state keeps the cached data and reports
// ctx.Err(); the cached entry itself is left untouched.
func (h *History) Refresh(ctx context.Context) State {
	if h.key == "" {
		return h.State()
	}
	e, err := h.poller.Revalidate(ctx, h.key)
	state := stateFrom(e)
	if err != nil && e.Err == nil {
		state.IsLoading = false
		state.IsError = true
		state.Err = err
	}
	return state
}

// Close stops following the history.
func (h *History) Close() {
	h.unsubscribe()
}

func stateFrom(e poller.Entry[models.HistorySnapshot]) State {
	data := e.Data
	if !e.HasData {
		data = models.EmptySnapshot()
	}
	return State{
		Data:      Normalize(data),
		IsLoading: !e.HasData && e.Err == nil,
		IsError:   e.Err != nil,
		Err:       e.Err,
	}
}
