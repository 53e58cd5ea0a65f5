package state

import (
	"context"
	"errors"
	"sync"

	"spacenav/internal/model"
	"spacenav/internal/notify"
)

// fakeBackend implements Fetcher and Writer. Writes can be held open with
// holdAdd / holdDelete so tests can observe the optimistic state.
type fakeBackend struct {
	mu        sync.Mutex
	sites     []model.Site
	spaces    map[string]model.SpacesResponse
	spacesErr error
	addErr    error
	deleteErr map[int]error
	nextID    int
	deleted   []int

	holdAdd    chan struct{}
	holdDelete chan struct{}
	entered    chan string
}

func newFakeBackend() *fakeBackend {
	p := model.IntPtr
	return &fakeBackend{
		sites: []model.Site{{ID: "1", Name: "Main"}, {ID: "2", Name: "Annex"}},
		spaces: map[string]model.SpacesResponse{
			"1": {Spaces: []model.SpacesGroup{{Spaces: []model.SpaceRecord{
				{ID: 1, Name: "HQ", Streams: []model.Stream{{ID: 10, Name: "Gate"}}},
				{ID: 2, Name: "Floor", ParentID: p(1), Streams: []model.Stream{{ID: 11, Name: "Lobby"}, {ID: 12, Name: "Stairs"}}},
				{ID: 3, Name: "Depot", Streams: []model.Stream{{ID: 20, Name: "Dock"}}},
			}}}},
			"2": {Spaces: []model.SpacesGroup{{Spaces: []model.SpaceRecord{
				{ID: 7, Name: "Annex", Streams: []model.Stream{{ID: 70, Name: "Door"}}},
			}}}},
		},
		deleteErr: map[int]error{},
		nextID:    42,
		entered:   make(chan string, 16),
	}
}

func (f *fakeBackend) ListSites(ctx context.Context) ([]model.Site, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sites, nil
}

func (f *fakeBackend) ListSpaces(ctx context.Context, siteID string) (model.SpacesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.spacesErr != nil {
		return model.SpacesResponse{}, f.spacesErr
	}
	resp, ok := f.spaces[siteID]
	if !ok {
		return model.SpacesResponse{}, errors.New("Site not found")
	}
	return resp, nil
}

func (f *fakeBackend) wait(ctx context.Context, what string, add bool) error {
	f.mu.Lock()
	hold := f.holdDelete
	if add {
		hold = f.holdAdd
	}
	f.mu.Unlock()
	f.entered <- what
	if hold == nil {
		return nil
	}
	select {
	case <-hold:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeBackend) AddStream(ctx context.Context, spaceID int, name string) (model.Stream, error) {
	if err := f.wait(ctx, "add:"+name, true); err != nil {
		return model.Stream{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return model.Stream{}, f.addErr
	}
	id := f.nextID
	f.nextID++
	return model.Stream{ID: id, Name: name}, nil
}

func (f *fakeBackend) DeleteStream(ctx context.Context, streamID int) error {
	if err := f.wait(ctx, "delete", false); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[streamID]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, streamID)
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingNotifier) Notify(level notify.Level, message string) {
	r.mu.Lock()
	r.msgs = append(r.msgs, string(level)+": "+message)
	r.mu.Unlock()
}

func (r *recordingNotifier) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}
