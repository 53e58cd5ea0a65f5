// Package state owns the navigator's tree state for the selected site: the
// server-confirmed forest, the optimistic forest shown to the user, the
// stream selection and the expanded set.
//
// Every exported method is atomic with respect to that state. Network calls
// happen outside the lock; their completions are applied only if the site has
// not changed in the meantime (see State.Generation).
package state

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"spacenav/internal/model"
	"spacenav/internal/mutate"
	"spacenav/internal/notify"
	"spacenav/internal/selection"
	"spacenav/internal/tree"
	"spacenav/internal/window"

	"github.com/sirupsen/logrus"
)

// Fetcher lists sites and the spaces of one site.
type Fetcher interface {
	ListSites(ctx context.Context) ([]model.Site, error)
	ListSpaces(ctx context.Context, siteID string) (model.SpacesResponse, error)
}

// Writer persists stream edits.
type Writer interface {
	AddStream(ctx context.Context, spaceID int, name string) (model.Stream, error)
	DeleteStream(ctx context.Context, streamID int) error
}

type Options struct {
	Fetcher  Fetcher
	Writer   Writer
	Notifier notify.Notifier
	Logger   logrus.FieldLogger
	Window   window.Policy
}

// State is a point-in-time copy handed to readers. Forests are shared with
// the store and must be treated as read-only; sets are copies.
type State struct {
	Sites        []model.Site `json:"sites,omitempty"`
	SitesLoading bool         `json:"sitesLoading,omitempty"`
	SitesError   string       `json:"sitesError,omitempty"`

	SiteID     string       `json:"siteId,omitempty"`
	Confirmed  model.Forest `json:"confirmed"`
	Optimistic model.Forest `json:"optimistic"`
	Selection  model.IDSet  `json:"-"`
	Expanded   model.IDSet  `json:"-"`
	Loading    bool         `json:"loading"`
	Error      string       `json:"error,omitempty"`
	Pending    []mutate.Op  `json:"pending,omitempty"`
	Generation uint64       `json:"generation"`
}

// View is the optimistic forest with IsExpanded filled in.
func (s State) View() model.Forest {
	return tree.WithExpansion(s.Optimistic, s.Expanded)
}

func (s State) HasSite() bool { return s.SiteID != "" }

type Store struct {
	opts Options
	log  logrus.FieldLogger

	mu      sync.Mutex
	st      State
	ledger  mutate.Ledger
	temp    mutate.TempIDs
	seq     uint64
	aliases map[int]int

	locks *keyedLocks
	hub   *hub
}

func New(opts Options) *Store {
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}
	if opts.Window.Root == (window.Config{}) {
		opts.Window = window.DefaultPolicy()
	}
	s := &Store{
		opts:    opts,
		log:     opts.Logger.WithField("component", "state"),
		aliases: map[int]int{},
		locks:   newKeyedLocks(),
		hub:     newHub(),
	}
	s.resetLocked("")
	return s
}

// Subscribe returns a channel pinged after every state change. Call cancel
// when done.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	return s.hub.subscribe()
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.st
	out.Sites = append([]model.Site(nil), s.st.Sites...)
	out.Selection = s.st.Selection.Clone()
	out.Expanded = s.st.Expanded.Clone()
	out.Pending = s.ledger.Pending()
	return out
}

func (s *Store) resetLocked(siteID string) {
	s.st.SiteID = siteID
	s.st.Confirmed = model.Forest{}
	s.st.Optimistic = model.Forest{}
	s.st.Selection = model.NewIDSet()
	s.st.Expanded = model.NewIDSet()
	s.st.Loading = false
	s.st.Error = ""
	s.ledger = mutate.Ledger{}
	s.aliases = map[int]int{}
}

func (s *Store) trees() mutate.Trees {
	return mutate.Trees{Confirmed: s.st.Confirmed, Optimistic: s.st.Optimistic}
}

func (s *Store) setTrees(t mutate.Trees) {
	s.st.Confirmed = t.Confirmed
	s.st.Optimistic = t.Optimistic
}

func (s *Store) notify(level notify.Level, msg string) {
	if s.opts.Notifier != nil {
		s.opts.Notifier.Notify(level, msg)
	}
}

// update runs fn under the lock and broadcasts when fn reports a change.
func (s *Store) update(fn func() bool) bool {
	s.mu.Lock()
	changed := fn()
	s.mu.Unlock()
	if changed {
		s.hub.broadcast()
	}
	return changed
}

// LoadSites fetches the site list.
func (s *Store) LoadSites(ctx context.Context) error {
	s.update(func() bool {
		s.st.SitesLoading = true
		s.st.SitesError = ""
		return true
	})
	sites, err := s.opts.Fetcher.ListSites(ctx)
	var fe error
	s.update(func() bool {
		s.st.SitesLoading = false
		if err != nil {
			fe = &FetchError{Err: err}
			s.st.SitesError = fe.Error()
			return true
		}
		s.st.Sites = sites
		return true
	})
	if fe != nil {
		s.log.WithError(err).Warn("list sites failed")
	}
	return fe
}

// SelectSite switches to siteID and fetches its spaces. Selection and
// expansion are cleared. An empty siteID behaves like DeselectSite.
//
// A fetch failure is recorded on State.Error (and returned as *FetchError);
// both forests stay empty.
func (s *Store) SelectSite(ctx context.Context, siteID string) error {
	siteID = strings.TrimSpace(siteID)
	if siteID == "" {
		s.DeselectSite()
		return nil
	}
	return s.load(ctx, siteID, false)
}

// Reload refetches the current site, keeping whatever selection and expansion
// still applies to the new tree.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	siteID := s.st.SiteID
	s.mu.Unlock()
	if siteID == "" {
		return ErrNoSite
	}
	return s.load(ctx, siteID, true)
}

func (s *Store) DeselectSite() {
	s.update(func() bool {
		s.st.Generation++
		s.resetLocked("")
		return true
	})
}

func (s *Store) load(ctx context.Context, siteID string, keepView bool) error {
	var (
		gen              uint64
		prevSel, prevExp model.IDSet
	)
	s.update(func() bool {
		s.st.Generation++
		gen = s.st.Generation
		prevSel, prevExp = s.st.Selection, s.st.Expanded
		s.resetLocked(siteID)
		s.st.Loading = true
		return true
	})

	log := s.log.WithField("site", siteID)
	resp, err := s.opts.Fetcher.ListSpaces(ctx, siteID)

	s.mu.Lock()
	if gen != s.st.Generation {
		s.mu.Unlock()
		log.Debug("discarding stale spaces response")
		return nil
	}
	s.st.Loading = false
	if err != nil {
		fe := &FetchError{SiteID: siteID, Err: err}
		s.st.Error = fe.Error()
		s.mu.Unlock()
		s.hub.broadcast()
		log.WithError(err).Warn("list spaces failed")
		return fe
	}
	records := tree.FlattenGroups(resp)
	forest := tree.Build(records, tree.StreamsByOwner(records))
	s.st.Confirmed = forest
	s.st.Optimistic = forest
	if keepView {
		s.st.Selection = selection.Prune(forest, prevSel)
		s.st.Expanded = pruneSpaces(forest, prevExp)
	}
	s.mu.Unlock()
	s.hub.broadcast()
	log.WithFields(logrus.Fields{
		"records": len(records),
		"spaces":  tree.CountSpaces(forest),
	}).Info("spaces loaded")
	return nil
}

func pruneSpaces(forest model.Forest, ids model.IDSet) model.IDSet {
	out := model.NewIDSet()
	tree.Walk(forest, func(n model.TreeNode, _ int) bool {
		if ids.Has(n.ID) {
			out[n.ID] = struct{}{}
		}
		return true
	})
	return out
}

// ToggleExpand flips nodeID in the expanded set. Unknown ids are ignored.
func (s *Store) ToggleExpand(nodeID int) bool {
	return s.update(func() bool {
		if _, ok := tree.Find(s.st.Optimistic, nodeID); !ok {
			return false
		}
		if s.st.Expanded.Has(nodeID) {
			s.st.Expanded = selection.Without(s.st.Expanded, nodeID)
		} else {
			s.st.Expanded = selection.With(s.st.Expanded, nodeID)
		}
		return true
	})
}

func (s *Store) SetExpanded(nodeID int, expanded bool) bool {
	return s.update(func() bool {
		if _, ok := tree.Find(s.st.Optimistic, nodeID); !ok {
			return false
		}
		if s.st.Expanded.Has(nodeID) == expanded {
			return false
		}
		if expanded {
			s.st.Expanded = selection.With(s.st.Expanded, nodeID)
		} else {
			s.st.Expanded = selection.Without(s.st.Expanded, nodeID)
		}
		return true
	})
}

func (s *Store) CollapseAll() {
	s.update(func() bool {
		if s.st.Expanded.Len() == 0 {
			return false
		}
		s.st.Expanded = model.NewIDSet()
		return true
	})
}

// ToggleStreamSelection flips one stream. Ids not in the tree are ignored.
func (s *Store) ToggleStreamSelection(streamID int) bool {
	return s.update(func() bool {
		if _, _, ok := tree.FindStream(s.st.Optimistic, streamID); !ok {
			return false
		}
		s.st.Selection = selection.ToggleStream(streamID, s.st.Selection)
		return true
	})
}

// SetSpaceSelection selects or deselects every stream under spaceID.
func (s *Store) SetSpaceSelection(spaceID int, selected bool) bool {
	return s.update(func() bool {
		next := selection.SetSpace(spaceID, selected, s.st.Optimistic, s.st.Selection)
		if next.Equal(s.st.Selection) {
			return false
		}
		s.st.Selection = next
		return true
	})
}

// ToggleSpaceSelection selects everything under spaceID unless it is already
// fully checked, in which case it clears it.
func (s *Store) ToggleSpaceSelection(spaceID int) bool {
	return s.update(func() bool {
		node, ok := tree.Find(s.st.Optimistic, spaceID)
		if !ok {
			return false
		}
		checked := selection.CheckboxState(node, s.st.Selection) == model.CheckChecked
		next := selection.SetSpace(spaceID, !checked, s.st.Optimistic, s.st.Selection)
		if next.Equal(s.st.Selection) {
			return false
		}
		s.st.Selection = next
		return true
	})
}

func (s *Store) ClearSelection() {
	s.update(func() bool {
		if s.st.Selection.Len() == 0 {
			return false
		}
		s.st.Selection = model.NewIDSet()
		return true
	})
}

func (s *Store) CheckboxState(nodeID int) (model.CheckState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := tree.Find(s.st.Optimistic, nodeID)
	if !ok {
		return model.CheckUnchecked, false
	}
	return selection.CheckboxState(node, s.st.Selection), true
}

func (s *Store) SelectedStreams() []model.Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return selection.SelectedStreams(s.st.Optimistic, s.st.Selection)
}

// WindowConfig is the effective windowing config for nodeID's children.
func (s *Store) WindowConfig(nodeID int) window.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.Window.For(s.st.Optimistic, nodeID)
}

// WindowFor returns which of nodeID's direct children to materialize at
// scroll (in the config's height units).
func (s *Store) WindowFor(nodeID, scroll int) (window.Range, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := tree.Find(s.st.Optimistic, nodeID)
	if !ok {
		return window.Range{}, false
	}
	cfg := s.opts.Window.For(s.st.Optimistic, nodeID)
	return window.ForNode(node, cfg, scroll), true
}

// AddStream adds a stream to spaceID. The optimistic tree shows it (under a
// temporary id) before the write is sent. Validation problems are returned as
// errors and leave the state untouched; write failures roll the edit back and
// are reported on the returned Op and through the notifier.
func (s *Store) AddStream(ctx context.Context, spaceID int, name string) (mutate.Op, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return mutate.Op{}, mutate.ErrEmptyName
	}

	s.mu.Lock()
	if s.st.SiteID == "" {
		s.mu.Unlock()
		return mutate.Op{}, ErrNoSite
	}
	if _, ok := tree.Find(s.st.Optimistic, spaceID); !ok {
		s.mu.Unlock()
		return mutate.Op{}, mutate.NotFoundError{Kind: "space", ID: strconv.Itoa(spaceID)}
	}
	var (
		tempID  int
		release func()
	)
	for release == nil {
		tempID = s.temp.Next(s.st.Optimistic)
		release, _ = s.locks.tryLock(tempID)
	}
	defer release()

	s.seq++
	op := mutate.Op{
		Seq:      s.seq,
		Kind:     mutate.OpAdd,
		SpaceID:  spaceID,
		StreamID: tempID,
		TempID:   tempID,
		Name:     name,
		Status:   mutate.StatusPending,
	}
	s.ledger = s.ledger.With(op)
	s.st.Optimistic, _ = mutate.AddStream(s.st.Optimistic, spaceID, op.Stream())
	gen := s.st.Generation
	s.mu.Unlock()
	s.hub.broadcast()

	log := s.log.WithFields(logrus.Fields{"op": "add", "space_id": spaceID, "temp_id": tempID})
	real, err := s.opts.Writer.AddStream(ctx, spaceID, name)

	s.mu.Lock()
	if gen != s.st.Generation {
		s.mu.Unlock()
		op.Status = mutate.StatusDiscarded
		log.Debug("site changed; discarding add completion")
		return op, nil
	}
	s.ledger = s.ledger.Without(op.Seq)
	if err != nil {
		s.setTrees(s.trees().RollbackAdd(tempID))
		s.st.Selection = selection.Without(s.st.Selection, tempID)
		op.Status = mutate.StatusRolledBack
		op.Err = &mutate.WriteError{Op: mutate.OpAdd, Err: err}
	} else {
		s.setTrees(s.trees().ConfirmAdd(spaceID, tempID, real))
		s.st.Selection = selection.Rename(s.st.Selection, tempID, real.ID)
		s.aliases[tempID] = real.ID
		op.StreamID = real.ID
		op.Name = real.Name
		op.Status = mutate.StatusConfirmed
	}
	s.mu.Unlock()
	s.hub.broadcast()

	if op.Err != nil {
		log.WithError(err).Warn("add stream rolled back")
		s.notify(notify.LevelError, op.Err.Error())
	} else {
		log.WithField("stream_id", real.ID).Info("stream added")
		s.notify(notify.LevelSuccess, fmt.Sprintf("Stream %q added successfully!", name))
	}
	return op, nil
}

// DeleteStream removes streamID. Deleting a stream whose add is still in
// flight waits for that add to settle and then targets the server id.
func (s *Store) DeleteStream(ctx context.Context, streamID int) (mutate.Op, error) {
	release, err := s.locks.lock(ctx, streamID)
	if err != nil {
		return mutate.Op{}, err
	}
	id := streamID
	if mutate.IsTemp(streamID) {
		s.mu.Lock()
		if realID, ok := s.aliases[streamID]; ok {
			id = realID
		}
		s.mu.Unlock()
		if id != streamID {
			release()
			if release, err = s.locks.lock(ctx, id); err != nil {
				return mutate.Op{}, err
			}
		}
	}
	defer release()

	s.mu.Lock()
	if s.st.SiteID == "" {
		s.mu.Unlock()
		return mutate.Op{}, ErrNoSite
	}
	spaceID, stream, ok := tree.FindStream(s.st.Optimistic, id)
	if !ok {
		s.mu.Unlock()
		return mutate.Op{}, mutate.NotFoundError{Kind: "stream", ID: strconv.Itoa(streamID)}
	}
	s.seq++
	op := mutate.Op{
		Seq:      s.seq,
		Kind:     mutate.OpDelete,
		SpaceID:  spaceID,
		StreamID: id,
		Name:     stream.Name,
		Status:   mutate.StatusPending,
	}
	if id != streamID {
		op.TempID = streamID
	}
	wasSelected := s.st.Selection.Has(id)
	s.ledger = s.ledger.With(op)
	s.st.Optimistic, _ = mutate.RemoveStream(s.st.Optimistic, id)
	s.st.Selection = selection.Without(s.st.Selection, id)
	gen := s.st.Generation
	s.mu.Unlock()
	s.hub.broadcast()

	log := s.log.WithFields(logrus.Fields{"op": "delete", "stream_id": id, "space_id": spaceID})
	err = s.opts.Writer.DeleteStream(ctx, id)

	s.mu.Lock()
	if gen != s.st.Generation {
		s.mu.Unlock()
		op.Status = mutate.StatusDiscarded
		log.Debug("site changed; discarding delete completion")
		return op, nil
	}
	s.ledger = s.ledger.Without(op.Seq)
	if err != nil {
		s.setTrees(s.trees().RollbackDelete(s.ledger))
		if wasSelected {
			s.st.Selection = selection.With(s.st.Selection, id)
		}
		op.Status = mutate.StatusRolledBack
		op.Err = &mutate.WriteError{Op: mutate.OpDelete, Err: err}
	} else {
		s.setTrees(s.trees().ConfirmDelete(id))
		for tmp, realID := range s.aliases {
			if realID == id {
				delete(s.aliases, tmp)
			}
		}
		op.Status = mutate.StatusConfirmed
	}
	s.mu.Unlock()
	s.hub.broadcast()

	if op.Err != nil {
		log.WithError(err).Warn("delete stream rolled back")
		s.notify(notify.LevelError, op.Err.Error())
	} else {
		log.Info("stream deleted")
		s.notify(notify.LevelSuccess, fmt.Sprintf("Stream %q removed", stream.Name))
	}
	return op, nil
}
