// Package profile owns the collection of child profiles and the active
// selection, writing both through to device storage on every change.
package profile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"littlesteps/internal/models"
	"littlesteps/internal/storage"
)

var (
	// ErrClosed is returned by mutations after Close.
	ErrClosed = errors.New("profile store is closed")
	// ErrDuplicateID is returned when a generated or imported id already exists.
	ErrDuplicateID = errors.New("profile id already exists")
)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides profile id generation.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Store) { s.newID = newID }
}

// WithLogger sets the logger used for load warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithSeed controls whether an empty device starts with the example profile.
func WithSeed(enabled bool) Option {
	return func(s *Store) { s.seed = enabled }
}

// Store is the single source of truth for one device's profiles. Only the
// selected id is kept; the selected profile is derived by lookup on read.
type Store struct {
	mu         sync.RWMutex
	storage    storage.Storage
	profiles   []models.ChildProfile
	selectedID string
	closed     bool
	// the seeded example has not been written yet
	unsaved bool

	now    func() time.Time
	newID  func() (string, error)
	logger *zap.Logger
	seed   bool
}

// Open hydrates a store from st. A missing collection is seeded with the
// example profile, held in memory until the first mutation or selection;
// a malformed one loads as empty. Open itself never writes.
func Open(ctx context.Context, st storage.Storage, opts ...Option) (*Store, error) {
	s := &Store{
		storage: st,
		now:     time.Now,
		newID:   newTimeOrderedID,
		logger:  zap.NewNop(),
		seed:    true,
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, ok, err := st.GetItem(ctx, ProfilesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}

	if !ok {
		if s.seed {
			s.profiles = []models.ChildProfile{exampleProfile(s.now())}
			s.selectedID = s.profiles[0].ID
			s.unsaved = true
		}
		return s, nil
	}

	profiles, err := decodeProfiles(raw)
	if err != nil {
		s.logger.Warn("Discarding unreadable profile data", zap.Error(err))
		profiles = nil
	}
	profiles, dropped := dedupe(profiles)
	if dropped > 0 {
		s.logger.Warn("Dropped profiles with duplicate ids", zap.Int("dropped", dropped))
	}
	s.profiles = profiles

	selected, _, err := st.GetItem(ctx, SelectedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read selection: %w", err)
	}
	s.selectedID = resolveSelection(profiles, selected)

	return s, nil
}

// List returns the profiles in insertion order.
func (s *Store) List() []models.ChildProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.profiles)
}

// Len returns the number of profiles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

// Get looks up a profile by id.
func (s *Store) Get(id string) (models.ChildProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.profiles, id); i >= 0 {
		return s.profiles[i], true
	}
	return models.ChildProfile{}, false
}

// Selected returns the profile currently in focus, if any.
func (s *Store) Selected() (models.ChildProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.profiles, s.selectedID); i >= 0 {
		return s.profiles[i], true
	}
	return models.ChildProfile{}, false
}

// SelectedID returns the selected profile id or "".
func (s *Store) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedID
}

// Select focuses the profile with id. Unknown ids are ignored.
func (s *Store) Select(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if indexOf(s.profiles, id) < 0 || (id == s.selectedID && !s.unsaved) {
		return nil
	}
	if err := s.persist(ctx, s.profiles, id); err != nil {
		return err
	}
	s.selectedID = id
	return nil
}

// Add creates a profile with a fresh id and creation time and selects it.
// Field validation is the caller's responsibility.
func (s *Store) Add(ctx context.Context, in models.ProfileInput) (models.ChildProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.ChildProfile{}, ErrClosed
	}

	id, err := s.newID()
	if err != nil {
		return models.ChildProfile{}, fmt.Errorf("failed to generate profile id: %w", err)
	}
	if indexOf(s.profiles, id) >= 0 {
		return models.ChildProfile{}, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	p := models.ChildProfile{
		ID:                id,
		Name:              in.Name,
		Age:               in.Age,
		DateOfBirth:       in.DateOfBirth,
		Gender:            in.Gender,
		Photo:             in.Photo,
		SpecialNeeds:      in.SpecialNeeds,
		LearningGoals:     in.LearningGoals,
		MedicalNotes:      in.MedicalNotes,
		AssignedCaregiver: in.AssignedCaregiver,
		CreatedAt:         s.now().UTC(),
	}

	next := append(slices.Clone(s.profiles), p)
	if err := s.persist(ctx, next, p.ID); err != nil {
		return models.ChildProfile{}, err
	}
	s.profiles, s.selectedID = next, p.ID
	return p, nil
}

// Update merges upd into the profile with id. It reports false, without
// error, when no such profile exists.
func (s *Store) Update(ctx context.Context, id string, upd models.ProfileUpdate) (models.ChildProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.ChildProfile{}, false, ErrClosed
	}

	i := indexOf(s.profiles, id)
	if i < 0 {
		return models.ChildProfile{}, false, nil
	}

	merged := upd.Apply(s.profiles[i])
	// identity and creation time are immutable
	merged.ID, merged.CreatedAt = s.profiles[i].ID, s.profiles[i].CreatedAt

	next := slices.Clone(s.profiles)
	next[i] = merged
	if err := s.persist(ctx, next, s.selectedID); err != nil {
		return models.ChildProfile{}, false, err
	}
	s.profiles = next
	return merged, true, nil
}

// Delete removes the profile with id. When it was selected, the first
// remaining profile becomes selected, or none.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}

	i := indexOf(s.profiles, id)
	if i < 0 {
		return false, nil
	}

	next := slices.Delete(slices.Clone(s.profiles), i, i+1)
	selected := s.selectedID
	if selected == id {
		selected = ""
		if len(next) > 0 {
			selected = next[0].ID
		}
	}

	if err := s.persist(ctx, next, selected); err != nil {
		return false, err
	}
	s.profiles, s.selectedID = next, selected
	return true, nil
}

// Close ends the store's lifecycle. Reads keep working; mutations fail.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// persist writes the collection and selection in one batch.
func (s *Store) persist(ctx context.Context, profiles []models.ChildProfile, selectedID string) error {
	raw, err := encodeProfiles(profiles)
	if err != nil {
		return fmt.Errorf("failed to encode profiles: %w", err)
	}

	selection := storage.Remove(SelectedKey)
	if selectedID != "" {
		selection = storage.Set(SelectedKey, selectedID)
	}

	if err := s.storage.Apply(ctx, storage.Set(ProfilesKey, raw), selection); err != nil {
		return fmt.Errorf("failed to persist profiles: %w", err)
	}
	s.unsaved = false
	return nil
}

func indexOf(profiles []models.ChildProfile, id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(profiles, func(p models.ChildProfile) bool { return p.ID == id })
}

func resolveSelection(profiles []models.ChildProfile, id string) string {
	if indexOf(profiles, id) >= 0 {
		return id
	}
	if len(profiles) > 0 {
		return profiles[0].ID
	}
	return ""
}

func dedupe(profiles []models.ChildProfile) ([]models.ChildProfile, int) {
	seen := make(map[string]bool, len(profiles))
	out := profiles[:0:0]
	for _, p := range profiles {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out, len(profiles) - len(out)
}

// newTimeOrderedID returns a UUIDv7, which embeds the creation time.
func newTimeOrderedID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Snapshot returns the store's current state in portable form.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profiles := slices.Clone(s.profiles)
	if profiles == nil {
		profiles = []models.ChildProfile{}
	}
	return Snapshot{Version: SchemaVersion, Profiles: profiles, SelectedID: s.selectedID}
}

// Restore loads snap into the store. With replace the collection is
// overwritten; otherwise profiles with unseen ids are appended. It returns
// the number of profiles taken from snap.
func (s *Store) Restore(ctx context.Context, snap Snapshot, replace bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if snap.Version > SchemaVersion {
		return 0, fmt.Errorf("unsupported profile schema version %d", snap.Version)
	}

	incoming, _ := dedupe(snap.Profiles)

	var next []models.ChildProfile
	added := 0
	if replace {
		next = incoming
		added = len(incoming)
	} else {
		next = slices.Clone(s.profiles)
		for _, p := range incoming {
			if indexOf(next, p.ID) >= 0 {
				continue
			}
			next = append(next, p)
			added++
		}
	}

	selected := s.selectedID
	if replace || selected == "" {
		selected = snap.SelectedID
	}
	selected = resolveSelection(next, selected)

	if err := s.persist(ctx, next, selected); err != nil {
		return 0, err
	}
	s.profiles, s.selectedID = next, selected
	return added, nil
}
