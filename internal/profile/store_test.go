package profile

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littlesteps/internal/models"
	"littlesteps/internal/storage"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func sequentialIDs() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("id-%d", n), nil
	}
}

func openEmpty(t *testing.T, st storage.Storage) *Store {
	t.Helper()
	s, err := Open(context.Background(), st,
		WithSeed(false),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(sequentialIDs()),
	)
	require.NoError(t, err)
	return s
}

func input(name string) models.ProfileInput {
	return models.ProfileInput{Name: name, Age: "2 years", Gender: models.GenderFemale}
}

func ids(profiles []models.ChildProfile) []string {
	out := make([]string, len(profiles))
	for i, p := range profiles {
		out[i] = p.ID
	}
	return out
}

// countingStorage counts batches written.
type countingStorage struct {
	*storage.MemoryStorage
	applies int
}

func (c *countingStorage) Apply(ctx context.Context, ops ...storage.Op) error {
	c.applies++
	return c.MemoryStorage.Apply(ctx, ops...)
}

// failingStorage rejects batches while fail is set.
type failingStorage struct {
	*storage.MemoryStorage
	fail bool
}

func (f *failingStorage) Apply(ctx context.Context, ops ...storage.Op) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemoryStorage.Apply(ctx, ops...)
}

func TestOpenSeedsExampleProfile(t *testing.T) {
	st := storage.NewMemoryStorage()
	s, err := Open(context.Background(), st, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Aarav Kumar", list[0].Name)
	assert.Equal(t, fixedNow, list[0].CreatedAt)

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, ExampleProfileID, sel.ID)

	// the seed stays in memory until something changes
	keys, err := st.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSeedIsWrittenOnFirstChange(t *testing.T) {
	tests := []struct {
		name   string
		change func(ctx context.Context, s *Store) error
		want   []string
	}{
		{"select seeded profile", func(ctx context.Context, s *Store) error {
			return s.Select(ctx, ExampleProfileID)
		}, []string{ExampleProfileID}},
		{"add", func(ctx context.Context, s *Store) error {
			_, err := s.Add(ctx, input("Ana"))
			return err
		}, []string{ExampleProfileID, "id-1"}},
		{"update", func(ctx context.Context, s *Store) error {
			name := "Aarav K"
			_, _, err := s.Update(ctx, ExampleProfileID, models.ProfileUpdate{Name: &name})
			return err
		}, []string{ExampleProfileID}},
		{"delete", func(ctx context.Context, s *Store) error {
			_, err := s.Delete(ctx, ExampleProfileID)
			return err
		}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			st := storage.NewMemoryStorage()
			s, err := Open(ctx, st, WithClock(func() time.Time { return fixedNow }), WithIDGenerator(sequentialIDs()))
			require.NoError(t, err)

			require.NoError(t, tt.change(ctx, s))

			_, ok, err := st.GetItem(ctx, ProfilesKey)
			require.NoError(t, err)
			assert.True(t, ok)

			reopened, err := Open(ctx, st)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(reopened.List()))
		})
	}
}

func TestSelectingSeedTwiceWritesOnce(t *testing.T) {
	ctx := context.Background()
	st := &countingStorage{MemoryStorage: storage.NewMemoryStorage()}
	s, err := Open(ctx, st)
	require.NoError(t, err)

	require.NoError(t, s.Select(ctx, ExampleProfileID))
	require.NoError(t, s.Select(ctx, ExampleProfileID))
	assert.Equal(t, 1, st.applies)
}

func TestOpenMalformedDataLoadsEmpty(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{{nope"},
		{"wrong shape", `"a string"`},
		{"empty", "   "},
		{"future version", `{"version":99,"profiles":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := storage.NewMemoryStorage()
			require.NoError(t, st.SetItem(context.Background(), ProfilesKey, tt.raw))

			s, err := Open(context.Background(), st)
			require.NoError(t, err)
			assert.Empty(t, s.List())
			_, ok := s.Selected()
			assert.False(t, ok)
		})
	}
}

func TestOpenReadsLegacyArray(t *testing.T) {
	st := storage.NewMemoryStorage()
	ctx := context.Background()
	legacy := `[{"id":"a","name":"Ana","age":"1","dateOfBirth":"","gender":"female","createdAt":"2024-01-01T00:00:00Z"},
	            {"id":"b","name":"Ben","age":"2","dateOfBirth":"","gender":"male","createdAt":"2024-01-02T00:00:00Z"}]`
	require.NoError(t, st.SetItem(ctx, ProfilesKey, legacy))
	require.NoError(t, st.SetItem(ctx, SelectedKey, "b"))

	s, err := Open(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(s.List()))
	assert.Equal(t, "b", s.SelectedID())

	// the next mutation rewrites the versioned layout
	require.NoError(t, s.Select(ctx, "a"))
	raw, _, err := st.GetItem(ctx, ProfilesKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"version":1`)
}

func TestOpenResolvesUnknownSelection(t *testing.T) {
	st := storage.NewMemoryStorage()
	ctx := context.Background()
	s := openEmpty(t, st)
	_, err := s.Add(ctx, input("Ana"))
	require.NoError(t, err)
	_, err = s.Add(ctx, input("Ben"))
	require.NoError(t, err)
	require.NoError(t, st.SetItem(ctx, SelectedKey, "ghost"))

	reopened, err := Open(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, "id-1", reopened.SelectedID())
}

func TestOpenDropsDuplicateIDs(t *testing.T) {
	st := storage.NewMemoryStorage()
	ctx := context.Background()
	raw := `{"version":1,"profiles":[{"id":"a","name":"One"},{"id":"a","name":"Two"},{"id":"","name":"Blank"}]}`
	require.NoError(t, st.SetItem(ctx, ProfilesKey, raw))

	s, err := Open(ctx, st)
	require.NoError(t, err)
	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "One", list[0].Name)
}

func TestAddProducesUniqueOrderedIDs(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, storage.NewMemoryStorage(), WithSeed(false))
	require.NoError(t, err)

	seen := map[string]bool{}
	var added []string
	for i := 0; i < 20; i++ {
		p, err := s.Add(ctx, input(fmt.Sprintf("Child %d", i)))
		require.NoError(t, err)
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
		added = append(added, p.ID)
	}
	assert.Equal(t, added, ids(s.List()))
}

func TestAddRejectsDuplicateGeneratedID(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, storage.NewMemoryStorage(), WithSeed(false),
		WithIDGenerator(func() (string, error) { return "same", nil }))
	require.NoError(t, err)

	_, err = s.Add(ctx, input("Ana"))
	require.NoError(t, err)
	_, err = s.Add(ctx, input("Ben"))
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Len(t, s.List(), 1)
}

func TestAddIntoEmptyStore(t *testing.T) {
	ctx := context.Background()
	s := openEmpty(t, storage.NewMemoryStorage())

	p, err := s.Add(ctx, input("Chloe"))
	require.NoError(t, err)
	assert.Equal(t, "id-1", p.ID)
	assert.Equal(t, fixedNow, p.CreatedAt)

	assert.Equal(t, []string{"id-1"}, ids(s.List()))
	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, p, sel)
}

func TestAddThenDeleteRestoresPriorSelection(t *testing.T) {
	ctx := context.Background()
	s := openEmpty(t, storage.NewMemoryStorage())

	a, err := s.Add(ctx, input("Ana"))
	require.NoError(t, err)
	b, err := s.Add(ctx, input("Ben"))
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, ids(s.List()))
	assert.Equal(t, b.ID, s.SelectedID())

	deleted, err := s.Delete(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []string{a.ID}, ids(s.List()))
	assert.Equal(t, a.ID, s.SelectedID())
}

func TestDeleteSelectedFallsBackToFirst(t *testing.T) {
	ctx := context.Background()
	s := openEmpty(t, storage.NewMemoryStorage())
	for _, name := range []string{"Ana", "Ben", "Cy"} {
		_, err := s.Add(ctx, input(name))
		require.NoError(t, err)
	}
	require.NoError(t, s.Select(ctx, "id-2"))

	_, err := s.Delete(ctx, "id-2")
	require.NoError(t, err)
	assert.Equal(t, "id-1", s.SelectedID())

	_, err = s.Delete(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "id-3", s.SelectedID())

	_, err = s.Delete(ctx, "id-3")
	require.NoError(t, err)
	_, ok := s.Selected()
	assert.False(t, ok)
	assert.Empty(t, s.SelectedID())
}

func TestDeleteUnselectedKeepsSelection(t *testing.T) {
	ctx := context.Background()
	s := openEmpty(t, storage.NewMemoryStorage())
	_, _ = s.Add(ctx, input("Ana"))
	_, _ = s.Add(ctx, input("Ben"))

	_, err := s.Delete(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "id-2", s.SelectedID())
}

func TestDeleteUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	st := &failingStorage{MemoryStorage: storage.NewMemoryStorage()}
	s := openEmpty(t, st)
	_, _ = s.Add(ctx, input("Ana"))

	st.fail = true // no write should be attempted
	deleted, err := s.Delete(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Len(t, s.List(), 1)
}

func TestSelectUnknownIsIgnored(t *testing.T) {
	ctx := context.Background()
	s := openEmpty(t, storage.NewMemoryStorage())
	_, _ = s.Add(ctx, input("Ana"))

	require.NoError(t, s.Select(ctx, "ghost"))
	assert.Equal(t, "id-1", s.SelectedID())
}

func TestUpdateNonSelectedKeepsSelection(t *testing.T) {
	ctx := context.Background()
	s := openEmpty(t, storage.NewMemoryStorage())
	_, _ = s.Add(ctx, input("Ana"))
	_, _ = s.Add(ctx, input("Ben"))

	name := "Anabel"
	p, ok, err := s.Update(ctx, "id-1", models.ProfileUpdate{Name: &name})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Anabel", p.Name)
	assert.Equal(t, "id-2", s.SelectedID())
}

func TestUpdateSelectedIsVisibleImmediately(t *testing.T) {
	ctx := context.Background()
	s := openEmpty(t, storage.NewMemoryStorage())
	orig, _ := s.Add(ctx, input("Ana"))

	goals := "Stack five blocks"
	_, ok, err := s.Update(ctx, orig.ID, models.ProfileUpdate{LearningGoals: &goals})
	require.NoError(t, err)
	require.True(t, ok)

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, goals, sel.LearningGoals)
	assert.Equal(t, orig.Name, sel.Name)
	assert.Equal(t, orig.CreatedAt, sel.CreatedAt)
}

func TestUpdateUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	s := openEmpty(t, storage.NewMemoryStorage())
	_, _ = s.Add(ctx, input("Ana"))

	name := "Nobody"
	_, ok, err := s.Update(ctx, "ghost", models.ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "Ana", s.List()[0].Name)
}

func TestPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	s := openEmpty(t, st)

	_, err := s.Add(ctx, models.ProfileInput{
		Name:          "Ana Lima",
		Age:           "14 months",
		DateOfBirth:   "2023-01-10",
		Gender:        models.GenderFemale,
		Photo:         "data:image/png;base64,AAAA",
		LearningGoals: "Walk unaided",
	})
	require.NoError(t, err)
	_, err = s.Add(ctx, input("Ben"))
	require.NoError(t, err)
	require.NoError(t, s.Select(ctx, "id-1"))

	reopened, err := Open(ctx, st)
	require.NoError(t, err)

	if diff := cmp.Diff(s.List(), reopened.List()); diff != "" {
		t.Errorf("profiles mismatch after reopen (-want +got):\n%s", diff)
	}
	assert.Equal(t, s.SelectedID(), reopened.SelectedID())
}

func TestPersistRemovesSelectionWhenEmpty(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	s := openEmpty(t, st)
	_, _ = s.Add(ctx, input("Ana"))
	_, err := s.Delete(ctx, "id-1")
	require.NoError(t, err)

	_, ok, err := st.GetItem(ctx, SelectedKey)
	require.NoError(t, err)
	assert.False(t, ok)

	// an empty collection is still present, so reopening does not reseed
	reopened, err := Open(ctx, st)
	require.NoError(t, err)
	assert.Empty(t, reopened.List())
}

func TestPersistFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	st := &failingStorage{MemoryStorage: storage.NewMemoryStorage()}
	s := openEmpty(t, st)
	_, err := s.Add(ctx, input("Ana"))
	require.NoError(t, err)
	_, err = s.Add(ctx, input("Ben"))
	require.NoError(t, err)
	before := s.Snapshot()

	st.fail = true
	_, err = s.Add(ctx, input("Cy"))
	assert.Error(t, err)
	assert.Error(t, s.Select(ctx, "id-1"))
	name := "X"
	_, _, err = s.Update(ctx, "id-1", models.ProfileUpdate{Name: &name})
	assert.Error(t, err)
	_, err = s.Delete(ctx, "id-2")
	assert.Error(t, err)

	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Errorf("state changed after failed writes (-want +got):\n%s", diff)
	}
}

func TestCloseRejectsMutations(t *testing.T) {
	ctx := context.Background()
	s := openEmpty(t, storage.NewMemoryStorage())
	_, _ = s.Add(ctx, input("Ana"))
	s.Close()

	_, err := s.Add(ctx, input("Ben"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Select(ctx, "id-1"), ErrClosed)
	_, err = s.Delete(ctx, "id-1")
	assert.ErrorIs(t, err, ErrClosed)
	_, _, err = s.Update(ctx, "id-1", models.ProfileUpdate{})
	assert.ErrorIs(t, err, ErrClosed)

	assert.Len(t, s.List(), 1)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	snap := Snapshot{
		Version: SchemaVersion,
		Profiles: []models.ChildProfile{
			{ID: "x", Name: "Xia", CreatedAt: fixedNow},
			{ID: "id-1", Name: "Clash", CreatedAt: fixedNow},
		},
		SelectedID: "x",
	}

	t.Run("merge keeps existing and appends new", func(t *testing.T) {
		s := openEmpty(t, storage.NewMemoryStorage())
		_, _ = s.Add(ctx, input("Ana"))

		added, err := s.Restore(ctx, snap, false)
		require.NoError(t, err)
		assert.Equal(t, 1, added)
		assert.Equal(t, []string{"id-1", "x"}, ids(s.List()))
		assert.Equal(t, "Ana", s.List()[0].Name)
		assert.Equal(t, "id-1", s.SelectedID())
	})

	t.Run("replace overwrites collection and selection", func(t *testing.T) {
		st := storage.NewMemoryStorage()
		s := openEmpty(t, st)
		_, _ = s.Add(ctx, input("Ana"))

		added, err := s.Restore(ctx, snap, true)
		require.NoError(t, err)
		assert.Equal(t, 2, added)
		assert.Equal(t, "x", s.SelectedID())

		reopened, err := Open(ctx, st)
		require.NoError(t, err)
		if diff := cmp.Diff(snap.Profiles, reopened.List()); diff != "" {
			t.Errorf("restored profiles mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("rejects newer schema", func(t *testing.T) {
		s := openEmpty(t, storage.NewMemoryStorage())
		_, err := s.Restore(ctx, Snapshot{Version: SchemaVersion + 1}, true)
		assert.Error(t, err)
	})
}
