package content

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"littlesteps/internal/models"
	"littlesteps/internal/validation"
)

// JournalInput is a submitted journal entry form
type JournalInput struct {
	Date       string
	Mood       string
	Sleep      int
	Meals      int
	Activities string
	Notes      string
}

// PostInput is a submitted forum post form
type PostInput struct {
	Group   string
	Title   string
	Content string
}

// BookingInput is a submitted appointment request
type BookingInput struct {
	TherapistID string
	Date        string
	Slot        string
	Mode        string
	ChildID     string
}

// Workspace holds one device's page-local state. Nothing in it is persisted
// and it never touches the profile store.
type Workspace struct {
	mu         sync.Mutex
	catalog    *Catalog
	entries    []models.JournalEntry
	posts      []models.Post
	activities []models.Activity
	bookings   []models.Booking
	now        func() time.Time
}

func newWorkspace(c *Catalog, now func() time.Time) *Workspace {
	return &Workspace{
		catalog:    c,
		entries:    slices.Clone(c.JournalEntries),
		posts:      slices.Clone(c.Posts),
		activities: slices.Clone(c.Activities),
		now:        now,
	}
}

// ParseActivities splits a comma separated list into trimmed, non-empty items
func ParseActivities(csv string) []string {
	var out []string
	for _, a := range strings.Split(csv, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// JournalEntries returns entries newest first
func (w *Workspace) JournalEntries() []models.JournalEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.entries)
}

// AddJournalEntry validates and prepends an entry
func (w *Workspace) AddJournalEntry(in JournalInput) (models.JournalEntry, error) {
	mood := models.Mood(strings.ToLower(strings.TrimSpace(in.Mood)))
	switch mood {
	case models.MoodHappy, models.MoodNeutral, models.MoodSad:
	default:
		return models.JournalEntry{}, validation.ValidationError{Field: "mood", Message: "mood must be happy, neutral or sad"}
	}
	if in.Sleep < 0 || in.Sleep > 24 {
		return models.JournalEntry{}, validation.ValidationError{Field: "sleep", Message: "sleep must be between 0 and 24 hours"}
	}
	if in.Meals < 0 || in.Meals > 10 {
		return models.JournalEntry{}, validation.ValidationError{Field: "meals", Message: "meals must be between 0 and 10"}
	}

	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = w.now().Format(time.DateOnly)
	} else if _, err := time.Parse(time.DateOnly, date); err != nil {
		return models.JournalEntry{}, validation.ValidationError{Field: "date", Message: "date must be YYYY-MM-DD"}
	}

	entry := models.JournalEntry{
		ID:         uuid.NewString(),
		Date:       date,
		Mood:       mood,
		Sleep:      in.Sleep,
		Meals:      in.Meals,
		Activities: ParseActivities(in.Activities),
		Notes:      strings.TrimSpace(in.Notes),
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append([]models.JournalEntry{entry}, w.entries...)
	return entry, nil
}

// Posts returns posts in a group ("" for all), newest first
func (w *Workspace) Posts(group string) []models.Post {
	w.mu.Lock()
	defer w.mu.Unlock()
	return PostsIn(w.posts, group)
}

// AddPost validates and prepends a forum post authored by the parent
func (w *Workspace) AddPost(in PostInput) (models.Post, error) {
	title, body := strings.TrimSpace(in.Title), strings.TrimSpace(in.Content)
	if !w.catalog.HasForumGroup(in.Group) {
		return models.Post{}, validation.ValidationError{Field: "group", Message: "choose a group"}
	}
	if title == "" {
		return models.Post{}, validation.ValidationError{Field: "title", Message: "title is required"}
	}
	if body == "" {
		return models.Post{}, validation.ValidationError{Field: "content", Message: "content is required"}
	}

	post := models.Post{
		ID:        uuid.NewString(),
		Author:    "You",
		Group:     in.Group,
		Title:     title,
		Content:   body,
		Timestamp: "Just now",
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.posts = append([]models.Post{post}, w.posts...)
	return post, nil
}

// Activities returns suggested activities, most recently generated first
func (w *Workspace) Activities() []models.Activity {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.activities)
}

// GenerateActivity prepends a copy of the canned generated activity
func (w *Workspace) GenerateActivity() models.Activity {
	a := w.catalog.GeneratedActivity
	a.ID = uuid.NewString()
	a.Materials = slices.Clone(a.Materials)
	a.Steps = slices.Clone(a.Steps)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.activities = append([]models.Activity{a}, w.activities...)
	return a
}

// Bookings returns appointment requests in submission order
func (w *Workspace) Bookings() []models.Booking {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.bookings)
}

// Book records an appointment request after checking it against the
// therapist's slots and modes. The request goes nowhere else.
func (w *Workspace) Book(in BookingInput) (models.Booking, error) {
	t, ok := w.catalog.Therapist(in.TherapistID)
	if !ok {
		return models.Booking{}, validation.ValidationError{Field: "therapist", Message: "unknown therapist"}
	}
	if !slices.Contains(t.Slots, in.Slot) {
		return models.Booking{}, validation.ValidationError{Field: "slot", Message: fmt.Sprintf("%s has no %s slot", t.Name, in.Slot)}
	}
	if !slices.Contains(t.Modes, in.Mode) {
		return models.Booking{}, validation.ValidationError{Field: "mode", Message: fmt.Sprintf("%s does not offer %s sessions", t.Name, in.Mode)}
	}
	// the requested day and today are both midnight in the clock's zone
	now := w.now()
	day, err := time.ParseInLocation(time.DateOnly, in.Date, now.Location())
	if err != nil {
		return models.Booking{}, validation.ValidationError{Field: "date", Message: "date must be YYYY-MM-DD"}
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		return models.Booking{}, validation.ValidationError{Field: "date", Message: "date cannot be in the past"}
	}

	b := models.Booking{
		ID:          uuid.NewString(),
		TherapistID: t.ID,
		Therapist:   t.Name,
		Date:        in.Date,
		Slot:        in.Slot,
		Mode:        in.Mode,
		ChildID:     in.ChildID,
		RequestedAt: now.UTC(),
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.bookings = append(w.bookings, b)
	return b, nil
}

// Workspaces hands out one Workspace per device
type Workspaces struct {
	mu       sync.Mutex
	catalog  *Catalog
	now      func() time.Time
	byID     map[string]*Workspace
	lastUsed map[string]time.Time
}

// NewWorkspaces creates an empty registry over c
func NewWorkspaces(c *Catalog, now func() time.Time) *Workspaces {
	if now == nil {
		now = time.Now
	}
	return &Workspaces{
		catalog:  c,
		now:      now,
		byID:     make(map[string]*Workspace),
		lastUsed: make(map[string]time.Time),
	}
}

// For returns the device's workspace, creating it on first use
func (ws *Workspaces) For(deviceID string) *Workspace {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.lastUsed[deviceID] = ws.now()
	w, ok := ws.byID[deviceID]
	if !ok {
		w = newWorkspace(ws.catalog, ws.now)
		ws.byID[deviceID] = w
	}
	return w
}

// EvictIdle forgets workspaces not used within maxIdle. Their journal
// entries, posts and bookings are gone; the next visit starts from the
// catalog again.
func (ws *Workspaces) EvictIdle(maxIdle time.Duration) int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	cutoff := ws.now().Add(-maxIdle)
	evicted := 0
	for id, used := range ws.lastUsed {
		if used.Before(cutoff) {
			delete(ws.byID, id)
			delete(ws.lastUsed, id)
			evicted++
		}
	}
	return evicted
}

// Len reports how many workspaces are held
func (ws *Workspaces) Len() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.byID)
}

// Catalog returns the shared catalog
func (ws *Workspaces) Catalog() *Catalog {
	return ws.catalog
}
