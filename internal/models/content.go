package models

import "time"

// MilestoneStatus tracks a child's progress on one milestone
type MilestoneStatus string

const (
	MilestoneAchieved MilestoneStatus = "achieved"
	MilestonePending  MilestoneStatus = "pending"
	MilestoneConcern  MilestoneStatus = "concern"
)

// Milestone is one developmental checkpoint within an age group
type Milestone struct {
	ID          string          `yaml:"id"`
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Status      MilestoneStatus `yaml:"status"`
}

// AgeGroup groups milestones by age range in months
type AgeGroup struct {
	Key        string      `yaml:"key"`
	Label      string      `yaml:"label"`
	Tab        string      `yaml:"tab"`
	Milestones []Milestone `yaml:"milestones"`
}

// ScreeningTool is a developmental screening questionnaire
type ScreeningTool struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Duration    string `yaml:"duration"`
	AgeRange    string `yaml:"age_range"`
	Status      string `yaml:"status"` // completed, in-progress, not-started
	Score       *int   `yaml:"score,omitempty"`
}

// Therapist offers bookable sessions
type Therapist struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Specialization string   `yaml:"specialization"`
	Rating         float64  `yaml:"rating"`
	Experience     string   `yaml:"experience"`
	Slots          []string `yaml:"slots"`
	Modes          []string `yaml:"modes"` // in-person, online
}

// Booking is an appointment request. Requests are never sent anywhere.
type Booking struct {
	ID          string
	TherapistID string
	Therapist   string
	Date        string
	Slot        string
	Mode        string
	ChildID     string
	RequestedAt time.Time
}

// Resource is a training library item
type Resource struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Type        string `yaml:"type"` // video, pdf
	Category    string `yaml:"category"`
	Duration    string `yaml:"duration,omitempty"`
	Pages       int    `yaml:"pages,omitempty"`
	Description string `yaml:"description"`
}

// ForumGroup is a community discussion group
type ForumGroup struct {
	Name    string `yaml:"name"`
	Members int    `yaml:"members"`
}

// Post is a community forum post
type Post struct {
	ID          string `yaml:"id"`
	Author      string `yaml:"author"`
	IsModerator bool   `yaml:"moderator,omitempty"`
	Group       string `yaml:"group"`
	Title       string `yaml:"title"`
	Content     string `yaml:"content"`
	Timestamp   string `yaml:"timestamp"`
	Likes       int    `yaml:"likes"`
	Replies     int    `yaml:"replies"`
}

// Mood recorded in a journal entry
type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodNeutral Mood = "neutral"
	MoodSad     Mood = "sad"
)

// JournalEntry is a daily journal record
type JournalEntry struct {
	ID         string   `yaml:"id"`
	Date       string   `yaml:"date"`
	Mood       Mood     `yaml:"mood"`
	Sleep      int      `yaml:"sleep"`
	Meals      int      `yaml:"meals"`
	Activities []string `yaml:"activities"`
	Notes      string   `yaml:"notes"`
}

// Activity is a suggested at-home activity
type Activity struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Duration    string   `yaml:"duration"`
	Difficulty  string   `yaml:"difficulty"` // easy, medium, hard
	Category    string   `yaml:"category"`
	AgeRange    string   `yaml:"age_range"`
	Materials   []string `yaml:"materials"`
	Steps       []string `yaml:"steps"`
}

// Course is a parent training course
type Course struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Duration    string `yaml:"duration"`
	Lessons     int    `yaml:"lessons"`
	Progress    int    `yaml:"progress"`
	Category    string `yaml:"category"`
	Difficulty  string `yaml:"difficulty"`
	Recommended bool   `yaml:"recommended,omitempty"`
}

// Insight is a canned "AI insight" card
type Insight struct {
	Title       string `yaml:"title"`
	Type        string `yaml:"type"` // suggestion, alert, success, trend
	Text        string `yaml:"text"`
	ActionLabel string `yaml:"action_label,omitempty"`
	ActionURL   string `yaml:"action_url,omitempty"`
}

// Sender of an assistant message
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is one line in the assistant conversation
type Message struct {
	ID        string
	Content   string
	Sender    Sender
	Timestamp time.Time
}
