package handlers

import (
	"littlesteps/internal/content"
	"littlesteps/internal/models"
	"littlesteps/internal/validation"
)

// NavItem is one link in the top navigation
type NavItem struct {
	Path  string
	Label string
}

var navigation = []NavItem{
	{Path: "/", Label: "Home"},
	{Path: "/milestones", Label: "Milestones"},
	{Path: "/screening", Label: "Screening"},
	{Path: "/appointments", Label: "Appointments"},
	{Path: "/training", Label: "Training"},
	{Path: "/community", Label: "Community"},
	{Path: "/journal", Label: "Journal"},
}

// Flash is a one-shot toast shown on the next rendered page
type Flash struct {
	Kind    string `json:"kind"` // success, error
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

// AssistantView is the chat panel state
type AssistantView struct {
	Messages []models.Message
	Pending  bool
}

// PageData is shared by every full page render
type PageData struct {
	Title     string
	Active    string
	Nav       []NavItem
	CSRFToken string
	Path      string
	Profiles  []models.ChildProfile
	Selected  *models.ChildProfile
	Flash     *Flash
	Assistant AssistantView
	Page      any
}

type HomeView struct {
	Overview content.Overview
}

type MilestonesView struct {
	Groups   []models.AgeGroup
	Active   models.AgeGroup
	Progress content.Progress
}

type ScreeningView struct {
	Tools    []models.ScreeningTool
	Insights []models.Insight
}

type AppointmentsView struct {
	Modes      []string
	Mode       string
	Therapists []models.Therapist
	Bookings   []models.Booking
	Date       string
	Today      string
	Error      string
}

type TrainingView struct {
	Categories []string
	Category   string
	Resources  []models.Resource
	Videos     []models.Resource
	PDFs       []models.Resource
}

type CommunityView struct {
	Groups []models.ForumGroup
	Group  string
	Posts  []models.Post
	Form   content.PostInput
	Error  string
}

type JournalView struct {
	Insights []models.Insight
	Entries  []models.JournalEntry
	Today    string
	Error    string
}

type AIInsightsView struct {
	Periods    []content.Period
	Period     content.Period
	Tab        string
	Tabs       []string
	Analysis   content.Analysis
	TrendTitle string
	Insights   []models.Insight
}

type ActivityGeneratorView struct {
	Activities []models.Activity
}

type AITrainingView struct {
	Progress    int
	Insights    []models.Insight
	Tabs        []string
	Tab         string
	Courses     []models.Course
	Instructors []content.Instructor
}

// ProfileFormView drives the add and edit profile dialog
type ProfileFormView struct {
	Heading     string
	Description string
	Action      string
	Submit      string
	CSRFToken   string
	Input       models.ProfileInput
	Errors      validation.Errors
	Genders     []models.Gender
	HasPhoto    bool
}

type ProfileManagementView struct {
	Form     *ProfileFormView
	Profiles []models.ChildProfile
}

type ProfileDeleteView struct {
	Profile models.ChildProfile
}

type ProfileDetailView struct {
	Areas []content.Area
}

type NotFoundView struct {
	Path string
}
