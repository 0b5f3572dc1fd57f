package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"littlesteps/internal/content"
	"littlesteps/internal/validation"
)

var (
	sessionModes    = []string{"online", "in-person"}
	insightTabs     = []string{"patterns", "predictions", "recommendations"}
	trainingTabs    = []string{"recommended", "in-progress", "completed"}
	defaultAgeGroup = "0-6"
)

// PageHandler serves the dashboard pages backed by sample content
type PageHandler struct {
	*Base
}

// NewPageHandler creates a page handler
func NewPageHandler(base *Base) *PageHandler {
	return &PageHandler{Base: base}
}

func (h *PageHandler) show(w http.ResponseWriter, r *http.Request, status int, page, title, active string, view any) {
	st, ok := h.store(w, r)
	if !ok {
		return
	}
	h.render(w, status, page, h.pageData(w, r, st, title, active, view))
}

func (h *PageHandler) today() string {
	return h.now().Format(time.DateOnly)
}

// Home shows the dashboard overview
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, http.StatusOK, "home", "Home", "/", HomeView{Overview: h.catalog().Overview})
}

// Milestones shows one age group's checklist, ?group=<key>
func (h *PageHandler) Milestones(w http.ResponseWriter, r *http.Request) {
	c := h.catalog()
	group, ok := c.AgeGroup(r.URL.Query().Get("group"))
	if !ok {
		group, _ = c.AgeGroup(defaultAgeGroup)
	}
	h.show(w, r, http.StatusOK, "milestones", "Milestones", "/milestones", MilestonesView{
		Groups:   c.AgeGroups,
		Active:   group,
		Progress: c.Progress(group.Key),
	})
}

// Screening lists the screening questionnaires
func (h *PageHandler) Screening(w http.ResponseWriter, r *http.Request) {
	c := h.catalog()
	h.show(w, r, http.StatusOK, "screening", "Screening", "/screening", ScreeningView{
		Tools:    c.ScreeningTools,
		Insights: c.InsightsFor("screening"),
	})
}

func (h *PageHandler) appointmentsView(r *http.Request, mode string) AppointmentsView {
	if !slices.Contains(sessionModes, mode) {
		mode = sessionModes[0]
	}
	return AppointmentsView{
		Modes:      sessionModes,
		Mode:       mode,
		Therapists: h.catalog().TherapistsFor(mode),
		Bookings:   h.workspace(r).Bookings(),
		Date:       h.today(),
		Today:      h.today(),
	}
}

// Appointments lists therapists for a session mode, ?mode=online|in-person
func (h *PageHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, http.StatusOK, "appointments", "Appointments", "/appointments", h.appointmentsView(r, r.URL.Query().Get("mode")))
}

// BookAppointment records a session request for the selected child
func (h *PageHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	st, ok := h.store(w, r)
	if !ok {
		return
	}

	in := content.BookingInput{
		TherapistID: r.PostFormValue("therapist"),
		Date:        r.PostFormValue("date"),
		Slot:        r.PostFormValue("slot"),
		Mode:        r.PostFormValue("mode"),
		ChildID:     st.SelectedID(),
	}
	b, err := h.workspace(r).Book(in)
	if err != nil {
		var ve validation.ValidationError
		if !errors.As(err, &ve) {
			respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Failed to book appointment", err)
			return
		}
		view := h.appointmentsView(r, in.Mode)
		view.Error = ve.Message
		h.render(w, http.StatusUnprocessableEntity, "appointments", h.pageData(w, r, st, "Appointments", "/appointments", view))
		return
	}

	h.logger.Info("Appointment requested", zap.String("device", GetDeviceFromContext(r.Context())), zap.String("therapist", b.TherapistID))
	setFlash(w, r, Flash{Kind: "success", Title: "Appointment Requested", Message: fmt.Sprintf("%s on %s at %s", b.Therapist, b.Date, b.Slot)})
	redirect(w, r, "/appointments?mode="+url.QueryEscape(b.Mode))
}

// Training lists library resources, ?category=<name>
func (h *PageHandler) Training(w http.ResponseWriter, r *http.Request) {
	c := h.catalog()
	category := r.URL.Query().Get("category")
	if category == "" {
		category = "all"
	}
	resources := c.ResourcesIn(category)
	h.show(w, r, http.StatusOK, "training", "Training", "/training", TrainingView{
		Categories: c.ResourceCategories,
		Category:   category,
		Resources:  resources,
		Videos:     content.ResourcesByType(resources, "video"),
		PDFs:       content.ResourcesByType(resources, "pdf"),
	})
}

func (h *PageHandler) communityView(r *http.Request, group string) CommunityView {
	c := h.catalog()
	if !c.HasForumGroup(group) {
		group = ""
	}
	return CommunityView{
		Groups: c.ForumGroups,
		Group:  group,
		Posts:  h.workspace(r).Posts(group),
		Form:   content.PostInput{Group: group},
	}
}

// Community shows the forum, ?group=<name>
func (h *PageHandler) Community(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, http.StatusOK, "community", "Community", "/community", h.communityView(r, r.URL.Query().Get("group")))
}

// CreatePost adds a forum post
func (h *PageHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	in := content.PostInput{
		Group:   r.PostFormValue("group"),
		Title:   r.PostFormValue("title"),
		Content: r.PostFormValue("content"),
	}
	post, err := h.workspace(r).AddPost(in)
	if err != nil {
		var ve validation.ValidationError
		if !errors.As(err, &ve) {
			respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Failed to add post", err)
			return
		}
		st, ok := h.store(w, r)
		if !ok {
			return
		}
		view := h.communityView(r, "")
		view.Form, view.Error = in, ve.Message
		h.render(w, http.StatusUnprocessableEntity, "community", h.pageData(w, r, st, "Community", "/community", view))
		return
	}

	setFlash(w, r, Flash{Kind: "success", Title: "Post Published", Message: post.Title})
	redirect(w, r, "/community?group="+url.QueryEscape(post.Group))
}

func (h *PageHandler) journalView(r *http.Request) JournalView {
	return JournalView{
		Insights: h.catalog().InsightsFor("journal"),
		Entries:  h.workspace(r).JournalEntries(),
		Today:    h.today(),
	}
}

// Journal shows the daily log
func (h *PageHandler) Journal(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, http.StatusOK, "journal", "Journal", "/journal", h.journalView(r))
}

// CreateJournalEntry logs a day
func (h *PageHandler) CreateJournalEntry(w http.ResponseWriter, r *http.Request) {
	st, ok := h.store(w, r)
	if !ok {
		return
	}

	in := content.JournalInput{
		Date:       r.PostFormValue("date"),
		Mood:       r.PostFormValue("mood"),
		Activities: r.PostFormValue("activities"),
		Notes:      r.PostFormValue("notes"),
	}
	var formErr string
	var err error
	if in.Sleep, err = formInt(r, "sleep"); err != nil {
		formErr = "sleep must be a number"
	}
	if in.Meals, err = formInt(r, "meals"); err != nil {
		formErr = "meals must be a number"
	}
	if formErr == "" {
		if _, err := h.workspace(r).AddJournalEntry(in); err != nil {
			var ve validation.ValidationError
			if !errors.As(err, &ve) {
				respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Failed to add journal entry", err)
				return
			}
			formErr = ve.Message
		}
	}
	if formErr != "" {
		view := h.journalView(r)
		view.Error = formErr
		h.render(w, http.StatusUnprocessableEntity, "journal", h.pageData(w, r, st, "Journal", "/journal", view))
		return
	}

	setFlash(w, r, Flash{Kind: "success", Title: "Entry Saved", Message: "Your journal entry has been added"})
	redirect(w, r, "/journal")
}

func formInt(r *http.Request, name string) (int, error) {
	v := strings.TrimSpace(r.PostFormValue(name))
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// AIInsights shows the analysis dashboard, ?period=week|month|quarter&tab=<tab>.
// The period only changes labels; the analysis is the same sample data.
func (h *PageHandler) AIInsights(w http.ResponseWriter, r *http.Request) {
	c := h.catalog()
	period := content.ParsePeriod(r.URL.Query().Get("period"))
	tab := r.URL.Query().Get("tab")
	if !slices.Contains(insightTabs, tab) {
		tab = insightTabs[0]
	}
	h.show(w, r, http.StatusOK, "ai_insights", "AI Insights", "", AIInsightsView{
		Periods:    content.Periods,
		Period:     period,
		Tab:        tab,
		Tabs:       insightTabs,
		Analysis:   c.Analysis,
		TrendTitle: "Progress Trends (" + period.Label() + ")",
		Insights:   c.InsightsFor(tab),
	})
}

// ActivityGenerator lists suggested activities
func (h *PageHandler) ActivityGenerator(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, http.StatusOK, "activity_generator", "Activity Generator", "", ActivityGeneratorView{
		Activities: h.workspace(r).Activities(),
	})
}

// GenerateActivity adds a new suggestion to the top of the list
func (h *PageHandler) GenerateActivity(w http.ResponseWriter, r *http.Request) {
	h.workspace(r).GenerateActivity()
	setFlash(w, r, Flash{Kind: "success", Title: "New Activity Generated!", Message: "A personalized activity has been created based on your child's progress."})
	redirect(w, r, "/activity-generator")
}

// AITraining shows courses, ?tab=recommended|in-progress|completed
func (h *PageHandler) AITraining(w http.ResponseWriter, r *http.Request) {
	c := h.catalog()
	tab := r.URL.Query().Get("tab")
	if !slices.Contains(trainingTabs, tab) {
		tab = trainingTabs[0]
	}

	courses := c.RecommendedCourses()
	switch tab {
	case "in-progress":
		courses = c.CoursesInProgress()
	case "completed":
		courses = c.CompletedCourses()
	}

	h.show(w, r, http.StatusOK, "ai_training", "AI Training Center", "", AITrainingView{
		Progress:    c.Analysis.LearningProgress,
		Insights:    c.InsightsFor("ai-training"),
		Tabs:        trainingTabs,
		Tab:         tab,
		Courses:     courses,
		Instructors: c.Instructors,
	})
}

// NotFound renders the 404 page for any unmatched path
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Unknown path", zap.String("path", r.URL.Path))
	h.show(w, r, http.StatusNotFound, "not_found", "Page Not Found", "", NotFoundView{Path: r.URL.Path})
}

// Healthz reports liveness
func (h *PageHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
