package handlers

import "net/http"

// RegisterRoutes mounts every page and form endpoint on mux
func RegisterRoutes(mux *http.ServeMux, mw *Middleware, pages *PageHandler, profiles *ProfileHandler, chat *AssistantHandler) {
	mux.HandleFunc("GET /healthz", pages.Healthz)

	mux.HandleFunc("GET /{$}", pages.Home)
	mux.HandleFunc("GET /milestones", pages.Milestones)
	mux.HandleFunc("GET /screening", pages.Screening)
	mux.HandleFunc("GET /appointments", pages.Appointments)
	mux.HandleFunc("POST /appointments/book", mw.Protect(pages.BookAppointment))
	mux.HandleFunc("GET /training", pages.Training)
	mux.HandleFunc("GET /community", pages.Community)
	mux.HandleFunc("POST /community/posts", mw.Protect(pages.CreatePost))
	mux.HandleFunc("GET /journal", pages.Journal)
	mux.HandleFunc("POST /journal/entries", mw.Protect(pages.CreateJournalEntry))
	mux.HandleFunc("GET /ai-insights", pages.AIInsights)
	mux.HandleFunc("GET /activity-generator", pages.ActivityGenerator)
	mux.HandleFunc("POST /activity-generator/generate", mw.Protect(pages.GenerateActivity))
	mux.HandleFunc("GET /ai-training", pages.AITraining)

	mux.HandleFunc("GET /profile-management", profiles.ShowManagement)
	mux.HandleFunc("GET /profile-detail", profiles.ShowDetail)
	mux.HandleFunc("POST /profiles", mw.Protect(profiles.Create))
	mux.HandleFunc("POST /profiles/{id}/update", mw.Protect(profiles.Update))
	mux.HandleFunc("POST /profiles/{id}/delete", mw.Protect(profiles.Delete))
	mux.HandleFunc("POST /profiles/{id}/select", mw.Protect(profiles.Select))

	mux.HandleFunc("GET /assistant", chat.Show)
	mux.HandleFunc("POST /assistant/messages", mw.Protect(chat.Send))

	mux.HandleFunc("/", pages.NotFound)
}
