package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"littlesteps/internal/assistant"
	"littlesteps/internal/content"
	"littlesteps/internal/profile"
	"littlesteps/internal/security"
	"littlesteps/internal/web"
)

// Base carries the dependencies shared by every page handler
type Base struct {
	profiles      *profile.Registry
	workspaces    *content.Workspaces
	conversations *assistant.Conversations
	renderer      *web.Renderer
	mw            *Middleware
	logger        *zap.Logger
	now           func() time.Time
}

// NewBase bundles the shared handler dependencies
func NewBase(profiles *profile.Registry, workspaces *content.Workspaces, conversations *assistant.Conversations, renderer *web.Renderer, mw *Middleware, logger *zap.Logger) *Base {
	return &Base{
		profiles:      profiles,
		workspaces:    workspaces,
		conversations: conversations,
		renderer:      renderer,
		mw:            mw,
		logger:        logger,
		now:           time.Now,
	}
}

// EvictIdle drops the cached profile store, workspace and conversation of
// every device not seen within maxIdle. Profiles stay in storage.
func (b *Base) EvictIdle(maxIdle time.Duration) {
	stores := b.profiles.EvictIdle(maxIdle)
	workspaces := b.workspaces.EvictIdle(maxIdle)
	conversations := b.conversations.EvictIdle(maxIdle)
	if stores+workspaces+conversations > 0 {
		b.logger.Info("Evicted idle devices",
			zap.Int("stores", stores),
			zap.Int("workspaces", workspaces),
			zap.Int("conversations", conversations),
		)
	}
}

// SweepIdle runs EvictIdle every interval until ctx is done
func (b *Base) SweepIdle(ctx context.Context, every, maxIdle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.EvictIdle(maxIdle)
		}
	}
}

func (b *Base) catalog() *content.Catalog {
	return b.workspaces.Catalog()
}

func (b *Base) workspace(r *http.Request) *content.Workspace {
	return b.workspaces.For(GetDeviceFromContext(r.Context()))
}

// store returns the device's profile store, writing a 500 on failure
func (b *Base) store(w http.ResponseWriter, r *http.Request) (*profile.Store, bool) {
	st, err := b.profiles.Store(r.Context(), GetDeviceFromContext(r.Context()))
	if err != nil {
		respondWithError(w, b.logger, http.StatusInternalServerError, ErrInternalServerError, "Failed to open profile store", err)
		return nil, false
	}
	return st, true
}

// pageData assembles the layout data. It consumes any pending flash.
func (b *Base) pageData(w http.ResponseWriter, r *http.Request, st *profile.Store, title, active string, page any) PageData {
	data := PageData{
		Title:     title,
		Active:    active,
		Nav:       navigation,
		CSRFToken: b.mw.CSRFToken(r),
		Path:      r.URL.RequestURI(),
		Flash:     popFlash(w, r),
		Page:      page,
	}
	if st != nil {
		data.Profiles = st.List()
		if p, ok := st.Selected(); ok {
			data.Selected = &p
		}
	}
	if conv, err := b.conversations.For(GetDeviceFromContext(r.Context())); err == nil {
		data.Assistant = AssistantView{Messages: conv.Messages(), Pending: conv.Pending()}
	}
	return data
}

func (b *Base) render(w http.ResponseWriter, status int, page string, data PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// status is only written once the page rendered
	var buf strings.Builder
	if err := b.renderer.Render(&buf, page, data); err != nil {
		respondWithError(w, b.logger, http.StatusInternalServerError, ErrInternalServerError, "Failed to render page", err)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

// redirect finishes a successful form post
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// localPath keeps return_to values on this site
func localPath(to, fallback string) string {
	if to == "" || !strings.HasPrefix(to, "/") || strings.HasPrefix(to, "//") || strings.ContainsAny(to, "\\\r\n") {
		return fallback
	}
	return to
}

func setFlash(w http.ResponseWriter, r *http.Request, f Flash) {
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	cookie := security.CreateCookie(r, FlashCookieName, base64.RawURLEncoding.EncodeToString(raw), time.Now().Add(time.Minute))
	http.SetCookie(w, cookie)
}

func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil {
		return nil
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, FlashCookieName))

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil || f.Title == "" {
		return nil
	}
	return &f
}
