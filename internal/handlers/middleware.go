package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"littlesteps/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	DeviceContextKey    ContextKey = "device"
	RequestIDContextKey ContextKey = "request_id"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	devices *security.DeviceIssuer
	csrf    *security.CSRFGenerator
	limiter *security.RateLimiter
	logger  *zap.Logger
	maxBody int64
}

// NewMiddleware creates a new middleware instance. maxBody caps POST bodies.
func NewMiddleware(devices *security.DeviceIssuer, csrf *security.CSRFGenerator, limiter *security.RateLimiter, logger *zap.Logger, maxBody int64) *Middleware {
	return &Middleware{
		devices: devices,
		csrf:    csrf,
		limiter: limiter,
		logger:  logger,
		maxBody: maxBody,
	}
}

// Wrap applies the middleware every request passes through
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return m.Recover(m.Logging(m.Device(next)))
}

// Device identifies the browser by a signed cookie, issuing a new device
// when the cookie is missing or invalid and refreshing it near expiry.
func (m *Middleware) Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var dev security.Device
		valid := false
		if cookie, err := r.Cookie(DeviceCookieName); err == nil {
			dev, err = m.devices.Parse(cookie.Value)
			if err == nil {
				valid = true
			} else {
				m.logger.Debug("Rejected device token", zap.Error(err))
			}
		}

		if !valid || m.devices.NeedsRefresh(dev) {
			token, issued, err := m.devices.Issue(dev.ID)
			if err != nil {
				respondWithError(w, m.logger, http.StatusInternalServerError, ErrInternalServerError, "Failed to issue device token", err)
				return
			}
			if !valid {
				m.logger.Info("New device", zap.String("device", issued.ID))
			}
			dev = issued
			http.SetCookie(w, security.CreateCookie(r, DeviceCookieName, token, dev.ExpiresAt))
		}

		ctx := context.WithValue(r.Context(), DeviceContextKey, dev.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CSRFProtect rejects state-changing requests without a token bound to the device
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next(w, r)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, m.maxBody)
		if err := m.parseForm(r); err != nil {
			m.rejectBody(w, err)
			return
		}
		token := r.Header.Get(CSRFHeaderName)
		if token == "" {
			token = r.PostFormValue(CSRFFieldName)
		}

		if !m.csrf.ValidateToken(GetDeviceFromContext(r.Context()), token) {
			m.logger.Warn("CSRF validation failed", zap.String("path", r.URL.Path))
			http.Error(w, ErrInvalidCSRFToken, http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func (m *Middleware) parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(m.maxBody)
	}
	return r.ParseForm()
}

func (m *Middleware) rejectBody(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, ErrRequestTooLarge, http.StatusRequestEntityTooLarge)
		return
	}
	http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
}

// RateLimit throttles requests per client address
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			m.logger.Warn("Rate limit exceeded", zap.String("client", ip), zap.String("path", r.URL.Path))
			http.Error(w, ErrTooManyRequests, http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// Protect is the chain for form posts
func (m *Middleware) Protect(next http.HandlerFunc) http.HandlerFunc {
	return m.RateLimit(m.CSRFProtect(next))
}

// CSRFToken returns the form token for the request's device
func (m *Middleware) CSRFToken(r *http.Request) string {
	token, err := m.csrf.GenerateToken(GetDeviceFromContext(r.Context()))
	if err != nil {
		m.logger.Error("Failed to generate CSRF token", zap.Error(err))
		return ""
	}
	return token
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// Logging middleware logs HTTP requests
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w}
		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		next.ServeHTTP(rec, r.WithContext(ctx))

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		m.logger.Info("Request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// Recover turns handler panics into a 500
func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				m.logger.Error("Handler panicked",
					zap.Any("panic", v),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// GetDeviceFromContext retrieves the device id from the request context
func GetDeviceFromContext(ctx context.Context) string {
	id, _ := ctx.Value(DeviceContextKey).(string)
	return id
}

// GetRequestIDFromContext retrieves the request id from the request context
func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}
