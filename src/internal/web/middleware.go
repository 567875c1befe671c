package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/logging"
	"github.com/reelscout/reelscout/src/internal/metrics"
)

type ctxKey int

const (
	userKey ctxKey = iota
	sessionKey
	clientKey
)

func currentUser(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey).(*domain.User)
	return u
}

func currentSessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}

func currentClientID(ctx context.Context) string {
	id, _ := ctx.Value(clientKey).(string)
	return id
}

// requestLogger attaches the chi request ID to the request-scoped logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.ContextWithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// instrument records request latency by route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// identify resolves the visitor: the session cookie names a browser session
// whose current user is held by the session observer, and an API caller may
// instead present an OIDC bearer token. Every visitor also gets a stable
// client ID used to debounce searches.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		clientID := r.Header.Get("X-Client-ID")
		if clientID == "" {
			if c, err := r.Cookie(clientCookie); err == nil && c.Value != "" {
				clientID = c.Value
			} else {
				clientID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     clientCookie,
					Value:    clientID,
					Path:     "/",
					MaxAge:   int((365 * 24 * time.Hour).Seconds()),
					HttpOnly: true,
					Secure:   s.opts.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}
		}
		ctx = context.WithValue(ctx, clientKey, clientID)

		if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
			claims, err := s.Tokens.Parse(c.Value)
			if err == nil {
				ctx = context.WithValue(ctx, sessionKey, claims.SessionID)
				if u := s.Sessions.Current(claims.SessionID); u != nil {
					ctx = context.WithValue(ctx, userKey, u)
				}
			} else {
				logging.Ctx(ctx).Debug().Err(err).Msg("[Web] Ignoring invalid session cookie")
			}
		}

		if h := r.Header.Get("Authorization"); h != "" && currentUser(ctx) == nil {
			u, err := s.OIDC.VerifyBearer(ctx, h)
			if err == nil {
				ctx = context.WithValue(ctx, userKey, u)
			} else if s.OIDC.Enabled {
				logging.Ctx(ctx).Debug().Err(err).Msg("[Web] Bearer token rejected")
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess *domain.Session) error {
	token, err := s.Tokens.Issue(sess.ID, sess.User.ID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.Tokens.Timeout().Seconds()),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
}

func logWarn(r *http.Request, err error, msg string) {
	logging.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg(msg)
}
