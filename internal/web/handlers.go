package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	spotifyweb "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/daniyalk26/spotify-dashboard/internal/metrics"
	"github.com/daniyalk26/spotify-dashboard/internal/snapshot"
	"github.com/daniyalk26/spotify-dashboard/internal/spotify"
	"github.com/daniyalk26/spotify-dashboard/internal/storage"
)

const appTitle = "Spotify Listening Dashboard"

// ProviderFactory builds an authenticated provider client from a session
// token. Swapped for a fake in tests.
type ProviderFactory func(ctx context.Context, token *oauth2.Token) snapshot.Provider

// HandlersConfig wires the dependencies of the HTTP handlers.
type HandlersConfig struct {
	Auth      *spotifyauth.Authenticator
	Sessions  SessionManager
	Templates *Templates
	Extractor *snapshot.Extractor
	Fetcher   *snapshot.ProcessedFetcher
	RawStore  storage.ObjectStore
	RawBucket string
	Metrics   metrics.Recorder
	Logger    *log.Logger

	// NewProvider defaults to a zmb3/spotify client built from Auth.
	NewProvider ProviderFactory
}

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	auth        *spotifyauth.Authenticator
	sessions    SessionManager
	templates   *Templates
	extractor   *snapshot.Extractor
	fetcher     *snapshot.ProcessedFetcher
	rawStore    storage.ObjectStore
	rawBucket   string
	metrics     metrics.Recorder
	logger      *log.Logger
	newProvider ProviderFactory
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg HandlersConfig) *Handlers {
	h := &Handlers{
		auth:        cfg.Auth,
		sessions:    cfg.Sessions,
		templates:   cfg.Templates,
		extractor:   cfg.Extractor,
		fetcher:     cfg.Fetcher,
		rawStore:    cfg.RawStore,
		rawBucket:   cfg.RawBucket,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		newProvider: cfg.NewProvider,
	}
	if h.newProvider == nil {
		h.newProvider = func(ctx context.Context, token *oauth2.Token) snapshot.Provider {
			return spotify.New(spotifyweb.New(h.auth.Client(ctx, token)))
		}
	}
	return h
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)

	data := HomePageData{
		PageData: PageData{
			Title:       appTitle,
			CurrentPath: r.URL.Path,
		},
		Authenticated: session != nil,
	}

	if session != nil {
		data.User = &UserData{ID: session.UserID, Name: session.UserName}
		data.HasSnapshot = session.LastRawKey != ""
	}

	h.render(w, "home", data)
}

// Login initiates the Spotify OAuth flow (GET /auth/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	// Generate state for CSRF protection
	state, err := generateOAuthState()
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	// Store state in cookie for validation on callback
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300, // 5 minutes
	})

	// ShowDialog forces the consent screen every time, invalidating any
	// provider-side remembered approval.
	url := h.auth.AuthURL(state, spotifyauth.ShowDialog)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// Callback handles the OAuth redirect from Spotify (GET /callback). The
// authorization code arrives as a query parameter; success always ends in a
// redirect to a code-free URL, so a page refresh can never replay the
// single-use code.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	// Verify state
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil {
		http.Error(w, "Missing state cookie", http.StatusBadRequest)
		return
	}

	state := r.URL.Query().Get("state")
	if state != stateCookie.Value {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	// User declined, or Spotify rejected the request outright.
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		h.metrics.RecordAuthExchangeFailure()
		h.renderError(w, http.StatusBadRequest,
			fmt.Sprintf("Spotify authorization failed: %s.", errMsg),
			"Start the login again from the home page.")
		return
	}

	// Exchange the code for a token. A stale or already-consumed code fails
	// here; there is no retry, the user starts over with a fresh
	// authorization.
	token, err := h.auth.Token(r.Context(), state, r)
	if err != nil {
		h.metrics.RecordAuthExchangeFailure()
		h.logger.Warn("authorization code exchange failed", "err", err)
		h.renderError(w, http.StatusBadRequest,
			"Spotify did not accept the authorization code. It may have expired or already been used.",
			"Start the login again from the home page.")
		return
	}

	// Get user info from Spotify
	provider := h.newProvider(r.Context(), token)
	user, err := provider.CurrentUser(r.Context())
	if err != nil {
		h.renderError(w, http.StatusBadGateway,
			"Signed in, but fetching your Spotify profile failed.",
			"Reload the page to try again.")
		return
	}

	// Create session
	session, err := h.sessions.Create(r.Context(), token, user.ID, user.DisplayName)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	h.sessions.SetCookie(w, session)
	h.logger.Info("user authenticated", "user", user.ID)

	// A 303 turns the callback GET into a plain GET of the code-free home
	// URL, so the browser never re-requests the code-bearing URL on reload.
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Extract runs the extraction for the current session (POST /extract).
func (h *Handlers) Extract(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)
	if session == nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}

	provider := h.newProvider(r.Context(), session.Token)

	start := time.Now()
	_, key, err := h.extractor.Extract(r.Context(), provider)
	h.metrics.RecordExtraction(err, time.Since(start))

	if err != nil {
		h.logger.Error("extraction failed", "user", session.UserID, "err", err)
		if errors.Is(err, snapshot.ErrExtraction) {
			h.renderError(w, http.StatusBadGateway,
				fmt.Sprintf("Could not extract your listening data: %v.", err),
				"Your access may have expired. Reload to retry, or log in again.")
			return
		}
		// Extraction worked; storing the snapshot did not.
		h.renderError(w, http.StatusBadGateway,
			fmt.Sprintf("Could not store your listening data: %v.", err),
			"Reload to retry.")
		return
	}

	h.sessions.SetLastRawKey(r.Context(), session.ID, key)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Dashboard renders the analytics view for the session's latest snapshot
// (GET /dashboard). Missing processed data degrades every section to its
// fallback rather than failing the page.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)
	if session == nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	if session.LastRawKey == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	processed, err := h.fetcher.Fetch(r.Context(), session.LastRawKey)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return // client went away mid-wait
		}
		// Unavailable is the expected miss; anything else is logged and
		// rendered the same way.
		h.logger.Info("processed data not available", "key", session.LastRawKey, "err", err)
		processed = nil
	}
	h.metrics.RecordProcessedFetch(processed != nil)

	data := DashboardPageData{
		PageData: PageData{
			Title:       appTitle,
			User:        &UserData{ID: session.UserID, Name: session.UserName},
			CurrentPath: r.URL.Path,
		},
		Dashboard: BuildDashboard(session.LastRawKey, processed),
	}

	h.render(w, "dashboard", data)
}

// RawData serves the session's latest raw snapshot JSON (GET /raw).
func (h *Handlers) RawData(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)
	if session == nil || session.LastRawKey == "" {
		http.Error(w, "No snapshot for this session", http.StatusNotFound)
		return
	}

	data, err := h.rawStore.Get(r.Context(), h.rawBucket, session.LastRawKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			http.Error(w, "Snapshot not found", http.StatusNotFound)
			return
		}
		h.logger.Error("raw snapshot fetch failed", "key", session.LastRawKey, "err", err)
		http.Error(w, "Failed to fetch snapshot", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(data)
}

// Logout clears the session and redirects to home (POST /auth/logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)
	if session != nil {
		h.sessions.Delete(r.Context(), session.ID)
	}

	h.sessions.ClearCookie(w)
	// 303, not 307: the redirect must turn the POST into a GET of home.
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Healthz is the liveness endpoint (GET /healthz).
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// render writes a page template, falling back to a plain 500 on failure.
func (h *Handlers) render(w http.ResponseWriter, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, page, data); err != nil {
		h.logger.Error("template render failed", "page", page, "err", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// renderError writes the error page with the given message and advice.
func (h *Handlers) renderError(w http.ResponseWriter, status int, message, advice string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	data := ErrorPageData{
		PageData: PageData{Title: appTitle},
		Message:  message,
		Advice:   advice,
	}
	if err := h.templates.Render(w, "error", data); err != nil {
		h.logger.Error("template render failed", "page", "error", "err", err)
	}
}

// generateOAuthState creates a random state string for OAuth.
func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
