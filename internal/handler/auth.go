package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"

	"github.com/sakif/devforum/internal/auth"
	"github.com/sakif/devforum/internal/service"
)

// AuthHandler manages sign-in, sign-up, and the browser OAuth flow.
//
// TWO WAYS IN:
//   - API clients POST a completed provider profile to /signin-with-oauth
//     (or credentials to /signup and /signin) and get the envelope back.
//   - Browsers hit /auth/{provider}/login, bounce through the provider's
//     consent page, and land on /auth/{provider}/callback, which feeds the
//     exchanged profile through the same SignInWithOAuth upsert.
//
// Both paths end with the JWT in an HttpOnly cookie.
type AuthHandler struct {
	auths     *service.AuthService
	providers map[string]auth.Provider
	logger    *slog.Logger
}

// stateCookie is the short-lived CSRF nonce for the browser OAuth flow.
const stateCookie = "oauth_state"

// NewAuthHandler creates an AuthHandler. providers maps provider name to
// its configured OAuth client; a nil map disables the browser flow.
func NewAuthHandler(auths *service.AuthService, providers map[string]auth.Provider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auths: auths, providers: providers, logger: logger}
}

// HandleSignInWithOAuth runs the OAuth upsert for an already-exchanged
// provider profile.
//
// HTTP: POST /api/auth/signin-with-oauth
func (h *AuthHandler) HandleSignInWithOAuth(w http.ResponseWriter, r *http.Request) {
	var in service.SignInWithOAuthInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auths.SignInWithOAuth(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookie(w, res.Token)
	writeData(w, res.User)
}

// HandleSignUp registers a credentials user.
//
// HTTP: POST /api/auth/signup
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var in service.SignUpInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auths.SignUp(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookie(w, res.Token)
	writeCreated(w, res.User)
}

// HandleSignIn signs a credentials user in.
//
// HTTP: POST /api/auth/signin
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var in service.SignInInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auths.SignIn(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookie(w, res.Token)
	writeData(w, res.User)
}

// HandleSignOut clears the token cookie.
//
// HTTP: POST /api/auth/signout
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeData(w, map[string]string{"status": "signed out"})
}

// HandleMe returns the signed-in caller's profile.
//
// HTTP: GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.auths.GetUserByID(r.Context(), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, user)
}

// HandleProviderLogin starts the browser OAuth flow: set a single-use state
// nonce and redirect to the provider's consent page.
//
// HTTP: GET /auth/{provider}/login
func (h *AuthHandler) HandleProviderLogin(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	// The nonce proves the callback was started by this server.
	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleProviderCallback completes the browser OAuth flow: verify the state
// nonce, exchange the code for a profile, and run the same upsert as the
// API sign-in path.
//
// HTTP: GET /auth/{provider}/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleProviderCallback(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("oauth callback: state mismatch", slog.String("provider", provider.Name()))
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The nonce is single-use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		// User declined on the consent page.
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	profile, err := provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed",
			slog.String("provider", provider.Name()),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	res, err := h.auths.SignInWithOAuth(r.Context(), service.SignInWithOAuthInput{
		Provider:          profile.Provider,
		ProviderAccountID: profile.ProviderAccountID,
		User: service.OAuthUserInput{
			Name:     profile.Name,
			Username: profile.Username,
			Email:    profile.Email,
			Image:    profile.Image,
		},
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookie(w, res.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// setTokenCookie stores the JWT where the auth middleware looks for it.
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
