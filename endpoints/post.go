package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pc-inventory/directory"
	"pc-inventory/ingest"
	"pc-inventory/middleware"
	"pc-inventory/types"
)

// CreateComputer ingests one inventory submission: decode the optional
// log envelope, validate, append. Every accepted submission is a new
// history row; nothing is merged or deduplicated.
func (api *API) CreateComputer(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var sub types.Submission
	if err := json.NewDecoder(req.Body).Decode(&sub); err != nil {
		api.Log.Warn().Err(err).Msg("unreadable submission body")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := ingest.DecodeSubmission(&sub); err != nil {
		var decodeErr *types.DecodeError
		if errors.As(err, &decodeErr) {
			api.Log.Warn().Err(err).Msg("submission envelope rejected")
			writeError(w, http.StatusBadRequest, decodeErr.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	draft, err := ingest.Validate(&sub)
	if err != nil {
		var validationErr *types.ValidationError
		if errors.As(err, &validationErr) {
			api.Log.Warn().Int("fields", len(validationErr.Fields)).Msg("submission validation failed")
			writeJSON(w, http.StatusBadRequest, validationErr.Fields)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := api.Records.Append(ctx, draft)
	if err != nil {
		api.Log.Error().Err(err).Str("asset_code", draft.AssetCode).Msg("append failed")
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	api.Log.Info().
		Int64("id", rec.ID).
		Str("asset_code", rec.AssetCode).
		Bool("has_errors", rec.HasErrors).
		Msg("inventory record appended")
	writeJSON(w, http.StatusCreated, rec)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	TTLSeconds float64   `json:"ttl_seconds"`
}

// Login authenticates an operator and issues a session. Rejections and
// directory outages get the same generic 401 so accounts cannot be
// enumerated and outages are not advertised; the detail goes to the log.
func (api *API) Login(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body loginRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	body.Username = strings.TrimSpace(body.Username)
	if body.Username == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	session, err := api.Sessions.Authenticate(ctx, body.Username, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrRejected):
			writeError(w, http.StatusUnauthorized, types.ErrRejected.Error())
		case errors.Is(err, directory.ErrUnavailable):
			api.Log.Error().Err(err).Msg("directory unreachable during login")
			writeError(w, http.StatusUnauthorized, types.ErrRejected.Error())
		case errors.Is(err, directory.ErrConfiguration):
			api.Log.Error().Err(err).Msg("directory service account bind failed")
			writeError(w, http.StatusInternalServerError, "authentication backend misconfigured")
		default:
			api.Log.Error().Err(err).Msg("login failed")
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	ttl := time.Until(session.ExpiresAt)
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{
		Token:      session.ID,
		ExpiresAt:  session.ExpiresAt,
		TTLSeconds: ttl.Seconds(),
	})
}

// Logout destroys the session. Always 204: logging out twice is fine.
func (api *API) Logout(w http.ResponseWriter, req *http.Request) {
	if token := middleware.TokenFromRequest(req); token != "" {
		api.Sessions.Logout(token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
