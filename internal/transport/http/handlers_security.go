package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"gatekey/internal/security/models"
	"gatekey/internal/security/service"
	dErrors "gatekey/pkg/domain-errors"
)

// userEnvelope mirrors the historical response shape; _id stays for the
// clients that already depend on it.
type userEnvelope struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type tokenEnvelope struct {
	Token string       `json:"token"`
	User  userEnvelope `json:"user"`
}

type recoverEnvelope struct {
	Check string       `json:"check"`
	Token string       `json:"token"`
	User  userEnvelope `json:"user"`
}

func toUserEnvelope(u *models.User) userEnvelope {
	return userEnvelope{ID: u.ID.String(), Email: u.Email, Name: u.Name}
}

func toTokenEnvelope(result *models.TokenResult) tokenEnvelope {
	return tokenEnvelope{Token: result.Token.Value, User: toUserEnvelope(result.User)}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	BaseURL  string `json:"baseURL"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if !govalidator.IsEmail(req.Email) {
		writeError(w, h.logger, dErrors.New(dErrors.CodeInvalidInput, "invalid email"))
		return
	}
	if !govalidator.StringLength(req.Password, "8", "72") {
		writeError(w, h.logger, dErrors.New(dErrors.CodeInvalidInput, "password must be between 8 and 72 characters"))
		return
	}
	if !govalidator.IsURL(req.BaseURL) {
		writeError(w, h.logger, dErrors.New(dErrors.CodeInvalidInput, "invalid baseURL"))
		return
	}

	user, err := h.security.Signup(r.Context(), service.SignupParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Origin:   req.BaseURL,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]userEnvelope{"user": toUserEnvelope(user)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	result, err := h.security.Login(r.Context(), service.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toTokenEnvelope(result))
}

type forgotRequest struct {
	Email   string `json:"email"`
	BaseURL string `json:"baseURL"`
}

func (h *Handler) handleForgot(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if !govalidator.IsEmail(req.Email) {
		writeError(w, h.logger, dErrors.New(dErrors.CodeInvalidInput, "invalid email"))
		return
	}
	if !govalidator.IsURL(req.BaseURL) {
		writeError(w, h.logger, dErrors.New(dErrors.CodeInvalidInput, "invalid baseURL"))
		return
	}

	user, err := h.security.Forgot(r.Context(), service.ForgotParams{
		Email:  req.Email,
		Origin: req.BaseURL,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	// Name is omitted here; recovery starts from the address alone.
	writeJSON(w, http.StatusOK, map[string]userEnvelope{"user": {ID: user.ID.String(), Email: user.Email}})
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	result, err := h.security.Confirm(r.Context(), chi.URLParam(r, "check"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenEnvelope(result))
}

func (h *Handler) handleRecover(w http.ResponseWriter, r *http.Request) {
	result, err := h.security.Recover(r.Context(), chi.URLParam(r, "check"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, recoverEnvelope{
		Check: result.Check.Code,
		Token: result.Token.Value,
		User:  toUserEnvelope(result.User),
	})
}

type recoverPasswdRequest struct {
	Password string `json:"password"`
}

func (h *Handler) handleRecoverPasswd(w http.ResponseWriter, r *http.Request) {
	var req recoverPasswdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if !govalidator.StringLength(req.Password, "8", "72") {
		writeError(w, h.logger, dErrors.New(dErrors.CodeInvalidInput, "password must be between 8 and 72 characters"))
		return
	}

	result, err := h.security.RecoverPasswd(r.Context(), chi.URLParam(r, "check"), req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenEnvelope(result))
}

type passwdRequest struct {
	Check    string `json:"check"`
	Password string `json:"password"`
}

func (h *Handler) handlePasswd(w http.ResponseWriter, r *http.Request) {
	var req passwdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if !govalidator.StringLength(req.Password, "8", "72") {
		writeError(w, h.logger, dErrors.New(dErrors.CodeInvalidInput, "password must be between 8 and 72 characters"))
		return
	}

	user, err := h.security.Passwd(r.Context(), service.PasswdParams{
		Check:    req.Check,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]userEnvelope{"user": toUserEnvelope(user)})
}

type clientTokenRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	UserID       string `json:"userId"`
}

func (h *Handler) handleClientToken(w http.ResponseWriter, r *http.Request) {
	var req clientTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	result, err := h.security.Client(r.Context(), service.ClientParams{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		UserID:       req.UserID,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toTokenEnvelope(result))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if _, err := h.security.Logout(r.Context(), r.Header.Get("Authorization")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
