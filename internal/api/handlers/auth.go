package handlers

import (
	"errors"
	"net/http"

	"github.com/citybeat-app/server/internal/api/problem"
	"github.com/citybeat-app/server/internal/domain/accounts"
)

type AuthHandler struct {
	Service *accounts.Service
	Env     string
}

func NewAuthHandler(service *accounts.Service, env string) *AuthHandler {
	return &AuthHandler{Service: service, Env: env}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountResponse struct {
	ULID       string `json:"ulid"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Admin      bool   `json:"admin"`
	AvatarPath string `json:"avatar_path,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type sessionResponse struct {
	Token   string          `json:"token"`
	Account accountResponse `json:"account"`
}

func renderAccount(account *accounts.Account) accountResponse {
	return accountResponse{
		ULID:       account.ULID,
		Name:       account.Name,
		Email:      account.Email,
		Admin:      account.Admin,
		AvatarPath: account.AvatarPath,
		CreatedAt:  formatTime(account.CreatedAt),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	account, token, err := h.Service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrEmailTaken) {
			problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Email already registered", err, h.Env)
			return
		}
		writeServiceError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, Account: renderAccount(account)})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	account, token, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid email or password", err, h.Env)
			return
		}
		writeServiceError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Token: token, Account: renderAccount(account)})
}
