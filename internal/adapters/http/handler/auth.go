package handler

import (
	"net/http"
	"time"

	"github.com/ogurasousui/headcount-clean-arch/internal/core/auth"
)

type loginRequest struct {
	Matricula string `json:"matricula" validate:"required"`
	Senha     string `json:"senha" validate:"required"`
}

type loginUser struct {
	Nome string `json:"nome"`
	Role string `json:"role"`
}

type loginResponse struct {
	Token              string    `json:"token"`
	MustChangePassword bool      `json:"must_change_password"`
	User               loginUser `json:"user"`
}

type changePasswordRequest struct {
	NovaSenha string `json:"novaSenha" validate:"required"`
}

type createUserRequest struct {
	Matricula    string `json:"matricula" validate:"required"`
	Nome         string `json:"nome" validate:"required"`
	Email        string `json:"email" validate:"required"`
	RoleID       string `json:"role_id" validate:"required"`
	SenhaInicial string `json:"senha_inicial" validate:"required"`
}

type roleResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Permissions auth.Permissions `json:"permissions"`
}

type userResponse struct {
	ID                 string    `json:"id"`
	Matricula          string    `json:"matricula"`
	Nome               string    `json:"nome"`
	Email              string    `json:"email"`
	RoleID             string    `json:"role_id"`
	RoleName           string    `json:"roleName,omitempty"`
	MustChangePassword bool      `json:"must_change_password"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toUserResponse(u *auth.User) userResponse {
	return userResponse{
		ID:                 u.ID,
		Matricula:          u.Matricula,
		Nome:               u.Nome,
		Email:              u.Email,
		RoleID:             u.RoleID,
		RoleName:           u.RoleName(),
		MustChangePassword: u.MustChangePassword,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, &req, "Matrícula e senha são obrigatórios."); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.auth.Login(r.Context(), auth.LoginInput{Matricula: req.Matricula, Password: req.Senha})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:              res.Token,
		MustChangePassword: res.MustChangePassword,
		User:               loginUser{Nome: res.Nome, Role: res.Role},
	})
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := h.decode(r, &req, "A nova senha é obrigatória."); err != nil {
		writeError(w, r, err)
		return
	}

	p := principalFrom(r.Context())
	if err := h.auth.ChangePassword(r.Context(), auth.ChangePasswordInput{UserID: p.UserID, NewPassword: req.NovaSenha}); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Senha alterada com sucesso.")
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := h.decode(r, &req, "Todos os campos são obrigatórios."); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.auth.CreateUser(r.Context(), auth.CreateUserInput{
		ActorID:         principalFrom(r.Context()).UserID,
		Matricula:       req.Matricula,
		Nome:            req.Nome,
		Email:           req.Email,
		RoleID:          req.RoleID,
		InitialPassword: req.SenhaInicial,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.auth.ListRoles(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleResponse{ID: role.ID, Name: role.Name, Permissions: role.Permissions})
	}
	writeJSON(w, http.StatusOK, out)
}
