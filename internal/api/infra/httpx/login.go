package httpx

import (
	"log/slog"
	"net/http"
)

type LoginRequest struct {
	Email string `json:"email"`
	// Username is accepted as an alias of Email.
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginStatus returns the logged in user, or 204 for anonymous sessions.
func (h *Handler) LoginStatus(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	if p.IsAnonymous() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, linksFor(r).user(p.User))
}

// Login authenticates the user, folds the anonymous basket into theirs and
// returns a new session token in the Session-Id header.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	email := req.Email
	if email == "" {
		email = req.Username
	}

	user, err := h.authn.Login(r.Context(), email, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}

	p := principalFrom(r)
	if !p.IsAnonymous() {
		if p.User.ID != user.ID {
			writeError(w, http.StatusMethodNotAllowed, "session_in_use", "Session is in use, log out first")
			return
		}
		writeJSON(w, http.StatusOK, linksFor(r).user(user))
		return
	}

	b, err := h.basketSvc.MergeOnLogin(r.Context(), user, p.BasketID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.issue(w, r, &user.ID, &b.ID); err != nil {
		handleError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "user logged in", "user_id", user.ID, "basket_id", b.ID)
	writeJSON(w, http.StatusOK, linksFor(r).user(user))
}

// Logout revokes the request's session token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	rs := sessionFrom(r)
	if rs.session != nil {
		if err := h.sessions.Revoke(r.Context(), *rs.session); err != nil {
			handleError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if err := h.requireStaff(r); err != nil {
		handleError(w, r, err)
		return
	}
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	l := linksFor(r)
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, l.user(&users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	if err := h.requireStaff(r); err != nil {
		handleError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	u, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linksFor(r).user(u))
}
