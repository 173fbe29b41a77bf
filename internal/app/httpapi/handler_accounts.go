package httpapi

import (
	"net/http"
	"strings"

	"github.com/remnanthub/platform/internal/app/domain/member"
	"github.com/remnanthub/platform/internal/app/domain/profile"
	"github.com/remnanthub/platform/internal/app/services/accounts"
	"github.com/remnanthub/platform/internal/app/services/profiles"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/internal/httputil"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handler) signUp(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	sess, err := h.app.Auth.SignUp(r.Context(), in.Email, in.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sess)
}

func (h *handler) signIn(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	sess, err := h.app.Auth.SignIn(r.Context(), in.Email, in.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess)
}

func (h *handler) signOut(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if _, rest, ok := strings.Cut(token, " "); ok {
		token = strings.TrimSpace(rest)
	}
	if err := h.app.Auth.SignOut(r.Context(), token); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	accounts.Identity
	Profile     *profile.Profile `json:"profile,omitempty"`
	Memberships []member.Member  `json:"memberships"`
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	ident := identity(r)
	out := meResponse{Identity: ident}

	p, err := h.app.Profiles.Get(r.Context(), ident.UserID)
	switch {
	case err == nil:
		out.Profile = &p
	case !apperrors.HasCode(err, apperrors.CodeNotFound):
		h.fail(w, r, err)
		return
	}

	out.Memberships, err = h.app.Memberships.ListByUser(r.Context(), ident.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) upsertProfile(w http.ResponseWriter, r *http.Request) {
	var in struct {
		DisplayName string `json:"display_name"`
		Bio         string `json:"bio"`
		City        string `json:"city"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.app.Profiles.Upsert(r.Context(), userID(r), in.DisplayName, in.Bio, in.City)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *handler) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Profiles.Get(r.Context(), pathVar(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// uploadAvatar accepts either a multipart form with an "avatar" file or the
// raw image as the request body.
func (h *handler) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	limit := int64(profiles.MaxAvatarBytes)
	r.Body = http.MaxBytesReader(w, r.Body, limit+64<<10)

	var (
		filename    string
		contentType = r.Header.Get("Content-Type")
		data        []byte
		err         error
	)
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, ferr := r.FormFile("avatar")
		if ferr != nil {
			h.fail(w, r, apperrors.Validation("multipart field \"avatar\" is required"))
			return
		}
		defer file.Close()
		filename = header.Filename
		contentType = header.Header.Get("Content-Type")
		data, err = httputil.ReadAllStrict(file, limit)
	} else {
		data, err = httputil.ReadAllStrict(r.Body, limit)
	}
	if err != nil {
		h.fail(w, r, apperrors.Validation("avatar must be at most %d bytes", limit))
		return
	}

	p, err := h.app.Profiles.UploadAvatar(r.Context(), userID(r), filename, contentType, data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Notifications.List(r.Context(), userID(r), queryBool(r, "unread"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.app.Notifications.MarkRead(r.Context(), userID(r), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}
