package httpapi

import (
	"net/http"

	"github.com/remnanthub/platform/internal/app/domain/community"
	"github.com/remnanthub/platform/internal/app/domain/member"
	"github.com/remnanthub/platform/internal/app/services/communities"
	"github.com/remnanthub/platform/internal/httputil"
)

// listCommunities serves the directory. Private listings are only visible to admins.
func (h *handler) listCommunities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := community.Filter{
		Query:      q.Get("q"),
		City:       q.Get("city"),
		MeetingDay: q.Get("meeting_day"),
		TrustLevel: community.TrustLevel(q.Get("trust_level")),
		Tag:        q.Get("tag"),
		ParentID:   q.Get("parent_id"),
		PublicOnly: !identity(r).IsAdmin(),
	}
	list, err := h.app.Communities.Search(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) nearbyCommunities(w http.ResponseWriter, r *http.Request) {
	lat, err := queryFloat(r, "lat")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	lng, err := queryFloat(r, "lng")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	radius := 25.0
	if r.URL.Query().Get("radius_km") != "" {
		if radius, err = queryFloat(r, "radius_km"); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	list, err := h.app.Communities.Nearby(r.Context(), lat, lng, radius)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) getCommunity(w http.ResponseWriter, r *http.Request) {
	c, err := h.app.Communities.Get(r.Context(), userID(r), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *handler) createCommunity(w http.ResponseWriter, r *http.Request) {
	var draft communities.Draft
	if err := decode(r, &draft); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.app.Communities.Create(r.Context(), userID(r), draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *handler) updateCommunity(w http.ResponseWriter, r *http.Request) {
	var patch communities.Patch
	if err := decode(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.app.Communities.Update(r.Context(), userID(r), pathVar(r, "id"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *handler) deleteCommunity(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Communities.Delete(r.Context(), userID(r), pathVar(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) setTrustLevel(w http.ResponseWriter, r *http.Request) {
	var in struct {
		TrustLevel community.TrustLevel `json:"trust_level"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.app.Communities.SetTrustLevel(r.Context(), userID(r), pathVar(r, "id"), in.TrustLevel)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *handler) joinCommunity(w http.ResponseWriter, r *http.Request) {
	m, err := h.app.Memberships.Join(r.Context(), userID(r), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

// listMembers is open to active members; pending requests only to managers.
func (h *handler) listMembers(w http.ResponseWriter, r *http.Request) {
	communityID := pathVar(r, "id")
	status := member.Status(r.URL.Query().Get("status"))
	if status == member.StatusActive || status == "" {
		status = member.StatusActive
		if !h.app.Access.IsAdmin(userID(r)) {
			if err := h.app.Access.RequireActiveMember(r.Context(), communityID, userID(r)); err != nil {
				h.fail(w, r, err)
				return
			}
		}
	} else if err := h.app.Access.RequireManager(r.Context(), communityID, userID(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.app.Memberships.ListByCommunity(r.Context(), communityID, status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) myMemberships(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Memberships.ListByUser(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) approveMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.app.Memberships.Approve(r.Context(), userID(r), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *handler) setMemberRole(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Role member.Role `json:"role"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.app.Memberships.SetRole(r.Context(), userID(r), pathVar(r, "id"), in.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *handler) removeMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.app.Memberships.Remove(r.Context(), userID(r), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}
