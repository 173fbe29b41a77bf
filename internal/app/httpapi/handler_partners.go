package httpapi

import (
	"net/http"
	"time"

	"github.com/remnanthub/platform/internal/app/domain/multiplication"
	"github.com/remnanthub/platform/internal/app/domain/partner"
	"github.com/remnanthub/platform/internal/httputil"
)

func (h *handler) listPartners(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Partners.ListForUser(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) requestPartner(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PartnerID   string            `json:"partner_id"`
		CommunityID string            `json:"community_id"`
		Frequency   partner.Frequency `json:"frequency"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.app.Partners.Request(r.Context(), userID(r), in.PartnerID, in.CommunityID, in.Frequency)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *handler) respondPartner(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Accept bool `json:"accept"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.app.Partners.Respond(r.Context(), userID(r), pathVar(r, "id"), in.Accept)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *handler) endPartner(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Partners.End(r.Context(), userID(r), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *handler) listCheckIns(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Partners.ListCheckIns(r.Context(), userID(r), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) checkIn(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Note string `json:"note"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.app.Partners.CheckIn(r.Context(), userID(r), pathVar(r, "id"), in.Note)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *handler) listMultiplications(w http.ResponseWriter, r *http.Request) {
	communityID := pathVar(r, "id")
	if err := h.requireMember(r, communityID); err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.app.Multiplications.List(r.Context(), communityID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) planMultiplication(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ApprenticeLeaderID string     `json:"apprentice_leader_id"`
		TargetDate         *time.Time `json:"target_date"`
		Notes              string     `json:"notes"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.app.Multiplications.Plan(r.Context(), userID(r), pathVar(r, "id"), in.ApprenticeLeaderID, in.TargetDate, in.Notes)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *handler) getMultiplication(w http.ResponseWriter, r *http.Request) {
	m, err := h.app.Multiplications.Get(r.Context(), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.requireMember(r, m.ParentCommunityID); err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *handler) setStage(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Stage            multiplication.Stage `json:"stage"`
		ChildCommunityID string               `json:"child_community_id"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.app.Multiplications.SetStage(r.Context(), userID(r), pathVar(r, "id"), in.Stage, in.ChildCommunityID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *handler) lineage(w http.ResponseWriter, r *http.Request) {
	l, err := h.app.Multiplications.Lineage(r.Context(), userID(r), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, l)
}
