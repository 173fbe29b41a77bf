package httpapi

import (
	"net/http"

	"github.com/remnanthub/platform/internal/app/domain/resource"
	"github.com/remnanthub/platform/internal/app/domain/verification"
	"github.com/remnanthub/platform/internal/httputil"
)

func (h *handler) submitVerification(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CommunityID string                   `json:"community_id"`
		FullName    string                   `json:"full_name"`
		Statement   string                   `json:"statement"`
		References  []verification.Reference `json:"references"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	sub, err := h.app.Verifications.Submit(r.Context(), userID(r), verification.Submission{
		CommunityID: in.CommunityID,
		FullName:    in.FullName,
		Statement:   in.Statement,
		References:  in.References,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sub)
}

// listVerifications is the staff review queue; status defaults to submitted.
func (h *handler) listVerifications(w http.ResponseWriter, r *http.Request) {
	status := verification.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = verification.StatusSubmitted
	}
	list, err := h.app.Verifications.ListByStatus(r.Context(), userID(r), status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) myVerifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Verifications.ListMine(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) getVerification(w http.ResponseWriter, r *http.Request) {
	sub, err := h.app.Verifications.Get(r.Context(), userID(r), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sub)
}

func (h *handler) reviewVerification(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Approve bool   `json:"approve"`
		Note    string `json:"note"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	sub, err := h.app.Verifications.Review(r.Context(), userID(r), pathVar(r, "id"), in.Approve, in.Note)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sub)
}

func (h *handler) fileReport(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SubjectID   string `json:"subject_id"`
		Description string `json:"description"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	rep, err := h.app.Reports.File(r.Context(), userID(r), pathVar(r, "id"), in.SubjectID, in.Description)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rep)
}

func (h *handler) listCommunityReports(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Reports.ListForCommunity(r.Context(), userID(r), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) myReports(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Reports.ListMine(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) getReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.app.Reports.Get(r.Context(), userID(r), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rep)
}

type noteInput struct {
	Note string `json:"note"`
}

func (h *handler) advanceReport(w http.ResponseWriter, r *http.Request) {
	var in noteInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	rep, err := h.app.Reports.Advance(r.Context(), userID(r), pathVar(r, "id"), in.Note)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rep)
}

func (h *handler) resolveReport(w http.ResponseWriter, r *http.Request) {
	var in noteInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	rep, err := h.app.Reports.Resolve(r.Context(), userID(r), pathVar(r, "id"), in.Note)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rep)
}

func (h *handler) listResources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.app.Resources.List(r.Context(), q.Get("q"), q.Get("category"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) getResource(w http.ResponseWriter, r *http.Request) {
	res, err := h.app.Resources.Get(r.Context(), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) createResource(w http.ResponseWriter, r *http.Request) {
	var in resource.Resource
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.app.Resources.Create(r.Context(), userID(r), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}
