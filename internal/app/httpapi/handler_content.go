package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/remnanthub/platform/internal/app/domain/readingplan"
	"github.com/remnanthub/platform/internal/app/services/readingplans"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/internal/httputil"
	"github.com/remnanthub/platform/internal/middleware"
)

// requireMember allows active members of the community and admins.
func (h *handler) requireMember(r *http.Request, communityID string) error {
	if identity(r).IsAdmin() {
		_, err := h.app.Access.Community(r.Context(), communityID)
		return err
	}
	return h.app.Access.RequireActiveMember(r.Context(), communityID, userID(r))
}

func (h *handler) listPrayers(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Prayers.List(r.Context(), userID(r), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) createPrayer(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title       string `json:"title"`
		Body        string `json:"body"`
		IsAnonymous bool   `json:"is_anonymous"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.app.Prayers.Create(r.Context(), userID(r), pathVar(r, "id"), in.Title, in.Body, in.IsAnonymous)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *handler) pray(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Prayers.Pray(r.Context(), userID(r), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *handler) markAnswered(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Note string `json:"note"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.app.Prayers.MarkAnswered(r.Context(), userID(r), pathVar(r, "id"), in.Note)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *handler) deletePrayer(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Prayers.Delete(r.Context(), userID(r), pathVar(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listAnnouncements(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Announcements.List(r.Context(), userID(r), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) createAnnouncement(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title  string `json:"title"`
		Body   string `json:"body"`
		Pinned bool   `json:"pinned"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.app.Announcements.Create(r.Context(), userID(r), pathVar(r, "id"), in.Title, in.Body, in.Pinned)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, a)
}

func (h *handler) pinAnnouncement(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Pinned bool `json:"pinned"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.app.Announcements.SetPinned(r.Context(), userID(r), pathVar(r, "id"), in.Pinned)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *handler) deleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Announcements.Delete(r.Context(), userID(r), pathVar(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listMessages(w http.ResponseWriter, r *http.Request) {
	since, err := queryTime(r, "since")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.app.Chat.List(r.Context(), userID(r), pathVar(r, "id"), since, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

// sendMessage stores the message and answers with the refreshed latest page.
func (h *handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Body string `json:"body"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.app.Chat.Send(r.Context(), userID(r), pathVar(r, "id"), in.Body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, page)
}

// chatSocket upgrades to a websocket after authenticating with either the
// Authorization header or an access_token query parameter.
func (h *handler) chatSocket(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		token := strings.TrimSpace(r.URL.Query().Get("access_token"))
		if token == "" {
			h.fail(w, r, apperrors.Unauthorized("missing access token"))
			return
		}
		var err error
		if ident, err = h.app.Auth.Verify(r.Context(), token); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	communityID := pathVar(r, "id")
	if err := h.app.Chat.CanConnect(r.Context(), communityID, ident.UserID); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.app.Hub.Serve(w, r, communityID, ident.UserID); err != nil {
		// the upgrader has already answered the client
		h.log.WithContext(r.Context()).WithError(err).Debug("chat upgrade failed")
	}
}

func (h *handler) listPlans(w http.ResponseWriter, r *http.Request) {
	communityID := pathVar(r, "id")
	if err := h.requireMember(r, communityID); err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.app.ReadingPlans.ListPlans(r.Context(), communityID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) createPlan(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title       string                `json:"title"`
		Description string                `json:"description"`
		StartDate   time.Time             `json:"start_date"`
		Readings    []readingplan.Reading `json:"readings"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	plan, err := h.app.ReadingPlans.CreatePlan(r.Context(), userID(r), readingplan.Plan{
		CommunityID: pathVar(r, "id"),
		Title:       in.Title,
		Description: in.Description,
		StartDate:   in.StartDate,
		Readings:    in.Readings,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, plan)
}

// memberPlan loads a plan the caller may see.
func (h *handler) memberPlan(r *http.Request) (readingplan.Plan, error) {
	plan, err := h.app.ReadingPlans.GetPlan(r.Context(), pathVar(r, "id"))
	if err != nil {
		return readingplan.Plan{}, err
	}
	if err := h.requireMember(r, plan.CommunityID); err != nil {
		return readingplan.Plan{}, err
	}
	return plan, nil
}

func (h *handler) getPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.memberPlan(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, plan)
}

func (h *handler) todaysReading(w http.ResponseWriter, r *http.Request) {
	plan, err := h.memberPlan(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	reading, ok := readingplans.TodaysReading(plan, time.Now())
	if !ok {
		h.fail(w, r, apperrors.NotFound("reading", "today"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reading)
}

func (h *handler) planProgress(w http.ResponseWriter, r *http.Request) {
	prog, err := h.app.ReadingPlans.Progress(r.Context(), userID(r), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, prog)
}

func (h *handler) markDay(w http.ResponseWriter, r *http.Request) {
	day, err := strconv.Atoi(pathVar(r, "day"))
	if err != nil {
		h.fail(w, r, apperrors.Validation("day must be an integer"))
		return
	}
	var in struct {
		Done bool `json:"done"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	prog, err := h.app.ReadingPlans.MarkDay(r.Context(), userID(r), pathVar(r, "id"), day, in.Done)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, prog)
}
