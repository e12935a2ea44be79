package freight_api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fofoo/freightdesk/internal/models"
)

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

// --- trackings ---

func (a *API) submitTracking(w http.ResponseWriter, r *http.Request) {
	var in models.TrackingSubmitInput
	if !decode(w, r, &in) {
		return
	}
	t, created, err := a.trackings.Submit(r.Context(), principalFrom(r.Context()), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, t)
}

func (a *API) listTrackings(w http.ResponseWriter, r *http.Request) {
	ts, err := a.trackings.List(r.Context(), principalFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (a *API) getTracking(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	t, err := a.trackings.Get(r.Context(), principalFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) updateTracking(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in models.TrackingSubmitInput
	if !decode(w, r, &in) {
		return
	}
	t, err := a.trackings.UpdateByID(r.Context(), principalFrom(r.Context()), id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) getTrackingByNumber(w http.ResponseWriter, r *http.Request) {
	t, err := a.trackings.GetByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// --- containers ---

func (a *API) listContainers(w http.ResponseWriter, r *http.Request) {
	cs, err := a.containers.List(r.Context(), principalFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (a *API) createContainer(w http.ResponseWriter, r *http.Request) {
	var in models.ContainerInput
	if !decode(w, r, &in) {
		return
	}
	c, err := a.containers.Create(r.Context(), principalFrom(r.Context()), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) getContainer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := a.containers.Get(r.Context(), principalFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) updateContainer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in models.ContainerInput
	if !decode(w, r, &in) {
		return
	}
	c, err := a.containers.Update(r.Context(), principalFrom(r.Context()), id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) deleteContainer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := a.containers.Delete(r.Context(), principalFrom(r.Context()), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) containerMarkStats(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	stats, err := a.containers.MarkStats(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- marks ---

func (a *API) myMark(w http.ResponseWriter, r *http.Request) {
	m, err := a.marks.Ensure(r.Context(), principalFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *API) listMarks(w http.ResponseWriter, r *http.Request) {
	ms, err := a.marks.ListAll(r.Context(), principalFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

// --- invoices ---

type sendInvoiceRequest struct {
	MarkID      string `json:"mark_id"`
	ContainerID int64  `json:"container_id"`
}

func (a *API) previewInvoice(w http.ResponseWriter, r *http.Request) {
	markID := r.URL.Query().Get("mark_id")
	containerID, _ := strconv.ParseInt(r.URL.Query().Get("container_id"), 10, 64)
	pv, err := a.invoices.Preview(r.Context(), principalFrom(r.Context()), markID, containerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pv)
}

func (a *API) sendInvoice(w http.ResponseWriter, r *http.Request) {
	var req sendInvoiceRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := a.invoices.CreateAndSend(r.Context(), principalFrom(r.Context()), req.MarkID, req.ContainerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDispatchResponse(res))
}

func (a *API) createInvoiceManual(w http.ResponseWriter, r *http.Request) {
	var in models.InvoiceManualInput
	if !decode(w, r, &in) {
		return
	}
	inv, err := a.invoices.CreateManual(r.Context(), principalFrom(r.Context()), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (a *API) listInvoices(w http.ResponseWriter, r *http.Request) {
	invs, err := a.invoices.List(r.Context(), principalFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invs)
}

func (a *API) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	inv, err := a.invoices.Get(r.Context(), principalFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (a *API) updateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in models.InvoiceUpdateInput
	if !decode(w, r, &in) {
		return
	}
	inv, err := a.invoices.UpdateStatus(r.Context(), principalFrom(r.Context()), id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// --- exchange rates ---

func (a *API) currentUsdRate(w http.ResponseWriter, r *http.Request) {
	a.currentRate(w, r, models.RateUSDGHS)
}

func (a *API) currentAlipayRate(w http.ResponseWriter, r *http.Request) {
	a.currentRate(w, r, models.RateGHSCNY)
}

func (a *API) currentRate(w http.ResponseWriter, r *http.Request, kind models.RateKind) {
	rate, err := a.rates.Current(r.Context(), kind)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}

func (a *API) recordUsdRate(w http.ResponseWriter, r *http.Request) {
	a.recordRate(w, r, models.RateUSDGHS)
}

func (a *API) recordAlipayRate(w http.ResponseWriter, r *http.Request) {
	a.recordRate(w, r, models.RateGHSCNY)
}

func (a *API) recordRate(w http.ResponseWriter, r *http.Request, kind models.RateKind) {
	var in models.RateInput
	if !decode(w, r, &in) {
		return
	}
	rate, err := a.rates.Record(r.Context(), principalFrom(r.Context()), kind, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rate)
}

func (a *API) usdRateHistory(w http.ResponseWriter, r *http.Request) {
	a.rateHistory(w, r, models.RateUSDGHS)
}

func (a *API) alipayRateHistory(w http.ResponseWriter, r *http.Request) {
	a.rateHistory(w, r, models.RateGHSCNY)
}

func (a *API) rateHistory(w http.ResponseWriter, r *http.Request, kind models.RateKind) {
	rs, err := a.rates.History(r.Context(), principalFrom(r.Context()), kind)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// --- notifications ---

const notificationsLimit = 50

func (a *API) listAllNotifications(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	if !p.IsAdmin() {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	ns, err := a.notifications.List(r.Context(), p, notificationsLimit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

func (a *API) listMyNotifications(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	// Force the owner scope even for admins on this route.
	scoped := p
	scoped.Role = models.RoleUser
	ns, err := a.notifications.List(r.Context(), scoped, notificationsLimit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}
