package handlers

import (
	"net/http"

	"mediaplan/internal/domain"
)

// Start accepts a plan generation job and answers before it runs. A request
// that already has a stored result is answered with it immediately.
func (a *App) Start(w http.ResponseWriter, r *http.Request) {
	var req domain.PlanRequest
	if !a.decode(w, r, &req) {
		return
	}
	sub, err := a.Broker.Submit(r.Context(), &req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, sub)
}

// StartSync runs the generation inline and answers with the finished text.
func (a *App) StartSync(w http.ResponseWriter, r *http.Request) {
	var req domain.PlanRequest
	if !a.decode(w, r, &req) {
		return
	}
	sub, err := a.Broker.SubmitSync(r.Context(), &req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, sub)
}

type resultRequest struct {
	RequestID int64 `json:"request_id"`
}

// Result reports the current state of a previously submitted job.
func (a *App) Result(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if !a.decode(w, r, &req) {
		return
	}
	sub, err := a.Broker.Result(r.Context(), req.RequestID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, sub)
}
