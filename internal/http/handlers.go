package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"monthlyexpenses/internal/core"
	"monthlyexpenses/internal/folder"
	"monthlyexpenses/internal/ledger"
	applog "monthlyexpenses/internal/log"
	"monthlyexpenses/internal/services"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports the folder and cache state. A missing folder is not a
// readiness failure since the user picks it through the API.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]any{"folder": "not_selected"}
	if loc := s.svc.Folder(); loc != "" {
		checks["folder"] = loc
	}
	stats := s.svc.Cache().Stats()
	checks["cache"] = map[string]any{
		"size":   stats.Size,
		"hits":   stats.Hits,
		"misses": stats.Misses,
	}
	NewResponse().JSON(map[string]any{"status": "ready", "checks": checks}).Write(w)
}

func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(catalogViews()).Write(w)
}

func (s *Server) handleGetFolder(w http.ResponseWriter, r *http.Request) {
	loc := s.svc.Folder()
	NewResponse().JSON(folderView{Location: loc, Selected: loc != ""}).Write(w)
}

func (s *Server) handleSelectFolder(w http.ResponseWriter, r *http.Request) {
	p, err := ParseRequestBody(w, r)
	if err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	err = s.svc.SelectFolder(r.Context(), p.Get("location"))
	loc := s.svc.Folder()
	switch {
	case errors.Is(err, folder.ErrCancelled):
		NewResponse().
			TriggerNotification(NotificationInfo, "Folder selection cancelled", 3000).
			JSON(folderView{Location: loc, Selected: loc != ""}).
			Write(w)
	case err != nil:
		UnprocessableEntityError("Could not open folder: " + err.Error()).Write(w)
	default:
		NewResponse().
			TriggerFolderSelected(loc).
			TriggerSuccessNotification("Folder selected").
			JSON(folderView{Location: loc, Selected: true}).
			Write(w)
	}
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	s.draftMu.Lock()
	view := s.draftView()
	s.draftMu.Unlock()
	NewResponse().JSON(view).Write(w)
}

// draftView must be called with draftMu held.
func (s *Server) draftView() draftView {
	entries := s.draft.Entries()
	return draftView{Entries: newEntryViews(entries), Count: len(entries)}
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	p, err := ParseRequestBody(w, r)
	if err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	in := parseEntryInput(p)

	s.draftMu.Lock()
	_, err = s.draft.Add(in.Type, in.Subtype, in.Amount)
	view := s.draftView()
	s.draftMu.Unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	NewResponse().
		Status(http.StatusCreated).
		TriggerDraftChanged(view.Count).
		JSON(view).
		Write(w)
}

func (s *Server) handleEditEntry(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := ParseRequestBody(w, r)
	if err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	in := parseEntryInput(p)

	s.draftMu.Lock()
	_, err = s.draft.Edit(index, in.Type, in.Subtype, in.Amount)
	view := s.draftView()
	s.draftMu.Unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().TriggerDraftChanged(view.Count).JSON(view).Write(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.draftMu.Lock()
	err = s.draft.Delete(index)
	view := s.draftView()
	s.draftMu.Unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().TriggerDraftChanged(view.Count).JSON(view).Write(w)
}

func (s *Server) handleSubmitDraft(w http.ResponseWriter, r *http.Request) {
	p, err := ParseRequestBody(w, r)
	if err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	month, err := parseMonthValue("month", p.Get("month"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.draftMu.Lock()
	defer s.draftMu.Unlock()

	// Preconditions are checked in the order the user would fix them.
	if s.svc.Folder() == "" {
		s.writeError(w, r, services.ErrFolderNotSelected)
		return
	}
	saved, err := s.draft.Submit(r.Context(), s.svc, month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	NewResponse().
		TriggerLedgerSaved(month.String(), len(saved.Entries)).
		TriggerDraftChanged(0).
		TriggerSuccessNotification(fmt.Sprintf("Saved %s", month.FileName())).
		JSON(ledgerView{Month: month.String(), Found: true, Entries: newEntryViews(saved.Entries)}).
		Write(w)
}

func (s *Server) handleListMonths(w http.ResponseWriter, r *http.Request) {
	months, err := s.svc.Months(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]string, len(months))
	for i, m := range months {
		out[i] = m.String()
	}
	NewResponse().JSON(map[string][]string{"months": out}).Write(w)
}

func (s *Server) handleGetMonth(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonthValue("month", r.PathValue("month"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l, found, err := s.svc.LoadMonth(r.Context(), month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	view := ledgerView{Month: month.String(), Found: found, Entries: newEntryViews(l.Entries)}
	if !found {
		view.Notice = "No data for " + month.String()
	}
	NewResponse().JSON(view).Write(w)
}

func (s *Server) handleDeviations(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonthValue("month", r.PathValue("month"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	devs, err := s.svc.MonthDeviations(r.Context(), month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().JSON(map[string]any{
		"month":      month.String(),
		"threshold":  ledger.NegligibleDiff,
		"deviations": newDeviationViews(devs),
	}).Write(w)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t := core.ExpenseType(sanitizeInput(q.Get("type")))
	if !t.Known() {
		s.writeError(w, r, fmt.Errorf("%w: %q", core.ErrUnknownType, string(t)))
		return
	}
	start, err := parseMonthValue("start", q.Get("start"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	end, err := parseMonthValue("end", q.Get("end"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	total, err := s.svc.TotalForType(r.Context(), start, end, t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().JSON(totalView{
		Type:    t,
		Label:   core.DisplayName(t),
		Start:   start.String(),
		End:     end.String(),
		Total:   amountPtr(total),
		Display: core.FormatAmount(total),
	}).Write(w)
}

// writeError maps service and validation errors onto responses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrFolderNotSelected):
		BlockingNotice("Select a folder first").Write(w)
	case errors.Is(err, services.ErrNoEntries):
		BlockingNotice("Add at least one entry before saving").Write(w)
	case errors.Is(err, services.ErrIndexOutOfRange):
		NotFoundError("No draft entry at that position").Write(w)
	case errors.Is(err, errInvalidIndex):
		BadRequestError(err.Error()).Write(w)
	case errors.Is(err, services.ErrInvalidRange),
		errors.Is(err, services.ErrListUnsupported),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrUnknownType),
		errors.Is(err, core.ErrMissingSubtype),
		errors.Is(err, core.ErrInvalidSubtype):
		UnprocessableEntityError(err.Error()).Write(w)
	default:
		ctx := r.Context()
		fields := applog.NewFields().WithRequestID(applog.RequestID(ctx))
		fields[applog.FieldPath] = r.URL.Path
		applog.NewStructuredLogger(s.logger).LogError(ctx, "Request failed", err,
			applog.ComponentHTTP, r.Pattern, fields)
		InternalServerError("Something went wrong").Write(w)
	}
}
