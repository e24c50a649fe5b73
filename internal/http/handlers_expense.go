package http

import (
	"net/http"

	"tally/internal/core"
	applog "tally/internal/log"
)

type listResponse struct {
	Expenses []core.Expense `json:"expenses"`
	Count    int            `json:"count"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.svc.List(r.Context(), userID(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(listResponse{Expenses: list, Count: len(list)}).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in core.NewExpense
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.Description = sanitizeInput(in.Description)

	e, err := s.svc.Create(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		applog.NewFields().WithOperation(applog.OpCreate).WithExpense(e.ID, e.Amount, string(e.Category)).ToSlice()...)

	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+e.ID).
		JSON(e).
		Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.Get(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(e).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var patch core.ExpensePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.Description != nil {
		d := sanitizeInput(*patch.Description)
		patch.Description = &d
	}

	e, err := s.svc.Update(r.Context(), userID(r), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(e).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldExpenseID, id)
	w.WriteHeader(http.StatusNoContent)
}
