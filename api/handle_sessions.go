package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/safecoin/interest-api/binder"
	"github.com/safecoin/interest-api/view"
)

var (
	errSessionNotFound = errors.New("session not found")
	errNothingToCheck  = errors.New("unspents cannot be checked: no positive balance or already loading")
)

type addressRequest struct {
	Address string `json:"address"`
}

type searchRequest struct {
	Term string `json:"term"`
}

type pageSizeRequest struct {
	PageSize int `json:"page_size"`
}

type sessionResponse struct {
	ID   string        `json:"id"`
	View view.Interest `json:"view"`
}

// decode reads a JSON body; an empty body leaves v untouched.
func decode(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode request body: %w", err)
	}
	return nil
}

// parseQuery reads the table widget state from the query string.
func parseQuery(r *http.Request) view.Query {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	desc, _ := strconv.ParseBool(r.URL.Query().Get("desc"))

	return view.Query{
		Page:   page,
		SortID: r.URL.Query().Get("sort"),
		Desc:   desc,
	}
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, *binder.Binder, bool) {
	id := chi.URLParam(r, "id")
	b, ok := s.sessions.Get(id)
	if !ok {
		ERROR(w, http.StatusNotFound, errSessionNotFound)
		return id, nil, false
	}
	return id, b, true
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, id string, state binder.State) {
	out, err := s.renderer.Render(state, parseQuery(r))
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}
	JSON(w, status, sessionResponse{ID: id, View: out})
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := decode(r, &req); err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	id, b, err := s.sessions.Create()
	if err != nil {
		ERROR(w, http.StatusServiceUnavailable, err)
		return
	}
	state := b.State()
	if req.Address != "" {
		state = b.SetAddress(req.Address)
	}

	s.log.Info("session created", "id", id, "address", req.Address)

	s.respond(w, r, http.StatusCreated, id, state)
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	id, b, ok := s.session(w, r)
	if !ok {
		return
	}
	s.respond(w, r, http.StatusOK, id, b.State())
}

func (s *Server) handleSessionAddress(w http.ResponseWriter, r *http.Request) {
	id, b, ok := s.session(w, r)
	if !ok {
		return
	}

	var req addressRequest
	if err := decode(r, &req); err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	s.respond(w, r, http.StatusOK, id, b.SetAddress(req.Address))
}

// Check UTXO action
func (s *Server) handleSessionUnspents(w http.ResponseWriter, r *http.Request) {
	id, b, ok := s.session(w, r)
	if !ok {
		return
	}

	state, ok := b.CheckUtxos()
	if !ok {
		ERROR(w, http.StatusConflict, errNothingToCheck)
		return
	}

	s.respond(w, r, http.StatusAccepted, id, state)
}

func (s *Server) handleSessionSearch(w http.ResponseWriter, r *http.Request) {
	id, b, ok := s.session(w, r)
	if !ok {
		return
	}

	var req searchRequest
	if err := decode(r, &req); err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	s.respond(w, r, http.StatusOK, id, b.Search(req.Term))
}

func (s *Server) handleSessionPageSize(w http.ResponseWriter, r *http.Request) {
	id, b, ok := s.session(w, r)
	if !ok {
		return
	}

	var req pageSizeRequest
	if err := decode(r, &req); err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}
	if req.PageSize < 1 {
		ERROR(w, http.StatusBadRequest, fmt.Errorf("invalid page size %d", req.PageSize))
		return
	}

	s.respond(w, r, http.StatusOK, id, b.SetPageSize(req.PageSize))
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, ok := s.sessions.Delete(id)
	if !ok {
		ERROR(w, http.StatusNotFound, errSessionNotFound)
		return
	}

	b.Reset()
	s.log.Info("session closed", "id", id)

	w.WriteHeader(http.StatusNoContent)
}
