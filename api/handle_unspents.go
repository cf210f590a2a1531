package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/safecoin/interest-api/database/models"
	"github.com/safecoin/interest-api/shaper"
	"github.com/safecoin/interest-api/view"
)

var (
	errNoCache         = errors.New("snapshot cache is not configured")
	errBalanceNotFound = errors.New("no cached balance for address")
)

type addressUnspentsResponse struct {
	view.Table
	// FetchedAt is when the snapshot was taken, nil if never
	FetchedAt *time.Time `json:"fetched_at"`
}

func (s *Server) handleAddressUnspentsGet(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		ERROR(w, http.StatusServiceUnavailable, errNoCache)
		return
	}

	pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if err != nil || pageSize < 1 {
		pageSize = shaper.DefaultPageSize
	}

	minConfirmations, _ := strconv.Atoi(r.URL.Query().Get("minConfirmations"))

	filter := models.Filter{
		Address:          chi.URLParam(r, "address"),
		MinConfirmations: minConfirmations,
	}

	items, err := s.db.GetUnspents(r.Context(), filter)
	if err != nil {
		ERROR(w, http.StatusInternalServerError, err)
		return
	}

	last, err := s.db.GetLastFetch(r.Context(), filter.Address)
	if err != nil {
		ERROR(w, http.StatusInternalServerError, err)
		return
	}

	search := r.URL.Query().Get("search")
	table, err := s.renderer.Table(view.TableSource{
		Items:          items,
		Filtered:       shaper.Filter(items, search),
		SearchTerm:     search,
		PageSize:       pageSize,
		ShowPagination: shaper.ShowPagination(len(items), shaper.DefaultPageSize),
	}, parseQuery(r))
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	resp := addressUnspentsResponse{Table: *table}
	if last != nil {
		resp.FetchedAt = &last.FetchedAt
	}

	JSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddressBalanceGet(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		ERROR(w, http.StatusServiceUnavailable, errNoCache)
		return
	}

	balance, ok, err := s.db.GetBalance(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		ERROR(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		ERROR(w, http.StatusNotFound, errBalanceNotFound)
		return
	}

	JSON(w, http.StatusOK, balance)
}
