// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/taisys-technologies/audit-stakingpool/api/utils"
)

// Journal is the committed event journal of the pool.
type Journal interface {
	EventCount() (uint64, error)
}

// Index is the queryable event index fed from the journal.
type Index interface {
	NextSeq(ctx context.Context) (uint64, error)
}

// Status compares the event index with the journal.
type Status struct {
	Healthy bool   `json:"healthy"`
	Journal uint64 `json:"journal"`
	Indexed uint64 `json:"indexed"`
	Lag     uint64 `json:"lag"`
}

type API struct {
	journal Journal
	index   Index
}

func New(journal Journal, index Index) *API {
	return &API{journal: journal, index: index}
}

func (h *API) status(ctx context.Context, maxLag uint64) (*Status, error) {
	n, err := h.journal.EventCount()
	if err != nil {
		return nil, errors.WithMessage(err, "journal")
	}
	indexed, err := h.index.NextSeq(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "event index")
	}
	s := &Status{Journal: n, Indexed: indexed}
	if n > indexed {
		s.Lag = n - indexed
	}
	s.Healthy = s.Lag <= maxLag
	return s, nil
}

func (h *API) handleGetHealth(w http.ResponseWriter, r *http.Request) error {
	var maxLag uint64
	if v := r.URL.Query().Get("maxLag"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "maxLag"))
		}
		maxLag = parsed
	}

	s, err := h.status(r.Context(), maxLag)
	if err != nil {
		return err
	}
	if !s.Healthy {
		w.Header().Set("Content-Type", utils.JSONContentType)
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	return utils.WriteJSON(w, s)
}

func (h *API) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /admin/health").
		HandlerFunc(utils.WrapHandlerFunc(h.handleGetHealth))
}
