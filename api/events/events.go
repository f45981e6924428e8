// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/taisys-technologies/audit-stakingpool/api/utils"
	"github.com/taisys-technologies/audit-stakingpool/builtin/ledger"
	"github.com/taisys-technologies/audit-stakingpool/logdb"
	"github.com/taisys-technologies/audit-stakingpool/staking"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

type Event struct {
	Seq       uint64        `json:"seq"`
	Action    string        `json:"action"`
	Owner     types.Address `json:"owner"`
	Amount    *uint256.Int  `json:"amount"`
	Principal *uint256.Int  `json:"principal"`
	Time      uint64        `json:"time"`
}

func ConvertEvent(ev *staking.Event) *Event {
	return &Event{
		Seq:       ev.Seq,
		Action:    ev.Action.String(),
		Owner:     ev.Owner,
		Amount:    ev.Amount,
		Principal: ev.Principal,
		Time:      ev.Time,
	}
}

type Events struct {
	db    *logdb.LogDB
	limit uint64
}

func New(db *logdb.LogDB, limit uint64) *Events {
	return &Events{db, limit}
}

func (e *Events) parseFilter(req *http.Request) (*logdb.EventFilter, error) {
	query := req.URL.Query()
	filter := &logdb.EventFilter{Order: logdb.ASC}

	if s := query.Get("owner"); s != "" {
		owner, err := types.ParseAddress(s)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "owner"))
		}
		filter.Owner = &owner
	}
	if s := query.Get("action"); s != "" {
		action, ok := ledger.ParseAction(s)
		if !ok {
			return nil, utils.BadRequest(fmt.Errorf("action: unknown action %q", s))
		}
		filter.Action = &action
	}
	if query.Has("from") || query.Has("to") {
		from, err := utils.Uint64Query(req, "from", 0)
		if err != nil {
			return nil, err
		}
		to, err := utils.Uint64Query(req, "to", 0)
		if err != nil {
			return nil, err
		}
		filter.Range = &logdb.Range{From: from, To: to}
	}
	switch order := logdb.Order(query.Get("order")); order {
	case "", logdb.ASC:
	case logdb.DESC:
		filter.Order = logdb.DESC
	default:
		return nil, utils.BadRequest(fmt.Errorf("order: unknown order %q", order))
	}

	offset, err := utils.Uint64Query(req, "offset", 0)
	if err != nil {
		return nil, err
	}
	limit, err := utils.Uint64Query(req, "limit", e.limit)
	if err != nil {
		return nil, err
	}
	if limit > e.limit {
		return nil, utils.Forbidden(fmt.Errorf("limit: exceeds maximum %d", e.limit))
	}
	filter.Options = &logdb.Options{Offset: offset, Limit: limit}
	return filter, nil
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	filter, err := e.parseFilter(req)
	if err != nil {
		return err
	}
	found, err := e.db.FilterEvents(req.Context(), filter)
	if err != nil {
		return err
	}
	out := make([]*Event, 0, len(found))
	for _, ev := range found {
		out = append(out, ConvertEvent(ev))
	}
	return utils.WriteJSON(w, out)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
