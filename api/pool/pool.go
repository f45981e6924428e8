// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taisys-technologies/audit-stakingpool/api/utils"
	"github.com/taisys-technologies/audit-stakingpool/staking"
)

type Pool struct {
	pool *staking.Pool
}

func New(pool *staking.Pool) *Pool {
	return &Pool{pool}
}

func (p *Pool) handleGetInfo(w http.ResponseWriter, _ *http.Request) error {
	info, err := p.pool.Info()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertInfo(info))
}

func (p *Pool) handleGetPeriods(w http.ResponseWriter, _ *http.Request) error {
	periods, err := p.pool.Periods()
	if err != nil {
		return err
	}
	out := make([]Period, 0, len(periods))
	for _, period := range periods {
		out = append(out, convertPeriod(period))
	}
	return utils.WriteJSON(w, out)
}

func (p *Pool) handleGetLevels(w http.ResponseWriter, _ *http.Request) error {
	all, err := p.pool.Levels()
	if err != nil {
		return err
	}
	out := make([]Level, 0, len(all))
	for _, l := range all {
		out = append(out, convertLevel(l))
	}
	return utils.WriteJSON(w, out)
}

func (p *Pool) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /pool").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetInfo))
	sub.Path("/periods").
		Methods(http.MethodGet).
		Name("GET /pool/periods").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPeriods))
	sub.Path("/levels").
		Methods(http.MethodGet).
		Name("GET /pool/levels").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetLevels))
}
