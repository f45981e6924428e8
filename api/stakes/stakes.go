// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/taisys-technologies/audit-stakingpool/api/auth"
	"github.com/taisys-technologies/audit-stakingpool/api/utils"
	"github.com/taisys-technologies/audit-stakingpool/staking"
)

type Stakes struct {
	pool *staking.Pool
	now  func() uint64
}

func New(pool *staking.Pool, now func() uint64) *Stakes {
	return &Stakes{pool, now}
}

func (s *Stakes) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	owner, err := utils.AddressVar(req, "owner")
	if err != nil {
		return err
	}
	stake, err := s.pool.Stake(owner)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertStake(owner, stake))
}

// handleReplay reconstructs the stake from its journal, settled at the time
// given by the at query parameter, or now.
func (s *Stakes) handleReplay(w http.ResponseWriter, req *http.Request) error {
	owner, err := utils.AddressVar(req, "owner")
	if err != nil {
		return err
	}
	at, err := utils.Uint64Query(req, "at", s.now())
	if err != nil {
		return err
	}
	stake, err := s.pool.Replay(owner, at)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertStake(owner, stake))
}

func (s *Stakes) handleGetEligibility(w http.ResponseWriter, req *http.Request) error {
	owner, err := utils.AddressVar(req, "owner")
	if err != nil {
		return err
	}
	ok, err := s.pool.IsEligible(owner)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Eligibility{Owner: owner, Eligible: ok})
}

func (s *Stakes) handleDeposit(w http.ResponseWriter, req *http.Request) error {
	var body AmountRequest
	now := s.now()
	owner, err := auth.Decode(req, &body, now)
	if err != nil {
		return err
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("body: amount required"))
	}
	if err := s.pool.Deposit(owner, body.Amount, now); err != nil {
		return err
	}
	stake, err := s.pool.Stake(owner)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertStake(owner, stake))
}

func (s *Stakes) handleClaim(w http.ResponseWriter, req *http.Request) error {
	var body AmountRequest
	now := s.now()
	owner, err := auth.Decode(req, &body, now)
	if err != nil {
		return err
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("body: amount required"))
	}
	paid, err := s.pool.Claim(owner, body.Amount, now)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ClaimResult{Paid: paid})
}

func (s *Stakes) handleExit(w http.ResponseWriter, req *http.Request) error {
	var body ExitRequest
	now := s.now()
	owner, err := auth.Decode(req, &body, now)
	if err != nil {
		return err
	}
	principal, paid, err := s.pool.Exit(owner, now)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ExitResult{Principal: principal, Paid: paid})
}

func (s *Stakes) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/deposit").
		Methods(http.MethodPost).
		Name("POST /stakes/deposit").
		HandlerFunc(utils.WrapHandlerFunc(s.handleDeposit))
	sub.Path("/claim").
		Methods(http.MethodPost).
		Name("POST /stakes/claim").
		HandlerFunc(utils.WrapHandlerFunc(s.handleClaim))
	sub.Path("/exit").
		Methods(http.MethodPost).
		Name("POST /stakes/exit").
		HandlerFunc(utils.WrapHandlerFunc(s.handleExit))
	sub.Path("/{owner}").
		Methods(http.MethodGet).
		Name("GET /stakes/{owner}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStake))
	sub.Path("/{owner}/replay").
		Methods(http.MethodGet).
		Name("GET /stakes/{owner}/replay").
		HandlerFunc(utils.WrapHandlerFunc(s.handleReplay))
	sub.Path("/{owner}/eligibility").
		Methods(http.MethodGet).
		Name("GET /stakes/{owner}/eligibility").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetEligibility))
}
