// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registries

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/taisys-technologies/audit-stakingpool/api/auth"
	"github.com/taisys-technologies/audit-stakingpool/api/utils"
	"github.com/taisys-technologies/audit-stakingpool/staking"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

type Registry struct {
	Address    types.Address   `json:"address"`
	Controller types.Address   `json:"controller"`
	Checkers   []types.Address `json:"checkers"`
}

type Certificates struct {
	Owner types.Address  `json:"owner"`
	IDs   []*uint256.Int `json:"ids"`
}

type Certificate struct {
	ID    *uint256.Int  `json:"id"`
	Owner types.Address `json:"owner"`
}

type ReleaseRequest struct {
	auth.Expiry
	ID *uint256.Int `json:"id"`
}

type Registries struct {
	pool *staking.Pool
	now  func() uint64
}

func New(pool *staking.Pool, now func() uint64) *Registries {
	return &Registries{pool, now}
}

func (r *Registries) handleGetRegistry(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	info, err := r.pool.Registry(addr)
	if err != nil {
		return err
	}
	checkers := info.Checkers
	if checkers == nil {
		checkers = []types.Address{}
	}
	return utils.WriteJSON(w, &Registry{
		Address:    info.Address,
		Controller: info.Controller,
		Checkers:   checkers,
	})
}

func (r *Registries) handleGetCertificates(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	owner, err := utils.AddressVar(req, "owner")
	if err != nil {
		return err
	}
	ids, err := r.pool.Certificates(addr, owner)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Certificates{Owner: owner, IDs: ids})
}

func (r *Registries) handleGetCertificate(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	id, err := utils.AmountVar(req, "id")
	if err != nil {
		return err
	}
	owner, err := r.pool.OwnerOf(addr, id)
	if err != nil {
		return err
	}
	if owner.IsZero() {
		return utils.HTTPError(errors.New("certificate not found"), http.StatusNotFound)
	}
	return utils.WriteJSON(w, &Certificate{ID: id, Owner: owner})
}

func (r *Registries) handleRelease(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var body ReleaseRequest
	caller, err := auth.Decode(req, &body, r.now())
	if err != nil {
		return err
	}
	if body.ID == nil {
		return utils.BadRequest(errors.New("body: id required"))
	}
	if err := r.pool.Release(addr, caller, body.ID); err != nil {
		return err
	}
	return utils.WriteJSON(w, &Certificate{ID: body.ID})
}

func (r *Registries) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /registries/{address}").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetRegistry))
	sub.Path("/{address}/owners/{owner}").
		Methods(http.MethodGet).
		Name("GET /registries/{address}/owners/{owner}").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetCertificates))
	sub.Path("/{address}/certificates/{id}").
		Methods(http.MethodGet).
		Name("GET /registries/{address}/certificates/{id}").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetCertificate))
	sub.Path("/{address}/release").
		Methods(http.MethodPost).
		Name("POST /registries/{address}/release").
		HandlerFunc(utils.WrapHandlerFunc(r.handleRelease))
}
