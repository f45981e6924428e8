// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/taisys-technologies/audit-stakingpool/types"
)

// AddressVar parses the path variable name as an address.
func AddressVar(req *http.Request, name string) (types.Address, error) {
	addr, err := types.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return types.Address{}, BadRequest(errors.WithMessage(err, name))
	}
	return addr, nil
}

// AmountVar parses the path variable name as an amount.
func AmountVar(req *http.Request, name string) (*uint256.Int, error) {
	v, err := types.ParseAmount(mux.Vars(req)[name])
	if err != nil {
		return nil, BadRequest(errors.WithMessage(err, name))
	}
	return v, nil
}

// Uint64Query parses the query parameter name, returning def when it is absent.
func Uint64Query(req *http.Request, name string, def uint64) (uint64, error) {
	s := req.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, BadRequest(errors.WithMessage(err, name))
	}
	return v, nil
}
