// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package admin serves the operator endpoints: the runtime log level and the
// event index health.
package admin

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/taisys-technologies/audit-stakingpool/api/admin/health"
	"github.com/taisys-technologies/audit-stakingpool/api/admin/loglevel"
)

// Options carries what the admin endpoints read or change.
type Options struct {
	LogLevel *slog.LevelVar
	Journal  health.Journal
	Index    health.Index
}

func New(opts Options) http.Handler {
	router := mux.NewRouter()
	sub := router.PathPrefix("/admin").Subrouter()

	loglevel.New(opts.LogLevel).Mount(sub, "/loglevel")
	if opts.Journal != nil && opts.Index != nil {
		health.New(opts.Journal, opts.Index).Mount(sub, "/health")
	}

	return handlers.CompressHandler(router)
}
