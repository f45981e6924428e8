// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/taisys-technologies/audit-stakingpool/api/assets"
	"github.com/taisys-technologies/audit-stakingpool/api/auth"
	"github.com/taisys-technologies/audit-stakingpool/api/control"
	"github.com/taisys-technologies/audit-stakingpool/api/events"
	"github.com/taisys-technologies/audit-stakingpool/api/pool"
	"github.com/taisys-technologies/audit-stakingpool/api/registries"
	"github.com/taisys-technologies/audit-stakingpool/api/stakes"
	"github.com/taisys-technologies/audit-stakingpool/api/subscriptions"
	"github.com/taisys-technologies/audit-stakingpool/api/utils"
	"github.com/taisys-technologies/audit-stakingpool/log"
	"github.com/taisys-technologies/audit-stakingpool/logdb"
	"github.com/taisys-technologies/audit-stakingpool/staking"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	PprofOn              bool
	EnableMetrics        bool
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	LogsLimit            uint64
	// Subscriptions, when set, serves the websocket event stream.
	Subscriptions *subscriptions.Hub
	// Now returns the current unix time. Defaults to the wall clock.
	Now func() uint64
}

// New return api router
func New(p *staking.Pool, logDB *logdb.LogDB, opts Options) http.HandlerFunc {
	origins := utils.ParseOrigins(opts.AllowedOrigins)
	now := opts.Now
	if now == nil {
		now = func() uint64 { return uint64(time.Now().Unix()) }
	}
	if opts.LogsLimit == 0 {
		opts.LogsLimit = 1000
	}
	if opts.EnableReqLogger == nil {
		opts.EnableReqLogger = &atomic.Bool{}
	}

	router := mux.NewRouter()

	pool.New(p).
		Mount(router, "/pool")
	stakes.New(p, now).
		Mount(router, "/stakes")
	registries.New(p, now).
		Mount(router, "/registries")
	assets.New(p, now).
		Mount(router, "/assets")
	control.New(p, now).
		Mount(router, "/admin")
	if logDB != nil {
		events.New(logDB, opts.LogsLimit).
			Mount(router, "/events")
	}
	if opts.Subscriptions != nil {
		opts.Subscriptions.Mount(router, "/subscriptions")
	}

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", strings.ToLower(auth.SignatureHeader), strings.ToLower(RequestIDHeader)}),
		handlers.ExposedHeaders([]string{strings.ToLower(RequestIDHeader)}),
	)(handler)

	handler = RequestLoggerMiddleware(logger, opts.EnableReqLogger, opts.SlowQueriesThreshold)(handler)

	return handler.ServeHTTP
}
