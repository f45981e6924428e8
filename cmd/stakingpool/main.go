// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/taisys-technologies/audit-stakingpool/api"
	"github.com/taisys-technologies/audit-stakingpool/api/admin"
	"github.com/taisys-technologies/audit-stakingpool/api/subscriptions"
	"github.com/taisys-technologies/audit-stakingpool/api/utils"
	"github.com/taisys-technologies/audit-stakingpool/log"
	"github.com/taisys-technologies/audit-stakingpool/logdb"
	"github.com/taisys-technologies/audit-stakingpool/metrics"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "stakingpool",
		Usage:     "Tiered time-weighted staking reward pool",
		Copyright: "2025 The StakingPool developers",
		Flags: []cli.Flag{
			genesisFlag,
			dataDirFlag,
			cacheFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiLogsLimitFlag,
			enableAPILogsFlag,
			apiSlowQueriesThresholdFlag,
			pprofFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
			ntpServerFlag,
			batchFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "reindex",
				Usage: "rebuild the event index from the ledger journal",
				Flags: []cli.Flag{
					genesisFlag,
					dataDirFlag,
					cacheFlag,
					verbosityFlag,
					jsonLogsFlag,
					batchFlag,
				},
				Action: reindexAction,
			},
			{
				Name:  "verify",
				Usage: "check the event index against the ledger journal",
				Flags: []cli.Flag{
					genesisFlag,
					dataDirFlag,
					cacheFlag,
					verbosityFlag,
					jsonLogsFlag,
					batchFlag,
				},
				Action: verifyAction,
			},
			{
				Name:      "inspect",
				Usage:     "dump the stake and history of an owner",
				ArgsUsage: "<owner>",
				Flags: []cli.Flag{
					genesisFlag,
					dataDirFlag,
					cacheFlag,
					verbosityFlag,
					jsonLogsFlag,
				},
				Action: inspectAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { log.Info("exited") }()

	logLevel := initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	go checkClockOffset(ctx.String(ntpServerFlag.Name), time.Second)

	gene := selectGenesis(ctx)
	instanceDir := makeInstanceDir(ctx, gene)

	mainDB := openMainDB(ctx, instanceDir, false)
	defer func() { log.Info("closing main database..."); mainDB.Close() }()

	pool := initPool(gene, mainDB)

	logDB := openLogDB(instanceDir)
	defer func() { log.Info("closing event database..."); logDB.Close() }()

	if err := syncEventIndex(exitSignal, logDB, pool, ctx.Uint64(batchFlag.Name)); err != nil {
		return err
	}
	hub := subscriptions.NewHub(logDB, utils.ParseOrigins(ctx.String(apiCorsFlag.Name)))
	defer hub.Close()
	pool.SetIndexer(hub)

	enableReqLogger := &atomic.Bool{}
	enableReqLogger.Store(ctx.Bool(enableAPILogsFlag.Name))

	handler := api.New(pool, logDB, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		PprofOn:              ctx.Bool(pprofFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		EnableReqLogger:      enableReqLogger,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		LogsLimit:            ctx.Uint64(apiLogsLimitFlag.Name),
		Subscriptions:        hub,
	})

	group, groupCtx := errgroup.WithContext(exitSignal)

	group.Go(func() error {
		<-groupCtx.Done()
		hub.Close()
		return nil
	})

	apiListener := listen(ctx.String(apiAddrFlag.Name), "API")
	apiURL := "http://" + apiListener.Addr().String() + "/"
	group.Go(func() error {
		srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
		return errors.Wrap(serve(groupCtx, srv, apiListener), "API server")
	})

	if ctx.Bool(enableMetricsFlag.Name) {
		metricsListener := listen(ctx.String(metricsAddrFlag.Name), "metrics")
		log.Info("metrics server started", "url", "http://"+metricsListener.Addr().String()+"/metrics")
		group.Go(func() error {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.HTTPHandler())
			srv := &http.Server{Handler: mux, ReadHeaderTimeout: time.Second}
			return errors.Wrap(serve(groupCtx, srv, metricsListener), "metrics server")
		})
	}

	if ctx.Bool(enableAdminFlag.Name) {
		adminURL, stopAdmin, err := api.StartAdminServer(ctx.String(adminAddrFlag.Name), admin.Options{
			LogLevel: logLevel,
			Journal:  pool,
			Index:    logDB,
		})
		if err != nil {
			return err
		}
		defer func() { log.Info("stopping admin server..."); stopAdmin() }()
		log.Info("admin server started", "url", adminURL)
	}

	info, err := pool.Info()
	if err != nil {
		return err
	}
	printStartupMessage(gene, info, instanceDir, apiURL)

	return group.Wait()
}

func reindexAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	initLogger(ctx)

	gene := selectGenesis(ctx)
	instanceDir := makeInstanceDir(ctx, gene)

	mainDB := openMainDB(ctx, instanceDir, false)
	defer mainDB.Close()
	pool := initPool(gene, mainDB)

	logDB := openLogDB(instanceDir)
	defer logDB.Close()

	if err := logDB.Truncate(exitSignal); err != nil {
		return errors.Wrap(err, "truncate event index")
	}
	return syncEventIndex(exitSignal, logDB, pool, ctx.Uint64(batchFlag.Name))
}

func verifyAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	initLogger(ctx)

	gene := selectGenesis(ctx)
	instanceDir := makeInstanceDir(ctx, gene)

	mainDB := openMainDB(ctx, instanceDir, false)
	defer mainDB.Close()
	pool := initPool(gene, mainDB)

	logDB := openLogDB(instanceDir)
	defer logDB.Close()

	if err := verifyEventIndex(exitSignal, logDB, pool, ctx.Uint64(batchFlag.Name), true); err != nil {
		return errors.WithMessage(err, "verify event index")
	}
	fmt.Println("event index verified")
	return nil
}

func inspectAction(ctx *cli.Context) error {
	initLogger(ctx)
	if ctx.NArg() != 1 {
		return errors.New("inspect: exactly one owner address expected")
	}
	owner, err := types.ParseAddress(ctx.Args().First())
	if err != nil {
		return errors.WithMessage(err, "inspect: owner")
	}

	gene := selectGenesis(ctx)
	instanceDir := makeInstanceDir(ctx, gene)

	mainDB := openMainDB(ctx, instanceDir, true)
	defer mainDB.Close()
	pool := openPool(mainDB)

	stake, err := pool.Stake(owner)
	if err != nil {
		return err
	}
	eligible, err := pool.IsEligible(owner)
	if err != nil {
		return err
	}

	logDB := openLogDB(instanceDir)
	defer logDB.Close()
	if err := syncEventIndex(context.Background(), logDB, pool, 0); err != nil {
		return err
	}
	events, err := logDB.FilterEvents(context.Background(), &logdb.EventFilter{Owner: &owner, Order: logdb.ASC})
	if err != nil {
		return err
	}

	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}
	fmt.Printf("Owner    %v\nEligible %v\n", owner, eligible)
	cfg.Fdump(os.Stdout, stake)
	cfg.Fdump(os.Stdout, events)

	stats, err := mainDB.Stats()
	if err != nil {
		return err
	}
	fmt.Println(stats)
	return nil
}
