// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/taisys-technologies/audit-stakingpool/builtin"
	"github.com/taisys-technologies/audit-stakingpool/genesis"
	"github.com/taisys-technologies/audit-stakingpool/log"
	"github.com/taisys-technologies/audit-stakingpool/logdb"
	"github.com/taisys-technologies/audit-stakingpool/lvldb"
	"github.com/taisys-technologies/audit-stakingpool/staking"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

func fatal(args ...any) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func initLogger(ctx *cli.Context) *slog.LevelVar {
	lvl := &slog.LevelVar{}
	lvl.Set(log.FromVerbosity(ctx.Int(verbosityFlag.Name)))

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.NewJSONHandler(os.Stdout, lvl)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandler(os.Stderr, lvl, useColor)
	}
	log.SetHandler(handler)
	return lvl
}

func selectGenesis(ctx *cli.Context) *genesis.Genesis {
	source := ctx.String(genesisFlag.Name)
	if source == "" || source == "devnet" {
		return genesis.NewDevnet()
	}
	gen, err := genesis.LoadCustomGenesis(source)
	if err != nil {
		fatal(err)
	}
	gene, err := genesis.NewCustomNet(gen)
	if err != nil {
		fatal(fmt.Sprintf("build genesis [%v]: %v", source, err))
	}
	return gene
}

func makeDataDir(ctx *cli.Context) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		fatal(fmt.Sprintf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name))
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		fatal(fmt.Sprintf("create data dir [%v]: %v", dataDir, err))
	}
	return dataDir
}

func makeInstanceDir(ctx *cli.Context, gene *genesis.Genesis) string {
	dataDir := makeDataDir(ctx)

	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", gene.ID().Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0o700); err != nil {
		fatal(fmt.Sprintf("create instance dir [%v]: %v", instanceDir, err))
	}
	return instanceDir
}

func openMainDB(ctx *cli.Context, instanceDir string, readOnly bool) *lvldb.LevelDB {
	cacheMB := normalizeCacheSize(ctx.Int(cacheFlag.Name))
	fdCache := suggestFDCache()
	log.Debug("main db options", "cache", cacheMB, "fd-cache", fdCache)

	dir := filepath.Join(instanceDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize: cacheMB,
		OpenFiles: fdCache,
		ReadOnly:  readOnly,
	})
	if err != nil {
		fatal(fmt.Sprintf("open main database [%v]: %v", dir, err))
	}
	return db
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 16 {
		sizeMB = 16
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		log.Warn("failed to get total mem", "err", err)
	} else {
		// limit to 1/4 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 4)
		if sizeMB > limitMB {
			sizeMB = limitMB
			log.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func suggestFDCache() int {
	limit, err := fdlimit.Current()
	if err != nil {
		log.Warn("unable to get fdlimit", "err", err)
		return 500
	}
	if limit <= 1024 {
		return limit / 2
	}
	return limit - 512
}

func openLogDB(instanceDir string) *logdb.LogDB {
	dir := filepath.Join(instanceDir, "events.db")
	db, err := logdb.New(dir)
	if err != nil {
		fatal(fmt.Sprintf("open event database [%v]: %v", dir, err))
	}
	return db
}

// openPool opens a bootstrapped pool without writing to it.
func openPool(mainDB *lvldb.LevelDB) *staking.Pool {
	pool, err := staking.New(mainDB)
	if err != nil {
		fatal(fmt.Sprintf("open pool: %v", err))
	}
	controller, err := pool.Controller(builtin.Ledger.Address)
	if err != nil {
		fatal(fmt.Sprintf("open pool: %v", err))
	}
	if controller.IsZero() {
		fatal("pool not bootstrapped, start the node once first")
	}
	return pool
}

func initPool(gene *genesis.Genesis, mainDB *lvldb.LevelDB) *staking.Pool {
	pool, err := staking.New(mainDB)
	if err != nil {
		fatal(fmt.Sprintf("open pool: %v", err))
	}
	if _, err := gene.Apply(pool); err != nil {
		fatal(fmt.Sprintf("apply genesis: %v", err))
	}
	return pool
}

// syncEventIndex brings the event index up to the journal, drawing a
// progress bar while it goes.
func syncEventIndex(ctx context.Context, logDB *logdb.LogDB, pool *staking.Pool, batch uint64) error {
	var bar *pb.ProgressBar
	defer func() {
		if bar != nil {
			bar.Finish()
		}
	}()
	err := logdb.Sync(ctx, logDB, pool, batch, func(done, total uint64) {
		if bar == nil {
			fmt.Println(">> Syncing event index <<")
			bar = pb.New64(int64(total)).SetMaxWidth(90).Start()
		}
		bar.Set64(int64(done))
	})
	return errors.Wrap(err, "sync event index")
}

// checkClockOffset warns when the local clock, which decides period
// boundaries, drifts from the ntp server.
func checkClockOffset(server string, tolerance time.Duration) {
	if server == "" {
		return
	}
	resp, err := ntp.Query(server)
	if err != nil {
		log.Debug("failed to access NTP", "err", err)
		return
	}
	offset := resp.ClockOffset
	if offset < 0 {
		offset = -offset
	}
	if offset > tolerance {
		log.Warn("clock offset detected", "offset", common.PrettyDuration(resp.ClockOffset))
	}
}

func listen(addr, name string) net.Listener {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(fmt.Sprintf("listen %s addr [%v]: %v", name, addr, err))
	}
	return listener
}

// serve runs srv on listener until ctx is done.
func serve(ctx context.Context, srv *http.Server, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)
		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func printStartupMessage(gene *genesis.Genesis, info *staking.Info, instanceDir, apiURL string) {
	fmt.Printf(`Starting %v
    Genesis      [ %v %v ]
    Launched     [ %v ]
    Controller   [ %v ]
    Registries   [ %v ]
    Instance dir [ %v ]
    API portal   [ %v ]
`,
		fmt.Sprintf("StakingPool/%v/%v-%v", fullVersion(), runtime.GOOS, runtime.GOARCH),
		gene.ID(), gene.Name(),
		time.Unix(int64(gene.LaunchTime()), 0).UTC(),
		gene.Controller(),
		len(info.Registries),
		instanceDir,
		apiURL)

	if gene.Name() != "devnet" {
		return
	}
	tableHead := `
┌────────────────────────────────────────────┬────────────────────────────────────────────────────────────────────┐
│                   Address                  │                             Private Key                            │`
	tableContent := `
├────────────────────────────────────────────┼────────────────────────────────────────────────────────────────────┤
│ %v │ %v │`
	tableEnd := `
└────────────────────────────────────────────┴────────────────────────────────────────────────────────────────────┘`

	table := tableHead
	for _, a := range genesis.DevAccounts() {
		table += fmt.Sprintf(tableContent,
			a.Address,
			types.BytesToBytes32(crypto.FromECDSA(a.PrivateKey)),
		)
	}
	fmt.Println(table + tableEnd)
}

func defaultDataDir() string {
	// Try to place the data folder in the user's home dir
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "org.stakingpool")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "org.stakingpool")
		default:
			return filepath.Join(home, ".org.stakingpool")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
