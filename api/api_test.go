// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gorilla/websocket"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taisys-technologies/audit-stakingpool/api/admin"
	"github.com/taisys-technologies/audit-stakingpool/api/admin/health"
	"github.com/taisys-technologies/audit-stakingpool/api/admin/loglevel"
	"github.com/taisys-technologies/audit-stakingpool/api/auth"
	"github.com/taisys-technologies/audit-stakingpool/api/control"
	"github.com/taisys-technologies/audit-stakingpool/api/events"
	"github.com/taisys-technologies/audit-stakingpool/api/pool"
	"github.com/taisys-technologies/audit-stakingpool/api/registries"
	"github.com/taisys-technologies/audit-stakingpool/api/stakes"
	"github.com/taisys-technologies/audit-stakingpool/api/subscriptions"
	"github.com/taisys-technologies/audit-stakingpool/genesis"
	"github.com/taisys-technologies/audit-stakingpool/log"
	"github.com/taisys-technologies/audit-stakingpool/logdb"
	"github.com/taisys-technologies/audit-stakingpool/lvldb"
	"github.com/taisys-technologies/audit-stakingpool/staking"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

type testServer struct {
	t     *testing.T
	url   string
	clock *atomic.Uint64
	hub   *subscriptions.Hub
	pool  *staking.Pool
	logDB *logdb.LogDB
}

func newTestServer(t *testing.T) *testServer {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	p, err := staking.New(db)
	require.NoError(t, err)

	g := genesis.NewDevnet()
	_, err = g.Apply(p)
	require.NoError(t, err)

	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { logDB.Close() })
	hub := subscriptions.NewHub(logDB, []string{"*"})
	t.Cleanup(hub.Close)
	p.SetIndexer(hub)

	clock := &atomic.Uint64{}
	clock.Store(g.LaunchTime())

	ts := httptest.NewServer(New(p, logDB, Options{
		AllowedOrigins: "*",
		EnableMetrics:  true,
		LogsLimit:      10,
		Subscriptions:  hub,
		Now:            clock.Load,
	}))
	t.Cleanup(ts.Close)
	return &testServer{t: t, url: ts.URL, clock: clock, hub: hub, pool: p, logDB: logDB}
}

func (s *testServer) expiry() auth.Expiry {
	return auth.Expiry{Expiry: s.clock.Load() + 60}
}

func (s *testServer) do(req *http.Request) (int, []byte) {
	res, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(s.t, err)
	return res.StatusCode, data
}

func (s *testServer) post(path string, body any, key *ecdsa.PrivateKey) (int, []byte) {
	req, err := auth.NewRequest(http.MethodPost, s.url+path, body, key)
	require.NoError(s.t, err)
	return s.do(req)
}

func (s *testServer) get(path string, out any) int {
	req, err := http.NewRequest(http.MethodGet, s.url+path, nil)
	require.NoError(s.t, err)
	code, data := s.do(req)
	if code == http.StatusOK && out != nil {
		require.NoError(s.t, json.Unmarshal(data, out), string(data))
	}
	return code
}

func amount(v uint64) *uint256.Int { return uint256.NewInt(v) }

func uintStr(v uint64) string { return strconv.FormatUint(v, 10) }

func genesisKey() (*ecdsa.PrivateKey, error) { return crypto.GenerateKey() }

func TestStakeLifecycle(t *testing.T) {
	s := newTestServer(t)
	dev := genesis.DevAccounts()[1]
	owner := dev.Address.String()
	start := s.clock.Load()

	var info pool.Info
	require.Equal(t, http.StatusOK, s.get("/pool", &info))
	assert.Equal(t, uint64(3), info.Threshold)
	require.NotNil(t, info.CurrentPeriod)
	assert.Equal(t, uint64(60), info.CurrentPeriod.Length)

	var lvls []pool.Level
	require.Equal(t, http.StatusOK, s.get("/pool/levels", &lvls))
	assert.Len(t, lvls, 3)
	var periods []pool.Period
	require.Equal(t, http.StatusOK, s.get("/pool/periods", &periods))
	assert.Len(t, periods, 1)

	var eligibility stakes.Eligibility
	require.Equal(t, http.StatusOK, s.get("/stakes/"+owner+"/eligibility", &eligibility))
	assert.True(t, eligibility.Eligible)

	s.clock.Store(start + 10)
	code, data := s.post("/stakes/deposit", &stakes.AmountRequest{Expiry: s.expiry(), Amount: amount(500)}, dev.PrivateKey)
	require.Equal(t, http.StatusOK, code, string(data))
	var stake stakes.Stake
	require.NoError(t, json.Unmarshal(data, &stake))
	assert.True(t, stake.Active)
	assert.Equal(t, uint64(500), stake.Principal.Uint64())
	assert.Equal(t, start+10, stake.DepositedAt)

	s.clock.Store(start + 70)
	code, data = s.post("/stakes/claim", &stakes.AmountRequest{Expiry: s.expiry(), Amount: amount(10)}, dev.PrivateKey)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(data), "TooEarly")

	s.clock.Store(start + 190)
	code, data = s.post("/stakes/claim", &stakes.AmountRequest{Expiry: s.expiry(), Amount: amount(100)}, dev.PrivateKey)
	require.Equal(t, http.StatusOK, code, string(data))
	var claimed stakes.ClaimResult
	require.NoError(t, json.Unmarshal(data, &claimed))
	assert.Equal(t, uint64(30), claimed.Paid.Uint64())

	release := &registries.ReleaseRequest{Expiry: s.expiry(), ID: amount(2)}
	code, data = s.post("/registries/"+genesis.DevRegistry.String()+"/release", release, dev.PrivateKey)
	assert.Equal(t, http.StatusConflict, code, string(data))

	code, data = s.post("/stakes/exit", &stakes.ExitRequest{Expiry: s.expiry()}, dev.PrivateKey)
	require.Equal(t, http.StatusOK, code, string(data))
	var exited stakes.ExitResult
	require.NoError(t, json.Unmarshal(data, &exited))
	assert.Equal(t, uint64(500), exited.Principal.Uint64())
	assert.True(t, exited.Paid.IsZero())

	code, data = s.post("/registries/"+genesis.DevRegistry.String()+"/release", release, dev.PrivateKey)
	require.Equal(t, http.StatusOK, code, string(data))
	require.Equal(t, http.StatusOK, s.get("/stakes/"+owner+"/eligibility", &eligibility))
	assert.False(t, eligibility.Eligible)
	assert.Equal(t, http.StatusNotFound, s.get("/registries/"+genesis.DevRegistry.String()+"/certificates/2", nil))

	require.Equal(t, http.StatusOK, s.get("/stakes/"+owner, &stake))
	assert.False(t, stake.Active)

	var replayed stakes.Stake
	require.Equal(t, http.StatusOK, s.get("/stakes/"+owner+"/replay?at="+uintStr(start+130), &replayed))
	assert.Equal(t, uint64(500), replayed.Principal.Uint64())
	assert.Equal(t, uint64(20), replayed.Accrued.Uint64())

	var evs []events.Event
	require.Equal(t, http.StatusOK, s.get("/events?owner="+owner, &evs))
	require.Len(t, evs, 3)
	assert.Equal(t, []string{"deposit", "claim", "exit"}, []string{evs[0].Action, evs[1].Action, evs[2].Action})
	assert.Equal(t, uint64(500), evs[2].Principal.Uint64())

	require.Equal(t, http.StatusOK, s.get("/events?action=claim&order=desc", &evs))
	require.Len(t, evs, 1)
	assert.Equal(t, uint64(30), evs[0].Amount.Uint64())

	assert.Equal(t, http.StatusForbidden, s.get("/events?limit=11", nil))
	assert.Equal(t, http.StatusBadRequest, s.get("/events?action=withdraw", nil))
	assert.Equal(t, http.StatusBadRequest, s.get("/events?order=up", nil))
}

func TestDepositReverts(t *testing.T) {
	s := newTestServer(t)
	dev := genesis.DevAccounts()[2]

	// unsigned
	req, err := http.NewRequest(http.MethodPost, s.url+"/stakes/deposit", strings.NewReader(`{"amount":"1"}`))
	require.NoError(t, err)
	code, _ := s.do(req)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.post("/stakes/deposit", &stakes.AmountRequest{Expiry: s.expiry()}, dev.PrivateKey)
	assert.Equal(t, http.StatusBadRequest, code)

	code, data := s.post("/stakes/deposit", &stakes.AmountRequest{Expiry: s.expiry(), Amount: amount(10000)}, dev.PrivateKey)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(data), "NotInAnyLevel")

	// a fresh key holds no certificate
	stranger, err := genesisKey()
	require.NoError(t, err)
	code, data = s.post("/stakes/deposit", &stakes.AmountRequest{Expiry: s.expiry(), Amount: amount(1)}, stranger)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, string(data), "NotEligible")

	assert.Equal(t, http.StatusBadRequest, s.get("/stakes/0x1234", nil))
}

func TestControl(t *testing.T) {
	s := newTestServer(t)
	controller := genesis.DevAccounts()[0]
	other := genesis.DevAccounts()[1]

	body := &control.ThresholdRequest{Expiry: s.expiry(), Periods: 5}
	code, _ := s.post("/admin/threshold", body, other.PrivateKey)
	assert.Equal(t, http.StatusForbidden, code)

	code, data := s.post("/admin/threshold", body, controller.PrivateKey)
	require.Equal(t, http.StatusOK, code, string(data))
	var receipt control.Receipt
	require.NoError(t, json.Unmarshal(data, &receipt))
	assert.Equal(t, "set-threshold", receipt.Op)
	assert.Equal(t, controller.Address, receipt.Caller)

	var info pool.Info
	require.Equal(t, http.StatusOK, s.get("/pool", &info))
	assert.Equal(t, uint64(5), info.Threshold)

	code, _ = s.post("/admin/periods", &control.PeriodRequest{Expiry: s.expiry(), Length: 30}, controller.PrivateKey)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.post("/admin/levels", &control.LevelRequest{Expiry: s.expiry(), Rate: amount(1000), Lower: amount(10000), Upper: amount(100000)}, controller.PrivateKey)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.post("/admin/levels", &control.LevelRequest{Expiry: s.expiry(), Rate: amount(1)}, controller.PrivateKey)
	assert.Equal(t, http.StatusBadRequest, code)

	var periods []pool.Period
	require.Equal(t, http.StatusOK, s.get("/pool/periods", &periods))
	assert.Len(t, periods, 2)

	// deploy a registry controlled by the signer and certify a new owner
	reg := types.BytesToAddress([]byte("NewRegistry"))
	code, data = s.post("/admin/registries/deploy", &control.AddressRequest{Expiry: s.expiry(), Address: reg}, other.PrivateKey)
	require.Equal(t, http.StatusOK, code, string(data))
	var info2 registries.Registry
	require.Equal(t, http.StatusOK, s.get("/registries/"+reg.String(), &info2))
	assert.Equal(t, other.Address, info2.Controller)
	assert.Empty(t, info2.Checkers)

	code, _ = s.post("/admin/registries/"+reg.String()+"/grants", &control.GrantRequest{Expiry: s.expiry(), Owner: controller.Address, ID: amount(7)}, other.PrivateKey)
	assert.Equal(t, http.StatusOK, code)
	var certs registries.Certificates
	require.Equal(t, http.StatusOK, s.get("/registries/"+reg.String()+"/owners/"+controller.Address.String(), &certs))
	require.Len(t, certs.IDs, 1)
	assert.Equal(t, uint64(7), certs.IDs[0].Uint64())

	// only the gateway controller may register it
	code, _ = s.post("/admin/registries", &control.AddressRequest{Expiry: s.expiry(), Address: reg}, other.PrivateKey)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.post("/admin/registries", &control.AddressRequest{Expiry: s.expiry(), Address: reg}, controller.PrivateKey)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.post("/admin/registries", &control.AddressRequest{Expiry: s.expiry(), Address: reg}, controller.PrivateKey)
	assert.Equal(t, http.StatusConflict, code)
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t)

	res, err := http.Get(s.url + "/pool")
	require.NoError(t, err)
	res.Body.Close()
	assert.NotEmpty(t, res.Header.Get(RequestIDHeader))

	req, err := http.NewRequest(http.MethodGet, s.url+"/pool", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "fixed")
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "fixed", res.Header.Get(RequestIDHeader))
}

func TestRequestLoggerKeepsBody(t *testing.T) {
	enabled := &atomic.Bool{}
	enabled.Store(true)

	var got []byte
	handler := RequestLoggerMiddleware(log.Root(), enabled, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = io.ReadAll(r.Body)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("payload"))))
	assert.Equal(t, "payload", string(got))
}

func TestAdminServer(t *testing.T) {
	s := newTestServer(t)
	var level slog.LevelVar
	url, stop, err := StartAdminServer("127.0.0.1:0", admin.Options{
		LogLevel: &level,
		Journal:  s.pool,
		Index:    s.logDB,
	})
	require.NoError(t, err)
	defer stop()

	res, err := http.Post(url+"/loglevel", "application/json", strings.NewReader(`{"level":"debug"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var resp loglevel.Response
	require.NoError(t, json.NewDecoder(res.Body).Decode(&resp))
	assert.Equal(t, "DEBUG", resp.CurrentLevel)
	assert.Equal(t, log.LevelDebug, level.Level())

	res2, err := http.Post(url+"/loglevel", "application/json", strings.NewReader(`{"level":"loud"}`))
	require.NoError(t, err)
	res2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res2.StatusCode)

	getHealth := func() (int, health.Status) {
		res, err := http.Get(url + "/health")
		require.NoError(t, err)
		defer res.Body.Close()
		var st health.Status
		require.NoError(t, json.NewDecoder(res.Body).Decode(&st))
		return res.StatusCode, st
	}

	// genesis events were journaled before the index was attached
	journal, err := s.pool.EventCount()
	require.NoError(t, err)
	code, st := getHealth()
	assert.Equal(t, journal, st.Journal)
	assert.Equal(t, journal, st.Lag)
	if journal > 0 {
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.False(t, st.Healthy)
	}

	require.NoError(t, logdb.Sync(context.Background(), s.logDB, s.pool, 0, nil))
	code, st = getHealth()
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, st.Healthy)
	assert.Equal(t, journal, st.Indexed)
	assert.Zero(t, st.Lag)
}

func TestEventStream(t *testing.T) {
	s := newTestServer(t)
	dev := genesis.DevAccounts()[3]

	wsURL := "ws" + strings.TrimPrefix(s.url, "http") + "/subscriptions/events?owner=" + dev.Address.String()
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool { return s.hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	code, data := s.post("/stakes/deposit", &stakes.AmountRequest{Expiry: s.expiry(), Amount: amount(42)}, dev.PrivateKey)
	require.Equal(t, http.StatusOK, code, string(data))

	var ev events.Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "deposit", ev.Action)
	assert.Equal(t, dev.Address, ev.Owner)
	assert.Equal(t, uint64(42), ev.Amount.Uint64())
}
