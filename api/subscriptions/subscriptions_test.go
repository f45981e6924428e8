// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taisys-technologies/audit-stakingpool/api/events"
	"github.com/taisys-technologies/audit-stakingpool/builtin/ledger"
	"github.com/taisys-technologies/audit-stakingpool/staking"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

type recorder struct {
	got []*staking.Event
}

func (r *recorder) Index(evs []*staking.Event) error {
	r.got = append(r.got, evs...)
	return nil
}

var (
	alice = types.BytesToAddress([]byte("alice"))
	bob   = types.BytesToAddress([]byte("bob"))
)

func newEvent(seq uint64, owner types.Address) *staking.Event {
	return &staking.Event{
		Seq:       seq,
		Action:    ledger.ActionDeposit,
		Owner:     owner,
		Amount:    uint256.NewInt(seq * 10),
		Principal: new(uint256.Int),
		Time:      1000 + seq,
	}
}

func initServer(t *testing.T, hub *Hub) *httptest.Server {
	router := mux.NewRouter()
	hub.Mount(router, "/subscriptions")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	u := url.URL{Scheme: "ws", Host: strings.TrimPrefix(ts.URL, "http://"), Path: "/subscriptions/events", RawQuery: query}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSubscribeEvents(t *testing.T) {
	rec := &recorder{}
	hub := NewHub(rec, nil)
	ts := initServer(t, hub)

	all := dial(t, ts, "")
	own := dial(t, ts, "owner="+bob.String())
	require.Eventually(t, func() bool { return hub.Subscribers() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Index([]*staking.Event{newEvent(0, alice), newEvent(1, bob)}))
	assert.Len(t, rec.got, 2)

	var ev events.Event
	require.NoError(t, all.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, all.ReadJSON(&ev))
	assert.Equal(t, uint64(0), ev.Seq)
	assert.Equal(t, alice, ev.Owner)
	require.NoError(t, all.ReadJSON(&ev))
	assert.Equal(t, uint64(1), ev.Seq)

	require.NoError(t, own.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, own.ReadJSON(&ev))
	assert.Equal(t, uint64(1), ev.Seq)
	assert.Equal(t, bob, ev.Owner)
	assert.Equal(t, "deposit", ev.Action)
	assert.Equal(t, uint64(10), ev.Amount.Uint64())

	all.Close()
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	_, _, err := own.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}

func TestSlowSubscriberDropped(t *testing.T) {
	hub := NewHub(nil, nil)
	sub := hub.subscribe(nil)

	evs := make([]*staking.Event, subscriberBuffer+1)
	for i := range evs {
		evs[i] = newEvent(uint64(i), alice)
	}
	require.NoError(t, hub.Index(evs))
	assert.Equal(t, 0, hub.Subscribers())

	n := 0
	for range sub.ch {
		n++
	}
	assert.Equal(t, subscriberBuffer, n)

	// unsubscribing a dropped subscriber is harmless
	hub.unsubscribe(sub)
}

func TestBadOwner(t *testing.T) {
	ts := initServer(t, NewHub(nil, nil))
	resp, err := http.Get(ts.URL + "/subscriptions/events?owner=0x12")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckOrigin(t *testing.T) {
	hub := NewHub(nil, []string{"https://pool.example"})
	req := httptest.NewRequest(http.MethodGet, "/subscriptions/events", nil)
	assert.True(t, hub.upgrader.CheckOrigin(req))
	req.Header.Set("Origin", "https://POOL.example")
	assert.True(t, hub.upgrader.CheckOrigin(req))
	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, hub.upgrader.CheckOrigin(req))
}
