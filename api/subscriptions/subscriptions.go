// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package subscriptions streams committed ledger events to websocket clients.
package subscriptions

import (
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/taisys-technologies/audit-stakingpool/api/events"
	"github.com/taisys-technologies/audit-stakingpool/api/utils"
	"github.com/taisys-technologies/audit-stakingpool/log"
	"github.com/taisys-technologies/audit-stakingpool/metrics"
	"github.com/taisys-technologies/audit-stakingpool/staking"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = pongWait * 7 / 10
	subscriberBuffer = 256
)

var (
	logger             = log.WithContext("pkg", "subscriptions")
	metricActiveCount  = metrics.LazyLoadGauge("api_active_websocket_count")
	metricDroppedCount = metrics.LazyLoadCounter("api_dropped_websocket_count")
)

var _ staking.Indexer = (*Hub)(nil)

type subscriber struct {
	owner *types.Address
	ch    chan *events.Event
}

// Hub passes committed events on to the next indexer and then fans them
// out to subscribers. A subscriber that falls behind is dropped.
type Hub struct {
	next     staking.Indexer
	upgrader *websocket.Upgrader

	lock sync.Mutex
	subs map[*subscriber]struct{}
	done chan struct{}
}

// NewHub creates a hub in front of next, which may be nil.
func NewHub(next staking.Indexer, allowedOrigins []string) *Hub {
	return &Hub{
		next: next,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, strings.ToLower(origin))
			},
		},
		subs: make(map[*subscriber]struct{}),
		done: make(chan struct{}),
	}
}

func (h *Hub) Index(evs []*staking.Event) error {
	if h.next != nil {
		if err := h.next.Index(evs); err != nil {
			return err
		}
	}

	h.lock.Lock()
	defer h.lock.Unlock()
	for sub := range h.subs {
		for _, ev := range evs {
			if sub.owner != nil && *sub.owner != ev.Owner {
				continue
			}
			select {
			case sub.ch <- events.ConvertEvent(ev):
			default:
				metricDroppedCount().Add(1)
				h.remove(sub)
			}
			if _, ok := h.subs[sub]; !ok {
				break
			}
		}
	}
	return nil
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.lock.Lock()
	defer h.lock.Unlock()
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

func (h *Hub) subscribe(owner *types.Address) *subscriber {
	sub := &subscriber{owner: owner, ch: make(chan *events.Event, subscriberBuffer)}
	h.lock.Lock()
	defer h.lock.Unlock()
	h.subs[sub] = struct{}{}
	metricActiveCount().Add(1)
	return sub
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.remove(sub)
}

// remove must be called with the lock held.
func (h *Hub) remove(sub *subscriber) {
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.ch)
	metricActiveCount().Add(-1)
}

func (h *Hub) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	var owner *types.Address
	if s := req.URL.Query().Get("owner"); s != "" {
		addr, err := types.ParseAddress(s)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "owner"))
		}
		owner = &addr
	}

	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has responded already
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	defer conn.Close()

	sub := h.subscribe(owner)
	defer h.unsubscribe(sub)

	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	closeMsg := func(code int, text string) {
		conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
	}
	for {
		select {
		case ev, ok := <-sub.ch:
			if !ok {
				closeMsg(websocket.ClosePolicyViolation, "subscriber too slow")
				return nil
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				logger.Debug("write failed", "err", err)
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		case <-h.done:
			closeMsg(websocket.CloseGoingAway, "server shutting down")
			return nil
		case <-closed:
			return nil
		}
	}
}

func (h *Hub) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("WS /subscriptions/events").
		HandlerFunc(utils.WrapHandlerFunc(h.handleSubscribeEvents))
}
