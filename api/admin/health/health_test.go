// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type journal struct {
	n   uint64
	err error
}

func (j journal) EventCount() (uint64, error) { return j.n, j.err }

type index uint64

func (i index) NextSeq(context.Context) (uint64, error) { return uint64(i), nil }

func serve(api *API, query string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	api.Mount(router, "/health")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health"+query, nil))
	return rec
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		journal uint64
		indexed uint64
		query   string
		code    int
		lag     uint64
	}{
		{"caught up", 12, 12, "", http.StatusOK, 0},
		{"behind", 12, 9, "", http.StatusServiceUnavailable, 3},
		{"behind within max lag", 12, 9, "?maxLag=3", http.StatusOK, 3},
		{"index ahead", 4, 6, "", http.StatusOK, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(New(journal{n: tt.journal}, index(tt.indexed)), tt.query)
			assert.Equal(t, tt.code, rec.Code)

			var st Status
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
			assert.Equal(t, tt.code == http.StatusOK, st.Healthy)
			assert.Equal(t, tt.journal, st.Journal)
			assert.Equal(t, tt.indexed, st.Indexed)
			assert.Equal(t, tt.lag, st.Lag)
		})
	}
}

func TestHealthErrors(t *testing.T) {
	rec := serve(New(journal{}, index(0)), "?maxLag=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(New(journal{err: errors.New("closed")}, index(0)), "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "journal: closed")
}
