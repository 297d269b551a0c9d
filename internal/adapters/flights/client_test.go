package flights

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBoardCachesWithinTTL(t *testing.T) {
	req := require.New(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[{"number":"AR1410","airline":"Aerolineas","origin":"AEP","destination":"COR","scheduled":"10:30","status":"boarding"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Hour)
	for i := 0; i < 3; i++ {
		list, err := c.Board(context.Background())
		req.NoError(err)
		req.Len(list, 1)
		req.Equal("AR1410", list[0].Number)
	}
	req.EqualValues(1, hits.Load(), "upstream hit once within TTL")
}

func TestBoardServesStaleOnRefreshFailure(t *testing.T) {
	req := require.New(t)
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "upstream down", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"number":"AR1410"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Nanosecond)
	list, err := c.Board(context.Background())
	req.NoError(err)
	req.Len(list, 1)

	fail.Store(true)
	time.Sleep(time.Millisecond)
	list, err = c.Board(context.Background())
	req.NoError(err, "stale copy beats an error")
	req.Len(list, 1)
}

func TestBoardErrorWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Minute)
	_, err := c.Board(context.Background())
	require.Error(t, err)
}
