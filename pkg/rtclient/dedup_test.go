package rtclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDedupClient_BurstCollapsesToOneCall(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		time.Sleep(30 * time.Millisecond)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewDedupClient(DedupClientOptions{}, zap.NewNop())
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := c.Do(context.Background(), http.MethodGet, srv.URL+"/clubs/1", nil, nil)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
}

// Дедупликация действует только на запросы в полёте: последовательные
// вызовы одного и того же адреса каждый раз доходят до сервера.
func TestDedupClient_SequentialCallsReachServer(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewDedupClient(DedupClientOptions{}, zap.NewNop())
	defer c.Close()

	for i := 0; i < 3; i++ {
		_, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil, nil)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(3), atomic.LoadInt64(&hits))
}

// Зависший полёт не поглощает новых вызывающих дольше TTL: после
// истечения срока очередной вызов начинает собственный запрос.
func TestDedupClient_StalledFlightExpires(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		time.Sleep(150 * time.Millisecond)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewDedupClient(DedupClientOptions{TTL: 20 * time.Millisecond}, zap.NewNop())
	defer c.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil, nil)
		require.NoError(t, err)
	}()

	time.Sleep(60 * time.Millisecond)

	_, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.NoError(t, err)
	wg.Wait()

	assert.Equal(t, int64(2), atomic.LoadInt64(&hits))
}

// Два одновременных POST с разными телами — разные запросы, даже на
// один адрес: общий полёт им не достаётся.
func TestDedupClient_BodyIsPartOfKey(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		time.Sleep(30 * time.Millisecond)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewDedupClient(DedupClientOptions{}, zap.NewNop())
	defer c.Close()

	var wg sync.WaitGroup
	for _, body := range []string{`{"title":"один"}`, `{"title":"два"}`} {
		body := body
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Do(context.Background(), http.MethodPost, srv.URL, nil, []byte(body))
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(2), atomic.LoadInt64(&hits))
}

func TestDedupClient_HeadersArePartOfKey(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		time.Sleep(30 * time.Millisecond)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewDedupClient(DedupClientOptions{}, zap.NewNop())
	defer c.Close()

	var wg sync.WaitGroup
	for _, token := range []string{"Bearer one", "Bearer two"} {
		token := token
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := http.Header{}
			h.Set("Authorization", token)
			_, err := c.Do(context.Background(), http.MethodGet, srv.URL, h, nil)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(2), atomic.LoadInt64(&hits))
}

// Изменение тела ответа у одного вызывающего не трогает копии других
// участников того же полёта.
func TestDedupClient_ResponseBodyIsolated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(30 * time.Millisecond)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewDedupClient(DedupClientOptions{}, zap.NewNop())
	defer c.Close()

	results := make(chan *Response, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil, nil)
			require.NoError(t, err)
			results <- resp
		}()
	}
	wg.Wait()
	close(results)

	first := <-results
	second := <-results
	first.Body[0] = 'X'
	assert.Equal(t, []byte(`{"ok":true}`), second.Body)
}

// 401 — особый случай: хук сброса сессии и сентинельная ошибка.
func TestDedupClient_UnauthorizedClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var cleared int64
	c := NewDedupClient(DedupClientOptions{
		OnUnauthorized: func() { atomic.AddInt64(&cleared, 1) },
	}, zap.NewNop())
	defer c.Close()

	_, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int64(1), atomic.LoadInt64(&cleared))
}
