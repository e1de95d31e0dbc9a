package rtclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultDedupTTL   = 30 * time.Second
	defaultSweepEvery = 60 * time.Second
)

// ErrSessionExpired — сервер ответил 401: токен больше не действует,
// локальное состояние сессии подлежит сбросу.
var ErrSessionExpired = fmt.Errorf("сессия недействительна")

// Response — снимок ответа. Каждый вызывающий получает собственную
// копию тела, чтобы общий результат нельзя было испортить.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) clone() *Response {
	body := make([]byte, len(r.Body))
	copy(body, r.Body)
	return &Response{StatusCode: r.StatusCode, Body: body}
}

// DedupClientOptions — настройки дедупликации запросов.
type DedupClientOptions struct {
	// HTTPClient — транспорт. По умолчанию http.DefaultClient.
	HTTPClient *http.Client
	// TTL ограничивает, как долго зависший запрос в полёте собирает
	// новых вызывающих. По умолчанию 30s.
	TTL time.Duration
	// SweepEvery — период чистки просроченных записей. По умолчанию 60s.
	SweepEvery time.Duration
	// OnUnauthorized вызывается на каждый ответ 401 до возврата
	// ErrSessionExpired. Обычно здесь чистят сохранённую сессию.
	OnUnauthorized func()
}

// DedupClient схлопывает одинаковые запросы в полёте: совпадающие по
// методу, адресу, телу и заголовкам вызовы делят один сетевой запрос.
// Запись живёт только пока запрос выполняется и удаляется по его
// завершении, так что следующий вызов всегда идёт к серверу заново.
// TTL страхует от зависшего полёта: просроченная запись забывается,
// и очередной вызывающий начинает новый запрос.
type DedupClient struct {
	http           *http.Client
	ttl            time.Duration
	sweepEvery     time.Duration
	onUnauthorized func()
	logger         *zap.Logger

	group singleflight.Group

	mu       sync.Mutex
	inflight map[string]time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

func NewDedupClient(opts DedupClientOptions, logger *zap.Logger) *DedupClient {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultDedupTTL
	}
	if opts.SweepEvery <= 0 {
		opts.SweepEvery = defaultSweepEvery
	}

	c := &DedupClient{
		http:           opts.HTTPClient,
		ttl:            opts.TTL,
		sweepEvery:     opts.SweepEvery,
		onUnauthorized: opts.OnUnauthorized,
		logger:         logger,
		inflight:       make(map[string]time.Time),
		stop:           make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// Close останавливает фоновую чистку.
func (c *DedupClient) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Do выполняет запрос с дедупликацией. Тело копируется на входе, так
// что вызывающий может переиспользовать свой буфер.
func (c *DedupClient) Do(ctx context.Context, method, url string, header http.Header, body []byte) (*Response, error) {
	bodyCopy := make([]byte, len(body))
	copy(bodyCopy, body)

	key := dedupKey(method, url, header, bodyCopy)

	c.mu.Lock()
	if deadline, ok := c.inflight[key]; ok && time.Now().After(deadline) {
		c.group.Forget(key)
		delete(c.inflight, key)
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		c.mu.Lock()
		c.inflight[key] = time.Now().Add(c.ttl)
		c.mu.Unlock()

		resp, err := c.execute(ctx, method, url, header, bodyCopy)

		// Запись снимается по завершении: завершённый результат не
		// переиспользуется, иначе refetch увидит устаревшие данные.
		c.mu.Lock()
		delete(c.inflight, key)
		c.mu.Unlock()
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*Response).clone(), nil
}

func (c *DedupClient) execute(ctx context.Context, method, url string, header http.Header, body []byte) (*Response, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, ErrSessionExpired
	}
	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

func (c *DedupClient) sweepLoop() {
	ticker := time.NewTicker(c.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *DedupClient) sweep() {
	now := time.Now()
	c.mu.Lock()
	for key, deadline := range c.inflight {
		if now.After(deadline) {
			c.group.Forget(key)
			delete(c.inflight, key)
		}
	}
	c.mu.Unlock()
}

// dedupKey — метод, адрес, отсортированные заголовки и тело. Два
// POST с разными телами считаются разными запросами.
func dedupKey(method, url string, header http.Header, body []byte) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteByte('\n')
	b.WriteString(url)
	b.WriteByte('\n')

	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(strings.Join(header[k], ","))
		b.WriteByte(';')
	}
	b.WriteByte('\n')
	b.Write(body)
	return b.String()
}
