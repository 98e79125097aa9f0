package chi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/marcelsud/webhook-viewer/stream"
	"github.com/marcelsud/webhook-viewer/webhook"
	"github.com/marcelsud/webhook-viewer/webhook/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// switchableStore is an in-memory durable store that can be taken down
type switchableStore struct {
	mu      sync.Mutex
	records []webhook.Record // newest first
	down    bool
}

var errStoreDown = errors.New("store down")

func (s *switchableStore) setDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

func (s *switchableStore) Store(_ context.Context, rec webhook.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return errStoreDown
	}
	s.records = append([]webhook.Record{rec}, s.records...)
	return nil
}

func (s *switchableStore) Get(_ context.Context, id string) (*webhook.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	for _, rec := range s.records {
		if rec.ID == id {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

func (s *switchableStore) List(_ context.Context, limit int) ([]webhook.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	if limit > len(s.records) {
		limit = len(s.records)
	}
	return append([]webhook.Record(nil), s.records[:limit]...), nil
}

func (s *switchableStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return errStoreDown
	}
	drop := webhook.IDSet(ids)
	kept := s.records[:0]
	for _, rec := range s.records {
		if _, ok := drop[rec.ID]; !ok {
			kept = append(kept, rec)
		}
	}
	s.records = kept
	return nil
}

func (s *switchableStore) HealthCheck(context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.down
}

func (s *switchableStore) Close(context.Context) error { return nil }

// sseClient reads frames from an open stream in the background
type sseClient struct {
	events chan stream.Event
	resp   *http.Response
}

func connectStream(t *testing.T, baseURL string) *sseClient {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/webhook-stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	c := &sseClient{events: make(chan stream.Event, 16), resp: resp}
	go func() {
		defer close(c.events)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var evt stream.Event
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt); err != nil {
				continue
			}
			c.events <- evt
		}
	}()
	return c
}

func (c *sseClient) next(t *testing.T) stream.Event {
	t.Helper()
	select {
	case evt, ok := <-c.events:
		require.True(t, ok, "stream closed")
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream event")
		return stream.Event{}
	}
}

func capture(t *testing.T, baseURL, path, body string) captureResponse {
	t.Helper()
	resp, err := http.Post(baseURL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out captureResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func list(t *testing.T, baseURL string, limit string) listResponse {
	t.Helper()
	resp, err := http.Get(baseURL + "/api/webhooks?limit=" + limit)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out listResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func ids(records []webhook.Record) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.ID
	}
	return out
}

func TestStreamWebhooks(t *testing.T) {
	hub := stream.NewHub()
	defer hub.Close()
	service := webhook.NewService(memory.NewBuffer(10), nil)

	srv := httptest.NewServer(Handlers(context.Background(), service, hub, testOptions()))
	defer srv.Close()

	client := connectStream(t, srv.URL)

	ack := client.next(t)
	assert.Equal(t, stream.TypeConnected, ack.Type)
	assert.Equal(t, "SSE connected", ack.Message)
	assert.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	resp := capture(t, srv.URL, "/api/webhook/live", `{"n":1}`)

	evt := client.next(t)
	require.Equal(t, stream.TypeWebhook, evt.Type)
	data, err := json.Marshal(evt.Data)
	require.NoError(t, err)
	var rec webhook.Record
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, resp.ID, rec.ID)
	assert.Equal(t, "/api/webhook/live", rec.URL)
	assert.JSONEq(t, `{"n":1}`, string(rec.Body))

	// Client leaves; the hub forgets it
	client.resp.Body.Close()
	assert.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestFailoverScenario(t *testing.T) {
	durable := &switchableStore{}
	tick := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var clockMu sync.Mutex
	opts := testOptions()
	opts.Now = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		tick = tick.Add(time.Second)
		return tick
	}

	hub := stream.NewHub()
	defer hub.Close()
	service := webhook.NewService(memory.NewBuffer(100), durable, webhook.WithHealthCheckTTL(time.Hour))

	srv := httptest.NewServer(Handlers(context.Background(), service, hub, opts))
	defer srv.Close()

	observer := connectStream(t, srv.URL)
	require.Equal(t, stream.TypeConnected, observer.next(t).Type)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	// A, B, C land in Redis
	names := map[string]string{}
	for _, name := range []string{"A", "B", "C"} {
		resp := capture(t, srv.URL, "/api/webhook", `{"name":"`+name+`"}`)
		assert.Equal(t, "redis", resp.Storage)
		names[name] = resp.ID
		require.Equal(t, stream.TypeWebhook, observer.next(t).Type)
	}

	page := list(t, srv.URL, "2")
	assert.Equal(t, "redis", page.Storage)
	assert.False(t, page.UsingFallback)
	assert.Equal(t, []string{names["C"], names["B"]}, ids(page.Data))

	// Redis goes away; D is only buffered
	durable.setDown(true)

	resp := capture(t, srv.URL, "/api/webhook", `{"name":"D"}`)
	assert.Equal(t, "memory", resp.Storage)
	names["D"] = resp.ID
	require.Equal(t, stream.TypeWebhook, observer.next(t).Type)

	page = list(t, srv.URL, "2")
	assert.Equal(t, "memory", page.Storage)
	assert.True(t, page.UsingFallback)
	assert.Equal(t, []string{names["D"], names["C"]}, ids(page.Data))

	// Delete C
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/webhooks", strings.NewReader(`{"ids":["`+names["C"]+`"]}`))
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	require.Equal(t, http.StatusOK, delResp.StatusCode)

	evt := observer.next(t)
	assert.Equal(t, stream.TypeWebhookDeleted, evt.Type)
	data, err := json.Marshal(evt.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ids":["`+names["C"]+`"]}`, string(data))

	page = list(t, srv.URL, "10")
	assert.Equal(t, []string{names["D"], names["B"], names["A"]}, ids(page.Data))
}
