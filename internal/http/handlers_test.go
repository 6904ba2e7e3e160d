package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Cypherspark/sms-relay/internal/core"
	"github.com/Cypherspark/sms-relay/internal/http"
	"github.com/Cypherspark/sms-relay/internal/provider"
)

var fullCreds = core.StaticCredentials{AccountSID: "AC123", AuthToken: "secret", From: "+15550000000"}

type fakeProv struct {
	mu       sync.Mutex
	calls    []string
	froms    []string
	bodies   []string
	failAt   int // 1-based; 0 never fails
	failErr  error
	inflight int32
	overlap  atomic.Bool
}

func (f *fakeProv) Send(ctx context.Context, from, to, body string) (provider.Receipt, error) {
	if atomic.AddInt32(&f.inflight, 1) > 1 {
		f.overlap.Store(true)
	}
	defer atomic.AddInt32(&f.inflight, -1)
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	f.calls = append(f.calls, to)
	f.froms = append(f.froms, from)
	f.bodies = append(f.bodies, body)
	n := len(f.calls)
	f.mu.Unlock()

	if f.failAt > 0 && n == f.failAt {
		return provider.Receipt{}, f.failErr
	}
	return provider.Receipt{SID: "SM" + strings.TrimPrefix(to, "+"), Status: "queued"}, nil
}

func (f *fakeProv) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func startAPI(t *testing.T, creds core.CredentialSource, prov provider.Provider) http.Handler {
	t.Helper()
	relay := core.NewRelay(creds, func(provider.Credentials) (provider.Provider, error) { return prov, nil }, zerolog.Nop())
	return httpapi.NewServer(relay, zerolog.Nop()).Router()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

const validBody = `{"contacts":["+15551110001","+15551110002","+15551110003"],"message":"hello"}`

func TestSendSMS_MethodNotAllowed(t *testing.T) {
	fp := &fakeProv{}
	h := startAPI(t, fullCreds, fp)

	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions} {
		w := do(h, m, httpapi.SendPath, validBody)
		require.Equal(t, http.StatusMethodNotAllowed, w.Code, m)
		require.Equal(t, "Method not allowed", decode(t, w)["error"])
		require.Equal(t, http.MethodPost, w.Header().Get("Allow"))
	}
	require.Zero(t, fp.callCount())
}

func TestSendSMS_InvalidContacts(t *testing.T) {
	fp := &fakeProv{}
	h := startAPI(t, fullCreds, fp)

	for _, body := range []string{
		``,
		`not json`,
		`{"message":"hi"}`,
		`{"contacts":"+1555","message":"hi"}`,
		`{"contacts":[],"message":"hi"}`,
		`{"contacts":[]}`,
		`{"Contacts":["+15551110001"],"message":"hi"}`,
		`{"CONTACTS":["+15551110001"],"MESSAGE":"hi"}`,
	} {
		w := do(h, http.MethodPost, httpapi.SendPath, body)
		require.Equal(t, http.StatusBadRequest, w.Code, body)
		require.Equal(t, map[string]any{"error": "contacts (array) required"}, decode(t, w))
	}
	require.Zero(t, fp.callCount())
}

func TestSendSMS_InvalidMessage(t *testing.T) {
	fp := &fakeProv{}
	h := startAPI(t, fullCreds, fp)

	for _, body := range []string{
		`{"contacts":["+1555"]}`,
		`{"contacts":["+1555"],"message":""}`,
		`{"contacts":["+1555"],"message":7}`,
		`{"contacts":["+1555"],"message":null}`,
		`{"contacts":["+1555"],"Message":"hi"}`,
	} {
		w := do(h, http.MethodPost, httpapi.SendPath, body)
		require.Equal(t, http.StatusBadRequest, w.Code, body)
		require.Equal(t, map[string]any{"error": "message required"}, decode(t, w))
	}
	require.Zero(t, fp.callCount())
}

func TestSendSMS_NotConfigured(t *testing.T) {
	fp := &fakeProv{}
	h := startAPI(t, core.StaticCredentials{AccountSID: "AC123", AuthToken: "secret"}, fp)

	w := do(h, http.MethodPost, httpapi.SendPath, validBody)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, map[string]any{"error": "SMS provider not configured"}, decode(t, w))
	require.Zero(t, fp.callCount())

	// Body validation wins over configuration.
	w = do(h, http.MethodPost, httpapi.SendPath, `{"contacts":[]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendSMS_Success(t *testing.T) {
	fp := &fakeProv{}
	h := startAPI(t, fullCreds, fp)

	w := do(h, http.MethodPost, httpapi.SendPath, validBody)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp struct {
		OK      bool           `json:"ok"`
		Results []core.Outcome `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.OK)
	require.Equal(t, []core.Outcome{
		{To: "+15551110001", SID: "SM15551110001", Status: "queued"},
		{To: "+15551110002", SID: "SM15551110002", Status: "queued"},
		{To: "+15551110003", SID: "SM15551110003", Status: "queued"},
	}, resp.Results)

	require.Equal(t, []string{"+15551110001", "+15551110002", "+15551110003"}, fp.calls)
	require.Equal(t, []string{"hello", "hello", "hello"}, fp.bodies)
	require.Equal(t, []string{"+15550000000", "+15550000000", "+15550000000"}, fp.froms)
	require.False(t, fp.overlap.Load(), "provider calls overlapped")
}

func TestSendSMS_RootPathServesRelay(t *testing.T) {
	fp := &fakeProv{}
	h := startAPI(t, fullCreds, fp)

	w := do(h, http.MethodPost, "/", `{"contacts":["+1"],"message":"x"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, fp.callCount())
}

func TestSendSMS_ProviderFailureAtN(t *testing.T) {
	for n := 1; n <= 3; n++ {
		fp := &fakeProv{failAt: n, failErr: &provider.Error{Provider: "twilio", Code: 21211, Status: 400, Message: "Invalid 'To' Phone Number"}}
		h := startAPI(t, fullCreds, fp)

		w := do(h, http.MethodPost, httpapi.SendPath, validBody)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.Equal(t, map[string]any{
			"error":   "Failed to send SMS",
			"details": "Invalid 'To' Phone Number",
		}, decode(t, w))
		require.Equal(t, n, fp.callCount(), "recipients after the failure must not be attempted")
	}
}

func TestSendSMS_NonProviderErrorDetails(t *testing.T) {
	fp := &fakeProv{failAt: 1, failErr: errors.New("dial tcp: i/o timeout")}
	h := startAPI(t, fullCreds, fp)

	w := do(h, http.MethodPost, httpapi.SendPath, validBody)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "dial tcp: i/o timeout", decode(t, w)["details"])
}

func TestSendSMS_ProviderClientFailure(t *testing.T) {
	relay := core.NewRelay(fullCreds, func(provider.Credentials) (provider.Provider, error) {
		return nil, errors.New("bad account")
	}, zerolog.Nop())
	h := httpapi.NewServer(relay, zerolog.Nop()).Router()

	w := do(h, http.MethodPost, httpapi.SendPath, validBody)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, map[string]any{
		"error":   "Failed to send SMS",
		"details": "provider client: bad account",
	}, decode(t, w))
}

func TestSendSMS_BodyTooLarge(t *testing.T) {
	fp := &fakeProv{}
	relay := core.NewRelay(fullCreds, func(provider.Credentials) (provider.Provider, error) { return fp, nil }, zerolog.Nop())
	srv := httpapi.NewServer(relay, zerolog.Nop())
	srv.MaxBodyBytes = 64
	h := srv.Router()

	w := do(h, http.MethodPost, httpapi.SendPath, `{"contacts":["+1"],"message":"`+strings.Repeat("a", 200)+`"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.Zero(t, fp.callCount())
}

func TestHealthAndReadiness(t *testing.T) {
	h := startAPI(t, fullCreds, &fakeProv{})
	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", "").Code)
	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/readyz", "").Code)

	h = startAPI(t, core.StaticCredentials{}, &fakeProv{})
	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", "").Code)
	require.Equal(t, http.StatusServiceUnavailable, do(h, http.MethodGet, "/readyz", "").Code)
}

func TestMetricsAndDocs(t *testing.T) {
	h := startAPI(t, fullCreds, &fakeProv{})
	_ = do(h, http.MethodPost, httpapi.SendPath, validBody)

	w := do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "relay_requests_total")

	w = do(h, http.MethodGet, "/openapi.yaml", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "/api/send-sms")

	w = do(h, http.MethodGet, "/docs", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "<title>SMS Relay API 1.0.0</title>")
	require.Contains(t, w.Body.String(), `<meta name="description" content="Relays one text message`)
	require.Contains(t, w.Body.String(), `<redoc spec-url="/openapi.yaml"`)
}

func TestCORSPreflight(t *testing.T) {
	relay := core.NewRelay(fullCreds, func(provider.Credentials) (provider.Provider, error) { return &fakeProv{}, nil }, zerolog.Nop())
	srv := httpapi.NewServer(relay, zerolog.Nop())
	srv.CORSOrigins = []string{"https://app.example"}
	h := srv.Router()

	req := httptest.NewRequest(http.MethodOptions, httpapi.SendPath, nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
}
