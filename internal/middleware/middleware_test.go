package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/veldtgames/warcouncil/internal/logger"
)

func TestLoggerThreadsRequestID(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusAccepted)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/guilds/42/orders", strings.NewReader(`{"order_type":"UNIT"}`))
	req.Header.Set("X-Character-ID", "alice")
	rec := httptest.NewRecorder()
	Logger(inner).ServeHTTP(rec, req)

	if len(seen) != 8 {
		t.Errorf("request id in context = %q, want an 8-char id", seen)
	}
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
}

func TestLoggerReplaysBodyToHandler(t *testing.T) {
	const payload = `{"order_type":"RESOURCE_TRANSFER"}`
	var got string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, len(payload)+8)
		n, _ := r.Body.Read(buf)
		got = string(buf[:n])
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/guilds/42/orders", strings.NewReader(payload))
	Logger(inner).ServeHTTP(httptest.NewRecorder(), req)

	if got != payload {
		t.Errorf("handler read body %q, want %q (logging must not consume it)", got, payload)
	}
}

func TestLoggerPreservesStatusCode(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	rec := httptest.NewRecorder()
	Logger(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/guilds/42/turn/advance", nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestRecoverTurnsPanicInto500(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("territory graph has a nil node")
	})

	rec := httptest.NewRecorder()
	Recover(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/guilds/42/events", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "internal server error") {
		t.Errorf("body = %q, want a generic error payload", body)
	}
}

func TestRecoverLeavesHealthyRequestsAlone(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	rec := httptest.NewRecorder()
	Recover(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != `{"status":"ok"}` {
		t.Errorf("response = %d %q, want untouched 200", rec.Code, rec.Body.String())
	}
}

func TestCORSAllowsIdentityHeaders(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	CORS("https://war.veldtgames.example")(inner).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/api/v1/guilds/42/events", nil))

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://war.veldtgames.example" {
		t.Errorf("Allow-Origin = %q", got)
	}
	allowed := rec.Header().Get("Access-Control-Allow-Headers")
	for _, h := range []string{"X-Character-ID", "X-Game-Master"} {
		if !strings.Contains(allowed, h) {
			t.Errorf("Allow-Headers = %q, missing %s", allowed, h)
		}
	}
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	called := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	rec := httptest.NewRecorder()
	CORS("*")(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/guilds/42/orders", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if called {
		t.Error("preflight reached the inner handler")
	}
}

func TestJSONSkipsWebSocketUpgrades(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	plain := httptest.NewRequest(http.MethodGet, "/api/v1/guilds/42/events", nil)
	rec := httptest.NewRecorder()
	JSON(inner).ServeHTTP(rec, plain)
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}

	upgrade := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
	upgrade.Header.Set("Upgrade", "websocket")
	rec = httptest.NewRecorder()
	JSON(inner).ServeHTTP(rec, upgrade)
	if got := rec.Header().Get("Content-Type"); got != "" {
		t.Errorf("Content-Type on upgrade = %q, want unset", got)
	}
}

func TestChainAppliesOutsideIn(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	Chain(inner, tag("logger"), tag("cors"), tag("recover")).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := []string{"logger", "cors", "recover", "handler"}
	if len(order) != len(want) {
		t.Fatalf("call order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}
