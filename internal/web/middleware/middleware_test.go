package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/bookfund/internal/config"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestAPIKeyAuth(t *testing.T) {
	enabled := &config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}}

	tests := []struct {
		name   string
		cfg    *config.SecurityConfig
		header map[string]string
		want   int
	}{
		{"disabled", &config.SecurityConfig{}, nil, http.StatusOK},
		{"missing", enabled, nil, http.StatusUnauthorized},
		{"wrong", enabled, map[string]string{"X-API-Key": "nope"}, http.StatusForbidden},
		{"header", enabled, map[string]string{"X-API-Key": "k2"}, http.StatusOK},
		{"bearer", enabled, map[string]string{"Authorization": "Bearer k1"}, http.StatusOK},
		{"basic is not a key", enabled, map[string]string{"Authorization": "Basic k1"}, http.StatusUnauthorized},
		{"no keys configured", &config.SecurityConfig{RequireAPIKey: true}, map[string]string{"X-API-Key": "k1"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/buildings", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			APIKeyAuth(tt.cfg)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestParseTrusted(t *testing.T) {
	got := ParseTrusted([]string{"10.0.0.0/8", "not-a-cidr", " 127.0.0.1 ", "", "::1"})
	require.Len(t, got, 3)
	assert.Equal(t, "10.0.0.0/8", got[0].String())
	assert.Equal(t, "127.0.0.1/32", got[1].String())
	assert.Equal(t, "::1/128", got[2].String())
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		header map[string]string
		want   string
	}{
		{"trusted real ip", "10.1.2.3:5555", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
		{"trusted forwarded", "127.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "203.0.113.7"},
		{"untrusted", "198.51.100.1:1234", map[string]string{"X-Real-IP": "203.0.113.9"}, "198.51.100.1:1234"},
		{"invalid header", "10.1.2.3:5555", map[string]string{"X-Real-IP": "somewhere"}, "10.1.2.3:5555"},
		{"no header", "10.1.2.3:5555", nil, "10.1.2.3:5555"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := TrustedRealIP([]string{"10.0.0.0/8", "127.0.0.1"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestLogger_PassesStatus(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pot", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}
