package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raka-dev/backend-guru/internal/common"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name      string
		forwarded string
		realIP    string
		remote    string
		want      string
	}{
		{"forwarded for takes first hop", "203.0.113.9, 10.0.0.5", "198.51.100.4", "10.0.0.5:51234", "203.0.113.9"},
		{"real ip fallback", "", "198.51.100.4", "10.0.0.5:51234", "198.51.100.4"},
		{"remote addr host", "", "", "10.0.0.5:51234", "10.0.0.5"},
		{"remote addr without port", "", "", "10.0.0.5", "10.0.0.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			require.Equal(t, tc.want, common.ClientIP(req))
		})
	}
}

func TestParsePagination(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		wantPage int
		wantPer  int
	}{
		{"defaults", "", 1, 20},
		{"explicit", "page=3&limit=5", 3, 5},
		{"garbage falls back", "page=abc&limit=-1", 1, 20},
		{"zero page floors to one", "page=0&limit=50", 1, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
			page, perPage := common.ParsePagination(req, 20)
			require.Equal(t, tc.wantPage, page)
			require.Equal(t, tc.wantPer, perPage)
		})
	}
}
