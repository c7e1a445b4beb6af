package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pixelmint/authcore/token"
)

func newTestCodec(t *testing.T) *token.Codec {
	t.Helper()

	codec, err := token.NewCodec(token.Config{
		AccessSecret:  []byte("gate-access-secret"),
		RefreshSecret: []byte("gate-refresh-secret"),
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	return codec
}

func identityEcho(t *testing.T, wantIdentity bool) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if ok != wantIdentity {
			t.Errorf("identity attached = %v, want %v", ok, wantIdentity)
		}
		if ok {
			w.Write([]byte(claims.Subject))
			return
		}
		w.Write([]byte("anonymous"))
	})
}

func TestRequireAcceptsValidToken(t *testing.T) {
	codec := newTestCodec(t)
	tok, err := codec.IssueAccess(token.Claims{Subject: "user-1", Email: "a@b.c", Role: "user"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	handler := Require(codec)(identityEcho(t, true))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "user-1" {
		t.Fatalf("body = %q, want subject", rec.Body.String())
	}
}

func TestRequireRejects(t *testing.T) {
	codec := newTestCodec(t)
	handler := Require(codec)(identityEcho(t, true))

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestOptionalAttachesIdentityWhenPresent(t *testing.T) {
	codec := newTestCodec(t)
	tok, err := codec.IssueAccess(token.Claims{Subject: "user-2"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	handler := Optional(codec)(identityEcho(t, true))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "user-2" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestOptionalSwallowsFailures(t *testing.T) {
	codec := newTestCodec(t)

	for name, header := range map[string]string{
		"missing":   "",
		"malformed": "Bearer ???",
		"wrong key": "Basic abc",
	} {
		t.Run(name, func(t *testing.T) {
			handler := Optional(codec)(identityEcho(t, false))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK || rec.Body.String() != "anonymous" {
				t.Fatalf("status=%d body=%q, want anonymous pass-through", rec.Code, rec.Body.String())
			}
		})
	}
}
