package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGoogleVerifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "secret-key", r.Form.Get("secret"))
		require.Equal(t, "tok-1", r.Form.Get("response"))
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	g := &Google{Secret: "secret-key", Endpoint: srv.URL}
	require.NoError(t, g.Verify(context.Background(), "tok-1", "1.2.3.4"))
}

func TestGoogleVerifyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer srv.Close()

	g := &Google{Secret: "secret-key", Endpoint: srv.URL}
	err := g.Verify(context.Background(), "bad", "")
	require.ErrorIs(t, err, ErrVerificationFailed)
}

func TestGoogleVerifyMissingToken(t *testing.T) {
	g := &Google{Secret: "secret-key"}
	require.ErrorIs(t, g.Verify(context.Background(), "  ", ""), ErrMissingToken)
}

func TestGoogleVerifyProviderOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := &Google{Secret: "secret-key", Endpoint: srv.URL}
	err := g.Verify(context.Background(), "tok", "")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrVerificationFailed)
}

func TestStaticVerifier(t *testing.T) {
	require.NoError(t, Static{Allow: true}.Verify(context.Background(), "tok", ""))
	require.ErrorIs(t, Static{}.Verify(context.Background(), "tok", ""), ErrVerificationFailed)
	require.ErrorIs(t, Static{Allow: true}.Verify(context.Background(), "", ""), ErrMissingToken)
}
