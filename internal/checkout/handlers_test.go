package checkout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/selara/backend-store/internal/captcha"
)

type stubCreator struct {
	out    Output
	err    error
	called bool
	in     Input
}

func (s *stubCreator) Create(_ context.Context, _ *uuid.UUID, in Input) (Output, error) {
	s.called = true
	s.in = in
	return s.out, s.err
}

func TestCreateRequiresCaptchaToken(t *testing.T) {
	stub := &stubCreator{}
	h := &Handler{Svc: stub, Verifier: captcha.Static{Allow: true}}

	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"cartId":"x"}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "CAPTCHA_REQUIRED")
	require.False(t, stub.called)
}

func TestCreateRejectsFailedCaptcha(t *testing.T) {
	stub := &stubCreator{}
	h := &Handler{Svc: stub, Verifier: captcha.Static{Allow: false}}

	body := `{"cartId":"x","captchaToken":"tok"}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "CAPTCHA_FAILED")
	require.False(t, stub.called)
}

func TestCreatePassesVerifiedRequest(t *testing.T) {
	stub := &stubCreator{out: Output{OrderID: "ord-1", Status: "PENDING"}}
	h := &Handler{Svc: stub, Verifier: captcha.Static{Allow: true}}

	body := `{"cartId":"` + uuid.NewString() + `","customerName":"Ana","customerPhone":"628","captchaToken":"tok"}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, stub.called)
	require.Equal(t, "Ana", stub.in.CustomerName)
	require.Contains(t, rec.Body.String(), "ord-1")
}

func TestCreateMapsEmptyCart(t *testing.T) {
	stub := &stubCreator{err: ErrEmptyCart}
	h := &Handler{Svc: stub, Verifier: captcha.Static{Allow: true}}

	body := `{"cartId":"x","captchaToken":"tok"}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "EMPTY_CART")
}
