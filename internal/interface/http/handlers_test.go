package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/otomasyon-magazasi/config"
	"github.com/oksasatya/otomasyon-magazasi/internal/application"
	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
	repo "github.com/oksasatya/otomasyon-magazasi/internal/domain/repository"
	"github.com/oksasatya/otomasyon-magazasi/internal/infrastructure/payment"
	"github.com/oksasatya/otomasyon-magazasi/pkg/mailer"
	"github.com/oksasatya/otomasyon-magazasi/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Error   json.RawMessage `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type stubMailer struct {
	err  error
	jobs []mailer.EmailJob
	to   []string
}

func (m *stubMailer) Enqueue(_ context.Context, to string, _ map[string]any) error {
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	return nil
}

func (m *stubMailer) EnqueueJob(_ context.Context, job mailer.EmailJob) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

func TestRegisterRejectsInvalidPayload(t *testing.T) {
	h := NewAuthHandler(&application.AuthService{}, quietLogger(), "", false)
	r := gin.New()
	r.POST("/api/auth/register", h.Register)

	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"bad email", `{"email":"nope","password":"Guclu123","username":"ayse"}`, "email"},
		{"weak password", `{"email":"a@example.com","password":"kisa","username":"ayse"}`, "password"},
		{"no digit", `{"email":"a@example.com","password":"Sifresizzz","username":"ayse"}`, "password"},
		{"bad username", `{"email":"a@example.com","password":"Guclu123","username":"9ayse"}`, "username"},
		{"missing username", `{"email":"a@example.com","password":"Guclu123"}`, "username"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/api/auth/register", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			env := decode(t, w)
			assert.False(t, env.Success)
			assert.Contains(t, string(env.Error), `"`+tc.field+`"`)
		})
	}

	w := doJSON(r, http.MethodPost, "/api/auth/register", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallbackRedirects(t *testing.T) {
	cfg := &config.Config{FrontendURL: "https://app.test"}
	h := NewAuthHandler(&application.AuthService{Cfg: cfg, Logger: quietLogger()}, quietLogger(), "", false)
	r := gin.New()
	r.GET("/api/auth/callback", h.Callback)
	r.GET("/api/auth/oauth/google", h.GoogleLogin)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/callback?error=access_denied", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://app.test/giris?error=access_denied", w.Header().Get("Location"))
	assert.Empty(t, w.Result().Cookies())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/callback", nil))
	assert.Equal(t, "https://app.test/giris?error=invalid_callback", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/oauth/google", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
}

func TestLogoutClearsCookies(t *testing.T) {
	h := NewAuthHandler(&application.AuthService{Logger: quietLogger()}, quietLogger(), "", false)
	r := gin.New()
	r.POST("/api/logout", h.Logout)

	w := doJSON(r, http.MethodPost, "/api/logout", "")
	assert.Equal(t, http.StatusOK, w.Code)
	names := map[string]int{}
	for _, ck := range w.Result().Cookies() {
		names[ck.Name] = ck.MaxAge
	}
	assert.Contains(t, names, "access_token")
	assert.Contains(t, names, "refresh_token")
	assert.Negative(t, names["access_token"])
}

func TestRefreshWithoutCookie(t *testing.T) {
	h := NewAuthHandler(&application.AuthService{}, quietLogger(), "", false)
	r := gin.New()
	r.POST("/api/refresh", h.Refresh)

	w := doJSON(r, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckIBAN(t *testing.T) {
	h := NewDeveloperHandler(&application.DeveloperService{}, quietLogger())
	r := gin.New()
	r.GET("/api/iban/:iban", h.CheckIBAN)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/iban/TR180006200119000006672315", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got application.IBANCheck
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.True(t, got.Valid)
	assert.NotEmpty(t, got.BankName)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/iban/TR000006200119000006672315", nil))
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.False(t, got.Valid)
}

func TestOnboardValidatesIBAN(t *testing.T) {
	h := NewDeveloperHandler(&application.DeveloperService{}, quietLogger())
	r := gin.New()
	r.POST("/api/developer/onboard", h.Onboard)

	w := doJSON(r, http.MethodPost, "/api/developer/onboard", `{"iban":"TR12"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(decode(t, w).Error), `"iban"`)
}

func multipartBody(t *testing.T, field, filename string, size int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte{'x'}, size))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAvatarUploadLimits(t *testing.T) {
	h := NewProfileHandler(&application.ProfileService{}, quietLogger())
	r := gin.New()
	r.POST("/api/profile/avatar", h.UploadAvatar)

	cases := []struct {
		name     string
		field    string
		filename string
		size     int
		msg      string
	}{
		{"too large", "avatar", "me.png", int(application.MaxImageSize) + 1, application.ErrFileTooLarge.Msg},
		{"wrong type", "avatar", "me.gif", 10, application.ErrFileType.Msg},
		{"wrong field", "file", "me.png", 10, "Dosya bulunamadı."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, ct := multipartBody(t, tc.field, tc.filename, tc.size)
			req := httptest.NewRequest(http.MethodPost, "/api/profile/avatar", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.msg, decode(t, w).Message)
		})
	}
}

func TestCatalogListRejectsBadCursor(t *testing.T) {
	h := NewCatalogHandler(&application.CatalogService{}, quietLogger())
	r := gin.New()
	r.GET("/api/automations", h.List)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/automations?cursor=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, application.ErrInvalidCursor.Msg, decode(t, w).Message)
}

type stubGateway struct {
	payment.Gateway
	ev  *payment.Event
	err error
	sig string
}

func (g *stubGateway) ParseEvent(_ []byte, signature string) (*payment.Event, error) {
	g.sig = signature
	return g.ev, g.err
}

type failingPurchases struct {
	repo.PurchaseRepository
}

func (failingPurchases) GetByID(context.Context, string) (*entity.Purchase, error) {
	return nil, errors.New("connection reset")
}

func TestWebhookStatuses(t *testing.T) {
	cases := []struct {
		name string
		gw   *stubGateway
		want int
	}{
		{"bad signature", &stubGateway{err: payment.ErrInvalidSignature}, http.StatusBadRequest},
		{"ignored type", &stubGateway{ev: &payment.Event{ID: "evt_1", Type: "customer.created"}}, http.StatusOK},
		{"processing error", &stubGateway{ev: &payment.Event{
			ID:       "evt_2",
			Type:     payment.EventPaymentSucceeded,
			Metadata: map[string]string{"purchase_id": "p1"},
		}}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &application.CheckoutService{Payments: tc.gw, Purchases: failingPurchases{}, Logger: quietLogger()}
			h := NewCheckoutHandler(svc, quietLogger())
			r := gin.New()
			r.POST("/api/webhooks/stripe", h.Webhook)

			req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(`{"id":"evt"}`))
			req.Header.Set("Stripe-Signature", "t=1,v1=abc")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
			assert.Equal(t, "t=1,v1=abc", tc.gw.sig)
		})
	}
}

func TestCheckoutRequiresAutomationID(t *testing.T) {
	h := NewCheckoutHandler(&application.CheckoutService{}, quietLogger())
	r := gin.New()
	r.POST("/api/checkout", h.Checkout)

	w := doJSON(r, http.MethodPost, "/api/checkout", `{"automation_id":"not-a-uuid"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(decode(t, w).Error), `"automation_id"`)
}

func TestAdminSendEmail(t *testing.T) {
	m := &stubMailer{}
	h := NewAdminHandler(&application.AdminService{Mail: m, Logger: quietLogger()}, quietLogger())
	r := gin.New()
	r.POST("/api/admin/email", h.SendEmail)

	w := doJSON(r, http.MethodPost, "/api/admin/email", `{"to":"a@example.com","subject":"Merhaba","text":"Selam"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, m.jobs, 1)
	assert.Equal(t, "Merhaba", m.jobs[0].Subject)

	w = doJSON(r, http.MethodPost, "/api/admin/email", `{"to":"a@example.com","subject":"Merhaba"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/admin/email", `{"to":"a@example.com","template":"welcome","data":{"Name":"Ayşe"}}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, m.jobs, 2)
	assert.Equal(t, "welcome", m.jobs[1].Template)
	assert.Empty(t, m.jobs[1].Subject)

	m.err = mailer.ErrDisabled
	w = doJSON(r, http.MethodPost, "/api/admin/email", `{"to":"a@example.com","template":"welcome"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"enqueued":false,"disabled":true}`, string(decode(t, w).Data))
}

func TestAdminRoleValidation(t *testing.T) {
	h := NewAdminHandler(&application.AdminService{}, quietLogger())
	r := gin.New()
	r.PUT("/api/admin/users/:id/role", h.SetRole)

	w := doJSON(r, http.MethodPut, "/api/admin/users/u1/role", `{"role":"superuser"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(decode(t, w).Error), `"role"`)
}

func TestContact(t *testing.T) {
	m := &stubMailer{}
	cfg := &config.Config{SupportEmail: "destek@example.test", AppName: "Otomasyon Mağazası"}
	h := NewContactHandler(&application.ContactService{Mail: m, Cfg: cfg, Logger: quietLogger()}, quietLogger())
	r := gin.New()
	r.POST("/api/contact", h.Send)

	w := doJSON(r, http.MethodPost, "/api/contact", `{"name":"Ayşe","email":"ayse@example.com","subject":"Fatura","message":"Merhaba"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"destek@example.test"}, m.to)

	w = doJSON(r, http.MethodPost, "/api/contact", `{"name":"Ayşe","email":"ayse@example.com","subject":"Fatura"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, m.to, 1)
}
