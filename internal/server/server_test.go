package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codehut/internal/dto"
	"codehut/internal/repository"
	"codehut/internal/service"
	"codehut/internal/testutil"
	"codehut/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type discardNotifier struct{}

func (discardNotifier) PurchaseCompleted(context.Context, *dto.PurchaseEvent) {}
func (discardNotifier) Wait()                                               {}

type ServerSuite struct {
	suite.Suite

	srv     *Server
	gateway *testutil.FakeRazorpay
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.gateway = &testutil.FakeRazorpay{}
	s.srv = newTestServer(s.T(), s.gateway, false)
}

func newTestServer(t *testing.T, gateway *testutil.FakeRazorpay, demo bool) *Server {
	t.Helper()

	db := testutil.NewDB(t)
	tokens := token.NewManager("server-secret", 15*time.Minute, 24*time.Hour)
	notifier := discardNotifier{}

	userRepo := repository.NewUserRepository(db)
	snippetRepo := repository.NewSnippetRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	accessService := service.NewAccessService(snippetRepo, purchaseRepo)

	services := &Services{
		Auth:     service.NewAuthService(tokens, userRepo, repository.NewSessionRepository(db)),
		Snippet:  service.NewSnippetService(db, "INR", snippetRepo, userRepo, accessService),
		User:     service.NewUserService(userRepo, snippetRepo),
		Purchase: service.NewPurchaseService(db, demo, userRepo, snippetRepo, purchaseRepo, notifier),
		Access:   accessService,
		Payment: service.NewPaymentService(db, gateway, "INR", demo, userRepo, snippetRepo, orderRepo,
			purchaseRepo, repository.NewWebhookEventRepository(db), accessService, notifier),
		Search: service.NewSearchService(snippetRepo, userRepo),
		Stats:  service.NewStatsService(userRepo, snippetRepo, purchaseRepo, orderRepo),
	}

	return NewServer(tokens, services, Options{
		PingMessage:    "pong",
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	})
}

func (s *ServerSuite) request(method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	return doRequest(s.T(), s.srv, method, path, bearer, body)
}

func doRequest(t *testing.T, srv *Server, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type authResult struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (s *ServerSuite) signup(username string) authResult {
	rec := s.request(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var res authResult
	decode(s.T(), rec, &res)
	return res
}

func (s *ServerSuite) publish(author authResult, price float64) string {
	rec := s.request(http.MethodPost, "/api/snippets", author.AccessToken, map[string]interface{}{
		"title":    "Bounded worker pool",
		"code":     "func Pool(n int) {}",
		"price":    price,
		"language": "go",
		"tags":     []string{"concurrency"},
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var snippet struct {
		ID string `json:"id"`
	}
	decode(s.T(), rec, &snippet)
	return snippet.ID
}

func (s *ServerSuite) TestHealthAndPing() {
	rec := s.request(http.MethodGet, "/api/health", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())

	rec = s.request(http.MethodGet, "/api/ping", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"message":"pong"}`, rec.Body.String())
}

func (s *ServerSuite) TestErrorShape() {
	rec := s.request(http.MethodGet, "/api/auth/me", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	var body map[string]interface{}
	decode(s.T(), rec, &body)
	s.Equal("Unauthorized", body["error"])
	s.Equal("Access token required", body["message"])
	s.EqualValues(401, body["statusCode"])

	rec = s.request(http.MethodGet, "/api/snippets/missing", "", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ServerSuite) TestSignupValidation() {
	rec := s.request(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "eve",
		"email":    "not-an-email",
		"password": "short",
	})
	s.Equal(http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	decode(s.T(), rec, &body)
	s.Contains(body["message"], "Email")
	s.Contains(body["message"], "Password")

	s.signup("eve")
	rec = s.request(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "eve",
		"email":    "eve@example.com",
		"password": "password123",
	})
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *ServerSuite) TestAuthFlow() {
	user := s.signup("frank")

	rec := s.request(http.MethodGet, "/api/auth/me", user.AccessToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.request(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": user.RefreshToken})
	s.Require().Equal(http.StatusOK, rec.Code)
	var refreshed authResult
	decode(s.T(), rec, &refreshed)

	rec = s.request(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": user.RefreshToken})
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.request(http.MethodPost, "/api/auth/logout", "", map[string]string{"refreshToken": refreshed.RefreshToken})
	s.Equal(http.StatusOK, rec.Code)

	rec = s.request(http.MethodGet, "/api/auth/sessions", user.AccessToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *ServerSuite) TestPurchaseFlow() {
	seller := s.signup("seller")
	buyer := s.signup("buyer")
	stranger := s.signup("stranger")
	snippetID := s.publish(seller, 299)

	rec := s.request(http.MethodGet, "/api/snippets/"+snippetID, buyer.AccessToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var view map[string]interface{}
	decode(s.T(), rec, &view)
	s.Equal(true, view["locked"])
	s.Nil(view["code"])

	rec = s.request(http.MethodPost, "/api/payments/create-order", seller.AccessToken, map[string]string{"snippetId": snippetID})
	s.Equal(http.StatusBadRequest, rec.Code, "sellers cannot buy their own snippet")

	rec = s.request(http.MethodPost, "/api/payments/create-order", buyer.AccessToken, map[string]string{"snippetId": snippetID})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var order dto.CreateOrderResponse
	decode(s.T(), rec, &order)
	s.Equal(int64(29900), order.Amount)
	s.Equal(int64(2990), order.Platform.Commission)
	s.Equal(int64(26910), order.Seller.Amount)
	s.Equal(testutil.KeyID, order.Key)

	rec = s.request(http.MethodGet, "/api/payments/download/"+snippetID, buyer.AccessToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.request(http.MethodPost, "/api/payments/verify-payment", buyer.AccessToken, map[string]string{
		"razorpay_order_id":   order.OrderID,
		"razorpay_payment_id": "pay_e2e",
		"razorpay_signature":  "0000",
	})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.request(http.MethodPost, "/api/payments/verify-payment", buyer.AccessToken, map[string]string{
		"razorpay_order_id":   order.OrderID,
		"razorpay_payment_id": "pay_e2e",
		"razorpay_signature":  testutil.SignPayment(order.OrderID, "pay_e2e"),
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var verified dto.VerifyPaymentResponse
	decode(s.T(), rec, &verified)
	s.True(verified.Success)
	s.NotEmpty(verified.PurchaseID)

	rec = s.request(http.MethodGet, "/api/payments/download/"+snippetID, buyer.AccessToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var downloaded map[string]interface{}
	decode(s.T(), rec, &downloaded)
	s.Equal("func Pool(n int) {}", downloaded["code"])

	rec = s.request(http.MethodGet, "/api/payments/download/"+snippetID, stranger.AccessToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.request(http.MethodGet, "/api/purchases/check/"+snippetID, buyer.AccessToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"snippetId":"`+snippetID+`","hasAccess":true,"reason":"purchased"}`, rec.Body.String())

	rec = s.request(http.MethodPost, "/api/payments/create-order", buyer.AccessToken, map[string]string{"snippetId": snippetID})
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.request(http.MethodGet, "/api/payments/orders", buyer.AccessToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var orders map[string]interface{}
	decode(s.T(), rec, &orders)
	s.EqualValues(1, orders["total"])

	rec = s.request(http.MethodGet, "/api/stats/seller", seller.AccessToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var stats map[string]interface{}
	decode(s.T(), rec, &stats)
	s.EqualValues(1, stats["totalSales"])
	s.EqualValues(1, stats["totalDownloads"])
}

func (s *ServerSuite) TestLegacyPurchaseRequiresPayment() {
	seller := s.signup("seller")
	buyer := s.signup("buyer")
	paidID := s.publish(seller, 49)
	freeID := s.publish(seller, 0)

	rec := s.request(http.MethodPost, "/api/purchases", buyer.AccessToken, map[string]string{"snippetId": paidID})
	s.Equal(http.StatusPaymentRequired, rec.Code)

	rec = s.request(http.MethodPost, "/api/purchases", buyer.AccessToken, map[string]string{"snippetId": freeID})
	s.Equal(http.StatusCreated, rec.Code)

	rec = s.request(http.MethodGet, "/api/purchases", buyer.AccessToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var page map[string]interface{}
	decode(s.T(), rec, &page)
	s.EqualValues(1, page["total"])
}

func (s *ServerSuite) TestWebhook() {
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_x","order_id":"order_unknown"}}}}`)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", "bad")
	rec := httptest.NewRecorder()
	s.srv.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", testutil.SignWebhook(body))
	rec = httptest.NewRecorder()
	s.srv.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
}

func (s *ServerSuite) TestSearchAndStats() {
	seller := s.signup("seller")
	s.publish(seller, 10)

	rec := s.request(http.MethodGet, "/api/search?q=worker&type=snippets", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var result dto.SearchResponse
	decode(s.T(), rec, &result)
	s.Len(result.Snippets, 1)
	s.Empty(result.Snippets[0].Code)

	rec = s.request(http.MethodGet, "/api/search?type=bogus", "", nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.request(http.MethodGet, "/api/search/suggestions?q=bound", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"suggestions":["Bounded worker pool"]}`, rec.Body.String())

	rec = s.request(http.MethodGet, "/api/stats", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var stats map[string]interface{}
	decode(s.T(), rec, &stats)
	s.EqualValues(1, stats["totalUsers"])
	s.EqualValues(1, stats["totalSnippets"])

	rec = s.request(http.MethodGet, "/api/snippets?minPrice=abc", "", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func TestDemoCheckoutWithoutLogin(t *testing.T) {
	gateway := &testutil.FakeRazorpay{}
	srv := newTestServer(t, gateway, true)

	rec := doRequest(t, srv, http.MethodPost, "/api/payments/create-order", "", map[string]string{"snippetId": "sample"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var order dto.CreateOrderResponse
	decode(t, rec, &order)
	assert.True(t, order.Demo)
	assert.Equal(t, int64(9900), order.Amount)

	rec = doRequest(t, srv, http.MethodPost, "/api/payments/verify-payment", "", map[string]string{
		"razorpay_order_id":   order.OrderID,
		"razorpay_payment_id": "pay_demo",
		"razorpay_signature":  "demo",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, gateway.Calls())

	rec = doRequest(t, srv, http.MethodGet, "/api/payments/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
