package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/navid-fn/coinview/configs"
	"github.com/navid-fn/coinview/internal/account"
	"github.com/navid-fn/coinview/internal/avatar"
	"github.com/navid-fn/coinview/internal/identity"
	"github.com/navid-fn/coinview/internal/logging"
	"github.com/navid-fn/coinview/internal/marketdata"
	"github.com/navid-fn/coinview/internal/models"
	"github.com/navid-fn/coinview/internal/querycache"
	"github.com/navid-fn/coinview/internal/resilience"
	"github.com/navid-fn/coinview/internal/service"
	"github.com/navid-fn/coinview/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMarket struct {
	mu        sync.Mutex
	listCalls int
	searches  []string
	searchErr error
	nilNews   bool
}

func (f *fakeMarket) FetchAllCoins(ctx context.Context) *marketdata.CoinsResponse {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()

	coins := make([]models.Coin, 50)
	for i := range coins {
		coins[i] = models.Coin{UUID: fmt.Sprint(i), Symbol: fmt.Sprintf("C%d", i), Price: "10", Change: models.Number(i%3 - 1), MarketCap: "12345678901"}
	}
	coins[0].Symbol = "BTC"
	return &marketdata.CoinsResponse{Status: "success", Data: marketdata.CoinsData{Coins: coins}}
}

func (f *fakeMarket) FetchCoinDetails(ctx context.Context, coinID string) *marketdata.CoinDetailResponse {
	if coinID == "missing" {
		return &marketdata.CoinDetailResponse{}
	}
	return &marketdata.CoinDetailResponse{Status: "success", Data: marketdata.CoinDetailData{Coin: models.CoinDetail{Coin: models.Coin{UUID: coinID, Symbol: "btc", Price: "1"}}}}
}

func (f *fakeMarket) FetchCoinHistory(ctx context.Context, coinID string) *marketdata.CoinHistoryResponse {
	p1, p2 := models.Number(1), models.Number(2)
	return &marketdata.CoinHistoryResponse{Status: "success", Data: marketdata.CoinHistoryData{
		Change:  3,
		History: []models.CoinHistoryPoint{{Price: &p2, Timestamp: 200}, {Price: &p1, Timestamp: 100}},
	}}
}

func (f *fakeMarket) SearchCoin(ctx context.Context, query string) (*marketdata.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &marketdata.SearchResponse{Status: "success", Data: marketdata.SearchData{Coins: []models.Coin{{UUID: "1", Symbol: "BTC", Name: "Bitcoin", Price: "1"}}}}, nil
}

func (f *fakeMarket) FetchCryptoNews(ctx context.Context) *marketdata.NewsResponse {
	if f.nilNews {
		return nil
	}
	return &marketdata.NewsResponse{Data: []models.NewsItem{{Title: strings.Repeat("t", 40), Description: "d"}}}
}

type fakeIdentity struct {
	profiles map[string]models.Profile
}

func (f *fakeIdentity) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	if password != "secret" {
		return nil, &identity.APIError{Status: http.StatusBadRequest, Code: "invalid_grant", Message: "Invalid login credentials"}
	}
	return &models.Session{AccessToken: "at", ExpiresAt: 1 << 40, User: &models.User{ID: "u1", Email: email}}, nil
}

func (f *fakeIdentity) SignUp(ctx context.Context, email, password string) (*identity.SignUpResult, error) {
	return &identity.SignUpResult{User: &models.User{ID: "u2", Email: email}}, nil
}

func (f *fakeIdentity) SignOut(ctx context.Context, accessToken string) error { return nil }

func (f *fakeIdentity) RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	return nil, errors.New("not used")
}

func (f *fakeIdentity) GetProfile(ctx context.Context, accessToken, userID string) (*models.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return &p, nil
}

func (f *fakeIdentity) UpsertProfile(ctx context.Context, accessToken, userID string, profile models.Profile) error {
	f.profiles[userID] = profile
	return nil
}

type fakeStorage struct{}

func (fakeStorage) Upload(ctx context.Context, accessToken, path, contentType string, body io.Reader) error {
	return nil
}

func (fakeStorage) PublicURL(path string) string { return "https://cdn.test/" + path }

type testEnv struct {
	engine *gin.Engine
	market *fakeMarket
	avatar *avatar.Flow
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logging.Discard()

	market := &fakeMarket{}
	marketSvc := service.NewMarketService(market, querycache.New(0, logger), 3, logger)
	accountSvc := account.NewService(&fakeIdentity{profiles: map[string]models.Profile{}}, session.NewStore(), nil, nil, time.Minute, logger)
	flow := avatar.NewFlow(fakeStorage{}, accountSvc, logger)
	monitor := resilience.NewHealthMonitor(logger, time.Minute)
	monitor.AddCheck("ok", func(ctx context.Context) error { return nil })
	monitor.RunChecks(context.Background())

	mh := NewMarketHandler(marketSvc)
	sh := NewSearchHandler(marketSvc, configs.SearchConfig{Debounce: 20 * time.Millisecond, MinLength: 3}, logger)
	ah := NewAccountHandler(accountSvc)
	ph := NewProfileHandler(accountSvc, flow)
	hh := NewHealthHandler(monitor)

	r := gin.New()
	v1 := r.Group("/v1")
	v1.GET("/coins/:uuid", mh.GetCoin)
	v1.GET("/coins/:uuid/history", mh.GetHistory)
	v1.GET("/market", mh.GetMarket)
	v1.GET("/calculator", mh.GetCalculator)
	v1.GET("/news", mh.GetNews)
	v1.GET("/search", sh.Search)
	v1.GET("/search/live", sh.Live)
	v1.POST("/auth/signin", ah.SignIn)
	v1.POST("/auth/signup", ah.SignUp)
	v1.POST("/auth/signout", ah.SignOut)
	v1.GET("/auth/session", ah.GetSession)
	v1.GET("/profile", ph.GetProfile)
	v1.PUT("/profile", ph.UpdateProfile)
	v1.POST("/profile/avatar", ph.UploadAvatar)
	v1.GET("/avatar/url", ph.GetAvatarURL)
	r.GET("/health", hh.Health)
	r.GET("/health/ready", hh.Ready)
	r.GET("/health/live", hh.Live)

	return &testEnv{engine: r, market: market, avatar: flow}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func (e *testEnv) get(t *testing.T, path string) (*httptest.ResponseRecorder, map[string]any) {
	return e.do(t, http.MethodGet, path, nil, "")
}

func (e *testEnv) postJSON(t *testing.T, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	return e.do(t, http.MethodPost, path, strings.NewReader(body), "application/json")
}

func TestMarketModes(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.get(t, "/v1/market?mode=losers")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "losers", body["mode"])
	rows := body["coins"].([]any)
	require.NotEmpty(t, rows)
	for _, r := range rows {
		row := r.(map[string]any)
		assert.Equal(t, "down", row["direction"])
		assert.Equal(t, "123456789...", row["marketCap"])
		assert.Equal(t, "$10.00", row["price"])
	}

	w, body = env.get(t, "/v1/market?mode=all")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["coins"], 50)
	assert.Equal(t, 1, env.market.listCalls)

	w, _ = env.get(t, "/v1/market?mode=winners")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarketWithoutModeKeepsSelection(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.get(t, "/v1/market")
	assert.Equal(t, "all", body["mode"])
	assert.Len(t, body["coins"], 50)

	_, selected := env.get(t, "/v1/market?mode=losers")
	w, body := env.get(t, "/v1/market")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "losers", body["mode"])
	assert.Equal(t, selected["coins"], body["coins"])

	_, body = env.get(t, "/v1/market?refresh=true")
	assert.Equal(t, "losers", body["mode"])
	assert.Equal(t, 2, env.market.listCalls)
}

func TestCalculator(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.get(t, "/v1/calculator")
	assert.Equal(t, "$10.00", body["value"])

	_, body = env.get(t, "/v1/calculator?amount=1234.5&symbol=BTC")
	assert.Equal(t, "$12,345.00", body["value"])

	_, body = env.get(t, "/v1/calculator?amount=1234.5&symbol=btc")
	assert.Equal(t, "$0.00", body["value"])

	_, body = env.get(t, "/v1/calculator?amount=abc")
	assert.Equal(t, "$0.00", body["value"])
}

func TestCoinDetailAndHistory(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.get(t, "/v1/coins/abc")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BT", body["row"].(map[string]any)["badge"])

	_, body = env.get(t, "/v1/coins/missing")
	assert.Nil(t, body["coin"])
	assert.Equal(t, placeholderNoResults, body["placeholder"])

	_, body = env.get(t, "/v1/coins/abc/history?at=160")
	series := body["series"].([]any)
	require.Len(t, series, 2)
	assert.Equal(t, float64(100), series[0].(map[string]any)["timestamp"])
	assert.Equal(t, float64(200), body["tooltip"].(map[string]any)["timestamp"])
	assert.Equal(t, "$2.00", body["tooltip"].(map[string]any)["price"])

	w, _ = env.get(t, "/v1/coins/abc/history?at=soon")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = env.get(t, "/v1/coins/abc?refresh=true")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BT", body["row"].(map[string]any)["badge"])
	w, body = env.get(t, "/v1/coins/abc/history?refresh=true")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["series"], 2)
}

func TestNewsMissingEnvelope(t *testing.T) {
	env := newTestEnv(t)
	env.market.nilNews = true

	w, body := env.get(t, "/v1/news?refresh=true")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["news"])
	assert.Equal(t, placeholderNoNews, body["placeholder"])
}

func TestNewsTruncated(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.get(t, "/v1/news")
	news := body["news"].([]any)
	require.Len(t, news, 1)
	assert.Equal(t, strings.Repeat("t", 30)+"...", news[0].(map[string]any)["title"])
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.get(t, "/v1/search?q=bi")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["results"])
	assert.Equal(t, placeholderNoResults, body["placeholder"])
	assert.Empty(t, env.market.searches)

	_, body = env.get(t, "/v1/search?q=bitcoin")
	assert.Len(t, body["results"], 1)

	env.market.searchErr = &marketdata.StatusError{StatusCode: 500}
	w, body = env.get(t, "/v1/search?q=bitcoin")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotEmpty(t, body["error"])
}

func TestLiveSearchDebounces(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.engine)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/search/live", nil)
	require.NoError(t, err)
	defer conn.Close()

	for _, text := range []string{"b", "bi", "bit", "bitc"} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(text)))
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var frame searchFrame
		require.NoError(t, conn.ReadJSON(&frame))
		if !frame.Loading && len(frame.Results) > 0 {
			assert.Equal(t, "bitc", frame.Query)
			break
		}
	}

	env.market.mu.Lock()
	defer env.market.mu.Unlock()
	assert.Equal(t, []string{"bitc"}, env.market.searches)
}

func TestAccountAndProfileFlow(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.get(t, "/v1/profile")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.postJSON(t, "/v1/auth/signin", `{"email":"not-an-email","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := env.postJSON(t, "/v1/auth/signin", `{"email":"a@b.c","password":"wrong"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "Invalid login credentials")

	w, _ = env.postJSON(t, "/v1/auth/signin", `{"email":"a@b.c","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code)

	_, body = env.get(t, "/v1/auth/session")
	assert.Equal(t, true, body["signed_in"])

	w, body = env.get(t, "/v1/profile")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Nil(t, body["profile"])
	assert.Equal(t, "User", body["display_name"])

	w, _ = env.do(t, http.MethodPut, "/v1/profile", strings.NewReader(`{"username":"sato","full_name":"Satoshi","avatar_url":"1.png"}`), "application/json")
	require.Equal(t, http.StatusNoContent, w.Code)

	w, body = env.get(t, "/v1/profile")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sato", body["display_name"])
	assert.Equal(t, "https://cdn.test/1.png", body["avatar_public_url"])

	w, _ = env.postJSON(t, "/v1/auth/signout", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, body = env.get(t, "/v1/auth/session")
	assert.Equal(t, false, body["signed_in"])
	w, _ = env.get(t, "/v1/profile")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignUpPendingConfirmation(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.postJSON(t, "/v1/auth/signup", `{"email":"new@b.c","password":"secret"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["confirmation_required"])
	assert.Equal(t, false, body["signed_in"])
}

func TestAvatarUpload(t *testing.T) {
	env := newTestEnv(t)
	env.postJSON(t, "/v1/auth/signin", `{"email":"a@b.c","password":"secret"}`)

	w, _ := env.do(t, http.MethodPost, "/v1/profile/avatar", strings.NewReader(""), "multipart/form-data; boundary=x")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "me.png")
	require.NoError(t, err)
	part.Write([]byte("png"))
	require.NoError(t, mw.Close())

	w, body := env.do(t, http.MethodPost, "/v1/profile/avatar", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Regexp(t, `^\d+\.png$`, body["path"])
	assert.Equal(t, "https://cdn.test/"+body["path"].(string), body["url"])

	uploaded := body["url"].(string)

	_, body = env.get(t, "/v1/avatar/url?path=x.png")
	assert.Equal(t, "https://cdn.test/x.png", body["url"])
	assert.Equal(t, uploaded, env.avatar.URL())

	w, _ = env.get(t, "/v1/avatar/url")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.get(t, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])

	w, _ = env.get(t, "/health/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = env.get(t, "/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusFor(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{name: "Unauthenticated", err: account.ErrUnauthenticated, want: http.StatusUnauthorized},
		{name: "Profile missing", err: account.ErrProfileNotFound, want: http.StatusNotFound},
		{name: "Pick canceled", err: avatar.ErrPickCanceled, want: http.StatusBadRequest},
		{name: "Breaker open", err: fmt.Errorf("search: %w", resilience.ErrCircuitBreakerOpen), want: http.StatusServiceUnavailable},
		{name: "Identity 422", err: &identity.APIError{Status: 422}, want: http.StatusUnprocessableEntity},
		{name: "Identity 500", err: &identity.APIError{Status: 500}, want: http.StatusBadGateway},
		{name: "Transport", err: errors.New("dial tcp: refused"), want: http.StatusBadGateway},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, statusFor(tc.err))
		})
	}
}
