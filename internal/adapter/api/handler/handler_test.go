package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apptrueq/internal/adapter/api"
	"apptrueq/internal/adapter/api/middleware"
	"apptrueq/internal/domain/entity"
	"apptrueq/internal/domain/service"
	"apptrueq/internal/usecase"
	"apptrueq/pkg/errors"
	"apptrueq/pkg/stream"
)

// fakeIdentity accepts "token-<uid>" for any uid it knows.
type fakeIdentity map[string]*service.Identity

func (f fakeIdentity) VerifyToken(ctx context.Context, token string) (string, error) {
	uid := strings.TrimPrefix(token, "token-")
	if _, ok := f[uid]; !ok {
		return "", errors.Unauthorized("Invalid or expired token", nil)
	}
	return uid, nil
}

func (f fakeIdentity) GetIdentity(ctx context.Context, uid string) (*service.Identity, error) {
	id, ok := f[uid]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return id, nil
}

func (f fakeIdentity) GenerateToken(ctx context.Context, uid string) (string, error) {
	return "custom-" + uid, nil
}

type fakeUsers map[string]*entity.UserProfile

func (f fakeUsers) Create(ctx context.Context, user *entity.UserProfile) (*entity.UserProfile, error) {
	if existing, ok := f[user.ID]; ok {
		return existing, nil
	}
	f[user.ID] = user
	return user, nil
}

func (f fakeUsers) GetByID(ctx context.Context, id string) (*entity.UserProfile, error) {
	u, ok := f[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	copied := *u
	return &copied, nil
}

func (f fakeUsers) Update(ctx context.Context, user *entity.UserProfile) error {
	f[user.ID] = user
	return nil
}

type fakeTrades []*entity.Trade

func (f fakeTrades) GetByID(ctx context.Context, id string) (*entity.Trade, error) {
	for _, t := range f {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, errors.NotFound("Trade", nil)
}

func (f fakeTrades) list(match func(*entity.Trade) bool) []*entity.Trade {
	out := []*entity.Trade{}
	for _, t := range f {
		if match(t) {
			out = append(out, t)
		}
	}
	return out
}

func (f fakeTrades) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Trade, error) {
	return f.list(func(t *entity.Trade) bool { return t.OwnerID == ownerID }), nil
}

func (f fakeTrades) ListByProposer(ctx context.Context, proposerID string) ([]*entity.Trade, error) {
	return f.list(func(t *entity.Trade) bool { return t.ProposerID == proposerID }), nil
}

func (f fakeTrades) WatchByOwner(ctx context.Context, ownerID string) <-chan stream.Snapshot[*entity.Trade] {
	items, _ := f.ListByOwner(ctx, ownerID)
	return stream.FromSlice(items, nil)(ctx)
}

func (f fakeTrades) WatchByProposer(ctx context.Context, proposerID string) <-chan stream.Snapshot[*entity.Trade] {
	items, _ := f.ListByProposer(ctx, proposerID)
	return stream.FromSlice(items, nil)(ctx)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	e     *echo.Echo
	users fakeUsers
}

func newTestServer(trades fakeTrades) *testServer {
	identity := fakeIdentity{
		"ana":   {UID: "ana", DisplayName: "Ana", Email: "ana@trueq.app"},
		"bruno": {UID: "bruno", Email: "bruno@trueq.app"},
		"carla": {UID: "carla", DisplayName: "Carla"},
	}
	users := fakeUsers{}

	Setup(
		usecase.NewUserUseCase(users, identity),
		usecase.NewPublicationUseCase(nil, users, nil, nil, 50, 5*1024*1024),
		usecase.NewProposalUseCase(nil, nil, users, nil, nil, nil),
		usecase.NewTradeUseCase(trades),
		usecase.NewNotificationUseCase(nil),
		usecase.NewReportUseCase(nil, nil, nil, nil, nil, nil),
	)
	SetupHealthHandler()
	SetupDevTokenHandler(identity)

	e := echo.New()
	e.Validator = api.NewValidator()
	auth := middleware.NewAuthMiddleware(identity)

	e.GET("/health", GetHealthHandler().CheckHealth)
	e.GET("/_dev/token/:uid", GetDevTokenHandler().GenerateToken)

	v1 := e.Group("/v1", auth.Authenticate)
	v1.GET("/users/me", GetUserHandler().GetMe)
	v1.PUT("/users/me", GetUserHandler().UpdateMe)
	v1.GET("/users/:id", GetUserHandler().GetUser)
	v1.POST("/proposals", GetProposalHandler().SubmitProposal)
	v1.GET("/trades", GetTradeHandler().ListMyTrades)
	v1.GET("/trades/:id", GetTradeHandler().GetTrade)
	v1.POST("/reports", GetReportHandler().CreateReport)
	v1.POST("/publications", GetPublicationHandler().CreatePublication)

	return &testServer{e: e, users: users}
}

func (s *testServer) do(t *testing.T, method, path, uid, body string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if uid != "" {
		req.Header.Set("Authorization", "Bearer token-"+uid)
	}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func TestHealth(t *testing.T) {
	s := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRoutesRequireAuth(t *testing.T) {
	s := newTestServer(nil)

	code, env := s.do(t, http.MethodGet, "/v1/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, errors.CodeUnauthorized, env.Error.Code)

	code, _ = s.do(t, http.MethodGet, "/v1/users/me", "mallory", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestGetMeCreatesProfileOnce(t *testing.T) {
	s := newTestServer(nil)

	code, env := s.do(t, http.MethodGet, "/v1/users/me", "bruno", "")
	require.Equal(t, http.StatusOK, code)

	var profile entity.UserProfile
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "bruno", profile.DisplayName)
	assert.Equal(t, entity.RoleUser, profile.Role)
	assert.Len(t, s.users, 1)

	code, _ = s.do(t, http.MethodGet, "/v1/users/me", "bruno", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, s.users, 1)
}

func TestUpdateMe(t *testing.T) {
	s := newTestServer(nil)

	code, env := s.do(t, http.MethodPut, "/v1/users/me", "ana", `{"photo_url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errors.CodeValidation, env.Error.Code)

	code, env = s.do(t, http.MethodPut, "/v1/users/me", "ana", `{"location":"  Quito  "}`)
	require.Equal(t, http.StatusOK, code)
	var profile entity.UserProfile
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "Quito", profile.Location)
	assert.Equal(t, "Ana", profile.DisplayName)
}

func TestGetUserHidesEmail(t *testing.T) {
	s := newTestServer(nil)
	s.do(t, http.MethodGet, "/v1/users/me", "ana", "")

	code, env := s.do(t, http.MethodGet, "/v1/users/ana", "bruno", "")
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, string(env.Data), "ana@trueq.app")

	code, _ = s.do(t, http.MethodGet, "/v1/users/nobody", "bruno", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSubmitProposalRejectsBadInputBeforeAnyWrite(t *testing.T) {
	s := newTestServer(nil)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing publication", `{"message":"Te cambio mi bicicleta"}`, errors.CodeValidation},
		{"missing message", `{"publication_id":"pub-1"}`, errors.CodeValidation},
		{"short message", `{"publication_id":"pub-1","message":"  hola   "}`, errors.CodeValidation},
		{"offered item without title", `{"publication_id":"pub-1","message":"Te cambio mi bicicleta","offered_item":{"description":"roja"}}`, errors.CodeValidation},
		{"malformed json", `{"publication_id":`, errors.CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, http.MethodPost, "/v1/proposals", "bruno", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestCreatePublicationValidation(t *testing.T) {
	s := newTestServer(nil)

	code, env := s.do(t, http.MethodPost, "/v1/publications", "ana",
		`{"title":"Gu","description":"Guitarra acústica","category":"Música","location":"Quito","kind":"OFFER"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errors.CodeValidation, env.Error.Code)

	code, _ = s.do(t, http.MethodPost, "/v1/publications", "ana",
		`{"title":"Guitarra","description":"Guitarra acústica","category":"Música","location":"Quito","kind":"SELL"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCreateReportValidation(t *testing.T) {
	s := newTestServer(nil)

	code, env := s.do(t, http.MethodPost, "/v1/reports", "ana", `{"target_type":"COMMENT","target_id":"x","reason":"SPAM"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errors.CodeValidation, env.Error.Code)

	code, _ = s.do(t, http.MethodPost, "/v1/reports", "ana", `{"target_type":"USER","target_id":"bruno","reason":"BORING"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTrades(t *testing.T) {
	now := time.Now()
	s := newTestServer(fakeTrades{
		{ID: "t1", OwnerID: "ana", ProposerID: "bruno", CreatedAt: now.Add(-time.Hour)},
		{ID: "t2", OwnerID: "bruno", ProposerID: "ana", CreatedAt: now},
		{ID: "t3", OwnerID: "bruno", ProposerID: "carla", CreatedAt: now},
	})

	code, env := s.do(t, http.MethodGet, "/v1/trades", "ana", "")
	require.Equal(t, http.StatusOK, code)
	var trades []*entity.Trade
	require.NoError(t, json.Unmarshal(env.Data, &trades))
	require.Len(t, trades, 2)
	assert.Equal(t, "t2", trades[0].ID)
	assert.Equal(t, "t1", trades[1].ID)

	code, _ = s.do(t, http.MethodGet, "/v1/trades/t1", "bruno", "")
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodGet, "/v1/trades/t3", "ana", "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, errors.CodeForbidden, env.Error.Code)

	code, _ = s.do(t, http.MethodGet, "/v1/trades/missing", "ana", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDevToken(t *testing.T) {
	s := newTestServer(nil)

	code, env := s.do(t, http.MethodGet, "/_dev/token/ana", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "custom-ana")

	code, _ = s.do(t, http.MethodGet, "/_dev/token/ghost", "", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDecodeFilter(t *testing.T) {
	var f notificationStreamFilter
	require.NoError(t, decodeFilter(nil, &f))
	require.NoError(t, decodeFilter(json.RawMessage("null"), &f))
	require.NoError(t, decodeFilter(json.RawMessage(`{"unread_only":true}`), &f))
	assert.True(t, f.UnreadOnly)

	err := decodeFilter(json.RawMessage(`{"unread_only":`), &f)
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}
