package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

type fakeAccounts struct {
	tokens     *auth.TokenManager
	registered service.RegisterInput
	modified   service.ModifyInput
	err        error
	panic      bool
}

func (f *fakeAccounts) Register(_ context.Context, in service.RegisterInput) (string, error) {
	f.registered = in
	if f.err != nil {
		return "", f.err
	}
	return "0123456789abcdef0123456789abcdef", nil
}

func (f *fakeAccounts) Login(_ context.Context, in service.LoginInput) (auth.TokenPair, error) {
	if f.err != nil {
		return auth.TokenPair{}, f.err
	}
	return f.tokens.IssuePair("user-1")
}

func (f *fakeAccounts) GetSelf(_ context.Context, identity string) (domain.Profile, error) {
	if f.panic {
		panic("boom")
	}
	first := "Jane"
	return domain.Profile{Firstname: &first, Role: domain.RoleUser}, f.err
}

func (f *fakeAccounts) Modify(_ context.Context, identity string, in service.ModifyInput) error {
	f.modified = in
	return f.err
}

func (f *fakeAccounts) Delete(_ context.Context, identity string) error { return f.err }

func (f *fakeAccounts) Refresh(_ context.Context, p *auth.Principal) (domain.Token, error) {
	if f.err != nil {
		return domain.Token{}, f.err
	}
	return f.tokens.Refresh(p.UserID)
}

func (f *fakeAccounts) Logout(_ context.Context, p *auth.Principal) error { return f.err }

type fakeTickets struct {
	owner    string
	payloads map[string]domain.Payload
	created  json.RawMessage
}

func (f *fakeTickets) List(_ context.Context, identity string) ([]domain.Payload, error) {
	if identity != f.owner || len(f.payloads) == 0 {
		return nil, apperrors.NewNotFound("No tickets were found.")
	}
	return []domain.Payload{f.payloads["t1"]}, nil
}

func (f *fakeTickets) Get(_ context.Context, identity, id string) (domain.Payload, error) {
	p, ok := f.payloads[id]
	if !ok || identity != f.owner {
		return domain.Payload{}, apperrors.NewNotFound("The specified ticket was not found (" + id + ").")
	}
	return p, nil
}

func (f *fakeTickets) Create(_ context.Context, identity string, showing json.RawMessage) (string, error) {
	if showing == nil {
		return "", apperrors.NewValidationError("Missing value: showing", nil)
	}
	f.created = showing
	return "t2", nil
}

func (f *fakeTickets) Delete(_ context.Context, identity, id string) error {
	if _, ok := f.payloads[id]; !ok {
		return apperrors.NewNotFound("Ticket " + id + " not found.")
	}
	return nil
}

func (f *fakeTickets) DeleteAll(_ context.Context, identity string) (int64, error) { return 0, nil }

type pingerFunc func(ctx context.Context) error

func (p pingerFunc) Ping(ctx context.Context) error { return p(ctx) }

type testServer struct {
	app      *fiber.App
	tokens   *auth.TokenManager
	accounts *fakeAccounts
	tickets  *fakeTickets
	redisErr error
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{tokens: auth.NewTokenManager("test-secret", "account-service", time.Minute, time.Hour)}
	ts.accounts = &fakeAccounts{tokens: ts.tokens}
	ts.tickets = &fakeTickets{
		owner: "user-1",
		payloads: map[string]domain.Payload{
			"t1": {Kind: domain.PayloadStructured, Value: `{"seat":"A1"}`},
		},
	}

	health := handlers.NewHealthHandler("account-service", "test", map[string]handlers.Pinger{
		"postgres": pingerFunc(func(context.Context) error { return nil }),
		"redis":    pingerFunc(func(context.Context) error { return ts.redisErr }),
	})

	ts.app = NewServer(ServerConfig{
		AppName:        "account-service",
		RequestTimeout: time.Second,
		Logger:         zap.NewNop(),
		Routes: RouteConfig{
			Health:         health,
			Users:          handlers.NewUsersHandler(ts.accounts),
			Tickets:        handlers.NewTicketsHandler(ts.tickets),
			AuthMiddleware: auth.NewAuthMiddleware(ts.tokens),
			Metrics:        observability.NewMetrics(),
		},
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && resp.Header.Get(fiber.HeaderContentType) == fiber.MIMEApplicationJSON {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (ts *testServer) pair(t *testing.T) auth.TokenPair {
	t.Helper()
	pair, err := ts.tokens.IssuePair("user-1")
	require.NoError(t, err)
	return pair
}

func TestRegister_Envelope(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodPost, "/v1/users",
		"", `{"lastname":"Doe","firstname":"Jane","age":34,"email":"a@b.com","password":"pw"}`)
	assert.Equal(t, http.StatusCreated, status)
	assert.EqualValues(t, http.StatusCreated, body["status"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "User successfully created.", data["message"])
	assert.Equal(t, "0123456789abcdef0123456789abcdef", data["uuid"])
	require.NotNil(t, ts.accounts.registered.Age)
	assert.Equal(t, "34", *ts.accounts.registered.Age)
}

func TestErrorEnvelope(t *testing.T) {
	ts := newTestServer(t)
	ts.accounts.err = apperrors.NewConflict("Account already exists.", nil)

	status, body := ts.do(t, http.MethodPost, "/v1/users", "", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.EqualValues(t, http.StatusConflict, body["status"])
	assert.Equal(t, "Conflict", body["error"])
	assert.Equal(t, "Account already exists.", body["message"])
	assert.NotContains(t, body, "data")
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodPost, "/v1/users/login", "", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Bad Request", body["error"])
	assert.Equal(t, "Invalid JSON body", body["message"])
}

func TestLogin_ReturnsTokenPair(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodPost, "/v1/users/login", "", `{"email":"a@b.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, status)

	data := body["data"].(map[string]any)
	assert.Equal(t, "User successfully logged in.", data["message"])
	token := data["token"].(map[string]any)

	_, err := ts.tokens.Parse(token["access"].(string), domain.TokenKindAccess)
	assert.NoError(t, err)
	_, err = ts.tokens.Parse(token["refresh"].(string), domain.TokenKindRefresh)
	assert.NoError(t, err)
}

func TestRefresh_RequiresRefreshToken(t *testing.T) {
	ts := newTestServer(t)
	pair := ts.pair(t)

	status, body := ts.do(t, http.MethodPost, "/v1/users/refresh", pair.Access.Signed, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized", body["error"])

	status, body = ts.do(t, http.MethodPost, "/v1/users/refresh", pair.Refresh.Signed, "")
	require.Equal(t, http.StatusOK, status)
	access := body["data"].(map[string]any)["token"].(map[string]any)["access"].(string)

	claims, err := ts.tokens.Parse(access, domain.TokenKindAccess)
	require.NoError(t, err)
	assert.False(t, claims.Fresh)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodPost, "/v1/users/logout", ts.pair(t).Refresh.Signed, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User successfully logged out.", body["data"].(map[string]any)["message"])
}

func TestMe_RequiresAccessToken(t *testing.T) {
	ts := newTestServer(t)
	pair := ts.pair(t)

	status, _ := ts.do(t, http.MethodGet, "/v1/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.do(t, http.MethodGet, "/v1/users/me", pair.Refresh.Signed, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := ts.do(t, http.MethodGet, "/v1/users/me", pair.Access.Signed, "")
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "Jane", data["firstname"])
	assert.Nil(t, data["lastname"])
	assert.Contains(t, data, "lastname")
	assert.Equal(t, "user", data["role"])
}

func TestModifyAndDeleteMe(t *testing.T) {
	ts := newTestServer(t)
	access := ts.pair(t).Access.Signed

	status, body := ts.do(t, http.MethodPatch, "/v1/users/me", access, `{"age":"35"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User successfully modified.", body["data"].(map[string]any)["message"])
	require.NotNil(t, ts.accounts.modified.Age)
	assert.Equal(t, "35", *ts.accounts.modified.Age)
	assert.Nil(t, ts.accounts.modified.Email)

	status, body = ts.do(t, http.MethodDelete, "/v1/users/me", access, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User successfully deleted.", body["data"].(map[string]any)["message"])
}

func TestPanicIsRecovered(t *testing.T) {
	ts := newTestServer(t)
	ts.accounts.panic = true

	status, body := ts.do(t, http.MethodGet, "/v1/users/me", ts.pair(t).Access.Signed, "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal Server Error", body["error"])
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	ts := newTestServer(t)
	ts.accounts.err = errors.New("pq: connection refused to 10.0.0.5")

	status, body := ts.do(t, http.MethodDelete, "/v1/users/me", ts.pair(t).Access.Signed, "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", body["message"])
}

func TestTickets(t *testing.T) {
	ts := newTestServer(t)
	access := ts.pair(t).Access.Signed

	status, body := ts.do(t, http.MethodGet, "/v1/tickets", access, "")
	require.Equal(t, http.StatusOK, status)
	showings := body["data"].(map[string]any)["showings"].([]any)
	require.Len(t, showings, 1)
	assert.Equal(t, map[string]any{"seat": "A1"}, showings[0])

	status, body = ts.do(t, http.MethodGet, "/v1/tickets/t1", access, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"seat": "A1"}, body["data"].(map[string]any)["showing"])

	status, body = ts.do(t, http.MethodGet, "/v1/tickets/nope", access, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "The specified ticket was not found (nope).", body["message"])

	status, body = ts.do(t, http.MethodPost, "/v1/tickets", access, `{"showing":"front row"}`)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "t2", body["data"].(map[string]any)["uuid"])
	assert.JSONEq(t, `"front row"`, string(ts.tickets.created))

	status, body = ts.do(t, http.MethodPost, "/v1/tickets", access, `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing value: showing", body["message"])

	status, body = ts.do(t, http.MethodDelete, "/v1/tickets/nope", access, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Ticket nope not found.", body["message"])

	status, body = ts.do(t, http.MethodDelete, "/v1/tickets/t1", access, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ticket successfully deleted.", body["data"].(map[string]any)["message"])

	status, body = ts.do(t, http.MethodDelete, "/v1/tickets", access, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Tickets successfully deleted.", body["data"].(map[string]any)["message"])
}

func TestTickets_RequireAccessToken(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodGet, "/v1/tickets", ts.pair(t).Refresh.Signed, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Only access tokens are allowed", body["message"])
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not Found", body["error"])
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.do(t, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, status)

	status, body := ts.do(t, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, status)
	deps := body["data"].(map[string]any)["dependencies"].(map[string]any)
	assert.Equal(t, "ok", deps["redis"])

	ts.redisErr = errors.New("redis down")
	status, body = ts.do(t, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "redis down", body["dependencies"].(map[string]any)["redis"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/health/live", "", "")

	resp, err := ts.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "account_service_http_requests_total")
}
