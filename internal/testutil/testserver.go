package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"picoworker_backend/internal/app"
	"picoworker_backend/internal/config"
	"picoworker_backend/internal/models"
	"picoworker_backend/internal/services"
	"picoworker_backend/internal/services/dto"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type TestServer struct {
	Server  *httptest.Server
	DB      *gorm.DB
	App     *app.Application
	Config  *config.Config
	Gateway *FakeGateway
}

// NewTestServer поднимает роутер поверх отдельной sqlite базы
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	cfg := TestConfig()
	db := NewTestDB(t)
	gateway := &FakeGateway{}

	ctx, cancel := context.WithCancel(context.Background())
	application := app.SetupRouter(ctx, cfg, db, services.Dependencies{Gateway: gateway})
	server := httptest.NewServer(application.Router)

	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	return &TestServer{
		Server:  server,
		DB:      db,
		App:     application,
		Config:  cfg,
		Gateway: gateway,
	}
}

// SendRequest отправляет JSON запрос и возвращает ответ с телом
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	t.Helper()
	return ts.SendRequestWithHeaders(t, method, path, token, body, nil)
}

// SendRequestWithHeaders - SendRequest с дополнительными заголовками
func (ts *TestServer) SendRequestWithHeaders(t *testing.T, method, path, token string, body interface{}, headers map[string]string) (*http.Response, string) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err, "Ошибка кодирования JSON для запроса")
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	require.NoError(t, err, "Ошибка создания HTTP-запроса")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := ts.Server.Client().Do(req)
	require.NoError(t, err, "Ошибка отправки HTTP-запроса")
	defer res.Body.Close()

	resBodyBytes, err := io.ReadAll(res.Body)
	require.NoError(t, err, "Ошибка чтения тела ответа")

	return res, string(resBodyBytes)
}

// RegisterAndLogin регистрирует пользователя через сервис и выдает токен
func (ts *TestServer) RegisterAndLogin(t *testing.T, email string, role models.UserRole) string {
	t.Helper()
	ctx := context.Background()

	if role == models.UserRoleAdmin {
		require.NoError(t, ts.App.Services.UserService.EnsureAdmin(ctx, ts.DB, email))
	} else {
		_, err := ts.App.Services.UserService.Register(ctx, ts.DB, &dto.RegisterUserRequest{
			Email: email,
			Name:  email,
			Role:  role,
		})
		require.NoError(t, err, "Регистрация тестового пользователя не должна падать")
	}

	resp, err := ts.App.Services.AuthService.IssueToken(ctx, ts.DB, &dto.TokenRequest{Email: email, IssuerKey: ts.Config.JWT.IssuerKey})
	require.NoError(t, err, "Выдача токена не должна падать")
	return resp.Token
}
