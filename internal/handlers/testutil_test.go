package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/helping-hands-dev/helping-hands/db"
	"github.com/helping-hands-dev/helping-hands/internal/auth"
	"github.com/helping-hands-dev/helping-hands/internal/config"
	"github.com/helping-hands-dev/helping-hands/internal/feed"
	"github.com/helping-hands-dev/helping-hands/internal/ledger"
	"github.com/helping-hands-dev/helping-hands/internal/mailer"
	"github.com/helping-hands-dev/helping-hands/internal/models"
	"github.com/helping-hands-dev/helping-hands/internal/router"
)

type fakeMailer struct {
	mu   sync.Mutex
	fail bool
	sent []mailer.Message
}

func (f *fakeMailer) Send(msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return errors.New("smtp unavailable")
	}

	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

func (f *fakeMailer) bySubject(subject string) (mailer.Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].Subject == subject {
			return f.sent[i], true
		}
	}
	return mailer.Message{}, false
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	mail   *fakeMailer
	cfg    config.Config
}

func setupServer(t *testing.T) *testServer {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, auth.InitJWTSecret())

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(database))

	mail := &fakeMailer{}

	cfg := config.Config{
		FrontendURL:       "http://localhost:5173",
		MinDonationAmount: 100,
		MinRequestAmount:  1000,
		ResetTokenTTL:     10 * time.Minute,
	}

	r := router.NewRouter(router.Dependencies{
		DB:     database,
		Mailer: mail,
		Feed:   feed.NewHub(nil),
		Ledger: ledger.NewCoordinator(database),
		Config: cfg,
	})

	return &testServer{router: r, db: database, mail: mail, cfg: cfg}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	return body
}

func data(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	body := decode(t, w)
	payload, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", w.Body.String())

	return payload
}

func (s *testServer) register(t *testing.T, name, email string) string {
	t.Helper()

	w := s.do(t, "POST", "/api/auth/register", gin.H{
		"name":     name,
		"email":    email,
		"phone":    "0123456789",
		"password": "secret123",
	}, "")
	require.Equal(t, 201, w.Code, w.Body.String())

	return data(t, w)["token"].(string)
}

func (s *testServer) registerAdmin(t *testing.T, email string) string {
	t.Helper()

	token := s.register(t, "Admin", email)

	err := s.db.Model(&models.User{}).
		Where("email = ?", email).
		Update("role", models.RoleAdministrator).Error
	require.NoError(t, err)

	return token
}

func (s *testServer) createRequest(t *testing.T, token string) uint {
	t.Helper()

	w := s.do(t, "POST", "/api/requests", gin.H{
		"title":          "Medical help needed",
		"category":       "medical",
		"description":    "Surgery costs for a family member",
		"amountNeeded":   5000,
		"requesterName":  "Alice",
		"requesterEmail": "alice@example.com",
		"requesterPhone": "0123456789",
		"location":       gin.H{"city": "Pune", "state": "Maharashtra"},
	}, token)
	require.Equal(t, 201, w.Code, w.Body.String())

	return uint(data(t, w)["id"].(float64))
}

func (s *testServer) approve(t *testing.T, adminToken string, requestID uint) {
	t.Helper()

	w := s.do(t, "PUT", requestPath(requestID)+"/approve", nil, adminToken)
	require.Equal(t, 200, w.Code, w.Body.String())
}

func (s *testServer) donate(t *testing.T, token string, amount int64, requestID *uint) map[string]interface{} {
	t.Helper()

	payload := gin.H{
		"amount":        amount,
		"cause":         "medical",
		"paymentMethod": "card",
		"donorName":     "Generous Donor",
		"donorEmail":    "donor@example.com",
	}
	if requestID != nil {
		payload["requestId"] = *requestID
	}

	w := s.do(t, "POST", "/api/donations", payload, token)
	require.Equal(t, 201, w.Code, w.Body.String())

	return data(t, w)
}

func requestPath(id uint) string {
	return "/api/requests/" + itoa(id)
}

func itoa(id uint) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
