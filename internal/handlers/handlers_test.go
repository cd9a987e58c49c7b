package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zeroscroll/zeroscroll/internal/auth"
	"github.com/zeroscroll/zeroscroll/internal/config"
	"github.com/zeroscroll/zeroscroll/internal/mail"
	"github.com/zeroscroll/zeroscroll/internal/middleware"
	"github.com/zeroscroll/zeroscroll/internal/models"
	"github.com/zeroscroll/zeroscroll/internal/router"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testApp struct {
	t      *testing.T
	db     *gorm.DB
	tokens *auth.TokenService
	router *gin.Engine
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := database.AutoMigrate(&models.User{}, &models.Task{}, &models.Session{}); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	cfg := &config.Config{
		Port:               "0",
		ClientURL:          "http://localhost:5173",
		AccessTokenSecret:  "test-access-secret",
		RefreshTokenSecret: "test-refresh-secret",
		EmailTokenSecret:   "test-email-secret",
		ResetTokenSecret:   "test-reset-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    30 * 24 * time.Hour,
		EmailTokenTTL:      10 * time.Minute,
		ResetTokenTTL:      10 * time.Minute,
	}

	tokens := auth.NewTokenService(cfg)
	mailer := mail.NewMailer("", "noreply@test.local", cfg.ClientURL) // dev mode, logs only

	return &testApp{
		t:      t,
		db:     database,
		tokens: tokens,
		router: router.NewRouter(cfg, database, tokens, mailer, middleware.NewMemoryStore()),
	}
}

// createUser inserts a user directly, bypassing the signup limiter and
// outbound mail.
func (a *testApp) createUser(email, username string, verified bool) *models.User {
	a.t.Helper()

	hash, err := auth.HashPassword("Sup3r$ecret!")
	if err != nil {
		a.t.Fatalf("hashing password: %v", err)
	}

	user := &models.User{
		Email:         email,
		Username:      username,
		PasswordHash:  hash,
		Verified:      verified,
		TimerSettings: models.DefaultTimerSettings(),
		Preferences:   models.DefaultPreferences(),
	}

	if err := a.db.Create(user).Error; err != nil {
		a.t.Fatalf("creating user: %v", err)
	}

	return user
}

func (a *testApp) accessToken(userID uint) string {
	a.t.Helper()

	token, err := a.tokens.Sign(auth.TokenAccess, userID)
	if err != nil {
		a.t.Fatalf("signing access token: %v", err)
	}

	return token
}

func (a *testApp) request(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
}

func TestSignupAndLoginFlow(t *testing.T) {
	app := newTestApp(t)

	w := app.request("POST", "/api/auth/signup", "", gin.H{
		"email":    "alice@example.com",
		"username": "alice",
		"password": "Sup3r$ecret!",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("signup status = %d, body %s", w.Code, w.Body.String())
	}

	// Unverified accounts cannot log in.
	w = app.request("POST", "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "Sup3r$ecret!",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("unverified login status = %d, want 403", w.Code)
	}

	var user models.User
	if err := app.db.Where("email = ?", "alice@example.com").First(&user).Error; err != nil {
		t.Fatalf("fetching signed-up user: %v", err)
	}

	emailToken, err := app.tokens.Sign(auth.TokenEmail, user.ID)
	if err != nil {
		t.Fatalf("signing email token: %v", err)
	}

	w = app.request("GET", "/api/auth/verify-email?token="+emailToken, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify-email status = %d, body %s", w.Code, w.Body.String())
	}

	w = app.request("POST", "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "Sup3r$ecret!",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	decodeJSON(t, w, &resp)
	if resp.AccessToken == "" {
		t.Error("login response missing accessToken")
	}

	foundRefreshCookie := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "refreshToken" && c.Value != "" && c.HttpOnly {
			foundRefreshCookie = true
		}
	}
	if !foundRefreshCookie {
		t.Error("login did not set an HTTP-only refresh cookie")
	}
}

func TestSignupRejectsWeakPassword(t *testing.T) {
	app := newTestApp(t)

	w := app.request("POST", "/api/auth/signup", "", gin.H{
		"email":    "bob@example.com",
		"username": "bob",
		"password": "weakpassword",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSignupDistinguishesCollisions(t *testing.T) {
	app := newTestApp(t)
	app.createUser("carol@example.com", "carol", true)

	w := app.request("POST", "/api/auth/signup", "", gin.H{
		"email":    "carol@example.com",
		"username": "carol2",
		"password": "Sup3r$ecret!",
	})
	var resp struct {
		Error string `json:"error"`
	}
	decodeJSON(t, w, &resp)
	if w.Code != http.StatusBadRequest || resp.Error != "Email already registered" {
		t.Errorf("email collision: status %d, error %q", w.Code, resp.Error)
	}

	w = app.request("POST", "/api/auth/signup", "", gin.H{
		"email":    "carol2@example.com",
		"username": "carol",
		"password": "Sup3r$ecret!",
	})
	decodeJSON(t, w, &resp)
	if w.Code != http.StatusBadRequest || resp.Error != "Username already taken" {
		t.Errorf("username collision: status %d, error %q", w.Code, resp.Error)
	}
}

func TestLoginRateLimited(t *testing.T) {
	app := newTestApp(t)
	app.createUser("dave@example.com", "dave", true)

	for i := 0; i < 5; i++ {
		w := app.request("POST", "/api/auth/login", "", gin.H{
			"email":    "dave@example.com",
			"password": "wrong-password",
		})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("attempt %d: status = %d, want 400", i+1, w.Code)
		}
	}

	w := app.request("POST", "/api/auth/login", "", gin.H{
		"email":    "dave@example.com",
		"password": "wrong-password",
	})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("sixth attempt status = %d, want 429", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	w := app.request("GET", "/api/tasks", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d, want 401", w.Code)
	}

	w = app.request("GET", "/api/tasks", "not-a-real-token", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("bad token: status = %d, want 403", w.Code)
	}
}

func TestTaskCRUDAndOwnership(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser("alice@example.com", "alice", true)
	mallory := app.createUser("mallory@example.com", "mallory", true)
	aliceToken := app.accessToken(alice.ID)
	malloryToken := app.accessToken(mallory.ID)

	w := app.request("POST", "/api/tasks", aliceToken, gin.H{
		"title":    "Write report",
		"priority": "high",
		"tags":     []string{"writing", "deep"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}

	var created struct {
		Task models.Task `json:"task"`
	}
	decodeJSON(t, w, &created)
	taskID := created.Task.ID

	// Missing title is rejected.
	w = app.request("POST", "/api/tasks", aliceToken, gin.H{"priority": "low"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("create without title: status = %d, want 400", w.Code)
	}

	// Partial update flips completion.
	w = app.request("PATCH", fmt.Sprintf("/api/tasks/%d", taskID), aliceToken, gin.H{"completed": true})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", w.Code, w.Body.String())
	}
	var updated struct {
		Task models.Task `json:"task"`
	}
	decodeJSON(t, w, &updated)
	if !updated.Task.Completed || updated.Task.CompletedAt == nil {
		t.Errorf("expected completed task with timestamp, got %+v", updated.Task)
	}
	if updated.Task.Title != "Write report" {
		t.Errorf("partial update clobbered title: %q", updated.Task.Title)
	}

	// Another user's token sees not-found, not forbidden.
	for _, method := range []string{"GET", "PATCH", "DELETE"} {
		w = app.request(method, fmt.Sprintf("/api/tasks/%d", taskID), malloryToken, gin.H{})
		if w.Code != http.StatusNotFound {
			t.Errorf("%s as non-owner: status = %d, want 404", method, w.Code)
		}
	}

	w = app.request("DELETE", fmt.Sprintf("/api/tasks/%d", taskID), aliceToken, nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete status = %d", w.Code)
	}

	w = app.request("GET", fmt.Sprintf("/api/tasks/%d", taskID), aliceToken, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", w.Code)
	}
}

func TestListTasksNewestFirst(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser("alice@example.com", "alice", true)
	token := app.accessToken(alice.ID)

	older := models.Task{UserID: alice.ID, Title: "older"}
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := models.Task{UserID: alice.ID, Title: "newer"}

	if err := app.db.Create(&older).Error; err != nil {
		t.Fatalf("seeding: %v", err)
	}
	if err := app.db.Create(&newer).Error; err != nil {
		t.Fatalf("seeding: %v", err)
	}

	w := app.request("GET", "/api/tasks", token, nil)
	var resp struct {
		Tasks []models.Task `json:"tasks"`
	}
	decodeJSON(t, w, &resp)

	if len(resp.Tasks) != 2 || resp.Tasks[0].Title != "newer" {
		t.Errorf("expected newest first, got %+v", resp.Tasks)
	}
}

func TestSessionLifecycle(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser("alice@example.com", "alice", true)
	token := app.accessToken(alice.ID)

	// Invalid session type.
	w := app.request("POST", "/api/sessions", token, gin.H{
		"session_type":     "NAP",
		"planned_duration": 25,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid type: status = %d, want 400", w.Code)
	}

	// Missing planned duration.
	w = app.request("POST", "/api/sessions", token, gin.H{"session_type": "FOCUS"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing duration: status = %d, want 400", w.Code)
	}

	w = app.request("POST", "/api/sessions", token, gin.H{
		"session_type":     "FOCUS",
		"planned_duration": 25,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d, body %s", w.Code, w.Body.String())
	}

	var started struct {
		Session models.Session `json:"session"`
	}
	decodeJSON(t, w, &started)
	s := started.Session
	if s.Completed || s.CountsTowardStats || s.EndTime != nil || s.ActualDuration != nil {
		t.Errorf("fresh session has frozen outcome fields: %+v", s)
	}

	// Stop requires all three outcome fields.
	w = app.request("PATCH", fmt.Sprintf("/api/sessions/%d", s.ID), token, gin.H{
		"actual_duration": 10,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("partial stop: status = %d, want 400", w.Code)
	}

	w = app.request("PATCH", fmt.Sprintf("/api/sessions/%d", s.ID), token, gin.H{
		"actual_duration":     10,
		"completed":           false,
		"counts_toward_stats": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("stop status = %d, body %s", w.Code, w.Body.String())
	}

	var stopped struct {
		Session models.Session `json:"session"`
	}
	decodeJSON(t, w, &stopped)
	if stopped.Session.EndTime == nil || stopped.Session.ActualDuration == nil || *stopped.Session.ActualDuration != 10 {
		t.Errorf("stop did not freeze outcome: %+v", stopped.Session)
	}
	if stopped.Session.Completed || !stopped.Session.CountsTowardStats {
		t.Errorf("outcome flags wrong: %+v", stopped.Session)
	}
}

func TestStopSessionTwiceRejected(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser("alice@example.com", "alice", true)
	token := app.accessToken(alice.ID)

	w := app.request("POST", "/api/sessions", token, gin.H{
		"session_type":     "FOCUS",
		"planned_duration": 25,
	})
	var started struct {
		Session models.Session `json:"session"`
	}
	decodeJSON(t, w, &started)
	id := started.Session.ID

	w = app.request("PATCH", fmt.Sprintf("/api/sessions/%d", id), token, gin.H{
		"actual_duration":     20,
		"completed":           true,
		"counts_toward_stats": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("first stop status = %d", w.Code)
	}

	// Second stop is rejected even when reporting a different outcome.
	w = app.request("PATCH", fmt.Sprintf("/api/sessions/%d", id), token, gin.H{
		"actual_duration":     99,
		"completed":           false,
		"counts_toward_stats": false,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("second stop status = %d, want 400", w.Code)
	}

	// The frozen outcome is untouched.
	var session models.Session
	if err := app.db.First(&session, id).Error; err != nil {
		t.Fatalf("reloading session: %v", err)
	}
	if session.ActualDuration == nil || *session.ActualDuration != 20 || !session.Completed || !session.CountsTowardStats {
		t.Errorf("rejected stop mutated the session: %+v", session)
	}
}

func TestSessionOwnershipNeverLeaks(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser("alice@example.com", "alice", true)
	mallory := app.createUser("mallory@example.com", "mallory", true)

	session := models.Session{
		UserID:          alice.ID,
		SessionType:     models.SessionTypeFocus,
		PlannedDuration: 25,
		StartTime:       time.Now().UTC(),
	}
	if err := app.db.Create(&session).Error; err != nil {
		t.Fatalf("seeding session: %v", err)
	}

	malloryToken := app.accessToken(mallory.ID)

	w := app.request("GET", fmt.Sprintf("/api/sessions/%d", session.ID), malloryToken, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("cross-user get: status = %d, want 404", w.Code)
	}

	w = app.request("PATCH", fmt.Sprintf("/api/sessions/%d", session.ID), malloryToken, gin.H{
		"actual_duration":     10,
		"completed":           true,
		"counts_toward_stats": true,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("cross-user stop: status = %d, want 404", w.Code)
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser("alice@example.com", "alice", true)
	bob := app.createUser("bob@example.com", "bob", true)

	seed := func(userID uint) {
		if err := app.db.Create(&models.Task{UserID: userID, Title: "task"}).Error; err != nil {
			t.Fatalf("seeding task: %v", err)
		}
		if err := app.db.Create(&models.Session{
			UserID:          userID,
			SessionType:     models.SessionTypeFocus,
			PlannedDuration: 25,
			StartTime:       time.Now().UTC(),
		}).Error; err != nil {
			t.Fatalf("seeding session: %v", err)
		}
	}
	seed(alice.ID)
	seed(bob.ID)

	w := app.request("DELETE", "/api/auth/delete-account", app.accessToken(alice.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete-account status = %d, body %s", w.Code, w.Body.String())
	}

	count := func(model any, userID uint) int64 {
		var n int64
		if err := app.db.Model(model).Where("user_id = ?", userID).Count(&n).Error; err != nil {
			t.Fatalf("counting: %v", err)
		}
		return n
	}

	if n := count(&models.Task{}, alice.ID); n != 0 {
		t.Errorf("alice has %d residual tasks", n)
	}
	if n := count(&models.Session{}, alice.ID); n != 0 {
		t.Errorf("alice has %d residual sessions", n)
	}

	var users int64
	app.db.Model(&models.User{}).Where("id = ?", alice.ID).Count(&users)
	if users != 0 {
		t.Error("alice's user record survived deletion")
	}

	// Bob's records are untouched.
	if n := count(&models.Task{}, bob.ID); n != 1 {
		t.Errorf("bob has %d tasks, want 1", n)
	}
	if n := count(&models.Session{}, bob.ID); n != 1 {
		t.Errorf("bob has %d sessions, want 1", n)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser("alice@example.com", "alice", true)
	token := app.accessToken(alice.ID)

	w := app.request("GET", "/api/auth/settings", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get settings status = %d", w.Code)
	}

	var settings struct {
		TimerSettings models.TimerSettings `json:"timer_settings"`
		Preferences   models.Preferences   `json:"preferences"`
	}
	decodeJSON(t, w, &settings)
	if settings.TimerSettings.Focus.Value != 50 {
		t.Errorf("default focus preset = %+v", settings.TimerSettings.Focus)
	}

	w = app.request("PATCH", "/api/auth/settings/timer", token, gin.H{
		"focus": gin.H{"value": 25},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch timer status = %d, body %s", w.Code, w.Body.String())
	}

	w = app.request("PATCH", "/api/auth/settings/preferences", token, gin.H{
		"daily_goal_minutes": 300,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch preferences status = %d, body %s", w.Code, w.Body.String())
	}

	var user models.User
	if err := app.db.First(&user, alice.ID).Error; err != nil {
		t.Fatalf("reloading user: %v", err)
	}
	if user.TimerSettings.Focus.Value != 25 {
		t.Errorf("focus preset = %v, want 25", user.TimerSettings.Focus.Value)
	}
	if user.TimerSettings.Break.Value != 10 {
		t.Errorf("break preset changed unexpectedly: %v", user.TimerSettings.Break.Value)
	}
	if user.Preferences.DailyGoalMinutes != 300 {
		t.Errorf("daily goal = %d, want 300", user.Preferences.DailyGoalMinutes)
	}
}

func TestChangePasswordClearsRefreshCookie(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser("alice@example.com", "alice", true)
	token := app.accessToken(alice.ID)

	w := app.request("POST", "/api/auth/change-password", token, gin.H{
		"currentPassword": "Sup3r$ecret!",
		"newPassword":     "N3w$ecret!!pass",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("change-password status = %d, body %s", w.Code, w.Body.String())
	}

	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "refreshToken" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("change-password did not clear the refresh cookie")
	}

	// Old password no longer works.
	w = app.request("POST", "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "Sup3r$ecret!",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("old password login status = %d, want 400", w.Code)
	}
}

func TestForgotPasswordNeverEnumerates(t *testing.T) {
	app := newTestApp(t)
	app.createUser("alice@example.com", "alice", true)

	known := app.request("POST", "/api/auth/forgot-password", "", gin.H{"email": "alice@example.com"})
	unknown := app.request("POST", "/api/auth/forgot-password", "", gin.H{"email": "nobody@example.com"})

	if known.Code != http.StatusOK || unknown.Code != http.StatusOK {
		t.Fatalf("statuses = %d and %d, want 200 for both", known.Code, unknown.Code)
	}
	if known.Body.String() != unknown.Body.String() {
		t.Errorf("responses differ: %s vs %s", known.Body.String(), unknown.Body.String())
	}
}

func TestResetPasswordFlow(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser("alice@example.com", "alice", true)

	resetToken, err := app.tokens.Sign(auth.TokenReset, alice.ID)
	if err != nil {
		t.Fatalf("signing reset token: %v", err)
	}

	// Policy still applies to the replacement password.
	w := app.request("POST", "/api/auth/reset-password", "", gin.H{
		"token":       resetToken,
		"newPassword": "tooweak",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("weak replacement status = %d, want 400", w.Code)
	}

	w = app.request("POST", "/api/auth/reset-password", "", gin.H{
		"token":       resetToken,
		"newPassword": "N3w$ecret!!pass",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("reset status = %d, body %s", w.Code, w.Body.String())
	}

	// A token of the wrong class is rejected with the reset message.
	accessToken := app.accessToken(alice.ID)
	w = app.request("POST", "/api/auth/reset-password", "", gin.H{
		"token":       accessToken,
		"newPassword": "N3w$ecret!!pass",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token class status = %d, want 401", w.Code)
	}

	w = app.request("POST", "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "N3w$ecret!!pass",
	})
	if w.Code != http.StatusOK {
		t.Errorf("login with new password status = %d, body %s", w.Code, w.Body.String())
	}
}
