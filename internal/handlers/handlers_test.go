package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/xuxiaoleilancy/ai-codehub/internal/apiclient"
	"github.com/xuxiaoleilancy/ai-codehub/internal/config"
	"github.com/xuxiaoleilancy/ai-codehub/internal/credstore"
	"github.com/xuxiaoleilancy/ai-codehub/internal/handlers"
	"github.com/xuxiaoleilancy/ai-codehub/internal/server"
	"github.com/xuxiaoleilancy/ai-codehub/internal/session"
	"github.com/xuxiaoleilancy/ai-codehub/internal/views"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const navbarFragment = `<nav class="navbar">
<div class="guest-buttons"><a href="/login" data-i18n="login">Login</a></div>
<div class="user-buttons"><span class="username"></span><a href="#" id="logout-button" data-i18n="logout">Logout</a></div>
</nav>`

// fakeBackend stands in for the model-management REST API.
type fakeBackend struct {
	mu           sync.Mutex
	refreshFails bool
	refreshes    int
	uploads      []string
	updates      map[string]url.Values
	deletes      []string
	logouts      int
}

func (b *fakeBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "alice" || body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Incorrect username or password"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"tok-1","token_type":"bearer","username":"alice","is_superuser":false,"expires_in":900}`)
	})
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] == "taken" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"detail":"Username already registered"}`)
			return
		}
		_, _ = io.WriteString(w, `{"username":"`+body["username"]+`","email":"`+body["email"]+`","is_superuser":false}`)
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.refreshes++
		if b.refreshFails {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Token expired"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"tok-2","expires_in":900}`)
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.logouts++
		b.mu.Unlock()
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	})
	mux.HandleFunc("GET /api/models/list", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer tok-") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `[
{"name":"resnet50","description":"residual network","version":"1.0","framework":"pytorch","task_type":"classification","file_size":2048},
{"name":"yolo","description":"object detector","version":"8","framework":"pytorch","task_type":"detection","file_size":4096},
{"name":"bert","description":"","version":"2","framework":"tensorflow","task_type":"nlp","file_size":0}
]`)
	})
	mux.HandleFunc("POST /api/models/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("upload ParseMultipartForm() error = %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		b.uploads = append(b.uploads, r.FormValue("name"))
		b.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("GET /api/models/{name}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("name") != "resnet50" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Model not found"}`)
			return
		}
		_, _ = io.WriteString(w, `{"name":"resnet50","description":"residual network","version":"1.0","framework":"pytorch","task_type":"classification","created_by":"alice","created_at":"2024-03-01T10:20:30","file_size":1536}`)
	})
	mux.HandleFunc("PUT /api/models/{name}", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("update ParseMultipartForm() error = %v", err)
		}
		b.mu.Lock()
		b.updates[r.PathValue("name")] = r.MultipartForm.Value
		b.mu.Unlock()
	})
	mux.HandleFunc("DELETE /api/models/{name}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.deletes = append(b.deletes, r.PathValue("name"))
		b.mu.Unlock()
	})
	mux.HandleFunc("GET /components/navbar.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, navbarFragment)
	})
	return mux
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	t       *testing.T
	app     *httptest.Server
	backend *fakeBackend
	store   *credstore.Memory
	clock   *clock
	browser *http.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	backend := &fakeBackend{updates: make(map[string]url.Values)}
	backendSrv := httptest.NewServer(backend.handler(t))
	t.Cleanup(backendSrv.Close)

	cfg := &config.AppConfig{
		Environment: "test",
		Backend: config.BackendConfig{
			BaseURL:      backendSrv.URL,
			Timeout:      5 * time.Second,
			LoginPath:    "/api/auth/login",
			RegisterPath: "/api/auth/register",
			RefreshPath:  "/api/auth/refresh",
			LogoutPath:   "/api/auth/logout",
			MePath:       "/api/auth/me",
			ModelsPath:   "/api/models",
			NavbarPath:   "/components/navbar.html",
		},
		CredStore: config.CredStoreConfig{IdleTTL: time.Hour},
		Session: config.SessionConfig{
			DefaultTTL:      15 * time.Minute,
			ExpiryThreshold: 5 * time.Minute,
			CheckInterval:   time.Minute,
			CheckTimeout:    time.Second,
			CookieSecret:    "test-secret",
		},
		I18n: config.I18nConfig{DefaultLanguage: "en"},
	}

	renderer, err := views.New()
	if err != nil {
		t.Fatalf("views.New() error = %v", err)
	}

	clk := &clock{now: time.Now()}
	store := credstore.NewMemory()
	client := apiclient.New(cfg.Backend, zerolog.Nop())
	sessions := session.NewFactory(store, session.NewBackendRefresher(client, cfg.Session.DefaultTTL), cfg.Session.ExpiryThreshold, zerolog.Nop())
	sessions.SetClock(clk.Now)

	handlerSet := handlers.NewHandlerSet(zerolog.Nop(), client, nil, renderer, cfg)
	app := httptest.NewServer(server.NewHTTPServer(cfg, zerolog.Nop(), sessions, handlerSet).Handler())
	t.Cleanup(app.Close)

	jar, _ := cookiejar.New(nil)
	return &harness{
		t:       t,
		app:     app,
		backend: backend,
		store:   store,
		clock:   clk,
		browser: &http.Client{Jar: jar},
	}
}

func (h *harness) get(path string) (*http.Response, string) {
	h.t.Helper()
	resp, err := h.browser.Get(h.app.URL + path)
	if err != nil {
		h.t.Fatalf("GET %s error = %v", path, err)
	}
	return resp, readBody(h.t, resp)
}

func (h *harness) getNoFollow(path string) *http.Response {
	h.t.Helper()
	client := *h.browser
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	resp, err := client.Get(h.app.URL + path)
	if err != nil {
		h.t.Fatalf("GET %s error = %v", path, err)
	}
	_ = resp.Body.Close()
	return resp
}

func (h *harness) post(path string, form url.Values) (*http.Response, string) {
	h.t.Helper()
	resp, err := h.browser.PostForm(h.app.URL+path, form)
	if err != nil {
		h.t.Fatalf("POST %s error = %v", path, err)
	}
	return resp, readBody(h.t, resp)
}

var csrfPattern = regexp.MustCompile(`<meta name="csrf-token" content="([^"]+)"/>`)

// csrf loads the home page and returns the token every page carries.
func (h *harness) csrf() string {
	h.t.Helper()
	_, body := h.get("/")
	m := csrfPattern.FindStringSubmatch(body)
	if m == nil {
		h.t.Fatalf("no csrf token in home page:\n%s", body)
	}
	return m[1]
}

func (h *harness) login() {
	h.t.Helper()
	h.loginExpecting("Login successful!")
}

// loginExpecting signs in as alice and checks the landing page shows want.
func (h *harness) loginExpecting(want string) {
	h.t.Helper()
	_, body := h.post("/login", url.Values{
		"csrf_token": {h.csrf()},
		"username":   {"alice"},
		"password":   {"secret"},
	})
	if !strings.Contains(body, want) {
		h.t.Fatalf("login did not succeed:\n%s", body)
	}
}

func (h *harness) onlyClient() session.Session {
	h.t.Helper()
	clients, err := h.store.Clients(context.Background())
	if err != nil || len(clients) != 1 {
		h.t.Fatalf("Clients() = %v, %v, want exactly one", clients, err)
	}
	factory := session.NewFactory(h.store, nil, 0, zerolog.Nop())
	sess, err := factory.For(clients[0]).Current(context.Background())
	if err != nil {
		h.t.Fatalf("Current() error = %v", err)
	}
	return sess
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body error = %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, body string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestLoginStoresSessionAndShowsUsername(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.login()

	sess := h.onlyClient()
	if sess.Token != "tok-1" || sess.Username != "alice" {
		t.Fatalf("session = %+v", sess)
	}
	if remaining := sess.Expiry.Sub(h.clock.Now()); remaining < 14*time.Minute || remaining > 15*time.Minute {
		t.Fatalf("remaining = %v, want about 15m", remaining)
	}

	resp, body := h.get("/models")
	if resp.StatusCode != http.StatusOK || resp.Request.URL.Path != "/models" {
		t.Fatalf("GET /models ended at %s with %d", resp.Request.URL.Path, resp.StatusCode)
	}
	assertContains(t, body,
		`<span class="username">alice</span>`,
		`<div class="guest-buttons" style="display:none">`,
		`data-model-name="resnet50"`,
	)
}

func TestLoginFailureShowsBackendDetail(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	resp, body := h.post("/login", url.Values{
		"csrf_token": {h.csrf()},
		"username":   {"alice"},
		"password":   {"wrong"},
	})
	if resp.Request.URL.Path != "/login" {
		t.Fatalf("ended at %s, want /login", resp.Request.URL.Path)
	}
	assertContains(t, body, "Incorrect username or password")
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	resp := h.getNoFollow("/models")
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Fatalf("GET /models = %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestExpiredSessionIsClearedAndRedirected(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.login()

	h.backend.mu.Lock()
	h.backend.refreshFails = true
	h.backend.mu.Unlock()
	h.clock.Advance(20 * time.Minute)

	resp, body := h.get("/models")
	if resp.Request.URL.Path != "/login" {
		t.Fatalf("ended at %s, want /login", resp.Request.URL.Path)
	}
	assertContains(t, body, "Your session has expired")

	if sess := h.onlyClient(); sess.Token != "" || !sess.Expiry.IsZero() || sess.Username != "" {
		t.Fatalf("session not cleared: %+v", sess)
	}
}

func TestExpiringSessionIsRefreshedInline(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.login()

	h.clock.Advance(12 * time.Minute)
	resp, _ := h.get("/models")
	if resp.Request.URL.Path != "/models" {
		t.Fatalf("ended at %s, want /models", resp.Request.URL.Path)
	}
	if sess := h.onlyClient(); sess.Token != "tok-2" {
		t.Fatalf("token = %q, want refreshed", sess.Token)
	}
}

func TestCatalogFilter(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.login()

	_, body := h.get("/models?search=RES&framework=&task=classification")
	assertContains(t, body, `data-model-name="resnet50"`, `<option value="classification" selected="">`)
	if strings.Contains(body, `data-model-name="yolo"`) || strings.Contains(body, `data-model-name="bert"`) {
		t.Fatalf("filter let through other models")
	}
}

func TestModelDetailsAndMissingModel(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.login()

	_, body := h.get("/models/resnet50")
	assertContains(t, body, "<span>1.5 KB</span>", "<span>alice</span>", "2024-03-01 10:20:30")

	resp, body := h.get("/models/nope")
	if resp.Request.URL.Path != "/models" {
		t.Fatalf("ended at %s, want /models", resp.Request.URL.Path)
	}
	assertContains(t, body, "Model not found")
}

func TestUploadUpdateDelete(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.login()
	token := h.csrf()

	// upload
	var buf strings.Builder
	boundary := "XBOUNDARYX"
	for _, field := range [][2]string{
		{"csrf_token", token}, {"name", "vit"}, {"version", "1"}, {"framework", "pytorch"}, {"task_type", "classification"},
	} {
		buf.WriteString("--" + boundary + "\r\nContent-Disposition: form-data; name=\"" + field[0] + "\"\r\n\r\n" + field[1] + "\r\n")
	}
	buf.WriteString("--" + boundary + "\r\nContent-Disposition: form-data; name=\"file\"; filename=\"vit.pt\"\r\nContent-Type: application/octet-stream\r\n\r\nweights\r\n")
	buf.WriteString("--" + boundary + "--\r\n")
	resp, err := h.browser.Post(h.app.URL+"/models", "multipart/form-data; boundary="+boundary, strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("POST /models error = %v", err)
	}
	body := readBody(t, resp)
	assertContains(t, body, "Model uploaded successfully")

	// update only the changed field
	_, body = h.post("/models/resnet50/update", url.Values{
		"csrf_token":           {token},
		"description":          {"residual network"},
		"original_description": {"residual network"},
		"version":              {"1.1"},
		"original_version":     {"1.0"},
	})
	assertContains(t, body, "Model updated successfully")

	// nothing changed
	_, body = h.post("/models/resnet50/update", url.Values{
		"csrf_token":           {token},
		"description":          {"same"},
		"original_description": {"same"},
		"version":              {"1.0"},
		"original_version":     {"1.0"},
	})
	assertContains(t, body, "Nothing to update")

	_, body = h.post("/models/resnet50/delete", url.Values{"csrf_token": {token}})
	assertContains(t, body, "Model deleted successfully")

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	if len(h.backend.uploads) != 1 || h.backend.uploads[0] != "vit" {
		t.Errorf("uploads = %v", h.backend.uploads)
	}
	update := h.backend.updates["resnet50"]
	if _, sent := update["description"]; sent || update.Get("version") != "1.1" {
		t.Errorf("update = %v", update)
	}
	if len(h.backend.deletes) != 1 || h.backend.deletes[0] != "resnet50" {
		t.Errorf("deletes = %v", h.backend.deletes)
	}
}

func TestPostWithoutCSRFTokenIsRejected(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	resp, _ := h.post("/login", url.Values{"username": {"alice"}, "password": {"secret"}})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func (h *harness) switchLanguage(code, next string) string {
	h.t.Helper()
	_, body := h.post("/language/"+code, url.Values{"csrf_token": {h.csrf()}, "next": {next}})
	return body
}

func TestLanguageSwitchPersists(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	body := h.switchLanguage("zh", "/login")
	assertContains(t, body, `<html lang="zh">`, `登录`)

	_, body = h.get("/")
	assertContains(t, body, `<html lang="zh">`, `欢迎使用 AI CodeHub`)

	body = h.switchLanguage("xx", "/")
	assertContains(t, body, `<html lang="zh">`)
}

func TestLanguageSwitchRequiresPostWithToken(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	if resp := h.getNoFollow("/language/zh"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET /language/zh = %d, want 404", resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodPost, h.app.URL+"/language/zh", strings.NewReader(url.Values{"next": {"/"}}.Encode()))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Referer", h.app.URL+"/login")
	resp, err := h.browser.Do(req)
	if err != nil {
		t.Fatalf("POST /language/zh error = %v", err)
	}
	body := readBody(t, resp)
	if resp.Request.URL.Path != "/login" {
		t.Fatalf("ended at %s, want /login", resp.Request.URL.Path)
	}
	assertContains(t, body, `<html lang="en">`, "Your form has expired. Please try again.")
}

func TestLogoutClearsSessionButKeepsLanguage(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.switchLanguage("zh", "/")
	h.loginExpecting("登录成功")

	_, body := h.post("/logout", url.Values{"csrf_token": {h.csrf()}})
	assertContains(t, body, "登出成功")

	sess := h.onlyClient()
	if sess.Token != "" || sess.Username != "" {
		t.Fatalf("session = %+v, want cleared", sess)
	}
	_, body = h.get("/")
	assertContains(t, body, `<html lang="zh">`)

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	if h.backend.logouts != 1 {
		t.Fatalf("backend logouts = %d, want 1", h.backend.logouts)
	}
}

func TestRegisterWithoutTokenReturnsToLogin(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	resp, body := h.post("/register", url.Values{
		"csrf_token": {h.csrf()},
		"username":   {"bob"},
		"email":      {"bob@example.com"},
		"password":   {"hunter22"},
	})
	if resp.Request.URL.Path != "/login" {
		t.Fatalf("ended at %s, want /login", resp.Request.URL.Path)
	}
	assertContains(t, body, "Registration successful! Please login.", `id="loginForm"`)

	_, body = h.post("/register", url.Values{
		"csrf_token": {h.csrf()},
		"username":   {"taken"},
		"password":   {"x"},
	})
	assertContains(t, body, "Username already registered", `id="registerForm"`)
}

func TestExportModels(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.login()

	resp, err := h.browser.Get(h.app.URL + "/export/models.xlsx?framework=pytorch")
	if err != nil {
		t.Fatalf("GET export error = %v", err)
	}
	body := readBody(t, resp)
	if ct := resp.Header.Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("Content-Type = %q", ct)
	}
	if !strings.HasPrefix(body, "PK") {
		t.Fatalf("body is not a zip container")
	}
}

func TestSessionEndpoints(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, body := h.get("/session")
	var status map[string]any
	if err := json.Unmarshal([]byte(body), &status); err != nil {
		t.Fatalf("decode /session: %v (%s)", err, body)
	}
	if status["state"] != "anonymous" || status["authenticated"] != false {
		t.Fatalf("anonymous status = %v", status)
	}

	h.login()
	h.clock.Advance(11 * time.Minute)

	_, body = h.post("/session/check", url.Values{"csrf_token": {h.csrf()}, "path": {"/models"}})
	var check struct {
		Refreshed bool `json:"refreshed"`
		Session   struct {
			State            string `json:"state"`
			Username         string `json:"username"`
			ExpiresInSeconds int64  `json:"expires_in_seconds"`
		} `json:"session"`
	}
	if err := json.Unmarshal([]byte(body), &check); err != nil {
		t.Fatalf("decode /session/check: %v (%s)", err, body)
	}
	if !check.Refreshed || check.Session.State != "authenticated" || check.Session.Username != "alice" {
		t.Fatalf("check = %+v", check)
	}
	// Remaining time follows the session clock, not the wall clock.
	if got := check.Session.ExpiresInSeconds; got < 899 || got > 900 {
		t.Fatalf("expires_in_seconds = %d, want 900", got)
	}
}

func TestUnknownRouteRendersNotFound(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	resp, body := h.get("/nowhere")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	assertContains(t, body, "Page not found")
}

func TestHealth(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, body := h.get("/healthz")
	var health map[string]string
	if err := json.Unmarshal([]byte(body), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["cache"] != "disabled" || health["backend"] != "ok" || health["status"] != "ok" {
		t.Fatalf("health = %v", health)
	}
}
