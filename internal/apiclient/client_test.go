package apiclient

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

	"github.com/rs/zerolog"

	"github.com/xuxiaoleilancy/ai-codehub/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.BackendConfig{
		BaseURL:      srv.URL,
		Timeout:      5 * time.Second,
		LoginPath:    "/api/auth/login",
		RegisterPath: "/api/auth/register",
		RefreshPath:  "/api/auth/refresh",
		LogoutPath:   "/api/auth/logout",
		MePath:       "/api/auth/me",
		ModelsPath:   "/api/models",
		NavbarPath:   "/components/navbar.html",
	}, zerolog.Nop())
}

func TestLoginSendsCredentials(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "alice" || body["password"] != "secret" {
			t.Errorf("body = %v", body)
		}
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","username":"alice","is_superuser":true}`))
	}))

	grant, err := client.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if grant.AccessToken != "tok" || grant.Username != "alice" || !grant.IsSuperuser {
		t.Fatalf("grant = %+v", grant)
	}
}

func TestLoginSurfacesBackendDetail(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"用户名或密码错误"}`))
	}))

	_, err := client.Login(context.Background(), "alice", "wrong")
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("Login() error = %v, want 401", err)
	}
	if got := Detail(err); got != "用户名或密码错误" {
		t.Fatalf("Detail() = %q", got)
	}
}

func TestDetailFromValidationList(t *testing.T) {
	t.Parallel()

	body := []byte(`{"detail":[{"loc":["body","email"],"msg":"field required"},{"msg":"too short"}]}`)
	if got := detailFrom(body); got != "field required; too short" {
		t.Fatalf("detailFrom() = %q", got)
	}
	if got := detailFrom([]byte("<html>oops</html>")); got != "" {
		t.Fatalf("detailFrom(html) = %q, want empty", got)
	}
	if got := detailFrom([]byte(`{"error":"missing_token"}`)); got != "missing_token" {
		t.Fatalf("detailFrom(error) = %q", got)
	}
}

func TestRefreshUsesBearerToken(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer old" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`{"access_token":"new","expires_in":900}`))
	}))

	grant, err := client.Refresh(context.Background(), "old")
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if grant.AccessToken != "new" || grant.ExpiresIn != 900 {
		t.Fatalf("grant = %+v", grant)
	}
}

func TestTransportFailure(t *testing.T) {
	t.Parallel()

	client := New(config.BackendConfig{
		BaseURL:     "http://127.0.0.1:1",
		Timeout:     time.Second,
		RefreshPath: "/api/auth/refresh",
	}, zerolog.Nop())

	_, err := client.Refresh(context.Background(), "tok")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Refresh() error = %v, want ErrTransport", err)
	}
}

func TestListAndGetModels(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/models/list", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"name":"resnet50","framework":"pytorch","task_type":"classification","created_at":"2024-03-01T10:20:30.123456","file_size":2048}]`))
	})
	mux.HandleFunc("/api/models/resnet50", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"resnet50","version":"1.0","created_at":"2024-03-01T10:20:30Z"}`))
	})
	client := newTestClient(t, mux)

	models, err := client.ListModels(context.Background(), "tok")
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 1 || models[0].TaskType != "classification" || models[0].FileSize != 2048 {
		t.Fatalf("models = %+v", models)
	}
	if models[0].CreatedAt.Year() != 2024 {
		t.Fatalf("CreatedAt = %v", models[0].CreatedAt)
	}

	model, err := client.GetModel(context.Background(), "tok", "resnet50")
	if err != nil {
		t.Fatalf("GetModel() error = %v", err)
	}
	if model.Version != "1.0" {
		t.Fatalf("model = %+v", model)
	}
}

func TestUploadModelStreamsMultipart(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/models/upload" {
			t.Errorf("path = %s", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile() error = %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "weights" || header.Filename != "model.pt" {
			t.Errorf("file = %q (%s)", data, header.Filename)
		}
		if got := r.FormValue("task_type"); got != "detection" {
			t.Errorf("task_type = %q", got)
		}
		w.WriteHeader(http.StatusCreated)
	}))

	err := client.UploadModel(context.Background(), "tok", UploadInput{
		Name:     "yolo",
		TaskType: "detection",
		FileName: "model.pt",
		File:     strings.NewReader("weights"),
	})
	if err != nil {
		t.Fatalf("UploadModel() error = %v", err)
	}
}

func TestUpdateModelSendsOnlySetFields(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
		}
		if _, ok := r.MultipartForm.Value["description"]; ok {
			t.Error("description sent although unset")
		}
		if got := r.FormValue("version"); got != "2.0" {
			t.Errorf("version = %q", got)
		}
	}))

	version := "2.0"
	if err := client.UpdateModel(context.Background(), "tok", "yolo", ModelUpdate{Version: &version}); err != nil {
		t.Fatalf("UpdateModel() error = %v", err)
	}
}

func TestNavbarReturnsRawHTML(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<nav class="navbar"></nav>`))
	}))

	got, err := client.Navbar(context.Background())
	if err != nil {
		t.Fatalf("Navbar() error = %v", err)
	}
	if got != `<nav class="navbar"></nav>` {
		t.Fatalf("Navbar() = %q", got)
	}
}
