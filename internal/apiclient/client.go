// Package apiclient is a typed client for the model-management REST backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/xuxiaoleilancy/ai-codehub/internal/config"
)

const maxErrorBody = 64 << 10

type Client struct {
	baseURL string
	http    *http.Client
	cfg     config.BackendConfig
	log     zerolog.Logger
}

func New(cfg config.BackendConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		log:     log.With().Str("component", "apiclient").Logger(),
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, username, password string) (TokenGrant, error) {
	var grant TokenGrant
	err := c.doJSON(ctx, http.MethodPost, c.cfg.LoginPath, "", loginRequest{
		Username: username,
		Password: password,
	}, &grant)
	if err != nil {
		return TokenGrant{}, err
	}
	if grant.AccessToken == "" {
		return TokenGrant{}, fmt.Errorf("login: response carried no access token")
	}
	return grant, nil
}

func (c *Client) Register(ctx context.Context, input RegisterInput) (RegisterResult, error) {
	var result RegisterResult
	if err := c.doJSON(ctx, http.MethodPost, c.cfg.RegisterPath, "", input, &result); err != nil {
		return RegisterResult{}, err
	}
	return result, nil
}

// Refresh exchanges a still-valid token for a new one.
func (c *Client) Refresh(ctx context.Context, token string) (TokenGrant, error) {
	var grant TokenGrant
	if err := c.do(ctx, http.MethodPost, c.cfg.RefreshPath, token, nil, "", &grant); err != nil {
		return TokenGrant{}, err
	}
	if grant.AccessToken == "" {
		return TokenGrant{}, fmt.Errorf("refresh: response carried no access token")
	}
	return grant, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, c.cfg.LogoutPath, token, nil, "", nil)
}

func (c *Client) CurrentUser(ctx context.Context, token string) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, c.cfg.MePath, token, nil, "", &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *Client) ListModels(ctx context.Context, token string) ([]Model, error) {
	var models []Model
	if err := c.do(ctx, http.MethodGet, c.modelPath("list"), token, nil, "", &models); err != nil {
		return nil, err
	}
	return models, nil
}

func (c *Client) GetModel(ctx context.Context, token, name string) (Model, error) {
	var model Model
	if err := c.do(ctx, http.MethodGet, c.modelPath(url.PathEscape(name)), token, nil, "", &model); err != nil {
		return Model{}, err
	}
	return model, nil
}

// UploadModel streams the file to the backend as multipart form data.
func (c *Client) UploadModel(ctx context.Context, token string, input UploadInput) error {
	if input.File == nil {
		return fmt.Errorf("upload: file required")
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		err := writeUploadForm(form, input)
		if closeErr := form.Close(); err == nil {
			err = closeErr
		}
		pw.CloseWithError(err)
	}()

	err := c.do(ctx, http.MethodPost, c.modelPath("upload"), token, pr, form.FormDataContentType(), nil)
	// unblocks the writer if the request ended before the body was drained
	_ = pr.CloseWithError(io.ErrClosedPipe)
	return err
}

func writeUploadForm(form *multipart.Writer, input UploadInput) error {
	fields := []struct{ name, value string }{
		{"name", input.Name},
		{"description", input.Description},
		{"version", input.Version},
		{"framework", input.Framework},
		{"task_type", input.TaskType},
	}
	for _, field := range fields {
		if err := form.WriteField(field.name, field.value); err != nil {
			return fmt.Errorf("write field %s: %w", field.name, err)
		}
	}

	fileName := input.FileName
	if fileName == "" {
		fileName = input.Name
	}
	part, err := form.CreateFormFile("file", fileName)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, input.File); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	return nil
}

func (c *Client) UpdateModel(ctx context.Context, token, name string, update ModelUpdate) error {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if update.Description != nil {
		if err := form.WriteField("description", *update.Description); err != nil {
			return fmt.Errorf("write description: %w", err)
		}
	}
	if update.Version != nil {
		if err := form.WriteField("version", *update.Version); err != nil {
			return fmt.Errorf("write version: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}

	return c.do(ctx, http.MethodPut, c.modelPath(url.PathEscape(name)), token, &buf, form.FormDataContentType(), nil)
}

func (c *Client) DeleteModel(ctx context.Context, token, name string) error {
	return c.do(ctx, http.MethodDelete, c.modelPath(url.PathEscape(name)), token, nil, "", nil)
}

// Navbar returns the shared navigation fragment as raw HTML.
func (c *Client) Navbar(ctx context.Context) (string, error) {
	var fragment string
	if err := c.do(ctx, http.MethodGet, c.cfg.NavbarPath, "", nil, "", &fragment); err != nil {
		return "", err
	}
	return fragment, nil
}

// Ping checks that the backend answers at all; any HTTP status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Client) modelPath(suffix string) string {
	return strings.TrimSuffix(c.cfg.ModelsPath, "/") + "/" + suffix
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, in any, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", method, path, err)
	}
	return c.do(ctx, method, path, token, bytes.NewReader(body), "application/json", out)
}

// do issues one request. out may be nil, a *string for raw bodies, or any
// JSON target.
func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json, text/html;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("backend request failed")
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("backend rejected request")
		return &Error{Status: resp.StatusCode, Detail: detailFrom(raw)}
	}

	switch target := out.(type) {
	case nil:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case *string:
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: read %s %s: %w", ErrTransport, method, path, err)
		}
		*target = string(raw)
		return nil
	default:
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
		return nil
	}
}
