package apiclient

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// TokenGrant is the body of a successful login or refresh.
type TokenGrant struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
	IsSuperuser bool   `json:"is_superuser"`
	// ExpiresIn is in seconds; zero when the backend does not say.
	ExpiresIn int64 `json:"expires_in"`
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResult carries a token only when the backend logs the new user in.
type RegisterResult struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsSuperuser bool   `json:"is_superuser"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type User struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
}

// Model is a catalog record as the backend returns it.
type Model struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Version     string    `json:"version"`
	Framework   string    `json:"framework"`
	TaskType    string    `json:"task_type"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   Timestamp `json:"created_at"`
	FileSize    int64     `json:"file_size"`
}

type UploadInput struct {
	Name        string
	Description string
	Version     string
	Framework   string
	TaskType    string
	FileName    string
	File        io.Reader
}

// ModelUpdate leaves a field untouched when it is nil.
type ModelUpdate struct {
	Description *string
	Version     *string
}

func (u ModelUpdate) Empty() bool {
	return u.Description == nil && u.Version == nil
}

// Timestamp accepts RFC 3339 as well as the naive ISO timestamps Python
// backends emit without a zone (read as UTC).
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		if string(data) == "null" {
			t.Time = time.Time{}
			return nil
		}
		return fmt.Errorf("timestamp: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
