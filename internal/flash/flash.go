// Package flash carries one-time notices across a redirect in a cookie.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/xuxiaoleilancy/ai-codehub/internal/security"
)

const CookieName = "codehub_flash"

const cookiePurpose = "flash"

// maxMessage keeps backend-provided text well inside the cookie size limit.
const maxMessage = 512

type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notice references a localization key. Message, when set, is text the
// backend returned and is shown instead of the key's translation.
type Notice struct {
	Kind    Kind   `json:"kind"`
	Key     string `json:"key"`
	Message string `json:"message,omitempty"`
}

func Success(key string) Notice {
	return Notice{Kind: KindSuccess, Key: key}
}

func Info(key string) Notice {
	return Notice{Kind: KindInfo, Key: key}
}

// Error prefers detail over the fallback key when the backend gave one.
func Error(key, detail string) Notice {
	return Notice{Kind: KindError, Key: key, Message: detail}
}

// Jar reads and writes notices in a signed cookie so that only this server
// can decide what a notice says.
type Jar struct {
	secret string
	secure bool
}

func NewJar(secret string, secure bool) *Jar {
	return &Jar{secret: secret, secure: secure}
}

// Write stores notice for the next page render. Invalid notices are dropped.
func (j *Jar) Write(w http.ResponseWriter, notice Notice) {
	if w == nil {
		return
	}
	normalized, ok := normalize(notice)
	if !ok {
		return
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return
	}
	value := base64.RawURLEncoding.EncodeToString(payload)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    security.SignValue(j.secret, cookiePurpose, value),
		Path:     "/",
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadAndClear returns the pending notice and expires the cookie, even when
// the stored value is unreadable or carries a bad signature.
func (j *Jar) ReadAndClear(w http.ResponseWriter, r *http.Request) (Notice, bool) {
	if r == nil {
		return Notice{}, false
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return Notice{}, false
	}
	j.Clear(w)
	value, ok := security.VerifyValue(j.secret, cookiePurpose, strings.TrimSpace(cookie.Value))
	if !ok {
		return Notice{}, false
	}
	return decode(value)
}

func (j *Jar) Clear(w http.ResponseWriter) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func decode(raw string) (Notice, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Notice{}, false
	}
	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return Notice{}, false
	}
	var notice Notice
	if err := json.Unmarshal(decoded, &notice); err != nil {
		return Notice{}, false
	}
	return normalize(notice)
}

func normalize(notice Notice) (Notice, bool) {
	notice.Key = strings.TrimSpace(notice.Key)
	notice.Message = truncate(strings.TrimSpace(notice.Message), maxMessage)
	if notice.Key == "" && notice.Message == "" {
		return Notice{}, false
	}
	notice.Kind = Kind(strings.ToLower(strings.TrimSpace(string(notice.Kind))))
	switch notice.Kind {
	case KindSuccess, KindInfo, KindWarning, KindError:
		return notice, true
	default:
		return Notice{}, false
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
