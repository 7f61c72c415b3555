package apiclient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrTransport wraps failures to reach the backend at all.
var ErrTransport = errors.New("backend unreachable")

// Error is a non-success HTTP response from the backend.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
}

// Detail returns the backend-provided message carried by err, if any.
func Detail(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// IsStatus reports whether err is a backend response with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// detailFrom pulls a human message out of an error body. FastAPI sends
// {"detail": "..."} or, for validation errors, {"detail": [{"msg": "..."}]}.
func detailFrom(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}

	detail := gjson.GetBytes(body, "detail")
	if detail.IsArray() {
		var msgs []string
		detail.ForEach(func(_, item gjson.Result) bool {
			if msg := item.Get("msg"); msg.Exists() {
				msgs = append(msgs, msg.String())
			} else if item.Type == gjson.String {
				msgs = append(msgs, item.String())
			}
			return true
		})
		return strings.Join(msgs, "; ")
	}
	if detail.Type == gjson.String {
		return detail.String()
	}

	for _, key := range []string{"error", "message"} {
		if v := gjson.GetBytes(body, key); v.Type == gjson.String {
			return v.String()
		}
	}
	return ""
}
