// Package catalog filters and formats model records for display.
package catalog

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/xuxiaoleilancy/ai-codehub/internal/apiclient"
)

// Criteria selects models. Empty fields match everything.
type Criteria struct {
	Search    string `form:"search"`
	Framework string `form:"framework"`
	Task      string `form:"task"`
}

func (c Criteria) Empty() bool {
	return c.Search == "" && c.Framework == "" && c.Task == ""
}

// Filter keeps models whose name or description contains Search
// (case-insensitive) and whose framework and task type equal the selected
// values exactly. The input order is preserved.
func Filter(models []apiclient.Model, c Criteria) []apiclient.Model {
	search := strings.ToLower(c.Search)
	out := make([]apiclient.Model, 0, len(models))
	for _, m := range models {
		if c.Framework != "" && m.Framework != c.Framework {
			continue
		}
		if c.Task != "" && m.TaskType != c.Task {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(m.Name), search) &&
			!strings.Contains(strings.ToLower(m.Description), search) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Frameworks lists the distinct non-empty frameworks, sorted.
func Frameworks(models []apiclient.Model) []string {
	return distinct(models, func(m apiclient.Model) string { return m.Framework })
}

// TaskTypes lists the distinct non-empty task types, sorted.
func TaskTypes(models []apiclient.Model) []string {
	return distinct(models, func(m apiclient.Model) string { return m.TaskType })
}

func distinct(models []apiclient.Model, field func(apiclient.Model) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range models {
		v := field(m)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatFileSize renders a byte count in 1024 steps with at most two
// decimals, trailing zeros dropped.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := 0
	for scaled := bytes; scaled >= 1024 && i < len(sizeUnits)-1; scaled /= 1024 {
		i++
	}
	value := float64(bytes) / math.Pow(1024, float64(i))
	value = math.Round(value*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[i]
}
