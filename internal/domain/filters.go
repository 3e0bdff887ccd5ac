package domain

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPage      = 1
	DefaultLimit     = 15
	DefaultSortBy    = "timestamp"
	DefaultSortOrder = SortDesc

	SortAsc  = "asc"
	SortDesc = "desc"
)

// Filters scopes an email list query. Nil pointer fields mean "not filtered".
type Filters struct {
	Page           int
	Limit          int
	View           string
	Labels         string // comma-separated label IDs
	Search         string
	IsRead         *bool
	IsStarred      *bool
	IsImportant    *bool
	HasAttachments *bool
	DateFrom       *time.Time
	DateTo         *time.Time
	SortBy         string
	SortOrder      string
}

// WithDefaults returns a copy of f with unset or invalid paging and sort
// fields replaced by their defaults.
func (f Filters) WithDefaults() Filters {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.SortBy == "" {
		f.SortBy = DefaultSortBy
	}
	if f.SortOrder != SortAsc {
		f.SortOrder = DefaultSortOrder
	}
	return f
}

// LabelList splits Labels into trimmed, non-empty label IDs.
func (f Filters) LabelList() []string {
	if f.Labels == "" {
		return nil
	}
	parts := strings.Split(f.Labels, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Values encodes f as the query parameters understood by the list API.
func (f Filters) Values() url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	setString(q, "view", f.View)
	setString(q, "labels", f.Labels)
	setString(q, "search", f.Search)
	setBool(q, "isRead", f.IsRead)
	setBool(q, "isStarred", f.IsStarred)
	setBool(q, "isImportant", f.IsImportant)
	setBool(q, "hasAttachments", f.HasAttachments)
	setTime(q, "dateFrom", f.DateFrom)
	setTime(q, "dateTo", f.DateTo)
	setString(q, "sortBy", f.SortBy)
	setString(q, "sortOrder", f.SortOrder)
	return q
}

// Key returns a stable identifier for f, suitable as a cache key.
func (f Filters) Key() string {
	return f.WithDefaults().Values().Encode()
}

// FiltersFromValues parses list query parameters. Malformed values are
// ignored rather than rejected.
func FiltersFromValues(q url.Values) Filters {
	var f Filters
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		f.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		f.Limit = v
	}
	f.View = q.Get("view")
	f.Labels = q.Get("labels")
	f.Search = q.Get("search")
	f.IsRead = parseBool(q.Get("isRead"))
	f.IsStarred = parseBool(q.Get("isStarred"))
	f.IsImportant = parseBool(q.Get("isImportant"))
	f.HasAttachments = parseBool(q.Get("hasAttachments"))
	f.DateFrom = parseTime(q.Get("dateFrom"))
	f.DateTo = parseTime(q.Get("dateTo"))
	f.SortBy = q.Get("sortBy")
	f.SortOrder = q.Get("sortOrder")
	return f
}

// Bool returns a pointer to b, for populating optional filter fields.
func Bool(b bool) *bool {
	return &b
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}

func setBool(q url.Values, key string, v *bool) {
	if v != nil {
		q.Set(key, strconv.FormatBool(*v))
	}
}

func setTime(q url.Values, key string, v *time.Time) {
	if v != nil {
		q.Set(key, v.UTC().Format(time.RFC3339))
	}
}

func parseBool(s string) *bool {
	if s == "" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &b
}

// ParseTime accepts RFC 3339 timestamps or plain dates (2006-01-02).
func ParseTime(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, ok := ParseTime(s)
	if !ok {
		return nil
	}
	return &t
}
