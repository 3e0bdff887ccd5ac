package cli

import (
	"time"

	"github.com/lu-zhengda/mailboard/internal/app"
	"github.com/lu-zhengda/mailboard/internal/domain"
)

// ---------------------------------------------------------------------------
// Email JSON types (list, show)
// ---------------------------------------------------------------------------

type jsonEmail struct {
	ID             string           `json:"id"`
	From           string           `json:"from"`
	To             string           `json:"to"`
	Subject        string           `json:"subject"`
	Body           string           `json:"body,omitempty"`
	Date           string           `json:"date"`
	IsRead         bool             `json:"is_read"`
	IsStarred      bool             `json:"is_starred"`
	IsImportant    bool             `json:"is_important"`
	HasAttachments bool             `json:"has_attachments"`
	Labels         []string         `json:"labels,omitempty"`
	Attachments    []jsonAttachment `json:"attachments,omitempty"`
}

type jsonAttachment struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type,omitempty"`
	URL      string `json:"url,omitempty"`
}

func toJSONEmail(e *domain.Email) jsonEmail {
	out := jsonEmail{
		ID:             e.ID,
		From:           e.From,
		To:             e.To,
		Subject:        e.Subject,
		Body:           e.Body,
		Date:           e.Timestamp.Format(time.RFC3339),
		IsRead:         e.IsRead,
		IsStarred:      e.IsStarred,
		IsImportant:    e.IsImportant,
		HasAttachments: e.HasAttachments,
		Labels:         e.Labels,
	}
	for _, a := range e.Attachments {
		out.Attachments = append(out.Attachments, jsonAttachment{
			Filename: a.Filename,
			Size:     a.Size,
			Type:     a.Type,
			URL:      a.URL,
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Page JSON type (list)
// ---------------------------------------------------------------------------

type jsonPage struct {
	Emails     []jsonEmail `json:"emails"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int         `json:"total"`
	TotalPages int         `json:"total_pages"`
}

// toJSONPage omits bodies; use show for the full email.
func toJSONPage(p *domain.PageResult) jsonPage {
	emails := make([]jsonEmail, 0, len(p.Data))
	for i := range p.Data {
		e := toJSONEmail(&p.Data[i])
		e.Body = ""
		emails = append(emails, e)
	}
	return jsonPage{
		Emails:     emails,
		Page:       p.Pagination.Page,
		Limit:      p.Pagination.Limit,
		Total:      p.Pagination.Total,
		TotalPages: p.Pagination.TotalPages,
	}
}

// ---------------------------------------------------------------------------
// Counts JSON type (counts)
// ---------------------------------------------------------------------------

// jsonCounts always carries every folder, zero or not.
type jsonCounts map[string]int

func toJSONCounts(c domain.EmailCounts) jsonCounts {
	out := make(jsonCounts, len(domain.Folders))
	for _, f := range domain.Folders {
		out[string(f)] = c[f]
	}
	return out
}

// ---------------------------------------------------------------------------
// Session JSON type (login, whoami)
// ---------------------------------------------------------------------------

type jsonSession struct {
	SignedIn bool   `json:"signed_in"`
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Demo     bool   `json:"demo,omitempty"`
}

func toJSONSession(s *domain.Session) jsonSession {
	if !s.Authenticated() {
		return jsonSession{}
	}
	return jsonSession{
		SignedIn: true,
		ID:       s.User.ID,
		Name:     s.User.Name,
		Email:    s.User.Email,
		Role:     s.User.Role,
		Demo:     app.IsDemoSession(s),
	}
}

// ---------------------------------------------------------------------------
// Action JSON type (mark-read, star, important, logout)
// ---------------------------------------------------------------------------

type jsonAction struct {
	OK      bool   `json:"ok"`
	Action  string `json:"action"`
	EmailID string `json:"email_id,omitempty"`
	Value   *bool  `json:"value,omitempty"`
}
