package domain

import "time"

type Attachment struct {
	ID       string `json:"id"`
	EmailID  string `json:"emailId"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
	URL      string `json:"url"`
}

type Email struct {
	ID             string       `json:"id"`
	UserID         string       `json:"userId,omitempty"`
	From           string       `json:"from"`
	To             string       `json:"to"`
	Subject        string       `json:"subject"`
	Body           string       `json:"body"`
	IsRead         bool         `json:"isRead"`
	IsStarred      bool         `json:"isStarred"`
	IsImportant    bool         `json:"isImportant"`
	HasAttachments bool         `json:"hasAttachments"`
	Attachments    []Attachment `json:"attachments"`
	Labels         []string     `json:"labels"`
	Timestamp      time.Time    `json:"timestamp"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

func (e *Email) HasLabel(label string) bool {
	for _, l := range e.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Normalize derives HasAttachments from Attachments so the two never disagree,
// and replaces nil slices with empty ones for stable JSON output.
func (e *Email) Normalize() {
	if e.Attachments == nil {
		e.Attachments = []Attachment{}
	}
	if e.Labels == nil {
		e.Labels = []string{}
	}
	e.HasAttachments = len(e.Attachments) > 0
}

// Clone returns a deep copy of e.
func (e Email) Clone() Email {
	out := e
	out.Attachments = append([]Attachment(nil), e.Attachments...)
	out.Labels = append([]string(nil), e.Labels...)
	out.Normalize()
	return out
}
