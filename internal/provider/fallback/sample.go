package fallback

import (
	"time"

	"github.com/lu-zhengda/mailboard/internal/domain"
)

// SampleUserID owns every email in the sample set. It matches the ID of the
// offline demo identity.
const SampleUserID = "user-123"

const sampleRecipient = "sarah.johnson@techcorp.com"

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// SampleEmails returns a fresh copy of the fixed sample set, newest first.
func SampleEmails() []domain.Email {
	emails := []domain.Email{
		{
			ID:          "email-1",
			From:        "john.doe@company.com",
			Subject:     "Quarterly Review Meeting",
			Body:        "Hi Sarah, I hope this email finds you well. I wanted to schedule our quarterly review meeting...",
			IsStarred:   true,
			Attachments: []domain.Attachment{{ID: "att-1", EmailID: "email-1", Filename: "Q4_Report.pdf", Size: 2048000, Type: "application/pdf", URL: "/uploads/Q4_Report.pdf"}},
			Labels:      []string{"work", "meetings"},
			Timestamp:   ts("2024-01-15T09:30:00Z"),
		},
		{
			ID:        "email-2",
			From:      "noreply@newsletter.com",
			Subject:   "Weekly Tech Newsletter #47",
			Body:      "This week in technology: AI breakthroughs, new frameworks, and industry insights...",
			IsRead:    true,
			Labels:    []string{"newsletters"},
			Timestamp: ts("2024-01-14T08:00:00Z"),
		},
		{
			ID:          "email-3",
			From:        "team@design.co",
			Subject:     "Design System Updates",
			Body:        "We have made several updates to our design system components...",
			IsImportant: true,
			Labels:      []string{"work", "design"},
			Timestamp:   ts("2024-01-13T15:45:00Z"),
		},
		{
			ID:          "email-4",
			From:        "alice@marketing.com",
			Subject:     "Campaign Performance Report",
			Body:        "Here is the performance report for our latest marketing campaign...",
			IsRead:      true,
			Attachments: []domain.Attachment{{ID: "att-2", EmailID: "email-4", Filename: "Campaign_Report.xlsx", Size: 1024000, Type: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", URL: "/uploads/Campaign_Report.xlsx"}},
			Labels:      []string{"marketing"},
			Timestamp:   ts("2024-01-12T11:20:00Z"),
		},
		{
			ID:        "email-5",
			From:      "support@techtools.com",
			Subject:   "Your subscription expires soon",
			Body:      "Your TechTools subscription will expire in 7 days. Renew now to continue...",
			Labels:    []string{"notifications"},
			Timestamp: ts("2024-01-11T16:30:00Z"),
		},
	}
	for i := range emails {
		e := &emails[i]
		e.UserID = SampleUserID
		e.To = sampleRecipient
		e.CreatedAt = e.Timestamp
		e.UpdatedAt = e.Timestamp
		e.Normalize()
	}
	return emails
}
