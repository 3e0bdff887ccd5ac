package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/lu-zhengda/mailboard/internal/domain"
	"github.com/lu-zhengda/mailboard/internal/provider"
)

// listOptions holds the raw flag values of the list command.
type listOptions struct {
	view   string
	search string
	labels string
	since  string
	until  string
	sortBy string
	order  string
	page   int
	limit  int

	read        bool
	unread      bool
	starred     bool
	important   bool
	attachments bool
}

// filters converts the flags into list filters. Boolean filters only apply
// when their flag was given; changed reports that.
func (o listOptions) filters(changed func(name string) bool) (domain.Filters, error) {
	f := domain.Filters{
		Page:      o.page,
		Limit:     o.limit,
		View:      o.view,
		Labels:    o.labels,
		Search:    o.search,
		SortBy:    o.sortBy,
		SortOrder: o.order,
	}

	// Views and sort orders pass through untouched; the backend decides what
	// an unfamiliar value means.
	if changed("read") && changed("unread") {
		return f, errors.New("--read and --unread are mutually exclusive")
	}
	if changed("read") {
		f.IsRead = domain.Bool(o.read)
	}
	if changed("unread") {
		f.IsRead = domain.Bool(!o.unread)
	}
	if changed("starred") {
		f.IsStarred = domain.Bool(o.starred)
	}
	if changed("important") {
		f.IsImportant = domain.Bool(o.important)
	}
	if changed("attachments") {
		f.HasAttachments = domain.Bool(o.attachments)
	}

	if o.since != "" {
		t, ok := domain.ParseTime(o.since)
		if !ok {
			return f, fmt.Errorf("invalid --since %q (use YYYY-MM-DD or RFC 3339)", o.since)
		}
		f.DateFrom = &t
	}
	if o.until != "" {
		t, ok := domain.ParseTime(o.until)
		if !ok {
			return f, fmt.Errorf("invalid --until %q (use YYYY-MM-DD or RFC 3339)", o.until)
		}
		// A bare date covers the whole day.
		if _, err := time.Parse(time.DateOnly, o.until); err == nil {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.DateTo = &t
	}

	return f, nil
}

func newListCmd() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List emails",
		Long:  "List one page of emails in a view (defaults to inbox), optionally filtered.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := opts.filters(cmd.Flags().Changed)
			if err != nil {
				return err
			}

			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireSession(); err != nil {
				return err
			}

			page, err := e.emails.GetEmails(cmd.Context(), filters)
			if err != nil {
				return err
			}

			if jsonFlag {
				return printJSON(toJSONPage(page))
			}

			if len(page.Data) == 0 {
				fmt.Println("No messages found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FLAGS\tFROM\tSUBJECT\tDATE\tID")
			for _, em := range page.Data {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					flagColumn(em),
					clip(em.From, 30),
					clip(em.Subject, 50),
					em.Timestamp.Local().Format("Jan 2, 2006"),
					em.ID,
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			p := page.Pagination
			fmt.Printf("\nPage %d of %d (%d emails)\n", p.Page, max(p.TotalPages, 1), p.Total)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.view, "view", "inbox", "view to list (inbox, starred, sent, important, drafts, trash, unread)")
	f.StringVar(&opts.search, "search", "", "match subject, sender or body")
	f.StringVar(&opts.labels, "labels", "", "comma-separated labels; any match")
	f.StringVar(&opts.since, "since", "", "only emails at or after this date")
	f.StringVar(&opts.until, "until", "", "only emails at or before this date")
	f.StringVar(&opts.sortBy, "sort", domain.DefaultSortBy, "sort field (timestamp, createdAt, updatedAt, subject, from)")
	f.StringVar(&opts.order, "order", domain.SortDesc, "sort order (asc or desc)")
	f.IntVar(&opts.page, "page", 1, "page number")
	f.IntVar(&opts.limit, "limit", 0, "emails per page (defaults to the configured page size)")
	f.BoolVar(&opts.read, "read", false, "only read (true) or unread (false) emails")
	f.BoolVar(&opts.unread, "unread", false, "only unread emails")
	f.BoolVar(&opts.starred, "starred", false, "only starred (true) or unstarred (false) emails")
	f.BoolVar(&opts.important, "important", false, "only important (true) or other (false) emails")
	f.BoolVar(&opts.attachments, "attachments", false, "only emails with (true) or without (false) attachments")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <email-id>",
		Short: "Show an email",
		Long:  "Display a single email and mark it read.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireSession(); err != nil {
				return err
			}

			email, err := e.emails.GetEmailByID(cmd.Context(), id)
			if errors.Is(err, provider.ErrNotFound) {
				return fmt.Errorf("email %s not found", id)
			}
			if err != nil {
				return err
			}
			if !email.IsRead {
				if err := e.emails.MarkAsRead(cmd.Context(), id); err != nil {
					return err
				}
			}

			if jsonFlag {
				return printJSON(toJSONEmail(email))
			}

			fmt.Printf("From: %s\n", email.From)
			fmt.Printf("To: %s\n", email.To)
			fmt.Printf("Date: %s\n", email.Timestamp.Local().Format("Mon, Jan 2 2006 3:04 PM"))
			fmt.Printf("Subject: %s\n", email.Subject)
			if len(email.Labels) > 0 {
				fmt.Printf("Labels: %s\n", strings.Join(email.Labels, ", "))
			}
			if flags := flagColumn(*email); strings.TrimSpace(flags) != "" {
				fmt.Printf("Flags: %s\n", flags)
			}
			fmt.Printf("ID: %s\n", email.ID)
			fmt.Println(strings.Repeat("─", 60))
			fmt.Println(email.Body)
			if len(email.Attachments) > 0 {
				fmt.Println()
				fmt.Printf("Attachments (%d):\n", len(email.Attachments))
				for _, a := range email.Attachments {
					fmt.Printf("  %s (%d bytes)\n", a.Filename, a.Size)
				}
			}
			return nil
		},
	}
}

func newCountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Show per-folder email counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireSession(); err != nil {
				return err
			}

			counts, err := e.emails.GetEmailCounts(cmd.Context())
			if err != nil {
				return err
			}

			if jsonFlag {
				return printJSON(toJSONCounts(counts))
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FOLDER\tCOUNT")
			for _, f := range domain.Folders {
				fmt.Fprintf(w, "%s\t%d\n", f.DisplayName(), counts[f])
			}
			return w.Flush()
		},
	}
}

// flagColumn renders unread, starred, important and attachment markers.
func flagColumn(e domain.Email) string {
	marks := []byte("    ")
	if !e.IsRead {
		marks[0] = '*'
	}
	if e.IsStarred {
		marks[1] = 'S'
	}
	if e.IsImportant {
		marks[2] = '!'
	}
	if e.HasAttachments {
		marks[3] = '@'
	}
	return string(marks)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
