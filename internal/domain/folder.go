package domain

// Folder names a mailbox folder shown in the sidebar and counted by EmailCounts.
type Folder string

const (
	FolderInbox     Folder = "inbox"
	FolderStarred   Folder = "starred"
	FolderSent      Folder = "sent"
	FolderImportant Folder = "important"
	FolderDrafts    Folder = "drafts"
	FolderTrash     Folder = "trash"
)

// ViewUnread is a pseudo-view: it scopes a list query but has no folder count.
const ViewUnread = "unread"

// Folders lists the folders in sidebar display order.
var Folders = []Folder{
	FolderInbox,
	FolderStarred,
	FolderSent,
	FolderImportant,
	FolderDrafts,
	FolderTrash,
}

var folderNames = map[Folder]string{
	FolderInbox:     "Inbox",
	FolderStarred:   "Starred",
	FolderSent:      "Sent",
	FolderImportant: "Important",
	FolderDrafts:    "Drafts",
	FolderTrash:     "Trash",
}

// DisplayName returns the human-friendly name for a folder.
func (f Folder) DisplayName() string {
	if name, ok := folderNames[f]; ok {
		return name
	}
	return string(f)
}

// EmailCounts maps each folder to the number of emails in it.
type EmailCounts map[Folder]int

type Label struct {
	ID     string `json:"id"`
	UserID string `json:"userId,omitempty"`
	Name   string `json:"name"`
	Color  string `json:"color,omitempty"`
}

// DefaultLabels are the user labels offered in the sidebar.
var DefaultLabels = []Label{
	{ID: "work", Name: "Work"},
	{ID: "family", Name: "Family"},
	{ID: "friends", Name: "Friends"},
	{ID: "office", Name: "Office"},
}
