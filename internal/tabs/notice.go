package tabs

// NoticeKind names a session signal pushed to a tab.
type NoticeKind string

const (
	NoticeWarning          NoticeKind = "warning"
	NoticeWarningDismissed NoticeKind = "warning_dismissed"
	NoticeTimeout          NoticeKind = "timeout"
	NoticeLogout           NoticeKind = "logout"
)

// Notice is published to the hub topic named after the tab id.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message,omitempty"`
	At      int64      `json:"at"` // ms since the Unix epoch
}

// Terminal reports whether no further notices follow for the tab. A
// timeout is always followed by a logout.
func (n Notice) Terminal() bool {
	return n.Kind == NoticeLogout
}
