package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/pandemap/pkg/api"
)

// DefaultBannerTTL is how long a non-persistent banner stays up.
const DefaultBannerTTL = 10 * time.Second

// Banner is the single dashboard-wide error message. Showing a new notice
// replaces the current one; each Show bumps the sequence so that an expiry
// scheduled for an older notice leaves the newer one alone.
type Banner struct {
	Message    string
	Persistent bool
	seq        int
}

// Show replaces the banner and returns its sequence number.
func (b *Banner) Show(n api.Notice) int {
	b.seq++
	b.Message = n.Message
	b.Persistent = n.Persistent
	return b.seq
}

// Active reports whether a message is showing.
func (b *Banner) Active() bool { return b.Message != "" }

// Dismiss clears the banner, persistent or not.
func (b *Banner) Dismiss() {
	b.Message = ""
	b.Persistent = false
}

// Expire clears the banner if seq is still the one showing and it is not
// persistent. It reports whether the banner was cleared.
func (b *Banner) Expire(seq int) bool {
	if seq != b.seq || b.Persistent || !b.Active() {
		return false
	}
	b.Dismiss()
	return true
}

// NoticeChannel is an api.Notifier that hands notices to the bubbletea
// loop. Notify never blocks: when the buffer is full the oldest pending
// notice is dropped, since only the latest one would be shown anyway.
type NoticeChannel struct {
	ch chan api.Notice
}

// NewNoticeChannel creates a notifier with a small buffer.
func NewNoticeChannel() *NoticeChannel {
	return &NoticeChannel{ch: make(chan api.Notice, 8)}
}

// Notify implements api.Notifier.
func (n *NoticeChannel) Notify(notice api.Notice) {
	for {
		select {
		case n.ch <- notice:
			return
		default:
		}
		select {
		case <-n.ch:
		default:
		}
	}
}

// NoticeMsg carries a banner notice into Update.
type NoticeMsg api.Notice

// bannerExpiredMsg fires when a banner's TTL runs out.
type bannerExpiredMsg struct{ seq int }

// WaitForNoticeCmd blocks until the next notice arrives.
func WaitForNoticeCmd(n *NoticeChannel) tea.Cmd {
	if n == nil {
		return nil
	}
	return func() tea.Msg {
		return NoticeMsg(<-n.ch)
	}
}

func bannerExpireCmd(seq int, ttl time.Duration) tea.Cmd {
	return tea.Tick(ttl, func(time.Time) tea.Msg {
		return bannerExpiredMsg{seq: seq}
	})
}
