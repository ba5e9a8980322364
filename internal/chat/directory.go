package chat

import "strings"

// TitleSeedLimit caps conversation titles derived from the first
// question of a brand-new thread.
const TitleSeedLimit = 50

// Directory owns the ordered conversation list and the active
// selection. The order is whatever the server reported (most recently
// updated first); the directory never re-sorts it. Entries are only
// added after server confirmation, so there is no optimistic
// conversation creation to roll back.
type Directory struct {
	conversations []Conversation
	activeID      string
}

func NewDirectory() *Directory {
	return &Directory{}
}

// SetConversations replaces the list with a fresh server result. The
// active selection survives the replacement only if the id is still
// present.
func (d *Directory) SetConversations(conversations []Conversation) {
	d.conversations = append(d.conversations[:0:0], conversations...)
	if d.activeID != "" {
		if _, ok := d.Get(d.activeID); !ok {
			d.activeID = ""
		}
	}
}

func (d *Directory) Conversations() []Conversation {
	return append([]Conversation(nil), d.conversations...)
}

func (d *Directory) Len() int {
	return len(d.conversations)
}

func (d *Directory) ActiveID() string {
	return d.activeID
}

func (d *Directory) Get(id string) (Conversation, bool) {
	for _, c := range d.conversations {
		if c.ID == id {
			return c, true
		}
	}
	return Conversation{}, false
}

// Select binds the view to a conversation. It issues no remote call.
// An empty id clears the selection; an unknown id is refused.
func (d *Directory) Select(id string) bool {
	if id == "" {
		d.activeID = ""
		return true
	}
	if _, ok := d.Get(id); !ok {
		return false
	}
	d.activeID = id
	return true
}

// Insert records a server-confirmed new conversation: prepended, and
// immediately selected.
func (d *Directory) Insert(c Conversation) {
	d.conversations = append([]Conversation{c}, d.conversations...)
	d.activeID = c.ID
}

// ApplyRename replaces only the title of the matching entry, keeping
// its position.
func (d *Directory) ApplyRename(id, title string) bool {
	for i := range d.conversations {
		if d.conversations[i].ID == id {
			d.conversations[i].Title = title
			return true
		}
	}
	return false
}

// Remove drops the entry after a confirmed delete. If the removed id
// was active, the selection is cleared.
func (d *Directory) Remove(id string) bool {
	for i := range d.conversations {
		if d.conversations[i].ID == id {
			d.conversations = append(d.conversations[:i], d.conversations[i+1:]...)
			if d.activeID == id {
				d.activeID = ""
			}
			return true
		}
	}
	return false
}

// TitleFromInput derives a title for an implicitly created
// conversation from the question that triggered it.
func TitleFromInput(input string) string {
	input = strings.TrimSpace(input)
	runes := []rune(input)
	if len(runes) <= TitleSeedLimit {
		return input
	}
	return string(runes[:TitleSeedLimit])
}
