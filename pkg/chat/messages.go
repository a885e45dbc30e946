package chat

import "strings"

// Role identifies who authored a transcript entry.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is a single transcript entry. Entries are values and are never
// modified once they are part of a Transcript; updates produce a new entry.
type Entry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func NewUserEntry(content string) Entry {
	return Entry{Role: RoleUser, Content: content}
}

func NewAssistantEntry(content string) Entry {
	return Entry{Role: RoleAssistant, Content: content}
}

func NewSystemEntry(content string) Entry {
	return Entry{Role: RoleSystem, Content: content}
}

func (e Entry) IsUser() bool {
	return e.Role == RoleUser
}

func (e Entry) IsAssistant() bool {
	return e.Role == RoleAssistant
}

func (e Entry) IsSystem() bool {
	return e.Role == RoleSystem
}

// IsEmpty reports whether the entry has no content besides whitespace.
func (e Entry) IsEmpty() bool {
	return strings.TrimSpace(e.Content) == ""
}

// WithContent returns a copy of the entry carrying new content.
func (e Entry) WithContent(content string) Entry {
	return Entry{Role: e.Role, Content: content}
}

// ParseRole maps a wire role onto a Role. Unknown roles are rejected.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleSystem:
		return RoleSystem, true
	case RoleUser:
		return RoleUser, true
	case RoleAssistant:
		return RoleAssistant, true
	default:
		return "", false
	}
}
