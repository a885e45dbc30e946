package chat

// Transcript is the ordered, chronological list of entries shown to the user.
// All operations are copy-on-write: a Transcript value is never changed after
// it has been handed out.
type Transcript struct {
	entries []Entry
}

func NewTranscript(entries ...Entry) Transcript {
	copied := make([]Entry, len(entries))
	copy(copied, entries)
	return Transcript{entries: copied}
}

// NewTranscriptWithWelcome seeds a transcript with a system welcome entry.
func NewTranscriptWithWelcome(welcome string) Transcript {
	if welcome == "" {
		return NewTranscript()
	}
	return NewTranscript(NewSystemEntry(welcome))
}

// Append returns a new transcript with entry added at the end.
func (t Transcript) Append(entry Entry) Transcript {
	entries := make([]Entry, len(t.entries)+1)
	copy(entries, t.entries)
	entries[len(t.entries)] = entry
	return Transcript{entries: entries}
}

// ReplaceLast returns a new transcript whose final entry is swapped for entry.
// On an empty transcript it behaves like Append.
func (t Transcript) ReplaceLast(entry Entry) Transcript {
	if len(t.entries) == 0 {
		return t.Append(entry)
	}
	entries := make([]Entry, len(t.entries))
	copy(entries, t.entries)
	entries[len(entries)-1] = entry
	return Transcript{entries: entries}
}

// Entries returns a copy of the entries in order.
func (t Transcript) Entries() []Entry {
	result := make([]Entry, len(t.entries))
	copy(result, t.entries)
	return result
}

func (t Transcript) Len() int {
	return len(t.entries)
}

func (t Transcript) Last() (Entry, bool) {
	if len(t.entries) == 0 {
		return Entry{}, false
	}
	return t.entries[len(t.entries)-1], true
}
