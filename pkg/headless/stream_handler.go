package headless

import (
	"github.com/killallgit/oracle/pkg/controllers"
)

// transcriptPrinter prints the assistant entry of the active session as it
// grows. Only the new suffix is written for each snapshot.
type transcriptPrinter struct {
	out     *Output
	session string
	printed int
	wrote   bool
}

func newTranscriptPrinter(out *Output) *transcriptPrinter {
	return &transcriptPrinter{out: out}
}

func (p *transcriptPrinter) observe(s controllers.Snapshot) {
	if s.SessionID == "" {
		return
	}
	if s.SessionID != p.session {
		p.session = s.SessionID
		p.printed = 0
	}

	last, ok := s.Transcript.Last()
	if !ok || !last.IsAssistant() || len(last.Content) <= p.printed {
		return
	}
	p.out.Text(last.Content[p.printed:])
	p.printed = len(last.Content)
	p.wrote = true
}

// finish ends the printed response with a newline if anything was written.
func (p *transcriptPrinter) finish() {
	if p.wrote {
		p.out.Text("\n")
	}
	p.wrote = false
}
