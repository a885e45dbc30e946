package headless

import (
	"fmt"
	"io"
	"sync"

	"github.com/killallgit/oracle/pkg/logger"
)

// Output handles console output for line mode
type Output struct {
	w  io.Writer
	mu sync.Mutex
}

// NewOutput creates a new output handler
func NewOutput(w io.Writer) *Output {
	return &Output{w: w}
}

// Text writes s as is
func (o *Output) Text(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprint(o.w, s)
}

// Error prints an error line and logs it
func (o *Output) Error(err error) {
	logger.Error("Line mode request failed: %v", err)
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.w, "error: %v\n", err)
}
