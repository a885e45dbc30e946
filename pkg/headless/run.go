package headless

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// RunOnce submits a single prompt and writes the streamed reply to out.
func RunOnce(ctx context.Context, conversation Conversation, prompt string, out io.Writer) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("prompt cannot be empty in headless mode")
	}

	output := NewOutput(out)
	if err := newRunner(conversation, output).run(ctx, prompt); err != nil {
		output.Error(err)
		return err
	}
	return nil
}

// Run reads prompts from in, one per line, until EOF or ctx ends. A failed
// request is reported on out and the loop continues with the next line.
func Run(ctx context.Context, conversation Conversation, in io.Reader, out io.Writer) error {
	output := NewOutput(out)
	r := newRunner(conversation, output)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("failed to read input: %w", err)
					}
				default:
				}
				return nil
			}
			if err := r.run(ctx, line); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				output.Error(err)
			}
		}
	}
}
