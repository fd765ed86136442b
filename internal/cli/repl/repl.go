package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Executor sends one request line to the server.
// *connection.SocketClient implements it.
type Executor interface {
	Execute(ctx context.Context, line string) (string, error)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	exec      Executor
	completer *Completer
	history   *History
	prompt    string
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) { r.input, r.output = in, out }
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// New creates a shell that forwards lines to exec. entries feeds help
// and completion.
func New(exec Executor, entries []string, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		exec:      exec,
		completer: NewCompleter(entries...),
		history:   NewHistory(""),
		prompt:    "worldsave> ",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the loop. It returns on exit, quit, end of input or ctx
// cancellation. The history is saved on return.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: load history: %v\n", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			fmt.Fprintf(r.output, "warning: save history: %v\n", err)
		}
	}()

	reader := bufio.NewReader(r.input)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if err == io.EOF && line == "" {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil && err != io.EOF {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(line)

		if line == "exit" || line == "quit" {
			return nil
		}
		if err := r.execute(ctx, line); err != nil {
			fmt.Fprintf(r.output, "Error: %v\n", err)
		}
	}
}

func (r *REPL) execute(ctx context.Context, line string) error {
	word, rest, _ := strings.Cut(line, " ")
	switch word {
	case "help":
		for _, cmd := range r.completer.Complete(strings.TrimSpace(rest)) {
			fmt.Fprintln(r.output, "  "+cmd)
		}
		return nil
	case "history":
		for i, entry := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
		}
		return nil
	}

	resp, err := r.exec.Execute(ctx, line)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.output, resp)
	return nil
}
