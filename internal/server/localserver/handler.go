package localserver

import (
	"context"
	"io"
	"strings"

	"github.com/yndnr/worldsave-go/internal/server/entrypoint"
)

// Caller runs a named entry. *entrypoint.Table implements it.
type Caller interface {
	Call(ctx context.Context, name string, args []string) (string, error)
}

var _ Caller = (*entrypoint.Table)(nil)

// Handler turns request lines into entry calls.
type Handler struct {
	entries Caller
}

// NewHandler creates a Handler over entries.
func NewHandler(entries Caller) *Handler {
	return &Handler{entries: entries}
}

// Execute runs one request line and writes the one-line response.
func (h *Handler) Execute(ctx context.Context, w io.Writer, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return writeLine(w, "error: empty request")
	}
	status, err := h.entries.Call(ctx, fields[0], fields[1:])
	if err != nil {
		return writeLine(w, "error: "+err.Error())
	}
	return writeLine(w, status)
}

func writeLine(w io.Writer, s string) error {
	_, err := io.WriteString(w, s+"\n")
	return err
}
