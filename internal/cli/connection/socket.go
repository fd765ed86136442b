package connection

import (
	"bufio"
	"context"
	"net"
	"strings"
	"time"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

// DefaultCallTimeout bounds a single entry call. Saves of large worlds
// can take a while.
const DefaultCallTimeout = 5 * time.Minute

// SocketClient sends entry calls to the local socket. It keeps one
// connection open across calls and is not safe for concurrent use.
type SocketClient struct {
	path    string
	timeout time.Duration
	conn    net.Conn
	reader  *bufio.Reader
}

// NewSocketClient creates a new socket client.
func NewSocketClient(socketPath string) *SocketClient {
	return &SocketClient{path: socketPath, timeout: DefaultCallTimeout}
}

// SetTimeout changes the per-call timeout.
func (c *SocketClient) SetTimeout(d time.Duration) { c.timeout = d }

// Connect connects to the local socket.
func (c *SocketClient) Connect(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.path)
	if err != nil {
		return domain.ErrConfiguration.WithDetailsf("connect to %s", c.path).WithCause(err)
	}
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

// Close closes the socket connection.
func (c *SocketClient) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn, c.reader = nil, nil
	return err
}

// Execute sends one raw request line and returns the trimmed response.
func (c *SocketClient) Execute(ctx context.Context, line string) (string, error) {
	if c.conn == nil {
		if err := c.Connect(ctx); err != nil {
			return "", err
		}
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetDeadline(deadline)

	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		c.Close()
		return "", domain.ErrInternal.WithDetails("send request").WithCause(err)
	}
	resp, err := c.reader.ReadString('\n')
	if err != nil {
		c.Close()
		return "", domain.ErrInternal.WithDetails("read response").WithCause(err)
	}
	return strings.TrimSpace(resp), nil
}

// Call runs an entry and returns its status. A protocol level error
// reported by the server is returned as ErrInvalidArgument.
func (c *SocketClient) Call(ctx context.Context, entry string, args ...string) (string, error) {
	if entry == "" || strings.ContainsAny(entry, " \n") {
		return "", domain.ErrInvalidArgument.WithDetailsf("invalid entry name %q", entry)
	}
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \n") {
			return "", domain.ErrInvalidArgument.WithDetailsf("argument %q must be a single word", a)
		}
	}
	resp, err := c.Execute(ctx, strings.Join(append([]string{entry}, args...), " "))
	if err != nil {
		return "", err
	}
	if msg, ok := strings.CutPrefix(resp, "error: "); ok {
		return "", domain.ErrInvalidArgument.WithDetails(msg)
	}
	return resp, nil
}
