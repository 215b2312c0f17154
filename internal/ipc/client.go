package ipc

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/bnema/keytap/internal/logger"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrNotRunning means no grab process serves the socket.
var ErrNotRunning = errors.New("keytap grab is not running")

// Client talks to a running grab process
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for socketPath, or for DefaultSocketPath when it
// is empty.
func NewClient(socketPath string) (*Client, error) {
	if socketPath == "" {
		var err error
		if socketPath, err = DefaultSocketPath(); err != nil {
			return nil, fmt.Errorf("failed to get socket path: %w", err)
		}
	}
	return &Client{socketPath: socketPath, timeout: 5 * time.Second}, nil
}

// SetTimeout changes the per-request timeout
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Release asks the grab process to exit its grab
func (c *Client) Release() (Status, error) {
	msg, err := NewReleaseRequest()
	if err != nil {
		return Status{}, fmt.Errorf("failed to create release message: %w", err)
	}
	return c.request(msg)
}

// Status queries the grab process
func (c *Client) Status() (Status, error) {
	msg, err := NewStatusRequest()
	if err != nil {
		return Status{}, fmt.Errorf("failed to create status message: %w", err)
	}
	return c.request(msg)
}

func (c *Client) request(msg *structpb.Struct) (Status, error) {
	resp, err := c.sendMessage(msg)
	if err != nil {
		return Status{}, err
	}
	return ParseStatus(resp)
}

func (c *Client) sendMessage(msg *structpb.Struct) (*structpb.Struct, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		if isConnectionRefused(err) {
			return nil, ErrNotRunning
		}
		return nil, fmt.Errorf("failed to connect to keytap: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Debugf("Failed to close IPC connection: %v", err)
		}
	}()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		logger.Warnf("Failed to set connection deadline: %v", err)
	}

	if err := writeMessage(conn, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	response, err := readMessage(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return response, nil
}

// isConnectionRefused checks if the error is a failed dial
func isConnectionRefused(err error) bool {
	var netErr *net.OpError
	return errors.As(err, &netErr) && netErr.Op == "dial"
}
