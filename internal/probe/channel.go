package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/suyog1pathak/wsprobe/pkg/logger"
)

// closeGracePeriod bounds how long Close waits for the peer to answer our close frame
const closeGracePeriod = time.Second

// ObservationKind is what a bounded wait on the channel saw
type ObservationKind int

const (
	ObservedMessage ObservationKind = iota
	ObservedIdle
	ObservedClosed
)

func (k ObservationKind) String() string {
	switch k {
	case ObservedMessage:
		return "message"
	case ObservedIdle:
		return "idle"
	case ObservedClosed:
		return "closed"
	default:
		return fmt.Sprintf("ObservationKind(%d)", int(k))
	}
}

// Observation is the result of one Await call
type Observation struct {
	Kind    ObservationKind
	Payload []byte // ObservedMessage
	Code    int    // ObservedClosed
	Reason  string // ObservedClosed
}

type frame struct {
	data []byte
	err  error
}

// Channel is a websocket connection read by a single background goroutine.
// Await races that reader against a timer, so a timed out wait leaves the
// connection usable and an unread message is delivered to the next Await.
// A Channel is not safe for use by more than one caller goroutine.
type Channel struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	frames       chan frame
	done         chan struct{}
	closeOnce    sync.Once

	// terminal read error, set once the reader has exited
	readErr error
}

// Dial opens a channel to cfg.URL
func Dial(ctx context.Context, cfg Config) (*Channel, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.HandshakeTimeout,
		TLSClientConfig:  &tls.Config{InsecureSkipVerify: cfg.Insecure},
	}

	conn, resp, err := dialer.DialContext(ctx, cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if errors.Is(err, websocket.ErrBadHandshake) && resp != nil {
			return nil, fmt.Errorf("%w: server rejected WebSocket connection: HTTP %d", err, resp.StatusCode)
		}
		return nil, err
	}

	c := &Channel{
		conn:         conn,
		writeTimeout: cfg.HandshakeTimeout,
		frames:       make(chan frame),
		done:         make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Channel) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		select {
		case c.frames <- frame{data: data, err: err}:
		case <-c.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// Await blocks until a message arrives, the remote closes the channel, the
// timeout elapses or ctx is done. Closure and timeout are observations, not
// errors. A connection lost without a close frame is observed as a 1006
// closure. The only error returned is ctx's.
func (c *Channel) Await(ctx context.Context, timeout time.Duration) (Observation, error) {
	if c.readErr != nil {
		return observeReadErr(c.readErr), nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case f := <-c.frames:
		if f.err != nil {
			c.readErr = f.err
			return observeReadErr(f.err), nil
		}
		return Observation{Kind: ObservedMessage, Payload: f.data}, nil
	case <-timer.C:
		return Observation{Kind: ObservedIdle}, nil
	case <-ctx.Done():
		return Observation{}, ctx.Err()
	}
}

func observeReadErr(err error) Observation {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		obs := Observation{Kind: ObservedClosed, Code: closeErr.Code, Reason: closeErr.Text}
		// gorilla fills Text with the local read error for 1006; no reason was sent.
		if closeErr.Code == websocket.CloseAbnormalClosure {
			obs.Reason = ""
		}
		return obs
	}
	logger.Debug("Connection lost without close frame", "error", err)
	return Observation{Kind: ObservedClosed, Code: websocket.CloseAbnormalClosure}
}

// Send writes one text frame
func (c *Channel) Send(data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close performs a best effort normal closure handshake and releases the connection.
// It is safe to call more than once.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.readErr == nil {
			c.closeHandshake()
		}
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *Channel) closeHandshake() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod)); err != nil {
		logger.Debug("Failed to send close frame", "error", err)
		return
	}

	timer := time.NewTimer(closeGracePeriod)
	defer timer.Stop()
	for {
		select {
		case f := <-c.frames:
			if f.err != nil {
				c.readErr = f.err
				return
			}
		case <-timer.C:
			logger.Debug("Peer did not answer close frame", "grace", closeGracePeriod)
			return
		}
	}
}
