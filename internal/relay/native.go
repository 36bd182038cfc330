package relay

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// MaxMessageSize bounds a single inbound native message
const MaxMessageSize = 64 << 20

// MaxReplySize is the largest reply browsers accept from a native host
const MaxReplySize = 1 << 20

// ErrMessageTooLarge is returned for frames above MaxMessageSize
var ErrMessageTooLarge = errors.New("native message too large")

// Handler serves one relay message
type Handler interface {
	Handle(ctx context.Context, msg Message) Reply
}

// ReadFrame reads one length-prefixed native message. The prefix is a 32-bit length in
// native byte order.
func ReadFrame(r io.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(r, binary.NativeEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}
	return buf, nil
}

// WriteFrame writes one length-prefixed native message
func WriteFrame(w io.Writer, payload []byte) error {
	if err := binary.Write(w, binary.NativeEndian, uint32(len(payload))); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// Host runs a Handler as a browser native-messaging host
type Host struct {
	handler Handler
	in      io.Reader
	out     io.Writer
	mu      sync.Mutex // Serializes frames on out
}

// NewHost creates a Host reading from in and replying on out
func NewHost(handler Handler, in io.Reader, out io.Writer) *Host {
	return &Host{handler: handler, in: in, out: out}
}

// Serve reads messages until the input closes or ctx is done. Each message is handled in
// its own goroutine; Serve returns once every in-flight reply has been written.
func (h *Host) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	frames := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(frames)
		for {
			frame, err := ReadFrame(h.in)
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- frame:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-frames:
			if !ok {
				err := <-readErr
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.dispatch(ctx, frame)
			}()
		}
	}
}

func (h *Host) dispatch(ctx context.Context, frame []byte) {
	var msg Message
	var reply Reply
	if err := json.Unmarshal(frame, &msg); err != nil {
		logrus.WithError(err).Warn("Discarding malformed native message")
		reply = failure(ErrInvalidMessage)
	} else {
		reply = h.handler.Handle(ctx, msg)
	}
	if len(msg.RequestID) > 0 {
		reply["requestId"] = msg.RequestID
	}
	if err := h.write(reply); err != nil {
		logrus.WithError(err).Error("Failed to write native reply")
	}
}

func (h *Host) write(reply Reply) error {
	b, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	if len(b) > MaxReplySize {
		logrus.WithField("size", len(b)).Warn("Native reply exceeds browser limit")
		small := failure(ErrReplyTooLarge)
		if id, ok := reply["requestId"]; ok {
			small["requestId"] = id
		}
		if b, err = json.Marshal(small); err != nil {
			return err
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return WriteFrame(h.out, b)
}
