// Package voice abstracts speech recognition as a start/cancel capability.
package voice

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// ErrUnsupported is reported through the error callback when the
// platform has no speech recognition
var ErrUnsupported = errors.New("voice recognition is not supported on this platform")

// Handle controls a running recognition session
type Handle interface {
	// Cancel stops delivering results. It is safe to call more than once.
	// Done may close later than Cancel returns.
	Cancel()
	// Done is closed once the session has ended
	Done() <-chan struct{}
}

// Recognizer turns speech into text
type Recognizer interface {
	// Name returns the name of the recognizer
	Name() string

	// Start begins recognition. Transcripts are passed to onResult and
	// failures, including lack of support, to onError.
	Start(ctx context.Context, onResult func(string), onError func(error)) Handle
}

type session struct {
	once   sync.Once
	cancel chan struct{}
	done   chan struct{}
}

func newSession() *session {
	return &session{cancel: make(chan struct{}), done: make(chan struct{})}
}

func (s *session) Cancel() {
	s.once.Do(func() { close(s.cancel) })
}

func (s *session) Done() <-chan struct{} {
	return s.done
}

func (s *session) cancelled(ctx context.Context) bool {
	select {
	case <-s.cancel:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Unsupported is the recognizer for platforms without speech input
type Unsupported struct{}

func (Unsupported) Name() string { return "unsupported" }

func (Unsupported) Start(ctx context.Context, onResult func(string), onError func(error)) Handle {
	s := newSession()
	if onError != nil {
		onError(ErrUnsupported)
	}
	close(s.done)
	return s
}

// LineRecognizer reads transcripts one per line from a reader, such as a
// pipe from an external speech-to-text tool.
type LineRecognizer struct {
	name string
	r    io.Reader
}

// NewLineRecognizer creates a recognizer reading transcripts from r
func NewLineRecognizer(name string, r io.Reader) *LineRecognizer {
	return &LineRecognizer{name: name, r: r}
}

func (l *LineRecognizer) Name() string { return l.name }

// Start reads lines until EOF. If the reader is an io.Closer it is closed on
// cancellation so a blocked read returns; otherwise the reading goroutine
// only notices cancellation when the next line arrives.
func (l *LineRecognizer) Start(ctx context.Context, onResult func(string), onError func(error)) Handle {
	s := newSession()
	if closer, ok := l.r.(io.Closer); ok {
		go func() {
			select {
			case <-s.cancel:
			case <-ctx.Done():
			case <-s.done:
				return
			}
			closer.Close()
		}()
	}
	go func() {
		defer close(s.done)

		scanner := bufio.NewScanner(l.r)
		for scanner.Scan() {
			if s.cancelled(ctx) {
				return
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if onResult != nil {
				onResult(line)
			}
		}
		if err := scanner.Err(); err != nil && onError != nil && !s.cancelled(ctx) {
			onError(fmt.Errorf("failed to read transcript: %w", err))
		}
	}()
	return s
}

// Registry maintains the available recognizers
type Registry struct {
	recognizers map[string]Recognizer
}

// NewRegistry creates a new recognizer registry
func NewRegistry() *Registry {
	return &Registry{
		recognizers: make(map[string]Recognizer),
	}
}

// Register adds a recognizer to the registry
func (r *Registry) Register(rec Recognizer) {
	r.recognizers[rec.Name()] = rec
}

// Get returns a recognizer by name
func (r *Registry) Get(name string) (Recognizer, bool) {
	rec, ok := r.recognizers[name]
	return rec, ok
}

// List returns the sorted names of all registered recognizers
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.recognizers))
	for name := range r.recognizers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Listen starts rec and waits for its first transcript
func Listen(ctx context.Context, rec Recognizer) (string, error) {
	results := make(chan string, 1)
	errs := make(chan error, 1)

	handle := rec.Start(ctx,
		func(text string) {
			select {
			case results <- text:
			default:
			}
		},
		func(err error) {
			select {
			case errs <- err:
			default:
			}
		})
	defer handle.Cancel()

	select {
	case text := <-results:
		return text, nil
	case err := <-errs:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-handle.Done():
		select {
		case text := <-results:
			return text, nil
		case err := <-errs:
			return "", err
		default:
			return "", errors.New("no speech recognized")
		}
	}
}
