package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

// Staging keeps uploaded files under basePath, one temporary directory per
// session.
type Staging struct {
	basePath string
	maxBytes int64
}

func New(basePath string, maxBytes int64) (*Staging, error) {
	if basePath == "" {
		basePath = filepath.Join(os.TempDir(), "document-classifier")
	}
	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Staging{basePath: basePath, maxBytes: maxBytes}, nil
}

func (s *Staging) NewSession(_ context.Context) (ports.StagingSession, error) {
	dir, err := os.MkdirTemp(s.basePath, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &Session{dir: dir, maxBytes: s.maxBytes}, nil
}

type Session struct {
	dir      string
	maxBytes int64

	mu     sync.Mutex
	closed bool
}

// Save writes data to filename inside the session directory and returns the
// absolute path. filename must be a bare name.
func (s *Session) Save(ctx context.Context, filename string, data io.Reader) (string, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return "", errors.New("staging session is closed")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", domain.WrapError(domain.ErrInvalidInput, "stage file", fmt.Errorf("invalid staged filename %q", filename))
	}

	path := filepath.Join(s.dir, filename)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	src := data
	if s.maxBytes > 0 {
		src = io.LimitReader(data, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		return "", domain.WrapError(domain.ErrInvalidInput, "stage file", fmt.Errorf("%s exceeds %d bytes", filename, s.maxBytes))
	}
	return path, nil
}

// Close removes the session directory and everything in it. It is safe to
// call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove session dir: %w", err)
	}
	return nil
}
