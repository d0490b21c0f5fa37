package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dgomez/bid-harvester/internal/scrape"
)

// Session is one harvest run for one source over one date window. Each
// session owns a directory; batch files inside it are written once and
// never rewritten.
type Session struct {
	ID        string
	SourceID  string
	Window    scrape.DateWindow
	StartedAt time.Time
	Dir       string
}

// NewSession creates the session directory under root and returns the
// session handle. Directory names embed the source, the window and a
// short unique suffix so concurrent runs never collide.
func NewSession(root, sourceID string, window scrape.DateWindow) (*Session, error) {
	now := time.Now().UTC()
	id := uuid.NewString()
	dirName := fmt.Sprintf("%s_%s_%s_%s",
		sourceID,
		window.From.Format("2006-01-02"),
		window.To.Format("2006-01-02"),
		id[:8],
	)
	dir := filepath.Join(root, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir %s: %w", dir, err)
	}
	return &Session{
		ID:        id,
		SourceID:  sourceID,
		Window:    window,
		StartedAt: now,
		Dir:       dir,
	}, nil
}

// DocumentsDir returns the attachment directory for the session, creating
// it on first use.
func (s *Session) DocumentsDir() (string, error) {
	dir := filepath.Join(s.Dir, "documents")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create documents dir %s: %w", dir, err)
	}
	return dir, nil
}
