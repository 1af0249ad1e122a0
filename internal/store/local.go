package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zaqqye/vdi_docgen/internal/models"
)

const LogFileName = "submissions.jsonl"

// Local keeps submissions in DATA_DIR/submissions.jsonl, one JSON object per
// line. A mutex serialises writers inside the process.
type Local struct {
	mu    sync.Mutex
	path  string
	clock Clock
	log   *zap.Logger
	// syncFile flushes the log after an append; nil means (*os.File).Sync.
	syncFile func(*os.File) error
}

func NewLocal(dir string, clock Clock, log *zap.Logger) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Local{path: filepath.Join(dir, LogFileName), clock: clock, log: log}, nil
}

func (l *Local) Name() string { return "local" }

func (l *Local) Path() string { return l.path }

func (l *Local) now() time.Time { return l.clock.now() }

func (l *Local) read() ([]byte, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, l.path, err)
	}
	return data, nil
}

// Append writes one complete line with a single write. A failed write or sync
// is truncated away so neither a partial line nor an unacknowledged record is
// left behind.
func (l *Local) Append(ctx context.Context, rec models.Submission) (models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return models.Submission{}, err
	}
	rec = prepare(rec, l.clock.now())
	line, err := encodeLine(rec)
	if err != nil {
		return models.Submission{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return models.Submission{}, fmt.Errorf("%w: open log: %v", ErrUnavailable, err)
	}
	defer f.Close()

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return models.Submission{}, fmt.Errorf("%w: seek log: %v", ErrUnavailable, err)
	}
	if size > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, size-1); err == nil && last[0] != '\n' {
			line = append([]byte{'\n'}, line...)
		}
	}
	if _, err := f.WriteAt(line, size); err != nil {
		if terr := f.Truncate(size); terr != nil {
			l.log.Error("truncate after failed append", zap.String("path", l.path), zap.Error(terr))
		}
		return models.Submission{}, fmt.Errorf("%w: append: %v", ErrUnavailable, err)
	}
	if err := l.flush(f); err != nil {
		if terr := f.Truncate(size); terr != nil {
			l.log.Error("truncate after failed sync", zap.String("path", l.path), zap.Error(terr))
		}
		return models.Submission{}, fmt.Errorf("%w: sync: %v", ErrUnavailable, err)
	}
	return rec, nil
}

func (l *Local) flush(f *os.File) error {
	if l.syncFile != nil {
		return l.syncFile(f)
	}
	return f.Sync()
}

func (l *Local) List(ctx context.Context) ([]models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	data, err := l.read()
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return records(parseLog(data)), nil
}

func (l *Local) Get(ctx context.Context, id string) (models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return models.Submission{}, err
	}
	l.mu.Lock()
	data, err := l.read()
	l.mu.Unlock()
	if err != nil {
		return models.Submission{}, err
	}
	return getFromLog(data, id)
}

// Replace rewrites the whole log through a temp file and rename.
func (l *Local) Replace(ctx context.Context, id string, rec models.Submission) (models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return models.Submission{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.read()
	if err != nil {
		return models.Submission{}, err
	}
	out, next, err := replaceInLog(data, id, rec, l.clock.now())
	if err != nil {
		return models.Submission{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".submissions-*.tmp")
	if err != nil {
		return models.Submission{}, fmt.Errorf("%w: temp file: %v", ErrUnavailable, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return models.Submission{}, fmt.Errorf("%w: write temp: %v", ErrUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return models.Submission{}, fmt.Errorf("%w: sync temp: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return models.Submission{}, fmt.Errorf("%w: close temp: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return models.Submission{}, fmt.Errorf("%w: rename: %v", ErrUnavailable, err)
	}
	return next, nil
}

// Ping checks the data directory is writable.
func (l *Local) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(l.path), ".ping-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
