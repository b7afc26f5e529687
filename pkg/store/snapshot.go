package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/japaniel/studybook/pkg/studybook"
)

const (
	snapshotPrefix = "book-"
	snapshotSuffix = ".json.xz"
)

// Snapshot writes an xz-compressed copy of b into dir and keeps only the
// newest keep snapshots (keep <= 0 keeps all). It returns the new path.
func Snapshot(dir string, b *studybook.Book, keep int) (string, error) {
	return snapshotAt(dir, b, keep, time.Now())
}

func snapshotAt(dir string, b *studybook.Book, keep int, now time.Time) (string, error) {
	path := filepath.Join(dir, snapshotPrefix+strconv.FormatInt(now.UnixNano(), 10)+snapshotSuffix)
	err := writeAtomic(path, func(w io.Writer) error {
		xw, err := xz.NewWriter(w)
		if err != nil {
			return err
		}
		if err := json.NewEncoder(xw).Encode(b); err != nil {
			xw.Close()
			return err
		}
		return xw.Close()
	})
	if err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	if keep > 0 {
		if err := prune(dir, keep); err != nil {
			return path, err
		}
	}
	return path, nil
}

// Snapshots lists the snapshot files in dir, newest first.
func Snapshots(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	type snap struct {
		path string
		ts   int64
	}
	var snaps []snap
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		ts, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix), 10, 64)
		if err != nil {
			continue
		}
		snaps = append(snaps, snap{path: filepath.Join(dir, name), ts: ts})
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ts > snaps[j].ts })

	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.path
	}
	return out, nil
}

// LatestSnapshot returns the newest snapshot in dir or "" when there is none.
func LatestSnapshot(dir string) (string, error) {
	snaps, err := Snapshots(dir)
	if err != nil || len(snaps) == 0 {
		return "", err
	}
	return snaps[0], nil
}

// LoadSnapshot reads a snapshot with the same contract as Load.
func LoadSnapshot(path string) (*studybook.Book, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	b, err := decode(xr, path)
	if err != nil && !errors.Is(err, ErrCorrupt) {
		// a truncated stream surfaces as a read error
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return b, err
}

func prune(dir string, keep int) error {
	snaps, err := Snapshots(dir)
	if err != nil {
		return err
	}
	if len(snaps) <= keep {
		return nil
	}
	var errs []error
	for _, p := range snaps[keep:] {
		if err := os.Remove(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
