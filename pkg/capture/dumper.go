package capture

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/borislavv/framering/pkg/config"
	"github.com/borislavv/framering/pkg/model"
	"github.com/borislavv/framering/pkg/ring"
	"github.com/rs/zerolog/log"
)

var dumpIsNotEnabledErr = errors.New("persistence mode is not enabled")

type dumpEntry struct {
	Seq        uint64    `json:"seq"`
	CapturedAt time.Time `json:"capturedAt"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Format     string    `json:"format"`
	Data       []byte    `json:"data"`
}

// nopWriteCloser wraps an io.Writer to satisfy io.WriteCloser
// with a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (n nopWriteCloser) Close() error { return nil }

// Dumper persists the retained frames of a ring to disk and restores them,
// so a restarted process resumes with the last captured window instead of
// an empty ring.
type Dumper struct {
	cfg *config.Capture
}

func NewDumper(cfg *config.Capture) *Dumper {
	return &Dumper{cfg: cfg}
}

// Dump writes the retained frames, oldest first, based on the configured
// format and rotation policy.
func (d *Dumper) Dump(ctx context.Context, buf *ring.Buffer[*model.Frame]) error {
	cfg := d.cfg.Capture.Persistence.Dump
	if !cfg.IsEnabled {
		return dumpIsNotEnabledErr
	}
	start := time.Now()

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return fmt.Errorf("create dump dir: %w", err)
	}

	// Determine extension & writer wrapper
	ext := ".json"
	wrapWriter := func(w io.Writer) (io.WriteCloser, error) {
		return nopWriteCloser{w}, nil
	}
	if cfg.Format == "gzip" {
		ext = ".gz"
		wrapWriter = func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriter(w), nil
		}
	}

	// Rotation logic
	var finalName string
	if cfg.RotatePolicy == "ring" {
		if err := rotateOldFiles(cfg.Dir, cfg.Name, ext, cfg.MaxFiles); err != nil {
			log.Error().Err(err).Msg("[dump] rotation error")
		}
		timestamp := time.Now().Format("20060102T150405")
		finalName = fmt.Sprintf("%s.%s%s", cfg.Name, timestamp, ext)
	} else {
		finalName = cfg.Name + ext
	}
	filename := filepath.Join(cfg.Dir, finalName)
	tmpName := filename + ".tmp"

	f, err := os.Create(tmpName)
	if err != nil {
		return fmt.Errorf("create dump temp file: %w", err)
	}
	defer func() {
		_ = f.Close()
		_ = os.Remove(tmpName)
	}()

	wc, err := wrapWriter(f)
	if err != nil {
		return fmt.Errorf("wrap writer: %w", err)
	}
	bw := bufio.NewWriterSize(wc, 1024*1024)

	// Borrow the whole retained window so the producer cannot recycle any
	// of it mid-encode.
	leases := buf.FinalBatch(buf.Size())
	defer ring.ReleaseAll(leases)

	enc := json.NewEncoder(bw)
	var successNum, errorNum int
	for _, l := range leases {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		frame := l.Value()
		e := dumpEntry{
			Seq:        frame.Seq(),
			CapturedAt: frame.CapturedAt(),
			Width:      frame.Width(),
			Height:     frame.Height(),
			Format:     frame.Format(),
			Data:       frame.Data(),
		}
		if err = enc.Encode(&e); err != nil {
			log.Error().Err(err).Msg("[dump] entry encode error")
			errorNum++
		} else {
			successNum++
		}
	}

	if err = bw.Flush(); err != nil {
		return fmt.Errorf("flush dump file: %w", err)
	}
	if err = wc.Close(); err != nil {
		return fmt.Errorf("close dump writer: %w", err)
	}
	if err = os.Rename(tmpName, filename); err != nil {
		return fmt.Errorf("rename dump file: %w", err)
	}

	log.Info().Msgf("[dump] finished writing %d frames, errors: %d (elapsed: %s)", successNum, errorNum, time.Since(start))
	if errorNum > 0 {
		return fmt.Errorf("dump completed with %d errors", errorNum)
	}
	return nil
}

// Load restores dumped frames from disk, oldest first, ready for ring.From.
func (d *Dumper) Load(ctx context.Context) ([]*model.Frame, error) {
	cfg := d.cfg.Capture.Persistence.Dump
	if !cfg.IsEnabled {
		return nil, dumpIsNotEnabledErr
	}
	start := time.Now()

	ext := ".json"
	wrapReader := func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(r), nil
	}
	if cfg.Format == "gzip" {
		ext = ".gz"
		wrapReader = func(r io.Reader) (io.ReadCloser, error) {
			return gzip.NewReader(r)
		}
	}

	// Select file to load
	var filename string
	if cfg.RotatePolicy == "ring" {
		files, err := getDumpFiles(cfg.Dir, cfg.Name, ext)
		if err != nil {
			return nil, fmt.Errorf("get dump files: %w", err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no dump files found in %s", cfg.Dir)
		}
		sorted, err := sortByModTime(files)
		if err != nil {
			return nil, fmt.Errorf("sort dump files: %w", err)
		}
		filename = sorted[len(sorted)-1]
	} else {
		filename = filepath.Join(cfg.Dir, cfg.Name+ext)
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open dump file: %w", err)
	}
	defer f.Close()

	rc, err := wrapReader(f)
	if err != nil {
		return nil, fmt.Errorf("wrap reader: %w", err)
	}
	defer rc.Close()

	dec := json.NewDecoder(bufio.NewReaderSize(rc, 1024*1024))
	var frames []*model.Frame
	var errorNum int
	for dec.More() {
		if ctx.Err() != nil {
			log.Warn().Msg("[dump] context cancelled")
			return nil, ctx.Err()
		}

		var entry dumpEntry
		if err = dec.Decode(&entry); err != nil {
			log.Error().Err(err).Msg("[dump] entry decode error")
			errorNum++
			continue
		}
		frames = append(frames, model.RestoreFrame(
			entry.Seq, entry.CapturedAt, entry.Width, entry.Height, entry.Format, entry.Data,
		))
	}

	log.Info().Msgf("[dump] restored %d frames, errors: %d (elapsed: %s)", len(frames), errorNum, time.Since(start))
	if errorNum > 0 {
		return frames, fmt.Errorf("load completed with %d errors", errorNum)
	}
	return frames, nil
}

// getDumpFiles returns all dump files matching baseName.*ext in dir.
func getDumpFiles(dir, baseName, ext string) ([]string, error) {
	pattern := filepath.Join(dir, baseName+".*"+ext)
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	return files, nil
}

// sortByModTime returns the paths sorted by modification time ascending.
func sortByModTime(files []string) ([]string, error) {
	type fileInfo struct {
		path    string
		modTime time.Time
	}
	infos := make([]fileInfo, 0, len(files))
	for _, f := range files {
		fi, err := os.Stat(f)
		if err != nil {
			continue
		}
		infos = append(infos, fileInfo{path: f, modTime: fi.ModTime()})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].modTime.Before(infos[j].modTime)
	})
	sorted := make([]string, len(infos))
	for i, info := range infos {
		sorted[i] = info.path
	}
	return sorted, nil
}

// rotateOldFiles removes oldest files so that after removal, count <= maxFiles-1.
func rotateOldFiles(dir, baseName, ext string, maxFiles int) error {
	files, err := getDumpFiles(dir, baseName, ext)
	if err != nil {
		return err
	}
	sorted, err := sortByModTime(files)
	if err != nil {
		return err
	}
	if len(sorted) < maxFiles {
		return nil
	}
	numToRemove := len(sorted) - (maxFiles - 1)
	for i := 0; i < numToRemove; i++ {
		if err = os.Remove(sorted[i]); err != nil {
			log.Error().Err(err).Msgf("[dump] failed to remove old dump file %s", sorted[i])
		}
	}
	return nil
}
