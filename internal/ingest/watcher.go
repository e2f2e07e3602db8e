package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// Allowed extensions for discovery (lowercase, without '.'). Artifacts are
// plain text by the time they reach the drop directory.
var defaultExts = map[string]struct{}{
	"txt": {},
	"md":  {},
}

type WatchConfig struct {
	Root        string // drop directory, one subdirectory per engagement id
	AllowedExts map[string]struct{}
	InitialScan bool          // if true, walk the root and emit existing files
	Debounce    time.Duration // coalesce rapid update/rename bursts
}

// StartWatcher watches the drop directory recursively and emits paths of
// changed artifact files.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	if cfg.Root == "" {
		return nil, nil, errors.New("no watch root provided")
	}
	if cfg.AllowedExts == nil {
		cfg.AllowedExts = defaultExts
	}
	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	err = filepath.WalkDir(cfg.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return w.Add(path)
		}
		if cfg.InitialScan && allowed(path, cfg.AllowedExts) {
			select {
			case evCh <- path:
			default:
			}
		}
		return nil
	})
	if err != nil {
		_ = w.Close()
		return nil, nil, err
	}

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer w.Close()

		var timer *time.Timer
		pending := map[string]struct{}{}

		sendPending := func() {
			for p := range pending {
				select {
				case evCh <- p:
				default:
				}
				delete(pending, p)
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e := <-w.Events:
				if e.Op&fsnotify.Create == fsnotify.Create {
					// A new engagement subdirectory needs its own watch.
					if info, statErr := os.Stat(e.Name); statErr == nil && info.IsDir() {
						if addErr := w.Add(e.Name); addErr != nil {
							slog.Warn("failed to watch new directory", "path", e.Name, "error", addErr)
						}
					}
				}

				if allowed(e.Name, cfg.AllowedExts) && (e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename)) != 0 {
					pending[e.Name] = struct{}{}
					if cfg.Debounce > 0 {
						if timer != nil {
							timer.Stop()
						}
						timer = time.AfterFunc(cfg.Debounce, sendPending)
					} else {
						sendPending()
					}
				}
			case err := <-w.Errors:
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

func allowed(path string, exts map[string]struct{}) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, ok := exts[ext]
	return ok
}

// RunDropDir consumes watcher events and feeds each dropped file through
// Accept. The drop-directory layout is <root>/<engagement-uuid>/<artifact>;
// files outside an engagement subdirectory are skipped with a warning.
func (s *Service) RunDropDir(ctx context.Context, cfg WatchConfig) error {
	events, errs, err := StartWatcher(ctx, cfg)
	if err != nil {
		return err
	}
	s.logger.Info("ingest.watcher.started", "root", cfg.Root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if ok && err != nil {
				s.logger.Error("ingest.watcher.error", "error", err)
			}
		case path, ok := <-events:
			if !ok {
				return nil
			}
			s.acceptFile(ctx, cfg.Root, path)
		}
	}
}

func (s *Service) acceptFile(ctx context.Context, root, path string) {
	engagementID, err := engagementFromPath(root, path)
	if err != nil {
		s.logger.Warn("ingest.watcher.skipped", "path", path, "error", err)
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("ingest.watcher.read_failed", "path", path, "error", err)
		return
	}
	receipt, err := s.Accept(ctx, AcceptRequest{
		EngagementID: engagementID,
		ArtifactName: filepath.Base(path),
		Content:      string(content),
		CategoryHint: hintFromPath(path),
	})
	if err != nil {
		s.logger.Error("ingest.watcher.rejected", "path", path, "error", err)
		return
	}
	if receipt.Duplicate {
		s.logger.Info("ingest.watcher.duplicate", "path", path, "job_id", receipt.JobID)
	}
}

func engagementFromPath(root, path string) (uuid.UUID, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return uuid.Nil, err
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return uuid.Nil, errors.New("file is not inside an engagement directory")
	}
	return uuid.Parse(parts[0])
}

// hintFromPath reads an optional category hint from a filename prefix, e.g.
// "kickoff--notes.txt".
func hintFromPath(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "--"); i > 0 {
		return base[:i]
	}
	return ""
}
