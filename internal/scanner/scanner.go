// Package scanner walks mount roots concurrently, emitting Directory and
// Song records on two channels as files are discovered. It never aborts a
// scan because of one bad file or directory: errors are logged and that
// subtree or file is skipped.
package scanner

import (
	"os"
	"path"
	"regexp"
	"runtime"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agersant/polaris/internal/metadata"
	"github.com/agersant/polaris/internal/vfs"
)

// DefaultArtworkPattern matches the conventional folder-art filename, case
// insensitively, used when no pattern is configured.
const DefaultArtworkPattern = `Folder\.(jpeg|jpg|png)`

// Directory is one visited directory, emitted exactly once per directory.
type Directory struct {
	RealPath      string
	VirtualPath   string
	VirtualParent string // empty iff this is a mount root
}

// Song is one discovered audio file, emitted once metadata extraction
// succeeds for it.
type Song struct {
	metadata.SongMetadata

	RealPath      string
	VirtualPath   string
	VirtualParent string
	Artwork       string // virtual path, empty if none
	DateAdded     int64  // unix seconds
}

// Scanner walks a VFS's mounts with a bounded pool of worker goroutines.
type Scanner struct {
	NumWorkers     int
	ArtworkPattern *regexp.Regexp
	Logger         zerolog.Logger
}

// New returns a Scanner configured per spec.md §4.3: worker count defaults
// to min(4, NumCPU), overridable by POLARIS_NUM_TRAVERSER_THREADS, and the
// default artwork filename pattern.
func New(logger zerolog.Logger) *Scanner {
	workers := runtime.NumCPU()
	if workers > 4 {
		workers = 4
	}
	if v := os.Getenv("POLARIS_NUM_TRAVERSER_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			workers = n
		}
	}
	return &Scanner{
		NumWorkers:     workers,
		ArtworkPattern: regexp.MustCompile(`(?i)` + DefaultArtworkPattern),
		Logger:         logger,
	}
}

// walkTask describes one directory to visit.
type walkTask struct {
	realPath      string
	virtualPath   string
	virtualParent string
	isRoot        bool
}

// Scan walks every mount and returns two channels carrying Directory and
// Song records as they are discovered. Both channels are closed once the
// scan completes. Concurrency is bounded to NumWorkers in-flight directory
// visits via a semaphore, matching the teacher's bounded worker-pool idiom
// (sync.WaitGroup + a fixed number of concurrent goroutines) rather than
// the original's explicit work-stealing queue, since Go's goroutine
// scheduler makes the semaphore-bounded recursive form equivalent in
// practice.
func (s *Scanner) Scan(mounts []vfs.Mount) (<-chan Directory, <-chan Song) {
	dirCh := make(chan Directory, 1024)
	songCh := make(chan Song, 1024)

	go func() {
		defer close(dirCh)
		defer close(songCh)

		sem := make(chan struct{}, s.NumWorkers)
		var wg sync.WaitGroup

		var walk func(task walkTask)
		walk = func(task walkTask) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			s.visitDirectory(task, dirCh, songCh, func(child walkTask) {
				wg.Add(1)
				go walk(child)
			})
		}

		for _, m := range mounts {
			wg.Add(1)
			go walk(walkTask{realPath: m.Source, virtualPath: m.Name, isRoot: true})
		}
		wg.Wait()
	}()

	return dirCh, songCh
}

func (s *Scanner) visitDirectory(task walkTask, dirCh chan<- Directory, songCh chan<- Song, spawnChild func(walkTask)) {
	entries, err := os.ReadDir(task.realPath)
	if err != nil {
		s.Logger.Warn().Err(err).Str("path", task.realPath).Msg("failed to read directory, skipping subtree")
		return
	}

	var songs []Song
	directoryArtwork := ""

	for _, entry := range entries {
		entryReal := path.Join(task.realPath, entry.Name())
		entryVirtual := joinVirtual(task.virtualPath, entry.Name())

		if entry.IsDir() {
			spawnChild(walkTask{
				realPath:      entryReal,
				virtualPath:   entryVirtual,
				virtualParent: task.virtualPath,
			})
			continue
		}

		m, err := metadata.Read(entryReal)
		if err != nil {
			s.Logger.Warn().Err(err).Str("path", entryReal).Msg("failed to read metadata, skipping file")
		}
		if m != nil {
			song := Song{
				SongMetadata:  *m,
				RealPath:      entryReal,
				VirtualPath:   entryVirtual,
				VirtualParent: task.virtualPath,
				DateAdded:     fileDateAdded(entryReal),
			}
			if m.HasEmbeddedArtwork {
				song.Artwork = entryVirtual
			}
			songs = append(songs, song)
			continue
		}

		if directoryArtwork == "" && s.ArtworkPattern.MatchString(entry.Name()) {
			directoryArtwork = entryVirtual
		}
	}

	for _, song := range songs {
		if song.Artwork == "" {
			song.Artwork = directoryArtwork
		}
		songCh <- song
	}

	dirCh <- Directory{
		RealPath:      task.realPath,
		VirtualPath:   task.virtualPath,
		VirtualParent: task.virtualParent,
	}
}

func joinVirtual(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// fileDateAdded returns a file's modification time as unix seconds; 0 on
// error. Creation time is never used: Go's os.FileInfo does not expose it
// portably, so this always takes the fallback branch of spec.md's
// file.created().or(file.modified()).
func fileDateAdded(realPath string) int64 {
	info, err := os.Stat(realPath)
	if err != nil {
		return 0
	}
	return info.ModTime().Unix()
}
