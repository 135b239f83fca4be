package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmunix/remotefiles/pkg/medianame"
)

// ErrRootMissing is returned when a library root does not exist or is not a directory.
var ErrRootMissing = errors.New("library root missing")

// MovieCandidate is a video file directly under the movies root.
type MovieCandidate struct {
	Path string
	Name string
	Size int64
}

// EpisodeCandidate is a video file at series/season/file depth under the series root.
type EpisodeCandidate struct {
	SeriesDir string
	SeasonDir string
	Path      string
	Name      string
	Size      int64
}

func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrRootMissing, root)
		}
		return fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrRootMissing, root)
	}
	return nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// videoFile reports whether entry is a visible video file and returns its size.
// Symlinks are followed; entries that vanish mid-walk are skipped.
func videoFile(dir string, entry fs.DirEntry) (int64, bool) {
	if hidden(entry.Name()) || !medianame.IsVideoFile(entry.Name()) {
		return 0, false
	}
	var info fs.FileInfo
	var err error
	if entry.Type()&fs.ModeSymlink != 0 {
		info, err = os.Stat(filepath.Join(dir, entry.Name()))
	} else {
		info, err = entry.Info()
	}
	if err != nil || !info.Mode().IsRegular() {
		return 0, false
	}
	return info.Size(), true
}

// CrawlMovies lists the video files directly inside root, in name order.
// Subdirectories and hidden entries are ignored.
func CrawlMovies(root string) ([]MovieCandidate, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read movies root: %w", err)
	}

	var out []MovieCandidate
	for _, entry := range entries {
		size, ok := videoFile(root, entry)
		if !ok {
			continue
		}
		out = append(out, MovieCandidate{
			Path: filepath.Join(root, entry.Name()),
			Name: entry.Name(),
			Size: size,
		})
	}
	return out, nil
}

// CrawlSeries lists episode files two directory levels below root
// (root/<series>/<season>/<file>), ordered by series, season, then file name.
// Season directory names are not interpreted here.
func CrawlSeries(root string) ([]EpisodeCandidate, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}
	seriesDirs, err := readSubdirs(root)
	if err != nil {
		return nil, fmt.Errorf("read series root: %w", err)
	}

	var out []EpisodeCandidate
	for _, series := range seriesDirs {
		seriesPath := filepath.Join(root, series)
		seasonDirs, err := readSubdirs(seriesPath)
		if err != nil {
			return nil, fmt.Errorf("read series %q: %w", series, err)
		}
		for _, season := range seasonDirs {
			seasonPath := filepath.Join(seriesPath, season)
			entries, err := os.ReadDir(seasonPath)
			if err != nil {
				return nil, fmt.Errorf("read season %q of %q: %w", season, series, err)
			}
			for _, entry := range entries {
				size, ok := videoFile(seasonPath, entry)
				if !ok {
					continue
				}
				out = append(out, EpisodeCandidate{
					SeriesDir: series,
					SeasonDir: season,
					Path:      filepath.Join(seasonPath, entry.Name()),
					Name:      entry.Name(),
					Size:      size,
				})
			}
		}
	}
	return out, nil
}

// readSubdirs lists the visible directories in dir, following symlinks.
func readSubdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if hidden(entry.Name()) {
			continue
		}
		isDir := entry.IsDir()
		if entry.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(filepath.Join(dir, entry.Name()))
			isDir = err == nil && info.IsDir()
		}
		if isDir {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
