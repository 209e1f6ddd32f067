// Zaparoo Countdown
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Countdown.
//
// Zaparoo Countdown is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Countdown is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Countdown.  If not, see <http://www.gnu.org/licenses/>.

package videos

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var ErrInvalidPath = errors.New("invalid video path")

// Library lists the videos below a root directory.
type Library struct {
	fs   afero.Fs
	root string
	exts map[string]struct{}
}

func NewLibrary(fsys afero.Fs, root string, extensions []string) *Library {
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}
	return &Library{
		fs:   fsys,
		root: filepath.Clean(root),
		exts: exts,
	}
}

func (l *Library) Root() string {
	return l.root
}

// IsVideo reports whether name has one of the library's extensions.
func (l *Library) IsVideo(name string) bool {
	_, ok := l.exts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// List walks the library and returns every video ordered by path. Hidden
// files and directories are skipped. A missing root is an empty library.
func (l *Library) List() ([]Video, error) {
	var found []Video

	err := afero.Walk(l.fs, l.root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			if p == l.root && errors.Is(err, os.ErrNotExist) {
				return filepath.SkipDir
			}
			log.Warn().Err(err).Str("path", p).Msg("videos: error walking library")
			return nil
		}

		name := info.Name()
		if p != l.root && strings.HasPrefix(name, ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() || !l.IsVideo(name) {
			return nil
		}

		rel, err := l.Rel(p)
		if err != nil {
			return nil
		}
		found = append(found, newVideo(rel))
		return nil
	})
	if err != nil && !errors.Is(err, filepath.SkipDir) {
		return nil, fmt.Errorf("failed to walk video library: %w", err)
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Path < found[j].Path
	})
	return found, nil
}

// Rel converts an absolute file path inside the library to a video path.
func (l *Library) Rel(p string) (string, error) {
	if !helpers.IsSubPath(l.root, p) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, p)
	}
	rel, err := filepath.Rel(l.root, p)
	if err != nil || rel == "." {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, p)
	}
	return filepath.ToSlash(rel), nil
}

// Abs converts a video path to a file path, rejecting anything that would
// escape the library root.
func (l *Library) Abs(videoPath string) (string, error) {
	clean, err := CleanPath(videoPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

// Lookup returns the video at the given path if it exists in the library.
func (l *Library) Lookup(videoPath string) (Video, bool) {
	abs, err := l.Abs(videoPath)
	if err != nil || !l.IsVideo(abs) {
		return Video{}, false
	}
	info, err := l.fs.Stat(abs)
	if err != nil || info.IsDir() {
		return Video{}, false
	}
	clean, _ := CleanPath(videoPath)
	return newVideo(clean), true
}

// FileSystem serves the library root over HTTP.
func (l *Library) FileSystem() http.FileSystem {
	return afero.NewHttpFs(afero.NewBasePathFs(l.fs, l.root))
}

// CleanPath normalises a video path and rejects absolute paths and paths
// that leave the library.
func CleanPath(videoPath string) (string, error) {
	p := strings.ReplaceAll(videoPath, "\\", "/")
	if p == "" || strings.HasPrefix(p, "/") || filepath.IsAbs(videoPath) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, videoPath)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, videoPath)
	}
	return clean, nil
}
