package merge

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// scan lists the regular files directly inside dir whose lower-cased
// extension is in exts, skipping the run's own artifacts. Symlinks count
// when they resolve to a regular file. The result is in directory order;
// callers sort it.
func (m *Merger) scan(dir string, exts []string) ([]string, error) {
	entries, err := m.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read directory: %v", ErrFilesystem, err)
	}

	artifacts := m.cfg.artifactNames()
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if slices.Contains(artifacts, name) {
			continue
		}
		if !slices.Contains(exts, strings.ToLower(filepath.Ext(name))) {
			continue
		}
		if !m.isRegular(dir, entry) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func (m *Merger) isRegular(dir string, entry fs.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := m.fs.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}

// scanInputs applies the primary extensions, then the fallback ones with a
// warning. It returns the matched names and the extension set that matched.
func (m *Merger) scanInputs(dir string) ([]string, []string, error) {
	names, err := m.scan(dir, m.cfg.Extensions)
	if err != nil {
		return nil, nil, err
	}
	if len(names) > 0 {
		return names, m.cfg.Extensions, nil
	}

	if len(m.cfg.FallbackExtensions) > 0 {
		names, err = m.scan(dir, m.cfg.FallbackExtensions)
		if err != nil {
			return nil, nil, err
		}
		if len(names) > 0 {
			m.logger.Warn("no primary input files, using fallback extensions",
				"dir", dir,
				"wanted", strings.Join(m.cfg.Extensions, ","),
				"using", strings.Join(m.cfg.FallbackExtensions, ","),
				"files", len(names))
			return names, m.cfg.FallbackExtensions, nil
		}
	}

	wanted := append(append([]string(nil), m.cfg.Extensions...), m.cfg.FallbackExtensions...)
	return nil, nil, fmt.Errorf("%w in %s (looked for %s)", ErrNoInput, dir, strings.Join(wanted, ", "))
}
