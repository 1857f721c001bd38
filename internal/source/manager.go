package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fortio.org/safecast"
)

// Manager owns every source buffer read during a session and provides
// global offset resolution. Reads are cached by normalized path: the
// first reader of a path wins and later readers observe its result.
// Safe for concurrent use by parse workers.
type Manager struct {
	mu      sync.RWMutex
	files   []File
	index   map[string]FileID // normalized path -> id
	baseDir string
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// NewManagerWithBase creates a Manager with a base directory used for
// relative path rendering.
func NewManagerWithBase(baseDir string) *Manager {
	m := NewManager()
	m.baseDir = baseDir
	return m
}

// BaseDir returns the configured base directory, falling back to the
// current working directory.
func (m *Manager) BaseDir() string {
	if m.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return m.baseDir
}

// Add stores a file from normalized bytes, computes the line index and
// content hash, and returns its new FileID.
func (m *Manager) Add(path string, content []byte, flags FileFlags, library string) FileID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addLocked(path, content, flags, library)
}

func (m *Manager) addLocked(path string, content []byte, flags FileFlags, library string) FileID {
	hash := sha256.Sum256(content)
	lineIdx := buildLineIndex(content)
	normalizedPath := NormalizePath(path)

	lenFiles, err := safecast.Conv[uint32](len(m.files))
	if err != nil {
		panic(fmt.Errorf("file count overflow: %w", err))
	}
	id := FileID(lenFiles)
	m.files = append(m.files, File{
		ID:      id,
		Path:    normalizedPath,
		Content: content,
		LineIdx: lineIdx,
		Hash:    hash,
		Flags:   flags,
		Library: library,
	})
	m.index[normalizedPath] = id
	return id
}

// AddVirtual adds an in-memory file (stdin, test, generated).
func (m *Manager) AddVirtual(name string, content []byte) FileID {
	return m.Add(name, content, FileVirtual, "")
}

// ReadSource reads the file at path, normalizing CRLF/BOM, and caches
// it. A path that was already read returns the cached FileID without
// touching the filesystem; the library tag of the first read sticks.
func (m *Manager) ReadSource(path, library string) (FileID, error) {
	normalizedPath := NormalizePath(path)

	m.mu.RLock()
	id, ok := m.index[normalizedPath]
	m.mu.RUnlock()
	if ok {
		return id, nil
	}

	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another reader may have won the race while we were on disk.
	if id, ok := m.index[normalizedPath]; ok {
		return id, nil
	}
	return m.addLocked(path, content, flags, library), nil
}

// IsCached reports whether the path was already read or added.
func (m *Manager) IsCached(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.index[NormalizePath(path)]
	return ok
}

// Get returns the file metadata for the given ID.
func (m *Manager) Get(id FileID) *File {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &m.files[id]
}

// GetByPath returns the file for a path, if it was loaded.
func (m *Manager) GetByPath(path string) (*File, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.index[NormalizePath(path)]; ok {
		return &m.files[id], true
	}
	return nil, false
}

// Len returns the number of cached files.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

// Resolve converts a span into line and column positions.
func (m *Manager) Resolve(span Span) (start, end LineCol) {
	f := m.Get(span.File)
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// GetLine returns the 1-based line from the file, or "" when out of range.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}

	var start, end, lenLineIdx, lenContent uint32
	var err error
	lenLineIdx, err = safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		panic(fmt.Errorf("line index length overflow: %w", err))
	}
	lenContent, err = safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}

	switch {
	case lineNum == 1:
		start = 0
	case (lineNum - 2) < lenLineIdx:
		start = f.LineIdx[lineNum-2] + 1
	default:
		return ""
	}

	if (lineNum - 1) < lenLineIdx {
		end = f.LineIdx[lineNum-1]
	} else {
		end = lenContent
	}

	if start >= lenContent {
		return ""
	}
	if end > lenContent {
		end = lenContent
	}

	return string(f.Content[start:end])
}

// FormatPath renders the file path in the requested mode:
// "absolute", "relative", "basename" or "auto".
func (f *File) FormatPath(mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := AbsolutePath(f.Path); err == nil {
			return abs
		}
		return f.Path

	case "relative":
		if baseDir == "" {
			if wd, err := os.Getwd(); err == nil {
				baseDir = wd
			}
		}
		if rel, err := RelativePath(f.Path, baseDir); err == nil {
			return rel
		}
		return f.Path

	case "basename":
		return BaseName(f.Path)

	default:
		// Auto: short or relative paths as-is, otherwise basename.
		if len(f.Path) < 40 || !filepath.IsAbs(f.Path) {
			return f.Path
		}
		return BaseName(f.Path)
	}
}
