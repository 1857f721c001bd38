// Package glob expands file patterns the way hardware tool file lists
// expect: '?' matches one character, '*' matches within one path
// segment, and a '...' segment descends recursively. Every expansion
// also reports a specificity Rank used to break library-ownership ties.
package glob

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Mode selects what kind of filesystem entries a pattern matches.
type Mode uint8

const (
	// ModeFiles matches regular files.
	ModeFiles Mode = iota
	// ModeDirectories matches directories.
	ModeDirectories
)

// Rank orders patterns by specificity; lower is more specific.
// A file named by an exact path outranks one matched by a wildcard,
// which outranks one swept up by naming its directory.
type Rank uint8

const (
	RankExactPath Rank = iota
	RankPlainName
	RankWildcardName
	RankDirectory
)

func (r Rank) String() string {
	switch r {
	case RankExactPath:
		return "exact path"
	case RankPlainName:
		return "plain name"
	case RankWildcardName:
		return "wildcard name"
	case RankDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Expand resolves pattern relative to base (base may be empty) and
// returns the matching paths in sorted order together with the
// pattern's rank. Environment variables of the form $VAR or ${VAR}
// are substituted first when expandEnvVars is set.
func Expand(base, pattern string, mode Mode, expandEnvVars bool) ([]string, Rank, error) {
	if expandEnvVars {
		pattern = os.Expand(pattern, os.Getenv)
	}
	if pattern == "" {
		return nil, RankExactPath, os.ErrInvalid
	}

	full := pattern
	if base != "" && !filepath.IsAbs(pattern) {
		full = filepath.Join(base, pattern)
	}
	full = filepath.ToSlash(full)

	if !hasWildcards(full) {
		return expandExact(full, mode)
	}

	segs := strings.Split(full, "/")
	var roots []string
	if len(segs) > 0 && segs[0] == "" {
		roots = []string{"/"}
		segs = segs[1:]
	} else {
		roots = []string{"."}
	}

	matches := walkSegments(roots, segs, mode)
	sort.Strings(matches)

	rank := RankPlainName
	if len(segs) > 0 && hasWildcards(segs[len(segs)-1]) {
		rank = RankWildcardName
	}
	return matches, rank, nil
}

// expandExact handles wildcard-free patterns. A pattern naming a
// directory in files mode sweeps up the regular files directly inside
// it, at directory rank.
func expandExact(path string, mode Mode) ([]string, Rank, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, RankExactPath, err
	}

	switch mode {
	case ModeDirectories:
		if !info.IsDir() {
			return nil, RankExactPath, os.ErrInvalid
		}
		return []string{filepath.ToSlash(filepath.Clean(path))}, RankExactPath, nil
	default:
		if !info.IsDir() {
			return []string{filepath.ToSlash(filepath.Clean(path))}, RankExactPath, nil
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, RankDirectory, err
		}
		var out []string
		for _, e := range entries {
			if e.Type().IsRegular() {
				out = append(out, filepath.ToSlash(filepath.Join(path, e.Name())))
			}
		}
		sort.Strings(out)
		return out, RankDirectory, nil
	}
}

// walkSegments advances the pattern one path segment at a time from
// every current root, fanning out on wildcard segments.
func walkSegments(roots []string, segs []string, mode Mode) []string {
	for i, seg := range segs {
		last := i == len(segs)-1
		var next []string

		switch {
		case seg == "...":
			// Recursive descent: every directory below the current
			// roots becomes a root for the rest of the pattern. For a
			// trailing '...' match everything below.
			for _, root := range roots {
				next = append(next, descend(root, last, mode)...)
			}
			if last {
				return next
			}
		case hasWildcards(seg):
			for _, root := range roots {
				entries, err := os.ReadDir(root)
				if err != nil {
					continue
				}
				for _, e := range entries {
					if !matchSegment(seg, e.Name()) {
						continue
					}
					child := filepath.ToSlash(filepath.Join(root, e.Name()))
					if last {
						if wantEntry(e.IsDir(), mode) {
							next = append(next, child)
						}
					} else if e.IsDir() {
						next = append(next, child)
					}
				}
			}
		default:
			for _, root := range roots {
				child := filepath.ToSlash(filepath.Join(root, seg))
				info, err := os.Stat(child)
				if err != nil {
					continue
				}
				if last {
					if wantEntry(info.IsDir(), mode) {
						next = append(next, child)
					}
				} else if info.IsDir() {
					next = append(next, child)
				}
			}
		}

		roots = next
		if len(roots) == 0 {
			return nil
		}
	}
	return roots
}

// descend lists everything below root. When terminal is set the
// results are final matches filtered by mode, otherwise they are the
// directories to continue matching from (including root itself, so
// "a/.../x.sv" can match "a/x.sv").
func descend(root string, terminal bool, mode Mode) []string {
	var out []string
	if !terminal {
		out = append(out, root)
	}
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || path == root {
			return nil
		}
		if terminal {
			if wantEntry(d.IsDir(), mode) {
				out = append(out, filepath.ToSlash(path))
			}
		} else if d.IsDir() {
			out = append(out, filepath.ToSlash(path))
		}
		return nil
	})
	return out
}

func wantEntry(isDir bool, mode Mode) bool {
	if mode == ModeDirectories {
		return isDir
	}
	return !isDir
}

func hasWildcards(s string) bool {
	return strings.ContainsAny(s, "*?") || strings.Contains(s, "...")
}

// matchSegment matches a single path segment against a pattern
// containing '*' and '?'.
func matchSegment(pattern, name string) bool {
	p, n := 0, 0
	star, starN := -1, 0
	for n < len(name) {
		switch {
		case p < len(pattern) && (pattern[p] == '?' || pattern[p] == name[n]):
			p++
			n++
		case p < len(pattern) && pattern[p] == '*':
			star, starN = p, n
			p++
		case star >= 0:
			starN++
			p = star + 1
			n = starN
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}
