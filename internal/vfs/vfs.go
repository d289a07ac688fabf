// Package vfs resolves between virtual paths (rooted at a configured mount
// name) and real filesystem paths. It holds no state beyond the mount list
// and performs no I/O.
package vfs

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/agersant/polaris/internal/apperror"
)

// Mount maps a virtual path prefix (Name) to a real filesystem root (Source).
type Mount struct {
	Name   string
	Source string
}

var separatorRun = regexp.MustCompile(`[\\/]+`)

// sanitizeSource collapses runs of '\' and '/' into the host separator, the
// same normalization the original Polaris applies to configured mount
// sources before using them.
func sanitizeSource(source string) string {
	normalized := separatorRun.ReplaceAllString(source, string(filepath.Separator))
	return strings.TrimSuffix(normalized, string(filepath.Separator))
}

// VFS is an immutable, ordered list of mounts. Build it once from config via
// New; mount names are deduplicated, first occurrence wins.
type VFS struct {
	mounts []Mount
}

// New builds a VFS from raw (name, source) pairs, sanitizing sources and
// dropping mounts whose name has already been seen.
func New(mounts []Mount) *VFS {
	seen := make(map[string]bool, len(mounts))
	out := make([]Mount, 0, len(mounts))
	for _, m := range mounts {
		if seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		out = append(out, Mount{Name: m.Name, Source: sanitizeSource(m.Source)})
	}
	return &VFS{mounts: out}
}

// Mounts returns the resolved mount list.
func (v *VFS) Mounts() []Mount {
	return v.mounts
}

func splitVirtual(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// VirtualToReal maps a virtual path to a real path by finding the mount whose
// name matches the path's first component and joining the remainder onto
// that mount's source.
func (v *VFS) VirtualToReal(virtualPath string) (string, error) {
	parts := splitVirtual(virtualPath)
	if len(parts) == 0 {
		return "", apperror.ErrCouldNotMapToRealPath
	}
	for _, m := range v.mounts {
		if m.Name != parts[0] {
			continue
		}
		if len(parts) == 1 {
			return m.Source, nil
		}
		return filepath.Join(append([]string{m.Source}, parts[1:]...)...), nil
	}
	return "", apperror.ErrCouldNotMapToRealPath
}

// RealToVirtual maps a real path back to a virtual path by finding the mount
// whose source is a prefix of it.
func (v *VFS) RealToVirtual(realPath string) (string, error) {
	for _, m := range v.mounts {
		rel, err := filepath.Rel(m.Source, realPath)
		if err != nil {
			continue
		}
		if rel == "." {
			return m.Name, nil
		}
		if strings.HasPrefix(rel, "..") {
			continue
		}
		return m.Name + "/" + filepath.ToSlash(rel), nil
	}
	return "", apperror.ErrCouldNotMapToVirtualPath
}
