package state

import (
	"strings"

	"scour/internal/logging"
)

// WriteFile upserts a virtual file. Overwrites are unconditional; there are
// no directories and no size limit here. Context discipline is the caller's
// job, not this store's.
func (s *Session) WriteFile(name, content string) {
	if _, exists := s.files[name]; !exists {
		s.fileOrder = append(s.fileOrder, name)
	}
	s.files[name] = content
	logging.StateDebug("write_file: %s (%d bytes)", name, len(content))
}

// ReadFile returns the full content of a virtual file.
func (s *Session) ReadFile(name string) (string, error) {
	content, ok := s.files[name]
	if !ok {
		return "", ErrFileNotFound
	}
	return content, nil
}

// ReadFileRange returns up to limit lines starting at offset (0-indexed).
// limit <= 0 means to the end. Used by the read_file tool so large research
// artifacts can be paged instead of dumped into the conversation.
func (s *Session) ReadFileRange(name string, offset, limit int) (string, error) {
	content, err := s.ReadFile(name)
	if err != nil {
		return "", err
	}

	lines := strings.Split(content, "\n")
	if offset < 0 {
		offset = 0
	}
	if offset >= len(lines) {
		return "", nil
	}
	end := len(lines)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return strings.Join(lines[offset:end], "\n"), nil
}

// ListFiles returns all virtual file names in insertion order.
func (s *Session) ListFiles() []string {
	return append([]string(nil), s.fileOrder...)
}

// FileCount returns the number of virtual files.
func (s *Session) FileCount() int {
	return len(s.files)
}

// Files returns a copy of the file map. Used by the run result boundary.
func (s *Session) Files() map[string]string {
	out := make(map[string]string, len(s.files))
	for name, content := range s.files {
		out[name] = content
	}
	return out
}
