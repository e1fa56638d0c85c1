// Package motd supplies the server's message-of-the-day lines.
package motd

import (
	"bufio"
	"os"

	"github.com/pkg/errors"
)

// Provider returns the MOTD as a sequence of lines, stripped of their line
// endings. An empty slice is a valid MOTD (registration still completes,
// with only the start/end markers sent).
type Provider interface {
	Lines() []string
}

// FileProvider reads a MOTD file once at construction time. A missing file
// yields a Provider with zero lines rather than an error, per spec.md §5.
type FileProvider struct {
	lines []string
}

// NewFileProvider reads path and returns a FileProvider. If path is blank or
// the file does not exist, it returns a provider with no lines and a nil
// error: a missing MOTD is not a startup failure.
func NewFileProvider(path string) (*FileProvider, error) {
	if path == "" {
		return &FileProvider{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileProvider{}, nil
		}
		return nil, errors.Wrapf(err, "opening motd file %s", path)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading motd file %s", path)
	}

	return &FileProvider{lines: lines}, nil
}

// Lines implements Provider.
func (p *FileProvider) Lines() []string {
	return p.lines
}
