package commandmap

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"home-voice/internal/domain"
)

const blockHeader = "commands"

// Loader reads the supported-command table from an indentation-based
// document:
//
//	commands:
//	  living room:
//	    switch:
//	      - light
//	    gradient:
//	      - windowblinds
type Loader struct {
	fs     afero.Fs
	path   string
	logger *slog.Logger
}

func NewLoader(fs afero.Fs, path string, logger *slog.Logger) *Loader {
	return &Loader{fs: fs, path: path, logger: logger}
}

func (l *Loader) Load() (domain.CommandMap, error) {
	f, err := l.fs.Open(l.path)
	if err != nil {
		return domain.CommandMap{}, fmt.Errorf("opening command map: %w", err)
	}
	defer f.Close()

	m, err := Parse(f, l.logger)
	if err != nil {
		return domain.CommandMap{}, fmt.Errorf("reading %s: %w", l.path, err)
	}

	l.logger.Info("command map loaded",
		"path", l.path,
		"locations", len(m.Locations),
		"commands", len(m.Commands),
	)
	return m, nil
}

// Parse reads every commands block in r. Unknown action families and
// subjects are skipped, but their location is still recorded.
func Parse(r io.Reader, logger *slog.Logger) (domain.CommandMap, error) {
	var (
		m          domain.CommandMap
		inBlock    bool
		base       int
		location   string
		family     domain.ActionFamily
		haveFamily bool
		seen       = make(map[string]bool)
		lineNo     int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		indent, text := cleanLine(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		if inBlock && indent <= base {
			inBlock = false
		}
		if !inBlock {
			if text == blockHeader {
				inBlock = true
				base = indent
				location = ""
				haveFamily = false
			}
			continue
		}

		switch indent - base {
		case 1:
			location = text
			haveFamily = false
			if !seen[location] {
				seen[location] = true
				m.Locations = append(m.Locations, location)
			}
		case 2:
			family, haveFamily = domain.ParseActionFamily(strings.ToLower(text))
			if !haveFamily {
				logger.Warn("skipping unknown action family", "line", lineNo, "action", text)
			}
		case 3:
			if location == "" || !haveFamily {
				continue
			}
			subject, ok := domain.ParseSubject(strings.ToLower(text))
			if !ok {
				logger.Warn("skipping unknown subject", "line", lineNo, "subject", text)
				continue
			}
			m.Commands = append(m.Commands, domain.SupportedCommand{
				Location: location,
				Family:   family,
				Subject:  subject,
			})
		default:
			logger.Debug("ignoring nested line", "line", lineNo, "text", text)
		}
	}
	if err := scanner.Err(); err != nil {
		return domain.CommandMap{}, err
	}
	return m, nil
}

// cleanLine returns the nesting depth of a line and its bare key. Two
// spaces or one tab make one level.
func cleanLine(line string) (int, string) {
	spaces, tabs := 0, 0
	for _, c := range line {
		if c == ' ' {
			spaces++
		} else if c == '\t' {
			tabs++
		} else {
			break
		}
	}

	text := strings.TrimLeft(line, " \t-\"")
	text = strings.TrimRight(text, " \t\r\":")
	return spaces/2 + tabs, text
}
