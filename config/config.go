package config

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/nczempin/httpd-go/errors"
)

// DefaultPath is used when no config file is named on the command line
const DefaultPath = "config/default.conf"

// Recognized keys
const (
	KeyPort         = "port"
	KeyRoot         = "root"
	KeyIndex        = "index"
	KeyErrorPage404 = "error_page_404"
	KeyHost         = "host"
	KeyBacklog      = "backlog"
	KeyBufferSize   = "buffer_size"
	KeyIoBackend    = "io_backend"
	KeyLogLevel     = "log_level"
)

// Store is a flat key-value view of a config file
type Store struct {
	settings map[string]string
}

// New creates a Store from an in-memory map
func New(settings map[string]string) *Store {
	s := &Store{settings: make(map[string]string, len(settings))}
	for k, v := range settings {
		s.settings[k] = v
	}
	return s
}

// Load reads and parses the config file at path
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewConfigError(
			errors.ConfigErrorUnreadable,
			"cannot open config file: "+path,
			err,
		)
	}
	defer f.Close()

	s := &Store{settings: make(map[string]string)}
	reader := bufio.NewReader(f)
	for {
		raw, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, errors.NewConfigError(
				errors.ConfigErrorUnreadable,
				"cannot read config file: "+path,
				err,
			)
		}

		line := stripSpace(raw)
		if line != "" && line[0] != '#' {
			if key, value, ok := strings.Cut(line, "="); ok {
				s.settings[key] = value
			}
		}

		if err == io.EOF {
			break
		}
	}

	return s, nil
}

// stripSpace removes every whitespace rune, not only the surrounding ones
func stripSpace(line string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, line)
}

// Get returns the value for key, or "" if the key is unknown
func (s *Store) Get(key string) string {
	return s.settings[key]
}

// GetDefault returns the value for key, or def if the key is unknown or empty
func (s *Store) GetDefault(key, def string) string {
	if v := s.settings[key]; v != "" {
		return v
	}
	return def
}

// Int parses key as a decimal integer, returning def when the key is absent
func (s *Store) Int(key string, def int) (int, error) {
	v := s.settings[key]
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.NewConfigError(
			errors.ConfigErrorInvalidValue,
			key+" is not a number: "+v,
			err,
		)
	}
	return n, nil
}

// Port returns the required listening port
func (s *Store) Port() (int, error) {
	if s.settings[KeyPort] == "" {
		return 0, errors.NewConfigError(
			errors.ConfigErrorMissingKey,
			"no port specified in config",
			nil,
		)
	}
	port, err := s.Int(KeyPort, 0)
	if err != nil {
		return 0, err
	}
	if port < 1 || port > 65535 {
		return 0, errors.NewConfigError(
			errors.ConfigErrorInvalidValue,
			"port out of range: "+s.settings[KeyPort],
			nil,
		)
	}
	return port, nil
}
