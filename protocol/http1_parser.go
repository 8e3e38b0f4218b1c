package protocol

import (
	"strings"

	"github.com/nczempin/httpd-go/errors"
)

// ParseRequest parses a complete request held in raw. The whole message is
// expected in raw; nothing is carried over between calls.
func ParseRequest(raw []byte) (*HttpRequest, error) {
	lines := splitLines(string(raw))
	if len(lines) == 0 || lines[0] == "" {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorEmptyRequest,
			"empty request",
		)
	}

	req := &HttpRequest{Headers: make(map[string]string)}
	if err := parseRequestLine(req, lines[0]); err != nil {
		return nil, err
	}

	i := 1
	for ; i < len(lines); i++ {
		line := lines[i]
		if line == "" || line == "\r" {
			i++
			break
		}
		if err := parseHeader(req, line); err != nil {
			return nil, err
		}
	}

	var body strings.Builder
	for ; i < len(lines); i++ {
		body.WriteString(lines[i])
		body.WriteByte('\n')
	}
	req.Body = body.String()

	return req, nil
}

// splitLines splits on '\n' without producing a trailing empty line for
// input that ends in a newline. Carriage returns stay attached.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// parseRequestLine reads the first three whitespace separated tokens;
// anything after the version token is ignored.
func parseRequestLine(req *HttpRequest, line string) error {
	tokens := strings.Fields(line)
	if len(tokens) < 3 {
		return errors.NewProtocolError(
			errors.ProtocolErrorInvalidRequestLine,
			"request line needs method, uri and version",
		)
	}

	version := tokens[2]
	if version != Version11 && version != Version10 {
		return errors.NewProtocolError(
			errors.ProtocolErrorUnsupportedVersion,
			"unsupported version: "+version,
		)
	}

	req.Method = tokens[0]
	req.URI = tokens[1]
	req.Version = version
	return nil
}

func parseHeader(req *HttpRequest, line string) error {
	name, value, ok := strings.Cut(line, ":")
	if !ok {
		return errors.NewProtocolError(
			errors.ProtocolErrorInvalidHeader,
			"header line without ':'",
		)
	}

	value = strings.TrimLeft(value, " \t")
	value = strings.TrimRight(value, " \t\r")
	req.Headers[name] = value
	return nil
}
