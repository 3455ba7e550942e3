package handshake

import (
	"bufio"
	"net/http"
	"strings"
)

// readLine reads one CRLF- or LF-terminated line from br, with the
// terminator stripped.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// parseRequestLine parses "GET /path HTTP/1.1".
func parseRequestLine(line string) (method, uri, version string, ok bool) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// parseStatusLine parses "HTTP/1.1 101 Switching Protocols".
func parseStatusLine(line string) (version string, status int, reason string, ok bool) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return "", 0, "", false
	}
	status, err := atoi(parts[1])
	if err != nil {
		return "", 0, "", false
	}
	if len(parts) == 3 {
		reason = parts[2]
	}
	return parts[0], status, reason, true
}

func atoi(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, ErrMalformedResponse
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, ErrMalformedResponse
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// httpVersionAtLeast11 reports whether version is "HTTP/1.1" or higher.
func httpVersionAtLeast11(version string) bool {
	switch version {
	case "HTTP/1.1":
		return true
	default:
		major, minor, ok := parseHTTPVersionDigits(version)
		return ok && (major > 1 || (major == 1 && minor >= 1))
	}
}

func parseHTTPVersionDigits(version string) (major, minor int, ok bool) {
	const prefix = "HTTP/"
	if !strings.HasPrefix(version, prefix) {
		return 0, 0, false
	}
	rest := version[len(prefix):]
	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return 0, 0, false
	}
	var err error
	if major, err = atoiPlain(rest[:dot]); err != nil {
		return 0, 0, false
	}
	if minor, err = atoiPlain(rest[dot+1:]); err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

func atoiPlain(s string) (int, error) { return atoi(s) }

// parseHeaderLine splits "Key: value" into a canonical key and trimmed
// value.
func parseHeaderLine(line string) (key, value string, ok bool) {
	k, v, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	return http.CanonicalHeaderKey(strings.TrimSpace(k)), strings.TrimSpace(v), true
}

// hasToken reports whether tok appears, case-insensitively, as one of the
// comma-separated tokens in s.
func hasToken(s, tok string) bool {
	for _, part := range strings.Split(s, ",") {
		if strings.EqualFold(strings.TrimSpace(part), tok) {
			return true
		}
	}
	return false
}
