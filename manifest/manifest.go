package manifest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"

	"github.com/byte4ever/sha256sum/digest"
)

// Format selects the manifest encoding.
type Format string

const (
	// Text is the coreutils "<digest>  <path>" layout.
	Text Format = "text"
	// JSON is an array of entry objects.
	JSON Format = "json"
	// YAML is a sequence of entry mappings.
	YAML Format = "yaml"
)

var (
	// ErrUnknownFormat is returned for an unsupported
	// format name.
	ErrUnknownFormat = errors.New("unknown manifest format")

	// ErrMalformedLine is returned when an entry cannot be
	// parsed or carries an invalid digest.
	ErrMalformedLine = errors.New("malformed manifest entry")
)

// Entry is one checksummed input.
type Entry struct {
	Path   string `json:"path" yaml:"path"`
	Digest string `json:"digest" yaml:"digest"`
	Size   int64  `json:"size,omitempty" yaml:"size,omitempty"`
}

// ParseFormat maps a flag value to a Format. The empty
// string selects Text.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", Text:
		return Text, nil
	case JSON:
		return JSON, nil
	case YAML, "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%q: %w", name, ErrUnknownFormat)
	}
}

// Write encodes entries to w in the given format.
func Write(w io.Writer, format Format, entries []Entry) error {
	const errCtx = "writing manifest"

	var (
		buf []byte
		err error
	)

	switch format {
	case Text, "":
		buf = encodeText(entries)
	case JSON:
		if entries == nil {
			entries = []Entry{}
		}

		buf, err = json.MarshalIndent(entries, "", "  ")
		buf = append(buf, '\n')
	case YAML:
		if len(entries) == 0 {
			buf = []byte("[]\n")
		} else {
			buf, err = yaml.Marshal(entries)
		}
	default:
		return fmt.Errorf("%s: %q: %w", errCtx, format, ErrUnknownFormat)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Read decodes a manifest from r. Digests are validated
// and normalized to lowercase.
func Read(r io.Reader, format Format) ([]Entry, error) {
	const errCtx = "reading manifest"

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var entries []Entry

	switch format {
	case Text, "":
		entries, err = decodeText(raw)
	case JSON:
		err = json.Unmarshal(raw, &entries)
	case YAML:
		if len(bytes.TrimSpace(raw)) > 0 {
			err = yaml.Unmarshal(raw, &entries)
		}
	default:
		return nil, fmt.Errorf("%s: %q: %w", errCtx, format, ErrUnknownFormat)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	for i := range entries {
		dg, ok := normalizeDigest(entries[i].Digest)
		if !ok || entries[i].Path == "" {
			return nil, fmt.Errorf(
				"%s: entry %d: %w", errCtx, i+1, ErrMalformedLine,
			)
		}

		entries[i].Digest = dg
	}

	return entries, nil
}

func encodeText(entries []Entry) []byte {
	var sb strings.Builder

	for _, en := range entries {
		pa, escaped := escapePath(en.Path)
		if escaped {
			sb.WriteByte('\\')
		}

		sb.WriteString(en.Digest)
		sb.WriteString("  ")
		sb.WriteString(pa)
		sb.WriteByte('\n')
	}

	return []byte(sb.String())
}

// decodeText parses coreutils lines "<digest>  <path>" or
// "<digest> *<path>", and BSD tag lines
// "SHA256 (<path>) = <digest>". A leading backslash marks
// an escaped path. Blank lines and lines starting with
// '#' are skipped.
func decodeText(raw []byte) ([]Entry, error) {
	var entries []Entry

	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0

	for sc.Scan() {
		lineNo++

		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" ||
			strings.HasPrefix(line, "#") {
			continue
		}

		en, ok := parseLine(line)
		if !ok {
			return nil, fmt.Errorf(
				"line %d: %w", lineNo, ErrMalformedLine,
			)
		}

		entries = append(entries, en)
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func parseLine(line string) (Entry, bool) {
	body, escaped := strings.CutPrefix(line, "\\")

	en, ok := parseFields(body)
	if !ok || !escaped {
		return en, ok
	}

	en.Path, ok = unescapePath(en.Path)

	return en, ok
}

func parseFields(line string) (Entry, bool) {
	if rest, ok := strings.CutPrefix(line, "SHA256 ("); ok {
		idx := strings.LastIndex(rest, ") = ")
		if idx < 0 {
			return Entry{}, false
		}

		return Entry{
			Path:   rest[:idx],
			Digest: rest[idx+len(") = "):],
		}, true
	}

	if len(line) < digest.HexSize+3 || line[digest.HexSize] != ' ' {
		return Entry{}, false
	}

	switch line[digest.HexSize+1] {
	case ' ', '*':
	default:
		return Entry{}, false
	}

	return Entry{
		Path:   line[digest.HexSize+2:],
		Digest: line[:digest.HexSize],
	}, true
}

// normalizeDigest lowercases dg and reports whether it is
// a well formed hex digest.
func normalizeDigest(dg string) (string, bool) {
	if len(dg) != digest.HexSize {
		return "", false
	}

	dg = strings.ToLower(dg)

	for i := 0; i < len(dg); i++ {
		c := dg[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", false
		}
	}

	return dg, true
}

// escapePath applies the coreutils escaping for
// backslash, newline and carriage return, and reports
// whether anything was escaped.
func escapePath(pa string) (string, bool) {
	if !strings.ContainsAny(pa, "\\\n\r") {
		return pa, false
	}

	return pathEscaper.Replace(pa), true
}

var pathEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"\n", "\\n",
	"\r", "\\r",
)

// unescapePath reverses escapePath. Unknown or dangling
// escapes are rejected.
func unescapePath(pa string) (string, bool) {
	var sb strings.Builder

	for i := 0; i < len(pa); i++ {
		if pa[i] != '\\' {
			sb.WriteByte(pa[i])

			continue
		}

		i++
		if i == len(pa) {
			return "", false
		}

		switch pa[i] {
		case '\\':
			sb.WriteByte('\\')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		default:
			return "", false
		}
	}

	return sb.String(), true
}
