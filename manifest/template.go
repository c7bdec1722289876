package manifest

import (
	"fmt"
	"io"
	"strconv"

	"github.com/valyala/fasttemplate"
)

// Render writes one line per entry by substituting
// {digest}, {path} and {size} in tpl. Unknown variables
// are preserved as-is. A newline follows each entry.
func Render(w io.Writer, tpl string, entries []Entry) error {
	const errCtx = "rendering manifest"

	te, err := fasttemplate.NewTemplate(tpl, "{", "}")
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	for _, en := range entries {
		vars := map[string]interface{}{
			"digest": en.Digest,
			"path":   en.Path,
			"size":   strconv.FormatInt(en.Size, 10),
		}

		if _, err := te.ExecuteStd(w, vars); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}

		if _, err := io.WriteString(w, "\n"); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	return nil
}
