// Package manifest reads and writes checksum lists. Three formats are
// supported: coreutils style text lines ("<digest>  <path>"), a JSON array
// and a YAML sequence of entries. Render writes entries through a
// fasttemplate line template with {digest}, {path} and {size} placeholders.
package manifest
