package checksum_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/sha256sum/checksum"
	"github.com/byte4ever/sha256sum/digester"
	"github.com/byte4ever/sha256sum/manifest"
)

// writeTemp creates a temporary file with content and
// returns its path.
func writeTemp(
	tb testing.TB,
	dir string,
	name string,
	content string,
) string {
	tb.Helper()

	pa := filepath.Join(dir, name)
	require.NoError(
		tb,
		os.WriteFile(pa, []byte(content), 0o600),
	)

	return pa
}

func sum(content string) string {
	s := sha256.Sum256([]byte(content))

	return hex.EncodeToString(s[:])
}

func TestCompute_keeps_input_order(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var (
		paths []string
		want  []manifest.Entry
	)

	for i := range 20 {
		content := strings.Repeat("x", i*13)
		pa := writeTemp(t, dir, "f"+strconv.Itoa(i), content)

		paths = append(paths, pa)
		want = append(want, manifest.Entry{
			Path:   pa,
			Digest: sum(content),
			Size:   int64(len(content)),
		})
	}

	got, err := checksum.Compute(
		context.Background(),
		checksum.Config{Paths: paths, Parallelism: 4},
	)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCompute_stdin(t *testing.T) {
	t.Parallel()

	got, err := checksum.Compute(
		context.Background(),
		checksum.Config{
			Paths: []string{checksum.StdinPath},
			Stdin: strings.NewReader("abc"),
		},
	)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sum("abc"), got[0].Digest)
	assert.Equal(t, int64(3), got[0].Size)
	assert.Equal(t, "-", got[0].Path)
}

func TestCompute_missing_file(t *testing.T) {
	t.Parallel()

	got, err := checksum.Compute(
		context.Background(),
		checksum.Config{
			Paths: []string{filepath.Join(t.TempDir(), "nope")},
		},
	)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, digester.ErrNotFound)
}

func TestCompute_writes_sidecars(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pa := writeTemp(t, dir, "data.bin", "content")

	_, err := checksum.Compute(
		context.Background(),
		checksum.Config{Paths: []string{pa}, Sidecar: true},
	)
	require.NoError(t, err)

	stored, err := digester.GetDigest(pa)
	require.NoError(t, err)
	assert.Equal(t, sum("content"), stored)
}

func TestRun_text_output(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pa := writeTemp(t, dir, "abc.txt", "abc")

	var out bytes.Buffer

	err := checksum.Run(
		context.Background(),
		checksum.Config{Paths: []string{pa}, Format: manifest.Text},
		&out,
	)

	require.NoError(t, err)
	assert.Equal(t, sum("abc")+"  "+pa+"\n", out.String())
}

func TestRun_template_output(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	err := checksum.Run(
		context.Background(),
		checksum.Config{
			Paths:    []string{checksum.StdinPath},
			Stdin:    strings.NewReader(""),
			Template: "SHA256 ({path}) = {digest}",
		},
		&out,
	)

	require.NoError(t, err)
	assert.Equal(t, "SHA256 (-) = "+sum("")+"\n", out.String())
}

func TestRun_json_output_is_readable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pa := writeTemp(t, dir, "abc.txt", "abc")

	var out bytes.Buffer

	require.NoError(t, checksum.Run(
		context.Background(),
		checksum.Config{Paths: []string{pa}, Format: manifest.JSON},
		&out,
	))

	got, err := manifest.Read(&out, manifest.JSON)

	require.NoError(t, err)
	assert.Equal(t, []manifest.Entry{
		{Path: pa, Digest: sum("abc"), Size: 3},
	}, got)
}

func TestCheck_reports_each_status(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := writeTemp(t, dir, "good.txt", "good")
	bad := writeTemp(t, dir, "bad.txt", "changed")
	gone := filepath.Join(dir, "gone.txt")

	list := sum("good") + "  " + good + "\n" +
		sum("bad") + "  " + bad + "\n" +
		sum("gone") + "  " + gone + "\n"

	var out bytes.Buffer

	rep, err := checksum.Check(
		context.Background(),
		checksum.Config{Parallelism: 2},
		strings.NewReader(list),
		&out,
	)

	require.ErrorIs(t, err, checksum.ErrMismatch)
	assert.Equal(t, checksum.Report{OK: 1, Failed: 1, Missing: 1}, rep)
	assert.Equal(
		t,
		good+": OK\n"+bad+": FAILED\n"+gone+": MISSING\n",
		out.String(),
	)
}

func TestCheck_clean_run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pa := writeTemp(t, dir, "a.txt", "a")

	var list bytes.Buffer

	require.NoError(t, checksum.Run(
		context.Background(),
		checksum.Config{Paths: []string{pa}, Format: manifest.YAML},
		&list,
	))

	var out bytes.Buffer

	rep, err := checksum.Check(
		context.Background(),
		checksum.Config{Format: manifest.YAML},
		&list,
		&out,
	)

	require.NoError(t, err)
	assert.True(t, rep.Clean())
	assert.Equal(t, 1, rep.OK)
}

func TestCheck_malformed_manifest(t *testing.T) {
	t.Parallel()

	_, err := checksum.Check(
		context.Background(),
		checksum.Config{},
		strings.NewReader("not a manifest\n"),
		&bytes.Buffer{},
	)

	assert.ErrorIs(t, err, manifest.ErrMalformedLine)
}

func TestVerifySidecars(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ok := writeTemp(t, dir, "ok.bin", "ok")
	tampered := writeTemp(t, dir, "tampered.bin", "before")
	bare := writeTemp(t, dir, "bare.bin", "bare")

	require.NoError(t, digester.SaveDigest(ok))
	require.NoError(t, digester.SaveDigest(tampered))
	require.NoError(t, os.WriteFile(tampered, []byte("after"), 0o600))

	var out bytes.Buffer

	rep, err := checksum.VerifySidecars(
		context.Background(),
		checksum.Config{Paths: []string{ok, tampered, bare}},
		&out,
	)

	require.ErrorIs(t, err, checksum.ErrMismatch)
	assert.Equal(t, checksum.Report{OK: 1, Failed: 1, Missing: 1}, rep)
	assert.Equal(
		t,
		ok+": OK\n"+tampered+": FAILED\n"+bare+": MISSING\n",
		out.String(),
	)
}

func TestCompute_repeated_stdin_reads_stream_once(t *testing.T) {
	t.Parallel()

	data := strings.Repeat("0123456789abcdef", 64*1024)

	got, err := checksum.Compute(
		context.Background(),
		checksum.Config{
			Paths: []string{
				checksum.StdinPath, checksum.StdinPath,
			},
			Parallelism: 2,
			Stdin:       strings.NewReader(data),
		},
	)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, sum(data), got[0].Digest)
	assert.Equal(t, int64(len(data)), got[0].Size)
	// the second entry sees the drained stream
	assert.Equal(t, sum(""), got[1].Digest)
	assert.Zero(t, got[1].Size)
}

func TestCompute_stdin_mixed_with_files(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pa := writeTemp(t, dir, "a.txt", "file")

	got, err := checksum.Compute(
		context.Background(),
		checksum.Config{
			Paths: []string{
				pa, checksum.StdinPath, pa, checksum.StdinPath,
			},
			Parallelism: 4,
			Stdin:       strings.NewReader("stdin"),
		},
	)

	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, sum("file"), got[0].Digest)
	assert.Equal(t, sum("stdin"), got[1].Digest)
	assert.Equal(t, sum("file"), got[2].Digest)
	assert.Equal(t, sum(""), got[3].Digest)
}

func TestCheck_repeated_stdin_entries(t *testing.T) {
	t.Parallel()

	list := sum("piped") + "  -\n" + sum("") + "  -\n"

	var out bytes.Buffer

	rep, err := checksum.Check(
		context.Background(),
		checksum.Config{
			Parallelism: 2,
			Stdin:       strings.NewReader("piped"),
		},
		strings.NewReader(list),
		&out,
	)

	require.NoError(t, err)
	assert.Equal(t, checksum.Report{OK: 2}, rep)
	assert.Equal(t, "-: OK\n-: OK\n", out.String())
}

func TestVerifySidecars_stdin_has_no_sidecar(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	rep, err := checksum.VerifySidecars(
		context.Background(),
		checksum.Config{
			Paths: []string{checksum.StdinPath},
			Stdin: strings.NewReader("ignored"),
		},
		&out,
	)

	require.ErrorIs(t, err, checksum.ErrMismatch)
	assert.Equal(t, checksum.Report{Missing: 1}, rep)
	assert.Equal(t, "-: MISSING\n", out.String())
}

func TestVerifySidecars_uppercase_sidecar_matches(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pa := writeTemp(t, dir, "data.bin", "content")
	require.NoError(t, os.WriteFile(
		pa+digester.SidecarExt,
		[]byte(strings.ToUpper(sum("content"))+"\n"),
		0o600,
	))

	rep, err := checksum.VerifySidecars(
		context.Background(),
		checksum.Config{Paths: []string{pa}},
		&bytes.Buffer{},
	)

	require.NoError(t, err)
	assert.Equal(t, checksum.Report{OK: 1}, rep)
}

func TestVerifySidecars_cancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pa := writeTemp(t, dir, "data.bin", "content")
	require.NoError(t, digester.SaveDigest(pa))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := checksum.VerifySidecars(
		ctx,
		checksum.Config{Paths: []string{pa}},
		&bytes.Buffer{},
	)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestHashPath_stops_when_cancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pa := writeTemp(t, dir, "big.bin", strings.Repeat("z", 1<<20))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dg, _, err := checksum.HashPathForTest(ctx, checksum.Config{}, pa)

	assert.Empty(t, dg)
	assert.ErrorIs(t, err, context.Canceled)
}
