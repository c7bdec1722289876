// Command sha256sum prints or checks SHA-256 digests of
// files. With no file arguments it hashes standard input.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/byte4ever/sha256sum/checksum"
	"github.com/byte4ever/sha256sum/manifest"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // CLI flag setup is inherently long
func run(args []string, stdout io.Writer) (retErr error) {
	const errCtx = "running sha256sum"

	fs := flag.NewFlagSet("sha256sum", flag.ContinueOnError)

	checkFile := fs.String(
		"check", "",
		"Manifest file to verify inputs against",
	)
	verifySidecar := fs.Bool(
		"verify_sidecar", false,
		"Verify each file against its .digest sidecar",
	)
	saveSidecar := fs.Bool(
		"save_sidecar", false,
		"Write a .digest sidecar next to each file",
	)
	format := fs.String(
		"format", string(manifest.Text),
		"Manifest format: text, json or yaml",
	)
	template := fs.String(
		"template", "",
		"Output line template using {digest}, {path} and {size}",
	)
	parallelism := fs.Int(
		"parallelism", runtime.NumCPU(),
		"Number of inputs hashed concurrently",
	)
	output := fs.String(
		"output", "",
		"Output file path (stdout if empty)",
	)
	logLevel := fs.String(
		"log_level", "warn",
		"Log level: debug, info, warn or error",
	)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}

		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := setupLogging(*logLevel); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	mf, err := manifest.ParseFormat(*format)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if *checkFile != "" && *verifySidecar {
		return fmt.Errorf(
			"%s: only one of --check or"+
				" --verify_sidecar may be specified",
			errCtx,
		)
	}

	if *saveSidecar && (*checkFile != "" || *verifySidecar) {
		return fmt.Errorf(
			"%s: --save_sidecar cannot be combined with"+
				" --check or --verify_sidecar",
			errCtx,
		)
	}

	paths := fs.Args()
	if len(paths) > 0 && *checkFile != "" {
		return fmt.Errorf(
			"%s: --check takes no file arguments,"+
				" inputs come from the manifest",
			errCtx,
		)
	}

	if len(paths) == 0 && *checkFile == "" {
		paths = []string{checksum.StdinPath}
	}

	cfg := checksum.Config{
		Paths:       paths,
		Parallelism: *parallelism,
		Format:      mf,
		Template:    *template,
		Sidecar:     *saveSidecar,
	}

	out := stdout

	if *output != "" {
		fo, err := os.Create(*output) //nolint:gosec // path from CLI flag
		if err != nil {
			return fmt.Errorf(
				"%s: creating output: %w", errCtx, err,
			)
		}

		defer func() {
			if closeErr := fo.Close(); closeErr != nil && retErr == nil {
				retErr = fmt.Errorf("%s: %w", errCtx, closeErr)
			}
		}()

		out = fo
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt,
	)
	defer stop()

	switch {
	case *checkFile != "":
		err = runCheck(ctx, cfg, *checkFile, out)
	case *verifySidecar:
		_, err = checksum.VerifySidecars(ctx, cfg, out)
	default:
		err = checksum.Run(ctx, cfg, out)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

func runCheck(
	ctx context.Context,
	cfg checksum.Config,
	checkFile string,
	out io.Writer,
) error {
	const errCtx = "checking"

	list := io.Reader(os.Stdin)

	if checkFile != checksum.StdinPath {
		fi, err := os.Open(checkFile) //nolint:gosec // path from CLI flag
		if err != nil {
			return fmt.Errorf(
				"%s: opening manifest: %w", errCtx, err,
			)
		}

		defer fi.Close() //nolint:errcheck // best-effort close

		list = fi
	}

	if _, err := checksum.Check(ctx, cfg, list, out); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// setupLogging installs a stderr text handler at the
// named level as the default logger.
func setupLogging(level string) error {
	var lvl slog.Level

	if err := lvl.UnmarshalText(
		[]byte(strings.TrimSpace(level)),
	); err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(
		os.Stderr, &slog.HandlerOptions{Level: lvl},
	)))

	return nil
}
