// Package sealcli implements the secretseal command: sealing secrets into
// a table at build time, listing a table, and checking a candidate
// against a sealed secret.
package sealcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rbaliyan/config/codec"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/rbaliyan/secretstore"
	"github.com/rbaliyan/secretstore/internal/config"
	"github.com/rbaliyan/secretstore/internal/logger"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitUsage    = 2
	ExitMismatch = 3
)

const usage = `usage: secretseal <command> [flags]

commands:
  seal     seal a secret read from the terminal or stdin into a table
  inspect  list the secrets of a table with their plaintext lengths
  verify   check a candidate read from the terminal or stdin
`

// App carries the process edges so tests can drive the command in-process.
type App struct {
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Environ map[string]string // nil reads the process environment
}

// Run executes the command named by args[0] and returns an exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.Stderr, usage)
		return ExitUsage
	}

	cfg, err := config.Load(a.Environ)
	if err != nil {
		fmt.Fprintln(a.Stderr, err)
		return ExitError
	}
	log := logger.New("secretseal", a.Stderr, cfg.LogLevel)

	switch args[0] {
	case "seal":
		err = a.seal(cfg, log, args[1:])
	case "inspect":
		err = a.inspect(args[1:])
	case "verify":
		var ok bool
		ok, err = a.verify(ctx, cfg, log, args[1:])
		if err == nil && !ok {
			return ExitMismatch
		}
	case "help", "-h", "--help":
		fmt.Fprint(a.Stdout, usage)
		return ExitOK
	default:
		fmt.Fprintf(a.Stderr, "unknown command %q\n\n%s", args[0], usage)
		return ExitUsage
	}

	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, pflag.ErrHelp), errors.Is(err, errUsage):
		return ExitUsage
	default:
		log.Error().Err(err).Str("command", args[0]).Msg("command failed")
		return ExitError
	}
}

var errUsage = errors.New("usage error")

func (a *App) seal(cfg *config.Config, log *logger.Logger, args []string) error {
	fs := pflag.NewFlagSet("seal", pflag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	id := fs.String("id", "", "secret ID to seal (required)")
	tablePath := fs.String("table", "", "existing table to add to")
	outPath := fs.String("out", "", "output file (default: --table, or stdout)")
	algName := fs.String("algorithm", secretstore.AES256GCM.String(), "aes256gcm or xchacha20poly1305")
	codecName := fs.String("codec", "json", "table codec name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		fmt.Fprintln(a.Stderr, "seal: --id is required")
		return errUsage
	}
	alg, err := secretstore.ParseAlgorithm(*algName)
	if err != nil {
		return err
	}
	c, err := resolveCodec(*codecName)
	if err != nil {
		return err
	}

	table := secretstore.NewTable()
	if *tablePath != "" {
		table, err = readTable(*tablePath, c, true)
		if err != nil {
			return err
		}
	}

	provider, err := cfg.KeyProvider()
	if err != nil {
		return err
	}
	defer provider.Destroy()

	plaintext, err := a.readSecret(fmt.Sprintf("secret for %q: ", *id))
	if err != nil {
		return err
	}
	defer secretstore.Wipe(plaintext)

	kek, err := provider.CurrentKey()
	if err != nil {
		return err
	}
	defer secretstore.Wipe(kek.Bytes)

	sealed, err := secretstore.Seal(plaintext, kek, secretstore.WithSealAlgorithm(alg))
	if err != nil {
		return err
	}
	if err := table.Add(*id, sealed); err != nil {
		return err
	}

	data, err := secretstore.EncodeTable(table, c)
	if err != nil {
		return err
	}

	dest := *outPath
	if dest == "" {
		dest = *tablePath
	}
	if dest == "" {
		_, err = a.Stdout.Write(data)
	} else {
		err = os.WriteFile(dest, data, 0o600)
	}
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	log.Info().
		Str("secret_id", *id).
		Int("length", len(plaintext)).
		Str("algorithm", alg.String()).
		Str("key_id", kek.ID).
		Msg("secret sealed")
	return nil
}

func (a *App) inspect(args []string) error {
	fs := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	tablePath := fs.String("table", "", "table file (required)")
	codecName := fs.String("codec", "json", "table codec name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tablePath == "" {
		fmt.Fprintln(a.Stderr, "inspect: --table is required")
		return errUsage
	}
	c, err := resolveCodec(*codecName)
	if err != nil {
		return err
	}
	table, err := readTable(*tablePath, c, false)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLENGTH\tALGORITHM\tKEY")
	for _, id := range table.IDs() {
		info, err := secretstore.Inspect(table.Secrets[id])
		if err != nil {
			return fmt.Errorf("secret %q: %w", id, err)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", id, info.Length, info.Algorithm, info.KeyID)
	}
	return w.Flush()
}

func (a *App) verify(ctx context.Context, cfg *config.Config, log *logger.Logger, args []string) (bool, error) {
	fs := pflag.NewFlagSet("verify", pflag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	id := fs.String("id", "", "secret ID (required)")
	tablePath := fs.String("table", "", "table file (required)")
	codecName := fs.String("codec", "json", "table codec name")
	if err := fs.Parse(args); err != nil {
		return false, err
	}
	if *id == "" || *tablePath == "" {
		fmt.Fprintln(a.Stderr, "verify: --id and --table are required")
		return false, errUsage
	}
	c, err := resolveCodec(*codecName)
	if err != nil {
		return false, err
	}
	table, err := readTable(*tablePath, c, false)
	if err != nil {
		return false, err
	}

	provider, err := cfg.KeyProvider()
	if err != nil {
		return false, err
	}
	defer provider.Destroy()

	store, err := secretstore.New(provider,
		secretstore.WithTable(table),
		secretstore.WithLogger(log.Logger),
	)
	if err != nil {
		return false, err
	}

	candidate, err := a.readSecret(fmt.Sprintf("candidate for %q: ", *id))
	if err != nil {
		return false, err
	}
	defer secretstore.Wipe(candidate)

	ok, err := store.Verify(ctx, *id, candidate)
	if err != nil {
		return false, err
	}
	if ok {
		fmt.Fprintln(a.Stdout, "match")
	} else {
		fmt.Fprintln(a.Stdout, "mismatch")
	}
	return ok, nil
}

// maxSecretSize bounds a secret read from a pipe.
const maxSecretSize = 64 << 10

// readSecret prompts without echo when stdin is a terminal; otherwise it
// reads stdin to EOF into a single buffer sized up front and drops one
// trailing newline.
func (a *App) readSecret(prompt string) ([]byte, error) {
	if f, ok := a.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.Stderr, prompt)
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.Stderr)
		if err != nil {
			return nil, fmt.Errorf("read secret: %w", err)
		}
		return secret, nil
	}

	buf := make([]byte, maxSecretSize+1)
	n, err := io.ReadFull(a.Stdin, buf)
	switch {
	case err == nil:
		secretstore.Wipe(buf)
		return nil, fmt.Errorf("read secret: longer than %d bytes", maxSecretSize)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		// the whole secret fit
	default:
		secretstore.Wipe(buf)
		return nil, fmt.Errorf("read secret: %w", err)
	}

	secret := buf[:n:n]
	if bytes.HasSuffix(secret, []byte("\r\n")) {
		secret[len(secret)-2], secret[len(secret)-1] = 0, 0
		secret = secret[:len(secret)-2]
	} else if bytes.HasSuffix(secret, []byte("\n")) {
		secret[len(secret)-1] = 0
		secret = secret[:len(secret)-1]
	}
	return secret, nil
}

func resolveCodec(name string) (codec.Codec, error) {
	c := codec.Get(name)
	if c == nil {
		return nil, fmt.Errorf("unknown codec %q", name)
	}
	return c, nil
}

// readTable loads a table file. With allowMissing a nonexistent file
// yields an empty table, so seal can create a table from scratch.
func readTable(path string, c codec.Codec, allowMissing bool) (*secretstore.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if allowMissing && errors.Is(err, os.ErrNotExist) {
			return secretstore.NewTable(), nil
		}
		return nil, fmt.Errorf("read table: %w", err)
	}
	return secretstore.DecodeTable(data, c)
}
