// Command secretseal builds sealed secret tables for secretstore.
//
//	export SECRETSEAL_KEY_ID=key-1 SECRETSEAL_KEY=$(openssl rand -hex 32)
//	secretseal seal --id credentials/password --table secrets.json
//	secretseal inspect --table secrets.json
//	secretseal verify --id credentials/password --table secrets.json
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"

	"github.com/rbaliyan/secretstore/internal/sealcli"
)

func main() {
	// Wipe memguard-held key material if the process is interrupted.
	memguard.CatchInterrupt()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	app := &sealcli.App{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	code := app.Run(ctx, os.Args[1:])
	stop()
	memguard.Purge()
	os.Exit(code)
}
