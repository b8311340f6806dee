// Command gowallet drives the wallet backend from a terminal.
//
// Configuration comes from the environment (optionally a .env file):
// GOWALLET_BASE_URL and COGNITO_CLIENT_ID are required. The user pool region
// is COGNITO_REGION, else whatever the AWS SDK's default config resolves.
// The session's refresh token and the last loaded wallet are kept in
// GOWALLET_STATE_FILE (default ~/.gowallet/state.json) or in Redis when
// GOWALLET_REDIS_ADDR is set.
//
// Usage:
//
//	gowallet signup <email> <password>
//	gowallet confirm <email> <code>
//	gowallet login <email> <password>
//	gowallet logout
//	gowallet status
//	gowallet wallet [create | <wallet-id>]
//	gowallet credit|debit <wallet-id> <amount>
//	gowallet history <wallet-id> [limit]
//	gowallet pay <wallet-id> <merchant-id> <amount> [-wait]
//	gowallet onboard <email> [-wait]
//	gowallet track payment|onboarding <key>
//	gowallet goals <wallet-id>
//	gowallet loans <wallet-id>
//	gowallet optimise <wallet-id> <monthly-budget>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goWallet "github.com/MrEthical07/goWallet"
)

func main() {
	envFile := flag.String("env-file", "", "load environment from this file instead of ./.env")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: gowallet [-env-file path] <command> [args]")
		fmt.Fprintln(os.Stderr, "commands: signup confirm login logout status wallet credit debit history pay onboard track goals loans optimise")
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, closeClient, err := buildClient(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup: %v\n", err)
		os.Exit(1)
	}

	err = run(ctx, client, os.Stdout, flag.Args())
	closeClient()
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	case errors.Is(err, goWallet.ErrAuthRequired), errors.Is(err, goWallet.ErrNoSession):
		fmt.Fprintf(os.Stderr, "%v\nrun `gowallet login` first\n", err)
		os.Exit(3)
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
