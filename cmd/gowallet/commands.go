package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	goWallet "github.com/MrEthical07/goWallet"
)

var errUsage = errors.New("usage")

func usagef(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errUsage}, args...)...)
}

// walletAPI is the slice of *goWallet.Client the commands use.
type walletAPI interface {
	Init(ctx context.Context) goWallet.SessionState
	SignUp(ctx context.Context, identity, secret string) error
	ConfirmSignUp(ctx context.Context, identity, code string) error
	LogIn(ctx context.Context, identity, secret string) error
	LogOut(ctx context.Context) error
	Session() goWallet.Session
	Account() (goWallet.Wallet, bool)

	CreateWallet(ctx context.Context) (goWallet.Wallet, error)
	LoadWallet(ctx context.Context, walletID string) (goWallet.Wallet, error)
	RefreshAccount(ctx context.Context) (goWallet.Wallet, error)
	Credit(ctx context.Context, walletID string, amount float64) (goWallet.Wallet, error)
	Debit(ctx context.Context, walletID string, amount float64) (goWallet.Wallet, error)
	Transactions(ctx context.Context, walletID string, limit int) ([]goWallet.LedgerEntry, error)
	RequestPayment(ctx context.Context, walletID, merchantID string, amount float64) (goWallet.Payment, error)
	StartOnboarding(ctx context.Context, email string) (goWallet.Onboarding, error)
	SavingsGoals(ctx context.Context, walletID string) ([]goWallet.SavingsGoal, error)
	Loans(ctx context.Context, walletID string) ([]goWallet.Loan, error)
	OptimiseDebt(ctx context.Context, walletID string, monthlyBudget float64) (goWallet.DebtOptimisation, error)

	StartTracking(key string, kind goWallet.Kind, onUpdate, onTerminal func(goWallet.Status)) error
}

type command func(ctx context.Context, c walletAPI, out io.Writer, args []string) error

var commands = map[string]command{
	"signup":   cmdSignUp,
	"confirm":  cmdConfirm,
	"login":    cmdLogIn,
	"logout":   cmdLogOut,
	"status":   cmdStatus,
	"wallet":   cmdWallet,
	"credit":   cmdBalance(true),
	"debit":    cmdBalance(false),
	"history":  cmdHistory,
	"pay":      cmdPay,
	"onboard":  cmdOnboard,
	"track":    cmdTrack,
	"goals":    cmdGoals,
	"loans":    cmdLoans,
	"optimise": cmdOptimise,
}

func run(ctx context.Context, c walletAPI, out io.Writer, args []string) error {
	if len(args) == 0 {
		return usagef("missing command")
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return usagef("unknown command %q", args[0])
	}
	// signup and confirm do not need a session; everything else starts
	// from the restored one.
	switch args[0] {
	case "signup", "confirm", "login":
	default:
		c.Init(ctx)
	}
	return cmd(ctx, c, out, args[1:])
}

func cmdSignUp(ctx context.Context, c walletAPI, out io.Writer, args []string) error {
	if len(args) != 2 {
		return usagef("signup <email> <password>")
	}
	if err := c.SignUp(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintln(out, "sign-up submitted; check your email for a confirmation code")
	return nil
}

func cmdConfirm(ctx context.Context, c walletAPI, out io.Writer, args []string) error {
	if len(args) != 2 {
		return usagef("confirm <email> <code>")
	}
	if err := c.ConfirmSignUp(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintln(out, "account confirmed")
	return nil
}

func cmdLogIn(ctx context.Context, c walletAPI, out io.Writer, args []string) error {
	if len(args) != 2 {
		return usagef("login <email> <password>")
	}
	if err := c.LogIn(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(out, "logged in as %s\n", c.Session().Username)
	if w, ok := c.Account(); ok {
		fmt.Fprintf(out, "wallet %s balance %s\n", w.WalletID, w.Balance)
	}
	return nil
}

func cmdLogOut(ctx context.Context, c walletAPI, out io.Writer, _ []string) error {
	err := c.LogOut(ctx)
	fmt.Fprintln(out, "logged out")
	return err
}

func cmdStatus(_ context.Context, c walletAPI, out io.Writer, _ []string) error {
	s := c.Session()
	if !s.IsAuthenticated {
		fmt.Fprintln(out, "not logged in")
		return nil
	}
	fmt.Fprintf(out, "logged in as %s, token valid until %s\n", s.Username, s.ExpiresAt.Format("2006-01-02 15:04:05"))
	if w, ok := c.Account(); ok {
		fmt.Fprintf(out, "wallet %s balance %s %s\n", w.WalletID, w.Balance, w.Currency)
	} else {
		fmt.Fprintln(out, "no wallet loaded")
	}
	return nil
}

func cmdWallet(ctx context.Context, c walletAPI, out io.Writer, args []string) error {
	var (
		w   goWallet.Wallet
		err error
	)
	switch {
	case len(args) == 0:
		w, err = c.RefreshAccount(ctx)
	case len(args) == 1 && args[0] == "create":
		w, err = c.CreateWallet(ctx)
	case len(args) == 1:
		w, err = c.LoadWallet(ctx, args[0])
	default:
		return usagef("wallet [create | <wallet-id>]")
	}
	if err != nil {
		return err
	}
	return printJSON(out, w)
}

func cmdBalance(credit bool) command {
	return func(ctx context.Context, c walletAPI, out io.Writer, args []string) error {
		if len(args) != 2 {
			return usagef("credit|debit <wallet-id> <amount>")
		}
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		var w goWallet.Wallet
		if credit {
			w, err = c.Credit(ctx, args[0], amount)
		} else {
			w, err = c.Debit(ctx, args[0], amount)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "balance %s\n", w.Balance)
		return nil
	}
}

func cmdHistory(ctx context.Context, c walletAPI, out io.Writer, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usagef("history <wallet-id> [limit]")
	}
	limit := 0
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return usagef("limit must be a non-negative integer")
		}
		limit = n
	}
	entries, err := c.Transactions(ctx, args[0], limit)
	if err != nil {
		return err
	}
	return printJSON(out, entries)
}

func cmdPay(ctx context.Context, c walletAPI, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("pay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	wait := fs.Bool("wait", false, "track the payment until it settles")
	if err := fs.Parse(args); err != nil || fs.NArg() != 3 {
		return usagef("pay [-wait] <wallet-id> <merchant-id> <amount>")
	}
	amount, err := parseAmount(fs.Arg(2))
	if err != nil {
		return err
	}
	p, err := c.RequestPayment(ctx, fs.Arg(0), fs.Arg(1), amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "payment %s %s\n", p.TransactionID, p.Status)
	if !*wait {
		return nil
	}
	return follow(ctx, c, out, goWallet.KindPayment, p.TransactionID)
}

func cmdOnboard(ctx context.Context, c walletAPI, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("onboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	wait := fs.Bool("wait", false, "track the application until a decision")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return usagef("onboard [-wait] <email>")
	}
	o, err := c.StartOnboarding(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "onboarding %s %s\n", o.UserID, o.Status)
	if !*wait {
		return nil
	}
	return follow(ctx, c, out, goWallet.KindOnboarding, o.UserID)
}

func cmdTrack(ctx context.Context, c walletAPI, out io.Writer, args []string) error {
	if len(args) != 2 {
		return usagef("track payment|onboarding <key>")
	}
	kind := goWallet.Kind(args[0])
	if !kind.Valid() {
		return usagef("unknown kind %q", args[0])
	}
	return follow(ctx, c, out, kind, args[1])
}

// follow tracks one operation and blocks until it reaches a terminal status
// or ctx ends.
func follow(ctx context.Context, c walletAPI, out io.Writer, kind goWallet.Kind, key string) error {
	updates := make(chan goWallet.Status, 16)
	terminal := make(chan goWallet.Status, 1)
	err := c.StartTracking(key, kind,
		func(s goWallet.Status) {
			if kind.Terminal(s) {
				return
			}
			select {
			case updates <- s:
			default:
			}
		},
		func(s goWallet.Status) { terminal <- s },
	)
	if err != nil {
		return fmt.Errorf("track %s %s: %w", kind, key, err)
	}
	for {
		select {
		case s := <-updates:
			fmt.Fprintf(out, "%s %s: %s\n", kind, key, s)
		case s := <-terminal:
			fmt.Fprintf(out, "%s %s: %s\n", kind, key, s)
			if s == goWallet.StatusPollError {
				return fmt.Errorf("%s %s: %w", kind, key, goWallet.ErrPollFailed)
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func cmdGoals(ctx context.Context, c walletAPI, out io.Writer, args []string) error {
	if len(args) != 1 {
		return usagef("goals <wallet-id>")
	}
	goals, err := c.SavingsGoals(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(out, goals)
}

func cmdLoans(ctx context.Context, c walletAPI, out io.Writer, args []string) error {
	if len(args) != 1 {
		return usagef("loans <wallet-id>")
	}
	loans, err := c.Loans(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(out, loans)
}

func cmdOptimise(ctx context.Context, c walletAPI, out io.Writer, args []string) error {
	if len(args) != 2 {
		return usagef("optimise <wallet-id> <monthly-budget>")
	}
	budget, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	plan, err := c.OptimiseDebt(ctx, args[0], budget)
	if err != nil {
		return err
	}
	return printJSON(out, plan)
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, usagef("invalid amount %q", s)
	}
	return v, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
