package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/credvault/cmd"
	"github.com/illarion/credvault/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	args := os.Args[2:]
	var err error

	switch os.Args[1] {
	case "init":
		err = runInit(ctx, args)
	case "set":
		err = runSet(ctx, args)
	case "get":
		err = runGet(ctx, args)
	case "rm":
		err = runRm(ctx, args)
	case "ls":
		err = runLs(ctx, args)
	case "passwd":
		err = runPasswd(ctx, args)
	case "status":
		err = runStatus(ctx, args)
	case "account":
		err = runAccount(ctx, args)
	case "backup":
		err = runBackup(ctx, args)
	case "diff":
		err = runDiff(ctx, args)
	case "shell":
		err = runShell(ctx, args)
	case "keyring":
		err = runKeyring(ctx, args)
	case "compact":
		err = runCompact(ctx, args)
	case "completion":
		err = runCompletion(ctx, args)
	case "help", "-h", "--help":
		if len(args) == 0 {
			printUsage()
			return
		}
		printCommandHelp(args[0])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		cmd.HandleError(err)
	}
}

// parse parses the flags of one command, including the shared -vault and
// -log-level, and builds the App.
func parse(name string, args []string, setup func(fs *flag.FlagSet)) (*cmd.App, []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() { printCommandHelp(name) }
	flags := config.RegisterFlags(fs)
	if setup != nil {
		setup(fs)
	}
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	app, err := cmd.New(flags)
	if err != nil {
		cmd.HandleError(err)
	}
	return app, fs.Args()
}

func usageError(usage string) error {
	return fmt.Errorf("%w\nUsage: %s", cmd.ErrUsage, usage)
}

func runInit(ctx context.Context, args []string) error {
	app, _ := parse("init", args, nil)
	return app.Init(ctx)
}

func runSet(ctx context.Context, args []string) error {
	app, rest := parse("set", args, nil)
	switch len(rest) {
	case 1:
		return app.Set(ctx, rest[0], nil)
	case 2:
		return app.Set(ctx, rest[0], &rest[1])
	default:
		return usageError("credvault set NAME [VALUE]")
	}
}

func runGet(ctx context.Context, args []string) error {
	var toClipboard bool
	app, rest := parse("get", args, func(fs *flag.FlagSet) {
		fs.BoolVar(&toClipboard, "copy", false, "Copy the value to the clipboard instead of printing it")
	})
	if len(rest) != 1 {
		return usageError("credvault get [-copy] NAME")
	}
	return app.Get(ctx, rest[0], toClipboard)
}

func runRm(ctx context.Context, args []string) error {
	app, rest := parse("rm", args, nil)
	return app.Remove(ctx, rest)
}

func runLs(ctx context.Context, args []string) error {
	app, _ := parse("ls", args, nil)
	return app.List(ctx)
}

func runPasswd(ctx context.Context, args []string) error {
	app, _ := parse("passwd", args, nil)
	return app.Passwd(ctx)
}

func runStatus(ctx context.Context, args []string) error {
	app, _ := parse("status", args, nil)
	return app.Status(ctx)
}

func runAccount(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageError("credvault account <set|show|forget>")
	}

	switch args[0] {
	case "set":
		var server string
		var port int
		app, rest := parse("account", args[1:], func(fs *flag.FlagSet) {
			fs.StringVar(&server, "server", "", "SMTP server (default smtp.gmail.com)")
			fs.IntVar(&port, "port", 0, "SMTP port (default 587)")
		})
		if len(rest) != 1 {
			return usageError("credvault account set [-server HOST] [-port N] EMAIL")
		}
		return app.AccountSet(ctx, rest[0], server, port)
	case "show":
		app, rest := parse("account", args[1:], nil)
		email := ""
		if len(rest) > 0 {
			email = rest[0]
		}
		return app.AccountShow(ctx, email)
	case "forget":
		app, _ := parse("account", args[1:], nil)
		return app.AccountForget(ctx)
	default:
		return usageError("credvault account <set|show|forget>")
	}
}

func runBackup(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageError("credvault backup <list|restore ID>")
	}

	switch args[0] {
	case "list":
		app, _ := parse("backup", args[1:], nil)
		return app.BackupList(ctx)
	case "restore":
		app, rest := parse("backup", args[1:], nil)
		if len(rest) != 1 {
			return usageError("credvault backup restore ID")
		}
		return app.BackupRestore(ctx, rest[0])
	default:
		return usageError("credvault backup <list|restore ID>")
	}
}

func runDiff(ctx context.Context, args []string) error {
	app, rest := parse("diff", args, nil)
	if len(rest) != 1 {
		return usageError("credvault diff BACKUP_ID")
	}
	return app.Diff(ctx, rest[0])
}

func runShell(ctx context.Context, args []string) error {
	app, _ := parse("shell", args, nil)
	return app.Shell(ctx)
}

func runKeyring(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageError("credvault keyring <save|delete|status>")
	}

	app, _ := parse("keyring", args[1:], nil)
	switch args[0] {
	case "save":
		return app.KeyringSave(ctx)
	case "delete":
		return app.KeyringDelete(ctx)
	case "status":
		return app.KeyringStatus(ctx)
	default:
		return usageError("credvault keyring <save|delete|status>")
	}
}

func runCompact(ctx context.Context, args []string) error {
	app, _ := parse("compact", args, nil)
	return app.Compact(ctx)
}

func runCompletion(_ context.Context, args []string) error {
	if len(args) < 1 {
		return usageError("credvault completion <bash|zsh|fish>")
	}
	app, _ := parse("completion", args[1:], nil)
	return app.Completion(args[0])
}
