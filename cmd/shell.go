package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/session"
	"github.com/illarion/credvault/internal/vault"
)

const shellHelp = `Commands:
  get NAME            Print a secret
  set NAME [VALUE]    Store a secret (prompts when VALUE is omitted)
  rm NAME [NAME...]   Remove secrets
  ls                  List secret names
  lock                Forget the decrypted vault now
  help                Show this help
  exit                Leave the shell`

// Shell runs an interactive session. The vault stays unlocked between
// commands until the idle timeout passes or 'lock' is entered.
func (a *App) Shell(ctx context.Context) error {
	if _, err := vault.Inspect(a.VaultPath()); err != nil {
		return err
	}

	s := session.New(a.Config.Idle(), a.Log)
	defer s.Lock()

	fmt.Fprintf(a.Out, "credvault shell for %s, type 'help' for commands\n", a.VaultPath())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := a.In.Line("credvault> ")
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(a.Out)
			return nil
		}
		if err != nil {
			return err
		}

		done, err := a.shellCommand(ctx, s, line)
		if err != nil {
			fmt.Fprintln(a.Err, Describe(err))
		}
		if done {
			return nil
		}
	}
}

func (a *App) shellCommand(ctx context.Context, s *session.Session, line string) (bool, error) {
	command, rest := cutWord(line)
	switch command {
	case "":
		return false, nil
	case "exit", "quit":
		return true, nil
	case "help":
		fmt.Fprintln(a.Out, shellHelp)
		return false, nil
	case "lock":
		s.Lock()
		a.success("Locked")
		return false, nil
	}

	v, err := a.sessionVault(ctx, s)
	if err != nil {
		return false, err
	}

	switch command {
	case "ls":
		for _, name := range v.Names() {
			fmt.Fprintln(a.Out, name)
		}
	case "get":
		name, _ := cutWord(rest)
		if name == "" {
			return false, fmt.Errorf("%w: get NAME", ErrUsage)
		}
		value, err := v.Get(name)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(a.Out, value)
	case "set":
		name, value := cutWord(rest)
		if name == "" {
			return false, fmt.Errorf("%w: set NAME [VALUE]", ErrUsage)
		}
		if value == "" {
			raw, err := a.In.Password(fmt.Sprintf("Value for %s: ", name))
			if err != nil {
				return false, err
			}
			value = string(raw)
			crypto.ClearBytes(raw)
		}
		if err := v.Set(ctx, name, value); err != nil {
			return false, err
		}
		a.success("Saved %s", name)
	case "rm":
		names := strings.Fields(rest)
		if len(names) == 0 {
			return false, fmt.Errorf("%w: rm NAME [NAME...]", ErrUsage)
		}
		for _, name := range names {
			if err := v.Delete(ctx, name); err != nil {
				return false, fmt.Errorf("%s: %w", name, err)
			}
			a.success("Removed %s", name)
		}
	default:
		return false, fmt.Errorf("%w: unknown command %q, type 'help'", ErrUsage, command)
	}
	return false, nil
}

// sessionVault returns the unlocked vault, asking for the password again
// after the session timed out.
func (a *App) sessionVault(ctx context.Context, s *session.Session) (*vault.Vault, error) {
	v, err := s.Vault()
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, session.ErrLocked) {
		return nil, err
	}

	v, err = a.unlock(ctx)
	if err != nil {
		return nil, err
	}
	s.Unlock(v)
	return v, nil
}

// cutWord splits off the first whitespace-separated word.
func cutWord(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}
