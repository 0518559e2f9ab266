package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/illarion/credvault/internal/credentials"
	"github.com/illarion/credvault/internal/crypto"
)

// AccountSet saves the SMTP account. The app password is read without echo.
func (a *App) AccountSet(ctx context.Context, email, server string, port int) error {
	if email == "" {
		return fmt.Errorf("%w: account set requires an email address", ErrUsage)
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("%w: %d", credentials.ErrInvalidPort, port)
	}

	v, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	defer v.Close()

	raw, err := a.In.Password(fmt.Sprintf("App password for %s: ", email))
	if err != nil {
		return err
	}
	appPassword := string(raw)
	crypto.ClearBytes(raw)

	if err := credentials.Save(ctx, v, email, appPassword); err != nil {
		return err
	}
	if server != "" || port != 0 {
		if server == "" {
			server = credentials.DefaultServer
		}
		if port == 0 {
			port = credentials.DefaultPort
		}
		if err := credentials.SaveServer(ctx, v, server, port); err != nil {
			return err
		}
	}

	a.success("Saved SMTP account %s", email)
	return nil
}

// AccountShow prints the saved SMTP account without its password.
func (a *App) AccountShow(ctx context.Context, email string) error {
	v, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	defer v.Close()

	acct, err := credentials.Load(v, email)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.Out, "Email:    %s\n", acct.Email)
	fmt.Fprintf(a.Out, "Server:   %s\n", acct.Addr())
	if !acct.SavedAt.IsZero() {
		fmt.Fprintf(a.Out, "Saved at: %s\n", acct.SavedAt.Format(time.RFC3339))
	}
	return nil
}

// AccountForget removes the saved SMTP account.
func (a *App) AccountForget(ctx context.Context) error {
	v, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	defer v.Close()

	if err := credentials.Forget(ctx, v); err != nil {
		return err
	}

	a.success("SMTP account removed")
	return nil
}
