package cmd

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/illarion/credvault/internal/crypto"
)

// Set stores a secret. When value is nil it is read without echo.
func (a *App) Set(ctx context.Context, name string, value *string) error {
	v, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	defer v.Close()

	var secret string
	if value != nil {
		secret = *value
	} else {
		raw, err := a.In.Password(fmt.Sprintf("Value for %s: ", name))
		if err != nil {
			return err
		}
		secret = string(raw)
		crypto.ClearBytes(raw)
	}

	if err := v.Set(ctx, name, secret); err != nil {
		return err
	}

	a.success("Saved %s", name)
	return nil
}

// Get prints a secret value, or copies it to the clipboard.
func (a *App) Get(ctx context.Context, name string, toClipboard bool) error {
	v, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	defer v.Close()

	value, err := v.Get(name)
	if err != nil {
		return err
	}

	if toClipboard {
		if err := clipboard.WriteAll(value); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		a.success("Copied %s to clipboard", name)
		return nil
	}

	fmt.Fprintln(a.Out, value)
	return nil
}

// Remove deletes secrets from the vault
func (a *App) Remove(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: rm requires at least one secret name", ErrUsage)
	}

	v, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	defer v.Close()

	for _, name := range names {
		if err := v.Delete(ctx, name); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		a.success("Removed %s", name)
	}
	return nil
}

// List prints secret names, one per line.
func (a *App) List(ctx context.Context) error {
	v, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	defer v.Close()

	for _, name := range v.Names() {
		fmt.Fprintln(a.Out, name)
	}
	return nil
}
