// Package prompt reads passphrases and other input from the user.
//
// Passphrases are read without echo when stdin is a terminal (golang.org/x/term)
// and line by line otherwise, so scripted use with piped input works.
// Prompts go to stderr to keep stdout clean for secret values.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/illarion/credvault/internal/crypto"
	"golang.org/x/term"
)

// PasswordEnv names the environment variable holding the master passphrase.
const PasswordEnv = "CREDVAULT_PASSWORD"

var ErrPasswordMismatch = errors.New("passwords do not match")

// Reader prompts on out and reads answers from in.
type Reader struct {
	out      io.Writer
	lines    *bufio.Reader
	fd       int
	terminal bool
}

// NewReader returns a Reader for a file, usually os.Stdin. Passphrases are
// read without echo when the file is a terminal.
func NewReader(in *os.File, out io.Writer) *Reader {
	fd := int(in.Fd())
	return &Reader{
		out:      out,
		lines:    bufio.NewReader(in),
		fd:       fd,
		terminal: term.IsTerminal(fd),
	}
}

// NewLineReader returns a Reader that never touches a terminal.
func NewLineReader(in io.Reader, out io.Writer) *Reader {
	return &Reader{out: out, lines: bufio.NewReader(in), fd: -1}
}

// Stdin is the Reader used by the command line.
var Stdin = NewReader(os.Stdin, os.Stderr)

// Terminal reports whether passphrases are read from an interactive terminal.
func (r *Reader) Terminal() bool {
	return r.terminal
}

// Password reads a password without echoing.
// The caller is responsible for calling crypto.ClearBytes on the result.
func (r *Reader) Password(prompt string) ([]byte, error) {
	fmt.Fprint(r.out, prompt)

	if r.terminal {
		password, err := term.ReadPassword(r.fd)
		fmt.Fprintln(r.out) // New line after password
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		return password, nil
	}

	line, err := r.lines.ReadBytes('\n')
	if err != nil && (err != io.EOF || len(line) == 0) {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(r.out)
	return trimNewline(line), nil
}

// PasswordConfirm reads a password twice and ensures they match
func (r *Reader) PasswordConfirm(prompt, confirm string) ([]byte, error) {
	password1, err := r.Password(prompt)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password1)

	password2, err := r.Password(confirm)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password2)

	if !crypto.ConstantTimeCompare(password1, password2) {
		return nil, ErrPasswordMismatch
	}

	// Return a copy of the password
	result := make([]byte, len(password1))
	copy(result, password1)
	return result, nil
}

// Line reads one line of visible input without the trailing newline.
// io.EOF is returned once input is exhausted.
func (r *Reader) Line(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(r.out, prompt)
	}
	line, err := r.lines.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// PasswordFromEnv reads the passphrase from CREDVAULT_PASSWORD.
// It returns nil when the variable is unset or empty.
func PasswordFromEnv() []byte {
	password := os.Getenv(PasswordEnv)
	if password == "" {
		return nil
	}
	// Return a copy to avoid issues when clearing the bytes
	result := make([]byte, len(password))
	copy(result, password)
	return result
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
