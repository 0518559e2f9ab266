package main

import (
	"fmt"
	"os"
)

func printUsage() {
	fmt.Println("credvault - Encrypted credential vault for the job tracker")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  credvault <command> [flags] [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init        Create a new vault")
	fmt.Println("  set         Store a secret")
	fmt.Println("  get         Print a secret")
	fmt.Println("  rm          Remove secrets")
	fmt.Println("  ls          List secret names")
	fmt.Println("  passwd      Change the master password")
	fmt.Println("  status      Show vault status (no password needed)")
	fmt.Println("  account     Manage the SMTP account used for outreach email")
	fmt.Println("  backup      List or restore previous versions of the vault")
	fmt.Println("  diff        Compare a backup with the current vault")
	fmt.Println("  shell       Interactive session that stays unlocked while in use")
	fmt.Println("  keyring     Manage the master password in the OS keyring")
	fmt.Println("  compact     Compact the backup history")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Every command accepts:")
	fmt.Println("  -vault PATH       Vault file (env CREDVAULT_VAULT)")
	fmt.Println("  -log-level LEVEL  debug, info, warn, error (env CREDVAULT_LOG_LEVEL)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  credvault init                      # Create new vault")
	fmt.Println("  credvault set smtp_password         # Prompt for the value")
	fmt.Println("  credvault get -copy smtp_password   # Copy to clipboard")
	fmt.Println("  credvault status                    # Check vault status")
	fmt.Println()
	fmt.Println("Use 'credvault help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "init":
		fmt.Println("credvault init")
		fmt.Println()
		fmt.Println("Creates an empty vault, by default at")
		fmt.Println("$XDG_CONFIG_HOME/credvault/credentials.vault.")
		fmt.Println("Prompts for a master password (or reads CREDVAULT_PASSWORD).")
		fmt.Println("The password is not stored anywhere - you must remember it.")
	case "set":
		fmt.Println("credvault set NAME [VALUE]")
		fmt.Println()
		fmt.Println("Stores a secret. When VALUE is omitted it is read without echo,")
		fmt.Println("which keeps it out of shell history.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  credvault set smtp_password")
		fmt.Println("  credvault set github_user octocat")
	case "get":
		fmt.Println("credvault get [-copy] NAME")
		fmt.Println()
		fmt.Println("Prints a secret value to stdout.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -copy   Copy the value to the clipboard instead of printing it")
	case "rm":
		fmt.Println("credvault rm NAME [NAME...]")
		fmt.Println()
		fmt.Println("Removes secrets. Removing a name that does not exist is an error.")
	case "ls":
		fmt.Println("credvault ls")
		fmt.Println()
		fmt.Println("Lists secret names, never values.")
	case "passwd":
		fmt.Println("credvault passwd")
		fmt.Println()
		fmt.Println("Changes the master password. The vault is re-encrypted with a new")
		fmt.Println("salt. A password saved in the keyring is updated. Backups keep the")
		fmt.Println("password they were written with.")
	case "status":
		fmt.Println("credvault status")
		fmt.Println()
		fmt.Println("Shows vault status including:")
		fmt.Println("  - Format version and KDF parameters")
		fmt.Println("  - File size and permissions")
		fmt.Println("  - Backup count")
		fmt.Println("  - Keyring and git status")
		fmt.Println()
		fmt.Println("Does not require a password.")
	case "account":
		fmt.Println("credvault account set [-server HOST] [-port N] EMAIL")
		fmt.Println("credvault account show [EMAIL]")
		fmt.Println("credvault account forget")
		fmt.Println()
		fmt.Println("Manages the SMTP login used for outreach email. The app password")
		fmt.Println("is prompted without echo. 'show' never prints the password and")
		fmt.Println("fails if EMAIL does not match the saved account.")
	case "backup":
		fmt.Println("credvault backup list")
		fmt.Println("credvault backup restore ID")
		fmt.Println()
		fmt.Println("Every change saves the previous encrypted vault in the history")
		fmt.Println("file next to the vault (CREDVAULT_BACKUPS, default 10).")
		fmt.Println("Restoring requires the password the backup was written with.")
	case "diff":
		fmt.Println("credvault diff BACKUP_ID")
		fmt.Println()
		fmt.Println("Shows secrets added (+), removed (-) and changed (~) since a backup.")
		fmt.Println("Values are never shown.")
	case "shell":
		fmt.Println("credvault shell")
		fmt.Println()
		fmt.Println("Interactive session. The vault stays unlocked while in use and is")
		fmt.Println("locked after CREDVAULT_IDLE_TIMEOUT (default 5m) without commands.")
		fmt.Println("A negative timeout disables locking.")
	case "keyring":
		fmt.Println("credvault keyring <save|delete|status>")
		fmt.Println()
		fmt.Println("Stores the master password in the OS keyring so commands do not")
		fmt.Println("prompt for it. Only 'keyring save' ever writes it there.")
	case "compact":
		fmt.Println("credvault compact")
		fmt.Println()
		fmt.Println("Compacts the backup history database to reclaim disk space.")
		fmt.Println("Does not require a password.")
	case "completion":
		fmt.Println("credvault completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(credvault completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(credvault completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  credvault completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
