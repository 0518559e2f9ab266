package cmd

import (
	"fmt"
)

// Completion outputs shell completion scripts
func (a *App) Completion(shell string) error {
	switch shell {
	case "bash":
		fmt.Fprint(a.Out, bashCompletion)
	case "zsh":
		fmt.Fprint(a.Out, zshCompletion)
	case "fish":
		fmt.Fprint(a.Out, fishCompletion)
	default:
		return fmt.Errorf("%w: unknown shell %q (supported: bash, zsh, fish)", ErrUsage, shell)
	}
	return nil
}

// Secret names are not completed: listing them needs the master password.

const bashCompletion = `_credvault() {
    local cur prev words cword
    _init_completion || return

    local commands="init set get rm ls passwd status account backup diff shell keyring compact help completion"
    local common="-vault -log-level"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    if [[ "$prev" == "-vault" ]]; then
        _filedir
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        get)
            COMPREPLY=($(compgen -W "$common -copy" -- "$cur"))
            ;;
        account)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "set show forget" -- "$cur"))
            else
                COMPREPLY=($(compgen -W "$common -server -port" -- "$cur"))
            fi
            ;;
        backup)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "list restore" -- "$cur"))
            fi
            ;;
        keyring)
            COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
        *)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "$common" -- "$cur"))
            fi
            ;;
    esac
}

complete -F _credvault credvault
`

const zshCompletion = `#compdef credvault

_credvault() {
    local -a commands
    commands=(
        'init:Create a new vault'
        'set:Store a secret'
        'get:Print a secret'
        'rm:Remove secrets'
        'ls:List secret names'
        'passwd:Change the master password'
        'status:Show vault status'
        'account:Manage the SMTP account'
        'backup:List or restore backups'
        'diff:Compare a backup with the vault'
        'shell:Interactive session'
        'keyring:Manage password in OS keyring'
        'compact:Compact the backup history'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'credvault commands' commands
            ;;
        args)
            case "${words[2]}" in
                get)
                    _arguments \
                        '-copy[Copy to clipboard instead of printing]' \
                        '-vault[Vault file]:file:_files' \
                        '-log-level[Log level]:level:(debug info warn error)'
                    ;;
                account)
                    _values 'subcommand' set show forget
                    ;;
                backup)
                    _values 'subcommand' list restore
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'credvault commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
                *)
                    _arguments \
                        '-vault[Vault file]:file:_files' \
                        '-log-level[Log level]:level:(debug info warn error)'
                    ;;
            esac
            ;;
    esac
}

_credvault "$@"
`

const fishCompletion = `# credvault fish completions

set -l commands init set get rm ls passwd status account backup diff shell keyring compact help completion

complete -c credvault -f

# Commands
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a init -d 'Create a new vault'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a set -d 'Store a secret'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a get -d 'Print a secret'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove secrets'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List secret names'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a passwd -d 'Change the master password'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show vault status'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a account -d 'Manage the SMTP account'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a backup -d 'List or restore backups'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare a backup with the vault'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a shell -d 'Interactive session'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage password in OS keyring'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact the backup history'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# Shared flags
complete -c credvault -n "__fish_seen_subcommand_from $commands" -o vault -r -F -d 'Vault file'
complete -c credvault -n "__fish_seen_subcommand_from $commands" -o log-level -x -a "debug info warn error" -d 'Log level'

complete -c credvault -n "__fish_seen_subcommand_from get" -o copy -d 'Copy to clipboard'
complete -c credvault -n "__fish_seen_subcommand_from account" -a "set show forget"
complete -c credvault -n "__fish_seen_subcommand_from backup" -a "list restore"
complete -c credvault -n "__fish_seen_subcommand_from keyring" -a "save delete status"
complete -c credvault -n "__fish_seen_subcommand_from help" -a "$commands"
complete -c credvault -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
