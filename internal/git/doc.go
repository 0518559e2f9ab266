// Package git provides git status checks for credvault.
//
// Checks performed:
//   - Whether the vault directory is inside a git repository
//   - Whether the vault, its history or its lock file are tracked (should not be)
//   - Whether those files are in .gitignore (should be)
//
// These checks help users avoid publishing credential files, even encrypted ones.
package git
