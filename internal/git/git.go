package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Status contains git status information for the vault's files
type Status struct {
	IsRepo    bool
	Tracked   []string // Vault files committed to git (bad)
	Unignored []string // Vault files not covered by .gitignore (warning)
	Ignored   []string // Vault files covered by .gitignore (good)
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	err := cmd.Run()
	return err == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()

	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	err := cmd.Run()

	// git check-ignore returns exit code 0 if file is ignored
	return err == nil
}

// CheckFiles reports the git status of files that live in one directory
// (the vault, its history and its lock file). Paths are checked relative
// to that directory.
func CheckFiles(files []string) *Status {
	status := &Status{}
	if len(files) == 0 {
		return status
	}

	workDir := filepath.Dir(files[0])
	if !IsGitRepo(workDir) {
		return status
	}
	status.IsRepo = true

	for _, file := range files {
		name := filepath.Base(file)

		if IsTracked(workDir, name) {
			status.Tracked = append(status.Tracked, name)
		}
		if IsIgnored(workDir, name) {
			status.Ignored = append(status.Ignored, name)
		} else {
			status.Unignored = append(status.Unignored, name)
		}
	}

	return status
}

// FormatStatus formats git status for display
func FormatStatus(status *Status) string {
	if status == nil || !status.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit:\n")

	if len(status.Tracked) > 0 {
		result.WriteString(fmt.Sprintf("   error: %d vault file(s) tracked by git:\n", len(status.Tracked)))
		for _, file := range status.Tracked {
			result.WriteString(fmt.Sprintf("      - %s (run: git rm --cached %s)\n", file, file))
		}
	} else {
		result.WriteString("   ok: no vault files tracked by git\n")
	}

	if len(status.Unignored) > 0 {
		for _, file := range status.Unignored {
			result.WriteString(fmt.Sprintf("   warning: %s not in .gitignore\n", file))
		}
	} else if len(status.Ignored) > 0 {
		result.WriteString(fmt.Sprintf("   ok: %d vault file(s) in .gitignore\n", len(status.Ignored)))
	}

	return result.String()
}
