package git

import (
	"strings"
	"testing"
)

func TestFormatStatusNotRepo(t *testing.T) {
	if got := FormatStatus(&Status{}); got != "" {
		t.Errorf("FormatStatus = %q, want empty", got)
	}
	if got := FormatStatus(nil); got != "" {
		t.Errorf("FormatStatus(nil) = %q, want empty", got)
	}
}

func TestFormatStatusTracked(t *testing.T) {
	out := FormatStatus(&Status{
		IsRepo:    true,
		Tracked:   []string{"credentials.vault"},
		Unignored: []string{"credentials.vault"},
	})

	if !strings.Contains(out, "git rm --cached credentials.vault") {
		t.Errorf("missing remediation hint:\n%s", out)
	}
	if !strings.Contains(out, "warning: credentials.vault not in .gitignore") {
		t.Errorf("missing .gitignore warning:\n%s", out)
	}
}

func TestFormatStatusClean(t *testing.T) {
	out := FormatStatus(&Status{
		IsRepo:  true,
		Ignored: []string{"a", "b"},
	})

	if !strings.Contains(out, "ok: no vault files tracked") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "ok: 2 vault file(s) in .gitignore") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestCheckFilesOutsideRepo(t *testing.T) {
	dir := t.TempDir()
	status := CheckFiles([]string{dir + "/credentials.vault"})
	if status.IsRepo && len(status.Tracked) > 0 {
		t.Errorf("fresh temp file reported as tracked: %v", status.Tracked)
	}
	if got := CheckFiles(nil); got.IsRepo {
		t.Error("empty file list reported as repo")
	}
}
