package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeKind classifies an entry in a vault comparison.
type ChangeKind string

const (
	Added    ChangeKind = "added"
	Removed  ChangeKind = "removed"
	Modified ChangeKind = "modified"
)

// Change is one differing entry between two secret maps.
type Change struct {
	Name string
	Kind ChangeKind
}

// Diff compares two secret maps and reports added, removed and modified
// entry names. Values are reduced to short fingerprints before diffing and
// never appear in the result.
func Diff(before, after map[string]string) []Change {
	dmp := diffmatchpatch.New()

	a, b, lineArray := dmp.DiffLinesToChars(listing(before), listing(after))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	removed := map[string]bool{}
	added := map[string]bool{}
	for _, d := range diffs {
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			name, _, ok := strings.Cut(line, "\t")
			if !ok {
				continue
			}
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				removed[name] = true
			case diffmatchpatch.DiffInsert:
				added[name] = true
			}
		}
	}

	var changes []Change
	for name := range removed {
		if added[name] {
			changes = append(changes, Change{Name: name, Kind: Modified})
			continue
		}
		changes = append(changes, Change{Name: name, Kind: Removed})
	}
	for name := range added {
		if !removed[name] {
			changes = append(changes, Change{Name: name, Kind: Added})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Name < changes[j].Name
	})
	return changes
}

// listing renders one "name<TAB>fingerprint" line per entry, sorted by name.
func listing(secrets map[string]string) string {
	names := make([]string, 0, len(secrets))
	for name := range secrets {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sum := sha256.Sum256([]byte(name + "\x00" + secrets[name]))
		sb.WriteString(name)
		sb.WriteByte('\t')
		sb.WriteString(hex.EncodeToString(sum[:8]))
		sb.WriteByte('\n')
	}
	return sb.String()
}
