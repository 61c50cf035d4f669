// Package tamper discovers sqlmap tamper scripts installed on the host.
package tamper

import (
	"os"
	"sort"
	"strings"
)

// DefaultDir is the usual sqlmap tamper script location.
const DefaultDir = "/usr/share/sqlmap/tamper"

// fallback is used when the tamper directory is missing or unreadable.
var fallback = []string{"between", "randomcase"}

// Discover scans dir for *.py tamper scripts and returns their stem names,
// sorted. Files starting with "__" (package machinery) are skipped. A
// missing or unreadable directory yields the built-in fallback list and
// fellBack=true, never an error.
func Discover(dir string) (names []string, fellBack bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Fallback(), true
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "__") || !strings.HasSuffix(name, ".py") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".py"))
	}
	if len(names) == 0 {
		return Fallback(), true
	}
	sort.Strings(names)
	return names, false
}

// Fallback returns a copy of the built-in tamper list.
func Fallback() []string {
	return append([]string(nil), fallback...)
}
