// Package catalog holds the failure-class pattern table: built-in WAF and
// server-error signatures plus classes learned at runtime.
package catalog

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/sqlpilot/sqlpilot/internal/model"
)

// builtin describes one compiled-in failure class.
type builtin struct {
	id       string
	triggers []string
	remedy   model.Remedy
	learned  bool
}

// builtins is the fixed signature table. Triggers are compiled
// case-insensitive at construction; a malformed pattern here is a programming
// error and Must panics.
var builtins = []builtin{
	{
		id:       "500",
		triggers: []string{`500 \(Internal Server Error\)`, `SQL syntax error`},
		remedy: model.Remedy{
			Tampers: []string{"between", "space2comment", "space2mysqlblank"},
			Params:  []string{"--level=3", "--risk=2"},
		},
	},
	{
		id:       "cloudflare",
		triggers: []string{`Cloudflare`, `403 Forbidden.*Ray ID`},
		remedy: model.Remedy{
			Tampers:  []string{"randomcase", "space2plus"},
			Params:   []string{"--delay=7", "--proxy={proxy}"},
			Advanced: []string{"--flush-session", "--timeout=20"},
		},
		learned: true,
	},
}

// genericRemedy is attached to classes synthesized by Learn.
var genericRemedy = model.Remedy{
	Tampers: []string{"generic"},
	Params:  []string{"--level=2"},
}

// Match pairs a failure class with the trigger that fired for a line.
type Match struct {
	Class   *model.FailureClass
	Trigger *regexp.Regexp
}

// Catalog is the set of known failure classes. Reads are lock-free apart from
// the guard; Learn is the single mutation path and is serialized so a catalog
// can be shared if scans ever run concurrently.
type Catalog struct {
	mu      sync.Mutex
	classes []*model.FailureClass
}

// New builds a catalog from the built-in signature table. Panics if a
// built-in trigger does not compile; the table is validated here, once, so
// classification never has to handle a malformed pattern.
func New() *Catalog {
	c := &Catalog{}
	for _, b := range builtins {
		fc := &model.FailureClass{
			ID:      b.id,
			Remedy:  b.remedy,
			Learned: b.learned,
		}
		for _, t := range b.triggers {
			fc.Triggers = append(fc.Triggers, regexp.MustCompile("(?i)"+t))
		}
		c.classes = append(c.classes, fc)
	}
	return c
}

// Match scans every class against line and returns one Match per class whose
// triggers fire, in catalog insertion order. Within a class the first
// matching trigger is reported.
func (c *Catalog) Match(line string) []Match {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Match
	for _, fc := range c.classes {
		for _, trig := range fc.Triggers {
			if trig.MatchString(line) {
				out = append(out, Match{Class: fc, Trigger: trig})
				break
			}
		}
	}
	return out
}

// Classes returns a snapshot of the catalog contents in insertion order.
func (c *Catalog) Classes() []*model.FailureClass {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*model.FailureClass(nil), c.classes...)
}

// Learn records pattern as a known trigger. If any class already contains the
// pattern verbatim, that class is marked learned and returned; no duplicate
// trigger is ever inserted. Otherwise a new class named "custom" (or
// "custom-2", "custom-3", ... when taken) is synthesized with a generic
// remedy and returned. Patterns that do not compile are rejected.
func (c *Catalog) Learn(pattern string) (*model.FailureClass, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bare := strings.TrimPrefix(pattern, "(?i)")
	for _, fc := range c.classes {
		for _, trig := range fc.Triggers {
			if strings.TrimPrefix(trig.String(), "(?i)") == bare {
				fc.Learned = true
				return fc, nil
			}
		}
	}

	trig, err := regexp.Compile("(?i)" + bare)
	if err != nil {
		return nil, fmt.Errorf("learn pattern %q: %w", pattern, err)
	}

	fc := &model.FailureClass{
		ID:       c.nextCustomID(),
		Triggers: []*regexp.Regexp{trig},
		Remedy:   genericRemedy.Clone(),
		Learned:  true,
	}
	c.classes = append(c.classes, fc)
	return fc, nil
}

// nextCustomID returns "custom", or the first free "custom-N" suffix.
// Caller holds mu.
func (c *Catalog) nextCustomID() string {
	taken := make(map[string]bool, len(c.classes))
	for _, fc := range c.classes {
		taken[fc.ID] = true
	}
	if !taken["custom"] {
		return "custom"
	}
	for n := 2; ; n++ {
		id := fmt.Sprintf("custom-%d", n)
		if !taken[id] {
			return id
		}
	}
}

// Len returns the number of classes in the catalog.
func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.classes)
}
