// Package classify turns raw scanner output lines into optimization
// suggestions by matching them against the failure-class catalog.
package classify

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sqlpilot/sqlpilot/internal/catalog"
	"github.com/sqlpilot/sqlpilot/internal/model"
	"github.com/sqlpilot/sqlpilot/internal/proxy"
)

// proxyPlaceholder is substituted in remedy params when a snapshot is built.
const proxyPlaceholder = "{proxy}"

// Classifier matches output lines against the catalog and produces
// suggestions with resolved remedy snapshots.
type Classifier struct {
	catalog *catalog.Catalog
	proxies *proxy.Pool
	now     func() time.Time
}

// New returns a classifier over cat, resolving proxy placeholders from pool.
func New(cat *catalog.Catalog, pool *proxy.Pool) *Classifier {
	return &Classifier{catalog: cat, proxies: pool, now: time.Now}
}

// SetClock overrides the timestamp source, for deterministic tests.
func (c *Classifier) SetClock(now func() time.Time) {
	c.now = now
}

// Classify returns one suggestion per failure class matching line, in catalog
// order. The first unseen trigger of an unlearned class is fed back into the
// catalog as a learned pattern before the suggestion is built. Lines matching
// nothing yield nil; classification never fails the run.
func (c *Classifier) Classify(line string) []model.Suggestion {
	matches := c.catalog.Match(line)
	if len(matches) == 0 {
		return nil
	}

	suggestions := make([]model.Suggestion, 0, len(matches))
	for _, m := range matches {
		if !m.Class.Learned {
			// Learn errors are impossible here: the trigger already
			// compiled, so Learn can only find it and flip the flag.
			c.catalog.Learn(m.Trigger.String())
		}
		suggestions = append(suggestions, model.Suggestion{
			ID:        uuid.New().String(),
			ClassID:   m.Class.ID,
			Timestamp: c.now(),
			Remedy:    c.resolve(m.Class.Remedy),
		})
	}
	return suggestions
}

// resolve snapshots a remedy with every {proxy} placeholder replaced by a
// fresh random draw from the pool.
func (c *Classifier) resolve(r model.Remedy) model.Remedy {
	out := r.Clone()
	for i, p := range out.Params {
		out.Params[i] = c.substitute(p)
	}
	for i, p := range out.Advanced {
		out.Advanced[i] = c.substitute(p)
	}
	return out
}

func (c *Classifier) substitute(arg string) string {
	if !strings.Contains(arg, proxyPlaceholder) {
		return arg
	}
	return strings.ReplaceAll(arg, proxyPlaceholder, c.proxies.Pick())
}
