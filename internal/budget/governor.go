// Package budget implements the token governor: per-request, hourly, and
// daily token limits with a file-persisted usage ledger. The service consults
// it before invoking a paid provider; the pipelines themselves never do.
package budget

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kotae-ai/kotae/internal/apperr"
)

// Limits holds the token ceilings per window. Zero means unlimited.
type Limits struct {
	PerRequest int
	Hourly     int
	Daily      int
}

// Usage is the persisted token ledger. Daily counters reset at local
// midnight, hourly counters an hour after their last reset.
type Usage struct {
	TotalTokens      int       `json:"total_tokens"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	EmbeddingTokens  int       `json:"embedding_tokens"`
	LastReset        time.Time `json:"last_reset"`
	HourlyUsage      int       `json:"hourly_usage"`
	HourlyReset      time.Time `json:"hourly_reset"`
}

// Governor tracks token usage against Limits.
type Governor struct {
	limits Limits
	path   string // "" disables persistence
	now    func() time.Time

	mu    sync.Mutex
	usage Usage
}

// Option configures a Governor.
type Option func(*Governor)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Governor) { g.now = now }
}

// NewGovernor creates a governor, loading any persisted ledger from path.
// A missing or unreadable ledger starts fresh rather than failing startup.
func NewGovernor(limits Limits, path string, opts ...Option) *Governor {
	g := &Governor{limits: limits, path: path, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	g.usage = g.loadUsage()
	g.rollover()
	return g
}

// Reserve checks whether a request estimated at tokens can proceed. It does
// not commit usage; call Record once actual consumption is known. Returns a
// BudgetError naming the exhausted window when denied.
func (g *Governor) Reserve(tokens int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollover()

	if g.limits.PerRequest > 0 && tokens > g.limits.PerRequest {
		return &apperr.BudgetError{Reason: fmt.Sprintf(
			"request needs ~%d tokens, per-request limit is %d", tokens, g.limits.PerRequest)}
	}
	if g.limits.Hourly > 0 && g.usage.HourlyUsage+tokens > g.limits.Hourly {
		return &apperr.BudgetError{Reason: fmt.Sprintf(
			"hourly limit of %d tokens reached", g.limits.Hourly)}
	}
	if g.limits.Daily > 0 && g.usage.TotalTokens+tokens > g.limits.Daily {
		return &apperr.BudgetError{Reason: fmt.Sprintf(
			"daily limit of %d tokens reached", g.limits.Daily)}
	}
	return nil
}

// Record commits actual token consumption to the ledger and persists it.
func (g *Governor) Record(prompt, completion, embedding int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollover()

	total := prompt + completion + embedding
	g.usage.PromptTokens += prompt
	g.usage.CompletionTokens += completion
	g.usage.EmbeddingTokens += embedding
	g.usage.TotalTokens += total
	g.usage.HourlyUsage += total
	g.saveUsage()
}

// Snapshot returns a copy of the current ledger.
func (g *Governor) Snapshot() Usage {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollover()
	return g.usage
}

// rollover resets counters whose window has passed. Caller holds g.mu (or
// has exclusive access during construction).
func (g *Governor) rollover() {
	now := g.now()
	if now.Local().YearDay() != g.usage.LastReset.Local().YearDay() ||
		now.Local().Year() != g.usage.LastReset.Local().Year() {
		g.usage = Usage{LastReset: now, HourlyReset: now}
		return
	}
	if now.Sub(g.usage.HourlyReset) > time.Hour {
		g.usage.HourlyUsage = 0
		g.usage.HourlyReset = now
	}
}

func (g *Governor) loadUsage() Usage {
	fresh := Usage{LastReset: g.now(), HourlyReset: g.now()}
	if g.path == "" {
		return fresh
	}
	data, err := os.ReadFile(g.path)
	if err != nil {
		return fresh
	}
	var u Usage
	if err := json.Unmarshal(data, &u); err != nil {
		return fresh
	}
	if u.LastReset.IsZero() {
		u.LastReset = g.now()
	}
	if u.HourlyReset.IsZero() {
		u.HourlyReset = g.now()
	}
	return u
}

// saveUsage persists the ledger best-effort; losing a ledger write only
// loosens the budget until the next successful save.
func (g *Governor) saveUsage() {
	if g.path == "" {
		return
	}
	if dir := filepath.Dir(g.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return
		}
	}
	data, err := json.Marshal(g.usage)
	if err != nil {
		return
	}
	_ = os.WriteFile(g.path, data, 0600)
}
