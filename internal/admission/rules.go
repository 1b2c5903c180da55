package admission

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// RuleClass names a request category with its own window and ceiling.
type RuleClass string

const (
	RuleAuth   RuleClass = "auth"
	RuleAPI    RuleClass = "api"
	RuleUpload RuleClass = "upload"
	RuleAdmin  RuleClass = "admin"
	RulePublic RuleClass = "public"
)

// ErrUnknownRuleClass indicates a class missing from the catalog. Because
// the catalog is static configuration this is a start-up failure, not a
// request-time condition.
var ErrUnknownRuleClass = errors.New("unknown rule class")

// Rule is the fixed-window quota for one request class.
type Rule struct {
	Window      time.Duration
	MaxRequests int
}

// RuleCatalog is the immutable class -> rule table, validated once at
// construction and read-only afterwards.
type RuleCatalog struct {
	rules map[RuleClass]Rule
}

// DefaultRules returns the built-in catalog entries.
func DefaultRules() map[RuleClass]Rule {
	return map[RuleClass]Rule{
		RuleAuth:   {Window: 15 * time.Minute, MaxRequests: 5},
		RuleAPI:    {Window: time.Minute, MaxRequests: 60},
		RuleUpload: {Window: time.Hour, MaxRequests: 20},
		RuleAdmin:  {Window: time.Minute, MaxRequests: 30},
		RulePublic: {Window: time.Minute, MaxRequests: 120},
	}
}

// NewRuleCatalog validates the given rules and returns a catalog. Every rule
// needs a positive window and a ceiling of at least one request.
func NewRuleCatalog(rules map[RuleClass]Rule) (*RuleCatalog, error) {
	if len(rules) == 0 {
		return nil, errors.New("rule catalog is empty")
	}
	for class, r := range rules {
		if class == "" {
			return nil, errors.New("rule class name is empty")
		}
		if r.Window <= 0 {
			return nil, fmt.Errorf("rule class %q: window must be positive, got %s", class, r.Window)
		}
		if r.MaxRequests < 1 {
			return nil, fmt.Errorf("rule class %q: max requests must be at least 1, got %d", class, r.MaxRequests)
		}
	}

	cp := make(map[RuleClass]Rule, len(rules))
	for class, r := range rules {
		cp[class] = r
	}
	return &RuleCatalog{rules: cp}, nil
}

// Get returns the rule for class or ErrUnknownRuleClass.
func (c *RuleCatalog) Get(class RuleClass) (Rule, error) {
	r, ok := c.rules[class]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %q", ErrUnknownRuleClass, class)
	}
	return r, nil
}

// Has reports whether class is configured.
func (c *RuleCatalog) Has(class RuleClass) bool {
	_, ok := c.rules[class]
	return ok
}

// Classes returns the configured class names in stable order.
func (c *RuleCatalog) Classes() []RuleClass {
	out := make([]RuleClass, 0, len(c.rules))
	for class := range c.rules {
		out = append(out, class)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
