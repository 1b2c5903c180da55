package admission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuleCatalog_ValidatesEntries(t *testing.T) {
	_, err := NewRuleCatalog(nil)
	assert.Error(t, err)

	_, err = NewRuleCatalog(map[RuleClass]Rule{RuleAuth: {Window: 0, MaxRequests: 5}})
	assert.Error(t, err)

	_, err = NewRuleCatalog(map[RuleClass]Rule{RuleAuth: {Window: time.Minute, MaxRequests: 0}})
	assert.Error(t, err)

	catalog, err := NewRuleCatalog(DefaultRules())
	require.NoError(t, err)
	assert.True(t, catalog.Has(RuleAuth))
}

func TestRuleCatalog_GetUnknownClass(t *testing.T) {
	catalog, err := NewRuleCatalog(DefaultRules())
	require.NoError(t, err)

	_, err = catalog.Get("nonexistent")
	assert.ErrorIs(t, err, ErrUnknownRuleClass)
}

func TestRuleCatalog_Defaults(t *testing.T) {
	catalog, err := NewRuleCatalog(DefaultRules())
	require.NoError(t, err)

	auth, err := catalog.Get(RuleAuth)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, auth.Window)
	assert.Equal(t, 5, auth.MaxRequests)

	classes := catalog.Classes()
	assert.Equal(t, []RuleClass{RuleAdmin, RuleAPI, RuleAuth, RulePublic, RuleUpload}, classes)
}

func TestRuleCatalog_IsImmutable(t *testing.T) {
	rules := DefaultRules()
	catalog, err := NewRuleCatalog(rules)
	require.NoError(t, err)

	// Mutating the source map must not leak into the catalog.
	rules[RuleAuth] = Rule{Window: time.Second, MaxRequests: 1}

	auth, err := catalog.Get(RuleAuth)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, auth.Window)
}
