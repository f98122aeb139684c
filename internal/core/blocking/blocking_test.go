package blocking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/unify/internal/core/model"
)

func rec(id string, attrs map[string]string) model.Record {
	return model.Record{ID: id, Attributes: attrs}
}

func mustKeys(t *testing.T, names ...string) []KeyFunc {
	t.Helper()
	fns, err := Keys(names)
	require.NoError(t, err)
	return fns
}

func TestBuildGroupsByLastName(t *testing.T) {
	ix := NewIndex(mustKeys(t, KeyLastName))

	groups := ix.Build([]model.Record{
		rec("1", map[string]string{"full_name": "Robert Smith"}),
		rec("2", map[string]string{"full_name": "Bob Smith"}),
		rec("3", map[string]string{"full_name": "Alice Jones"}),
	})

	require.Len(t, groups, 2)
	assert.Equal(t, []string{"1", "2"}, groups[0].RecordIDs)
	assert.Equal(t, []string{"3"}, groups[1].RecordIDs)
}

func TestBuildNormalizesInitialsAndCase(t *testing.T) {
	ix := NewIndex(mustKeys(t, KeyLastName))

	groups := ix.Build([]model.Record{
		rec("1", map[string]string{"full_name": "Sarah Chen"}),
		rec("2", map[string]string{"full_name": "s. CHEN,"}),
	})

	require.Len(t, groups, 1)
	assert.Equal(t, []string{"1", "2"}, groups[0].RecordIDs)
}

func TestBuildEmailDomainAndPhone(t *testing.T) {
	ix := NewIndex(mustKeys(t, KeyEmailDomain, KeyPhoneLast7))

	groups := ix.Build([]model.Record{
		rec("1", map[string]string{"email": "r.smith@acme.com"}),
		rec("2", map[string]string{"email": "bob@ACME.com", "phone": "+1-555-012-3456"}),
		rec("3", map[string]string{"phone": "(555) 012 3456"}),
	})

	require.Len(t, groups, 2)
	assert.Equal(t, "domain:acme.com", groups[0].Key)
	assert.Equal(t, []string{"1", "2"}, groups[0].RecordIDs)
	assert.Equal(t, "phone:0123456", groups[1].Key)
	assert.Equal(t, []string{"2", "3"}, groups[1].RecordIDs)
}

func TestBuildDeduplicatesIdenticalMembership(t *testing.T) {
	// Same two records reachable via name and via email domain: the
	// comparison must only be paid for once.
	ix := NewIndex(mustKeys(t, KeyLastName, KeyEmailDomain))

	groups := ix.Build([]model.Record{
		rec("1", map[string]string{"full_name": "Robert Smith", "email": "r@acme.com"}),
		rec("2", map[string]string{"full_name": "Bob Smith", "email": "b@acme.com"}),
	})

	require.Len(t, groups, 1)
	assert.Equal(t, []string{"1", "2"}, groups[0].RecordIDs)
}

func TestBuildMalformedRecordGetsCatchAllSingleton(t *testing.T) {
	ix := NewIndex(mustKeys(t, KeyLastName, KeyEmailDomain))

	groups := ix.Build([]model.Record{
		rec("1", map[string]string{"full_name": "Alice Jones"}),
		rec("2", map[string]string{"job_title": "VP Engineering"}), // no identifying field at all
	})

	require.Len(t, groups, 2)
	assert.Equal(t, []string{"2"}, groups[1].RecordIDs)
	assert.Equal(t, "unblocked:2", groups[1].Key)
}

func TestBuildPartialKeysStillUsed(t *testing.T) {
	// Missing full_name but a usable email: blocked via the partial key,
	// never dropped.
	ix := NewIndex(mustKeys(t, KeyLastName, KeyEmailDomain))

	groups := ix.Build([]model.Record{
		rec("1", map[string]string{"full_name": "Sarah Chen", "email": "s@dataco.com"}),
		rec("2", map[string]string{"email": "sarah@dataco.com"}),
	})

	var all []string
	for _, g := range groups {
		all = append(all, g.RecordIDs...)
	}
	assert.Contains(t, all, "2")
}

func TestKeysUnknownName(t *testing.T) {
	_, err := Keys([]string{"soundex"})
	assert.Error(t, err)
}
