package permission_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authz/pkg/permission"
)

func TestSet_Allows(t *testing.T) {
	t.Parallel()

	set, err := permission.NewSet("finance:*", "*:read", "hr:approve")
	require.NoError(t, err)

	assert.True(t, set.Allows("finance:read"))
	assert.True(t, set.Allows("finance:write"))
	assert.True(t, set.Allows("legal:read"))
	assert.True(t, set.Allows("hr:approve"))
	assert.False(t, set.Allows("hr:write"))
	assert.False(t, set.Allows("not a permission"))
}

func TestSet_WildcardOnlyGrantsItsNamespace(t *testing.T) {
	t.Parallel()

	set, err := permission.NewSet("finance:*")
	require.NoError(t, err)

	assert.True(t, set.Allows("finance:read"))
	assert.True(t, set.Allows("finance:write"))
	assert.False(t, set.Allows("hr:read"))
}

func TestSet_Empty(t *testing.T) {
	t.Parallel()

	var set permission.Set
	assert.Equal(t, 0, set.Len())
	assert.False(t, set.Allows("finance:read"))
	assert.Empty(t, set.Strings())
}

func TestSet_UnionDeduplicates(t *testing.T) {
	t.Parallel()

	a, err := permission.NewSet("a:read", "*:write")
	require.NoError(t, err)
	b, err := permission.NewSet("a:read", "b:read")
	require.NoError(t, err)

	var u permission.Set
	u.Union(a)
	u.Union(b)

	assert.Equal(t, []string{"*:write", "a:read", "b:read"}, u.Strings())
	assert.True(t, u.Contains(permission.MustParse("*:write")))
	assert.False(t, u.Contains(permission.MustParse("b:write")), "Contains does not expand wildcards")
}

func TestSet_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	orig, err := permission.NewSet("a:read")
	require.NoError(t, err)

	clone := orig.Clone()
	clone.Add(permission.MustParse("b:read"))

	assert.Equal(t, 1, orig.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestSet_JSON(t *testing.T) {
	t.Parallel()

	set, err := permission.NewSet("b:read", "a:*")
	require.NoError(t, err)

	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `["a:*","b:read"]`, string(data))

	var decoded permission.Set
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, set.Strings(), decoded.Strings())

	assert.Error(t, json.Unmarshal([]byte(`["bad"]`), &decoded))
}

func TestNewSet_RejectsInvalid(t *testing.T) {
	t.Parallel()

	_, err := permission.NewSet("a:read", "oops")
	assert.ErrorIs(t, err, permission.ErrInvalidPermission)
}
