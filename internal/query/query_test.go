package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signboardapp/signboard-server/internal/query"
)

func TestNormalize_Defaults(t *testing.T) {
	d := query.Normalize(query.Params{})

	assert.Empty(t, d.Condition)
	assert.Equal(t, 1, d.Options.Page)
	assert.Equal(t, 10, d.Options.Limit)
	assert.Equal(t, "createdAt", d.Options.Sort)
	assert.Equal(t, query.Descending, d.Options.Order)
	assert.Empty(t, d.Options.Populate)
}

func TestNormalize_MalformedPagination(t *testing.T) {
	tests := []struct {
		name       string
		page       string
		limit      string
		wantPage   int
		wantLimit  int
	}{
		{"non-numeric", "abc", "xyz", 1, 10},
		{"negative", "-3", "-5", 1, 10},
		{"zero", "0", "0", 1, 10},
		{"valid", "4", "25", 4, 25},
		{"limit capped", "1", "5000", 1, query.MaxLimit},
		{"whitespace", " 2 ", " 20 ", 2, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := query.Normalize(query.Params{Page: tt.page, Limit: tt.limit})
			assert.Equal(t, tt.wantPage, d.Options.Page)
			assert.Equal(t, tt.wantLimit, d.Options.Limit)
		})
	}
}

func TestNormalize_Order(t *testing.T) {
	assert.Equal(t, query.Ascending, query.Normalize(query.Params{Order: "1"}).Options.Order)
	assert.Equal(t, query.Descending, query.Normalize(query.Params{Order: "-1"}).Options.Order)
	assert.Equal(t, query.Descending, query.Normalize(query.Params{Order: "sideways"}).Options.Order)
	assert.Equal(t, query.Descending, query.Normalize(query.Params{}).Options.Order)
}

func TestNormalize_Condition(t *testing.T) {
	d := query.Normalize(query.Params{Filter: "foo", Fields: "name,title"})

	require.Len(t, d.Condition, 2)
	assert.Equal(t, "name", d.Condition[0].Field)
	assert.Equal(t, "title", d.Condition[1].Field)

	// Case-insensitive substring semantics.
	assert.True(t, d.Condition.Matches(map[string]any{"name": "FOOBAR"}))
	assert.True(t, d.Condition.Matches(map[string]any{"title": "some foo here"}))
	assert.False(t, d.Condition.Matches(map[string]any{"name": "bar"}))
}

func TestNormalize_ConditionRequiresBothFilterAndFields(t *testing.T) {
	assert.Empty(t, query.Normalize(query.Params{Filter: "foo"}).Condition)
	assert.Empty(t, query.Normalize(query.Params{Fields: "name"}).Condition)
}

func TestNormalize_FilterIsLiteral(t *testing.T) {
	// Regex metacharacters in the filter must be matched literally, not
	// interpreted.
	d := query.Normalize(query.Params{Filter: "a.c", Fields: "name"})

	assert.True(t, d.Condition.Matches(map[string]any{"name": "xa.cy"}))
	assert.False(t, d.Condition.Matches(map[string]any{"name": "abc"}))
}

func TestNormalize_AllowedFields(t *testing.T) {
	d := query.Normalize(
		query.Params{Filter: "foo", Fields: "displayName,passwordHash"},
		query.WithAllowedFields("displayName", "email"),
	)

	require.Len(t, d.Condition, 1)
	assert.Equal(t, "displayName", d.Condition[0].Field)
}

func TestNormalize_Populate(t *testing.T) {
	d := query.Normalize(query.Params{}, query.WithPopulate("linkedSchedules"))

	assert.True(t, d.Options.HasPopulate("linkedSchedules"))
	assert.False(t, d.Options.HasPopulate("linkedDevices"))
}

func TestEmptyConditionMatchesEverything(t *testing.T) {
	var c query.Condition
	assert.True(t, c.Matches(map[string]any{"anything": "at all"}))
	assert.True(t, c.Matches(nil))
}

func TestOptions_Offset(t *testing.T) {
	d := query.Normalize(query.Params{Page: "3", Limit: "20"})
	assert.Equal(t, 40, d.Options.Offset())
}
