package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/Veraticus/phonocorrect/internal/common"
	"github.com/Veraticus/phonocorrect/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	all := c.List("")
	require.NotEmpty(t, all)
	assert.Equal(t, "texting-shorthand", all[0].ID, "catalog order follows the file")

	for _, tmpl := range all {
		assert.NotEmpty(t, tmpl.Version, tmpl.ID)
		assert.True(t, tmpl.Difficulty.IsValid(), tmpl.ID)
	}

	assert.Equal(t, []string{"homophone", "phonetic"}, c.Categories())

	for _, tmpl := range c.List("homophone") {
		assert.Equal(t, "homophone", tmpl.Category)
	}
}

func TestCatalogGet(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	tmpl, err := c.Get("silent-letters")
	require.NoError(t, err)
	assert.Equal(t, "Silent letters", tmpl.Name)

	_, err = c.Get("nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestLoadRejectsBadCatalogs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "templates:\n  - id: a\n    colour: red\n",
			want: "colour",
		},
		{
			name: "bad difficulty",
			yaml: "templates:\n  - id: a\n    name: A\n    difficulty: expert\n    rules:\n      - {misspelling: x, correction: y}\n",
			want: "unknown difficulty",
		},
		{
			name: "no rules",
			yaml: "templates:\n  - id: a\n    name: A\n    difficulty: beginner\n",
			want: "no rules",
		},
		{
			name: "invalid rule",
			yaml: "templates:\n  - id: a\n    name: A\n    difficulty: beginner\n    rules:\n      - {misspelling: '(unclosed', correction: y, is_regex: true}\n",
			want: "rule 0",
		},
		{
			name: "duplicate id",
			yaml: "templates:\n" +
				"  - {id: a, name: A, difficulty: beginner, rules: [{misspelling: x, correction: y}]}\n" +
				"  - {id: a, name: B, difficulty: beginner, rules: [{misspelling: x, correction: y}]}\n",
			want: "duplicate id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestApplyCatalogTemplate(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	tmpl, err := c.Get("texting-shorthand")
	require.NoError(t, err)

	store, err := rules.NewStore(context.Background(), rules.NewMemoryPersistence(nil))
	require.NoError(t, err)

	report, err := store.ApplyTemplate(context.Background(), tmpl, []int{0, 1}, rules.ImportOptions{SkipDuplicates: true})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "please", list[0].Correction)
	assert.Equal(t, "phonetic", list[0].Category)
}
