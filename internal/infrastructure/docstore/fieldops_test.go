package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyUpdateSetOverwrites(t *testing.T) {
	doc := map[string]any{"name": "old", "bio": "kept"}

	applyUpdate(doc, Update{Set: map[string]any{"name": "new"}})

	assert.Equal(t, "new", doc["name"])
	assert.Equal(t, "kept", doc["bio"])
}

func TestApplyUpdateSetAddIsIdempotent(t *testing.T) {
	doc := map[string]any{"likes": []any{"ada"}}

	applyUpdate(doc, Update{SetAdd: map[string]string{"likes": "grace"}})
	applyUpdate(doc, Update{SetAdd: map[string]string{"likes": "grace"}})

	assert.Equal(t, []string{"ada", "grace"}, doc["likes"])
}

func TestApplyUpdateSetRemoveIsIdempotent(t *testing.T) {
	doc := map[string]any{"likes": []any{"ada", "grace"}}

	applyUpdate(doc, Update{SetRemove: map[string]string{"likes": "grace"}})
	applyUpdate(doc, Update{SetRemove: map[string]string{"likes": "grace"}})

	assert.Equal(t, []string{"ada"}, doc["likes"])
}

func TestApplyUpdateOnMissingField(t *testing.T) {
	doc := map[string]any{}

	applyUpdate(doc, Update{SetAdd: map[string]string{"followers": "ada"}})
	assert.Equal(t, []string{"ada"}, doc["followers"])

	applyUpdate(doc, Update{SetRemove: map[string]string{"following": "ada"}})
	assert.Equal(t, []string{}, doc["following"])
}

func TestStringSetDropsNonStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, stringSet([]any{"a", 1, "b", nil}))
	assert.Equal(t, []string{}, stringSet("not an array"))
	assert.Equal(t, []string{}, stringSet(nil))
}
