package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWebhookResponseShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"single object", `{"id":"a"}`, "a"},
		{"array with one object", `[{"id":"a"}]`, "a"},
		{"url field", `{"url":"https://x/y/a"}`, "a"},
		{"postId field", `{"postId":"a"}`, "a"},
		{"numeric id", `{"id":17}`, "17"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := normalizeWebhookResponse([]byte(tc.body))
			require.NoError(t, err)

			id, ok := extractGeneratedID(payload)
			require.True(t, ok)
			assert.Equal(t, tc.want, id)
		})
	}
}

func TestNormalizeWebhookResponseEmptyBody(t *testing.T) {
	payload, err := normalizeWebhookResponse(nil)
	require.NoError(t, err)
	assert.Empty(t, payload)

	payload, err = normalizeWebhookResponse([]byte("   \n"))
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestNormalizeWebhookResponseMalformed(t *testing.T) {
	_, err := normalizeWebhookResponse([]byte("{not json"))
	assert.ErrorIs(t, err, ErrInvalidGenerationResponse)

	_, err = normalizeWebhookResponse([]byte(`"just a string"`))
	assert.ErrorIs(t, err, ErrInvalidGenerationResponse)

	_, err = normalizeWebhookResponse([]byte(`["scalar"]`))
	assert.ErrorIs(t, err, ErrInvalidGenerationResponse)
}

func TestNormalizeWebhookResponseEmptyArray(t *testing.T) {
	payload, err := normalizeWebhookResponse([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestExtractGeneratedIDPrecedence(t *testing.T) {
	// id 优先于 postId，postId 优先于 url
	payload := map[string]interface{}{
		"id":     "first",
		"postId": "second",
		"url":    "https://x/y/third",
	}
	id, ok := extractGeneratedID(payload)
	require.True(t, ok)
	assert.Equal(t, "first", id)

	delete(payload, "id")
	id, ok = extractGeneratedID(payload)
	require.True(t, ok)
	assert.Equal(t, "second", id)

	delete(payload, "postId")
	id, ok = extractGeneratedID(payload)
	require.True(t, ok)
	assert.Equal(t, "third", id)
}

func TestExtractGeneratedIDMissing(t *testing.T) {
	_, ok := extractGeneratedID(map[string]interface{}{})
	assert.False(t, ok)

	_, ok = extractGeneratedID(map[string]interface{}{"url": "https://host/"})
	assert.False(t, ok)

	_, ok = extractGeneratedID(map[string]interface{}{"id": "  "})
	assert.False(t, ok)
}

func TestMergeGeneratedFieldsPrecedence(t *testing.T) {
	generated := GeneratedFields{Title: "T2"}
	input := GenerationInput{Title: "T1", Content: "C1"}

	merged := mergeGeneratedFields(generated, input)

	assert.Equal(t, "T2", merged.Title, "generated field wins when present")
	assert.Equal(t, "C1", merged.Content, "input fills gaps the generator left")
	assert.Empty(t, merged.Excerpt)
}

func TestMergeGeneratedFieldsDefaults(t *testing.T) {
	merged := mergeGeneratedFields(GeneratedFields{}, GenerationInput{Content: "seed"})

	assert.Equal(t, defaultGeneratedTitle, merged.Title)
	assert.Equal(t, "seed", merged.Content)
}

func TestMergeGeneratedFieldsCategoryFallback(t *testing.T) {
	inputCat := uint(4)
	merged := mergeGeneratedFields(GeneratedFields{}, GenerationInput{Title: "t", CategoryID: &inputCat})
	require.NotNil(t, merged.CategoryID)
	assert.Equal(t, uint(4), *merged.CategoryID)

	generatedCat := uint(9)
	merged = mergeGeneratedFields(GeneratedFields{CategoryID: &generatedCat}, GenerationInput{Title: "t", CategoryID: &inputCat})
	require.NotNil(t, merged.CategoryID)
	assert.Equal(t, uint(9), *merged.CategoryID)
}

func TestExtractGeneratedFieldsTolerantTypes(t *testing.T) {
	fields := extractGeneratedFields(map[string]interface{}{
		"title":          "T",
		"content":        "C",
		"excerpt":        "E",
		"featured_image": "https://img/x.png",
		"category_id":    float64(3),
	})

	assert.Equal(t, "T", fields.Title)
	assert.Equal(t, "C", fields.Content)
	assert.Equal(t, "E", fields.Excerpt)
	assert.Equal(t, "https://img/x.png", fields.FeaturedImageURL)
	require.NotNil(t, fields.CategoryID)
	assert.Equal(t, uint(3), *fields.CategoryID)

	// 非法类型被忽略而不是报错
	fields = extractGeneratedFields(map[string]interface{}{
		"title":       float64(1.5),
		"category_id": "not-a-number",
	})
	assert.Empty(t, fields.Title)
	assert.Nil(t, fields.CategoryID)
}
