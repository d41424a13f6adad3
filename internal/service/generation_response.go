package service

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// GeneratedFields 是外部服务返回的生成字段集合，缺失的字段保持零值。
type GeneratedFields struct {
	Title            string
	Content          string
	Excerpt          string
	FeaturedImageURL string
	CategoryID       *uint
}

// normalizeWebhookResponse 把原始响应体规整为单个对象：
// 空响应体视为空对象；数组取第一个元素；非法 JSON 返回 ErrInvalidGenerationResponse。
func normalizeWebhookResponse(body []byte) (map[string]interface{}, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return map[string]interface{}{}, nil
	}

	var raw interface{}
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGenerationResponse, err)
	}

	switch value := raw.(type) {
	case map[string]interface{}:
		return value, nil
	case []interface{}:
		if len(value) == 0 {
			return map[string]interface{}{}, nil
		}
		first, ok := value[0].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: array element is not an object", ErrInvalidGenerationResponse)
		}
		return first, nil
	default:
		return nil, fmt.Errorf("%w: unexpected top-level %T", ErrInvalidGenerationResponse, raw)
	}
}

// extractGeneratedID 按固定优先级定位外部系统创建的文章标识：
// id 字段 → postId 字段 → url 字段的末段路径。
func extractGeneratedID(payload map[string]interface{}) (string, bool) {
	if id := stringField(payload, "id"); id != "" {
		return id, true
	}
	if id := stringField(payload, "postId"); id != "" {
		return id, true
	}

	rawURL := stringField(payload, "url")
	if rawURL == "" {
		return "", false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	last := segments[len(segments)-1]
	if last == "" {
		return "", false
	}
	return last, true
}

// extractGeneratedFields 从规整后的响应对象里取出生成字段。
func extractGeneratedFields(payload map[string]interface{}) GeneratedFields {
	fields := GeneratedFields{
		Title:            stringField(payload, "title"),
		Content:          stringField(payload, "content"),
		Excerpt:          stringField(payload, "excerpt"),
		FeaturedImageURL: stringField(payload, "featured_image_url"),
	}
	if fields.FeaturedImageURL == "" {
		fields.FeaturedImageURL = stringField(payload, "featured_image")
	}
	fields.CategoryID = uintField(payload, "category_id")
	return fields
}

// mergeGeneratedFields 以生成字段优先、输入字段兜底的顺序合并，
// 标题最终兜底为固定占位值，保证 persist 模式总能落出合法草稿。
func mergeGeneratedFields(generated GeneratedFields, input GenerationInput) GeneratedFields {
	merged := GeneratedFields{
		Title:            firstNonEmpty(generated.Title, strings.TrimSpace(input.Title), defaultGeneratedTitle),
		Content:          firstNonEmpty(generated.Content, input.Content),
		Excerpt:          firstNonEmpty(generated.Excerpt, strings.TrimSpace(input.Excerpt)),
		FeaturedImageURL: generated.FeaturedImageURL,
		CategoryID:       generated.CategoryID,
	}
	if merged.CategoryID == nil {
		merged.CategoryID = input.CategoryID
	}
	return merged
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func stringField(payload map[string]interface{}, key string) string {
	value, ok := payload[key]
	if !ok {
		return ""
	}

	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		// JSON 数字形态的 id 也接受
		if typed == float64(int64(typed)) {
			return strconv.FormatInt(int64(typed), 10)
		}
		return ""
	default:
		return ""
	}
}

func uintField(payload map[string]interface{}, key string) *uint {
	value, ok := payload[key]
	if !ok {
		return nil
	}

	switch typed := value.(type) {
	case float64:
		if typed > 0 && typed == float64(uint64(typed)) {
			id := uint(typed)
			return &id
		}
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(typed), 10, 32)
		if err == nil && parsed > 0 {
			id := uint(parsed)
			return &id
		}
	}
	return nil
}
