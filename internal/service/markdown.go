package service

import (
	"bytes"
	"log"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// renderFallbackHTML 在渲染异常时返回，保证页面不会因为一篇坏文章而崩溃。
const renderFallbackHTML = "<p>Content could not be rendered.</p>"

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML(), html.WithUnsafe()),
	)
	contentSanitizer = newContentPolicy()
)

// newContentPolicy 构建作者内容的唯一信任边界。
// 白名单覆盖常见博客排版标签，data-* 属性一律不放行。
func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		// 文本排版
		"p", "br", "strong", "b", "em", "i", "u", "s", "strike", "del", "ins",
		"mark", "small", "sub", "sup",
		// 标题
		"h1", "h2", "h3", "h4", "h5", "h6",
		// 列表
		"ul", "ol", "li",
		// 链接与媒体
		"a", "img",
		// 代码
		"pre", "code", "kbd", "samp",
		// 引用
		"blockquote", "q", "cite",
		// 表格
		"table", "thead", "tbody", "tfoot", "tr", "th", "td",
		// 结构
		"div", "span", "hr",
		// 定义列表
		"dl", "dt", "dd",
		// 折叠块
		"details", "summary",
		// 图示
		"figure", "figcaption",
	)

	p.AllowAttrs(
		"href", "src", "alt", "title", "class", "id",
		"target", "rel",
		"width", "height",
		"colspan", "rowspan",
		"loading",
	).Globally()

	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireNoFollowOnLinks(false)

	return p
}

// SanitizeHTML 按白名单过滤 HTML，输入为空时返回空串。
func SanitizeHTML(rawHTML string) string {
	if rawHTML == "" {
		return ""
	}
	return contentSanitizer.Sanitize(rawHTML)
}

// RenderContentHTML 将作者提供的 Markdown 或 HTML 转换为可直接注入页面的安全 HTML。
// 输入以 < 开头时视为现成 HTML，跳过 Markdown 解析；两条分支都必须过一遍白名单。
func RenderContentHTML(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("content render panic recovered: %v", r)
			result = renderFallbackHTML
		}
	}()

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "<") {
		return SanitizeHTML(content)
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		log.Printf("markdown convert failed: %v", err)
		return renderFallbackHTML
	}

	return SanitizeHTML(buf.String())
}
