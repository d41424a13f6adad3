package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/inkstream/internal/config"
	"github.com/inkstream/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrGenerationInputRequired 在标题与正文种子都为空时返回，此时不会发起任何网络请求。
	ErrGenerationInputRequired = errors.New("title or content is required for generation")
	// ErrRefineInstructionsRequired 在润色指令为空时返回。
	ErrRefineInstructionsRequired = errors.New("instructions are required for refinement")
	// ErrWebhookNotConfigured 表示对应的外部端点未配置。
	ErrWebhookNotConfigured = errors.New("generation webhook url is not configured")
	// ErrInvalidGenerationResponse 表示外部服务返回了无法解析的 JSON，与传输层失败区分开。
	ErrInvalidGenerationResponse = errors.New("invalid response from generation service")
	// ErrGeneratedPostIDMissing 表示外部服务已生成文章但响应中定位不到标识，需要人工介入。
	ErrGeneratedPostIDMissing = errors.New("post was generated but its identifier could not be located")
)

// defaultGeneratedTitle 是 persist 模式下标题的兜底值。
const defaultGeneratedTitle = "Generated Blog Post"

// httpDoer 抽象 *http.Client，便于在测试中注入假实现。
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GenerationInput 描述一次 AI 生成请求的种子内容。
type GenerationInput struct {
	Title      string
	Content    string
	Excerpt    string
	CategoryID *uint
	AuthorID   uint
}

// GenerationResult 描述生成流程的落点。
// redirect 模式下 PostID 来自外部响应，Post 为 nil；
// persist 模式下 Post 为本地新建的草稿，PostID 为其本地 ID。
type GenerationResult struct {
	PostID string
	Post   *db.Post
}

// RefinementInput 描述一次对既有草稿的迭代润色请求。
type RefinementInput struct {
	PostID       uint
	Title        string
	Content      string
	Excerpt      string
	Instructions string
	CategoryID   *uint
}

// RefinementResult 返回合并后的编辑态字段，不触发任何持久化或跳转。
type RefinementResult struct {
	Title      string
	Content    string
	Excerpt    string
	CategoryID *uint
}

// GenerationService 负责编排 AI 生成/润色工作流：
// 调用外部 webhook、容忍多种响应形态、按部署策略对账结果。
type GenerationService struct {
	db          *gorm.DB
	posts       *PostService
	http        httpDoer
	generateURL string
	refineURL   string
	mode        string
}

// NewGenerationService 构造默认的 GenerationService。
// mode 取 config.GenerationModeRedirect 或 config.GenerationModePersist，非法值回退为 persist。
func NewGenerationService(gdb *gorm.DB, posts *PostService, generateURL, refineURL, mode string) *GenerationService {
	if mode != config.GenerationModeRedirect {
		mode = config.GenerationModePersist
	}
	return &GenerationService{
		db:          gdb,
		posts:       posts,
		http:        &http.Client{Timeout: 180 * time.Second},
		generateURL: strings.TrimSpace(generateURL),
		refineURL:   strings.TrimSpace(refineURL),
		mode:        mode,
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (s *GenerationService) SetHTTPClient(client httpDoer) {
	if client == nil {
		s.http = &http.Client{Timeout: 20 * time.Second}
		return
	}
	s.http = client
}

// Mode 返回当前部署生效的对账策略。
func (s *GenerationService) Mode() string {
	return s.mode
}

// SubmitGeneration 触发一次外部生成并对账结果。
// 非幂等：失败后的重试会产生新的外部调用与（persist 模式下的）新草稿。
func (s *GenerationService) SubmitGeneration(ctx context.Context, input GenerationInput) (*GenerationResult, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" && content == "" {
		return nil, ErrGenerationInputRequired
	}
	if s.generateURL == "" {
		return nil, ErrWebhookNotConfigured
	}

	payload := map[string]interface{}{
		"title":     input.Title,
		"content":   input.Content,
		"author_id": input.AuthorID,
	}
	if strings.TrimSpace(input.Excerpt) != "" {
		payload["excerpt"] = input.Excerpt
	}
	if input.CategoryID != nil {
		payload["category_id"] = *input.CategoryID
	}

	generated, err := s.callWebhook(ctx, s.generateURL, "generation", payload)
	if err != nil {
		log.Printf("generation request failed: %v", err)
		return nil, err
	}

	if s.mode == config.GenerationModeRedirect {
		id, ok := extractGeneratedID(generated)
		if !ok {
			log.Printf("generation response carried no identifier: %v", generated)
			return nil, ErrGeneratedPostIDMissing
		}
		return &GenerationResult{PostID: id}, nil
	}

	fields := extractGeneratedFields(generated)
	merged := mergeGeneratedFields(fields, input)

	post, err := s.posts.Create(PostInput{
		Title:            merged.Title,
		Content:          merged.Content,
		Excerpt:          merged.Excerpt,
		FeaturedImageURL: merged.FeaturedImageURL,
		CategoryID:       merged.CategoryID,
		AuthorID:         input.AuthorID,
	})
	if err != nil {
		log.Printf("failed to persist generated draft: %v", err)
		return nil, err
	}

	return &GenerationResult{PostID: fmt.Sprintf("%d", post.ID), Post: post}, nil
}

// Refine 调用润色端点并把返回字段合并回编辑态，不做任何持久化。
func (s *GenerationService) Refine(ctx context.Context, input RefinementInput) (*RefinementResult, error) {
	if strings.TrimSpace(input.Instructions) == "" {
		return nil, ErrRefineInstructionsRequired
	}
	if s.refineURL == "" {
		return nil, ErrWebhookNotConfigured
	}

	payload := map[string]interface{}{
		"post_id":      input.PostID,
		"content":      input.Content,
		"instructions": input.Instructions,
		"title":        input.Title,
		"excerpt":      input.Excerpt,
	}
	if input.CategoryID != nil {
		payload["category_id"] = *input.CategoryID
	}

	refined, err := s.callWebhook(ctx, s.refineURL, "refinement", payload)
	if err != nil {
		log.Printf("refinement request failed: %v", err)
		return nil, err
	}

	fields := extractGeneratedFields(refined)
	merged := mergeGeneratedFields(fields, GenerationInput{
		Title:      input.Title,
		Content:    input.Content,
		Excerpt:    input.Excerpt,
		CategoryID: input.CategoryID,
	})

	return &RefinementResult{
		Title:      merged.Title,
		Content:    merged.Content,
		Excerpt:    merged.Excerpt,
		CategoryID: merged.CategoryID,
	}, nil
}

// callWebhook 发送请求并返回规整后的响应对象。
// 传输失败、非 2xx 状态与 JSON 解析失败是三类互相区分的错误。
func (s *GenerationService) callWebhook(ctx context.Context, endpoint, label string, payload map[string]interface{}) (map[string]interface{}, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", label, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", label, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := s.http
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s service unreachable: %w", label, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", label, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New(extractWebhookError(respBody, resp.StatusCode, label))
	}

	return normalizeWebhookResponse(respBody)
}

// extractWebhookError 按固定优先级提取人类可读的失败原因：
// 结构化 message 字段 → 字符串型 error 字段 → 原始响应文本 → 状态码兜底。
func extractWebhookError(body []byte, statusCode int, label string) string {
	var structured map[string]interface{}
	if err := json.Unmarshal(body, &structured); err == nil {
		if msg, ok := structured["message"].(string); ok && strings.TrimSpace(msg) != "" {
			return msg
		}
		if msg, ok := structured["error"].(string); ok && strings.TrimSpace(msg) != "" {
			return msg
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}

	return fmt.Sprintf("%s service responded with status %d", label, statusCode)
}
