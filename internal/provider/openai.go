package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wasim/internal/logger"
)

// OpenAIChatClient 兼容 OpenAI / DeepSeek / Qwen 的聊天补全接口
// （/v1/chat/completions），带简易重试（429/5xx）。
type OpenAIChatClient struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string         `json:"model"`
	Messages    []chatMessage  `json:"messages"`
	Temperature float64        `json:"temperature"`
	Format      map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CallWithMessages 发送一次补全请求并返回首个 choice 的文本。
func (c *OpenAIChatClient) CallWithMessages(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}
	temp := c.Temperature
	if temp <= 0 {
		temp = 0.2
	}
	// 规范化 BaseURL，避免配置里带了完整路径导致重复。
	url := strings.TrimRight(c.BaseURL, "/")
	if url == "" {
		url = "https://api.openai.com/v1"
	}
	url = strings.TrimSuffix(url, "/chat/completions")
	url = url + "/chat/completions"

	messages := []chatMessage{}
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})
	payload, err := json.Marshal(chatRequest{
		Model:       c.Model,
		Messages:    messages,
		Temperature: temp,
		Format:      map[string]any{"type": "json_object"},
	})
	if err != nil {
		return "", err
	}

	httpc := &http.Client{Timeout: timeout}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		content, retryAfter, retryable, err := c.doOnce(ctx, httpc, url, payload)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !retryable {
			return "", lastErr
		}
		// 服务端给出的 Retry-After 优先于线性退避。
		wait := time.Duration(attempt+1) * time.Second
		if retryAfter > 0 {
			wait = retryAfter
		}
		logger.Debugf("[llm] attempt %d failed (%v), retrying in %s", attempt+1, err, wait)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", lastErr
}

func (c *OpenAIChatClient) doOnce(ctx context.Context, httpc *http.Client, url string, payload []byte) (content string, retryAfter time.Duration, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", 0, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return "", 0, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if sec, perr := strconv.Atoi(ra); perr == nil && sec > 0 {
				retryAfter = time.Duration(sec) * time.Second
			}
		}
		return "", retryAfter, true, fmt.Errorf("llm returned status %d", resp.StatusCode)
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, false, fmt.Errorf("decode llm response failed: %w", err)
	}
	if out.Error != nil {
		return "", 0, false, fmt.Errorf("llm error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", 0, false, fmt.Errorf("llm returned no choices")
	}
	return out.Choices[0].Message.Content, 0, false, nil
}
