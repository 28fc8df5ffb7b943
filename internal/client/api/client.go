// Package api реализует HTTP клиент API синхронизации.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/loclate/loclate/pkg/api"
)

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient создает новый API клиент.
// token добавляется в Authorization каждого запроса.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовок Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Push отправляет пакет локальных изменений
func (c *Client) Push(ctx context.Context, projectID string, req api.PushRequest) (*api.PushResponse, error) {
	var resp api.PushResponse
	path := fmt.Sprintf("/api/v1/projects/%s/push", url.PathEscape(projectID))
	if err := c.doRequest(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("push request failed: %w", err)
	}
	return &resp, nil
}

// PullParams параметры pull-запроса.
type PullParams struct {
	Since    *time.Time
	Page     int
	PageSize int
}

// Pull забирает полное или инкрементальное состояние проекта
func (c *Client) Pull(ctx context.Context, projectID string, params PullParams) (*api.PullResponse, error) {
	q := url.Values{}
	if params.Since != nil {
		q.Set("since", params.Since.UTC().Format(time.RFC3339Nano))
	}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(params.PageSize))
	}

	path := fmt.Sprintf("/api/v1/projects/%s/pull", url.PathEscape(projectID))
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp api.PullResponse
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("pull request failed: %w", err)
	}
	return &resp, nil
}

// Resolve отправляет решения по конфликтам
func (c *Client) Resolve(ctx context.Context, projectID string, req api.ResolveRequest) (*api.ResolveResponse, error) {
	var resp api.ResolveResponse
	path := fmt.Sprintf("/api/v1/projects/%s/resolve", url.PathEscape(projectID))
	if err := c.doRequest(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("resolve request failed: %w", err)
	}
	return &resp, nil
}

// ListHistory забирает страницу журнала истории
func (c *Client) ListHistory(ctx context.Context, projectID string, page, pageSize int) (*api.HistoryListResponse, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}

	path := fmt.Sprintf("/api/v1/projects/%s/history", url.PathEscape(projectID))
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp api.HistoryListResponse
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("history request failed: %w", err)
	}
	return &resp, nil
}

// GetHistory забирает запись истории с изменениями
func (c *Client) GetHistory(ctx context.Context, projectID, historyID string) (*api.HistoryDetailResponse, error) {
	var resp api.HistoryDetailResponse
	path := fmt.Sprintf("/api/v1/projects/%s/history/%s",
		url.PathEscape(projectID), url.PathEscape(historyID))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("history detail request failed: %w", err)
	}
	return &resp, nil
}

// Revert откатывает проект к записи истории
func (c *Client) Revert(ctx context.Context, projectID, historyID string, req api.RevertRequest) (*api.RevertResponse, error) {
	var resp api.RevertResponse
	path := fmt.Sprintf("/api/v1/projects/%s/history/%s/revert",
		url.PathEscape(projectID), url.PathEscape(historyID))
	if err := c.doRequest(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("revert request failed: %w", err)
	}
	return &resp, nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	reqURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
