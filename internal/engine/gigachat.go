package engine

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"legalis/pkg/config"

	"github.com/Role1776/gigago"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const systemInstruction = `You are a legal document analysis expert. Your role is to analyze legal documents and provide clear, actionable insights. You can:

1. CLASSIFY documents (lease, loan, employment, terms of service, etc.)
2. SUMMARIZE complex legal language into plain English
3. EXPLAIN legal terms and clauses clearly
4. EXTRACT and CALCULATE financial information (interest rates, payments, fees)
5. DETECT potential fraud indicators and unusual clauses
6. ASSESS risk levels and flag concerning terms
7. GENERATE reply letters when needed

Always respond in JSON format with structured data when asked to. Be thorough but accessible to non-lawyers.`

// GigaChatClient implements Client against the GigaChat API. Plain prompts go
// through the gigago SDK; prompts with attachments go through the Files API
// and the chat/completions endpoint directly, since the SDK does not expose
// file uploads.
type GigaChatClient struct {
	client     *gigago.Client
	model      *gigago.GenerativeModel
	config     *config.EngineConfig
	logger     *zap.Logger
	httpClient *http.Client
	baseURL    string
	authURL    string

	mu          sync.Mutex
	accessToken string
}

func NewGigaChatClient(ctx context.Context, cfg *config.EngineConfig, logger *zap.Logger) (*GigaChatClient, error) {
	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("Engine TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: create client: %v", ErrUnavailable, err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = systemInstruction
	model.Temperature = 0.3

	httpClient := &http.Client{}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	accessToken, err := getAccessToken(ctx, oauthURL, cfg, httpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &GigaChatClient{
		client:      client,
		model:       model,
		config:      cfg,
		logger:      logger,
		httpClient:  httpClient,
		accessToken: accessToken,
		baseURL:     "https://gigachat.devices.sberbank.ru/api/v1",
		authURL:     oauthURL,
	}, nil
}

func (c *GigaChatClient) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// refreshToken replaces the cached access token. GigaChat tokens expire after
// roughly thirty minutes, so a 401 mid-flight is expected during normal
// operation.
func (c *GigaChatClient) refreshToken(ctx context.Context) error {
	accessToken, err := getAccessToken(ctx, c.authURL, c.config, c.httpClient, c.logger)
	if err != nil {
		return fmt.Errorf("%w: token refresh: %v", ErrUnavailable, err)
	}
	c.mu.Lock()
	c.accessToken = accessToken
	c.mu.Unlock()
	return nil
}

// post sends an authorized request, refreshing the access token and retrying
// once when the API answers 401. The body is kept as bytes so the retry can
// resend it.
func (c *GigaChatClient) post(ctx context.Context, endpoint, contentType string, body []byte) (*http.Response, error) {
	send := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+c.token())
		return c.httpClient.Do(req)
	}

	resp, err := send()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, endpoint, err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	bodyBytes, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	c.logger.Warn("Engine rejected access token, refreshing", zap.String("endpoint", endpoint))

	if err := c.refreshToken(ctx); err != nil {
		return nil, fmt.Errorf("%w after 401 on %s (original error: %s)", err, endpoint, string(bodyBytes))
	}

	resp, err = send()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, endpoint, err)
	}
	return resp, nil
}

// Send satisfies Client. Each call is independent: no conversation state is
// kept between calls.
func (c *GigaChatClient) Send(ctx context.Context, prompt string, attachment *Attachment) (string, error) {
	if attachment == nil {
		return c.generate(ctx, prompt)
	}
	return c.generateWithAttachment(ctx, prompt, attachment)
}

func (c *GigaChatClient) generate(ctx context.Context, prompt string) (string, error) {
	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt},
	}

	resp, err := c.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: generate: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *GigaChatClient) generateWithAttachment(ctx context.Context, prompt string, attachment *Attachment) (string, error) {
	fileID, err := c.uploadFile(ctx, attachment)
	if err != nil {
		return "", err
	}

	// Attachments format per the GigaChat API: array of arrays of file ids.
	requestBody := map[string]interface{}{
		"model": c.config.Model,
		"messages": []map[string]interface{}{
			{
				"role":        "user",
				"content":     prompt,
				"attachments": [][]string{{fileID}},
			},
		},
		"temperature": 0.3,
		"stream":      false,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.post(ctx, "/chat/completions", "application/json", jsonData)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: completions failed with status %d: %s", ErrUnavailable, resp.StatusCode, string(bodyBytes))
	}

	var completionResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completionResp); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if len(completionResp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}

	return strings.TrimSpace(completionResp.Choices[0].Message.Content), nil
}

// uploadFile pushes the attachment to the Files API and returns the file id
// usable in completion requests.
func (c *GigaChatClient) uploadFile(ctx context.Context, attachment *Attachment) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	// "general" purpose allows using uploaded files in generation requests
	if err := writer.WriteField("purpose", "general"); err != nil {
		return "", fmt.Errorf("write purpose field: %w", err)
	}

	part, err := writer.CreatePart(map[string][]string{
		"Content-Type":        {attachment.MediaType},
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, attachment.Filename)},
	})
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(attachment.Data); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}

	resp, err := c.post(ctx, "/files", writer.FormDataContentType(), body.Bytes())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: upload failed with status %d: %s", ErrUnavailable, resp.StatusCode, string(bodyBytes))
	}

	var uploadResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("%w: decode upload response: %v", ErrUnavailable, err)
	}

	c.logger.Debug("File uploaded to engine", zap.String("file_id", uploadResp.ID))
	return uploadResp.ID, nil
}

const oauthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"

// getAccessToken obtains an access token from the GigaChat OAuth endpoint.
// The API key is expected to be Base64-encoded already.
func getAccessToken(ctx context.Context, oauthURL string, cfg *config.EngineConfig, httpClient *http.Client, logger *zap.Logger) (string, error) {
	formData := url.Values{}
	formData.Set("scope", cfg.Scope)

	req, err := http.NewRequestWithContext(ctx, "POST", oauthURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return "", fmt.Errorf("create OAuth request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.New().String())
	req.Header.Set("Authorization", "Basic "+cfg.APIKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OAuth failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var oauthResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oauthResp); err != nil {
		return "", fmt.Errorf("decode OAuth response: %w", err)
	}
	if oauthResp.AccessToken == "" {
		return "", fmt.Errorf("empty access token in OAuth response")
	}

	logger.Info("Engine access token obtained", zap.Int("expires_in", oauthResp.ExpiresIn))
	return oauthResp.AccessToken, nil
}

func (c *GigaChatClient) Close() error {
	if c.client != nil {
		c.client.Close()
	}
	return nil
}
