package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/and161185/sample-dispatch/internal/convert"
)

// Client is a minimal sample dispatch HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// NewClient creates a client with sane defaults.
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: baseURL, Timeout: 10 * time.Second}
}

// APIError carries a non-2xx answer.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

func (c *Client) Register(ctx context.Context, name, phone, password string) (convert.RegisterResponse, error) {
	var resp convert.RegisterResponse
	err := c.do(ctx, http.MethodPost, "auth/register", convert.RegisterRequest{Name: name, Phone: phone, Password: password}, &resp)
	return resp, err
}

func (c *Client) Login(ctx context.Context, phone, password string) (convert.LoginResponse, error) {
	var resp convert.LoginResponse
	err := c.do(ctx, http.MethodPost, "auth/login", convert.LoginRequest{Phone: phone, Password: password}, &resp)
	return resp, err
}

func (c *Client) ListToday(ctx context.Context, agentID string) ([]convert.Sample, error) {
	var resp convert.SamplesResponse
	err := c.do(ctx, http.MethodGet, "samples/"+url.PathEscape(agentID), nil, &resp)
	return resp.Samples, err
}

func (c *Client) CreateSample(ctx context.Context, in convert.CreateSampleRequest) (convert.Sample, error) {
	var resp convert.SampleResponse
	err := c.do(ctx, http.MethodPost, "samples", in, &resp)
	return resp.Sample, err
}

func (c *Client) Collect(ctx context.Context, sampleID string) (convert.Sample, error) {
	var resp convert.SampleResponse
	err := c.do(ctx, http.MethodPatch, "samples/"+url.PathEscape(sampleID)+"/collect", nil, &resp)
	return resp.Sample, err
}

func (c *Client) ReportDelay(ctx context.Context, sampleID, reason string) (convert.Sample, error) {
	var resp convert.SampleResponse
	err := c.do(ctx, http.MethodPost, "samples/"+url.PathEscape(sampleID)+"/report-delay", convert.DelayRequest{Reason: reason}, &resp)
	return resp.Sample, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	target := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		var e convert.ErrorResponse
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(b))}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/") + "/api/v1"
}
