// Package pocketbase is a small REST client for the PocketBase records,
// auth and collections APIs.
package pocketbase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const fullListBatch = 500

type Client struct {
	baseURL       string
	httpClient    *http.Client
	adminEmail    string
	adminPassword string

	mu    sync.Mutex
	token string
}

func NewClient(baseURL, adminEmail, adminPassword string) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
	}
}

// WithHTTPClient replaces the underlying http client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.httpClient = h
	return c
}

// Error is a non-2xx answer from PocketBase.
type Error struct {
	Status  int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func (e *Error) Error() string {
	if len(e.Data) > 0 {
		b, _ := json.Marshal(e.Data)
		return fmt.Sprintf("pocketbase error %d: %s %s", e.Status, e.Message, b)
	}
	return fmt.Sprintf("pocketbase error %d: %s", e.Status, e.Message)
}

func IsNotFound(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Status == http.StatusNotFound
}

type ListOptions struct {
	Filter string
	Sort   string
	Expand string
	Fields string
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Filter != "" {
		q.Set("filter", o.Filter)
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	if o.Expand != "" {
		q.Set("expand", o.Expand)
	}
	if o.Fields != "" {
		q.Set("fields", o.Fields)
	}
	return q
}

type ListResult struct {
	Page       int              `json:"page"`
	PerPage    int              `json:"perPage"`
	TotalItems int              `json:"totalItems"`
	TotalPages int              `json:"totalPages"`
	Items      []map[string]any `json:"items"`
}

type AuthResult struct {
	Token  string         `json:"token"`
	Record map[string]any `json:"record"`
}

func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return c.httpClient.Do(req)
}

func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		pe := &Error{Status: resp.StatusCode}
		if err := json.Unmarshal(body, pe); err != nil || pe.Message == "" {
			pe.Message = strings.TrimSpace(string(body))
		}
		pe.Status = resp.StatusCode
		return pe
	}
	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// AdminAuth returns a cached admin token, authenticating when needed. Older
// servers expose /api/admins, newer ones the _superusers collection.
func (c *Client) AdminAuth(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}
	if c.adminEmail == "" {
		return "", errors.New("pocketbase admin credentials not configured")
	}

	creds := map[string]string{"identity": c.adminEmail, "password": c.adminPassword}
	var out AuthResult
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/admins/auth-with-password", nil, creds, "")
	if err != nil {
		return "", err
	}
	err = decodeResponse(resp, &out)
	if IsNotFound(err) {
		resp, err = c.doRequest(ctx, http.MethodPost, "/api/collections/_superusers/auth-with-password", nil, creds, "")
		if err != nil {
			return "", err
		}
		err = decodeResponse(resp, &out)
	}
	if err != nil {
		return "", fmt.Errorf("admin auth: %w", err)
	}
	c.token = out.Token
	return c.token, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// send runs an admin request, re-authenticating once on 401.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, target any) error {
	for attempt := 0; ; attempt++ {
		token, err := c.AdminAuth(ctx)
		if err != nil {
			return err
		}
		resp, err := c.doRequest(ctx, method, path, query, body, token)
		if err != nil {
			return err
		}
		err = decodeResponse(resp, target)
		var pe *Error
		if attempt == 0 && errors.As(err, &pe) && pe.Status == http.StatusUnauthorized {
			c.resetToken()
			continue
		}
		return err
	}
}

func recordsPath(collection string) string {
	return "/api/collections/" + url.PathEscape(collection) + "/records"
}

func (c *Client) GetList(ctx context.Context, collection string, page, perPage int, opts ListOptions) (*ListResult, error) {
	q := opts.values()
	q.Set("page", strconv.Itoa(page))
	q.Set("perPage", strconv.Itoa(perPage))

	var out ListResult
	if err := c.send(ctx, http.MethodGet, recordsPath(collection), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetFullList pages through the collection until every record is read.
func (c *Client) GetFullList(ctx context.Context, collection string, opts ListOptions) ([]map[string]any, error) {
	var items []map[string]any
	for page := 1; ; page++ {
		q := opts.values()
		q.Set("page", strconv.Itoa(page))
		q.Set("perPage", strconv.Itoa(fullListBatch))
		q.Set("skipTotal", "1")

		var out ListResult
		if err := c.send(ctx, http.MethodGet, recordsPath(collection), q, nil, &out); err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if len(out.Items) < fullListBatch {
			return items, nil
		}
	}
}

func (c *Client) GetOne(ctx context.Context, collection, id string, opts ListOptions) (map[string]any, error) {
	q := url.Values{}
	if opts.Expand != "" {
		q.Set("expand", opts.Expand)
	}
	if opts.Fields != "" {
		q.Set("fields", opts.Fields)
	}
	var out map[string]any
	if err := c.send(ctx, http.MethodGet, recordsPath(collection)+"/"+url.PathEscape(id), q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetFirstListItem returns the first record matching the filter or a 404
// *Error when none does.
func (c *Client) GetFirstListItem(ctx context.Context, collection, filter string, opts ListOptions) (map[string]any, error) {
	opts.Filter = filter
	q := opts.values()
	q.Set("page", "1")
	q.Set("perPage", "1")
	q.Set("skipTotal", "1")

	var out ListResult
	if err := c.send(ctx, http.MethodGet, recordsPath(collection), q, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, &Error{Status: http.StatusNotFound, Message: "The requested resource wasn't found."}
	}
	return out.Items[0], nil
}

func (c *Client) Create(ctx context.Context, collection string, body map[string]any, opts ListOptions) (map[string]any, error) {
	var out map[string]any
	if err := c.send(ctx, http.MethodPost, recordsPath(collection), opts.values(), body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, collection, id string, body map[string]any, opts ListOptions) (map[string]any, error) {
	var out map[string]any
	if err := c.send(ctx, http.MethodPatch, recordsPath(collection)+"/"+url.PathEscape(id), opts.values(), body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	return c.send(ctx, http.MethodDelete, recordsPath(collection)+"/"+url.PathEscape(id), nil, nil, nil)
}

// AuthWithPassword authenticates a record of an auth collection. It does not
// use the admin token.
func (c *Client) AuthWithPassword(ctx context.Context, collection, identity, password string) (*AuthResult, error) {
	body := map[string]string{"identity": identity, "password": password}
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/collections/"+url.PathEscape(collection)+"/auth-with-password", nil, body, "")
	if err != nil {
		return nil, err
	}
	var out AuthResult
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RequestPasswordReset(ctx context.Context, collection, email string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/collections/"+url.PathEscape(collection)+"/request-password-reset", nil, map[string]string{"email": email}, "")
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}
