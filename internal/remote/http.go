package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/taskpad/taskpad/internal/logger"
)

// HTTPStore talks to the taskpad document-store server. Realtime
// subscriptions are emulated by polling the query endpoint; the server side
// is plain request/response.
type HTTPStore struct {
	baseURL      string
	token        string
	pollInterval time.Duration
	httpClient   *http.Client
}

// NewHTTPStore creates a store client for the given server and session token.
func NewHTTPStore(baseURL, token string) *HTTPStore {
	return &HTTPStore{
		baseURL:      baseURL,
		token:        token,
		pollInterval: DefaultPollInterval,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SetPollInterval overrides how often subscriptions re-query the server.
func (s *HTTPStore) SetPollInterval(d time.Duration) {
	if d > 0 {
		s.pollInterval = d
	}
}

func (s *HTTPStore) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	reqURL := s.baseURL + path
	logger.Debug("HTTP Request", logger.F("method", method), logger.F("url", reqURL))

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Error("HTTP request failed", logger.F("error", err), logger.F("url", reqURL))
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	logger.Debug("HTTP Response", logger.F("status", resp.StatusCode), logger.F("url", reqURL))

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error: %s", string(respBody))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

var errNotFound = fmt.Errorf("not found")

func collectionPath(collection string) string {
	return "/api/v1/docs/" + url.PathEscape(collection)
}

func documentPath(collection, id string) string {
	return collectionPath(collection) + "/" + url.PathEscape(id)
}

func queryPath(collection string, filters []Filter, order Order) string {
	q := url.Values{}
	for _, f := range filters {
		q.Add("filter", fmt.Sprintf("%s:%v", f.Field, f.Value))
	}
	if order.Field != "" {
		q.Set("order", order.Field)
		dir := "asc"
		if order.Desc {
			dir = "desc"
		}
		q.Set("dir", dir)
	}
	if len(q) == 0 {
		return collectionPath(collection)
	}
	return collectionPath(collection) + "?" + q.Encode()
}

// Get returns the document with the given id, or nil if absent.
func (s *HTTPStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var doc Document
	err := s.do(ctx, http.MethodGet, documentPath(collection, id), nil, &doc)
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Query returns the full ordered matching set.
func (s *HTTPStore) Query(ctx context.Context, collection string, filters []Filter, order Order) ([]Document, error) {
	var result struct {
		Documents []Document `json:"documents"`
	}
	if err := s.do(ctx, http.MethodGet, queryPath(collection, filters, order), nil, &result); err != nil {
		return nil, err
	}
	return result.Documents, nil
}

// Subscribe opens a polling subscription over Query.
func (s *HTTPStore) Subscribe(ctx context.Context, collection string, filters []Filter, order Order, onSnapshot func([]Document)) (Subscription, error) {
	return subscribeByPolling(ctx, s, s.pollInterval, collection, filters, order, onSnapshot)
}

// Create persists a new document; the server assigns id and timestamp.
func (s *HTTPStore) Create(ctx context.Context, collection string, fields map[string]any) (*Document, error) {
	var doc Document
	body := map[string]any{"fields": fields}
	if err := s.do(ctx, http.MethodPost, collectionPath(collection), body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Update overwrites the named fields of an existing document.
func (s *HTTPStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	body := map[string]any{"fields": fields}
	err := s.do(ctx, http.MethodPatch, documentPath(collection, id), body, nil)
	if err == errNotFound {
		return nil
	}
	return err
}

// Delete removes a document. Deleting an absent document is not an error.
func (s *HTTPStore) Delete(ctx context.Context, collection, id string) error {
	err := s.do(ctx, http.MethodDelete, documentPath(collection, id), nil, nil)
	if err == errNotFound {
		return nil
	}
	return err
}
