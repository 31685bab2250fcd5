package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client provides access to a ledger node's v1 api.
type Client struct {
	url  string
	http *http.Client
}

// ClientOption configures the client.
type ClientOption func(cln *Client)

// WithHTTPClient replaces the default http client.
func WithHTTPClient(http *http.Client) ClientOption {
	return func(cln *Client) {
		cln.http = http
	}
}

// NewClient constructs a client for the node at the specified root url.
func NewClient(rootURL string, options ...ClientOption) *Client {
	cln := Client{
		url: strings.TrimSuffix(rootURL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	for _, option := range options {
		option(&cln)
	}

	return &cln
}

// Send submits the fulfilled transaction and returns it as committed by the
// node.
func (cln *Client) Send(ctx context.Context, tx Tx) (Tx, error) {
	var committed Tx
	if err := cln.do(ctx, http.MethodPost, "/api/v1/transactions", tx, &committed); err != nil {
		return Tx{}, fmt.Errorf("send %s: %w", tx, err)
	}

	return committed, nil
}

// Transaction retrieves a committed transaction by id.
func (cln *Client) Transaction(ctx context.Context, id string) (Tx, error) {
	var tx Tx
	if err := cln.do(ctx, http.MethodGet, "/api/v1/transactions/"+url.PathEscape(id), nil, &tx); err != nil {
		return Tx{}, fmt.Errorf("transaction %s: %w", id, err)
	}

	return tx, nil
}

// AssetHistory retrieves the CREATE and every TRANSFER of the asset in
// commit order.
func (cln *Client) AssetHistory(ctx context.Context, assetID string) ([]Tx, error) {
	q := url.Values{}
	q.Set("asset_id", assetID)

	var txs []Tx
	if err := cln.do(ctx, http.MethodGet, "/api/v1/transactions?"+q.Encode(), nil, &txs); err != nil {
		return nil, fmt.Errorf("asset history %s: %w", assetID, err)
	}

	return txs, nil
}

// Outputs retrieves the outputs owned by the public key. A nil spent
// returns every output.
func (cln *Client) Outputs(ctx context.Context, publicKey string, spent *bool) ([]OutputRef, error) {
	q := url.Values{}
	q.Set("public_key", publicKey)
	if spent != nil {
		q.Set("spent", strconv.FormatBool(*spent))
	}

	var refs []OutputRef
	if err := cln.do(ctx, http.MethodGet, "/api/v1/outputs?"+q.Encode(), nil, &refs); err != nil {
		return nil, fmt.Errorf("outputs %s: %w", publicKey, err)
	}

	return refs, nil
}

// =============================================================================

func (cln *Client) do(ctx context.Context, method string, endpoint string, body any, v any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, cln.url+endpoint, r)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := cln.http.Do(req)
	if err != nil {
		return fmt.Errorf("do: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := Error{Status: resp.StatusCode}
		if err := json.Unmarshal(data, &apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return &apiErr
	}

	if v == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding: %w", err)
	}

	return nil
}

// =============================================================================

// Error is returned when the node responds with a failure status.
type Error struct {
	Status  int               `json:"-"`
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("ledger node: %d: %s", e.Status, e.Message)
}

// Unwrap maps the status back to the package sentinel errors so callers can
// use errors.Is.
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return ErrInvalidTx
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrDuplicate
	case http.StatusUnprocessableEntity:
		return ErrSpent
	}
	return nil
}
