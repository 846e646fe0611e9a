package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"PubMedScanner/internal/domain"
	"PubMedScanner/internal/ports"
)

const (
	defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	dateLayout     = "2006/01/02"
)

// Client talks to the NCBI eutils endpoints: esearch for id discovery
// and efetch for raw record payloads.
type Client struct {
	baseURL string
	client  *http.Client
}

var _ ports.ArticleSearcher = (*Client)(nil)
var _ ports.RecordFetcher = (*Client)(nil)

// NewClient wires an HTTP client; baseURL defaults to the public eutils host.
func NewClient(baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

// Search runs esearch and returns the id list in source order.
func (c *Client) Search(ctx context.Context, query domain.SearchQuery) ([]string, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", BuildTerm(query))
	params.Set("retmax", strconv.Itoa(query.MaxResults))
	params.Set("retmode", "json")
	params.Set("sort", "pub_date")

	body, err := c.get(ctx, "esearch.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("esearch: %w", err)
	}

	var payload struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode esearch response: %w", err)
	}

	return payload.ESearchResult.IDList, nil
}

// FetchChunk runs efetch for one comma-joined id batch and returns the
// raw XML payload.
func (c *Client) FetchChunk(ctx context.Context, ids []string) ([]byte, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "xml")

	body, err := c.get(ctx, "efetch.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("efetch: %w", err)
	}
	return body, nil
}

// BuildTerm renders the esearch term: a quoted journal OR-group
// conjoined with a publication-date range.
func BuildTerm(q domain.SearchQuery) string {
	terms := make([]string, 0, len(q.Journals))
	for _, journal := range q.Journals {
		terms = append(terms, fmt.Sprintf("%q[Journal]", journal))
	}

	return fmt.Sprintf("(%s) AND %s:%s[PDAT]",
		strings.Join(terms, " OR "),
		q.From.Format(dateLayout),
		q.To.Format(dateLayout))
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "PubMedScanner/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pubmed returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return body, nil
}
