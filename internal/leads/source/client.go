// Package source fetches raw lead records from the external tabular
// lead feed. Each source category is fetched independently with its
// own timeout; a failed category yields an empty record list so the
// other categories keep flowing.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"crm_dashboard_backend/internal/leads/domain"
	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/phone"

	"golang.org/x/sync/errgroup"
)

// stableIDKeys are checked in order when deriving a record's identity.
// A stable upstream key survives row reordering between refreshes;
// positional fallback ids do not, and silently orphan overlay entries.
var stableIDKeys = []string{"id", "lead_id", "leadId", "uuid", "ref"}

// Config configures the lead source client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the external lead feed over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func NewClient(cfg Config, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// FetchCategory retrieves the raw rows of one source category and
// converts them to lead records.
func (c *Client) FetchCategory(ctx context.Context, category domain.SourceCategory) ([]domain.LeadRecord, error) {
	endpoint := fmt.Sprintf("%s/leads/%s", c.baseURL, url.PathEscape(string(category)))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create lead source request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("lead source request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return nil, fmt.Errorf("lead source returned status %d: %s", response.StatusCode, string(body))
	}

	var rows []map[string]any
	if err := json.NewDecoder(response.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode lead source response: %w", err)
	}

	records := make([]domain.LeadRecord, 0, len(rows))
	for i, row := range rows {
		records = append(records, recordFromRow(category, i, row))
	}
	return records, nil
}

// FetchAll fetches every source category concurrently. Categories that
// fail are logged and contribute an empty list; FetchAll itself never
// fails.
func (c *Client) FetchAll(ctx context.Context) map[domain.SourceCategory][]domain.LeadRecord {
	categories := domain.AllSources()
	results := make([][]domain.LeadRecord, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	for i, category := range categories {
		i, category := i, category
		g.Go(func() error {
			records, err := c.FetchCategory(gctx, category)
			if err != nil {
				c.log.SourceFetchError(string(category), err)
				results[i] = nil
				return nil
			}
			results[i] = records
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[domain.SourceCategory][]domain.LeadRecord, len(categories))
	for i, category := range categories {
		out[category] = results[i]
	}
	return out
}

// Flatten joins a category map into one record list with a stable
// category order, so positional fallback ids do not shuffle between
// refreshes of unchanged data.
func Flatten(byCategory map[domain.SourceCategory][]domain.LeadRecord) []domain.LeadRecord {
	var total int
	for _, records := range byCategory {
		total += len(records)
	}
	flat := make([]domain.LeadRecord, 0, total)
	for _, category := range domain.AllSources() {
		flat = append(flat, byCategory[category]...)
	}
	return flat
}

// recordFromRow converts one dynamic-column row into a lead record.
// Column names are discovered from the row itself; phone-like fields
// are normalized to E.164 where possible.
func recordFromRow(category domain.SourceCategory, index int, row map[string]any) domain.LeadRecord {
	fields := make(map[string]string, len(row))
	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := stringify(row[key])
		if value == "" {
			continue
		}
		if phone.IsPhoneField(key) {
			value = phone.NormalizeE164(value)
		}
		fields[key] = value
	}

	return domain.LeadRecord{
		ID:     deriveID(category, index, fields),
		Source: category,
		Fields: fields,
	}
}

func deriveID(category domain.SourceCategory, index int, fields map[string]string) string {
	for _, key := range stableIDKeys {
		if v, ok := fields[key]; ok && strings.TrimSpace(v) != "" {
			return fmt.Sprintf("%s-%s", category, strings.TrimSpace(v))
		}
	}
	return fmt.Sprintf("%s-%d", category, index)
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}
