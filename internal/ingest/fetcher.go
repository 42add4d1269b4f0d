// Package ingest pulls postings from the upstream job board into the local
// store on a schedule, with a rate-limited manual trigger for on-demand runs.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Frankanator8/jobfinder/internal/model"
)

const (
	boardPageSize = 50
	boardMaxPages = 5
	httpTimeout   = 15 * time.Second
)

// BoardFetcher fetches postings from the job board REST API. BaseURL is
// injectable so tests can point it at a local server.
type BoardFetcher struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

// NewBoardFetcher constructs a fetcher with a shared HTTP client.
func NewBoardFetcher(baseURL, apiKey string) *BoardFetcher {
	return &BoardFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// boardResponse mirrors the top-level board JSON response.
type boardResponse struct {
	Jobs []boardJob `json:"jobs"`
}

// boardJob mirrors a single board listing.
type boardJob struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company_name"`
	Location    string `json:"location"`
	Salary      string `json:"salary"`
	Description string `json:"description"`
	Category    string `json:"category"`
	JobType     string `json:"job_type"`
	WorkType    string `json:"work_type"`
	URL         string `json:"url"`
	ApplyURL    string `json:"apply_url"`
	CompanyLogo string `json:"company_logo"`
	Published   string `json:"publication_date"`
}

// Fetch retrieves postings for one category, iterating through pages until
// a short page or boardMaxPages is reached. Returns nil without error when
// no API key is configured.
func (f *BoardFetcher) Fetch(ctx context.Context, category string) ([]model.Job, error) {
	if f.APIKey == "" {
		log.Println("[ingest] BOARD_API_KEY not set — skipping fetch")
		return nil, nil
	}

	var jobs []model.Job

	for page := 1; page <= boardMaxPages; page++ {
		batch, err := f.fetchPage(ctx, category, page)
		if err != nil {
			return jobs, fmt.Errorf("page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}
		jobs = append(jobs, batch...)
		if len(batch) < boardPageSize {
			break // Last page
		}
	}

	return jobs, nil
}

func (f *BoardFetcher) fetchPage(ctx context.Context, category string, page int) ([]model.Job, error) {
	params := url.Values{}
	params.Set("api_key", f.APIKey)
	params.Set("limit", strconv.Itoa(boardPageSize))
	params.Set("page", strconv.Itoa(page))
	if category != "" {
		params.Set("category", category)
	}

	reqURL := f.BaseURL + "/jobs?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("board returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp boardResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	jobs := make([]model.Job, 0, len(apiResp.Jobs))
	for _, r := range apiResp.Jobs {
		id := r.ID
		if id == "" {
			id = uuid.NewString()
		}
		jobs = append(jobs, model.Job{
			ID:           id,
			Title:        r.Title,
			Organization: r.Company,
			Location:     r.Location,
			Compensation: r.Salary,
			Description:  r.Description,
			Category:     r.Category,
			PostingType:  r.JobType,
			WorkType:     r.WorkType,
			URL:          r.URL,
			DirectURL:    r.ApplyURL,
			Logo:         r.CompanyLogo,
			PostedAt:     parsePostedAt(r.Published),
		})
	}

	return jobs, nil
}

// postedAtFormats lists the timestamp shapes boards have been seen to emit.
var postedAtFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parsePostedAt returns nil when the raw value is missing or unparseable;
// postings with an unknown age stay in the feed regardless of age filters.
func parsePostedAt(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range postedAtFormats {
		if ts, err := time.Parse(layout, raw); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	return nil
}
