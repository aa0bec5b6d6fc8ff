package gdc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"immunoscope/domain/core"
	"immunoscope/domain/expression"
	"immunoscope/internal"

	"github.com/tidwall/gjson"
)

// hitFields are the file and case attributes requested from /files
var hitFields = []string{
	"file_id",
	"file_name",
	"cases.case_id",
	"cases.submitter_id",
	"cases.demographic.vital_status",
	"cases.samples.submitter_id",
	"cases.samples.portions.analytes.aliquots.submitter_id",
}

// FileHit is one expression file matched by a cohort query
type FileHit struct {
	FileID      string
	FileName    string
	CaseID      string
	CaseBarcode string
	SampleID    string
	AliquotID   string
	VitalStatus expression.VitalStatus
}

// PatientID is the aliquot barcode, falling back to the sample and then the
// case barcode. A sample sequenced twice yields two aliquots, hence two columns.
func (h FileHit) PatientID() core.PatientID {
	if h.AliquotID != "" {
		return core.PatientID(h.AliquotID)
	}
	if h.SampleID != "" {
		return core.PatientID(h.SampleID)
	}
	return core.PatientID(h.CaseBarcode)
}

// Client talks to the GDC REST API
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *internal.Logger
}

// NewClient creates a GDC API client
func NewClient(config Config, logger *internal.Logger) *Client {
	if logger == nil {
		logger = internal.Discard
	}
	if config.PageSize <= 0 {
		config.PageSize = DefaultConfig().PageSize
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

type filter struct {
	Op      string      `json:"op"`
	Content interface{} `json:"content"`
}

type fieldValues struct {
	Field string   `json:"field"`
	Value []string `json:"value"`
}

type filesRequest struct {
	Filters filter `json:"filters"`
	Fields  string `json:"fields"`
	Format  string `json:"format"`
	Sort    string `json:"sort"`
	From    int    `json:"from"`
	Size    int    `json:"size"`
}

func buildFilters(q expression.CohortQuery) filter {
	in := func(field, value string) filter {
		return filter{Op: "in", Content: fieldValues{Field: field, Value: []string{value}}}
	}
	clauses := []filter{
		in("cases.project.project_id", q.ProjectID),
		in("access", "open"),
	}
	if q.DataCategory != "" {
		clauses = append(clauses, in("data_category", q.DataCategory))
	}
	if q.DataType != "" {
		clauses = append(clauses, in("data_type", q.DataType))
	}
	if q.WorkflowType != "" {
		clauses = append(clauses, in("analysis.workflow_type", q.WorkflowType))
	}
	return filter{Op: "and", Content: clauses}
}

// SearchFiles lists the files matching the query, sorted by file name. With a
// row limit only the first RowLimit hits are returned.
func (c *Client) SearchFiles(ctx context.Context, q expression.CohortQuery) ([]FileHit, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/files"
	pageSize := c.config.PageSize
	if q.Limited() && q.RowLimit < pageSize {
		pageSize = q.RowLimit
	}

	var hits []FileHit
	from := 0
	for {
		body, err := json.Marshal(filesRequest{
			Filters: buildFilters(q),
			Fields:  strings.Join(hitFields, ","),
			Format:  "JSON",
			Sort:    "file_name:asc",
			From:    from,
			Size:    pageSize,
		})
		if err != nil {
			return nil, core.NewRetrievalError(endpoint, err)
		}

		start := time.Now()
		payload, err := c.post(ctx, endpoint, body)
		if err != nil {
			return nil, err
		}

		page := parseHits(payload)
		hits = append(hits, page...)
		total := int(gjson.GetBytes(payload, "data.pagination.total").Int())
		c.logger.Debug("GDC files page from=%d size=%d got=%d total=%d in %v", from, pageSize, len(page), total, time.Since(start))

		if q.Limited() && len(hits) >= q.RowLimit {
			hits = hits[:q.RowLimit]
			break
		}
		if len(page) == 0 || len(hits) >= total {
			break
		}
		from += len(page)
	}

	c.logger.Info("GDC query %s matched %d files", q.ProjectID, len(hits))
	return hits, nil
}

func parseHits(payload []byte) []FileHit {
	var hits []FileHit
	gjson.GetBytes(payload, "data.hits").ForEach(func(_, hit gjson.Result) bool {
		hits = append(hits, FileHit{
			FileID:      hit.Get("file_id").String(),
			FileName:    hit.Get("file_name").String(),
			CaseID:      hit.Get("cases.0.case_id").String(),
			CaseBarcode: hit.Get("cases.0.submitter_id").String(),
			SampleID:    hit.Get("cases.0.samples.0.submitter_id").String(),
			AliquotID:   hit.Get("cases.0.samples.0.portions.0.analytes.0.aliquots.0.submitter_id").String(),
			VitalStatus: expression.VitalStatus(hit.Get("cases.0.demographic.vital_status").String()),
		})
		return true
	})
	return hits
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, core.NewRetrievalError(endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.NewRetrievalError(endpoint, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewRetrievalError(endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, core.NewRetrievalError(endpoint,
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(payload), 200)))
	}
	if !gjson.ValidBytes(payload) {
		return nil, core.NewRetrievalError(endpoint, fmt.Errorf("response is not valid JSON"))
	}
	return payload, nil
}

// CachePath is where a downloaded file is stored locally
func (c *Client) CachePath(project string, hit FileHit) string {
	name := hit.FileName
	if name == "" {
		name = hit.FileID + ".tsv"
	}
	return filepath.Join(c.config.CacheDir, project, hit.FileID, filepath.Base(name))
}

// Download fetches one file into the cache, reusing a previous download
func (c *Client) Download(ctx context.Context, project string, hit FileHit) (string, error) {
	dest := c.CachePath(project, hit)
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		c.logger.Trace("cache hit %s", dest)
		return dest, nil
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/data/" + hit.FileID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", core.NewRetrievalError(endpoint, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", core.NewRetrievalError(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", core.NewRetrievalError(endpoint, fmt.Errorf("status %d: %s", resp.StatusCode, msg))
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", core.NewRetrievalError(endpoint, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return "", core.NewRetrievalError(endpoint, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", core.NewRetrievalError(endpoint, err)
	}
	if err := tmp.Close(); err != nil {
		return "", core.NewRetrievalError(endpoint, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", core.NewRetrievalError(endpoint, err)
	}

	c.logger.Debug("downloaded %s -> %s", hit.FileID, dest)
	return dest, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
