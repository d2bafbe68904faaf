package remote

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Defaults for the public CADD scoring service.
const (
	DefaultBaseURL = "https://cadd.gs.washington.edu"
	DefaultVersion = "GRCh38-v1.6"

	uploadPath = "/upload"

	// statusPageLimit bounds how much of an HTML status page is scanned
	// for job links.
	statusPageLimit = 1 << 20
)

var (
	// Finished results are linked as gzipped score tables; jobs still in
	// the queue get an availability-check link instead.
	resultLinkRe = regexp.MustCompile(`href="([^"]*finished/[^"]+\.tsv\.gz)"`)
	checkLinkRe  = regexp.MustCompile(`href="([^"]*check_avail/[^"]+\.tsv\.gz)"`)

	// Job IDs are 32 hex characters embedded in the result file name.
	jobIDRe = regexp.MustCompile(`_([a-f0-9]{32})`)
)

// Client talks to a CADD-style scoring service over HTTP.
type Client struct {
	baseURL string
	version string
	hc      *http.Client
}

// NewClient creates a scoring service client. Empty baseURL and version
// fall back to the public service defaults; a nil http.Client gets a
// long timeout suitable for large result downloads.
func NewClient(baseURL, version string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if version == "" {
		version = DefaultVersion
	}
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Minute}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), version: version, hc: hc}
}

// Submit uploads a gzipped variant batch. The service answers with an
// HTML page linking either the finished result (small jobs) or the
// availability check for a queued job.
func (c *Client) Submit(ctx context.Context, batch io.Reader, filename string) (Job, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("version", c.version); err != nil {
		return Job{}, fmt.Errorf("write form field: %w", err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Job{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(fw, batch); err != nil {
		return Job{}, fmt.Errorf("copy upload body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Job{}, fmt.Errorf("finalize upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, &body)
	if err != nil {
		return Job{}, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.hc.Do(req)
	if err != nil {
		return Job{}, fmt.Errorf("upload batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Job{}, fmt.Errorf("upload batch: HTTP error: %s", resp.Status)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, statusPageLimit))
	if err != nil {
		return Job{}, fmt.Errorf("read upload response: %w", err)
	}

	var job Job
	if m := resultLinkRe.FindSubmatch(page); m != nil {
		job.ResultURL = c.absoluteURL(string(m[1]))
	} else if m := checkLinkRe.FindSubmatch(page); m != nil {
		job.CheckURL = c.absoluteURL(string(m[1]))
	} else {
		return Job{}, fmt.Errorf("upload response contains no job link")
	}

	if m := jobIDRe.FindStringSubmatch(job.ResultURL + job.CheckURL); m != nil {
		job.ID = m[1]
	}
	return job, nil
}

// Result retrieves the finished result table. While the job is queued
// the availability check returns a plain status page, reported here as
// ErrNotReady. The caller owns the returned reader.
func (c *Client) Result(ctx context.Context, job Job) (io.ReadCloser, error) {
	if job.ResultURL != "" {
		return c.download(ctx, job.ResultURL)
	}
	if job.CheckURL == "" {
		return nil, fmt.Errorf("job has no result location")
	}

	resp, err := c.get(ctx, job.CheckURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, ErrNotReady
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("check job: HTTP error: %s", resp.Status)
	}

	// The check endpoint serves the gzipped result directly once ready.
	br := bufio.NewReader(resp.Body)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		return &bodyReader{r: br, c: resp.Body}, nil
	}

	page, err := io.ReadAll(io.LimitReader(br, statusPageLimit))
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read status page: %w", err)
	}
	if m := resultLinkRe.FindSubmatch(page); m != nil {
		return c.download(ctx, c.absoluteURL(string(m[1])))
	}
	return nil, ErrNotReady
}

func (c *Client) download(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, ErrNotReady
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download result: HTTP error: %s", resp.Status)
	}
	return resp.Body, nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return resp, nil
}

func (c *Client) absoluteURL(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	return c.baseURL + link
}

// bodyReader pairs a buffered reader with the response body it wraps,
// so peeked bytes are not lost.
type bodyReader struct {
	r io.Reader
	c io.Closer
}

func (b *bodyReader) Read(p []byte) (int, error) { return b.r.Read(p) }
func (b *bodyReader) Close() error               { return b.c.Close() }
