package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/shadow7/omnichunk/pkg/chunk"
	"github.com/shadow7/omnichunk/pkg/intake"
)

// Client is a client for the chunking API
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new chunking API client
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
	}
}

// SplitOptions overrides the server side chunk sizes. Nil fields keep the
// server defaults.
type SplitOptions struct {
	MaxChunkSize *int
	OverlapSize  *int
}

// Int returns a pointer to v, for the optional fields of SplitOptions.
func Int(v int) *int {
	return &v
}

// Split splits text into chunks
func (c *Client) Split(text string, opts SplitOptions) ([]chunk.Chunk, error) {
	type request struct {
		Text         string `json:"text"`
		MaxChunkSize *int   `json:"max_chunk_size,omitempty"`
		OverlapSize  *int   `json:"overlap_size,omitempty"`
	}

	r := request{Text: text, MaxChunkSize: opts.MaxChunkSize, OverlapSize: opts.OverlapSize}

	var chunks []chunk.Chunk
	if err := c.postJSON("/api/chunks/split", r, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// Merge reassembles edited chunks
func (c *Client) Merge(editedTexts []string) (string, error) {
	type request struct {
		Chunks []string `json:"chunks"`
	}

	var response struct {
		Text string `json:"text"`
	}
	if err := c.postJSON("/api/chunks/merge", request{Chunks: editedTexts}, &response); err != nil {
		return "", err
	}
	return response.Text, nil
}

// Validate compares the word counts of original and edited. A negative
// tolerance keeps the server default.
func (c *Client) Validate(original, edited string, tolerancePercent float64) (*chunk.LengthReport, error) {
	type request struct {
		Original         string   `json:"original"`
		Edited           string   `json:"edited"`
		TolerancePercent *float64 `json:"tolerance_percent,omitempty"`
	}

	r := request{Original: original, Edited: edited}
	if tolerancePercent >= 0 {
		r.TolerancePercent = &tolerancePercent
	}

	report := new(chunk.LengthReport)
	if err := c.postJSON("/api/chunks/validate", r, report); err != nil {
		return nil, err
	}
	return report, nil
}

// CountWords counts the words of text
func (c *Client) CountWords(text string) (int, error) {
	type request struct {
		Text string `json:"text"`
	}

	var response struct {
		Words int `json:"words"`
	}
	if err := c.postJSON("/api/words/count", request{Text: text}, &response); err != nil {
		return 0, err
	}
	return response.Words, nil
}

// Intake uploads the files of one manuscript, in order
func (c *Client) Intake(filePaths ...string) (*intake.Manuscript, error) {
	url := fmt.Sprintf("%s/api/manuscripts/intake", c.BaseURL)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, path := range filePaths {
		if err := addFile(writer, path); err != nil {
			return nil, err
		}
	}

	err := writer.Close()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	manuscript := new(intake.Manuscript)
	if err := c.do(req, manuscript); err != nil {
		return nil, err
	}
	return manuscript, nil
}

func addFile(writer *multipart.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	part, err := writer.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return err
	}

	_, err = io.Copy(part, file)
	return err
}

func (c *Client) postJSON(path string, payload, out any) error {
	url := fmt.Sprintf("%s%s", c.BaseURL, path)

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// do sends req and decodes a JSON response into out. Non-2xx responses
// become errors carrying the server message.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}
