package capture

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// Archive is the top-level HAR structure.
type Archive struct {
	Log Log `json:"log"`
}

// Log holds the HAR metadata and entries.
type Log struct {
	Version string  `json:"version"`
	Creator Creator `json:"creator"`
	Entries []Entry `json:"entries"`
}

// Creator identifies the tool that generated the archive.
type Creator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Entry is a single request/response pair.
type Entry struct {
	StartedDateTime string   `json:"startedDateTime"`
	Request         Request  `json:"request"`
	Response        Response `json:"response"`
	Comment         string   `json:"comment,omitempty"`
}

// Request is the recorded HTTP request.
type Request struct {
	Method   string    `json:"method"`
	URL      string    `json:"url"`
	Headers  []Header  `json:"headers"`
	PostData *PostData `json:"postData,omitempty"`
}

// Response is the recorded HTTP response.
type Response struct {
	Status     int      `json:"status"`
	StatusText string   `json:"statusText"`
	Headers    []Header `json:"headers"`
	Content    Content  `json:"content"`
}

// Content is the recorded response body.
type Content struct {
	Size     int    `json:"size"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text,omitempty"`
	Encoding string `json:"encoding,omitempty"`
}

// PostData is the recorded request body.
type PostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// Header is a single HTTP header.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Load reads and parses a capture file.
func Load(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}
	archive, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse capture %s: %w", path, err)
	}
	return archive, nil
}

// Parse decodes a HAR document, tolerating JSONC comments and trailing
// commas.
func Parse(data []byte) (*Archive, error) {
	var archive Archive
	if err := json.Unmarshal(jsonc.ToJSON(data), &archive); err != nil {
		return nil, err
	}
	if archive.Log.Entries == nil {
		return nil, errors.New("missing log.entries")
	}
	return &archive, nil
}

// Body returns the decoded response body bytes.
func (c Content) Body() ([]byte, error) {
	if strings.EqualFold(c.Encoding, "base64") {
		body, err := base64.StdEncoding.DecodeString(c.Text)
		if err != nil {
			return nil, fmt.Errorf("decode base64 body: %w", err)
		}
		return body, nil
	}
	return []byte(c.Text), nil
}
