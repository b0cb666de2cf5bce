package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Kind tags which variant of Result is populated
type Kind int

const (
	KindEmpty Kind = iota
	KindJSON
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindText:
		return "text"
	default:
		return "empty"
	}
}

// Result is the interpreted body of a successful response.
// Exactly one of JSON or Text is set, according to Kind; KindEmpty carries neither.
type Result struct {
	Kind Kind
	JSON json.RawMessage
	Text string
}

// ErrNotJSON is returned by Decode when the result did not carry a JSON body
var ErrNotJSON = errors.New("response body is not JSON")

// Decode unmarshals a KindJSON result into v
func (r Result) Decode(v any) error {
	if r.Kind != KindJSON {
		return fmt.Errorf("%w (kind=%s)", ErrNotJSON, r.Kind)
	}
	return json.Unmarshal(r.JSON, v)
}

// Interpret classifies a response. Non-2xx statuses become APIError; success
// bodies become Empty, JSON or Text. A body labelled JSON that does not parse
// is returned as Text rather than failing the call.
// The caller owns resp.Body and must close it.
func Interpret(resp *http.Response) (Result, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// An unreadable error body still yields an APIError
		var body string
		if b, err := io.ReadAll(resp.Body); err == nil {
			body = string(b)
		}
		return Result{}, newAPIError(resp.StatusCode, body)
	}

	contentType := resp.Header.Get("Content-Type")

	if resp.StatusCode == http.StatusNoContent {
		return Result{Kind: KindEmpty}, nil
	}
	if resp.StatusCode == http.StatusCreated && (contentType == "" || declaredEmpty(resp)) {
		return Result{Kind: KindEmpty}, nil
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(b) == 0 {
		return Result{Kind: KindEmpty}, nil
	}

	if strings.Contains(strings.ToLower(contentType), "application/json") {
		if json.Valid(b) {
			return Result{Kind: KindJSON, JSON: json.RawMessage(b)}, nil
		}
		return Result{Kind: KindText, Text: string(b)}, nil
	}

	return Result{Kind: KindText, Text: string(b)}, nil
}

func declaredEmpty(resp *http.Response) bool {
	return resp.Header.Get("Content-Length") == "0" || resp.ContentLength == 0
}
