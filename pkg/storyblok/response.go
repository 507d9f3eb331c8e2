package storyblok

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Body is a response payload. It is structured when the payload decoded as
// JSON and raw otherwise. A raw body is not an error.
type Body struct {
	raw        []byte
	value      any
	structured bool
}

// NewBody decodes data as JSON. Numbers are kept as json.Number so large ids
// survive unchanged.
func NewBody(data []byte) Body {
	body := Body{raw: data}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return body
	}

	// Trailing data means the payload was not a single JSON document.
	if _, err := dec.Token(); err != io.EOF {
		return body
	}

	body.value = value
	body.structured = true

	return body
}

// Structured returns the decoded payload and true, or nil and false for a raw
// body.
func (b Body) Structured() (any, bool) {
	return b.value, b.structured
}

// IsStructured reports whether the payload decoded as JSON.
func (b Body) IsStructured() bool {
	return b.structured
}

// Raw returns the payload as received.
func (b Body) Raw() string {
	return string(b.raw)
}

// Bytes returns the payload as received.
func (b Body) Bytes() []byte {
	return b.raw
}

// Map returns the payload when it is a JSON object and an empty map otherwise.
func (b Body) Map() map[string]any {
	if m, ok := b.value.(map[string]any); ok {
		return m
	}

	return map[string]any{}
}

// Get returns a top level field of an object payload.
func (b Body) Get(key string) (any, bool) {
	m, ok := b.value.(map[string]any)
	if !ok {
		return nil, false
	}

	v, ok := m[key]

	return v, ok
}

// Decode unmarshals the payload into v.
func (b Body) Decode(v any) error {
	if !b.structured {
		return fmt.Errorf("%w: body is not JSON", ErrBodyNotStructured)
	}

	err := json.Unmarshal(b.raw, v)
	if err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}

	return nil
}

// MarshalJSON emits the structured payload, or the raw payload as a string.
func (b Body) MarshalJSON() ([]byte, error) {
	if b.structured {
		return json.Marshal(b.value)
	}

	return json.Marshal(string(b.raw))
}

// MarshalYAML emits the structured payload, or the raw payload as a string.
func (b Body) MarshalYAML() (interface{}, error) {
	if b.structured {
		return plainNumbers(b.value), nil
	}

	return string(b.raw), nil
}

// plainNumbers replaces json.Number with int64 or float64 so YAML encoders
// do not quote them.
func plainNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}

		if f, err := t.Float64(); err == nil {
			return f
		}

		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = plainNumbers(item)
		}

		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plainNumbers(item)
		}

		return out
	default:
		return v
	}
}

// Response is the normalized result of one API call.
type Response struct {
	StatusCode int         `json:"status_code" yaml:"status_code"`
	Headers    http.Header `json:"headers"     yaml:"headers"`
	Body       Body        `json:"body"        yaml:"body"`
}

// NewResponse builds a response from its parts. Headers are copied.
func NewResponse(statusCode int, headers http.Header, data []byte) *Response {
	h := headers.Clone()
	if h == nil {
		h = http.Header{}
	}

	return &Response{
		StatusCode: statusCode,
		Headers:    h,
		Body:       NewBody(data),
	}
}

// FromHTTP reads and closes resp.Body and normalizes the response.
func FromHTTP(resp *http.Response) (*Response, error) {
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return NewResponse(resp.StatusCode, resp.Header, data), nil
}

// Header returns the first value of a response header.
func (r *Response) Header(name string) string {
	if r == nil {
		return ""
	}

	return r.Headers.Get(name)
}
