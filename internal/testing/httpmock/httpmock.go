// package httpmock contains shared HTTP testing utilities
package httpmock

import (
	"bytes"
	"io"
	"net/http"
)

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	Responses []*http.Response
	Err       error
	Requests  []*http.Request
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	rt := &MockRoundTripper{Err: e}
	if r != nil {
		rt.Responses = []*http.Response{r}
	}
	return rt
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return JSONResponse(200, "{}"), nil
	}
	resp := m.Responses[0]
	if len(m.Responses) > 1 {
		m.Responses = m.Responses[1:]
	}
	return resp, nil
}

// JSONResponse builds an [http.Response] with the given status and JSON body.
func JSONResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}
