// internal/gateway/http_sink.go
package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPSink posts receipts to the delivery-receipt webhook, the way a real
// vendor would call back. Used by the worker binary, which runs outside the
// API server process.
type HTTPSink struct {
	URL    string
	Client *http.Client
}

func NewHTTPSink(url string) *HTTPSink {
	return &HTTPSink{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSink) Deliver(r Receipt) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	resp, err := s.Client.Post(s.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("receipt webhook returned %d", resp.StatusCode)
	}
	return nil
}

var _ ReceiptSink = (*HTTPSink)(nil)
