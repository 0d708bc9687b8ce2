package integrationtests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

// requestTimeout bounds every call against the local service, including
// the deploy/transfer requests that block until a receipt is available.
const requestTimeout = 30 * time.Second

var httpClient = &http.Client{Timeout: requestTimeout}

func executeRequest(methodType, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(context.Background(), methodType, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return httpClient.Do(req)
}

// fetchJSON issues a GET, requires a 200 and decodes the body into out.
func fetchJSON(t *testing.T, url string, out any) {
	t.Helper()
	response, err := executeRequest(http.MethodGet, url)
	if err != nil {
		t.Fatal(err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: code %d", url, response.StatusCode)
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		t.Fatal(err)
	}
}
