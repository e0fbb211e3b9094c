package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// maxPinAttempts bounds retries for transient pinning failures. Pinning
// happens before any chain commitment, so retrying is always safe.
const maxPinAttempts = 3

// PinataClient is the content-addressed storage client. Uploads return
// an IPFS content hash; repeated uploads of identical bytes may return
// the same hash but no dedup is attempted on this side.
type PinataClient struct {
	baseURL    string
	jwt        string
	httpClient *http.Client
}

// NewPinataClient creates a new pinning client.
func NewPinataClient(baseURL, jwt string, timeout time.Duration) *PinataClient {
	return &PinataClient{
		baseURL: baseURL,
		jwt:     jwt,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// IPFSURI formats a content hash as an ipfs:// URI.
func IPFSURI(hash string) string {
	return "ipfs://" + hash
}

// PinFile uploads raw bytes under a filename label and returns the
// content hash.
func (c *PinataClient) PinFile(ctx context.Context, data []byte, filename string) (string, error) {
	return c.withRetry(ctx, "pinFileToIPFS", func() (string, error) {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)

		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			return "", fmt.Errorf("failed to build upload form: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return "", fmt.Errorf("failed to build upload form: %w", err)
		}

		meta, _ := json.Marshal(map[string]string{"name": filename})
		if err := writer.WriteField("pinataMetadata", string(meta)); err != nil {
			return "", fmt.Errorf("failed to build upload form: %w", err)
		}
		opts, _ := json.Marshal(map[string]int{"cidVersion": 1})
		if err := writer.WriteField("pinataOptions", string(opts)); err != nil {
			return "", fmt.Errorf("failed to build upload form: %w", err)
		}
		if err := writer.Close(); err != nil {
			return "", fmt.Errorf("failed to build upload form: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pinning/pinFileToIPFS", &body)
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+c.jwt)

		return c.do(req)
	})
}

// PinJSON uploads a JSON document under a label and returns the content
// hash.
func (c *PinataClient) PinJSON(ctx context.Context, content interface{}, name string) (string, error) {
	return c.withRetry(ctx, "pinJSONToIPFS", func() (string, error) {
		payload, err := json.Marshal(map[string]interface{}{
			"pinataContent":  content,
			"pinataMetadata": map[string]string{"name": name},
		})
		if err != nil {
			return "", fmt.Errorf("failed to encode metadata: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(payload))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.jwt)

		return c.do(req)
	})
}

// retryableError marks a failure worth another attempt (network errors
// and 5xx responses); client-side 4xx responses fail immediately.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func (c *PinataClient) do(req *http.Request) (string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &retryableError{err: fmt.Errorf("pinning request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &retryableError{err: fmt.Errorf("failed to read pinning response: %w", err)}
	}

	if resp.StatusCode >= 500 {
		return "", &retryableError{err: fmt.Errorf("pinning service error: status %d: %s", resp.StatusCode, string(body))}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pinning rejected: status %d: %s", resp.StatusCode, string(body))
	}

	var pinResp pinResponse
	if err := json.Unmarshal(body, &pinResp); err != nil {
		return "", fmt.Errorf("failed to decode pinning response: %w", err)
	}
	if pinResp.IpfsHash == "" {
		return "", fmt.Errorf("pinning response missing content hash")
	}

	return pinResp.IpfsHash, nil
}

func (c *PinataClient) withRetry(ctx context.Context, op string, attempt func() (string, error)) (string, error) {
	var lastErr error
	for i := 1; i <= maxPinAttempts; i++ {
		hash, err := attempt()
		if err == nil {
			return hash, nil
		}
		lastErr = err

		var transient *retryableError
		if !errors.As(err, &transient) {
			return "", err
		}

		logrus.WithFields(logrus.Fields{
			"operation": op,
			"attempt":   i,
			"error":     err.Error(),
		}).Warn("Pinning attempt failed")

		if i < maxPinAttempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(i) * 500 * time.Millisecond):
			}
		}
	}
	return "", lastErr
}
