package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPinServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *PinataClient) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, NewPinataClient(server.URL, "test-jwt", 0)
}

func TestPinFile(t *testing.T) {
	_, client := newPinServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pinning/pinFileToIPFS", r.URL.Path)
		assert.Equal(t, "Bearer test-jwt", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Contains(t, r.MultipartForm.Value["pinataOptions"][0], `"cidVersion":1`)
		assert.Contains(t, r.MultipartForm.Value["pinataMetadata"][0], "satoshi.png")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "satoshi.png", header.Filename)

		json.NewEncoder(w).Encode(map[string]string{"IpfsHash": "QmFile"})
	})

	hash, err := client.PinFile(context.Background(), []byte("png-bytes"), "satoshi.png")
	require.NoError(t, err)
	assert.Equal(t, "QmFile", hash)
	assert.Equal(t, "ipfs://QmFile", IPFSURI(hash))
}

func TestPinJSON(t *testing.T) {
	_, client := newPinServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pinning/pinJSONToIPFS", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "pinataContent")
		meta, ok := body["pinataMetadata"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "satoshi-metadata.json", meta["name"])

		json.NewEncoder(w).Encode(map[string]string{"IpfsHash": "QmMeta"})
	})

	hash, err := client.PinJSON(context.Background(), map[string]string{"name": "satoshi"}, "satoshi-metadata.json")
	require.NoError(t, err)
	assert.Equal(t, "QmMeta", hash)
}

func TestPinRetriesTransientFailures(t *testing.T) {
	var calls int32
	_, client := newPinServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"IpfsHash": "QmRetried"})
	})

	hash, err := client.PinJSON(context.Background(), "x", "retry.json")
	require.NoError(t, err)
	assert.Equal(t, "QmRetried", hash)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestPinGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	_, client := newPinServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.PinJSON(context.Background(), "x", "down.json")
	assert.Error(t, err)
	assert.Equal(t, int32(maxPinAttempts), atomic.LoadInt32(&calls))
}

func TestPinFailsFastOnClientError(t *testing.T) {
	var calls int32
	_, client := newPinServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.PinJSON(context.Background(), "x", "denied.json")
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
