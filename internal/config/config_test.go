package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9090
chain:
  chainId: 137
  registryContract: "0x0000000000000000000000000000000000000001"
`)

	require.NoError(t, LoadConfig(path))

	assert.Equal(t, "127.0.0.1", AppConfig.Server.Host)
	assert.Equal(t, 9090, AppConfig.Server.Port)

	// Omitted fields pick up defaults.
	assert.Equal(t, "https://api.pinata.cloud", AppConfig.Pinata.BaseURL)
	assert.Equal(t, int64(500), AppConfig.Chain.CostToleranceBps)
	assert.Equal(t, uint64(500000), AppConfig.Chain.GasLimit)
	assert.Equal(t, "png", AppConfig.Artwork.ImageMode)
	assert.Equal(t, "NNM Market", AppConfig.Artwork.Platform)
	assert.Equal(t, "GEN-0 Genesis", AppConfig.Artwork.Generation)
	assert.Equal(t, "nnm.mint", AppConfig.NATS.SubjectPrefix)
	assert.Equal(t, "https://gateway.pinata.cloud/ipfs/", AppConfig.Index.IPFSGateway)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
pinata:
  jwt: "file-jwt"
`)

	t.Setenv("SERVER_PORT", "3000")
	t.Setenv("PINATA_JWT", "env-jwt")
	t.Setenv("CHAIN_RPC_ENDPOINTS", "https://a.example, https://b.example")

	require.NoError(t, LoadConfig(path))

	assert.Equal(t, 3000, AppConfig.Server.Port)
	assert.Equal(t, "env-jwt", AppConfig.Pinata.JWT)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, AppConfig.Chain.RPCEndpoints)
}

func TestLoadConfigMissingFile(t *testing.T) {
	err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
