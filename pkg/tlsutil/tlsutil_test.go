package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSelfSigned_LoadsAsServerConfig(t *testing.T) {
	files, err := GenerateSelfSigned([]string{"localhost", "127.0.0.1"}, t.TempDir(), time.Hour)
	require.NoError(t, err)

	cfg, err := ServerConfig(files.Cert, files.Key)
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	require.Len(t, cfg.Certificates, 1)

	leaf, err := x509.ParseCertificate(cfg.Certificates[0].Certificate[0])
	require.NoError(t, err)
	assert.Contains(t, leaf.DNSNames, "localhost")
	require.Len(t, leaf.IPAddresses, 1)
	assert.Equal(t, "127.0.0.1", leaf.IPAddresses[0].String())

	caPEM, err := os.ReadFile(files.CA)
	require.NoError(t, err)
	pool := x509.NewCertPool()
	require.True(t, pool.AppendCertsFromPEM(caPEM))
	_, err = leaf.Verify(x509.VerifyOptions{Roots: pool, DNSName: "localhost"})
	assert.NoError(t, err)

	info, err := os.Stat(files.Key)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCredentials(t *testing.T) {
	files, err := GenerateSelfSigned([]string{"localhost"}, t.TempDir(), time.Hour)
	require.NoError(t, err)

	server, err := ServerCredentials(files.Cert, files.Key)
	require.NoError(t, err)
	assert.Equal(t, "tls", server.Info().SecurityProtocol)

	client, err := ClientCredentials(files.CA, "localhost")
	require.NoError(t, err)
	assert.Equal(t, "tls", client.Info().SecurityProtocol)
}

func TestLoadFailures(t *testing.T) {
	_, err := ServerConfig("missing.pem", "missing-key.pem")
	assert.ErrorContains(t, err, "load server key pair")

	_, err = ClientCredentials("missing-ca.pem", "localhost")
	assert.ErrorContains(t, err, "read CA file")

	notPEM := t.TempDir() + "/ca.pem"
	require.NoError(t, os.WriteFile(notPEM, []byte("hello"), 0o600))
	_, err = ClientCredentials(notPEM, "localhost")
	assert.ErrorContains(t, err, "failed to parse CA certificate")
}
