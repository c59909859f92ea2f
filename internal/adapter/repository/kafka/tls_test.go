package kafka

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/dcache-billing-exporter/internal/domain"
)

// writeSelfSigned writes a self-signed certificate and its key as PEM files.
func writeSelfSigned(t *testing.T, dir string) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "billing-exporter-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certFile = filepath.Join(dir, "client.crt")
	keyFile = filepath.Join(dir, "client.key")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certFile, keyFile
}

func TestNewTLSConfig(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir)

	t.Run("default trust", func(t *testing.T) {
		cfg, err := NewTLSConfig("", "", "")
		require.NoError(t, err)
		assert.Nil(t, cfg.RootCAs)
		assert.Empty(t, cfg.Certificates)
	})

	t.Run("ca and client certificate", func(t *testing.T) {
		cfg, err := NewTLSConfig(certFile, certFile, keyFile)
		require.NoError(t, err)
		assert.NotNil(t, cfg.RootCAs)
		assert.Len(t, cfg.Certificates, 1)
	})

	t.Run("missing ca file", func(t *testing.T) {
		_, err := NewTLSConfig(filepath.Join(dir, "nope.pem"), "", "")
		assert.Error(t, err)
	})

	t.Run("ca file without certificates", func(t *testing.T) {
		empty := filepath.Join(dir, "empty.pem")
		require.NoError(t, os.WriteFile(empty, []byte("not a certificate"), 0o600))
		_, err := NewTLSConfig(empty, "", "")
		assert.Error(t, err)
	})

	t.Run("certificate without key", func(t *testing.T) {
		_, err := NewTLSConfig("", certFile, "")
		assert.Error(t, err)
	})
}

func TestRecordConversion(t *testing.T) {
	msg := kafka.Message{Topic: "billing", Partition: 3, Offset: 42, Value: []byte(`{"msgType":"remove"}`)}

	rec := toRecord(msg)
	assert.Equal(t, domain.Record{Topic: "billing", Partition: 3, Offset: 42, Value: []byte(`{"msgType":"remove"}`)}, rec)

	back := fromRecord(rec)
	assert.Equal(t, "billing", back.Topic)
	assert.Equal(t, 3, back.Partition)
	assert.Equal(t, int64(42), back.Offset)
}
