package storage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFromURL(t *testing.T) {
	c := &Client{bucket: "odonto", endpoint: "minio.local:9000"}

	key, ok := c.KeyFromURL("http://minio.local:9000/odonto/logos/c1.png")
	assert.True(t, ok)
	assert.Equal(t, "logos/c1.png", key)

	key, ok = c.KeyFromURL("s3://odonto/assinaturas/orcamentos/c1/b1.png")
	assert.True(t, ok)
	assert.Equal(t, "assinaturas/orcamentos/c1/b1.png", key)

	for _, raw := range []string{
		"https://cdn.exemplo.com/odonto/logo.png",
		"http://minio.local:9000/outro/logo.png",
		"http://minio.local:9000/odonto/",
		"s3://outro/x.png",
		"data:image/png;base64,AAAA",
	} {
		_, ok := c.KeyFromURL(raw)
		assert.False(t, ok, raw)
	}
}

func TestURLRoundTrip(t *testing.T) {
	c := &Client{bucket: "odonto", endpoint: "s3.exemplo.com", useSSL: true}
	u := c.URL(SignatureKey("orcamentos", "c1", "b1"))
	assert.Equal(t, "https://s3.exemplo.com/odonto/assinaturas/orcamentos/c1/b1.png", u)
	key, ok := c.KeyFromURL(u)
	assert.True(t, ok)
	assert.Equal(t, "assinaturas/orcamentos/c1/b1.png", key)
}

func TestReadLimited(t *testing.T) {
	data, err := readLimited(bytes.NewReader([]byte("12345")), 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("12345"), data)

	_, err = readLimited(bytes.NewReader([]byte("123456")), 5)
	assert.ErrorIs(t, err, ErrObjectTooLarge)

	big := bytes.NewReader(make([]byte, MaxObjectBytes+100))
	_, err = readLimited(big, MaxObjectBytes)
	assert.ErrorIs(t, err, ErrObjectTooLarge)
	assert.Equal(t, 99, big.Len(), "lê no máximo um byte além do limite")
}
