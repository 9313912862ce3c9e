// Package storage guarda logos e imagens de assinatura em um bucket S3 compatível (MinIO).
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// MaxObjectBytes limita a leitura de um objeto; logos e assinaturas são imagens pequenas.
const MaxObjectBytes = 5 << 20

var ErrObjectTooLarge = errors.New("objeto maior que o limite")

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Client acessa objetos com credenciais do servidor; as URLs gravadas nos documentos
// apontam para {endpoint}/{bucket}/{key} e não são públicas.
type Client struct {
	mc       *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
	log      zerolog.Logger
}

func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	c := &Client{mc: mc, bucket: cfg.Bucket, endpoint: cfg.Endpoint, useSSL: cfg.UseSSL, log: log}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	exists, err := mc.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket %s: %w", cfg.Bucket, err)
		}
		log.Info().Str("bucket", cfg.Bucket).Msg("bucket criado")
	}
	return c, nil
}

// Put grava o objeto e devolve a URL a ser persistida no documento.
func (c *Client) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := c.mc.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio put %s: %w", key, err)
	}
	return c.URL(key), nil
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := c.mc.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get %s: %w", key, err)
	}
	defer obj.Close()
	data, err := readLimited(obj, MaxObjectBytes)
	if err != nil {
		return nil, fmt.Errorf("minio read %s: %w", key, err)
	}
	return data, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrObjectTooLarge, limit)
	}
	return data, nil
}

func (c *Client) URL(key string) string {
	scheme := "http"
	if c.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, c.endpoint, c.bucket, strings.TrimLeft(key, "/"))
}

// KeyFromURL reconhece URLs deste bucket (http(s)://endpoint/bucket/key ou s3://bucket/key).
func (c *Client) KeyFromURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	switch u.Scheme {
	case "s3":
		key := strings.TrimLeft(u.Path, "/")
		if u.Host != c.bucket || key == "" {
			return "", false
		}
		return key, true
	case "http", "https":
		if !strings.EqualFold(u.Host, c.endpoint) {
			return "", false
		}
		prefix := "/" + c.bucket + "/"
		if !strings.HasPrefix(u.Path, prefix) || len(u.Path) == len(prefix) {
			return "", false
		}
		return strings.TrimPrefix(u.Path, prefix), true
	}
	return "", false
}

// SignatureKey é a chave do PNG da assinatura de um documento ("orcamentos" ou "anamneses").
func SignatureKey(kind, companyID, docID string) string {
	return fmt.Sprintf("assinaturas/%s/%s/%s.png", kind, companyID, docID)
}
