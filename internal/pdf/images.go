package pdf

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prontuario/odonto/internal/cache"
	"github.com/prontuario/odonto/internal/metrics"
	"github.com/rs/zerolog"
)

const maxImageBytes = 5 << 20

// ErrImageUnavailable: todas as estratégias de carregamento falharam.
var ErrImageUnavailable = errors.New("imagem indisponível")

// Image é uma imagem pronta para o PDF; Type é "png" ou "jpeg".
type Image struct {
	Data []byte
	Type string
}

// ObjectFetcher lê objetos privados do armazenamento com credenciais do servidor.
type ObjectFetcher interface {
	KeyFromURL(raw string) (string, bool)
	Get(ctx context.Context, key string) ([]byte, error)
}

// ImageLoader busca logos e assinaturas tentando, em ordem: data URL, cache, GET direto,
// armazenamento autenticado e proxy. Cada tentativa tem seu próprio timeout e a falha de
// uma cai para a próxima.
type ImageLoader struct {
	HTTP     *http.Client
	Objects  ObjectFetcher
	ProxyURL string
	Timeout  time.Duration
	Cache    cache.Store
	Metrics  *metrics.Metrics
	Log      zerolog.Logger
}

type strategy struct {
	name  string
	fetch func(ctx context.Context, ref string) ([]byte, error)
}

func (l *ImageLoader) Load(ctx context.Context, ref string) (*Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrImageUnavailable
	}
	if strings.HasPrefix(ref, "data:") {
		ext, data, ok := decodeDataURLImage(ref)
		if !ok {
			l.Metrics.ImageLoad("data_url", "error")
			return nil, fmt.Errorf("%w: data URL inválida", ErrImageUnavailable)
		}
		l.Metrics.ImageLoad("data_url", "ok")
		return &Image{Data: data, Type: ext}, nil
	}
	key := cacheKey(ref)
	if l.Cache != nil {
		if data := l.Cache.Get(ctx, key); data != nil {
			if img, ok := asImage(data); ok {
				l.Metrics.ImageLoad("cache", "ok")
				return img, nil
			}
		}
	}
	for _, s := range l.strategies() {
		data, err := l.attempt(ctx, s, ref)
		if err != nil {
			l.Metrics.ImageLoad(s.name, "error")
			l.Log.Warn().Err(err).Str("strategy", s.name).Str("ref", redact(ref)).Msg("falha ao carregar imagem")
			continue
		}
		img, ok := asImage(data)
		if !ok {
			l.Metrics.ImageLoad(s.name, "invalid")
			l.Log.Warn().Str("strategy", s.name).Str("ref", redact(ref)).Msg("conteúdo não é PNG/JPEG")
			continue
		}
		l.Metrics.ImageLoad(s.name, "ok")
		if l.Cache != nil {
			l.Cache.Set(ctx, key, data)
		}
		return img, nil
	}
	return nil, ErrImageUnavailable
}

func (l *ImageLoader) strategies() []strategy {
	var out []strategy
	if l.HTTP != nil {
		out = append(out, strategy{name: "http", fetch: l.fetchHTTP})
	}
	if l.Objects != nil {
		out = append(out, strategy{name: "object_store", fetch: l.fetchObject})
	}
	if l.HTTP != nil && l.ProxyURL != "" {
		out = append(out, strategy{name: "proxy", fetch: l.fetchProxy})
	}
	return out
}

func (l *ImageLoader) attempt(ctx context.Context, s strategy, ref string) ([]byte, error) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.fetch(ctx, ref)
}

func (l *ImageLoader) fetchHTTP(ctx context.Context, ref string) ([]byte, error) {
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("url não suportada para GET direto")
	}
	return l.get(ctx, ref)
}

func (l *ImageLoader) fetchObject(ctx context.Context, ref string) ([]byte, error) {
	key, ok := l.Objects.KeyFromURL(ref)
	if !ok {
		return nil, fmt.Errorf("referência fora do armazenamento")
	}
	return l.Objects.Get(ctx, key)
}

func (l *ImageLoader) fetchProxy(ctx context.Context, ref string) ([]byte, error) {
	sep := "?"
	if strings.Contains(l.ProxyURL, "?") {
		sep = "&"
	}
	return l.get(ctx, l.ProxyURL+sep+"url="+url.QueryEscape(ref))
}

func (l *ImageLoader) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("imagem maior que %d bytes", maxImageBytes)
	}
	return data, nil
}

// asImage aceita só PNG e JPEG, os formatos que o fpdf embute.
func asImage(data []byte) (*Image, bool) {
	switch http.DetectContentType(data) {
	case "image/png":
		return &Image{Data: data, Type: "png"}, true
	case "image/jpeg":
		return &Image{Data: data, Type: "jpeg"}, true
	}
	return nil, false
}

// decodeDataURLImage extrai tipo (png/jpeg) e bytes de um data URL (data:image/png;base64,...).
func decodeDataURLImage(dataURL string) (ext string, data []byte, ok bool) {
	dataURL = strings.TrimSpace(dataURL)
	if !strings.HasPrefix(dataURL, "data:") {
		return "", nil, false
	}
	idx := strings.Index(dataURL, ";base64,")
	if idx < 0 {
		return "", nil, false
	}
	header := dataURL[5:idx]
	if strings.HasPrefix(header, "image/png") {
		ext = "png"
	} else if strings.HasPrefix(header, "image/jpeg") || strings.HasPrefix(header, "image/jpg") {
		ext = "jpeg"
	} else {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(dataURL[idx+8:])
	if err != nil || len(data) == 0 {
		return "", nil, false
	}
	return ext, data, true
}

// DecodeDataURL devolve a imagem PNG/JPEG de um data URL.
func DecodeDataURL(s string) (*Image, error) {
	ext, data, ok := decodeDataURLImage(s)
	if !ok {
		return nil, fmt.Errorf("%w: data URL inválida", ErrImageUnavailable)
	}
	if _, ok := asImage(data); !ok {
		return nil, fmt.Errorf("%w: conteúdo não é PNG/JPEG", ErrImageUnavailable)
	}
	return &Image{Data: data, Type: ext}, nil
}

func cacheKey(ref string) string {
	sum := sha256.Sum256([]byte(ref))
	return "img:" + hex.EncodeToString(sum[:])
}

// redact remove query string (tokens de acesso) antes de logar.
func redact(ref string) string {
	if i := strings.IndexByte(ref, '?'); i >= 0 {
		return ref[:i]
	}
	return ref
}

// EncodeDataURL é o inverso de decodeDataURLImage; usado quando não há armazenamento configurado.
func EncodeDataURL(img *Image) string {
	var b bytes.Buffer
	b.WriteString("data:image/")
	b.WriteString(img.Type)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(img.Data))
	return b.String()
}
