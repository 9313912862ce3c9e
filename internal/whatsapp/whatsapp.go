package whatsapp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.twilio.com"

// ErrNotConfigured indica que faltam credenciais do Twilio; nenhuma mensagem é enviada.
var ErrNotConfigured = errors.New("whatsapp: não configurado")

// Config holds credentials for sending WhatsApp messages (Twilio).
// Phone numbers must be E.164; From is the Twilio WhatsApp number (e.g. whatsapp:+14155238886).
type Config struct {
	AccountSid string
	AuthToken  string
	From       string // e.g. "whatsapp:+14155238886"
	// BaseURL troca o endpoint da API (testes)
	BaseURL string
}

// Client sends WhatsApp messages via Twilio.
type Client struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{cfg: cfg, client: &http.Client{Timeout: 15 * time.Second}, log: log}
}

func (c *Client) Configured() bool {
	return c.cfg.AccountSid != "" && c.cfg.AuthToken != "" && c.cfg.From != ""
}

// SendSignatureLink envia ao paciente o link para assinar o orçamento.
func (c *Client) SendSignatureLink(phone, patientName, link string) error {
	if !c.Configured() {
		c.log.Warn().Msg("envio de link de assinatura ignorado: Twilio não configurado")
		return ErrNotConfigured
	}
	name := strings.TrimSpace(patientName)
	if name == "" {
		name = "paciente"
	}
	body := fmt.Sprintf("Olá, %s! Seu orçamento odontológico está disponível para assinatura. Acesse: %s", name, link)
	if err := c.send(context.Background(), phone, body); err != nil {
		return err
	}
	c.log.Info().Msg("link de assinatura enviado")
	return nil
}

// NormalizePhone converte o telefone para o endereço "whatsapp:+<dígitos>". Números brasileiros
// sem DDI (10 ou 11 dígitos) recebem o prefixo 55.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(phone), "whatsapp:"))
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d == "" {
		return ""
	}
	if !strings.HasPrefix(phone, "+") && (len(d) == 10 || len(d) == 11) {
		d = "55" + d
	}
	return "whatsapp:+" + d
}

func (c *Client) send(ctx context.Context, to, body string) error {
	to = NormalizePhone(to)
	if to == "" {
		return fmt.Errorf("whatsapp: destinatário vazio")
	}
	from := c.cfg.From
	if !strings.HasPrefix(from, "whatsapp:") {
		from = "whatsapp:" + from
	}
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", body)
	reqURL := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.AccountSid)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.AccountSid, c.cfg.AuthToken)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	slurp, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("whatsapp: %s: read body: %w", resp.Status, err)
	}
	return fmt.Errorf("whatsapp: %s: %s", resp.Status, string(slurp))
}
