package orcamento

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// NewSignatureToken returns 32 random bytes as lowercase hex (64 chars).
func NewSignatureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// SignatureLink builds the public link where the patient signs the budget.
func SignatureLink(baseURL, token, companyID, patientID string) string {
	return fmt.Sprintf("%s/assinatura-orcamento/?token=%s&companyId=%s&patientId=%s",
		strings.TrimRight(baseURL, "/"), url.QueryEscape(token), url.QueryEscape(companyID), url.QueryEscape(patientID))
}

// LinkSender delivers the signature link to the signer's phone.
type LinkSender interface {
	SendSignatureLink(phone, patientName, link string) error
}

// SignatureDispatcher sends budgets out for signature. The token is generated once and
// persisted; later sends of the same budget reuse it.
type SignatureDispatcher struct {
	Store    Store
	Sender   LinkSender
	BaseURL  string
	NewToken func() (string, error)
}

// Send makes sure b has a token and link, promotes a draft to "aguardando_assinatura" and
// delivers the link. The returned budget reflects what was persisted.
func (d *SignatureDispatcher) Send(ctx context.Context, b *Budget, phone, patientName string) (*Budget, error) {
	if b.Signed() {
		return nil, ErrBudgetSigned
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, invalid(ErrMissingPhone, "Informe o telefone do paciente para enviar o link de assinatura.")
	}
	doc := cloneBudget(b)
	changed := false
	if doc.SignatureToken == "" {
		newToken := d.NewToken
		if newToken == nil {
			newToken = NewSignatureToken
		}
		tok, err := newToken()
		if err != nil {
			return nil, fmt.Errorf("signature token: %w", err)
		}
		doc.SignatureToken = tok
		changed = true
	}
	if doc.SignatureLink == "" {
		doc.SignatureLink = SignatureLink(d.BaseURL, doc.SignatureToken, doc.CompanyID, doc.PatientID)
		changed = true
	}
	if doc.Status == StatusRascunho || doc.Status == "" {
		doc.Status = StatusAguardandoAssinatura
		changed = true
	}
	if changed {
		doc.UpdatedAt = time.Now()
		if err := d.Store.UpdateBudget(ctx, doc.ID, doc); err != nil {
			return nil, &PersistenceError{Op: "update budget", Err: err}
		}
	}
	if d.Sender != nil {
		if err := d.Sender.SendSignatureLink(phone, patientName, doc.SignatureLink); err != nil {
			return doc, fmt.Errorf("send signature link: %w", err)
		}
	}
	return doc, nil
}

// Sign records the captured signature and finalizes the budget. After this call the budget
// is immutable.
func Sign(b *Budget, signerName, signatureImageURL string, at time.Time) error {
	if b.Signed() {
		return ErrBudgetSigned
	}
	signerName = strings.TrimSpace(signerName)
	if signerName == "" {
		return invalid(ErrMissingSigner, "Informe o nome de quem está assinando.")
	}
	t := at
	b.SignedAt = &t
	b.SignedBy = signerName
	b.SignatureImageURL = signatureImageURL
	b.Status = StatusFinalizado
	b.UpdatedAt = at
	return nil
}
