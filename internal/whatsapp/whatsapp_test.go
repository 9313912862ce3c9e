package whatsapp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSignatureLink_NotConfigured(t *testing.T) {
	cases := []Config{
		{},
		{AuthToken: "token", From: "whatsapp:+15551234567"},
		{AccountSid: "sid", AuthToken: "token"},
	}
	for _, cfg := range cases {
		c := NewClient(cfg, zerolog.Nop())
		err := c.SendSignatureLink("+5511999990000", "Maria", "https://app/x")
		assert.ErrorIs(t, err, ErrNotConfigured)
	}
}

func TestSendSignatureLink_PostsTwilioForm(t *testing.T) {
	var gotPath, gotTo, gotFrom, gotBody, user string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		user, _, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotTo = r.PostForm.Get("To")
		gotFrom = r.PostForm.Get("From")
		gotBody = r.PostForm.Get("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(Config{AccountSid: "AC1", AuthToken: "tok", From: "+14155238886", BaseURL: srv.URL}, zerolog.Nop())
	require.NoError(t, c.SendSignatureLink("(11) 99999-0000", "Maria Silva", "https://app/assinatura-orcamento/?token=abc"))

	assert.Equal(t, "/2010-04-01/Accounts/AC1/Messages.json", gotPath)
	assert.Equal(t, "AC1", user)
	assert.Equal(t, "whatsapp:+5511999990000", gotTo)
	assert.Equal(t, "whatsapp:+14155238886", gotFrom)
	assert.True(t, strings.Contains(gotBody, "Maria Silva"))
	assert.True(t, strings.Contains(gotBody, "token=abc"))
}

func TestSendSignatureLink_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid To"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(Config{AccountSid: "AC1", AuthToken: "tok", From: "whatsapp:+1", BaseURL: srv.URL}, zerolog.Nop())
	err := c.SendSignatureLink("+5511999990000", "Maria", "l")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid To")
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "whatsapp:+5511999990000", NormalizePhone("11 99999-0000"))
	assert.Equal(t, "whatsapp:+5511999990000", NormalizePhone("+55 (11) 99999-0000"))
	assert.Equal(t, "whatsapp:+14155238886", NormalizePhone("whatsapp:+14155238886"))
	assert.Equal(t, "", NormalizePhone("  "))
}
