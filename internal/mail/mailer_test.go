package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPlainMessage(t *testing.T) {
	m := NewMailer("127.0.0.1", 1025, "quotes@sourcedesk.local")

	raw := string(m.build(Message{
		To:      "buyer@example.com",
		Subject: "Quotation COT-2609-0001",
		Body:    "Please find the quotation attached.",
	}))

	require.Contains(t, raw, "From: quotes@sourcedesk.local\r\n")
	require.Contains(t, raw, "To: buyer@example.com\r\n")
	require.Contains(t, raw, "Content-Type: text/plain")
	require.NotContains(t, raw, "multipart/mixed")
	require.True(t, strings.HasSuffix(raw, "Please find the quotation attached."))
}

func TestBuildWithAttachment(t *testing.T) {
	m := NewMailer("127.0.0.1", 1025, "quotes@sourcedesk.local")

	raw := string(m.build(Message{
		To:             "buyer@example.com",
		Subject:        "Quotation COT-2609-0001",
		Body:           "Attached.",
		Attachment:     []byte("%PDF-1.4 fake"),
		AttachmentName: "COT-2609-0001.pdf",
	}))

	require.Contains(t, raw, "multipart/mixed")
	require.Contains(t, raw, "Content-Type: application/pdf")
	require.Contains(t, raw, "Content-Transfer-Encoding: base64")
	require.Contains(t, raw, `filename="COT-2609-0001.pdf"`)
	require.Contains(t, raw, "--"+boundary+"--")
}

func TestBuildEncodesSubject(t *testing.T) {
	m := NewMailer("127.0.0.1", 1025, "quotes@sourcedesk.local")

	raw := string(m.build(Message{
		To:      "buyer@example.com",
		Subject: "Cotización maquinaria",
		Body:    "Hola",
	}))

	require.Contains(t, raw, "Subject: =?utf-8?q?")
}
