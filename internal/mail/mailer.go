// Package mail sends transactional email over SMTP. Delivery confirmation
// beyond the SMTP handshake is not tracked.
package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"net/smtp"
	"time"
)

// Message describes one outgoing email with an optional attachment.
type Message struct {
	To             string
	Subject        string
	Body           string
	Attachment     []byte
	AttachmentName string
}

// Result reports the outcome of a send attempt.
type Result struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// Mailer sends mail through a single SMTP relay.
type Mailer struct {
	addr string
	from string
}

// NewMailer constructs a Mailer for the given relay.
func NewMailer(host string, port int, from string) *Mailer {
	return &Mailer{addr: fmt.Sprintf("%s:%d", host, port), from: from}
}

// Send delivers the message. The local relay handles queuing and retries;
// a nil error only means the relay accepted the message.
func (m *Mailer) Send(msg Message) (Result, error) {
	payload := m.build(msg)
	if err := smtp.SendMail(m.addr, nil, m.from, []string{msg.To}, payload); err != nil {
		return Result{Success: false, Message: err.Error(), SentAt: time.Now()}, fmt.Errorf("mail: send to %s: %w", msg.To, err)
	}
	return Result{Success: true, Message: "accepted by relay", SentAt: time.Now()}, nil
}

const boundary = "sourcedesk-mime-boundary"

func (m *Mailer) build(msg Message) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", m.from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(msg.Attachment) == 0 {
		buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		buf.WriteString(msg.Body)
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(msg.Body)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: application/pdf\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", msg.AttachmentName)

	encoded := base64.StdEncoding.EncodeToString(msg.Attachment)
	for len(encoded) > 0 {
		n := 76
		if len(encoded) < n {
			n = len(encoded)
		}
		buf.WriteString(encoded[:n])
		buf.WriteString("\r\n")
		encoded = encoded[n:]
	}
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}
