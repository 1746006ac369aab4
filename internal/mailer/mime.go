package mailer

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"strings"
	"time"
)

var errHeaderInjection = errors.New("mailer: header value contains a line break")

func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", name), addr)
}

func newMessageID(domain string) string {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return fmt.Sprintf("<%s@%s>", hex.EncodeToString(b), domain)
}

func hasLineBreak(values ...string) bool {
	for _, v := range values {
		if strings.ContainsAny(v, "\r\n") {
			return true
		}
	}
	return false
}

// buildMIMEMessage renders e as an RFC 5322 message. Bodies are UTF-8 and
// quoted-printable so currency symbols survive 7-bit relays.
func buildMIMEMessage(e Email, messageIDDomain string) (string, error) {
	switch {
	case len(e.To) == 0:
		return "", errors.New("mailer: at least one recipient required")
	case e.From == "":
		return "", errors.New("mailer: from address required")
	case e.Subject == "":
		return "", errors.New("mailer: subject required")
	case e.TextBody == "" && e.HTMLBody == "":
		return "", errors.New("mailer: text or html body required")
	}
	if hasLineBreak(append([]string{e.From, e.FromName, e.Subject, e.ReplyTo}, e.AllRecipients()...)...) {
		return "", errHeaderInjection
	}

	var b strings.Builder
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }

	header("Date", time.Now().Format(time.RFC1123Z))
	header("Message-ID", newMessageID(messageIDDomain))
	header("From", formatAddress(e.FromName, e.From))
	header("To", strings.Join(e.To, ", "))
	if len(e.Cc) > 0 {
		header("Cc", strings.Join(e.Cc, ", "))
	}
	if e.ReplyTo != "" {
		header("Reply-To", e.ReplyTo)
	}
	header("Subject", mime.QEncoding.Encode("utf-8", e.Subject))
	header("MIME-Version", "1.0")
	for k, v := range e.Headers {
		if k == "" || v == "" || hasLineBreak(k, v) {
			continue
		}
		header(k, v)
	}

	switch {
	case e.TextBody != "" && e.HTMLBody != "":
		boundary := randomBoundary()
		header("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", boundary))
		b.WriteString("\r\n")
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		if err := writePart(&b, "text/plain", e.TextBody); err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		if err := writePart(&b, "text/html", e.HTMLBody); err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "--%s--\r\n", boundary)
	case e.HTMLBody != "":
		if err := writePart(&b, "text/html", e.HTMLBody); err != nil {
			return "", err
		}
	default:
		if err := writePart(&b, "text/plain", e.TextBody); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func writePart(b *strings.Builder, contentType, body string) error {
	fmt.Fprintf(b, "Content-Type: %s; charset=UTF-8\r\n", contentType)
	b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
	w := quotedprintable.NewWriter(b)
	if _, err := w.Write([]byte(body)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	b.WriteString("\r\n")
	return nil
}

func randomBoundary() string {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return "alt-" + hex.EncodeToString(b)
}
