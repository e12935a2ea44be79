package mailer

import (
	"io"

	"github.com/pkg/errors"
	gomail "gopkg.in/gomail.v2"
)

type Email struct {
	ToEmail        string
	ToName         string
	Subject        string
	TextBody       string
	HTMLBody       string
	AttachmentName string
	Attachment     []byte
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	d        dialer
	from     string
	fromName string
}

func New(host string, port int, username, password, from, fromName string) *Mailer {
	return &Mailer{
		d:        gomail.NewDialer(host, port, username, password),
		from:     from,
		fromName: fromName,
	}
}

func newWithDialer(d dialer, from, fromName string) *Mailer {
	return &Mailer{d: d, from: from, fromName: fromName}
}

func (m *Mailer) Send(e Email) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.fromName)
	msg.SetAddressHeader("To", e.ToEmail, e.ToName)
	msg.SetHeader("Subject", e.Subject)
	msg.SetBody("text/plain", e.TextBody)
	if e.HTMLBody != "" {
		msg.AddAlternative("text/html", e.HTMLBody)
	}
	if len(e.Attachment) > 0 {
		att := e.Attachment
		msg.Attach(e.AttachmentName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(att)
			return err
		}))
	}
	if err := m.d.DialAndSend(msg); err != nil {
		return errors.Wrap(err, "smtp send")
	}
	return nil
}
