package emailsvc

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/likelion-sch/recruit/core"
)

// consoleService writes every message to an io.Writer instead of sending it.
// It backs the DEV environment and the test suites.
type consoleService struct {
	from       mail.Address
	subjPrefix string
	out        io.Writer
	logger     core.Logger
	sync       bool

	mu   sync.Mutex
	sent []core.EmailMessage
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config, logger core.Logger) core.EmailService {
	return &consoleService{
		from:       mail.Address{Name: conf.AppName, Address: conf.DefaultFromEmail},
		subjPrefix: "[" + conf.AppName + "] ",
		out:        os.Stdout,
		logger:     logger,
	}
}

// Outbox is a synchronous console service that keeps what it "sent" for tests to inspect.
type Outbox struct {
	*consoleService
}

func NewOutbox(conf *core.Config, logger core.Logger) *Outbox {
	return &Outbox{consoleService: &consoleService{
		from:       mail.Address{Name: conf.AppName, Address: conf.DefaultFromEmail},
		subjPrefix: "[" + conf.AppName + "] ",
		out:        io.Discard,
		logger:     logger,
		sync:       true,
	}}
}

// Sent returns a copy of the delivered messages.
func (o *Outbox) Sent() []core.EmailMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]core.EmailMessage(nil), o.sent...)
}

// Last returns the last delivered message to address, if any.
func (o *Outbox) Last(address string) (core.EmailMessage, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		for _, to := range o.sent[i].To {
			if to.Address == address {
				return o.sent[i], true
			}
		}
	}
	return core.EmailMessage{}, false
}

func (o *Outbox) Reset() {
	o.mu.Lock()
	o.sent = nil
	o.mu.Unlock()
}

func (svc *consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if svc.sync {
			svc.sendMessage(msg)
		} else {
			go svc.sendMessage(msg)
		}
	}
}

func (svc *consoleService) sendMessage(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		svc.logger.Error(fmt.Sprintf("rendering email: %v", err), errors.Wrap(err, "rendering email"))
		return
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}
	if err := svc.write(*msg); err != nil {
		svc.logger.Error(fmt.Sprintf("writing email: %v", err), err)
		return
	}
	svc.mu.Lock()
	svc.sent = append(svc.sent, *msg)
	svc.mu.Unlock()
}

func (svc *consoleService) write(msg core.EmailMessage) error {
	body := new(strings.Builder)

	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.from.String())
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))
	if len(msg.Cc) > 0 {
		_, _ = fmt.Fprintf(body, "CC: %s\r\n", joinAddresses(msg.Cc))
	}
	if len(msg.Bcc) > 0 {
		_, _ = fmt.Fprintf(body, "BCC: %s\r\n", joinAddresses(msg.Bcc))
	}

	altW := multipart.NewWriter(body)
	var mixedW *multipart.Writer
	if msg.HasAttachments() {
		mixedW = multipart.NewWriter(body)
		_, _ = fmt.Fprintf(body, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mixedW.Boundary())
		if _, err := mixedW.CreatePart(textproto.MIMEHeader{
			"Content-Type": {"multipart/alternative; boundary=" + altW.Boundary()},
		}); err != nil {
			return errors.Wrap(err, "creating multipart/alternative part")
		}
	} else {
		_, _ = fmt.Fprintf(body, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", altW.Boundary())
	}

	w, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=utf-8"}})
	if err != nil {
		return errors.Wrap(err, "creating text/plain part")
	}
	_, _ = fmt.Fprintf(w, "%s\r\n", msg.TextContent)

	if msg.HTMLContent != "" {
		if w, err = altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=utf-8"}}); err != nil {
			return errors.Wrap(err, "creating text/html part")
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", msg.HTMLContent)
	}
	_ = altW.Close()

	if mixedW != nil {
		for _, at := range msg.Attachments {
			w, err = mixedW.CreatePart(textproto.MIMEHeader{
				"Content-Type":              {at.ContentType},
				"Content-Transfer-Encoding": {"base64"},
				"Content-Disposition":       {"attachment; filename=" + at.Filename},
			})
			if err != nil {
				return errors.Wrap(err, "creating "+at.ContentType+" part")
			}
			_, _ = fmt.Fprintf(w, "%s\r\n", at.Content.String())
		}
		_ = mixedW.Close()
	}

	_, err = io.WriteString(svc.out, body.String()+"\n")
	return err
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}
