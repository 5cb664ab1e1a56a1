package smtpmail

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/defexvision/inspection-service/internal/core/domain"
	"github.com/defexvision/inspection-service/internal/infrastructure/resilience"
)

// Notifier submits one plain-text message per inspection over SMTP with a
// STARTTLS-upgraded, authenticated session. The recipient changes per request,
// so the shoutrrr service URL is built per send.
type Notifier struct {
	host     string
	port     int
	username string
	password string
	sender   string
	timeout  time.Duration
	executor *resilience.Executor
}

func New(host string, port int, username, password, sender string, executor *resilience.Executor) *Notifier {
	return &Notifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		sender:   sender,
		timeout:  10 * time.Second,
		executor: executor,
	}
}

func (n *Notifier) Notify(ctx context.Context, recipient, subject, body string) error {
	if strings.TrimSpace(recipient) == "" {
		return domain.WrapError(domain.ErrNotify, "send mail", fmt.Errorf("empty recipient"))
	}

	call := func(_ context.Context) error {
		return n.send(recipient, subject, body)
	}

	var err error
	if n.executor != nil {
		err = n.executor.Execute(ctx, "smtp.send", call, classifySendError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.WrapError(domain.ErrNotify, "send mail", err)
	}
	return nil
}

func (n *Notifier) send(recipient, subject, body string) error {
	sender, err := shoutrrr.CreateSender(n.serviceURL(recipient))
	if err != nil {
		return fmt.Errorf("create smtp sender: %w", err)
	}
	sender.Timeout = n.timeout
	sender.SetLogger(log.New(io.Discard, "", 0))

	params := stypes.Params{}
	params.SetTitle(subject)

	for _, sendErr := range sender.Send(body, &params) {
		if sendErr != nil {
			return fmt.Errorf("smtp send: %w", sendErr)
		}
	}
	return nil
}

func (n *Notifier) serviceURL(recipient string) string {
	query := url.Values{}
	query.Set("from", n.sender)
	query.Set("to", recipient)
	query.Set("usestarttls", "Yes")
	query.Set("auth", "Plain")

	// Userinfo escaping differs from query escaping (a space must become
	// %20, never +), so credentials go through url.UserPassword.
	return fmt.Sprintf("smtp://%s@%s:%d/?%s",
		url.UserPassword(n.username, n.password).String(),
		n.host,
		n.port,
		query.Encode(),
	)
}

func classifySendError(err error) resilience.Classification {
	if err == nil {
		return resilience.Classification{}
	}
	// Auth failures and malformed URLs do not heal on retry; connection-level
	// failures might, but mail is fire-and-forget so one attempt is enough.
	return resilience.Classification{Retryable: false, RecordFailure: true}
}
