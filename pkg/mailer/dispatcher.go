package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/oksasatya/identity-service/pkg/mailer/templates"
)

var ErrBadJob = errors.New("malformed email job")

// Dispatcher renders queued jobs and hands them to a Sender.
type Dispatcher struct {
	Sender     Sender
	AppName    string
	SupportURL string
}

// Handle renders job and sends it. Errors wrapping ErrBadJob are not worth retrying.
func (d *Dispatcher) Handle(ctx context.Context, job EmailJob) error {
	if job.To == "" {
		return fmt.Errorf("%w: missing recipient", ErrBadJob)
	}
	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		data := make(map[string]any, len(job.Data)+2)
		for k, v := range job.Data {
			data[k] = v
		}
		setDefault(data, "AppName", d.AppName)
		setDefault(data, "SupportURL", d.SupportURL)

		var err error
		subject, text, html, err = templates.Render(job.Template, data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadJob, err)
		}
	}
	if subject == "" || (text == "" && html == "") {
		return fmt.Errorf("%w: empty message", ErrBadJob)
	}
	return d.Sender.Send(ctx, job.To, subject, text, html)
}

func setDefault(data map[string]any, key, value string) {
	if v, ok := data[key]; ok && fmt.Sprint(v) != "" {
		return
	}
	data[key] = value
}
