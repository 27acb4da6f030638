package notify

import (
	"context"
	"crypto/md5" //nolint:gosec
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/schema"
	"github.com/kokuin/kokuin/logging"
	"github.com/lestrrat-go/slack"
	"github.com/lestrrat-go/slack/objects"
)

var (
	defaultSlackChannel = "general"
	// SlackUsername variable.
	SlackUsername = "Kokuin"
	// SlackFooter variable.
	SlackFooter = "kokuin notify/slack"

	decoder = schema.NewDecoder()
)

// Slack struct.
type Slack struct {
	Channel  string `schema:"-"`
	Title    string `schema:"title"`
	TitleURL string `schema:"url"`
	token    string
	logger   *logging.Logger
}

func NewSlack(schema string, log *logging.Logger) (*Slack, error) {
	u, err := url.Parse(schema)
	if err != nil {
		return nil, err
	}

	s := &Slack{Channel: u.Path, logger: log}
	if err := decoder.Decode(s, u.Query()); err != nil {
		return nil, err
	}

	if s.Channel == "" {
		s.Channel = defaultSlackChannel
	}
	if t := os.Getenv("SLACK_TOKEN"); t != "" {
		s.token = t
	}
	if s.token == "" {
		return nil, fmt.Errorf("slack token is required")
	}

	return s, nil
}

// Send posts message to Slack channel.
func (s *Slack) Send(ctx context.Context, message string) {
	cl := slack.New(s.token)
	at := s.BuildAttachment(message)
	_, err := cl.Chat().PostMessage(s.Channel).Username(SlackUsername).
		Attachment(&at).Text("").Do(ctx)
	if err != nil {
		s.logger.Error("Slack postMessage failure", slog.String("error", fmt.Sprintf("%#v", err)))
	}
}

func (s *Slack) genColor() string {
	return fmt.Sprintf("#%X", md5.Sum([]byte(hostname())))[0:7] //nolint:gosec
}

// BuildAttachment returns a slack attachment for a stamp/pack result.
func (s *Slack) BuildAttachment(message string) objects.Attachment {
	var at objects.Attachment
	at.Color = s.genColor()
	at.Footer = SlackFooter
	at.Timestamp = objects.Timestamp(time.Now().Unix())

	switch {
	case s.Title != "" && s.TitleURL != "":
		at.Text = fmt.Sprintf("%s of <%s|%s> on %s", message, s.TitleURL, s.Title, hostname())
	case s.Title != "":
		at.Text = fmt.Sprintf("%s of %s on %s", message, s.Title, hostname())
	default:
		at.Text = fmt.Sprintf("%s on %s", message, hostname())
	}

	at.Fields.
		Append(&objects.AttachmentField{Title: "Host", Value: hostname(), Short: true}).
		Append(&objects.AttachmentField{Title: "User", Value: username(), Short: true}).
		Append(&objects.AttachmentField{Title: "Working directory", Value: cwd(), Short: false})

	return at
}
