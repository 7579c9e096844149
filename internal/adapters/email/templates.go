package email

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	notice "roster/internal/domain/email"
)

// md renders notice bodies. Raw HTML in the Markdown is escaped because
// WithUnsafe is not set, so team and member names cannot inject markup.
var md = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var templates = template.Must(template.New("notices").Funcs(template.FuncMap{
	"orFallback": func(s, fallback string) string {
		if strings.TrimSpace(s) == "" {
			return fallback
		}
		return s
	},
}).Parse(`
{{define "team_created"}}Hi {{orFallback .RecipientName "there"}},

Your team **{{.TeamName}}** is ready.

Share this invite code with your co-leaders so they can help edit the roster:

**{{.InviteCode}}**
{{if .ScheduleURL}}
The public schedule lives at {{.ScheduleURL}}
{{end}}{{end}}

{{define "team_joined_joiner"}}Hi {{orFallback .JoinerName "there"}},

You now help manage the roster for **{{.TeamName}}**.
{{if .ScheduleURL}}
Schedule: {{.ScheduleURL}}
{{end}}{{end}}

{{define "team_joined_admin"}}Hi {{orFallback .AdminName "there"}},

{{orFallback .JoinerName .JoinerEmail}} joined **{{.TeamName}}** as a co-admin using your invite code.
{{if .ScheduleURL}}
Schedule: {{.ScheduleURL}}
{{end}}{{end}}
`))

// renderBody executes a Markdown template and converts it to HTML.
func renderBody(name string, data any) (string, error) {
	var src bytes.Buffer
	if err := templates.ExecuteTemplate(&src, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	var out bytes.Buffer
	if err := md.Convert(bytes.TrimSpace(src.Bytes()), &out); err != nil {
		return "", fmt.Errorf("convert %s: %w", name, err)
	}
	return out.String(), nil
}

// TeamCreatedMessage builds the welcome mail for a new team's owner.
// PRE: n has been validated
func TeamCreatedMessage(n notice.TeamCreatedNotice) (SendRequest, error) {
	html, err := renderBody("team_created", n)
	if err != nil {
		return SendRequest{}, err
	}
	return SendRequest{
		To:      []string{n.RecipientEmail},
		Subject: fmt.Sprintf("Your team %s is ready", n.TeamName),
		HTML:    html,
	}, nil
}

// TeamJoinedMessages builds one mail for the joiner and, when the admin
// address is known and different, one for the admin.
// PRE: n has been validated
func TeamJoinedMessages(n notice.TeamJoinedNotice) ([]SendRequest, error) {
	html, err := renderBody("team_joined_joiner", n)
	if err != nil {
		return nil, err
	}
	reqs := []SendRequest{{
		To:      []string{n.JoinerEmail},
		Subject: fmt.Sprintf("You joined %s", n.TeamName),
		HTML:    html,
	}}
	recipients := n.Recipients()
	if len(recipients) < 2 {
		return reqs, nil
	}
	html, err = renderBody("team_joined_admin", n)
	if err != nil {
		return nil, err
	}
	reqs = append(reqs, SendRequest{
		To:      []string{n.AdminEmail},
		Subject: fmt.Sprintf("New co-admin on %s", n.TeamName),
		HTML:    html,
		ReplyTo: n.JoinerEmail,
	})
	return reqs, nil
}
