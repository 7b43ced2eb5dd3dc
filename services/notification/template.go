package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"
)

// ReminderEmailData feeds the reminder email templates.
type ReminderEmailData struct {
	ReviewerName    string
	ManuscriptTitle string
	DueDate         time.Time
	DaysBefore      int
}

// EmailContent is a rendered email.
type EmailContent struct {
	Subject string
	HTML    string
	Text    string
}

// Overdue and DaysOverdue are used by the templates.
func (d ReminderEmailData) Overdue() bool    { return d.DaysBefore < 0 }
func (d ReminderEmailData) DaysOverdue() int { return -d.DaysBefore }
func (d ReminderEmailData) DueDateLabel() string {
	return d.DueDate.Format("Monday, 2 January 2006")
}

const textBody = `Dear {{.ReviewerName}},
{{if .Overdue}}
Your review of "{{.ManuscriptTitle}}" was due on {{.DueDateLabel}} and is now {{.DaysOverdue}} day{{if ne .DaysOverdue 1}}s{{end}} overdue.
Please submit your review as soon as possible or let the editorial office know if you need more time.
{{else if eq .DaysBefore 0}}
Your review of "{{.ManuscriptTitle}}" is due today ({{.DueDateLabel}}).
{{else}}
This is a reminder that your review of "{{.ManuscriptTitle}}" is due in {{.DaysBefore}} day{{if ne .DaysBefore 1}}s{{end}}, on {{.DueDateLabel}}.
{{end}}
Thank you for your contribution.
`

const htmlBody = `<p>Dear {{.ReviewerName}},</p>
{{if .Overdue}}<p>Your review of <strong>{{.ManuscriptTitle}}</strong> was due on {{.DueDateLabel}} and is now {{.DaysOverdue}} day{{if ne .DaysOverdue 1}}s{{end}} overdue.</p>
<p>Please submit your review as soon as possible or let the editorial office know if you need more time.</p>
{{else if eq .DaysBefore 0}}<p>Your review of <strong>{{.ManuscriptTitle}}</strong> is due today ({{.DueDateLabel}}).</p>
{{else}}<p>This is a reminder that your review of <strong>{{.ManuscriptTitle}}</strong> is due in {{.DaysBefore}} day{{if ne .DaysBefore 1}}s{{end}}, on {{.DueDateLabel}}.</p>
{{end}}<p>Thank you for your contribution.</p>
`

var (
	textTmpl = texttemplate.Must(texttemplate.New("reminder.txt").Parse(textBody))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("reminder.html").Parse(htmlBody))
)

// RenderReminderEmail renders the upcoming or overdue reminder email.
func RenderReminderEmail(d ReminderEmailData) (EmailContent, error) {
	var subject string
	switch {
	case d.Overdue():
		subject = fmt.Sprintf("Overdue review: %s", d.ManuscriptTitle)
	case d.DaysBefore == 0:
		subject = fmt.Sprintf("Review due today: %s", d.ManuscriptTitle)
	default:
		subject = fmt.Sprintf("Review due in %d day%s: %s", d.DaysBefore, plural(d.DaysBefore), d.ManuscriptTitle)
	}

	var text, html bytes.Buffer
	if err := textTmpl.Execute(&text, d); err != nil {
		return EmailContent{}, fmt.Errorf("render reminder text: %w", err)
	}
	if err := htmlTmpl.Execute(&html, d); err != nil {
		return EmailContent{}, fmt.Errorf("render reminder html: %w", err)
	}
	return EmailContent{Subject: subject, HTML: html.String(), Text: text.String()}, nil
}

// ConversationNote is the bot message recorded in the editorial conversation.
func ConversationNote(d ReminderEmailData) string {
	if d.Overdue() {
		return fmt.Sprintf("Overdue reminder sent to %s: review is %d day%s past the %s deadline.",
			d.ReviewerName, d.DaysOverdue(), plural(d.DaysOverdue()), d.DueDate.Format("2006-01-02"))
	}
	return fmt.Sprintf("Deadline reminder sent to %s: review due %s (%d day%s left).",
		d.ReviewerName, d.DueDate.Format("2006-01-02"), d.DaysBefore, plural(d.DaysBefore))
}

// plural returns "s" if n is not 1, otherwise returns an empty string.
func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
