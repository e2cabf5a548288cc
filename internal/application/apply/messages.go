package apply

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/taratrabaho/jobboard-api/internal/domain"
	"github.com/taratrabaho/jobboard-api/internal/infrastructure/smtp"
)

func companyMessage(job *domain.Job, app *domain.Application, att *attachment) smtp.Message {
	var text strings.Builder
	fmt.Fprintf(&text, "New application for %s\n\n", job.Title)
	fmt.Fprintf(&text, "Name: %s\nEmail: %s\nPhone: %s\nApplied: %s\n", app.FullName, app.Email, app.Phone, app.CreatedAt.Format("January 2, 2006"))
	if app.CoverLetter != "" {
		fmt.Fprintf(&text, "\nCover letter:\n%s\n", app.CoverLetter)
	}
	fmt.Fprintf(&text, "\nReply to this email to contact the applicant directly. Their email (%s) is set as the reply-to address.\n", app.Email)

	var body strings.Builder
	fmt.Fprintf(&body, "<h2>New application for %s</h2>", html.EscapeString(job.Title))
	fmt.Fprintf(&body, "<p><b>Name:</b> %s<br><b>Email:</b> %s<br><b>Phone:</b> %s</p>",
		html.EscapeString(app.FullName), html.EscapeString(app.Email), html.EscapeString(app.Phone))
	if app.CoverLetter != "" {
		fmt.Fprintf(&body, "<h3>Cover letter</h3><p>%s</p>", strings.ReplaceAll(html.EscapeString(app.CoverLetter), "\n", "<br>"))
	}

	return smtp.Message{
		To:          []string{job.CompanyEmail},
		ReplyTo:     app.Email,
		Subject:     fmt.Sprintf("New Job Application: %s - %s", job.Title, app.FullName),
		Body:        text.String(),
		HTMLBody:    body.String(),
		Attachments: []smtp.Attachment{{Filename: att.filename, Content: att.data}},
	}
}

func applicantMessage(job *domain.Job, app *domain.Application) smtp.Message {
	return smtp.Message{
		To:      []string{app.Email},
		Subject: fmt.Sprintf("Application Submitted - %s at %s", job.Title, job.Company),
		Body: fmt.Sprintf("Hi %s,\n\nYour application for %s at %s has been sent. "+
			"Companies may reach out at any time.\n\nKeep this email for your records. Good luck!\n",
			app.FullName, job.Title, job.Company),
	}
}

// SortNewestFirst orders applications by creation time, newest first.
func SortNewestFirst(apps []domain.Application) {
	sort.SliceStable(apps, func(i, j int) bool {
		if apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].ApplicationID > apps[j].ApplicationID
		}
		return apps[i].CreatedAt.After(apps[j].CreatedAt)
	})
}
