package sequencer

import (
	"regexp"
	"strings"

	"outreach/models"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)

// Message is a rendered step ready for a channel.
type Message struct {
	Subject string
	Body    string
}

func tokenValue(name string, p *models.Prospect) string {
	switch name {
	case "first_name":
		return p.FirstNameValue()
	case "last_name":
		return p.LastNameValue()
	case "company":
		return p.CompanyNameValue()
	case "email":
		return p.EmailValue()
	case "phone":
		return p.PhoneValue()
	}
	return ""
}

// ResolveTokens replaces every {{token}} in s. Unknown tokens and empty
// fields become the empty string.
func ResolveTokens(s string, p *models.Prospect) string {
	return tokenPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := tokenPattern.FindStringSubmatch(match)
		return tokenValue(sub[1], p)
	})
}

// Render resolves a template for a prospect. The compliance footer is always
// appended as a trailing block. Email gets a default subject when the
// template has none. A nil template renders an empty message.
func Render(tmpl *models.Template, channel models.Channel, p *models.Prospect) Message {
	var msg Message
	if tmpl != nil {
		msg.Body = ResolveTokens(tmpl.Body, p)
		if tmpl.ComplianceFooter != "" {
			msg.Body = appendFooter(msg.Body, tmpl.ComplianceFooter)
		}
		if tmpl.Subject != nil && strings.TrimSpace(*tmpl.Subject) != "" {
			msg.Subject = ResolveTokens(*tmpl.Subject, p)
		}
	}

	if channel == models.ChannelEmail && msg.Subject == "" {
		msg.Subject = defaultSubject(p)
	}
	return msg
}

func appendFooter(body, footer string) string {
	if body == "" {
		return footer
	}
	return body + "\n\n" + footer
}

func defaultSubject(p *models.Prospect) string {
	name := p.FirstNameValue()
	if name == "" {
		name = "there"
	}
	return "Hello " + name
}
