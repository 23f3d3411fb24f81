package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"outreach/models"
)

func TestResolveTokens(t *testing.T) {
	p := &models.Prospect{
		FirstName:   strPtr("Ann"),
		LastName:    strPtr("Lee"),
		CompanyName: strPtr("Acme"),
		Email:       strPtr("ann@acme.io"),
		Phone:       strPtr("+15550001"),
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"all known tokens", "{{first_name}} {{last_name}} {{company}} {{email}} {{phone}}", "Ann Lee Acme ann@acme.io +15550001"},
		{"spaces inside braces", "Hi {{ first_name }}!", "Hi Ann!"},
		{"unknown token", "Hi {{nickname}}.", "Hi ."},
		{"odd token", "x{{ not a token }}y", "xy"},
		{"no tokens", "plain text", "plain text"},
		{"repeated", "{{first_name}}{{first_name}}", "AnnAnn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTokens(tt.in, p))
		})
	}
}

func TestResolveTokensMissingFields(t *testing.T) {
	p := &models.Prospect{}
	assert.Equal(t, "Hi , from ", ResolveTokens("Hi {{first_name}}, from {{company}}", p))
}

func TestRender(t *testing.T) {
	p := &models.Prospect{FirstName: strPtr("Ann"), CompanyName: strPtr("Acme")}

	t.Run("body with footer", func(t *testing.T) {
		tmpl := template(1, strPtr("Hi {{first_name}}"), "Hello {{first_name}} at {{company}}", "Unsubscribe here")
		msg := Render(&tmpl, models.ChannelEmail, p)
		assert.Equal(t, "Hi Ann", msg.Subject)
		assert.Equal(t, "Hello Ann at Acme\n\nUnsubscribe here", msg.Body)
	})

	t.Run("footer is not token resolved", func(t *testing.T) {
		tmpl := template(1, nil, "Body", "Sent to {{email}}")
		msg := Render(&tmpl, models.ChannelSMS, p)
		assert.Equal(t, "Body\n\nSent to {{email}}", msg.Body)
	})

	t.Run("empty body keeps footer", func(t *testing.T) {
		tmpl := template(1, nil, "", "Reply STOP to opt out")
		msg := Render(&tmpl, models.ChannelSMS, p)
		assert.Equal(t, "Reply STOP to opt out", msg.Body)
		assert.Empty(t, msg.Subject)
	})

	t.Run("default email subject", func(t *testing.T) {
		tmpl := template(1, strPtr("   "), "Body", "")
		msg := Render(&tmpl, models.ChannelEmail, p)
		assert.Equal(t, "Hello Ann", msg.Subject)
		assert.Equal(t, "Body", msg.Body)
	})

	t.Run("default subject without first name", func(t *testing.T) {
		msg := Render(nil, models.ChannelEmail, &models.Prospect{})
		assert.Equal(t, "Hello there", msg.Subject)
		assert.Empty(t, msg.Body)
	})

	t.Run("sms resolves subject but keeps it off the body", func(t *testing.T) {
		tmpl := template(1, strPtr("Ignored {{first_name}}"), "Hi", "")
		msg := Render(&tmpl, models.ChannelSMS, p)
		assert.Equal(t, "Ignored Ann", msg.Subject)
		assert.Equal(t, "Hi", msg.Body)
	})
}
