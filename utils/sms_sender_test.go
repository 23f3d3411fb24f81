package utils

import (
	"context"
	"encoding/base64"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type capturedSMS struct {
	path, auth, to, from, body string
}

func smsServer(t *testing.T, status int, response string) (*SMSClient, *capturedSMS) {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	got := &capturedSMS{}

	server := &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			got.path = string(ctx.Path())
			got.auth = string(ctx.Request.Header.Peek("Authorization"))
			got.to = string(ctx.PostArgs().Peek("To"))
			got.from = string(ctx.PostArgs().Peek("From"))
			got.body = string(ctx.PostArgs().Peek("Body"))
			ctx.SetStatusCode(status)
			ctx.SetContentType("application/json")
			ctx.SetBodyString(response)
		},
	}
	go server.Serve(ln) //nolint:errcheck
	t.Cleanup(func() { _ = ln.Close() })

	c := NewSMSClient("http://sms.test/", "AC1", "secret", time.Second)
	c.client = &fasthttp.Client{
		Dial: func(string) (net.Conn, error) { return ln.Dial() },
	}
	return c, got
}

func TestSMSClientSend(t *testing.T) {
	c, got := smsServer(t, fasthttp.StatusCreated, `{"sid":"SM42","status":"queued"}`)

	sid, err := c.SendSMS(context.Background(), "+15550001", "Hi Ann", "+15559999")
	require.NoError(t, err)
	assert.Equal(t, "SM42", sid)

	assert.Equal(t, "/2010-04-01/Accounts/AC1/Messages.json", got.path)
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("AC1:secret")), got.auth)
	assert.Equal(t, "+15550001", got.to)
	assert.Equal(t, "+15559999", got.from)
	assert.Equal(t, "Hi Ann", got.body)
}

func TestSMSClientProviderRejects(t *testing.T) {
	c, _ := smsServer(t, fasthttp.StatusBadRequest, `{"code":21211,"message":"Invalid 'To' Phone Number"}`)

	_, err := c.SendSMS(context.Background(), "123", "Hi", "+15559999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "Invalid 'To' Phone Number")
}

func TestSMSClientMissingSID(t *testing.T) {
	c, _ := smsServer(t, fasthttp.StatusOK, `{"status":"queued"}`)

	_, err := c.SendSMS(context.Background(), "+15550001", "Hi", "+15559999")
	assert.Error(t, err)
}

func TestSMSClientWithoutCredentials(t *testing.T) {
	c := NewSMSClient("http://sms.test", "", "", time.Second)
	_, err := c.SendSMS(context.Background(), "+15550001", "Hi", "+15559999")
	assert.Error(t, err)
}

func TestSMSClientCancelledContext(t *testing.T) {
	c, _ := smsServer(t, fasthttp.StatusCreated, `{"sid":"SM42"}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SendSMS(ctx, "+15550001", "Hi", "+15559999")
	assert.ErrorIs(t, err, context.Canceled)
}
