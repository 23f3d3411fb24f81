package utils

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// SMSClient sends text messages through a Twilio-compatible REST API.
type SMSClient struct {
	client     *fasthttp.Client
	baseURL    string
	accountSID string
	authToken  string
	timeout    time.Duration
}

type smsResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewSMSClient(baseURL, accountSID, authToken string, timeout time.Duration) *SMSClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SMSClient{
		client: &fasthttp.Client{
			Name:         "outreach-sequencer",
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		timeout:    timeout,
	}
}

// SendSMS posts one message and returns the provider message sid.
func (c *SMSClient) SendSMS(ctx context.Context, to, body, from string) (string, error) {
	if c.accountSID == "" || c.authToken == "" {
		return "", errors.New("sms provider credentials are not configured")
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.accountSID+":"+c.authToken)))

	var form fasthttp.Args
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", body)
	req.SetBody(form.QueryString())

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return "", fmt.Errorf("sms request failed: %w", err)
	}

	var parsed smsResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil && resp.StatusCode() < 300 {
		return "", fmt.Errorf("decode sms response: %w", err)
	}

	if resp.StatusCode() >= 300 {
		msg := parsed.Message
		if msg == "" {
			msg = string(resp.Body())
		}
		return "", fmt.Errorf("sms provider returned %d: %s", resp.StatusCode(), msg)
	}
	if parsed.SID == "" {
		return "", errors.New("sms provider returned no message sid")
	}
	return parsed.SID, nil
}
