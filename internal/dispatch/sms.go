package dispatch

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"coopdash/internal/config"
	"coopdash/internal/util"
)

const smsSendPath = "/messages/v4/send"

// SMSClient talks to the coolsms v4 API with HMAC-SHA256 request signing.
type SMSClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	sender     string
	httpClient *http.Client
	now        func() time.Time
	salt       func() string
}

type smsMessage struct {
	To   string `json:"to"`
	From string `json:"from"`
	Text string `json:"text"`
}

type smsErrorPayload struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func NewSMSClient(cfg config.Config) (*SMSClient, error) {
	if err := cfg.Require("SMS_API_KEY", cfg.SMSAPIKey); err != nil {
		return nil, err
	}
	if err := cfg.Require("SMS_API_SECRET", cfg.SMSAPISecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("SMS_SENDER", cfg.SMSSender); err != nil {
		return nil, err
	}
	return &SMSClient{
		baseURL:    strings.TrimRight(cfg.SMSAPIBaseURL, "/"),
		apiKey:     cfg.SMSAPIKey,
		apiSecret:  cfg.SMSAPISecret,
		sender:     cfg.SMSSender,
		httpClient: &http.Client{Timeout: time.Duration(cfg.SMSTimeoutMs) * time.Millisecond},
		now:        time.Now,
		salt:       uuid.NewString,
	}, nil
}

// Signature is hex(HMAC-SHA256(secret, date+salt)).
func Signature(secret, date, salt string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(date + salt))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *SMSClient) authorization() string {
	date := c.now().UTC().Format(time.RFC3339)
	salt := c.salt()
	return fmt.Sprintf("HMAC-SHA256 apiKey=%s, date=%s, salt=%s, signature=%s",
		c.apiKey, date, salt, Signature(c.apiSecret, date, salt))
}

// Send delivers one text. Any non-200 answer becomes a *Failure carrying the gateway code.
func (c *SMSClient) Send(ctx context.Context, to, text string) error {
	to = util.CleanPhone(to)
	from := util.CleanPhone(c.sender)
	if to == "" || from == "" {
		return failure("invalid_number", "sender or receiver number is empty")
	}
	if strings.TrimSpace(text) == "" {
		return failure("empty_text", "message text is empty")
	}

	body, err := json.Marshal(map[string]smsMessage{"message": {To: to, From: from, Text: text}})
	if err != nil {
		return failure("encode", err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+smsSendPath, bytes.NewReader(body))
	if err != nil {
		return failure("request", err.Error())
	}
	req.Header.Set("Authorization", c.authorization())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failure("network", err.Error())
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	var payload smsErrorPayload
	if err := json.Unmarshal(respBody, &payload); err == nil && (payload.ErrorCode != "" || payload.ErrorMessage != "") {
		return failure(payload.ErrorCode, payload.ErrorMessage)
	}
	return failure(fmt.Sprintf("http_%d", resp.StatusCode), strings.TrimSpace(string(respBody)))
}
