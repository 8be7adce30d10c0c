package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coopdash/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestSMSClient(t *testing.T, rt roundTripFunc) *SMSClient {
	t.Helper()
	cfg := config.Config{
		SMSAPIBaseURL: "https://sms.example.test/",
		SMSAPIKey:     "key",
		SMSAPISecret:  "secret",
		SMSSender:     "010-9999-8888",
		SMSTimeoutMs:  1000,
	}
	c, err := NewSMSClient(cfg)
	require.NoError(t, err)
	c.httpClient = &http.Client{Transport: rt}
	c.now = func() time.Time { return time.Date(2026, 2, 8, 9, 0, 0, 0, time.UTC) }
	c.salt = func() string { return "salt-1" }
	return c
}

func TestSMSSendSignsRequest(t *testing.T) {
	var gotAuth string
	var gotBody map[string]map[string]string
	c := newTestSMSClient(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/messages/v4/send", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		blob, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(blob, &gotBody))
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(`{}`)), Header: make(http.Header)}, nil
	})

	require.NoError(t, c.Send(context.Background(), "1012345678", "발주 요청"))

	sig := Signature("secret", "2026-02-08T09:00:00Z", "salt-1")
	assert.Equal(t, "HMAC-SHA256 apiKey=key, date=2026-02-08T09:00:00Z, salt=salt-1, signature="+sig, gotAuth)
	assert.Len(t, sig, 64)
	assert.Equal(t, "01012345678", gotBody["message"]["to"])
	assert.Equal(t, "01099998888", gotBody["message"]["from"])
	assert.Equal(t, "발주 요청", gotBody["message"]["text"])
}

func TestSMSSendErrorPayload(t *testing.T) {
	c := newTestSMSClient(t, func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadRequest,
			Body:       io.NopCloser(strings.NewReader(`{"errorCode":"ValidationError","errorMessage":"invalid to"}`)),
			Header:     make(http.Header),
		}, nil
	})

	err := c.Send(context.Background(), "01012345678", "hi")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDispatchFailure))
	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "ValidationError", f.Code)
	assert.Equal(t, "invalid to", f.Reason)
}

func TestSMSSendInvalidNumberSkipsRequest(t *testing.T) {
	c := newTestSMSClient(t, func(r *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected request")
		return nil, nil
	})
	err := c.Send(context.Background(), "nan", "hi")
	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "invalid_number", f.Code)
}

func TestNewSMSClientRequiresCredentials(t *testing.T) {
	_, err := NewSMSClient(config.Config{SMSAPIKey: "k"})
	assert.Error(t, err)
}
