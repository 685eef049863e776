package paynow

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"wallet-service/src/internal/entity"
	"wallet-service/src/pkg/log"

	"github.com/spf13/viper"
)

// Statuses reported by the gateway in poll responses and webhooks.
const (
	StatusPaid             = "Paid"
	StatusAwaitingDelivery = "Awaiting Delivery"
	StatusCancelled        = "Cancelled"
	StatusCreated          = "Created"
	StatusSent             = "Sent"
)

type Client struct {
	IntegrationID  string
	IntegrationKey string
	InitiateURL    string
	ResultURL      string
	ReturnURL      string
	HTTPClient     *http.Client
	Log            log.Log
}

type InitiateResult struct {
	RedirectURL string
	PollURL     string
}

type StatusResult struct {
	Status          string
	Paid            bool
	Reference       string
	PaynowReference string
	Amount          float64
}

func NewClient(v *viper.Viper, logger log.Log) *Client {
	timeout := v.GetDuration("paynow.timeout")
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		IntegrationID:  v.GetString("paynow.integration_id"),
		IntegrationKey: v.GetString("paynow.integration_key"),
		InitiateURL:    v.GetString("paynow.initiate_url"),
		ResultURL:      v.GetString("paynow.result_url"),
		ReturnURL:      v.GetString("paynow.return_url"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		Log: logger,
	}
}

// Initiate creates a hosted payment and returns the browser redirect URL
// together with the poll URL the caller must persist.
func (c *Client) Initiate(ctx context.Context, reference, email string, amount float64, description string) (*InitiateResult, error) {
	form := url.Values{}
	form.Set("id", c.IntegrationID)
	form.Set("reference", reference)
	form.Set("amount", strconv.FormatFloat(amount, 'f', 2, 64))
	form.Set("additionalinfo", description)
	form.Set("returnurl", c.ReturnURL)
	form.Set("resulturl", c.ResultURL)
	form.Set("authemail", email)
	form.Set("status", "Message")
	form.Set("hash", c.hash(form))

	body, err := c.post(ctx, c.InitiateURL, form)
	if err != nil {
		return nil, err
	}

	values, err := url.ParseQuery(body)
	if err != nil {
		return nil, fmt.Errorf("malformed gateway response: %w", err)
	}

	if !strings.EqualFold(values.Get("status"), "Ok") {
		return nil, fmt.Errorf("gateway rejected initiation: %s", values.Get("error"))
	}

	return &InitiateResult{
		RedirectURL: values.Get("browserurl"),
		PollURL:     values.Get("pollurl"),
	}, nil
}

// CheckStatus polls the gateway. A timeout means the payment state is
// unknown, not failed; callers should poll again later.
func (c *Client) CheckStatus(ctx context.Context, pollURL string) (*StatusResult, error) {
	body, err := c.post(ctx, pollURL, url.Values{})
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, entity.ErrPaymentStatusUnknown
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, entity.ErrPaymentStatusUnknown
		}
		return nil, err
	}

	values, err := url.ParseQuery(body)
	if err != nil {
		return nil, fmt.Errorf("malformed poll response: %w", err)
	}

	status := values.Get("status")
	amount, _ := strconv.ParseFloat(values.Get("amount"), 64)

	return &StatusResult{
		Status:          status,
		Paid:            status == StatusPaid || status == StatusAwaitingDelivery,
		Reference:       values.Get("reference"),
		PaynowReference: values.Get("paynowreference"),
		Amount:          amount,
	}, nil
}

// VerifyHash validates a webhook payload against the integration key.
func (c *Client) VerifyHash(values url.Values) bool {
	received := values.Get("hash")
	if received == "" {
		return false
	}
	return strings.EqualFold(received, c.hash(values))
}

// hash is the SHA512 over every field value except the hash itself, in
// sorted field order, followed by the integration key.
func (c *Client) hash(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if strings.EqualFold(key, "hash") {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		sb.WriteString(values.Get(key))
	}
	sb.WriteString(c.IntegrationKey)

	sum := sha512.Sum512([]byte(sb.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func (c *Client) post(ctx context.Context, endpoint string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	return string(data), nil
}
