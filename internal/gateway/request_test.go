package gateway

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	return NewClient(Config{
		CompanyToken:  "COMPANY-TOKEN",
		APIURL:        "https://gateway.example.com/API/v6/",
		PayURL:        "https://gateway.example.com/pay?ID=",
		TimeoutMs:     1000,
		TokenTTLHours: 96,
		ServiceType:   "5525",
	}, slog.Default())
}

func validTokenRequest() TokenRequest {
	return TokenRequest{
		Amount:             150000,
		Currency:           "TZS",
		CompanyRef:         "BOOKING-42",
		RedirectURL:        "https://hotel.example.com/checkout/done",
		BackURL:            "https://hotel.example.com/checkout",
		ServiceDescription: "Deluxe Room, 2 nights",
		CustomerFirstName:  "Asha",
		CustomerLastName:   "Mushi",
		CustomerEmail:      "asha@example.com",
		CustomerPhone:      "+255700000000",
	}
}

func TestBuildCreateToken_RequiredTagsAppearOnce(t *testing.T) {
	payload, err := testClient().buildCreateToken(validTokenRequest(), time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	doc := string(payload)
	for _, tag := range []string{
		"CompanyToken", "Request", "PaymentAmount", "PaymentCurrency", "CompanyRef",
		"RedirectURL", "BackURL", "CompanyRefUnique", "PTL",
		"customerFirstName", "customerLastName", "customerEmail", "customerPhone",
		"ServiceType", "ServiceDescription", "ServiceDate",
	} {
		assert.Equal(t, 1, strings.Count(doc, "<"+tag+">"), "tag %s", tag)
		assert.Equal(t, 1, strings.Count(doc, "</"+tag+">"), "closing tag %s", tag)
	}

	assert.Contains(t, doc, "<Request>createToken</Request>")
	assert.Contains(t, doc, "<ServiceDate>2026/08/31</ServiceDate>")
	assert.Contains(t, doc, "<PTL>96</PTL>")
}

func TestBuildCreateToken_ElementOrder(t *testing.T) {
	payload, err := testClient().buildCreateToken(validTokenRequest(), time.Now())
	require.NoError(t, err)

	doc := string(payload)
	ordered := []string{"<CompanyToken>", "<Request>", "<Transaction>", "<PaymentAmount>", "<PaymentCurrency>",
		"<CompanyRef>", "<RedirectURL>", "<BackURL>", "<CompanyRefUnique>", "<PTL>",
		"<customerFirstName>", "<Services>", "<ServiceType>"}

	last := -1
	for _, tag := range ordered {
		idx := strings.Index(doc, tag)
		assert.Greater(t, idx, last, "tag %s out of order", tag)
		last = idx
	}
}

func TestBuildCreateToken_EscapesUserFields(t *testing.T) {
	req := validTokenRequest()
	req.CustomerFirstName = `Fish & Chips <"Ltd">`
	req.ServiceDescription = "Bed & Breakfast"

	payload, err := testClient().buildCreateToken(req, time.Now())
	require.NoError(t, err)

	doc := string(payload)
	assert.Contains(t, doc, "Fish &amp; Chips")
	assert.Contains(t, doc, "Bed &amp; Breakfast")
	assert.NotContains(t, doc, "Fish & Chips")
	assert.NotContains(t, doc, `<"Ltd">`)
}

func TestBuildCreateToken_AmountTwoDecimals(t *testing.T) {
	tests := []struct {
		amount   float64
		expected string
	}{
		{10, "<PaymentAmount>10.00</PaymentAmount>"},
		{99.9, "<PaymentAmount>99.90</PaymentAmount>"},
		{150000.456, "<PaymentAmount>150000.46</PaymentAmount>"},
	}

	for _, tt := range tests {
		req := validTokenRequest()
		req.Amount = tt.amount

		payload, err := testClient().buildCreateToken(req, time.Now())
		require.NoError(t, err)
		assert.Contains(t, string(payload), tt.expected)
	}
}

func TestBuildCreateToken_OmitsEmptyOptionalFields(t *testing.T) {
	payload, err := testClient().buildCreateToken(validTokenRequest(), time.Now())
	require.NoError(t, err)

	doc := string(payload)
	assert.NotContains(t, doc, "<customerAddress>")
	assert.NotContains(t, doc, "<customerZip>")
}

func TestBuildVerifyToken(t *testing.T) {
	payload, err := testClient().buildVerifyToken("TOKEN123")
	require.NoError(t, err)

	doc := string(payload)
	assert.Contains(t, doc, "<Request>verifyToken</Request>")
	assert.Contains(t, doc, "<TransactionToken>TOKEN123</TransactionToken>")
	assert.NotContains(t, doc, "<Transaction>")
	assert.NotContains(t, doc, "<Services>")
}

func TestTokenRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TokenRequest)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(r *TokenRequest) {},
		},
		{
			name:    "zero amount",
			mutate:  func(r *TokenRequest) { r.Amount = 0 },
			wantErr: "amount must be positive",
		},
		{
			name:    "negative amount",
			mutate:  func(r *TokenRequest) { r.Amount = -5 },
			wantErr: "amount must be positive",
		},
		{
			name:    "relative redirect URL",
			mutate:  func(r *TokenRequest) { r.RedirectURL = "/checkout/done" },
			wantErr: "redirect URL",
		},
		{
			name:    "non-http back URL",
			mutate:  func(r *TokenRequest) { r.BackURL = "ftp://hotel.example.com" },
			wantErr: "back URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validTokenRequest()
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
