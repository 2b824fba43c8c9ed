package gateway

import (
	"context"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCreateToken(t *testing.T) {
	tests := []struct {
		name         string
		mockResponse func()
		check        func(t *testing.T, result *TokenResult, err error)
	}{
		{
			name: "success",
			mockResponse: func() {
				gock.New("https://gateway.example.com").
					Post("/API/v6/").
					MatchHeader("Content-Type", "application/xml").
					Reply(200).
					BodyString(`<API3G><Result>000</Result><TransToken>ABC123</TransToken><TransRef>REF-9</TransRef></API3G>`)
			},
			check: func(t *testing.T, result *TokenResult, err error) {
				require.NoError(t, err)
				assert.Equal(t, "ABC123", result.TransToken)
				assert.Contains(t, result.PaymentURL, "ABC123")
			},
		},
		{
			name: "gateway rejects",
			mockResponse: func() {
				gock.New("https://gateway.example.com").
					Post("/API/v6/").
					Reply(200).
					BodyString(`<API3G><Result>904</Result><ResultExplanation>Duplicate CompanyRef</ResultExplanation></API3G>`)
			},
			check: func(t *testing.T, result *TokenResult, err error) {
				require.Error(t, err)
				var rejected *RejectedError
				require.ErrorAs(t, err, &rejected)
				assert.Equal(t, "Duplicate CompanyRef", err.Error())
			},
		},
		{
			name: "cdn block",
			mockResponse: func() {
				gock.New("https://gateway.example.com").
					Post("/API/v6/").
					Reply(403).
					BodyString(cloudFrontBody)
			},
			check: func(t *testing.T, result *TokenResult, err error) {
				require.Error(t, err)
				var blocked *BlockedError
				assert.ErrorAs(t, err, &blocked)
			},
		},
		{
			name: "transport error",
			mockResponse: func() {
				gock.New("https://gateway.example.com").
					Post("/API/v6/").
					ReplyError(assert.AnError)
			},
			check: func(t *testing.T, result *TokenResult, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "submitting token request")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()
			tt.mockResponse()

			result, err := testClient().CreateToken(context.Background(), validTokenRequest())
			tt.check(t, result, err)
			assert.True(t, gock.IsDone())
		})
	}
}

func TestClientVerifyToken(t *testing.T) {
	defer gock.Off()
	gock.New("https://gateway.example.com").
		Post("/API/v6/").
		Reply(200).
		BodyString(`<API3G><Result>000</Result><ResultExplanation>Transaction Paid</ResultExplanation><TransToken>ABC123</TransToken><TransRef>REF-9</TransRef><TransactionAmount>150000.00</TransactionAmount><TransactionCurrency>TZS</TransactionCurrency></API3G>`)

	result, err := testClient().VerifyToken(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "000", result.Result)
	assert.Equal(t, "TZS", result.TransactionCurrency)
	assert.True(t, gock.IsDone())
}
