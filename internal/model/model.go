package model

// TokenRequest is the JSON body accepted by POST /api/payments/token.
type TokenRequest struct {
	Amount             float64 `json:"amount"`
	CompanyRef         string  `json:"companyRef"`
	CustomerFirstName  string  `json:"customerFirstName"`
	CustomerLastName   string  `json:"customerLastName"`
	CustomerEmail      string  `json:"customerEmail"`
	CustomerPhone      string  `json:"customerPhone"`
	RedirectURL        string  `json:"redirectURL"`
	BackURL            string  `json:"backURL"`
	ServiceDescription string  `json:"serviceDescription"`
	CustomerAddress    string  `json:"customerAddress,omitempty"`
	CustomerCity       string  `json:"customerCity,omitempty"`
	CustomerCountry    string  `json:"customerCountry,omitempty"`
	CustomerZip        string  `json:"customerZip,omitempty"`
}

// TokenResponse is the tagged success/failure envelope returned for token
// requests.
type TokenResponse struct {
	Success    bool   `json:"success"`
	TransToken string `json:"transToken,omitempty"`
	TransRef   string `json:"transRef,omitempty"`
	PaymentURL string `json:"paymentURL,omitempty"`
	Error      string `json:"error,omitempty"`
}

// VerifyRequest is the JSON body accepted by POST /api/payments/verify.
type VerifyRequest struct {
	Token string `json:"token"`
}

// CurrencySettings mirrors the persisted exchange rate document.
type CurrencySettings struct {
	BaseCurrency  string             `json:"baseCurrency"`
	ExchangeRates map[string]float64 `json:"exchangeRates"`
}

// ConvertResponse is returned by GET /api/currency/convert.
type ConvertResponse struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Formatted string  `json:"formatted"`
}
