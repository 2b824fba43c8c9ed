package gateway

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

const (
	requestCreateToken = "createToken"
	requestVerifyToken = "verifyToken"

	serviceDateLayout = "2006/01/02"
)

// TokenRequest is a typed payment token request. Amount is denominated in
// Currency; the caller decides the charge currency (normally the ledger one).
type TokenRequest struct {
	Amount             float64
	Currency           string
	CompanyRef         string
	RedirectURL        string
	BackURL            string
	ServiceDescription string
	CustomerFirstName  string
	CustomerLastName   string
	CustomerEmail      string
	CustomerPhone      string
	CustomerAddress    string
	CustomerCity       string
	CustomerCountry    string
	CustomerZip        string
}

// Validate enforces the request invariants before any XML is built.
func (r TokenRequest) Validate() error {
	if r.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if err := validateURL(r.RedirectURL); err != nil {
		return errors.Wrap(err, "redirect URL")
	}
	if err := validateURL(r.BackURL); err != nil {
		return errors.Wrap(err, "back URL")
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return nil
}

// apiRequest is the gateway's request envelope. Element order is part of the
// wire contract and must not change.
type apiRequest struct {
	XMLName          xml.Name     `xml:"API3G"`
	CompanyToken     string       `xml:"CompanyToken"`
	Request          string       `xml:"Request"`
	TransactionToken string       `xml:"TransactionToken,omitempty"`
	Transaction      *transaction `xml:"Transaction,omitempty"`
	Services         *services    `xml:"Services,omitempty"`
}

type transaction struct {
	PaymentAmount     string `xml:"PaymentAmount"`
	PaymentCurrency   string `xml:"PaymentCurrency"`
	CompanyRef        string `xml:"CompanyRef"`
	RedirectURL       string `xml:"RedirectURL"`
	BackURL           string `xml:"BackURL"`
	CompanyRefUnique  string `xml:"CompanyRefUnique"`
	PTL               string `xml:"PTL"`
	CustomerFirstName string `xml:"customerFirstName"`
	CustomerLastName  string `xml:"customerLastName"`
	CustomerEmail     string `xml:"customerEmail"`
	CustomerPhone     string `xml:"customerPhone"`
	CustomerAddress   string `xml:"customerAddress,omitempty"`
	CustomerCity      string `xml:"customerCity,omitempty"`
	CustomerCountry   string `xml:"customerCountry,omitempty"`
	CustomerZip       string `xml:"customerZip,omitempty"`
}

type services struct {
	Service service `xml:"Service"`
}

type service struct {
	ServiceType        string `xml:"ServiceType"`
	ServiceDescription string `xml:"ServiceDescription"`
	ServiceDate        string `xml:"ServiceDate"`
}

func (c *Client) buildCreateToken(req TokenRequest, now time.Time) ([]byte, error) {
	doc := apiRequest{
		CompanyToken: c.cfg.CompanyToken,
		Request:      requestCreateToken,
		Transaction: &transaction{
			PaymentAmount:     fmt.Sprintf("%.2f", req.Amount),
			PaymentCurrency:   req.Currency,
			CompanyRef:        req.CompanyRef,
			RedirectURL:       req.RedirectURL,
			BackURL:           req.BackURL,
			CompanyRefUnique:  "1",
			PTL:               fmt.Sprintf("%d", c.cfg.TokenTTLHours),
			CustomerFirstName: req.CustomerFirstName,
			CustomerLastName:  req.CustomerLastName,
			CustomerEmail:     req.CustomerEmail,
			CustomerPhone:     req.CustomerPhone,
			CustomerAddress:   req.CustomerAddress,
			CustomerCity:      req.CustomerCity,
			CustomerCountry:   req.CustomerCountry,
			CustomerZip:       req.CustomerZip,
		},
		Services: &services{
			Service: service{
				ServiceType:        c.cfg.ServiceType,
				ServiceDescription: req.ServiceDescription,
				ServiceDate:        now.Format(serviceDateLayout),
			},
		},
	}

	return marshalRequest(doc)
}

func (c *Client) buildVerifyToken(token string) ([]byte, error) {
	doc := apiRequest{
		CompanyToken:     c.cfg.CompanyToken,
		Request:          requestVerifyToken,
		TransactionToken: token,
	}

	return marshalRequest(doc)
}

func marshalRequest(doc apiRequest) ([]byte, error) {
	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling gateway request")
	}
	return append([]byte(xml.Header), body...), nil
}
