package gateway

import (
	"regexp"
	"strings"
	"sync"
)

const (
	ResultSuccess  = "000"
	cdnBlockMarker = "CloudFront"

	snippetLimit = 200
)

// TokenResult is a successfully issued payment token.
type TokenResult struct {
	TransToken string
	TransRef   string
	PaymentURL string
}

// VerifyResult holds the fields of a verifyToken response as the gateway
// reported them, including non-success result codes.
type VerifyResult struct {
	Result              string `json:"result"`
	ResultExplanation   string `json:"resultExplanation"`
	TransToken          string `json:"transToken"`
	TransRef            string `json:"transRef"`
	TransactionAmount   string `json:"transactionAmount"`
	TransactionCurrency string `json:"transactionCurrency"`
}

var (
	tagRegexps   = map[string]*regexp.Regexp{}
	tagRegexpsMu sync.Mutex
)

// extractTag returns the content of the first occurrence of <tag>...</tag>,
// matching across newlines. The gateway intermixes XML and HTML error pages,
// so a full XML parse is deliberately not attempted here.
func extractTag(body, tag string) string {
	tagRegexpsMu.Lock()
	re, ok := tagRegexps[tag]
	if !ok {
		re = regexp.MustCompile(`(?s)<` + tag + `>(.*?)</` + tag + `>`)
		tagRegexps[tag] = re
	}
	tagRegexpsMu.Unlock()

	m := re.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return m[1]
}

func (c *Client) parseTokenResponse(body string, statusCode int) (*TokenResult, error) {
	result := extractTag(body, "Result")
	token := extractTag(body, "TransToken")

	if result == ResultSuccess && token != "" {
		return &TokenResult{
			TransToken: token,
			TransRef:   extractTag(body, "TransRef"),
			PaymentURL: c.cfg.PayURL + token,
		}, nil
	}

	if result == "" {
		if strings.Contains(body, cdnBlockMarker) {
			return nil, &BlockedError{}
		}
		return nil, &MalformedResponseError{StatusCode: statusCode, Snippet: snippet(body)}
	}

	if result != ResultSuccess {
		return nil, &RejectedError{Code: result, Explanation: extractTag(body, "ResultExplanation")}
	}

	// Result was 000 but no token came with it.
	return nil, &MalformedResponseError{StatusCode: statusCode, Snippet: "success result without TransToken"}
}

func parseVerifyResponse(body string, statusCode int) (*VerifyResult, error) {
	result := extractTag(body, "Result")

	if result == "" {
		if strings.Contains(body, cdnBlockMarker) {
			return nil, &BlockedError{}
		}
		return nil, &MalformedResponseError{StatusCode: statusCode, Snippet: snippet(body)}
	}

	return &VerifyResult{
		Result:              result,
		ResultExplanation:   extractTag(body, "ResultExplanation"),
		TransToken:          extractTag(body, "TransToken"),
		TransRef:            extractTag(body, "TransRef"),
		TransactionAmount:   extractTag(body, "TransactionAmount"),
		TransactionCurrency: extractTag(body, "TransactionCurrency"),
	}, nil
}

// snippet extracts an HTML error page title when one exists, otherwise a
// truncated copy of the body for diagnostics.
func snippet(body string) string {
	if title := extractTag(body, "TITLE"); title != "" {
		return title
	}
	trimmed := strings.TrimSpace(body)
	if len(trimmed) > snippetLimit {
		return trimmed[:snippetLimit]
	}
	return trimmed
}
