package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// LinkPayload is the portion of a payment request carried inside a shareable
// link. Encoding and parsing are exact inverses of each other: a link produced
// by one session must reconstruct the identical payload in any other.
type LinkPayload struct {
	ID        string
	Amount    string
	Recipient string
	Memo      string
}

// EncodeShareableLink builds `<base>/pay?id=...&amount=...&recipient=...&memo=...`.
func EncodeShareableLink(baseURL string, p LinkPayload) string {
	params := url.Values{}
	params.Set("id", p.ID)
	params.Set("amount", p.Amount)
	params.Set("recipient", p.Recipient)
	params.Set("memo", p.Memo)
	return strings.TrimRight(baseURL, "/") + "/pay?" + params.Encode()
}

// ParseShareableLink reconstructs the payload from a link produced by
// EncodeShareableLink.
func ParseShareableLink(link string) (LinkPayload, error) {
	u, err := url.Parse(link)
	if err != nil {
		return LinkPayload{}, fmt.Errorf("invalid link: %w", err)
	}

	q := u.Query()
	p := LinkPayload{
		ID:        q.Get("id"),
		Amount:    q.Get("amount"),
		Recipient: q.Get("recipient"),
		Memo:      q.Get("memo"),
	}
	if p.ID == "" {
		return LinkPayload{}, fmt.Errorf("link is missing the id parameter")
	}
	return p, nil
}

// ExplorerTxLink resolves a transaction reference against an explorer base URL.
// Pure string concatenation, no network call.
func ExplorerTxLink(explorerBaseURL, txRef string) string {
	if explorerBaseURL == "" || txRef == "" {
		return ""
	}
	return strings.TrimRight(explorerBaseURL, "/") + "/tx/" + txRef
}
