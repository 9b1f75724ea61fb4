package services

import "strings"

// TestCardKind says how a raw test card number is handled outside production
type TestCardKind int

const (
	// TestCardSynthetic numbers never reach the gateway; a succeeded intent is fabricated.
	TestCardSynthetic TestCardKind = iota
	// TestCardToken numbers map to a gateway test payment method and are charged for real.
	TestCardToken
	// TestCardDecline numbers fail locally with a gateway-style error code.
	TestCardDecline
)

// TestCard is the resolved handling of a test card number
type TestCard struct {
	Kind    TestCardKind
	Token   string
	Code    string
	Message string
}

var declineCards = map[string]TestCard{
	"4000000000000002": {Kind: TestCardDecline, Code: "card_declined", Message: "Your card was declined."},
	"4000000000009995": {Kind: TestCardDecline, Code: "insufficient_funds", Message: "Your card has insufficient funds."},
	"4000000000000069": {Kind: TestCardDecline, Code: "expired_card", Message: "Your card has expired."},
}

var tokenCards = map[string]string{
	"4242424242424242": "pm_card_visa",
	"4000056655665556": "pm_card_visa_debit",
	"5555555555554444": "pm_card_mastercard",
	"2223003122003222": "pm_card_mastercard",
	"5200828282828210": "pm_card_mastercard",
	"378282246310005":  "pm_card_amex",
	"371449635398431":  "pm_card_amex",
}

// ResolveTestCard classifies a raw card number. Spaces and dashes are ignored.
func ResolveTestCard(number string) TestCard {
	n := strings.NewReplacer(" ", "", "-", "").Replace(number)
	if c, ok := declineCards[n]; ok {
		return c
	}
	if token, ok := tokenCards[n]; ok {
		return TestCard{Kind: TestCardToken, Token: token}
	}
	if strings.HasPrefix(n, "4242") {
		return TestCard{Kind: TestCardToken, Token: "pm_card_visa"}
	}
	return TestCard{Kind: TestCardSynthetic}
}

// Error returns the gateway-style error for a declining card, nil otherwise.
func (c TestCard) Error() *GatewayError {
	if c.Kind != TestCardDecline {
		return nil
	}
	return &GatewayError{Type: "card_error", Code: c.Code, Message: c.Message, HTTPStatus: 402}
}
