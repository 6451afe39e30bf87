package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCode is returned for instrument codes that are not six-digit A-share codes.
var ErrInvalidCode = errors.New("invalid A-share code")

// Exchange identifies the listing exchange of an A-share code.
type Exchange string

const (
	ExchangeSH Exchange = "SH"
	ExchangeSZ Exchange = "SZ"
	ExchangeBJ Exchange = "BJ"
)

// NormalizeCode reduces user input such as "SZ002366", "sh600519", "600519.SH" or
// " 600519 " to the bare six-digit code.
func NormalizeCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	for _, ex := range []Exchange{ExchangeSH, ExchangeSZ, ExchangeBJ} {
		c = strings.TrimPrefix(c, string(ex))
		c = strings.TrimSuffix(c, "."+string(ex))
	}
	if len(c) != 6 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	for _, r := range c {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q", ErrInvalidCode, code)
		}
	}
	return c, nil
}

// ExchangeOf infers the exchange from a bare six-digit code.
// 6xxxxx / 5xxxxx / 9xxxxx list in Shanghai, 4xxxxx / 8xxxxx in Beijing, the rest in Shenzhen.
func ExchangeOf(code string) Exchange {
	if code == "" {
		return ExchangeSZ
	}
	switch code[0] {
	case '6', '5', '9':
		return ExchangeSH
	case '4', '8':
		return ExchangeBJ
	default:
		return ExchangeSZ
	}
}

// SecID converts an instrument code into the EastMoney "market.code" identifier,
// e.g. "600519" → "1.600519", "SZ002366" → "0.002366".
func SecID(code string) (string, error) {
	c, err := NormalizeCode(code)
	if err != nil {
		return "", err
	}
	if ExchangeOf(c) == ExchangeSH {
		return "1." + c, nil
	}
	return "0." + c, nil
}
