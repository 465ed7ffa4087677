package statement

import "strings"

// knownParsers are the bank-specific strategies, probed in order.
// Fresh instances every call: the generic parser carries detection
// state and must not be shared.
func knownParsers() []Parser {
	return []Parser{
		NewNLB(),
		NewStopanska(),
		NewKomercijalna(),
		NewMT940(),
	}
}

// ByBankCode returns the parser registered under the given code, or
// the generic fallback for an unknown one.
func ByBankCode(code string) Parser {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, p := range knownParsers() {
		if p.BankCode() == code {
			return p
		}
	}
	return NewGeneric()
}

// Detect probes each known parser against the raw content and falls
// back to the generic parser when none claims it.
func Detect(content string) Parser {
	for _, p := range knownParsers() {
		if p.CanParse(content) {
			return p
		}
	}
	return NewGeneric()
}

type BankInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// SupportedBanks lists the formats with a dedicated parser; the
// generic fallback is not advertised.
func SupportedBanks() []BankInfo {
	var banks []BankInfo
	for _, p := range knownParsers() {
		banks = append(banks, BankInfo{Code: p.BankCode(), Name: p.BankName()})
	}
	return banks
}
