package fingerprint

import (
	"strings"
	"testing"
	"time"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestGenerateDeterministic(t *testing.T) {
	in := Input{
		CompanyID:   "company-1",
		AccountID:   "acct-1",
		Date:        date("2025-03-14"),
		Amount:      "1250.00",
		Currency:    "MKD",
		Description: "Uplata po faktura 102/25",
	}

	a := Generate(in)
	b := Generate(in)
	if a != b {
		t.Fatalf("same input hashed differently: %s vs %s", a, b)
	}
	if len(a) != 64 || a != strings.ToLower(a) {
		t.Fatalf("digest not 64-char lowercase hex: %q", a)
	}
}

func TestGenerateExternalIDPriority(t *testing.T) {
	a := Generate(Input{
		CompanyID:   "company-1",
		ExternalID:  "TXN-555",
		AccountID:   "acct-1",
		Amount:      "100.00",
		Description: "first channel",
	})
	b := Generate(Input{
		CompanyID:   "company-1",
		ExternalID:  "TXN-555",
		AccountID:   "acct-2",
		Amount:      "999.99",
		Description: "completely different row",
	})
	if a != b {
		t.Fatalf("same external id produced different digests")
	}

	other := Generate(Input{CompanyID: "company-2", ExternalID: "TXN-555"})
	if other == a {
		t.Fatalf("digest leaked across companies")
	}
}

func TestGenerateCompositeFieldSensitivity(t *testing.T) {
	base := Input{
		CompanyID:   "company-1",
		AccountID:   "acct-1",
		Date:        date("2025-03-14"),
		Amount:      "500.00",
		Currency:    "MKD",
		Description: "plata mart",
	}

	mutations := map[string]func(Input) Input{
		"company":  func(in Input) Input { in.CompanyID = "company-2"; return in },
		"account":  func(in Input) Input { in.AccountID = "acct-2"; return in },
		"date":     func(in Input) Input { in.Date = date("2025-03-15"); return in },
		"amount":   func(in Input) Input { in.Amount = "-500.00"; return in },
		"currency": func(in Input) Input { in.Currency = "EUR"; return in },
	}

	want := Generate(base)
	for name, mutate := range mutations {
		if got := Generate(mutate(base)); got == want {
			t.Errorf("changing %s did not change the digest", name)
		}
	}
}

func TestGenerateEmptyRecord(t *testing.T) {
	a := Generate(Input{})
	b := Generate(Input{})
	if a != b || len(a) != 64 {
		t.Fatalf("empty record digest unstable or malformed: %q %q", a, b)
	}
}

func TestNormalizeAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1000", "1000.00"},
		{"1000.00", "1000.00"},
		{"1000.0", "1000.00"},
		{"-500", "-500.00"},
		{"500", "500.00"},
		{"0.5", "0.50"},
		{"  42 ", "42.00"},
		{"", ""},
		{"not-a-number", "not-a-number"},
	}
	for _, tc := range cases {
		if got := NormalizeAmount(tc.in); got != tc.want {
			t.Errorf("NormalizeAmount(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if NormalizeAmount("500") == NormalizeAmount("-500") {
		t.Errorf("sign was not preserved")
	}
}

func TestNormalizeDescription(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Payment From JOHN", "payment from john"},
		{"payment   from\tjohn", "payment from john"},
		{"Уплата ПО Фактура 102/25", "уплата по фактура 10225"},
		{"УПЛАТА ПО ФАКТУРА 102/25", "уплата по фактура 10225"},
		{"inv#102 -- (march)", "inv102 march"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeDescription(tc.in); got != tc.want {
			t.Errorf("NormalizeDescription(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	long := strings.Repeat("a", 250)
	if got := NormalizeDescription(long); len([]rune(got)) != 100 {
		t.Errorf("long description not truncated to 100 runes, got %d", len([]rune(got)))
	}
}

func TestCounterpartyPreference(t *testing.T) {
	base := Input{CompanyID: "c", AccountID: "a", Amount: "10"}

	withCreditorIBAN := base
	withCreditorIBAN.CreditorIBAN = "MK07200000000000001"
	withCreditorIBAN.DebtorIBAN = "MK07200000000000002"

	creditorOnly := base
	creditorOnly.CreditorIBAN = "MK07200000000000001"

	if Generate(withCreditorIBAN) != Generate(creditorOnly) {
		t.Fatalf("creditor IBAN should win over debtor IBAN")
	}

	debtorAcct := base
	debtorAcct.DebtorAccount = "300000000000123"
	if Generate(debtorAcct) == Generate(base) {
		t.Fatalf("debtor account number was ignored")
	}
}
