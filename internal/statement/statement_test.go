package statement

import (
	"math"
	"strings"
	"testing"
	"time"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.001
}

func TestNLBParsesSemicolonStatement(t *testing.T) {
	content := "Датум;Износ;Валута;Опис;Референца;Партнер;Сметка\n" +
		"05.02.2026;15000,00;MKD;Плаќање за фактура INV-001;REF-001;Компанија ДООЕЛ;300000000001234\n" +
		"06.02.2026;-5000,50;MKD;Плаќање на добавувач;REF-002;Добавувач АД;300000000005678\n"

	p := NewNLB()
	if !p.CanParse(content) {
		t.Fatal("NLB parser did not claim its own format")
	}
	if p.BankCode() != "nlb" || p.Delimiter() != ';' {
		t.Fatalf("metadata mismatch: %s %q", p.BankCode(), p.Delimiter())
	}

	records, err := p.Parse(content)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("record count mismatch: got %d", len(records))
	}

	if !almostEqual(records[0].Amount, 15000.00) {
		t.Errorf("credit amount mismatch: got %v", records[0].Amount)
	}
	if records[0].Currency != "MKD" {
		t.Errorf("currency mismatch: got %q", records[0].Currency)
	}
	if !strings.Contains(records[0].Description, "INV-001") {
		t.Errorf("description mismatch: got %q", records[0].Description)
	}
	if records[0].Reference != "REF-001" {
		t.Errorf("reference mismatch: got %q", records[0].Reference)
	}
	if records[0].Date.Format("2006-01-02") != "2026-02-05" {
		t.Errorf("date mismatch: got %s", records[0].Date.Format("2006-01-02"))
	}

	if !almostEqual(records[1].Amount, -5000.50) {
		t.Errorf("debit amount mismatch: got %v", records[1].Amount)
	}
	if records[1].CounterpartyAccount != "300000000005678" {
		t.Errorf("counterparty account mismatch: got %q", records[1].CounterpartyAccount)
	}
}

func TestNLBSplitCreditDebitColumns(t *testing.T) {
	content := "Датум;Кредит;Дебит;Опис;Референца\n" +
		"05.02.2026;10000,00;;Прилив;REF-001\n" +
		"06.02.2026;;3000,00;Одлив;REF-002\n"

	records, err := NewNLB().Parse(content)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("record count mismatch: got %d", len(records))
	}
	if !almostEqual(records[0].Amount, 10000.00) {
		t.Errorf("credit should be positive: got %v", records[0].Amount)
	}
	if !almostEqual(records[1].Amount, -3000.00) {
		t.Errorf("debit should be negative: got %v", records[1].Amount)
	}
}

func TestStopanskaParsesCommaStatement(t *testing.T) {
	content := "Датум,Износ,Валута,Опис,Референца,Партнер\n" +
		"05.02.2026,8500.50,MKD,Incoming payment,REF-101,Client Company\n" +
		"07.02.2026,-2000.00,MKD,Outgoing payment,REF-102,Supplier Ltd\n"

	p := NewStopanska()
	if !p.CanParse(content) {
		t.Fatal("Stopanska parser did not claim its own format")
	}
	if p.BankCode() != "stopanska" || p.Delimiter() != ',' {
		t.Fatalf("metadata mismatch: %s %q", p.BankCode(), p.Delimiter())
	}

	records, err := p.Parse(content)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("record count mismatch: got %d", len(records))
	}
	if !almostEqual(records[0].Amount, 8500.50) || !almostEqual(records[1].Amount, -2000.00) {
		t.Errorf("amounts mismatch: got %v and %v", records[0].Amount, records[1].Amount)
	}
}

func TestKomercijalnaParsesTabStatement(t *testing.T) {
	content := "Датум\tЗадолжување\tОдобрување\tОпис\tБрој на документ\tНазив\n" +
		"05.02.2026\t\t22000,00\tУплата\tDOC-001\tКлиент\n" +
		"06.02.2026\t7500,00\t\tИсплата\tDOC-002\tДобавувач\n"

	p := NewKomercijalna()
	if !p.CanParse(content) {
		t.Fatal("Komercijalna parser did not claim its own format")
	}
	if p.BankCode() != "komercijalna" || p.Delimiter() != '\t' {
		t.Fatalf("metadata mismatch: %s %q", p.BankCode(), p.Delimiter())
	}

	records, err := p.Parse(content)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("record count mismatch: got %d", len(records))
	}
	if !almostEqual(records[0].Amount, 22000.00) {
		t.Errorf("Одобрување should be positive: got %v", records[0].Amount)
	}
	if !almostEqual(records[1].Amount, -7500.00) {
		t.Errorf("Задолжување should be negative: got %v", records[1].Amount)
	}
	if records[0].Reference != "DOC-001" {
		t.Errorf("document number not picked up as reference: got %q", records[0].Reference)
	}
	if records[1].CounterpartyName != "Добавувач" {
		t.Errorf("counterparty name mismatch: got %q", records[1].CounterpartyName)
	}
}

func TestGenericAutoDetectsDelimiter(t *testing.T) {
	semicolon := "date;amount;description\n2026-02-05;1000;Test payment\n"
	p := NewGeneric()
	if !p.CanParse(semicolon) {
		t.Fatal("generic parser rejected semicolon content")
	}
	if p.Delimiter() != ';' {
		t.Fatalf("delimiter detection failed: got %q", p.Delimiter())
	}
	records, err := p.Parse(semicolon)
	if err != nil || len(records) != 1 {
		t.Fatalf("semicolon parse failed: %v, %d records", err, len(records))
	}
	if !almostEqual(records[0].Amount, 1000) {
		t.Errorf("amount mismatch: got %v", records[0].Amount)
	}

	comma := "date,amount,description\n2026-02-05,2000,Another payment\n"
	records2, err := NewGeneric().Parse(comma)
	if err != nil || len(records2) != 1 {
		t.Fatalf("comma parse failed: %v, %d records", err, len(records2))
	}
	if !almostEqual(records2[0].Amount, 2000) {
		t.Errorf("amount mismatch: got %v", records2[0].Amount)
	}
}

func TestGenericSkipsInvalidRows(t *testing.T) {
	content := "date,amount,description\n" +
		"2026-02-05,1000,Valid row\n" +
		"2026-02-06,0,Zero amount row\n" +
		"2026-02-07,,Empty amount row\n" +
		"2026-02-08,2000,Another valid row\n"

	records, err := NewGeneric().Parse(content)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 valid rows, got %d", len(records))
	}
}

func TestGenericRejectsEmptyContent(t *testing.T) {
	p := NewGeneric()
	if p.CanParse("") || p.CanParse("   ") {
		t.Fatal("generic parser claimed empty content")
	}
}

func TestFactoryByBankCode(t *testing.T) {
	cases := map[string]string{
		"nlb":          "nlb",
		"stopanska":    "stopanska",
		"komercijalna": "komercijalna",
		"mt940":        "mt940",
		"unknown":      "generic",
		"NLB":          "nlb",
	}
	for code, want := range cases {
		if got := ByBankCode(code).BankCode(); got != want {
			t.Errorf("ByBankCode(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestFactoryDetectsParser(t *testing.T) {
	nlbContent := "Датум;Износ;Опис\n05.02.2026;1000;Test\n"
	if got := Detect(nlbContent).BankCode(); got != "nlb" {
		t.Errorf("NLB-style content detected as %q", got)
	}

	genericContent := "date,amount,description\n2026-02-05,1000,Test\n"
	if got := Detect(genericContent).BankCode(); got != "generic" {
		t.Errorf("generic content detected as %q", got)
	}
}

func TestSupportedBanksExcludesGeneric(t *testing.T) {
	banks := SupportedBanks()
	if len(banks) == 0 {
		t.Fatal("no supported banks listed")
	}
	codes := map[string]bool{}
	for _, b := range banks {
		codes[b.Code] = true
	}
	for _, want := range []string{"nlb", "stopanska", "komercijalna"} {
		if !codes[want] {
			t.Errorf("missing bank %q", want)
		}
	}
	if codes["generic"] {
		t.Error("generic fallback should not be advertised")
	}
}

func TestParseAmountFormats(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1234.56", 1234.56},
		{"1,234.56", 1234.56},
		{"1.234,56", 1234.56},
		{"15000,00", 15000.00},
		{"-500", -500},
		{"1,234", 1234},
		{"2.500,75 MKD", 2500.75},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if err != nil {
			t.Errorf("ParseAmount(%q) error: %v", tc.in, err)
			continue
		}
		if !almostEqual(got, tc.want) {
			t.Errorf("ParseAmount(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	if _, err := ParseAmount(""); err == nil {
		t.Error("empty amount should error")
	}
	if _, err := ParseAmount("abc"); err == nil {
		t.Error("non-numeric amount should error")
	}
}

func TestParseDateFormats(t *testing.T) {
	cases := map[string]string{
		"05.02.2026":       "2026-02-05",
		"2026-02-05":       "2026-02-05",
		"05/02/2026":       "2026-02-05",
		"01/11/2025":       "2025-11-01",
		"05.02.2026 14:30": "2026-02-05",
	}
	for in, want := range cases {
		got, err := ParseDate(in)
		if err != nil {
			t.Errorf("ParseDate(%q) error: %v", in, err)
			continue
		}
		if got.Format("2006-01-02") != want {
			t.Errorf("ParseDate(%q) = %s, want %s", in, got.Format("2006-01-02"), want)
		}
	}
	if _, err := ParseDate("not a date"); err == nil {
		t.Error("garbage date should error")
	}
}

func TestNormalizeEncodingStripsBOM(t *testing.T) {
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("date,amount\n2026-02-05,100\n")...)
	got := NormalizeEncoding(content)
	if strings.HasPrefix(got, "\uFEFF") {
		t.Error("BOM survived normalization")
	}
	if !strings.HasPrefix(got, "date,amount") {
		t.Errorf("content mangled: %q", got[:20])
	}
}

func TestNormalizeEncodingWindows1251(t *testing.T) {
	// "Датум" encoded as Windows-1251.
	raw := []byte{0xC4, 0xE0, 0xF2, 0xF3, 0xEC}
	got := NormalizeEncoding(raw)
	if got != "Датум" {
		t.Errorf("Windows-1251 decode failed: got %q", got)
	}
}

func TestMT940ParsesTaggedStatement(t *testing.T) {
	content := ":20:STMT-2026-035\n" +
		":25:300000000001234\n" +
		":60F:C260204MKD10000,00\n" +
		":61:2602050205C15000,00NTRF//REF-001\n" +
		":86:Плаќање за фактура INV-001\n" +
		":61:2602060206D5000,50NTRF//REF-002\n" +
		":86:Плаќање на добавувач\n" +
		":62F:C260206MKD19999,50\n"

	p := NewMT940()
	if !p.CanParse(content) {
		t.Fatal("MT940 parser did not claim tagged content")
	}

	records, err := p.Parse(content)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("record count mismatch: got %d", len(records))
	}

	if !almostEqual(records[0].Amount, 15000.00) {
		t.Errorf("credit amount mismatch: got %v", records[0].Amount)
	}
	if records[0].Reference != "REF-001" {
		t.Errorf("reference mismatch: got %q", records[0].Reference)
	}
	if records[0].Date.Format("2006-01-02") != "2026-02-05" {
		t.Errorf("value date mismatch: got %s", records[0].Date.Format("2006-01-02"))
	}
	if !strings.Contains(records[0].Description, "INV-001") {
		t.Errorf("description mismatch: got %q", records[0].Description)
	}
	if !almostEqual(records[1].Amount, -5000.50) {
		t.Errorf("debit amount mismatch: got %v", records[1].Amount)
	}
}

func TestMT940BalanceMismatch(t *testing.T) {
	content := ":20:STMT-1\n" +
		":60F:C260204MKD10000,00\n" +
		":61:260205C100,00NTRF//R1\n" +
		":62F:C260206MKD99999,99\n"

	if _, err := NewMT940().Parse(content); err == nil {
		t.Fatal("balance mismatch went undetected")
	}
}

func TestMT940DelimitedVariant(t *testing.T) {
	content := "Datum,Iznos,Opis,Referenca\n05.02.2026,1500.00,Uplata,REF-9\n"
	records, err := NewMT940().Parse(content)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(records) != 1 || !almostEqual(records[0].Amount, 1500.00) {
		t.Fatalf("delimited variant mismatch: %+v", records)
	}
}

func TestRecordDatesHaveNoTimeOfDay(t *testing.T) {
	d, err := ParseDate("05.02.2026 14:30:00")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if d.Hour() != 0 || d.Minute() != 0 {
		t.Errorf("time of day not discarded: %v", d)
	}
	if !d.Equal(time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date: %v", d)
	}
}
