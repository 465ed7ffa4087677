package services

import (
	"context"
	"strings"

	"github.com/mkfin/banking-backend/internal/dto"
	"github.com/mkfin/banking-backend/internal/errs"
	"github.com/mkfin/banking-backend/internal/models"
	"github.com/mkfin/banking-backend/internal/statement"
	"github.com/mkfin/banking-backend/pkg/logger"
)

// --- Dependencies (minimal interfaces scoped to this service) ---

type accountImportStore interface {
	Get(ctx context.Context, companyID, accountID string) (*models.BankAccount, error)
}

type importIngestor interface {
	Ingest(ctx context.Context, companyID string, account *models.BankAccount, raws []RawTransaction, source string) (IngestCounts, error)
}

type importService struct {
	accounts accountImportStore
	ingest   importIngestor
}

func NewImportService(accounts accountImportStore, ingest importIngestor) *importService {
	return &importService{accounts: accounts, ingest: ingest}
}

// ImportStatement parses an uploaded statement file into the target
// account. The parser is picked by the explicit format when given,
// otherwise by probing the content. Unparseable rows are skipped and
// counted; a single bad line never aborts the file.
func (s *importService) ImportStatement(ctx context.Context, companyID, accountID string, contents []byte, format string) (dto.ImportResult, error) {
	result := dto.ImportResult{AccountID: accountID}

	account, err := s.accounts.Get(ctx, companyID, accountID)
	if err != nil {
		return result, err
	}

	text := statement.NormalizeEncoding(contents)
	var parser statement.Parser
	if format != "" {
		parser = statement.ByBankCode(format)
	} else {
		parser = statement.Detect(text)
	}
	result.BankCode = parser.BankCode()

	records, err := parser.Parse(text)
	if err != nil {
		return result, err
	}
	if len(records) == 0 {
		return result, errs.NewParseError("no transactions found in statement")
	}
	result.Skipped = skippedRows(text, parser, len(records))

	raws := make([]RawTransaction, 0, len(records))
	for _, rec := range records {
		raws = append(raws, RawTransaction{
			ExternalID:       rec.Reference,
			Date:             rec.Date,
			Amount:           rec.Amount,
			Currency:         rec.Currency,
			Description:      rec.Description,
			CounterpartyName: rec.CounterpartyName,
			CreditorAccount:  rec.CounterpartyAccount,
		})
	}

	counts, err := s.ingest.Ingest(ctx, companyID, account, raws, models.SourceFileImport)
	result.Imported = counts.Imported
	result.Duplicates = counts.Duplicates
	if err != nil {
		return result, err
	}

	logger.FromContext(ctx).Info("statement imported",
		"company_id", companyID,
		"account_id", accountID,
		"bank_code", result.BankCode,
		"imported", result.Imported,
		"duplicates", result.Duplicates,
		"skipped", result.Skipped,
	)
	return result, nil
}

// skippedRows estimates how many candidate rows the parser dropped,
// surfaced so a silently tolerated bad row is at least visible in the
// result counts.
func skippedRows(content string, parser statement.Parser, parsed int) int {
	candidates := 0
	if parser.BankCode() == "mt940" && strings.Contains(content, ":61:") {
		for _, line := range strings.Split(content, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), ":61:") {
				candidates++
			}
		}
	} else {
		lines := 0
		for _, line := range strings.Split(content, "\n") {
			if strings.TrimSpace(line) != "" {
				lines++
			}
		}
		candidates = lines - 1 // header
	}
	if skipped := candidates - parsed; skipped > 0 {
		return skipped
	}
	return 0
}
