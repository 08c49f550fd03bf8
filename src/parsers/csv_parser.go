// backend/src/parsers/csv_parser.go
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/username/divifolio/backend/src/models"
	"github.com/username/divifolio/backend/src/security/validation"
)

// ParseResult carries the rows a portfolio CSV yielded. Rows that fail
// validation are reported in Skipped with the reason, never dropped
// silently.
type ParseResult struct {
	Holdings  []models.Holding
	Dividends []models.Dividend
	Skipped   []string
}

// PortfolioCSVParser reads the application's import format: one file mixing
// holding and dividend rows.
//
//	type,ticker,shares,avg_cost_basis,purchase_date,amount_per_share,pay_date,status
//	holding,KO,100,54.20,2022-03-01,,,
//	dividend,KO,,,,0.46,2024-03-15,paid
type PortfolioCSVParser struct{}

func NewPortfolioCSVParser() *PortfolioCSVParser {
	return &PortfolioCSVParser{}
}

const expectedFieldCount = 8

func (p *PortfolioCSVParser) Parse(file io.Reader) (*ParseResult, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("portfolio csv: failed to read header: %w", err)
	}
	if len(header) < expectedFieldCount || strings.TrimSpace(strings.ToLower(header[0])) != "type" {
		return nil, fmt.Errorf("portfolio csv: unrecognized header")
	}

	result := &ParseResult{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("portfolio csv: failed to read row: %w", err)
		}
		line++

		if len(record) < expectedFieldCount {
			result.Skipped = append(result.Skipped, fmt.Sprintf("line %d: expected %d fields, got %d", line, expectedFieldCount, len(record)))
			continue
		}
		for i := range record {
			record[i] = validation.StripUnprintable(strings.TrimSpace(record[i]))
		}

		rowType := strings.ToLower(record[0])
		switch rowType {
		case "holding":
			holding, err := parseHoldingRow(record)
			if err != nil {
				result.Skipped = append(result.Skipped, fmt.Sprintf("line %d: %v", line, err))
				continue
			}
			result.Holdings = append(result.Holdings, holding)
		case "dividend":
			dividend, err := parseDividendRow(record)
			if err != nil {
				result.Skipped = append(result.Skipped, fmt.Sprintf("line %d: %v", line, err))
				continue
			}
			result.Dividends = append(result.Dividends, dividend)
		default:
			result.Skipped = append(result.Skipped, fmt.Sprintf("line %d: unknown row type %q", line, record[0]))
		}
	}
	return result, nil
}

func parseHoldingRow(record []string) (models.Holding, error) {
	ticker := validation.NormalizeTicker(record[1])
	if err := validation.ValidateTicker(ticker); err != nil {
		return models.Holding{}, err
	}
	shares, err := validation.ValidatePositiveDecimalString(record[2], "shares")
	if err != nil {
		return models.Holding{}, err
	}
	avgCost, err := validation.ValidateDecimalString(record[3], "avg_cost_basis", false)
	if err != nil {
		return models.Holding{}, err
	}
	if _, err := validation.ValidateDateString(record[4], "purchase_date"); err != nil {
		return models.Holding{}, err
	}
	return models.Holding{
		Ticker:       ticker,
		Shares:       shares,
		AvgCostBasis: avgCost,
		PurchaseDate: record[4],
	}, nil
}

func parseDividendRow(record []string) (models.Dividend, error) {
	ticker := validation.NormalizeTicker(record[1])
	if err := validation.ValidateTicker(ticker); err != nil {
		return models.Dividend{}, err
	}
	perShare, err := validation.ValidatePositiveDecimalString(record[5], "amount_per_share")
	if err != nil {
		return models.Dividend{}, err
	}
	if _, err := validation.ValidateDateString(record[6], "pay_date"); err != nil {
		return models.Dividend{}, err
	}
	status, err := models.ParseDividendStatus(record[7])
	if err != nil {
		return models.Dividend{}, err
	}
	return models.Dividend{
		Ticker:         ticker,
		AmountPerShare: perShare,
		PayDate:        record[6],
		Status:         status,
	}, nil
}
