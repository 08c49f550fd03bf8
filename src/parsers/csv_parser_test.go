// backend/src/parsers/csv_parser_test.go
package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/divifolio/backend/src/models"
)

const csvHeader = "type,ticker,shares,avg_cost_basis,purchase_date,amount_per_share,pay_date,status\n"

func TestParseMixedRows(t *testing.T) {
	input := csvHeader +
		"holding,KO,100,54.20,2022-03-01,,,\n" +
		"holding,msft,10,310.00,2023-01-15,,,\n" +
		"dividend,KO,,,,0.46,2024-03-15,paid\n" +
		"dividend,KO,,,,0.485,2024-06-14,scheduled\n"

	parser := NewPortfolioCSVParser()
	result, err := parser.Parse(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Holdings, 2)
	assert.Equal(t, "KO", result.Holdings[0].Ticker)
	assert.Equal(t, "MSFT", result.Holdings[1].Ticker)
	assert.Equal(t, "100", result.Holdings[0].Shares.String())
	assert.Equal(t, "54.2", result.Holdings[0].AvgCostBasis.String())
	assert.Equal(t, "2022-03-01", result.Holdings[0].PurchaseDate)

	require.Len(t, result.Dividends, 2)
	assert.Equal(t, models.StatusPaid, result.Dividends[0].Status)
	assert.Equal(t, models.StatusScheduled, result.Dividends[1].Status)
	assert.Equal(t, "0.485", result.Dividends[1].AmountPerShare.String())
	assert.Empty(t, result.Skipped)
}

func TestParseSkipsBadRowsWithReasons(t *testing.T) {
	input := csvHeader +
		"holding,KO,100,54.20,2022-03-01,,,\n" +
		"holding,KO,-5,54.20,2022-03-01,,,\n" +
		"dividend,KO,,,,0.46,15-03-2024,paid\n" +
		"dividend,KO,,,,0.46,2024-03-15,pending\n" +
		"transfer,KO,,,,,,\n" +
		"holding,KO,100\n"

	parser := NewPortfolioCSVParser()
	result, err := parser.Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Len(t, result.Holdings, 1)
	assert.Empty(t, result.Dividends)
	require.Len(t, result.Skipped, 5)
	assert.Contains(t, result.Skipped[0], "line 3")
	assert.Contains(t, result.Skipped[1], "line 4")
	assert.Contains(t, result.Skipped[2], "unknown dividend status")
	assert.Contains(t, result.Skipped[3], "unknown row type")
	assert.Contains(t, result.Skipped[4], "expected 8 fields")
}

func TestParseRejectsUnrecognizedHeader(t *testing.T) {
	parser := NewPortfolioCSVParser()

	_, err := parser.Parse(strings.NewReader("ticker,amount\nKO,0.46\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized header")
}

func TestParseEmptyFileFailsOnHeader(t *testing.T) {
	parser := NewPortfolioCSVParser()

	_, err := parser.Parse(strings.NewReader(""))
	require.Error(t, err)
}

func TestParseTrimsAndStripsFields(t *testing.T) {
	input := csvHeader +
		"holding, ko ,100,54.20,2022-03-01,,,\n"

	parser := NewPortfolioCSVParser()
	result, err := parser.Parse(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Holdings, 1)
	assert.Equal(t, "KO", result.Holdings[0].Ticker)
}
