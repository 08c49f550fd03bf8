// backend/src/services/price_service.go
package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/divifolio/backend/src/config"
	"github.com/username/divifolio/backend/src/database"
	"github.com/username/divifolio/backend/src/logger"
	"github.com/username/divifolio/backend/src/model"
	"github.com/username/divifolio/backend/src/models"
	"golang.org/x/net/publicsuffix"
)

const priceUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// --- API Response Structs ---

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

type historyResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// --- Service Implementation ---

type priceServiceImpl struct {
	httpClient    http.Client
	baseURL       string
	isInitialized bool
	crumb         string
	mu            sync.Mutex
}

func NewPriceService() PriceService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	client := http.Client{
		Jar:     jar,
		Timeout: config.Cfg.PriceFetchTimeout,
	}

	s := &priceServiceImpl{
		httpClient: client,
		baseURL:    config.Cfg.PriceProviderBaseURL,
	}

	go s.initializeProviderSession()

	return s
}

// The quote provider wants a session cookie and a crumb token before it
// answers chart queries.
func (s *priceServiceImpl) initializeProviderSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isInitialized && s.crumb != "" {
		return
	}

	logger.L.Info("Initializing quote provider session")

	warmup := []string{
		"https://fc.yahoo.com",
		"https://finance.yahoo.com",
	}
	for _, url := range warmup {
		req, _ := http.NewRequest("GET", url, nil)
		req.Header.Set("User-Agent", priceUserAgent)
		resp, err := s.httpClient.Do(req)
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}

	req, _ := http.NewRequest("GET", s.baseURL+"/v1/test/getcrumb", nil)
	req.Header.Set("User-Agent", priceUserAgent)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.L.Error("Failed to fetch crumb", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		s.crumb = string(bodyBytes)
		s.isInitialized = true
		logger.L.Info("Quote provider session initialized")
	} else {
		logger.L.Warn("Failed to fetch crumb", "status", resp.Status)
	}
}

func (s *priceServiceImpl) ensureSession() {
	s.mu.Lock()
	needsInit := !s.isInitialized || s.crumb == ""
	s.mu.Unlock()

	if needsInit {
		s.initializeProviderSession()
	}
}

func (s *priceServiceImpl) invalidateSession() {
	s.mu.Lock()
	s.isInitialized = false
	s.mu.Unlock()
}

// GetCurrentPrices serves today's close from the price_history cache and
// only asks the provider for tickers with no cached price for today.
// Fetched prices are written back to the cache.
func (s *priceServiceImpl) GetCurrentPrices(tickers []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal)
	if len(tickers) == 0 {
		return prices, nil
	}
	s.ensureSession()

	today := time.Now().Format(models.DateLayout)
	cached, err := model.GetPricesInRange(database.DB, tickers, today, today)
	if err != nil {
		logger.L.Error("Failed to read cached prices", "error", err)
	}

	tickersToFetch := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		if price, ok := cached[today][ticker]; ok {
			prices[ticker] = price
		} else {
			tickersToFetch = append(tickersToFetch, ticker)
		}
	}

	for _, ticker := range tickersToFetch {
		time.Sleep(250 * time.Millisecond) // stay under the provider's rate limits
		price, err := s.fetchQuote(ticker)
		if err != nil {
			logger.L.Warn("Could not get price for ticker from provider", "ticker", ticker, "error", err)
			continue
		}
		prices[ticker] = price
		point := models.PricePoint{Ticker: ticker, Date: today, Close: price}
		if err := model.UpsertPrice(database.DB, point); err != nil {
			logger.L.Error("Failed to cache fetched price", "ticker", ticker, "error", err)
		}
	}
	return prices, nil
}

func (s *priceServiceImpl) fetchQuote(ticker string) (decimal.Decimal, error) {
	quoteURL := fmt.Sprintf("%s/v8/finance/chart/%s?crumb=%s", s.baseURL, ticker, s.crumb)
	req, err := http.NewRequest("GET", quoteURL, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("User-Agent", priceUserAgent)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to call chart API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		s.invalidateSession()
		return decimal.Zero, fmt.Errorf("status 401 (Unauthorized), crumb invalid")
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("chart API returned non-OK status %d", resp.StatusCode)
	}
	var chartData chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chartData); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode chart response: %w", err)
	}
	if chartData.Chart.Error != nil {
		return decimal.Zero, fmt.Errorf("chart API returned an error: %v", chartData.Chart.Error)
	}
	if len(chartData.Chart.Result) == 0 || chartData.Chart.Result[0].Meta.RegularMarketPrice == 0 {
		return decimal.Zero, fmt.Errorf("no price data found")
	}
	return decimal.NewFromFloat(chartData.Chart.Result[0].Meta.RegularMarketPrice), nil
}

// RefreshHistory pulls up to a year of daily closes for a ticker into
// price_history. Days the market was closed simply have no row; the
// valuation series treats missing days as uncovered rather than filling
// them forward.
func (s *priceServiceImpl) RefreshHistory(ticker string) error {
	s.ensureSession()
	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1y&crumb=%s", s.baseURL, ticker, s.crumb)
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", priceUserAgent)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch history: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		s.invalidateSession()
		return fmt.Errorf("status 401 (Unauthorized)")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("history API returned %d", resp.StatusCode)
	}
	var data historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return fmt.Errorf("failed to decode history json: %w", err)
	}
	if len(data.Chart.Result) == 0 {
		return fmt.Errorf("no history result found")
	}
	result := data.Chart.Result[0]
	timestamps := result.Timestamp
	if len(result.Indicators.Quote) == 0 {
		return fmt.Errorf("no quote data found")
	}
	quotes := result.Indicators.Quote[0].Close
	if len(timestamps) != len(quotes) {
		return fmt.Errorf("history data mismatch")
	}

	stored := 0
	for i, ts := range timestamps {
		if quotes[i] == 0 {
			continue
		}
		point := models.PricePoint{
			Ticker: ticker,
			Date:   time.Unix(ts, 0).UTC().Format(models.DateLayout),
			Close:  decimal.NewFromFloat(quotes[i]),
		}
		if err := model.UpsertPrice(database.DB, point); err != nil {
			return fmt.Errorf("failed to store price for %s on %s: %w", ticker, point.Date, err)
		}
		stored++
	}
	logger.L.Info("Refreshed price history", "ticker", ticker, "points", stored)
	return nil
}
