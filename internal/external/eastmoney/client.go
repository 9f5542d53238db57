package eastmoney

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/soywatch/backend/internal/contracts"
	"github.com/wonny/soywatch/backend/pkg/httputil"
	"github.com/wonny/soywatch/backend/pkg/logger"
)

// DefaultBaseURL is the kline history host
const DefaultBaseURL = "https://push2his.eastmoney.com"

const klinePath = "/api/qt/stock/kline/get"

// Client handles communication with the Eastmoney quote history API
// ⭐ SSOT: 시세 이력 API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Eastmoney client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient.WithHeader("Referer", "https://quote.eastmoney.com/"),
		logger:     log.WithField("module", "eastmoney"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// klineResponse is the JSON envelope of the kline endpoint
type klineResponse struct {
	RC   int `json:"rc"`
	Data *struct {
		Code   string   `json:"code"`
		Market int      `json:"market"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// historyParams are the query parameters of a daily, forward-adjusted full history
func historyParams(quoteID string) map[string]string {
	return map[string]string{
		"secid":   quoteID,
		"fields1": "f1,f2,f3,f4,f5,f6",
		"fields2": "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61",
		"klt":     "101", // daily
		"fqt":     "1",
		"beg":     "19000101",
		"end":     "20500101",
		"rtntype": "6",
	}
}

// GetHistory fetches the full daily history of one quote id (e.g. "114.m2405")
// A quote the provider does not know yields an empty frame, not an error.
func (c *Client) GetHistory(ctx context.Context, quoteID string) (*contracts.Frame, error) {
	var body klineResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+klinePath, historyParams(quoteID), &body); err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", quoteID, err)
	}

	if body.RC != 0 {
		return nil, fmt.Errorf("fetch history %s: provider rc=%d", quoteID, body.RC)
	}

	frame := &contracts.Frame{Columns: contracts.RawColumns}
	if body.Data == nil {
		return frame, nil
	}

	frame.Records = parseKlines(body.Data.Klines)

	c.logger.WithFields(map[string]interface{}{
		"quote_id": quoteID,
		"name":     body.Data.Name,
		"count":    frame.Len(),
	}).Debug("Fetched history")

	return frame, nil
}

// parseKlines splits "date,open,close,high,low,volume,turnover,amplitude,pct,abs[,rate]"
// lines into records in RawColumns order; short lines are skipped.
func parseKlines(klines []string) [][]string {
	width := len(contracts.RawColumns)

	records := make([][]string, 0, len(klines))
	for _, line := range klines {
		fields := strings.Split(line, ",")
		if len(fields) < width {
			continue
		}
		record := make([]string, width)
		for i := 0; i < width; i++ {
			record[i] = strings.TrimSpace(fields[i])
		}
		records = append(records, record)
	}
	return records
}
