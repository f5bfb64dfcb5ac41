package venue

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"

	"crospike/market"
)

const kucoinBaseURL = "https://api.kucoin.com"

const kucoinTimeout = 10 * time.Second

// kucoinIntervals maps the common interval notation to KuCoin candle types.
var kucoinIntervals = map[string]string{
	"1m":  "1min",
	"3m":  "3min",
	"5m":  "5min",
	"15m": "15min",
	"30m": "30min",
	"1h":  "1hour",
	"4h":  "4hour",
	"1d":  "1day",
}

// KuCoin serves candles and last prices from the public KuCoin REST API.
// BaseURL is overridable for tests.
type KuCoin struct {
	BaseURL string
	client  *fasthttp.Client
}

func NewKuCoin() *KuCoin {
	return &KuCoin{
		BaseURL: kucoinBaseURL,
		client:  &fasthttp.Client{},
	}
}

func (k *KuCoin) Name() string { return "kucoin" }

// Candles fetches klines. KuCoin answers newest-first; the result is
// reversed to the chronological order the detector expects.
func (k *KuCoin) Candles(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	candleType, ok := kucoinIntervals[interval]
	if !ok {
		candleType = interval
	}

	url := fmt.Sprintf("%s/api/v1/market/candles?type=%s&symbol=%s", k.BaseURL, candleType, symbol)
	body, err := k.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("kucoin candles %s: %w", symbol, err)
	}

	rows := gjson.GetBytes(body, "data").Array()
	if len(rows) > limit {
		rows = rows[:limit] // newest-first, keep the most recent ones
	}

	candles := make([]market.Candle, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		// Row layout: [time, open, close, high, low, volume, turnover].
		row := rows[i].Array()
		if len(row) < 6 {
			return nil, fmt.Errorf("kucoin candles %s: short row", symbol)
		}
		candles = append(candles, market.Candle{
			Time:   time.Unix(row[0].Int(), 0).UTC(),
			Open:   row[1].Float(),
			Close:  row[2].Float(),
			High:   row[3].Float(),
			Low:    row[4].Float(),
			Volume: row[5].Float(),
		})
	}
	return candles, nil
}

func (k *KuCoin) LastPrice(ctx context.Context, symbol string) (float64, error) {
	url := fmt.Sprintf("%s/api/v1/market/orderbook/level1?symbol=%s", k.BaseURL, symbol)
	body, err := k.get(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("kucoin price %s: %w", symbol, err)
	}

	price := gjson.GetBytes(body, "data.price")
	if !price.Exists() {
		return 0, fmt.Errorf("kucoin price %s: missing in response", symbol)
	}
	return price.Float(), nil
}

func (k *KuCoin) get(ctx context.Context, url string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	timeout := kucoinTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}

	if err := k.client.DoTimeout(req, resp, timeout); err != nil {
		return nil, err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("http status %d", resp.StatusCode())
	}

	body := append([]byte(nil), resp.Body()...)
	if code := gjson.GetBytes(body, "code").String(); code != "" && code != "200000" {
		return nil, fmt.Errorf("api code %s: %s", code, gjson.GetBytes(body, "msg").String())
	}
	return body, nil
}
