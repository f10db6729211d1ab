package nstc

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"nstcaward-backend/internal/telemetry"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("nstcaward.scrapers.nstc")

const (
	DefaultBaseUrl       = "https://wsts.nstc.gov.tw/STSWeb/Award/"
	DefaultTimeout       = 30 * time.Second
	DefaultDetailWorkers = 4

	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	acceptLanguage = "zh-TW,zh;q=0.9,en;q=0.8"

	listEndpoint   = "AwardMultiQuery.aspx"
	detailEndpoint = "AwardDialog3.aspx"
)

const (
	report_client_search       = "client.search"
	report_client_fetch_detail = "client.fetch-detail"
)

type ClientOptions struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl string
	// Timeout applies to every request on its own, it is not a deadline for
	// a whole Search. Defaults to DefaultTimeout.
	Timeout time.Duration
	// Transport defaults to LegacyTLS{}.
	Transport TransportProfile
	// DetailWorkers bounds how many detail pages a Search fetches at once,
	// 1 fetches them serially. Defaults to DefaultDetailWorkers.
	DetailWorkers int
	// MessageOutput optionally receives every raw request/response pair.
	MessageOutput telemetry.MessageOutput
}

// Client queries the NSTC award registry. It is safe for concurrent use, its
// transport is fixed at construction.
type Client struct {
	http          *resty.Client
	tel           telemetry.API
	detailWorkers int
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	tel = telemetry.NewScopedAPI("nstc_scraper", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Transport == nil {
		opts.Transport = LegacyTLS{}
	}
	if opts.DetailWorkers <= 0 {
		opts.DetailWorkers = DefaultDetailWorkers
	}

	if _, err := url.Parse(opts.BaseUrl); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	transport, err := newTransport(opts.Transport)
	if err != nil {
		return nil, fmt.Errorf("transport profile: %w", err)
	}

	httpClient := resty.New()
	httpClient.SetTransport(transport)
	httpClient.SetBaseURL(opts.BaseUrl)
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetHeader("user-agent", userAgent)
	httpClient.SetHeader("accept-language", acceptLanguage)
	telemetry.InstrumentResty(httpClient, tel, opts.MessageOutput)

	return &Client{
		http:          httpClient,
		tel:           tel,
		detailWorkers: opts.DetailWorkers,
	}, nil
}

// get issues a GET and parses the body, any failure to obtain a 2xx body is a
// *TransportError.
func (c *Client) get(ctx context.Context, op, endpoint string, query url.Values) (*goquery.Document, error) {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query)
	res, err := req.Get(endpoint)
	if err != nil {
		return nil, &TransportError{Op: op, Url: req.URL, Err: err}
	}
	if !res.IsSuccess() {
		return nil, &TransportError{Op: op, Url: req.URL, StatusCode: res.StatusCode()}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, &TransportError{
			Op:         op,
			Url:        req.URL,
			StatusCode: res.StatusCode(),
			Err:        fmt.Errorf("read html: %w", err),
		}
	}
	return doc, nil
}
