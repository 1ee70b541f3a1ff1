// Package tseclient reads the instruments list from the TseClient SOAP service.
package tseclient

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/uhyunpark/tseutils/pkg/app/core/instrument"
	"github.com/uhyunpark/tseutils/pkg/metrics"
)

const (
	DefaultURL     = "http://service.tsetmc.com/WebService/TseClient.asmx"
	DefaultTimeout = 3 * time.Second

	soapAction = "http://tsetmc.com/Instrument"
	endpoint   = "tseclient_instruments"
)

// ScrapeError is returned when the service answers with a non-200 status
type ScrapeError struct {
	StatusCode int
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("tseclient: bad response [%d]", e.StatusCode)
}

// InstrumentIdentification is one row of the instruments list
type InstrumentIdentification struct {
	instrument.Identification
	LastChangeDate time.Time `json:"lastChangeDate"`
	IsIndex        bool      `json:"isIndex"`
	MarketCode     int64     `json:"marketCode"`
	SectorCode     int64     `json:"sectorCode,omitempty"`
	SubSectorCode  int64     `json:"subSectorCode,omitempty"`
	TypeID         int64     `json:"typeId"`
}

// Client is safe for concurrent use
type Client struct {
	url      string
	http     *http.Client
	userName string
	password string
	flow     uint8

	log     *zap.SugaredLogger
	metrics *metrics.Metrics
}

type Option func(*Client)

func WithURL(u string) Option { return func(c *Client) { c.url = u } }

// WithCredentials sets the UserName/Password sent in the request envelope
func WithCredentials(user, pass string) Option {
	return func(c *Client) {
		c.userName = user
		c.password = pass
	}
}

func WithLogger(l *zap.SugaredLogger) Option { return func(c *Client) { c.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(c *Client) { c.metrics = m } }

func NewClient(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		url:      DefaultURL,
		http:     &http.Client{Timeout: timeout},
		userName: "string",
		password: "string",
		log:      zap.NewNop().Sugar(),
		metrics:  metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	XMLName xml.Name `xml:"soap:Envelope"`
	XSI     string   `xml:"xmlns:xsi,attr"`
	XSD     string   `xml:"xmlns:xsd,attr"`
	Soap    string   `xml:"xmlns:soap,attr"`
	Body    struct {
		Instrument instrumentRequest `xml:"Instrument"`
	} `xml:"soap:Body"`
}

type instrumentRequest struct {
	XMLNS    string `xml:"xmlns,attr"`
	UserName string `xml:"UserName"`
	Password string `xml:"Password"`
	Flow     uint8  `xml:"Flow"`
}

func (c *Client) requestBody() ([]byte, error) {
	env := envelope{
		XSI:  "http://www.w3.org/2001/XMLSchema-instance",
		XSD:  "http://www.w3.org/2001/XMLSchema",
		Soap: "http://schemas.xmlsoap.org/soap/envelope/",
	}
	env.Body.Instrument = instrumentRequest{
		XMLNS:    "http://tsetmc.com/",
		UserName: c.userName,
		Password: c.password,
		Flow:     c.flow,
	}
	b, err := xml.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), b...), nil
}

// InstrumentsListRaw posts the Instrument request and returns the
// InstrumentResult text: rows separated by ';', fields by ','.
func (c *Client) InstrumentsListRaw(ctx context.Context) (string, error) {
	body, err := c.requestBody()
	if err != nil {
		return "", fmt.Errorf("build envelope: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("SOAPAction", soapAction)
	req.Header.Set("Accept", "text/xml")
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ScrapeLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ScrapeRequests.WithLabelValues(endpoint, "error").Inc()
		return "", fmt.Errorf("instruments request: %w", err)
	}
	defer resp.Body.Close()

	c.metrics.ScrapeRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode != http.StatusOK {
		c.log.Warnw("scrape_bad_status", "endpoint", endpoint, "status", resp.StatusCode)
		return "", &ScrapeError{StatusCode: resp.StatusCode}
	}
	return findElementText(resp.Body, "InstrumentResult")
}

var errNoResult = errors.New("tseclient: InstrumentResult not found in response")

func findElementText(r io.Reader, local string) (string, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return "", errNoResult
		}
		if err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != local {
			continue
		}
		var text string
		if err := dec.DecodeElement(&text, &start); err != nil {
			return "", fmt.Errorf("decode %s: %w", local, err)
		}
		return text, nil
	}
}

// InstrumentsList fetches every instrument and index known to TSETMC.
// Rows with a non-numeric sector code are indices.
func (c *Client) InstrumentsList(ctx context.Context) (instruments, indices []InstrumentIdentification, err error) {
	raw, err := c.InstrumentsListRaw(ctx)
	if err != nil {
		return nil, nil, err
	}
	for i, row := range strings.Split(raw, ";") {
		if strings.TrimSpace(row) == "" {
			continue
		}
		id, err := parseRow(strings.Split(row, ","))
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i, err)
		}
		if id.IsIndex {
			indices = append(indices, id)
		} else {
			instruments = append(instruments, id)
		}
	}
	c.log.Debugw("instruments_list", "instruments", len(instruments), "indices", len(indices))
	return instruments, indices, nil
}

const rowFields = 18

func parseRow(f []string) (InstrumentIdentification, error) {
	if len(f) < rowFields {
		return InstrumentIdentification{}, fmt.Errorf("expected %d fields, got %d", rowFields, len(f))
	}
	atoi := func(s string) (int64, error) {
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	}

	id := InstrumentIdentification{
		Identification: instrument.Identification{
			TsetmcCode:  strings.TrimSpace(f[0]),
			ISIN:        strings.TrimSpace(f[1]),
			NameEnglish: strings.TrimSpace(f[3]),
			Ticker:      strings.TrimSpace(f[5]),
			NamePersian: strings.TrimSpace(f[6]),
		},
	}

	var err error
	if id.TypeID, err = atoi(f[17]); err != nil {
		return id, fmt.Errorf("type id: %w", err)
	}
	if id.MarketCode, err = atoi(f[9]); err != nil {
		return id, fmt.Errorf("market code: %w", err)
	}
	d, err := atoi(f[8])
	if err != nil {
		return id, fmt.Errorf("last change date: %w", err)
	}
	id.LastChangeDate = time.Date(int(d/10000), time.Month(d/100%100), int(d%100), 0, 0, 0, 0, time.UTC)

	sector := strings.ReplaceAll(f[15], " ", "")
	if code, serr := strconv.ParseInt(sector, 10, 64); serr == nil && sector != "" {
		id.SectorCode = code
		if id.SubSectorCode, err = atoi(f[16]); err != nil {
			return id, fmt.Errorf("sub sector: %w", err)
		}
	} else {
		id.IsIndex = true
	}
	return id, nil
}
