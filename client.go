package tiptop

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/psfkit/tiptop/fits"
)

// DefaultEndpoint is the production simulation service.
const DefaultEndpoint = "https://www.eso.org/p2services/any/tiptop"

// DefaultTimeout bounds one simulation exchange. Large fields of view can
// take the service more than a minute to render.
const DefaultTimeout = 120 * time.Second

// parameterFilename is the fixed filename attached to the config part.
// The service echoes it back in the result part's Content-Disposition.
const parameterFilename = "tiptop_ipy.ini"

// Config holds configuration for the simulation client.
type Config struct {
	// Endpoint is the service URL. Empty means DefaultEndpoint.
	Endpoint string

	// Timeout bounds one exchange, from request build to the last byte
	// of the response. Zero means DefaultTimeout; negative disables the
	// client-side limit (the context still applies).
	Timeout time.Duration

	// HTTPClient performs the exchanges. Nil means a plain http.Client.
	HTTPClient *http.Client

	// NewCircuitBreaker creates a circuit breaker for the endpoint.
	// Called once when the client is created. Nil means no breaker.
	NewCircuitBreaker func(endpoint string) CircuitBreaker

	// Cache memoizes successful results by config text. Nil disables
	// caching. A cache may be shared between clients.
	Cache *ResultCache

	// Logger receives per-part debug logs and exchange outcomes.
	// The zero Logger discards everything.
	Logger zerolog.Logger
}

// Client talks to the simulation service. One Send performs exactly one
// synchronous HTTP exchange; there is no internal retry. A Client is safe
// for concurrent use.
type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
	breaker    CircuitBreaker
	cache      *ResultCache
	logger     zerolog.Logger
	stats      *clientStatsCollector
}

// NewClient creates a client for the given configuration.
func NewClient(config Config) (*Client, error) {
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("tiptop: invalid endpoint %q: %w", endpoint, err)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	c := &Client{
		endpoint:   endpoint,
		timeout:    timeout,
		httpClient: httpClient,
		cache:      config.Cache,
		logger:     config.Logger,
		stats:      &clientStatsCollector{},
	}
	if config.NewCircuitBreaker != nil {
		c.breaker = config.NewCircuitBreaker(endpoint)
	}
	return c, nil
}

// Endpoint returns the service URL this client talks to.
func (c *Client) Endpoint() string { return c.endpoint }

// Stats returns a snapshot of the client's counters.
func (c *Client) Stats() ClientStats { return c.stats.snapshot() }

// Simulate serializes the document, performs one exchange and classifies
// the returned container.
func (c *Client) Simulate(ctx context.Context, doc *Document) (*Result, error) {
	f, err := c.Send(ctx, doc.Serialize())
	if err != nil {
		return nil, err
	}
	return NewResult(f), nil
}

// Send submits serialized configuration text and returns the fully
// materialized binary result. Failures follow the protocol taxonomy:
// *TransportError, *ServerHTTPError, *ConfigRejectedError,
// *ServiceExitError or *MissingResultError. When a circuit breaker is
// configured and open, the breaker's own error is returned unchanged.
func (c *Client) Send(ctx context.Context, iniText string) (*fits.File, error) {
	do := func() (*fits.File, error) {
		return c.send(ctx, c.httpClient, iniText)
	}
	if c.breaker != nil {
		return c.breaker.Execute(do)
	}
	return do()
}

// send is the breaker-independent exchange path, shared with BatchRunner.
func (c *Client) send(ctx context.Context, httpClient *http.Client, iniText string) (*fits.File, error) {
	c.stats.recordRequest()

	if c.cache != nil {
		if f, ok := c.cache.get(iniText); ok {
			c.stats.recordCacheHit()
			c.logger.Debug().Str("endpoint", c.endpoint).Msg("result served from cache")
			return f, nil
		}
	}

	f, err := c.exchange(ctx, httpClient, iniText)
	if err != nil {
		c.stats.recordFailure(err)
		c.logger.Error().Err(err).Str("endpoint", c.endpoint).Msg("simulation failed")
		return nil, err
	}

	c.stats.recordSuccess()
	c.logger.Info().Int("frames", f.Len()).Msg("simulation completed")
	if c.cache != nil {
		c.cache.put(iniText, f)
	}
	return f, nil
}

// exchange performs exactly one HTTP exchange and decodes the response.
func (c *Client) exchange(ctx context.Context, httpClient *http.Client, iniText string) (*fits.File, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, contentType, err := buildRequestBody(iniText)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("tiptop: building request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	c.logger.Debug().Str("endpoint", c.endpoint).Int("config_bytes", len(iniText)).Msg("sending simulation request")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ServerHTTPError{Status: resp.StatusCode, Body: string(text)}
	}

	// The boundary comes from the response's own Content-Type header;
	// the server chooses it independently of the request boundary.
	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &MissingResultError{Parts: []PartSummary{{
			ContentType: resp.Header.Get("Content-Type"),
			Preview:     preview(text),
		}}}
	}

	parts, err := decodeParts(resp.Body, params["boundary"])
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("decoding multipart response: %w", err)}
	}

	for i, p := range parts {
		c.stats.recordBytes(len(p.body))
		c.logger.Debug().
			Int("part", i).
			Str("content_type", p.contentType).
			Str("disposition", p.disposition).
			Int("bytes", len(p.body)).
			Msg("response part")
	}

	return extractResult(parts)
}

// Ping reports whether the service endpoint is reachable. Any HTTP answer
// below 500 counts as reachable.
func (c *Client) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

// buildRequestBody assembles the two-part multipart body: the fixed
// descriptor resource and the serialized configuration text.
func buildRequestBody(iniText string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	descHeader := make(textproto.MIMEHeader)
	descHeader.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="serviceDescription"; filename=%q`, serviceDescriptionFilename))
	descHeader.Set("Content-Type", "application/json")
	desc, err := w.CreatePart(descHeader)
	if err != nil {
		return nil, "", fmt.Errorf("tiptop: building request body: %w", err)
	}
	if _, err := desc.Write(serviceDescriptionJSON); err != nil {
		return nil, "", fmt.Errorf("tiptop: building request body: %w", err)
	}

	paramHeader := make(textproto.MIMEHeader)
	paramHeader.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="parameterFile"; filename=%q`, parameterFilename))
	paramHeader.Set("Content-Type", "text/plain")
	param, err := w.CreatePart(paramHeader)
	if err != nil {
		return nil, "", fmt.Errorf("tiptop: building request body: %w", err)
	}
	if _, err := io.WriteString(param, iniText); err != nil {
		return nil, "", fmt.Errorf("tiptop: building request body: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("tiptop: building request body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
