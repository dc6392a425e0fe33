package diagrams

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// pngSignature is the fixed 8-byte header every PNG file begins with.
var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// Request is a single diagram awaiting rendering.
type Request struct {
	Index    int
	Source   string
	Language Language
}

// RenderedPNG is a successfully rendered PNG diagram, saved to disk.
type RenderedPNG struct {
	Index    int
	Filename string
	Width    uint32
	Height   uint32
}

// RenderedSVG is a successfully rendered SVG diagram.
type RenderedSVG struct {
	Index int
	SVG   string
}

// RenderedDataURI is a successfully rendered PNG, base64-encoded as a data URI.
type RenderedDataURI struct {
	Index   int
	DataURI string
}

// Error kinds a diagram failure is partitioned into: HTTP responses with
// status >= 400, I/O-level failures (timeouts, cancellation, invalid UTF-8
// in an SVG body), and PNG bodies that aren't valid PNG data.
const (
	errKindHTTP       = "http"
	errKindIO         = "io"
	errKindInvalidPNG = "invalid_png"
)

// RenderError describes why a single diagram failed to render. Errors never
// abort the batch — callers get partial results plus the list of failures.
type RenderError struct {
	Index int
	Kind  string
	Err   error
}

func (e *RenderError) Error() string {
	switch e.Kind {
	case errKindInvalidPNG:
		return fmt.Sprintf("diagram %d: invalid PNG data", e.Index)
	case errKindIO:
		return fmt.Sprintf("diagram %d: IO error: %v", e.Index, e.Err)
	default:
		return fmt.Sprintf("diagram %d: HTTP error: %v", e.Index, e.Err)
	}
}

func (e *RenderError) Unwrap() error { return e.Err }

// errInvalidUTF8 marks an SVG response body that failed UTF-8 validation,
// classified as an "io" kind error rather than "http".
var errInvalidUTF8 = errors.New("invalid UTF-8 in diagram response")

// errInvalidPNG marks a PNG response body that is shorter than 24 bytes or
// lacks the 8-byte PNG signature.
var errInvalidPNG = errors.New("invalid PNG data")

// Client renders diagrams through a Kroki HTTP service, in parallel and
// with partial-failure semantics: a batch always returns every diagram that
// rendered successfully, plus the errors for the ones that didn't.
type Client struct {
	HTTP      *http.Client
	ServerURL string
	Parallel  int
	Limiter   *rate.Limiter
	DPI       uint32
}

// NewClient constructs a Client against serverURL with a bounded parallel
// fan-out and a conservative request-rate limiter sized to match it.
func NewClient(serverURL string, parallel int, timeout time.Duration) *Client {
	if parallel <= 0 {
		parallel = 4
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		ServerURL: strings.TrimRight(serverURL, "/"),
		Parallel:  parallel,
		Limiter:   rate.NewLimiter(rate.Limit(parallel*2), parallel*2),
		DPI:       192,
	}
}

func getPNGDimensions(data []byte) (width, height uint32, ok bool) {
	if len(data) < 24 {
		return 0, 0, false
	}
	if !bytes.Equal(data[:8], pngSignature) {
		return 0, 0, false
	}
	width = binary.BigEndian.Uint32(data[16:20])
	height = binary.BigEndian.Uint32(data[20:24])
	return width, height, true
}

func (c *Client) send(ctx context.Context, req Request, format string) ([]byte, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	url := fmt.Sprintf("%s/%s/%s", c.ServerURL, req.Language.Endpoint(), format)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(req.Source))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "text/plain")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// renderAll runs render against every request with bounded parallelism,
// collecting successes and failures independently so one bad diagram never
// sinks the rest of the page.
func renderAll[T any](ctx context.Context, c *Client, reqs []Request, render func(context.Context, Request) (T, error)) ([]T, []*RenderError) {
	if len(reqs) == 0 {
		return nil, nil
	}

	results := make([]T, len(reqs))
	errs := make([]*RenderError, len(reqs))
	present := make([]bool, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Parallel)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			v, err := render(gctx, req)
			if err != nil {
				var kind string
				switch {
				case errors.Is(err, errInvalidPNG):
					kind = errKindInvalidPNG
				case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), errors.Is(err, errInvalidUTF8):
					kind = errKindIO
				default:
					kind = errKindHTTP
				}
				errs[i] = &RenderError{Index: req.Index, Kind: kind, Err: err}
				return nil
			}
			results[i] = v
			present[i] = true
			return nil
		})
	}
	_ = g.Wait() // per-diagram errors are captured above, never propagated

	rendered := make([]T, 0, len(reqs))
	failures := make([]*RenderError, 0)
	for i := range reqs {
		if present[i] {
			rendered = append(rendered, results[i])
		} else if errs[i] != nil {
			failures = append(failures, errs[i])
		}
	}
	return rendered, failures
}

// RenderAllPNG renders every request to PNG in parallel and, when writeFile
// is non-nil, hands each image's bytes to it under the content-addressed
// Key filename. Returns diagrams that rendered successfully even if others
// failed.
func (c *Client) RenderAllPNG(ctx context.Context, reqs []Request, writeFile func(name string, data []byte) error) ([]RenderedPNG, []*RenderError) {
	return renderAll(ctx, c, reqs, func(ctx context.Context, req Request) (RenderedPNG, error) {
		data, err := c.send(ctx, req, "png")
		if err != nil {
			return RenderedPNG{}, err
		}
		width, height, ok := getPNGDimensions(data)
		if !ok {
			return RenderedPNG{}, errInvalidPNG
		}
		key := Key{Source: req.Source, Endpoint: req.Language.Endpoint(), Format: "png", DPI: c.DPI}
		name := key.Filename("png")
		if writeFile != nil {
			if err := writeFile(name, data); err != nil {
				return RenderedPNG{}, err
			}
		}
		return RenderedPNG{Index: req.Index, Filename: name, Width: width, Height: height}, nil
	})
}

// RenderAllSVG renders every request to an SVG string, in parallel.
func (c *Client) RenderAllSVG(ctx context.Context, reqs []Request) ([]RenderedSVG, []*RenderError) {
	return renderAll(ctx, c, reqs, func(ctx context.Context, req Request) (RenderedSVG, error) {
		data, err := c.send(ctx, req, "svg")
		if err != nil {
			return RenderedSVG{}, err
		}
		if !utf8.Valid(data) {
			return RenderedSVG{}, errInvalidUTF8
		}
		return RenderedSVG{Index: req.Index, SVG: string(data)}, nil
	})
}

// RenderAllPNGDataURI renders every request to a base64-encoded PNG data
// URI, in parallel. Used by the Confluence backend, which embeds images
// inline rather than as files.
func (c *Client) RenderAllPNGDataURI(ctx context.Context, reqs []Request) ([]RenderedDataURI, []*RenderError) {
	return renderAll(ctx, c, reqs, func(ctx context.Context, req Request) (RenderedDataURI, error) {
		data, err := c.send(ctx, req, "png")
		if err != nil {
			return RenderedDataURI{}, err
		}
		if _, _, ok := getPNGDimensions(data); !ok {
			return RenderedDataURI{}, errInvalidPNG
		}
		uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
		return RenderedDataURI{Index: req.Index, DataURI: uri}, nil
	})
}

// ErrorFigureHTML renders the standard failure placeholder for a diagram
// that could not be rendered.
func ErrorFigureHTML(msg string) string {
	return fmt.Sprintf(`<figure class="diagram diagram-error"><pre>Diagram rendering failed: %s</pre></figure>`, html.EscapeString(msg))
}
