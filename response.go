package tiptop

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/psfkit/tiptop/fits"
)

const (
	// Phrase the service writes into its JSON part when it could not
	// parse the submitted configuration.
	rejectionPhrase = "cannot extract JSON structure from service output"

	// Filename marker identifying the binary result part.
	resultFilename = "tiptop_ipy.fits"

	// Bounds on diagnostic text kept from a failed exchange.
	maxErrorBody  = 1024
	previewLength = 200
)

// responsePart is one decoded part of the multipart response.
type responsePart struct {
	contentType string // media type without parameters
	disposition string
	body        []byte
}

// serviceStatus is the JSON status object the service attaches to every
// completed exchange.
type serviceStatus struct {
	Admin struct {
		ExitCode int `json:"exitCode"`
	} `json:"admin"`
	Service struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	} `json:"service"`
}

// decodeParts reads every part of a multipart body into memory. boundary
// is the one declared by the response's own Content-Type header; the
// server picks it independently of the request boundary.
func decodeParts(body io.Reader, boundary string) ([]responsePart, error) {
	mr := multipart.NewReader(body, boundary)
	var parts []responsePart
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return parts, nil
		}
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(p)
		if err != nil {
			return nil, err
		}
		parts = append(parts, responsePart{
			contentType: partMediaType(p.Header.Get("Content-Type")),
			disposition: p.Header.Get("Content-Disposition"),
			body:        data,
		})
	}
}

func partMediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}
	return mt
}

// extractResult applies the response contract to the decoded parts.
// Explicit error indicators always win over the mere presence of bytes:
// a config-rejection phrase is checked first, then the administrative
// exit code, and only then is the binary part materialized.
func extractResult(parts []responsePart) (*fits.File, error) {
	var status *serviceStatus
	for _, p := range parts {
		if p.contentType != "application/json" {
			continue
		}
		if bytes.Contains(p.body, []byte(rejectionPhrase)) {
			return nil, &ConfigRejectedError{Message: rejectionPhrase}
		}
		var s serviceStatus
		if err := json.Unmarshal(p.body, &s); err == nil && status == nil {
			status = &s
		}
	}

	if status != nil && status.Admin.ExitCode != 0 {
		msg := status.Service.Message
		if msg == "" {
			msg = status.Service.Error
		}
		return nil, &ServiceExitError{Code: status.Admin.ExitCode, Message: msg}
	}

	for _, p := range parts {
		if p.contentType != "application/octet-stream" {
			continue
		}
		if !strings.Contains(p.disposition, resultFilename) {
			continue
		}
		f, err := fits.ReadBytes(p.body)
		if err != nil {
			return nil, &MissingResultError{Parts: summarize(parts)}
		}
		return f, nil
	}

	return nil, &MissingResultError{Parts: summarize(parts)}
}

func summarize(parts []responsePart) []PartSummary {
	out := make([]PartSummary, len(parts))
	for i, p := range parts {
		out[i] = PartSummary{
			ContentType: p.contentType,
			Disposition: p.disposition,
			Preview:     preview(p.body),
		}
	}
	return out
}

// preview returns a bounded, printable excerpt of a part body.
func preview(body []byte) string {
	if len(body) > previewLength {
		body = body[:previewLength]
	}
	return strings.ToValidUTF8(string(body), "�")
}
