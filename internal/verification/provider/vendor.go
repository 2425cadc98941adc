package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	id "idproof/pkg/domain"
	dErrors "idproof/pkg/domain-errors"
)

// Vendor calls a real verification service over HTTP.
type Vendor struct {
	baseURL string
	client  *http.Client
}

// NewVendor builds a Vendor against the given base URL. httpClient may be nil.
func NewVendor(baseURL string, httpClient *http.Client) *Vendor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Vendor{baseURL: baseURL, client: httpClient}
}

type vendorRequest struct {
	UserID      string `json:"userId"`
	DocumentURL string `json:"documentUrl"`
}

type vendorResponse struct {
	Verified     bool   `json:"verified"`
	Age          int    `json:"age"`
	DocumentType string `json:"documentType"`
}

// Verify posts the document reference to the vendor and decodes its verdict.
//
// Errors: CodeProviderFailed on transport failures, non-2xx responses, or
// undecodable bodies.
func (v *Vendor) Verify(ctx context.Context, userID id.UserID, documentRef string) (Verdict, error) {
	body, err := json.Marshal(vendorRequest{
		UserID:      userID.String(),
		DocumentURL: documentRef,
	})
	if err != nil {
		return Verdict{}, dErrors.Wrap(err, dErrors.CodeProviderFailed, "failed to encode provider request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return Verdict{}, dErrors.Wrap(err, dErrors.CodeProviderFailed, "failed to build provider request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Verdict{}, dErrors.Wrap(err, dErrors.CodeProviderFailed, "provider request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Verdict{}, dErrors.New(dErrors.CodeProviderFailed,
			fmt.Sprintf("provider returned status %d", resp.StatusCode))
	}

	var decoded vendorResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Verdict{}, dErrors.Wrap(err, dErrors.CodeProviderFailed, "failed to decode provider response")
	}

	return Verdict{
		Verified:     decoded.Verified,
		Age:          decoded.Age,
		DocumentKind: id.NormalizeDocumentKind(decoded.DocumentType),
	}, nil
}
