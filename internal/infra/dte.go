package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DTE document type codes per SII nomenclature.
const (
	DTETipoBoleta      = 39
	DTETipoFactura     = 33
	DTETipoNotaCredito = 61
)

// DTEPayload is sent by the worker pool to the DTE Python Sidecar.
// The Sidecar handles the SII session and folio assignment.
type DTEPayload struct {
	RutEmisor   string  `json:"rut_emisor"`
	TipoDTE     int     `json:"tipo_dte"` // 39=boleta, 33=factura, 61=nota de crédito
	MontoNeto   float64 `json:"monto_neto"`
	MontoIVA    float64 `json:"monto_iva"`
	MontoTotal  float64 `json:"monto_total"`
	ReferenceID string  `json:"reference_id"`
}

// DTEResponse is returned by the Sidecar after submitting to the SII.
type DTEResponse struct {
	Folio           int64  `json:"folio"`
	Estado          string `json:"estado"` // "ACEPTADO" | "RECHAZADO"
	URLVerificacion string `json:"url_verificacion"`
	Glosa           string `json:"glosa,omitempty"`
}

// DTEClient delegates SII communication to the Python Sidecar over HTTP.
// All calls pass through a circuit breaker so a downed sidecar fails fast
// instead of tying up worker goroutines.
type DTEClient struct {
	sidecarURL string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewDTEClient(sidecarURL string, cb *CircuitBreaker) *DTEClient {
	return &DTEClient{
		sidecarURL: sidecarURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cb:         cb,
	}
}

// Emitir submits a document to the Sidecar and returns the folio response.
func (c *DTEClient) Emitir(ctx context.Context, payload DTEPayload) (*DTEResponse, error) {
	var result *DTEResponse
	err := c.cb.Execute(func() error {
		resp, err := c.doEmit(ctx, payload)
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	return result, err
}

func (c *DTEClient) doEmit(ctx context.Context, payload DTEPayload) (*DTEResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("dte: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sidecarURL+"/emitir", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("dte: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dte: sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dte: sidecar returned %d", resp.StatusCode)
	}

	var result DTEResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("dte: decode response: %w", err)
	}
	return &result, nil
}
