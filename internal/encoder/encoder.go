// Package encoder serializes the emergency view into the scannable payload
// and renders it as a QR symbol, with a freshness-gated artifact cache.
package encoder

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/skip2/go-qrcode"
)

// PayloadPrefix tags the payload so scanners can recognize a medical
// emergency code. The full wire contract is this literal prefix followed by
// one line of compact canonical JSON, UTF-8.
const PayloadPrefix = "MEDICAL_EMERGENCY:"

// DefaultMaxPayload is the byte-mode capacity of a version 40 QR symbol at
// error-correction level L.
const DefaultMaxPayload = 2953

var (
	// ErrPayloadTooLarge means the serialized view exceeds the symbol
	// capacity. The synthesizer's filters are the primary defense; the
	// encoder never re-truncates, it fails loudly instead of emitting an
	// unreadable code.
	ErrPayloadTooLarge = errors.New("emergency payload exceeds optical code capacity")

	// ErrRenderTimeout means rendering exceeded its bounded duration.
	ErrRenderTimeout = errors.New("optical code render timed out")
)

// ArtifactWriter persists the rendered image at a fixed path. Best-effort:
// a write failure is logged by the caller, not fatal to the request.
type ArtifactWriter interface {
	Write(data []byte) error
}

// Source is anything that serializes itself into the canonical compact JSON
// carried inside the payload. The emergency view satisfies it.
type Source interface {
	CanonicalJSON() ([]byte, error)
}

// Options configures an Encoder.
type Options struct {
	// MaxPayloadBytes caps the serialized payload. Zero means DefaultMaxPayload.
	MaxPayloadBytes int
	// RenderTimeout bounds a single render. Zero means 5s.
	RenderTimeout time.Duration
	// ImageSize is the rendered PNG edge length in pixels. Zero means 512.
	ImageSize int
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.MaxPayloadBytes <= 0 {
		out.MaxPayloadBytes = DefaultMaxPayload
	}
	if out.RenderTimeout <= 0 {
		out.RenderTimeout = 5 * time.Second
	}
	if out.ImageSize <= 0 {
		out.ImageSize = 512
	}
	return out
}

// Encoder turns emergency views into rendered QR PNG bytes.
type Encoder struct {
	opts Options
}

func New(opts Options) *Encoder {
	return &Encoder{opts: opts.withDefaults()}
}

// Payload serializes the view into the scannable wire format.
func (e *Encoder) Payload(view Source) ([]byte, error) {
	data, err := view.CanonicalJSON()
	if err != nil {
		return nil, fmt.Errorf("serialize emergency view: %w", err)
	}

	payload := make([]byte, 0, len(PayloadPrefix)+len(data))
	payload = append(payload, PayloadPrefix...)
	payload = append(payload, data...)

	if len(payload) > e.opts.MaxPayloadBytes {
		return nil, fmt.Errorf("%w: %d bytes, capacity %d",
			ErrPayloadTooLarge, len(payload), e.opts.MaxPayloadBytes)
	}
	return payload, nil
}

// Render produces the QR PNG for the view. The render runs under a bounded
// duration; exceeding it fails with ErrRenderTimeout rather than hanging.
func (e *Encoder) Render(ctx context.Context, view Source) ([]byte, error) {
	payload, err := e.Payload(view)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type renderResult struct {
		png []byte
		err error
	}
	done := make(chan renderResult, 1)
	go func() {
		// Error-correction level Low maximizes data capacity, matching the
		// capacity ceiling above.
		png, err := qrcode.Encode(string(payload), qrcode.Low, e.opts.ImageSize)
		done <- renderResult{png: png, err: err}
	}()

	timer := time.NewTimer(e.opts.RenderTimeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			// The renderer rejects content beyond symbol capacity; surface
			// that as the capacity error, anything else verbatim.
			if len(payload) > DefaultMaxPayload {
				return nil, fmt.Errorf("%w: %v", ErrPayloadTooLarge, res.err)
			}
			return nil, fmt.Errorf("render optical code: %w", res.err)
		}
		return res.png, nil
	case <-timer.C:
		return nil, ErrRenderTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// EncodeBase64 renders the view and returns the PNG base64-encoded for
// inline display.
func (e *Encoder) EncodeBase64(ctx context.Context, view Source) (string, error) {
	png, err := e.Render(ctx, view)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
