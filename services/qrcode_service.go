// Package services: services/qrcode_service.go
package services

import (
	"errors"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"

	"eventlink/models"
)

// QRCodeEncoder matches qrcode.Encode so tests can swap it out.
type QRCodeEncoder func(content string, level qrcode.RecoveryLevel, size int) ([]byte, error)

// GenerateQRCode encodes content as a square PNG of the given size.
func GenerateQRCode(content string, size int, encoder QRCodeEncoder) ([]byte, error) {
	if size <= 0 {
		return nil, errors.New("invalid dimensions: size must be positive")
	}
	if encoder == nil {
		encoder = qrcode.Encode
	}
	png, err := encoder(content, qrcode.Medium, size)
	if err != nil {
		return nil, err
	}
	return png, nil
}

// EventShareLink is the event-detail URL a share code points at.
func EventShareLink(applicationURL string, event models.Event) string {
	base := strings.TrimRight(applicationURL, "/")
	if base == "" {
		base = "http://localhost:8080"
	}
	return base + "/event?" + url.Values{"key": {event.Key()}}.Encode()
}

// GenerateEventQRCode renders the share code for an event.
func GenerateEventQRCode(applicationURL string, event models.Event, size int, encoder QRCodeEncoder) ([]byte, error) {
	return GenerateQRCode(EventShareLink(applicationURL, event), size, encoder)
}
