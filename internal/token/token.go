// Package token decodes JSON Web Tokens without verifying their signature.
package token

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/models"
)

// Decoded holds the header and payload of a token with their key order
// preserved.
type Decoded struct {
	Header  models.Value
	Payload models.Value
}

// Value renders the token as {"header": ..., "payload": ...}.
func (d Decoded) Value() models.Value {
	return models.ObjectValue(models.NewObject().
		Set("header", d.Header).
		Set("payload", d.Payload))
}

// Decode splits and decodes a compact JWT. The signature is not checked.
func Decode(tok string) (Decoded, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return Decoded{}, errors.NewTokenError("token is empty", errors.ErrEmptyInput)
	}

	p := jwt.NewParser()
	_, parts, err := p.ParseUnverified(tok, jwt.MapClaims{})
	if err != nil {
		return Decoded{}, errors.NewTokenError("malformed token", err)
	}

	header, err := segment(p, parts[0])
	if err != nil {
		return Decoded{}, errors.NewTokenError("invalid header", err)
	}
	payload, err := segment(p, parts[1])
	if err != nil {
		return Decoded{}, errors.NewTokenError("invalid payload", err)
	}
	return Decoded{Header: header, Payload: payload}, nil
}

func segment(p *jwt.Parser, seg string) (models.Value, error) {
	raw, err := p.DecodeSegment(seg)
	if err != nil {
		return models.Value{}, err
	}
	return models.ParseJSON(raw)
}
