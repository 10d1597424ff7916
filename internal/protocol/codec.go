// internal/protocol/codec.go
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed wraps every decode failure. Callers treat it as fatal for the
// connection that produced the bytes.
var ErrMalformed = errors.New("malformed message")

// DataType tells whether a CSData envelope wraps a Request or a Response.
type DataType int

const (
	DataRequest DataType = iota
	DataResponse
)

// CSData is the outermost envelope of every frame.
type CSData struct {
	Type DataType `json:"Type"`
	Data string   `json:"Data"`
}

// Request correlates by Seq; Data is the JSON of the message named by Type.
type Request struct {
	Seq  int64  `json:"Seq"`
	Type string `json:"Type"`
	Data string `json:"Data"`
}

// Response echoes the Seq of the Request it answers.
type Response struct {
	Seq  int64  `json:"Seq"`
	Data string `json:"Data"`
}

// Envelope is a decoded frame: exactly one of Request and Response is set.
type Envelope struct {
	Request  *Request
	Response *Response
}

// Marshal encodes a payload into the JSON text nested in Data fields.
func Marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal %T: %w", v, err)
	}
	return string(b), nil
}

// MustMarshal is Marshal for values that always encode (plain structs of
// strings, ints and slices). A failure is a programming error.
func MustMarshal(v any) string {
	s, err := Marshal(v)
	if err != nil {
		panic(err)
	}
	return s
}

// Unmarshal decodes nested JSON text into v.
func Unmarshal(data string, v any) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("%w: %T: %v", ErrMalformed, v, err)
	}
	return nil
}

// EncodeRequest builds the frame payload of an outbound request.
func EncodeRequest(seq int64, typeName, data string) ([]byte, error) {
	inner, err := Marshal(Request{Seq: seq, Type: typeName, Data: data})
	if err != nil {
		return nil, err
	}
	return json.Marshal(CSData{Type: DataRequest, Data: inner})
}

// EncodeResponse builds the frame payload of an outbound response.
func EncodeResponse(seq int64, data string) ([]byte, error) {
	inner, err := Marshal(Response{Seq: seq, Data: data})
	if err != nil {
		return nil, err
	}
	return json.Marshal(CSData{Type: DataResponse, Data: inner})
}

// wire shapes with pointer fields, so absent required fields can be told apart
// from zero values.
type (
	rawCSData struct {
		Type *DataType `json:"Type"`
		Data *string   `json:"Data"`
	}
	rawRequest struct {
		Seq  *int64  `json:"Seq"`
		Type *string `json:"Type"`
		Data *string `json:"Data"`
	}
	rawResponse struct {
		Seq  *int64  `json:"Seq"`
		Data *string `json:"Data"`
	}
)

// DecodeEnvelope parses one frame payload.
func DecodeEnvelope(payload []byte) (Envelope, error) {
	var cs rawCSData
	if err := json.Unmarshal(payload, &cs); err != nil {
		return Envelope{}, fmt.Errorf("%w: envelope: %v", ErrMalformed, err)
	}
	if cs.Type == nil || cs.Data == nil {
		return Envelope{}, fmt.Errorf("%w: envelope missing Type or Data", ErrMalformed)
	}

	switch *cs.Type {
	case DataRequest:
		var r rawRequest
		if err := json.Unmarshal([]byte(*cs.Data), &r); err != nil {
			return Envelope{}, fmt.Errorf("%w: request: %v", ErrMalformed, err)
		}
		if r.Seq == nil || r.Type == nil {
			return Envelope{}, fmt.Errorf("%w: request missing Seq or Type", ErrMalformed)
		}
		req := &Request{Seq: *r.Seq, Type: *r.Type}
		if r.Data != nil {
			req.Data = *r.Data
		}
		return Envelope{Request: req}, nil

	case DataResponse:
		var r rawResponse
		if err := json.Unmarshal([]byte(*cs.Data), &r); err != nil {
			return Envelope{}, fmt.Errorf("%w: response: %v", ErrMalformed, err)
		}
		if r.Seq == nil {
			return Envelope{}, fmt.Errorf("%w: response missing Seq", ErrMalformed)
		}
		resp := &Response{Seq: *r.Seq}
		if r.Data != nil {
			resp.Data = *r.Data
		}
		return Envelope{Response: resp}, nil
	}
	return Envelope{}, fmt.Errorf("%w: unknown envelope type %d", ErrMalformed, int(*cs.Type))
}
