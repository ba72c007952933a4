// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

// Package wire implements the request/response framing described in
// spec.md §4.7: a JSON request header with an optional binary query body,
// and a fixed-width binary response header with a level-element body.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// jsonAPI matches the root package's drop-in encoding/json configuration
// (grounded on cclauss-aistore's jsoniter usage; see DESIGN.md).
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

var byteOrder = binary.LittleEndian

// RequestType enumerates the four request shapes spec.md §4.6 names.
type RequestType string

const (
	Intervals         RequestType = "intervals"
	IntervalsCovered  RequestType = "intervals_covered"
	Bins              RequestType = "bins"
	BinsCovered       RequestType = "bins_covered"
)

// IsValid reports whether rt is one of the four known request types.
func (rt RequestType) IsValid() bool {
	switch rt {
	case Intervals, IntervalsCovered, Bins, BinsCovered:
		return true
	}
	return false
}

// IsBins reports whether rt is a bins-family request (aux_value is a bin
// size rather than an interval count).
func (rt RequestType) IsBins() bool {
	return rt == Bins || rt == BinsCovered
}

// IsCovered reports whether rt requests the covered level-element variant.
func (rt RequestType) IsCovered() bool {
	return rt == IntervalsCovered || rt == BinsCovered
}

// RequestHeader is the JSON-encoded request frame header (spec.md §4.7).
// AuxValue is n_intervals for intervals requests and bin_size for bins
// requests.
type RequestHeader struct {
	RequestType    RequestType `json:"request_type"`
	IndexHash      uint64      `json:"index_hash"`
	AuxValue       uint32      `json:"aux_value"`
	MethylomeNames []string    `json:"methylome_names"`
}

// MarshalHeader renders h as its JSON wire image.
func MarshalHeader(h RequestHeader) ([]byte, error) {
	return jsonAPI.Marshal(h)
}

// UnmarshalHeader parses a JSON wire image into a RequestHeader.
func UnmarshalHeader(buf []byte) (RequestHeader, error) {
	var h RequestHeader
	err := jsonAPI.Unmarshal(buf, &h)
	return h, err
}

// Status is the response frame's stable integer-valued status enum
// (spec.md §4.7).
type Status uint32

const (
	StatusOK Status = iota
	StatusInvalidRequestType
	StatusTooManyIntervals
	StatusBinSizeTooSmall
	StatusInvalidMethylomeName
	StatusMethylomeNotFound
	StatusIndexNotFound
	StatusInvalidIndexHash
	StatusInconsistentGenomes
	StatusBadRequest
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidRequestType:
		return "invalid_request_type"
	case StatusTooManyIntervals:
		return "too_many_intervals"
	case StatusBinSizeTooSmall:
		return "bin_size_too_small"
	case StatusInvalidMethylomeName:
		return "invalid_methylome_name"
	case StatusMethylomeNotFound:
		return "methylome_not_found"
	case StatusIndexNotFound:
		return "index_not_found"
	case StatusInvalidIndexHash:
		return "invalid_index_hash"
	case StatusInconsistentGenomes:
		return "inconsistent_genomes"
	case StatusBadRequest:
		return "bad_request"
	default:
		return "unknown_status"
	}
}

// responseHeaderSize is the fixed wire size of ResponseHeader: one uint32
// each for status, rows, cols, and n_bytes.
const responseHeaderSize = 16

// ResponseHeader is the fixed-width binary response frame header
// (spec.md §4.7).
type ResponseHeader struct {
	Status  Status
	Rows    uint32
	Cols    uint32
	NBytes  uint32
}

// EncodeResponseHeader renders h as its 16-byte little-endian wire image.
func EncodeResponseHeader(h ResponseHeader) []byte {
	buf := make([]byte, responseHeaderSize)
	byteOrder.PutUint32(buf[0:], uint32(h.Status))
	byteOrder.PutUint32(buf[4:], h.Rows)
	byteOrder.PutUint32(buf[8:], h.Cols)
	byteOrder.PutUint32(buf[12:], h.NBytes)
	return buf
}

// DecodeResponseHeader parses a 16-byte wire image into a ResponseHeader.
func DecodeResponseHeader(buf []byte) (ResponseHeader, error) {
	if len(buf) != responseHeaderSize {
		return ResponseHeader{}, fmt.Errorf("wire: response header must be %d bytes, got %d", responseHeaderSize, len(buf))
	}
	return ResponseHeader{
		Status: Status(byteOrder.Uint32(buf[0:])),
		Rows:   byteOrder.Uint32(buf[4:]),
		Cols:   byteOrder.Uint32(buf[8:]),
		NBytes: byteOrder.Uint32(buf[12:]),
	}, nil
}

// ResponseHeaderSize is the exact number of bytes callers must read
// before calling DecodeResponseHeader.
func ResponseHeaderSize() int { return responseHeaderSize }

// PlainElementSize and CoveredElementSize are the per-CpG-range wire sizes
// spec.md §4.7 specifies for the response body: 8 bytes for a plain level
// element, 12 for a covered one.
const (
	PlainElementSize   = 8
	CoveredElementSize = 12
)

// EncodePlainElement renders (nMeth, nUnmeth) as its 8-byte wire image.
func EncodePlainElement(nMeth, nUnmeth uint32) []byte {
	buf := make([]byte, PlainElementSize)
	byteOrder.PutUint32(buf[0:], nMeth)
	byteOrder.PutUint32(buf[4:], nUnmeth)
	return buf
}

// DecodePlainElement is the inverse of EncodePlainElement.
func DecodePlainElement(buf []byte) (nMeth, nUnmeth uint32) {
	return byteOrder.Uint32(buf[0:]), byteOrder.Uint32(buf[4:])
}

// EncodeCoveredElement renders (nMeth, nUnmeth, nCovered) as its 12-byte
// wire image.
func EncodeCoveredElement(nMeth, nUnmeth, nCovered uint32) []byte {
	buf := make([]byte, CoveredElementSize)
	byteOrder.PutUint32(buf[0:], nMeth)
	byteOrder.PutUint32(buf[4:], nUnmeth)
	byteOrder.PutUint32(buf[8:], nCovered)
	return buf
}

// DecodeCoveredElement is the inverse of EncodeCoveredElement.
func DecodeCoveredElement(buf []byte) (nMeth, nUnmeth, nCovered uint32) {
	return byteOrder.Uint32(buf[0:]), byteOrder.Uint32(buf[4:]), byteOrder.Uint32(buf[8:])
}

// QueryBodySize returns the exact byte length of an intervals request's
// binary query body for nIntervals ranges: two little-endian uint32 per
// element (spec.md §4.7).
func QueryBodySize(nIntervals uint32) int {
	return int(nIntervals) * 8
}

// requestHeaderLenSize is the length prefix this implementation puts in
// front of the JSON request header so a stream reader knows where the
// header ends and the optional query body begins. spec.md §4.7 specifies
// "headers are sent and received in full before any body bytes" but
// leaves the concrete framing mechanism unspecified; a 4-byte
// little-endian length prefix is this implementation's resolution.
const requestHeaderLenSize = 4

// EncodeRequestFrame renders a full request frame: the 4-byte header
// length prefix, the JSON header, and (for non-bins requests) the binary
// query body.
func EncodeRequestFrame(header RequestHeader, body []byte) ([]byte, error) {
	headerBytes, err := MarshalHeader(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, requestHeaderLenSize, requestHeaderLenSize+len(headerBytes)+len(body))
	byteOrder.PutUint32(out, uint32(len(headerBytes)))
	out = append(out, headerBytes...)
	out = append(out, body...)
	return out, nil
}

// ReadRequestFrame reads one full request frame from r: the length
// prefix, the JSON header, and — for non-bins request types — the query
// body sized from the header's aux_value.
func ReadRequestFrame(r io.Reader) (RequestHeader, []byte, error) {
	prefix := make([]byte, requestHeaderLenSize)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return RequestHeader{}, nil, err
	}
	headerBuf := make([]byte, byteOrder.Uint32(prefix))
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return RequestHeader{}, nil, err
	}
	header, err := UnmarshalHeader(headerBuf)
	if err != nil {
		return RequestHeader{}, nil, err
	}
	if header.RequestType.IsValid() && header.RequestType.IsBins() {
		return header, nil, nil
	}
	body := make([]byte, QueryBodySize(header.AuxValue))
	if _, err := io.ReadFull(r, body); err != nil {
		return RequestHeader{}, nil, err
	}
	return header, body, nil
}

// ReadResponseFrame reads one full response frame from r: the fixed-width
// header, then its body if NBytes > 0.
func ReadResponseFrame(r io.Reader) (ResponseHeader, []byte, error) {
	headerBuf := make([]byte, responseHeaderSize)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return ResponseHeader{}, nil, err
	}
	header, err := DecodeResponseHeader(headerBuf)
	if err != nil {
		return ResponseHeader{}, nil, err
	}
	if header.NBytes == 0 {
		return header, nil, nil
	}
	body := make([]byte, header.NBytes)
	if _, err := io.ReadFull(r, body); err != nil {
		return ResponseHeader{}, nil, err
	}
	return header, body, nil
}
