package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"io"
	"net/http"
)

const IdempotencyHeader = "Idempotency-Key"

var _ http.ResponseWriter = idemReqWriter{}

// Idempotent returns an Adapter that lets a client safely retry a POST.
// GET, DELETE, PUT, & PATCH are idempotent by definition.
//
// Idempotent pulls a key from the Idempotency-Key header
// to base the uniqueness of a POST request around.
// A request without the header is passed along untouched.
//
// If a previous request has not used that key,
// Idempotent pairs all of the following values to the key:
//   - the hash of the body of the request
//   - the headers, status code and body of the resulting response
//
// If that key has been used before (and has not expired),
// Idempotent falls into one of these scenarios:
//
//   - if a status code has not been set for that key,
//     Idempotent responds with 409 since the idempotent request is still processing
//
//   - if the requested URI or the request body does not match the original's,
//     Idempotent responds with 422
//
//   - otherwise, Idempotent replays the response recorded for the key
//
// If cache is nil, Idempotent passes every request along untouched.
//
// Idempotent implements the draft Idempotent HTTP Header Field specification:
// https://tools.ietf.org/id/draft-idempotency-header-01.html
func Idempotent(cache IdempotencyCacher) Adapter {
	if cache == nil {
		return NoopAdapter
	}

	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			if r.Method != http.MethodPost || key == "" {
				handler.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			sum := sha256.Sum256(body)

			ir, ok := cache.Get(r.Context(), key)
			if ok {
				if ir.Status == 0 {
					w.WriteHeader(http.StatusConflict)
					return
				}

				if ir.URI != r.URL.RequestURI() || !bytes.Equal(ir.Req, sum[:]) {
					w.WriteHeader(http.StatusUnprocessableEntity)
					return
				}

				for k, vals := range ir.Header {
					w.Header()[k] = vals
				}
				w.WriteHeader(ir.Status)
				w.Write(ir.Body.Bytes())
				return
			}

			ir = NewIdemRes(r.URL.RequestURI(), sum[:])
			cache.Set(r.Context(), key, ir)

			handler.ServeHTTP(idemReqWriter{ctx: r.Context(), c: cache, i: &ir, k: key, w: w}, r)
		})
	}
}

// An IdemRes is data from an HTTP response
// that can be reused when another request
// matches the same idempotency key.
type IdemRes struct {
	Body   *bytes.Buffer
	Header http.Header
	Req    []byte
	Status int
	URI    string
}

// An idemResGob is an intermediate representation of
// an IdemRes for the purposes of gob encoding/decoding.
type idemResGob struct {
	B []byte
	H http.Header
	R []byte
	S int
	U string
}

// NewIdemRes constructs a new IdemRes.
func NewIdemRes(uri string, hashedBody []byte) IdemRes {
	return IdemRes{Body: bytes.NewBuffer(nil), Header: make(http.Header), URI: uri, Req: hashedBody}
}

// GobDecode unmarshals the gob-encoded []byte into fields of the *IdemRes.
//
// GobDecode implements gob.GobDecoder.
func (i *IdemRes) GobDecode(b []byte) error {
	g := new(idemResGob)
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(g); err != nil {
		return err
	}

	i.Body = bytes.NewBuffer(g.B)
	i.Header, i.Req, i.Status, i.URI = g.H, g.R, g.S, g.U
	return nil
}

// GobEncode marshals the fields of the IdemRes into a gob-encoded []byte.
//
// GobEncode implements gob.GobEncoder.
func (i IdemRes) GobEncode() ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	g := idemResGob{i.Body.Bytes(), i.Header, i.Req, i.Status, i.URI}
	if err := gob.NewEncoder(buf).Encode(g); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// An idemReqWriter pairs an IdemRes with an http.ResponseWriter
// so both can be written to by an HTTP handler.
// Changes to the IdemRes in such a way are saved in the cache.
type idemReqWriter struct {
	ctx context.Context
	c   IdempotencyCacher
	i   *IdemRes
	k   string
	w   http.ResponseWriter
}

// Header returns the http.Header of the underlying http.ResponseWriter.
func (irw idemReqWriter) Header() http.Header { return irw.w.Header() }

// Write writes the bytes to all consumers the idemReqWriter is concerned with.
func (irw idemReqWriter) Write(b []byte) (int, error) {
	if irw.i.Status == 0 {
		irw.WriteHeader(http.StatusOK)
	}

	n, err := irw.w.Write(b)
	if err != nil {
		return n, err
	}

	if _, err = irw.i.Body.Write(b); err != nil {
		return n, err
	}

	irw.c.Set(irw.ctx, irw.k, *irw.i)
	return n, nil
}

// WriteHeader copies the status code and headers about to be written to the IdemRes for later reuse
// before actually writing the status code.
func (irw idemReqWriter) WriteHeader(s int) {
	irw.i.Header = irw.w.Header().Clone()
	irw.i.Status = s
	irw.w.WriteHeader(s)
	irw.c.Set(irw.ctx, irw.k, *irw.i)
}
