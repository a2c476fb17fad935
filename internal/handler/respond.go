package handler

import (
	"encoding/json"
	"io"
	"maps"
	"net/http"
	"slices"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/domain/product"
)

const maxBodyBytes = 64 << 10

// errBadRequest marks client input errors whose message is safe to return.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return errors.Wrapf(errBadRequest, format, args...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status is already sent; an encode error means the client left.
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"code": status, "message": msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeErrorFields(w, status, msg, nil)
}

// writeErrorFields adds a "fields" object of per-field messages when fields
// is not empty.
func writeErrorFields(w http.ResponseWriter, status int, msg string, fields map[string]string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(msg)
	if len(fields) > 0 {
		e.FieldStart("fields")
		e.ObjStart()
		for _, k := range slices.Sorted(maps.Keys(fields)) {
			e.FieldStart(k)
			e.Str(fields[k])
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("malformed JSON body: %v", err)
	}
	return nil
}

// fail maps domain errors to HTTP responses. Unknown errors are logged and
// reported as 500 without detail.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *checkout.ValidationError
		transition *checkout.TransitionError
	)
	switch {
	case errors.As(err, &validation):
		writeErrorFields(w, http.StatusUnprocessableEntity, "checkout is incomplete", validation.Fields)
	case errors.As(err, &transition):
		writeError(w, http.StatusConflict, transition.Error())
	case errors.Is(err, checkout.ErrSubmitted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, errBadRequest),
		errors.Is(err, checkout.ErrUnknownDistrict),
		errors.Is(err, checkout.ErrUnknownPaymentMethod),
		errors.Is(err, pricing.ErrUnknownZone):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
