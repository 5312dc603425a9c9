package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bibbank/qrpay/internal/dto"
	"github.com/bibbank/qrpay/internal/middleware"
	"github.com/bibbank/qrpay/pkg/auth"
	"github.com/bibbank/qrpay/pkg/bysquare"
	"github.com/bibbank/qrpay/pkg/iso20022"
	"github.com/bibbank/qrpay/pkg/lzma"
	"github.com/bibbank/qrpay/pkg/observability"
	"github.com/bibbank/qrpay/pkg/qrpayment"
	"github.com/bibbank/qrpay/pkg/render"
)

// buildRecord parses the standard and request body and validates the record.
// On failure it writes the response and reports false.
func (h *Handler) buildRecord(w http.ResponseWriter, r *http.Request) (qrpayment.Record, dto.PaymentRequest, bool) {
	var req dto.PaymentRequest
	std, err := qrpayment.ParseStandard(r.PathValue("standard"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, req, false
	}

	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, req, false
	}

	rec, err := req.ToRecord(std, h.compressor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, req, false
	}

	if errs := rec.Validate(); len(errs) > 0 {
		h.metrics.RecordValidationFailure(r.Context(), std.String())
		h.metrics.RecordEncode(r.Context(), std.String(), observability.OutcomeInvalid)
		writeJSON(w, http.StatusUnprocessableEntity, dto.EncodeResponse{Standard: std.String(), Errors: errs})
		return nil, req, false
	}
	return rec, req, true
}

// encode renders the payload of a valid record, writing an error response on
// failure.
func (h *Handler) encode(w http.ResponseWriter, r *http.Request, rec qrpayment.Record) (string, bool) {
	std := rec.Standard().String()
	payload, err := rec.Encode(r.Context())
	if err != nil {
		h.metrics.RecordEncode(r.Context(), std, observability.OutcomeError)
		h.logger.Error("encode failed",
			"standard", std,
			"request_id", middleware.RequestID(r.Context()),
			"subject", auth.Subject(r.Context()),
			"error", err,
		)
		status := http.StatusInternalServerError
		if errors.Is(err, lzma.ErrUnavailable) || errors.Is(err, lzma.ErrTimeout) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return "", false
	}
	h.metrics.RecordEncode(r.Context(), std, observability.OutcomeOK)
	return payload, true
}

// Encode handles POST /api/v1/qr/{standard}.
func (h *Handler) Encode(w http.ResponseWriter, r *http.Request) {
	rec, _, ok := h.buildRecord(w, r)
	if !ok {
		return
	}
	payload, ok := h.encode(w, r, rec)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dto.EncodeResponse{Standard: rec.Standard().String(), Payload: payload})
}

// EncodePNG handles POST /api/v1/qr/{standard}/png. The size and level query
// parameters override the configured image options.
func (h *Handler) EncodePNG(w http.ResponseWriter, r *http.Request) {
	opts := h.render
	if s := r.URL.Query().Get("size"); s != "" {
		size, err := strconv.Atoi(s)
		if err != nil || size <= 0 || size > render.MaxSize {
			writeError(w, http.StatusBadRequest, "invalid size")
			return
		}
		opts.Size = size
	}
	if l := r.URL.Query().Get("level"); l != "" {
		level, err := render.ParseLevel(l)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Level = level
	}

	rec, _, ok := h.buildRecord(w, r)
	if !ok {
		return
	}
	payload, ok := h.encode(w, r, rec)
	if !ok {
		return
	}

	png, err := render.PNG(payload, opts)
	if err != nil {
		h.logger.Error("render failed", "standard", rec.Standard().String(), "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// EPCCreditTransfer handles POST /api/v1/qr/epc/pain001 and returns the EPC
// payment as a pain.001 credit transfer initiation debiting the request's
// debtor_iban and debtor_bic.
func (h *Handler) EPCCreditTransfer(w http.ResponseWriter, r *http.Request) {
	r.SetPathValue("standard", qrpayment.StandardEPC.String())
	rec, req, ok := h.buildRecord(w, r)
	if !ok {
		return
	}
	info, err := req.PaymentInstruction()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	epc := rec.(*qrpayment.EPC)
	info.Transactions = []iso20022.CreditTransferTransaction{epc.CreditTransfer(middleware.RequestID(r.Context()))}

	msg := iso20022.NewCreditTransferInitiation("qrpay", info)
	data, err := msg.ToXML()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type decodeRequest struct {
	Payload string `json:"payload"`
}

type decodeResponse struct {
	Payload string             `json:"payload"`
	Payment dto.PaymentRequest `json:"payment"`
}

// DecodeSVK handles POST /api/v1/qr/svk/decode.
func (h *Handler) DecodeSVK(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	raw, err := bysquare.Decode(req.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s, err := qrpayment.ParseSVKPayload(string(raw))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, decodeResponse{Payload: string(raw), Payment: dto.FromSVK(s)})
}
