package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ecosan/sanitrack/internal/consent"
)

type consentRequest struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
}

// SignConsent accepts a signer name and a base64 PNG signature, renders the
// consent PDF, and uploads it. Both JSON bodies and form posts are accepted.
//
//	POST /consent
func (h *Handlers) SignConsent(w http.ResponseWriter, r *http.Request) {
	var req consentRequest

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			if err := r.ParseForm(); err != nil {
				respondError(w, http.StatusBadRequest, "invalid form data")
				return
			}
		}
		req.Name = r.FormValue("name")
		req.Signature = r.FormValue("signature")
	}

	receipt, err := h.consent.Sign(r.Context(), req.Name, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, consent.ErrMissingName),
			errors.Is(err, consent.ErrEmptySignature),
			errors.Is(err, consent.ErrInvalidSignature):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}
