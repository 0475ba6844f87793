package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/tartampluch/go-sambat/internal/calendar"
	"github.com/tartampluch/go-sambat/internal/config"
	"github.com/tartampluch/go-sambat/internal/i18n"
)

// apiResponse mirrors the envelope used by the IPO backend.
type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// conversion is the payload of both conversion routes.
type conversion struct {
	AD      string          `json:"ad"`
	BS      calendar.BSDate `json:"bs"`
	BSText  string          `json:"bsText"`
	BSLabel string          `json:"bsLabel"`
}

// fallback is attached to 422 responses so clients can reset a date picker.
type fallback struct {
	Fallback calendar.BSDate `json:"fallback"`
}

type monthList struct {
	BS []string `json:"bs"`
	AD []string `json:"ad"`
}

// translator picks the language requested with ?lang=, defaulting to English.
func (s *CalendarServer) translator(r *http.Request) *i18n.Translator {
	if tr, ok := s.translators[r.URL.Query().Get(config.QueryLang)]; ok {
		return tr
	}
	return s.translators[config.DefaultLanguage]
}

// handleToBS converts the Gregorian date in the path to Bikram Sambat.
func (s *CalendarServer) handleToBS(w http.ResponseWriter, r *http.Request) {
	tr := s.translator(r)

	ad, err := calendar.ParseAD(mux.Vars(r)[config.RouteVarDate])
	if err != nil {
		s.metrics.conversion(config.DirectionToBS, config.ResultInvalid)
		writeJSON(w, http.StatusBadRequest, apiResponse{Error: err.Error()})
		return
	}

	bs, err := calendar.ToBS(ad)
	if err != nil {
		s.conversionFailed(w, tr, config.DirectionToBS, err, calendar.FallbackFor(ad))
		return
	}

	s.metrics.conversion(config.DirectionToBS, config.ResultOK)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: newConversion(tr, ad, bs)})
}

// handleToAD converts the BS date in the path to Gregorian.
func (s *CalendarServer) handleToAD(w http.ResponseWriter, r *http.Request) {
	tr := s.translator(r)

	bs, err := calendar.ParseBS(mux.Vars(r)[config.RouteVarDate])
	if err != nil {
		s.conversionFailed(w, tr, config.DirectionToAD, err, calendar.Fallback(bs.Year))
		return
	}

	ad, err := calendar.ToAD(bs)
	if err != nil {
		s.conversionFailed(w, tr, config.DirectionToAD, err, calendar.Fallback(bs.Year))
		return
	}

	s.metrics.conversion(config.DirectionToAD, config.ResultOK)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: newConversion(tr, ad, bs)})
}

// conversionFailed maps calendar errors to 422 (out of table) or 400 (bad date).
func (s *CalendarServer) conversionFailed(w http.ResponseWriter, tr *i18n.Translator, direction string, err error, fb calendar.BSDate) {
	if errors.Is(err, calendar.ErrUnsupportedRange) {
		s.metrics.conversion(direction, config.ResultRange)
		writeJSON(w, http.StatusUnprocessableEntity, apiResponse{
			Error: tr.Msg(config.TKeyUnsupported),
			Data:  fallback{Fallback: fb},
		})
		return
	}
	s.metrics.conversion(direction, config.ResultInvalid)
	writeJSON(w, http.StatusBadRequest, apiResponse{Error: err.Error()})
}

func newConversion(tr *i18n.Translator, ad time.Time, bs calendar.BSDate) conversion {
	return conversion{
		AD:      ad.Format(calendar.DateLayout),
		BS:      bs,
		BSText:  bs.String(),
		BSLabel: tr.FormatBS(bs),
	}
}

// handleMonths lists both month sequences in the requested language.
func (s *CalendarServer) handleMonths(w http.ResponseWriter, r *http.Request) {
	tr := s.translator(r)

	list := monthList{BS: make([]string, 12), AD: make([]string, 12)}
	for m := 1; m <= 12; m++ {
		list.BS[m-1] = tr.BSMonth(m)
		list.AD[m-1] = tr.ADMonth(m)
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: list})
}

func writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}
