package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/JonMunkholm/bookfund/internal/core"
	"github.com/JonMunkholm/bookfund/internal/domain"
	"github.com/JonMunkholm/bookfund/internal/importer"
	"github.com/JonMunkholm/bookfund/internal/inventory"
	"github.com/JonMunkholm/bookfund/internal/recon"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"imports": s.service.LimiterStatus(),
	})
}

// =============================================================================
// Imports
// =============================================================================

// kindView is the public description of an import kind.
type kindView struct {
	Key           importer.Kind `json:"key"`
	Label         string        `json:"label"`
	NeedsBuilding bool          `json:"needs_building"`
	NeedsYear     bool          `json:"needs_year"`
	HasTemplate   bool          `json:"has_template"`
}

type kindGroup struct {
	Group string     `json:"group"`
	Kinds []kindView `json:"kinds"`
}

func (s *Server) handleListKinds(w http.ResponseWriter, r *http.Request) {
	var groups []kindGroup
	for _, g := range core.Groups() {
		group := kindGroup{Group: g}
		for _, k := range core.ByGroup(g) {
			group.Kinds = append(group.Kinds, kindView{
				Key:           k.Key,
				Label:         k.Label,
				NeedsBuilding: k.NeedsBuilding,
				NeedsYear:     k.NeedsYear,
				HasTemplate:   k.HasTemplate(),
			})
		}
		groups = append(groups, group)
	}
	writeJSON(w, http.StatusOK, groups)
}

// ImportResponse reports one import call. Error is set when the import was
// aborted or finished with row errors.
type ImportResponse struct {
	RequestID string              `json:"request_id,omitempty"`
	Outcome   *core.ImportOutcome `json:"outcome"`
	Error     *ErrorResponse      `json:"error,omitempty"`
}

// handleImport runs a multipart upload ("file", plus optional "building"
// and "year" fields) through the named import.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	kind := importer.Kind(chi.URLParam(r, "kind"))
	s.extendDeadlines(w)

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			fail(w, r, errors.Wrapf(errFileTooLarge, "limit %d bytes", maxSize))
		} else {
			fail(w, r, errors.Wrap(errNoFile, err.Error()))
		}
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		fail(w, r, errNoFile)
		return
	}
	defer file.Close()

	year, err := optionalInt(r.FormValue("year"))
	if err != nil {
		fail(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	out, err := s.service.Import(ctx, kind, file, core.ImportParams{
		FileName:     header.Filename,
		BuildingCode: r.FormValue("building"),
		AcademicYear: year,
	})
	if out == nil {
		fail(w, r, err)
		return
	}

	resp := ImportResponse{RequestID: requestID(r), Outcome: out}
	status := http.StatusOK
	if err != nil {
		e := newErrorResponse(err)
		resp.Error = &e
		status = statusFor(err)
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", core.DefaultHistoryLimit)
	runs, err := s.service.History(r.Context(), limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	kind := importer.Kind(chi.URLParam(r, "kind"))

	var buf bytes.Buffer
	if err := core.WriteTemplate(&buf, kind); err != nil {
		fail(w, r, err)
		return
	}
	writeXLSX(w, core.TemplateFileName(kind), &buf)
}

// =============================================================================
// Buildings, reconciliation and planning
// =============================================================================

func (s *Server) handleListBuildings(w http.ResponseWriter, r *http.Request) {
	buildings, err := s.service.Buildings(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	if buildings == nil {
		buildings = []domain.Building{}
	}
	writeJSON(w, http.StatusOK, buildings)
}

func (s *Server) handleReconciliation(w http.ResponseWriter, r *http.Request) {
	rep, err := s.service.Reconcile(r.Context(), chi.URLParam(r, "building"))
	if err != nil {
		fail(w, r, err)
		return
	}
	if !wantsXLSX(r) {
		writeJSON(w, http.StatusOK, rep)
		return
	}

	var buf bytes.Buffer
	if err := recon.WriteReconciliation(&buf, rep.Building.Code, rep.Rows); err != nil {
		fail(w, r, err)
		return
	}
	writeXLSX(w, fmt.Sprintf("reconciliation_%s.xlsx", rep.Building.Code), &buf)
}

func (s *Server) handlePlanning(w http.ResponseWriter, r *http.Request) {
	year, err := optionalInt(r.URL.Query().Get("year"))
	if err != nil {
		fail(w, r, err)
		return
	}
	rep, err := s.service.Plan(r.Context(), chi.URLParam(r, "building"), year)
	if err != nil {
		fail(w, r, err)
		return
	}
	if !wantsXLSX(r) {
		writeJSON(w, http.StatusOK, rep)
		return
	}

	var buf bytes.Buffer
	if err := recon.WritePlan(&buf, rep.Rows); err != nil {
		fail(w, r, err)
		return
	}
	writeXLSX(w, fmt.Sprintf("plan_%s_%d.xlsx", rep.Building.Code, year), &buf)
}

// =============================================================================
// Inventory
// =============================================================================

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	rep, err := s.service.Inventory(r.Context(), chi.URLParam(r, "building"))
	if err != nil {
		fail(w, r, err)
		return
	}
	if !wantsXLSX(r) {
		writeJSON(w, http.StatusOK, rep)
		return
	}

	var buf bytes.Buffer
	if err := inventory.WriteReport(&buf, rep.Rows); err != nil {
		fail(w, r, err)
		return
	}
	writeXLSX(w, fmt.Sprintf("inventory_%s.xlsx", rep.Building.Code), &buf)
}

func (s *Server) handleWriteOff(w http.ResponseWriter, r *http.Request) {
	var params core.WriteOffParams
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&params); err != nil {
		fail(w, r, errors.Wrap(core.ErrInvalidRequest, err.Error()))
		return
	}

	st, err := s.service.WriteOff(WithRequestMetadata(r.Context(), r), params)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ApprovalRequest is the body of POST /api/titles/{id}/approval.
type ApprovalRequest struct {
	Approved bool `json:"approved_by_order"`
}

// handleSetApproval marks a title as approved (or not) by ministry order.
func (s *Server) handleSetApproval(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		fail(w, r, errors.Wrapf(errInvalidNumber, "title id %q", raw))
		return
	}

	var req ApprovalRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<12))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		fail(w, r, errors.Wrap(core.ErrInvalidRequest, err.Error()))
		return
	}

	t, err := s.service.SetApproval(WithRequestMetadata(r.Context(), r), core.ApprovalParams{
		TitleID:  id,
		Approved: req.Approved,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// =============================================================================
// Helpers
// =============================================================================

// extendDeadlines lifts the server read/write timeouts for a long upload so
// UPLOAD_TIMEOUT is the effective bound. Unsupported writers are left as is.
func (s *Server) extendDeadlines(w http.ResponseWriter) {
	if s.cfg.Upload.Timeout <= 0 {
		return
	}
	rc := http.NewResponseController(w)
	deadline := time.Now().Add(s.cfg.Upload.Timeout)
	_ = rc.SetReadDeadline(deadline)
	_ = rc.SetWriteDeadline(deadline.Add(time.Minute))
}

// parseIntParam parses a positive integer query parameter.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// optionalInt parses raw, treating blank as zero.
func optionalInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(errInvalidNumber, "%q", raw)
	}
	return n, nil
}

func wantsXLSX(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("format"), "xlsx")
}

func writeXLSX(w http.ResponseWriter, fileName string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
