package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trainerpass/guardian/pkg/filter"
	"trainerpass/guardian/pkg/guard"
	"trainerpass/guardian/pkg/moderation"
	"trainerpass/guardian/pkg/moderation/export"
	"trainerpass/guardian/pkg/strikes"
	"trainerpass/guardian/pkg/telemetry/logging"
)

// RulesResponse is the body of GET /v1/rules.
type RulesResponse struct {
	PolicyVersion  string        `json:"policy_version"`
	PhoneDetection bool          `json:"phone_detection"`
	Rules          []filter.Rule `json:"rules"`
}

// RecordsResponse is the JSON body of GET /v1/moderation/records.
type RecordsResponse struct {
	Records []*moderation.Record `json:"records"`
	Total   int64                `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

// ResetResponse is the body of DELETE /v1/authors/{author}/strikes.
type ResetResponse struct {
	Author  string `json:"author"`
	Removed int64  `json:"removed"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	var sub guard.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorTypeTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, "invalid JSON body: "+err.Error())
		return
	}

	ctx := r.Context()
	if sub.Author != "" {
		ctx = logging.WithAuthor(ctx, sub.Author)
	}
	if sub.Source != "" {
		ctx = logging.WithSource(ctx, sub.Source)
	}

	verdict, err := s.opts.Moderator.Check(ctx, sub)
	if err != nil {
		if errors.Is(err, guard.ErrTextTooLong) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorTypeTooLarge, err.Error())
			return
		}
		s.logger.ErrorContext(ctx, "check failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrorTypeServer, "check failed")
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	snap := s.opts.Rules.Snapshot()
	writeJSON(w, http.StatusOK, RulesResponse{
		PolicyVersion:  snap.Version,
		PhoneDetection: snap.Filter.PhoneDetection(),
		Rules:          snap.Filter.Rules(),
	})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if s.opts.Records == nil {
		writeError(w, http.StatusServiceUnavailable, ErrorTypeUnavailable, "moderation records: "+errUnavailable.Error())
		return
	}

	params := r.URL.Query()
	format := params.Get("format")
	exporter, err := export.New(format, s.opts.Export)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, err.Error())
		return
	}

	query, err := parseRecordQuery(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, err.Error())
		return
	}
	if err := moderation.ValidateQuery(query, s.opts.Query.MaxLimit); err != nil {
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, err.Error())
		return
	}
	moderation.ApplyQueryDefaults(query, s.opts.Query.DefaultLimit)

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()

	records, err := s.opts.Records.Query(ctx, query)
	if err != nil {
		s.logger.ErrorContext(ctx, "record query failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrorTypeServer, "failed to query records")
		return
	}

	if format == export.FormatCSV {
		w.Header().Set("Content-Type", export.ContentType(format))
		w.Header().Set("Content-Disposition", `attachment; filename="moderation-records.csv"`)
		if err := exporter.Export(ctx, records, w); err != nil {
			s.logger.ErrorContext(ctx, "record export failed", "error", err)
		}
		return
	}

	total, err := s.opts.Records.Count(ctx, query)
	if err != nil {
		s.logger.ErrorContext(ctx, "record count failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrorTypeServer, "failed to count records")
		return
	}
	writeJSON(w, http.StatusOK, RecordsResponse{
		Records: records,
		Total:   total,
		Limit:   query.Limit,
		Offset:  query.Offset,
	})
}

// parseRecordQuery builds a query from URL parameters. since and until are
// RFC 3339 timestamps.
func parseRecordQuery(params url.Values) (*moderation.Query, error) {
	q := &moderation.Query{
		Author:    params.Get("author"),
		Source:    params.Get("source"),
		RuleID:    params.Get("rule_id"),
		Category:  params.Get("category"),
		Severity:  params.Get("severity"),
		Action:    moderation.Action(params.Get("action")),
		SortBy:    params.Get("sort"),
		SortOrder: params.Get("order"),
	}

	for name, dst := range map[string]**time.Time{"since": &q.StartTime, "until": &q.EndTime} {
		if v := params.Get(name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: must be RFC 3339", name)
			}
			*dst = &t
		}
	}
	for name, dst := range map[string]*int{"limit": &q.Limit, "offset": &q.Offset} {
		if v := params.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: must be an integer", name)
			}
			*dst = n
		}
	}
	return q, nil
}

func (s *Server) handleStanding(w http.ResponseWriter, r *http.Request) {
	if s.opts.Strikes == nil {
		writeError(w, http.StatusServiceUnavailable, ErrorTypeUnavailable, "strikes: "+errUnavailable.Error())
		return
	}
	standing, err := s.opts.Strikes.Standing(r.Context(), r.PathValue("author"))
	if err != nil {
		s.strikeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, standing)
}

func (s *Server) handleResetStrikes(w http.ResponseWriter, r *http.Request) {
	if s.opts.Strikes == nil {
		writeError(w, http.StatusServiceUnavailable, ErrorTypeUnavailable, "strikes: "+errUnavailable.Error())
		return
	}
	author := r.PathValue("author")
	removed, err := s.opts.Strikes.Reset(r.Context(), author)
	if err != nil {
		s.strikeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ResetResponse{Author: author, Removed: removed})
}

func (s *Server) strikeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, strikes.ErrEmptyAuthor) {
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, err.Error())
		return
	}
	s.logger.ErrorContext(r.Context(), "strike operation failed", "error", err)
	writeError(w, http.StatusInternalServerError, ErrorTypeServer, "strike operation failed")
}
