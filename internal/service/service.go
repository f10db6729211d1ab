package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"nstcaward-backend/internal/assert"
	"nstcaward-backend/internal/scrapers/nstc"
	"nstcaward-backend/internal/telemetry"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

const (
	report_service_search_awards = "service.search-awards"
	report_service_get_detail    = "service.get-detail"
	report_service_write_json    = "service.write-json"
)

const suggestionLimit = 3

// AwardsAPI is the registry client the service queries.
//
// note: fault injection point
type AwardsAPI interface {
	Search(ctx context.Context, params nstc.SearchParams) ([]nstc.AwardRecord, error)
	FetchDetail(ctx context.Context, projectNo string) (string, error)
}

// Service exposes the registry client over REST and caches every search
// result by plan name.
type Service struct {
	api   AwardsAPI
	cache *PlanCache
	tel   telemetry.API
}

func NewService(api AwardsAPI, cache *PlanCache, tel telemetry.API) Service {
	assert.NotNil(api, "awards API implementation")
	assert.NotNil(cache, "plan cache")
	assert.NotNil(tel, "telemetry API")

	return Service{
		api:   api,
		cache: cache,
		tel:   telemetry.NewScopedAPI("service", tel),
	}
}

// Router mounts every endpoint, `corsOrigins` defaults to allowing any origin.
func (s Service) Router(corsOrigins []string) http.Handler {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/api/health", s.health)
	r.Get("/api/awards", s.searchAwards)
	r.Get("/api/awards/detail/{project_no}", s.getDetail)
	r.Get("/api/awards/{plan_name}", s.planLookup)
	return r
}

type errorResponse struct {
	Detail      string   `json:"detail"`
	Suggestions []string `json:"suggestions,omitempty"`
}

type detailResponse struct {
	ProjectNo string `json:"project_no"`
	Impact    string `json:"impact"`
}

func (s Service) writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		s.tel.ReportWarning(report_service_write_json, err)
	}
}

func (s Service) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJson(w, status, errorResponse{Detail: detail})
}

// upstreamStatus maps a client error to the status returned to the caller.
func upstreamStatus(err error) int {
	var transportErr *nstc.TransportError
	if errors.As(err, &transportErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s Service) health(w http.ResponseWriter, r *http.Request) {
	s.writeJson(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s Service) searchAwards(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	for _, required := range []string{"year", "code", "name"} {
		if query.Get(required) == "" {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("missing query parameter '%s'", required))
			return
		}
	}
	year, err := strconv.Atoi(query.Get("year"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "query parameter 'year' must be an integer")
		return
	}

	params := nstc.SearchParams{
		Year:  year,
		Code:  query.Get("code"),
		Name:  query.Get("name"),
		Organ: query.Get("organ"),
	}
	records, err := s.api.Search(r.Context(), params)
	if err != nil {
		s.tel.ReportBroken(report_service_search_awards, err, params)
		s.writeError(w, upstreamStatus(err), fmt.Sprintf("search failed: %s", err.Error()))
		return
	}
	if len(records) == 0 {
		s.writeError(w, http.StatusNotFound, "no awards matched the query")
		return
	}

	s.cache.Append(records)
	s.tel.ReportCount(report_service_search_awards, int64(len(records)))
	s.writeJson(w, http.StatusOK, records)
}

func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	value, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return value
}

func (s Service) planLookup(w http.ResponseWriter, r *http.Request) {
	planName := pathParam(r, "plan_name")

	records, ok := s.cache.Get(planName)
	if !ok {
		s.tel.ReportDebug("plan cache miss", planName)
		s.writeJson(w, http.StatusNotFound, errorResponse{
			Detail: fmt.Sprintf(
				"no cached awards for plan '%s', query /api/awards first to populate the cache",
				planName,
			),
			Suggestions: s.cache.Suggest(planName, suggestionLimit),
		})
		return
	}

	s.writeJson(w, http.StatusOK, records)
}

func (s Service) getDetail(w http.ResponseWriter, r *http.Request) {
	projectNo := pathParam(r, "project_no")

	impact, err := s.api.FetchDetail(r.Context(), projectNo)
	if err != nil {
		s.tel.ReportBroken(report_service_get_detail, err, projectNo)
		s.writeError(w, upstreamStatus(err), fmt.Sprintf("fetch detail failed: %s", err.Error()))
		return
	}
	if impact == "" {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("no detail found for project %s", projectNo))
		return
	}

	s.writeJson(w, http.StatusOK, detailResponse{ProjectNo: projectNo, Impact: impact})
}
