package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/platform/schedule"
	"github.com/lueurxax/editorial-planner/internal/process/projects"
	"github.com/lueurxax/editorial-planner/internal/process/strategy"
)

type selectionRequest struct {
	Selected *bool `json:"selected"`
}

// keywordSelectionRequest names whose flag changes; "user" when omitted.
type keywordSelectionRequest struct {
	selectionRequest

	SelectionType domain.SelectionOrigin `json:"selectionType,omitempty"`
}

type generateRequest struct {
	Request string `json:"request"`
}

// itemUpdateRequest takes the publish date as a plain date string.
type itemUpdateRequest struct {
	strategy.ItemUpdate

	PublishDate *string `json:"publishDate,omitempty"`
}

// projectRequest takes the first publish date as a plain date string.
type projectRequest struct {
	projects.Fields

	FirstPublishDate *string `json:"firstPublishDate,omitempty"`
}

type extendRequest struct {
	AdditionalDays int `json:"additionalDays"`
}

type datesRequest struct {
	Updates []dateUpdate `json:"updates"`
}

type dateUpdate struct {
	ItemID      string `json:"postId"`
	PublishDate string `json:"publishDate"`
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeProject(w, r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	p, err := s.projects.Create(r.Context(), fields)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, newProjectView(p))
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	includeArchived := false

	if raw := r.URL.Query().Get("archived"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, s.logger, coreerrors.Wrap(coreerrors.CodeInvalidInput, "invalid archived flag", err))
			return
		}

		includeArchived = v
	}

	list, err := s.projects.List(r.Context(), includeArchived)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	out := make([]projectView, 0, len(list))
	for _, p := range list {
		out = append(out, newProjectView(p))
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newProjectView(p))
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeProject(w, r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	p, err := s.projects.Update(r.Context(), r.PathValue("id"), fields)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newProjectView(p))
}

func (s *Server) archiveProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.Archive(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newProjectView(p))
}

func decodeProject(w http.ResponseWriter, r *http.Request) (projects.Fields, error) {
	var req projectRequest
	if err := decodeBody(w, r, &req); err != nil {
		return projects.Fields{}, err
	}

	fields := req.Fields

	if req.FirstPublishDate != nil {
		date, err := parseDate(*req.FirstPublishDate, "invalid first publish date")
		if err != nil {
			return projects.Fields{}, err
		}

		fields.FirstPublishDate = &date
	}

	return fields, nil
}

func parseDate(value, message string) (time.Time, error) {
	date, err := schedule.ParseDate(value, time.UTC)
	if err != nil {
		return time.Time{}, coreerrors.Wrap(coreerrors.CodeInvalidInput, message, err)
	}

	return date, nil
}

func (s *Server) startResearch(w http.ResponseWriter, r *http.Request) {
	run, err := s.research.Start(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusAccepted, newRunView(run, nil))
}

func (s *Server) getResearch(w http.ResponseWriter, r *http.Request) {
	view, err := s.research.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newResearchView(view))
}

func (s *Server) approveResearch(w http.ResponseWriter, r *http.Request) {
	run, err := s.research.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newRunView(run, nil))
}

func (s *Server) consolidate(w http.ResponseWriter, r *http.Request) {
	n, err := s.research.Consolidate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"consolidated": n})
}

func (s *Server) selectKeyword(w http.ResponseWriter, r *http.Request) {
	var req keywordSelectionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	if req.Selected == nil {
		writeError(w, s.logger, errSelectedRequired())
		return
	}

	kw, err := s.research.UpdateKeywordSelection(r.Context(), r.PathValue("id"), *req.Selected, req.SelectionType)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newKeywordView(kw))
}

func (s *Server) selectCluster(w http.ResponseWriter, r *http.Request) {
	selected, err := decodeSelection(w, r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	c, err := s.research.UpdateClusterSelection(r.Context(), r.PathValue("id"), selected)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newClusterView(c))
}

func decodeSelection(w http.ResponseWriter, r *http.Request) (bool, error) {
	var req selectionRequest
	if err := decodeBody(w, r, &req); err != nil {
		return false, err
	}

	if req.Selected == nil {
		return false, errSelectedRequired()
	}

	return *req.Selected, nil
}

func errSelectedRequired() error {
	return coreerrors.New(coreerrors.CodeInvalidInput, "selected is required")
}

func (s *Server) generateForProject(w http.ResponseWriter, r *http.Request) {
	s.generate(w, r, strategy.GenerateRequest{ProjectID: r.PathValue("id")})
}

func (s *Server) generateForSession(w http.ResponseWriter, r *http.Request) {
	s.generate(w, r, strategy.GenerateRequest{SessionID: r.PathValue("id")})
}

// generate accepts an empty body; a request text asks for a modification
// of the active version.
func (s *Server) generate(w http.ResponseWriter, r *http.Request, req strategy.GenerateRequest) {
	var body generateRequest
	if err := decodeBody(w, r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, s.logger, err)
		return
	}

	req.Request = body.Request

	v, err := s.strategy.Generate(r.Context(), req)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, newVersionView(v))
}

func (s *Server) listVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.strategy.ListVersions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	out := make([]versionView, 0, len(versions))
	for _, v := range versions {
		out = append(out, newVersionView(v))
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getVersion(w http.ResponseWriter, r *http.Request) {
	v, err := s.strategy.GetVersion(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newVersionView(v))
}

func (s *Server) replace(w http.ResponseWriter, r *http.Request) {
	result, err := s.strategy.Replace(r.Context(), r.PathValue("id"), r.PathValue("versionId"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) approveSession(w http.ResponseWriter, r *http.Request) {
	n, err := s.strategy.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"approved": n})
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	n, err := s.validator.ValidateVersion(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"validated": n})
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	var req itemUpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	upd := req.ItemUpdate

	if req.PublishDate != nil {
		date, err := parseDate(*req.PublishDate, "invalid publish date")
		if err != nil {
			writeError(w, s.logger, err)
			return
		}

		upd.PublishDate = &date
	}

	item, err := s.strategy.UpdateContentItem(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newItemView(item))
}

// extend accepts an empty body, which extends by the default period.
func (s *Server) extend(w http.ResponseWriter, r *http.Request) {
	var req extendRequest
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, s.logger, err)
		return
	}

	v, err := s.strategy.Extend(r.Context(), r.PathValue("id"), req.AdditionalDays)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, newVersionView(v))
}

func (s *Server) updateDates(w http.ResponseWriter, r *http.Request) {
	var req datesRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	updates := make([]strategy.DateUpdate, 0, len(req.Updates))

	for _, u := range req.Updates {
		date, err := parseDate(u.PublishDate, "invalid publish date for "+u.ItemID)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}

		updates = append(updates, strategy.DateUpdate{ItemID: u.ItemID, PublishDate: date})
	}

	n, err := s.strategy.UpdatePublishDates(r.Context(), r.PathValue("id"), updates)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}
