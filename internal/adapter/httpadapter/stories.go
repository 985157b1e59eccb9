package httpadapter

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/couchcryptid/case-story-service/internal/domain"
	"github.com/couchcryptid/case-story-service/internal/pipeline"
	"github.com/couchcryptid/case-story-service/internal/story"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

type regionsResponse struct {
	Regions []string `json:"regions"`
}

// storyResponse is a story together with the sequencer view at one cursor.
type storyResponse struct {
	Story    domain.Story        `json:"story"`
	Cursor   int                 `json:"cursor"`
	Position int                 `json:"position"`
	Current  domain.Annotation   `json:"current"`
	Visible  []domain.Annotation `json:"visible"`
	Warning  string              `json:"warning,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRegions(w http.ResponseWriter, _ *http.Request) {
	regions, err := s.stories.Regions()
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, regionsResponse{Regions: regions})
}

func (s *Server) handleStory(w http.ResponseWriter, r *http.Request) {
	region := r.PathValue("region")

	segments, err := intParam(r, "segments", s.defaultSegments)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	cursor, err := intParam(r, "cursor", 0)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	st, err := s.stories.Select(region, segments)
	var warn *domain.DegradedSegmentationWarning
	if err != nil && !errors.As(err, &warn) {
		s.writeError(w, err)
		return
	}

	seq := story.NewSequencer(st.Annotations)
	seq.Seek(cursor)
	current, _ := seq.Current()

	resp := storyResponse{
		Story:    st,
		Cursor:   seq.Cursor(),
		Position: seq.Position(seq.Cursor()),
		Current:  current,
		Visible:  seq.VisibleAt(seq.Cursor()),
	}
	if warn != nil {
		resp.Warning = warn.Error()
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return n, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrDataNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSegmentCount):
		status = http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNotLoaded):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("story request failed", "error", err)
	}
	sharedobs.WriteJSON(w, status, errorResponse{Error: err.Error()})
}
