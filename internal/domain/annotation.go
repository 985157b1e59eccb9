package domain

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Placement hints on which side of its point the renderer should draw an
// annotation.
type Placement string

const (
	PlacementLeft  Placement = "left"
	PlacementRight Placement = "right"
)

// Annotation is one narrative unit anchored to a series index. Date and Value
// are the data-space target; pixel mapping is the renderer's job.
type Annotation struct {
	Title       string    `json:"title,omitempty"`
	Text        string    `json:"text"`
	Date        time.Time `json:"date"`
	Value       float64   `json:"value"`
	AnchorIndex int       `json:"anchor_index"`
	StartIndex  int       `json:"start_index"`
	EndIndex    int       `json:"end_index"`
	Placement   Placement `json:"placement"`
	Highlight   bool      `json:"highlight"`
	Fadeout     bool      `json:"fadeout"`
}

// IsSentinel reports whether a is the textless terminal annotation.
func (a Annotation) IsSentinel() bool { return a.Text == "" }

// AnnotationSpec is the complete, one-step description of an annotation.
type AnnotationSpec struct {
	Title        string
	Text         string
	Target       SeriesPoint
	AnchorIndex  int `validate:"gte=0,ltfield=SeriesLength"`
	SeriesLength int `validate:"gt=0"`
	Highlight    bool
	Fadeout      bool
}

// NewAnnotation validates spec and builds the annotation. Placement is left
// when the anchor falls in the first half of the series.
func NewAnnotation(spec AnnotationSpec) (Annotation, error) {
	if err := validate.Struct(spec); err != nil {
		return Annotation{}, fmt.Errorf("invalid annotation: %w", err)
	}

	placement := PlacementRight
	if 2*spec.AnchorIndex < spec.SeriesLength {
		placement = PlacementLeft
	}

	return Annotation{
		Title:       spec.Title,
		Text:        spec.Text,
		Date:        spec.Target.Date,
		Value:       spec.Target.Value,
		AnchorIndex: spec.AnchorIndex,
		EndIndex:    spec.AnchorIndex,
		Placement:   placement,
		Highlight:   spec.Highlight,
		Fadeout:     spec.Fadeout,
	}, nil
}
