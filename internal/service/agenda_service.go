package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nextlevel-sports/academy-api/internal/models"
	"github.com/nextlevel-sports/academy-api/pkg/civiltime"
	appErrors "github.com/nextlevel-sports/academy-api/pkg/errors"
	"github.com/nextlevel-sports/academy-api/pkg/export"
)

// Export formats.
const (
	ExportCSV = "csv"
	ExportPDF = "pdf"
)

type agendaLessonReader interface {
	ListByDate(ctx context.Context, dayStart, dayEnd time.Time, professionalID string) ([]models.LessonView, error)
}

type agendaBlockReader interface {
	ListByRange(ctx context.Context, from, to string, professionalID string) ([]models.TimeBlockView, error)
}

// DayView is the combined calendar for one date.
type DayView struct {
	Date    string                 `json:"date"`
	Lessons []models.LessonView    `json:"lessons"`
	Blocks  []models.TimeBlockView `json:"blocks"`
}

// ExportFile is a rendered export ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// AgendaService assembles day views and renders them as downloadable files.
type AgendaService struct {
	lessons agendaLessonReader
	blocks  agendaBlockReader
	zone    *civiltime.Zone
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewAgendaService instantiates AgendaService.
func NewAgendaService(lessons agendaLessonReader, blocks agendaBlockReader, zone *civiltime.Zone, logger *zap.Logger) *AgendaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgendaService{
		lessons: lessons,
		blocks:  blocks,
		zone:    zone,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// Day returns one date's lessons and blocks, optionally for one professional.
func (s *AgendaService) Day(ctx context.Context, date, professionalID string) (*DayView, error) {
	dayStart, err := s.zone.ToAbsolute(date, "00:00")
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessons.ListByDate(ctx, dayStart, dayStart.Add(24*time.Hour), professionalID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	blocks, err := s.blocks.ListByRange(ctx, date, date, professionalID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time blocks")
	}
	return &DayView{Date: date, Lessons: lessons, Blocks: blocks}, nil
}

// ExportDay renders a date's lessons as a CSV or PDF download.
func (s *AgendaService) ExportDay(ctx context.Context, date, professionalID, format string) (*ExportFile, error) {
	view, err := s.Day(ctx, date, professionalID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Time", "Student", "Professional", "Unit", "Status", "Value"},
		Rows:    make([]map[string]string, 0, len(view.Lessons)),
	}
	for _, lesson := range view.Lessons {
		_, startClock := s.zone.ToLocal(lesson.StartsAt)
		_, endClock := s.zone.ToLocal(lesson.EndsAt)
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Time":         startClock + "-" + endClock,
			"Student":      lesson.StudentName,
			"Professional": lesson.ProfessionalName,
			"Unit":         lesson.UnitName,
			"Status":       string(lesson.Status),
			"Value":        fmt.Sprintf("%.2f", lesson.Value),
		})
	}

	switch format {
	case ExportCSV, "":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("agenda-%s.csv", date),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case ExportPDF:
		content, err := s.pdf.Render(dataset, "Agenda "+date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("agenda-%s.pdf", date),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
