package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/geulbit/geulbit-api/internal/models"
	"github.com/geulbit/geulbit-api/pkg/export"
	"github.com/geulbit/geulbit-api/pkg/storage"
)

type rosterSource interface {
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
}

type rosterClassSource interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type cardRenderer interface {
	RenderCodeCards(cards []export.CodeCard, title string) ([]byte, error)
}

// RosterExportConfig tunes export behaviour. PDFFontPath names a TTF with
// Hangul coverage; without it the card sheet falls back to the Latin-1 core
// fonts and Korean names will not print.
type RosterExportConfig struct {
	APIPrefix   string
	ResultTTL   time.Duration
	PDFFontPath string
}

// RosterExportResult captures successful generation metadata.
type RosterExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.RosterExportFormat
	ExpiresAt    time.Time
}

// RosterExportService renders a class roster as printable login-code cards
// (PDF) or a plain code list (CSV) and persists the file behind a signed URL.
type RosterExportService struct {
	students rosterSource
	classes  rosterClassSource
	storage  fileStorage
	csv      csvRenderer
	pdf      cardRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      RosterExportConfig
}

// NewRosterExportService constructs a RosterExportService.
func NewRosterExportService(students rosterSource, classes rosterClassSource, store fileStorage, signer *storage.SignedURLSigner, cfg RosterExportConfig, logger *zap.Logger) *RosterExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.PDFFontPath != "" {
		if _, err := os.Stat(cfg.PDFFontPath); err != nil {
			logger.Warn("pdf font not found, korean names will not render", zap.String("path", cfg.PDFFontPath), zap.Error(err))
			cfg.PDFFontPath = ""
		}
	}
	return &RosterExportService{
		students: students,
		classes:  classes,
		storage:  store,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporterWithFont(cfg.PDFFontPath),
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate renders the roster for the job's class and stores the file.
func (s *RosterExportService) Generate(ctx context.Context, job *models.RosterExportJob) (*RosterExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}

	class, err := s.classes.FindByID(ctx, job.ClassID)
	if err != nil {
		return nil, fmt.Errorf("load class: %w", err)
	}
	students, err := s.students.ListByClass(ctx, job.ClassID)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	var payload []byte
	switch job.Format {
	case models.RosterFormatCSV:
		payload, err = s.csv.Render(buildRosterDataset(students))
	case models.RosterFormatPDF:
		payload, err = s.pdf.RenderCodeCards(buildCodeCards(students), class.Name)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job, class.Name)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &RosterExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/roster-exports/download/%s", prefix, token),
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *RosterExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *RosterExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *RosterExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to ResultTTL when ttl <= 0).
func (s *RosterExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *RosterExportService) buildFilename(job *models.RosterExportJob, className string) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("roster_%s_%s.%s", sanitizeFilename(className), timestamp, job.Format)
}

func buildRosterDataset(students []models.Student) export.Dataset {
	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		rows = append(rows, map[string]string{
			"Name":       st.Name,
			"Login Code": st.LoginCode,
		})
	}
	return export.Dataset{
		Headers: []string{"Name", "Login Code"},
		Rows:    rows,
	}
}

func buildCodeCards(students []models.Student) []export.CodeCard {
	cards := make([]export.CodeCard, 0, len(students))
	for _, st := range students {
		cards = append(cards, export.CodeCard{Name: st.Name, Code: st.LoginCode})
	}
	return cards
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
