// Package api is the thin HTTP shell around the corrector. It moves bytes
// in and out and renders what the core returns; no correction logic lives
// here.
package api

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/younessemlali/xml-PeoPulse-Kfacture/internal/corrector"
	"github.com/younessemlali/xml-PeoPulse-Kfacture/internal/models"
)

// Version reported by /api/health and in correction responses.
const Version = "1.0.0"

// DocumentReport is the per-document outcome in a correction response.
type DocumentReport struct {
	Name         string                     `json:"name"`
	Success      bool                       `json:"success"`
	Error        string                     `json:"error,omitempty"`
	Encoding     string                     `json:"encoding,omitempty"`
	ChangeLog    []models.ContractChangeLog `json:"changeLog"`
	Diagnostics  []string                   `json:"diagnostics"`
	RealChanges  int                        `json:"realChanges"`
	CorrectedXML []byte                     `json:"correctedXml,omitempty"` // base64 over JSON
}

// CorrectResponse is the JSON response from the /api/correct endpoint.
type CorrectResponse struct {
	Success   bool             `json:"success"`
	Error     string           `json:"error,omitempty"`
	BatchID   string           `json:"batchId,omitempty"`
	Documents []DocumentReport `json:"documents"`
	Processed int              `json:"processed"`
	Failed    int              `json:"failed"`
	Version   string           `json:"version,omitempty"`
}

// NewApp builds the fiber application with all routes registered.
func NewApp(cfg *Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "xml-peopulse-kfacture",
		BodyLimit: cfg.MaxUploadMB << 20,
	})
	app.Get("/api/health", HandleHealth)
	app.Post("/api/correct", HandleCorrect)
	app.Post("/api/correct/archive", HandleArchive)
	return app
}

func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": Version,
		"engine":  "fiber",
	})
}

// HandleCorrect accepts one or more XML documents in the multipart field
// "files" and returns a per-document report with the corrected bytes
// inline. Documents are processed sequentially in submission order; a
// failure on one never blocks the rest.
func HandleCorrect(c *fiber.Ctx) (err error) {
	// Recover from any panic to keep the server up.
	defer func() {
		if rec := recover(); rec != nil {
			err = writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("internal error (recovered): %v", rec))
		}
	}()

	uploads, ferr := formFiles(c)
	if ferr != nil {
		return writeError(c, fiber.StatusBadRequest, ferr.Error())
	}

	resp := CorrectResponse{
		Success:   true,
		BatchID:   uuid.NewString(),
		Documents: []DocumentReport{},
		Version:   Version,
	}
	for _, upload := range uploads {
		report := correctUpload(upload)
		if report.Success {
			resp.Processed++
		} else {
			resp.Failed++
		}
		resp.Documents = append(resp.Documents, report)
	}

	return c.JSON(resp)
}

// HandleArchive accepts the same input as HandleCorrect and streams a zip
// of the corrected documents. Failed documents are skipped; the archive is
// produced as long as at least one document succeeded.
func HandleArchive(c *fiber.Ctx) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("internal error (recovered): %v", rec))
		}
	}()

	uploads, ferr := formFiles(c)
	if ferr != nil {
		return writeError(c, fiber.StatusBadRequest, ferr.Error())
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	packed := 0
	for _, upload := range uploads {
		report := correctUpload(upload)
		if !report.Success {
			continue
		}
		entry, werr := zw.Create("corrected_" + report.Name)
		if werr != nil {
			continue
		}
		if _, werr := entry.Write(report.CorrectedXML); werr == nil {
			packed++
		}
	}
	if err := zw.Close(); err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("archive generation failed: %v", err))
	}
	if packed == 0 {
		return writeError(c, fiber.StatusUnprocessableEntity, "no document could be corrected")
	}

	name := fmt.Sprintf("corrected_xml_%s.zip", time.Now().Format("20060102_150405"))
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Send(buf.Bytes())
}

// formFiles extracts the uploaded XML documents from the multipart form.
func formFiles(c *fiber.Ctx) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("failed to parse form: %v", err)
	}
	files := form.File["files"]
	if len(files) == 0 {
		return nil, fmt.Errorf("no file uploaded; use form field 'files'")
	}
	for _, fh := range files {
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".xml") {
			return nil, fmt.Errorf("only XML files are supported, got %q", fh.Filename)
		}
	}
	return files, nil
}

// correctUpload runs the corrector on one uploaded document and folds the
// outcome, fatal or not, into a report.
func correctUpload(fh *multipart.FileHeader) DocumentReport {
	report := DocumentReport{
		Name:        fh.Filename,
		ChangeLog:   []models.ContractChangeLog{},
		Diagnostics: []string{},
	}

	f, err := fh.Open()
	if err != nil {
		report.Error = fmt.Sprintf("failed to open upload: %v", err)
		return report
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		report.Error = fmt.Sprintf("failed to read upload: %v", err)
		return report
	}

	result, err := corrector.Correct(raw)
	if err != nil {
		report.Error = err.Error()
		return report
	}

	report.Success = true
	report.Encoding = result.Encoding
	report.CorrectedXML = result.Corrected
	report.RealChanges = result.RealChangeCount()
	if result.ChangeLog != nil {
		report.ChangeLog = result.ChangeLog
	}
	if result.Diagnostics != nil {
		report.Diagnostics = result.Diagnostics
	}
	return report
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(CorrectResponse{
		Success:   false,
		Error:     msg,
		Documents: []DocumentReport{},
	})
}
