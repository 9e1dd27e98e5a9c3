package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scolaris/recouvrement-api/internal/models"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
	"github.com/scolaris/recouvrement-api/pkg/export"
	"github.com/scolaris/recouvrement-api/pkg/response"
)

type ledgerReader interface {
	ComputeDebt(ctx context.Context, studentID, academicYearID string) (*models.DebtFigure, error)
}

type solvencyReader interface {
	ClassifyStudent(ctx context.Context, figure *models.DebtFigure) (models.SolvencyTier, error)
	DebtorList(ctx context.Context, classID, academicYearID string) ([]models.DebtorEntry, error)
}

// LedgerHandler exposes debt computation and debtor list endpoints.
type LedgerHandler struct {
	ledger   ledgerReader
	solvency solvencyReader
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
}

// NewLedgerHandler constructs LedgerHandler.
func NewLedgerHandler(ledger ledgerReader, solvency solvencyReader, csv *export.CSVExporter, pdf *export.PDFExporter) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, solvency: solvency, csv: csv, pdf: pdf}
}

// StudentDebt godoc
// @Summary Compute a student's debt figure for an academic year
// @Tags Ledger
// @Produce json
// @Param id path string true "Student ID"
// @Param yearId query string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/debt [get]
func (h *LedgerHandler) StudentDebt(c *gin.Context) {
	yearID := c.Query("yearId")
	if yearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "yearId is required"))
		return
	}

	figure, err := h.ledger.ComputeDebt(c.Request.Context(), c.Param("id"), yearID)
	if err != nil {
		response.Error(c, err)
		return
	}

	tier, err := h.solvency.ClassifyStudent(c.Request.Context(), figure)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"figure": figure, "tier": tier}, nil)
}

// ClassDebtors godoc
// @Summary List elevated and critical debtors of a class
// @Tags Ledger
// @Produce json
// @Param id path string true "Class ID"
// @Param yearId query string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/debtors [get]
func (h *LedgerHandler) ClassDebtors(c *gin.Context) {
	yearID := c.Query("yearId")
	if yearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "yearId is required"))
		return
	}

	debtors, err := h.solvency.DebtorList(c.Request.Context(), c.Param("id"), yearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, debtors, nil)
}

// ExportDebtors godoc
// @Summary Export the debtor list of a class as CSV or PDF
// @Tags Ledger
// @Produce octet-stream
// @Param id path string true "Class ID"
// @Param yearId query string true "Academic year ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /classes/{id}/debtors/export [get]
func (h *LedgerHandler) ExportDebtors(c *gin.Context) {
	yearID := c.Query("yearId")
	if yearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "yearId is required"))
		return
	}
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "pdf" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}

	debtors, err := h.solvency.DebtorList(c.Request.Context(), c.Param("id"), yearID)
	if err != nil {
		response.Error(c, err)
		return
	}

	headers := []string{"Student", "Parent", "Phone", "Class", "Owed", "Paid", "Outstanding", "Tier"}
	rows := make([]map[string]string, 0, len(debtors))
	for _, d := range debtors {
		rows = append(rows, map[string]string{
			"Student":     d.StudentName,
			"Parent":      d.ParentName,
			"Phone":       d.Phone,
			"Class":       d.ClassName,
			"Owed":        d.Owed.String(),
			"Paid":        d.Paid.String(),
			"Outstanding": d.Outstanding.String(),
			"Tier":        string(d.Tier),
		})
	}
	dataset := export.Dataset{Headers: headers, Rows: rows}

	filename := fmt.Sprintf("debtors-%s-%s", c.Param("id"), yearID)
	if format == "pdf" {
		payload, err := h.pdf.Render(dataset, "Liste des debiteurs")
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", filename))
		c.Data(http.StatusOK, "application/pdf", payload)
		return
	}

	payload, err := h.csv.Render(dataset)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}
