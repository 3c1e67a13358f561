package handlers

import (
	"field-verify/internal/calculator"
	"field-verify/internal/excel"
	"field-verify/internal/jobs"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuditHandler struct {
	store     *jobs.Store
	assessor  calculator.Assessor
	uploadDir string
	outputDir string
}

func NewAuditHandler(store *jobs.Store, assessor calculator.Assessor, uploadDir, outputDir string) *AuditHandler {
	return &AuditHandler{
		store:     store,
		assessor:  assessor,
		uploadDir: uploadDir,
		outputDir: outputDir,
	}
}

func (h *AuditHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/audits", h.Create)
	r.GET("/audits/:id", h.Status)
	r.GET("/audits/:id/logs", h.Logs)
	r.GET("/audits/:id/download", h.Download)
}

func (h *AuditHandler) Create(c *gin.Context) {
	file, err := c.FormFile("input_file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "BAD_REQUEST", "input_file is required")
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".xlsx") {
		respondError(c, http.StatusBadRequest, "BAD_REQUEST", "input_file must be an .xlsx workbook")
		return
	}
	if err := checkWorkbook(file); err != nil {
		respondError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	for _, dir := range []string{h.uploadDir, h.outputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "could not prepare storage")
			return
		}
	}

	inputPath := filepath.Join(h.uploadDir, fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(file.Filename)))
	if err := c.SaveUploadedFile(file, inputPath); err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "could not store upload")
		return
	}

	job := jobs.NewJob()
	h.store.Add(job)
	slog.Info("Audit job started", "job_id", job.ID, "file", file.Filename)

	go jobs.RunAudit(job, inputPath, h.outputDir, h.assessor)

	c.JSON(http.StatusAccepted, CreateSuccessResponse(job.Snapshot(false)))
}

// checkWorkbook rejects uploads that are not a workbook with a Visits sheet
// before a job is queued for them.
func checkWorkbook(file *multipart.FileHeader) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("could not read input_file")
	}
	defer src.Close()

	wb, err := excel.OpenReader(src)
	if err != nil {
		return fmt.Errorf("input_file is not a readable workbook")
	}
	defer wb.Close()

	if !excel.HasSheet(wb, excel.VisitsSheet) {
		return fmt.Errorf("input_file has no %q sheet", excel.VisitsSheet)
	}
	return nil
}

func (h *AuditHandler) job(c *gin.Context) *jobs.Job {
	job := h.store.Get(c.Param("id"))
	if job == nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "job not found")
	}
	return job
}

func (h *AuditHandler) Status(c *gin.Context) {
	if job := h.job(c); job != nil {
		c.JSON(http.StatusOK, CreateSuccessResponse(job.Snapshot(false)))
	}
}

func (h *AuditHandler) Logs(c *gin.Context) {
	if job := h.job(c); job != nil {
		c.JSON(http.StatusOK, CreateSuccessResponse(job.Snapshot(true)))
	}
}

func (h *AuditHandler) Download(c *gin.Context) {
	job := h.job(c)
	if job == nil {
		return
	}
	snap := job.Snapshot(false)
	if snap.Status != jobs.StatusDone || snap.Result == nil {
		respondError(c, http.StatusConflict, "NOT_READY", "audit has not finished")
		return
	}
	c.FileAttachment(filepath.Join(h.outputDir, snap.Result.Filename), snap.Result.Filename)
}
