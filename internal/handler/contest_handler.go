package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/handler/dto"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
	"github.com/yourusername/contest-api/internal/service"
)

// ContestHandler serves the contest REST surface.
type ContestHandler struct {
	contestService *service.ContestService
	contestManager *service.ContestManager
}

// NewContestHandler creates the contest handler.
func NewContestHandler(contestService *service.ContestService, contestManager *service.ContestManager) *ContestHandler {
	return &ContestHandler{
		contestService: contestService,
		contestManager: contestManager,
	}
}

// CreateContestRequest is the body of POST /api/admin/contests.
type CreateContestRequest struct {
	Title           string    `json:"title" binding:"required,min=3,max=100"`
	Description     string    `json:"description" binding:"omitempty,max=500"`
	PrizePool       float64   `json:"prize_pool" binding:"required"`
	PlatformFeeRate float64   `json:"platform_fee_rate"`
	PayoutTiers     []float64 `json:"payout_tiers" binding:"required,min=1"`
}

// CreateContest creates a contest in draft status.
func (h *ContestHandler) CreateContest(c *gin.Context) {
	var req CreateContestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contest := &entity.Contest{
		Title:           req.Title,
		Description:     req.Description,
		PrizePool:       req.PrizePool,
		PlatformFeeRate: req.PlatformFeeRate,
		PayoutTiers:     entity.FloatArray(req.PayoutTiers),
	}
	if err := h.contestService.CreateContest(contest); err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewContestResponse(contest))
}

// GetContest returns one contest.
func (h *ContestHandler) GetContest(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	contest, err := h.contestService.GetContest(contestID)
	if err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewContestResponse(contest))
}

// ListContests returns a page of contests.
func (h *ContestHandler) ListContests(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	contests, err := h.contestService.ListContests(page, pageSize)
	if err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contests": dto.NewContestListResponse(contests)})
}

// OpenContest moves a draft contest to open.
func (h *ContestHandler) OpenContest(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	if err := h.contestService.OpenContest(contestID); err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": entity.ContestStatusOpen})
}

// CancelContest cancels a contest.
func (h *ContestHandler) CancelContest(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	if err := h.contestService.CancelContest(contestID); err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": entity.ContestStatusCancelled})
}

// RegisterSubmissionRequest is the body of POST /api/contests/:id/submissions.
type RegisterSubmissionRequest struct {
	Author          string   `json:"author" binding:"required,min=1,max=100"`
	SourceWorkTitle string   `json:"source_work_title" binding:"required,min=1,max=200"`
	PromptText      string   `json:"prompt_text" binding:"required,min=1,max=2000"`
	UsedVocabulary  []string `json:"used_vocabulary"`
	VideoURL        string   `json:"video_url" binding:"omitempty,max=500,url"`
}

// RegisterSubmission registers an entry in an open contest.
func (h *ContestHandler) RegisterSubmission(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	var req RegisterSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission := &entity.Submission{
		Author:          req.Author,
		SourceWorkTitle: req.SourceWorkTitle,
		PromptText:      req.PromptText,
		UsedVocabulary:  entity.StringArray(req.UsedVocabulary),
		VideoURL:        req.VideoURL,
	}
	if err := h.contestService.RegisterSubmission(contestID, submission); err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewSubmissionResponse(submission))
}

// ListSubmissions returns the contest's submissions in registry order.
func (h *ContestHandler) ListSubmissions(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	subs, err := h.contestService.GetSubmissions(contestID)
	if err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submissions": dto.NewSubmissionListResponse(subs)})
}

// StartJudging launches the judging pipeline for an open contest.
func (h *ContestHandler) StartJudging(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	if err := h.contestManager.StartJudging(contestID); err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": entity.ContestStatusJudging})
}

// CancelJudging aborts an in-flight judging run.
func (h *ContestHandler) CancelJudging(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	if err := h.contestManager.CancelJudging(contestID); err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

// GetJudgingRun returns the current judging run phase.
func (h *ContestHandler) GetJudgingRun(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	run, err := h.contestManager.GetRun(contestID)
	if err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRunResponse(run))
}

// GetResults returns a page of a contest's final results.
func (h *ContestHandler) GetResults(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	results, total, err := h.contestService.GetResults(contestID, page, pageSize)
	if err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": dto.NewResultListResponse(results),
		"total":   total,
	})
}

// GetWinners returns the paid podium of a contest.
func (h *ContestHandler) GetWinners(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	winners, err := h.contestService.GetWinners(contestID)
	if err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"winners": dto.NewResultListResponse(winners)})
}

// GetSubmissionScores returns the persisted per-judge verdicts of a contest.
func (h *ContestHandler) GetSubmissionScores(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	scores, err := h.contestService.GetSubmissionScores(contestID)
	if err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scores": dto.NewScoreListResponse(scores)})
}

// ExportResults streams the contest results as CSV or XLSX.
// GET /api/contests/:id/results/export?format=csv|xlsx
func (h *ContestHandler) ExportResults(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)
	format := c.DefaultQuery("format", "csv")

	results, err := h.contestService.GetAllResults(contestID)
	if err != nil {
		h.handleContestError(c, err)
		return
	}

	filename := fmt.Sprintf("contest_%d_results_%s", contestID, time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, results, filename)
	default:
		h.exportCSV(c, results, filename)
	}
}

var exportHeaders = []string{"Rank", "Author", "Visual", "Linguistic", "Audience", "Total", "Winner", "Payout", "Degraded scores"}

// exportCSV writes results as UTF-8 CSV with proper escaping.
func (h *ContestHandler) exportCSV(c *gin.Context, results []entity.Result, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM so Excel detects UTF-8.
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeaders)

	for _, r := range results {
		winner := "No"
		if r.IsWinner {
			winner = "Yes"
		}
		writer.Write([]string{
			strconv.Itoa(r.Rank),
			sanitizeForExcel(r.Author),
			fmt.Sprintf("%.1f", r.VisualScore),
			fmt.Sprintf("%.1f", r.LinguisticScore),
			fmt.Sprintf("%.1f", r.AudienceScore),
			fmt.Sprintf("%.1f", r.TotalScore),
			winner,
			fmt.Sprintf("%.2f", r.PayoutAmount),
			strconv.Itoa(r.DegradedScores),
		})
	}
}

// exportXLSX writes results as an Excel file using the StreamWriter.
func (h *ContestHandler) exportXLSX(c *gin.Context, results []entity.Result, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Results"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[ContestHandler] Failed to create StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headerRow := make([]interface{}, len(exportHeaders))
	for i, hName := range exportHeaders {
		headerRow[i] = hName
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		log.Printf("[ContestHandler] Failed to write headers: %v", err)
	}

	for i, r := range results {
		rowNum := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)

		winner := "No"
		if r.IsWinner {
			winner = "Yes"
		}
		row := []interface{}{r.Rank, sanitizeForExcel(r.Author), r.VisualScore, r.LinguisticScore, r.AudienceScore, r.TotalScore, winner, r.PayoutAmount, r.DegradedScores}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[ContestHandler] Failed to write row %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[ContestHandler] StreamWriter flush failed: %v", err)
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[ContestHandler] Failed to write Excel response: %v", err)
	}
}

// sanitizeForExcel guards exported cells against formula injection.
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

// handleContestError maps service errors to HTTP statuses.
func (h *ContestHandler) handleContestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrEmptySubmissions),
		errors.Is(err, apperrors.ErrInvalidPrizePool),
		errors.Is(err, apperrors.ErrInvalidTierConfig),
		errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		log.Printf("[ContestHandler] Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
