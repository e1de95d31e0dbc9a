package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"club-system/internal/repositories"
	"club-system/internal/services"
	"club-system/pkg/utils"
)

type ReportController struct {
	reportService services.ReportServiceInterface
	logger        *zap.Logger
}

func NewReportController(reportService services.ReportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{
		reportService: reportService,
		logger:        logger,
	}
}

var reportHeaders = []string{
	"№ раунда", "Статус", "Начало", "Завершение", "Победитель",
	"Рекомендаций", "Голосов", "Отметок", "Средняя оценка",
}

func reportRowToSlice(row repositories.ReportRow) []interface{} {
	dateFmt := "02.01.2006 15:04"

	finished := ""
	if row.FinishedAt != nil {
		finished = row.FinishedAt.Format(dateFmt)
	}
	winner := "-"
	if row.WinnerTitle != nil {
		winner = *row.WinnerTitle
	}
	avgRating := "-"
	if row.AvgRating != nil {
		avgRating = fmt.Sprintf("%.1f", *row.AvgRating)
	}

	return []interface{}{
		row.RoundID, row.Status, row.StartedAt.Format(dateFmt), finished,
		winner, row.Recommendations, row.Votes, row.Completions, avgRating,
	}
}

// GetClubActivityXLSX выгружает историю раундов клуба в Excel.
func (c *ReportController) GetClubActivityXLSX(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	clubID, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	club, report, err := c.reportService.GetClubActivity(reqCtx, clubID, userID)
	if err != nil {
		c.logger.Error("Ошибка при формировании отчёта", zap.Error(err), zap.Uint64("clubID", clubID))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	f := excelize.NewFile()
	sheet := "Активность клуба"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &reportHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "I1", style)

	for i, item := range report {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := reportRowToSlice(item)
		f.SetSheetRow(sheet, cell, &row)
	}
	f.SetColWidth(sheet, "C", "E", 22)
	f.SetColWidth(sheet, "E", "E", 35)

	fileName := fmt.Sprintf("club_%d_activity_%s.xlsx", club.ID, time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}
