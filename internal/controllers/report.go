package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"gpit-system/internal/dto"
	"gpit-system/internal/services"
	"gpit-system/pkg/utils"
)

type ReportController struct {
	reportService *services.ReportService
	logger        *zap.Logger
}

func NewReportController(reportService *services.ReportService, logger *zap.Logger) *ReportController {
	return &ReportController{reportService: reportService, logger: logger}
}

// GetInventory returns the inventory snapshot as JSON, or as an xlsx
// download when ?format=xlsx is given.
func (c *ReportController) GetInventory(ctx echo.Context) error {
	data, err := c.reportService.GetInventory(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if strings.ToLower(ctx.QueryParam("format")) == "xlsx" {
		return c.respondWithXLSX(ctx, data)
	}

	return utils.SuccessResponse(ctx, data, "inventory report", http.StatusOK, uint64(len(data)))
}

var inventoryHeaders = []string{
	"ID", "Name", "Type", "Serial Number", "Status", "Purchase Date",
	"Assigned To", "Condition", "Assigned At",
}

func inventoryRowToSlice(row dto.InventoryRowDTO) []interface{} {
	return []interface{}{
		row.EquipmentID, row.Name, row.Type, row.SerialNumber, row.Status, row.PurchaseDate,
		utils.SafeDeref(row.HolderName), utils.SafeDeref(row.Condition), utils.SafeDeref(row.AssignedAt),
	}
}

func (c *ReportController) respondWithXLSX(ctx echo.Context, data []dto.InventoryRowDTO) error {
	f := excelize.NewFile()
	sheet := "Inventory"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &inventoryHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "I1", style)

	for i, item := range data {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := inventoryRowToSlice(item)
		f.SetSheetRow(sheet, cell, &row)
	}
	f.SetColWidth(sheet, "B", "D", 25)
	f.SetColWidth(sheet, "E", "F", 18)
	f.SetColWidth(sheet, "G", "I", 22)

	fileName := fmt.Sprintf("inventory_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}
