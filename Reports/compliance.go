package Reports

import (
	"bytes"
	"fmt"
	"time"

	"Firewatch/Models"
	"Firewatch/TaskEngine"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// BuildComplianceWorkbook renders one organization's compliance position as
// an Excel workbook: check tasks, open defects and fire drills, one sheet
// each.
func BuildComplianceWorkbook(db *gorm.DB, orgID uint, now time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#FFE4E1"},
			Pattern: 1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating header style: %v", err)
	}

	if err := addTasksSheet(f, db, orgID, now, headerStyle); err != nil {
		return nil, err
	}
	if err := addDefectsSheet(f, db, orgID, headerStyle); err != nil {
		return nil, err
	}
	if err := addDrillsSheet(f, db, orgID, headerStyle); err != nil {
		return nil, err
	}

	f.DeleteSheet("Sheet1")

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %v", err)
	}
	return buffer, nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string, style int) {
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheet, cell, header)
	}
	f.SetRowStyle(sheet, 1, 1, style)
	for i := 0; i < len(headers); i++ {
		f.SetColWidth(sheet, string('A'+rune(i)), string('A'+rune(i)), 18)
	}
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for colIndex, value := range values {
		cell := fmt.Sprintf("%c%d", 'A'+colIndex, row)
		f.SetCellValue(sheet, cell, value)
	}
}

func addTasksSheet(f *excelize.File, db *gorm.DB, orgID uint, now time.Time, style int) error {
	sheetName := "Checks"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	var tasks []Models.CheckTask
	if err := db.Where("org_id = ?", orgID).Order("due_at").Find(&tasks).Error; err != nil {
		return fmt.Errorf("error fetching tasks: %v", err)
	}

	writeHeaders(f, sheetName, []string{
		"Task ID", "Site ID", "Asset ID", "Due Date", "Status",
		"Overdue", "Claimed By", "Completed At", "Entry ID",
	}, style)

	overdueIDs := make(map[uint]bool)
	for _, task := range TaskEngine.Overdue(tasks, now) {
		overdueIDs[task.ID] = true
	}

	for rowIndex, task := range tasks {
		completedAt := ""
		if task.CompletedAt != nil {
			completedAt = task.CompletedAt.Format("2006-01-02 15:04:05")
		}
		overdue := ""
		if overdueIDs[task.ID] {
			overdue = "YES"
		}
		writeRow(f, sheetName, rowIndex+2, []interface{}{
			task.ID,
			task.SiteID,
			task.AssetID,
			task.DueAt.Format("2006-01-02"),
			task.Status,
			overdue,
			task.ClaimedByName,
			completedAt,
			task.EntryID,
		})
	}
	return nil
}

func addDefectsSheet(f *excelize.File, db *gorm.DB, orgID uint, style int) error {
	sheetName := "Defects"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}

	var defects []Models.Defect
	if err := db.Where("org_id = ?", orgID).Order("created_at").Find(&defects).Error; err != nil {
		return fmt.Errorf("error fetching defects: %v", err)
	}

	writeHeaders(f, sheetName, []string{
		"Defect ID", "Site ID", "Asset ID", "Title", "Severity",
		"Status", "Raised", "Resolved", "Resolution",
	}, style)

	for rowIndex, defect := range defects {
		resolved := ""
		if defect.ResolvedAt != nil {
			resolved = defect.ResolvedAt.Format("2006-01-02")
		}
		writeRow(f, sheetName, rowIndex+2, []interface{}{
			defect.ID,
			defect.SiteID,
			defect.AssetID,
			defect.Title,
			defect.Severity,
			defect.Status,
			defect.CreatedAt.Format("2006-01-02"),
			resolved,
			defect.Resolution,
		})
	}
	return nil
}

func addDrillsSheet(f *excelize.File, db *gorm.DB, orgID uint, style int) error {
	sheetName := "Fire Drills"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}

	var drills []Models.FireDrill
	if err := db.Where("org_id = ?", orgID).Order("conducted_at").Find(&drills).Error; err != nil {
		return fmt.Errorf("error fetching drills: %v", err)
	}

	writeHeaders(f, sheetName, []string{
		"Drill ID", "Site ID", "Date", "Evacuation (s)", "Head Count", "Notes",
	}, style)

	for rowIndex, drill := range drills {
		writeRow(f, sheetName, rowIndex+2, []interface{}{
			drill.ID,
			drill.SiteID,
			drill.ConductedAt.Format("2006-01-02"),
			drill.EvacuationSecs,
			drill.HeadCount,
			drill.Notes,
		})
	}
	return nil
}
