package validation

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sangkips/billdesk/pkg/apperror"
	"github.com/xuri/excelize/v2"
)

const importField = "file"

// ImportFile checks that path is an Excel workbook the API will accept.
// Legacy .xls files are passed through on extension alone.
func (v *Validator) ImportFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return apperror.NewFieldError(importField, "Please select a file to import.")
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xls" {
		return apperror.NewFieldError(importField, "Only Excel files (.xlsx or .xls) are allowed.")
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return apperror.NewFieldError(importField, "File not found: "+filepath.Base(path))
	}
	if info.Size() == 0 {
		return apperror.NewFieldError(importField, "The selected file is empty.")
	}
	if ext == ".xls" {
		return nil
	}

	wb, err := excelize.OpenFile(path)
	if err != nil {
		return apperror.NewFieldError(importField, "The file is not a readable Excel workbook.")
	}
	defer wb.Close()

	if len(wb.GetSheetList()) == 0 {
		return apperror.NewFieldError(importField, "The workbook has no sheets.")
	}
	return nil
}
