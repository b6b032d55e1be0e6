package importer

import (
	"context"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/campusledger/campusledger/internal/shared"
)

var paymentTemplateHeaders = []string{
	"Admission No", "Pin No", "Student Name", "Year", "Sem",
	"Fee Amount", "Pay Mode", "Trans Date", "Trans Ref", "Narration",
}

var dueTemplateHeaders = []string{
	"Admission No", "Pin No", "Student Name", "Year", "Sem",
}

// Template builds a downloadable workbook whose header row round-trips
// through column classification. Due templates carry one column per
// catalog head.
func (s *Service) Template(ctx context.Context, uploadType UploadType) (*excelize.File, error) {
	headers := make([]string, 0, len(dueTemplateHeaders))
	switch uploadType {
	case UploadPayment:
		headers = append(headers, paymentTemplateHeaders...)
	case UploadDue:
		headers = append(headers, dueTemplateHeaders...)
		catalog, err := s.catalog.Catalog(ctx)
		if err != nil {
			return nil, err
		}
		for _, head := range catalog {
			headers = append(headers, head.Name)
		}
	default:
		return nil, shared.NewError(shared.KindValidation, "upload type must be DUE or PAYMENT")
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		f.Close()
		return nil, shared.WrapError(shared.KindUnknown, "write template header", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.ColumnNumberToName(len(headers))
		_ = f.SetCellStyle(sheet, "A1", last+"1", style)
		_ = f.SetColWidth(sheet, "A", last, 18)
	}
	return f, nil
}

func templateFilename(uploadType UploadType) string {
	return strings.ToLower(string(uploadType)) + "_import_template.xlsx"
}
