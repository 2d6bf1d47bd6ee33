package dto

import "time"

// Report formats and types accepted by the export endpoint.
const (
	ReportFormatCSV = "csv"
	ReportFormatPDF = "pdf"

	ReportTypeCompliance = "compliance"
	ReportTypeFarms      = "farms"
)

// ExportReportRequest payload for generating a report.
type ExportReportRequest struct {
	Type   string `json:"type" validate:"required"`
	Format string `json:"format" validate:"required"`
}

// ExportReportResponse returns the signed download link.
type ExportReportResponse struct {
	FileName    string    `json:"file_name"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}
