package payroll

import "context"

type PayrollService interface {
	ListRecords(ctx context.Context, filter Filter) (ListRecordsResponse, error)
	GetRecord(ctx context.Context, id string) (RecordResponse, error)
	CreateRecord(ctx context.Context, req CreateRecordRequest) (RecordResponse, error)
	UpdateRecord(ctx context.Context, req UpdateRecordRequest) (RecordResponse, error)
	ApproveRecord(ctx context.Context, id string) (RecordResponse, error)
	CancelRecord(ctx context.Context, id string) error
	MarkPaid(ctx context.Context, id string, req MarkPaidRequest) (RecordResponse, error)
	BulkMarkPaid(ctx context.Context, req BulkMarkPaidRequest) (BulkOperationResult, error)
	Sign(ctx context.Context, id string, req SignRequest) (RecordResponse, error)
	BulkSign(ctx context.Context, req BulkSignRequest) (BulkOperationResult, error)
	GeneratePeriod(ctx context.Context, req GeneratePayrollRequest) (GenerationResult, error)
	GetPeriodSummary(ctx context.Context, month, year int) (PeriodSummaryResponse, error)
}
