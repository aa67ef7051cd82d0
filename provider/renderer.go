package provider

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"royaltyengine/service"
)

// csvRenderer renders a statement's lines as CSV. Other formats belong to
// the platform's document pipeline and are rejected here.
type csvRenderer struct {
	uowFactory service.UnitOfWorkFactory
}

// NewCSVRenderer creates a CSV statement document renderer
func NewCSVRenderer(uowFactory service.UnitOfWorkFactory) service.DocumentRenderer {
	return &csvRenderer{uowFactory: uowFactory}
}

func (r *csvRenderer) RenderStatementDocument(ctx context.Context, statementID int64, format string) ([]byte, error) {
	if format != "csv" {
		return nil, service.NewInputError("format", fmt.Sprintf("unsupported document format %q", format))
	}

	uow := r.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	statement, err := uow.StatementRepository().GetByID(ctx, statementID)
	if err != nil {
		return nil, err
	}
	if statement == nil {
		return nil, service.ErrNotFound
	}
	lines, err := uow.LineRepository().GetByStatement(ctx, statementID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"line_id", "type", "asset_id", "license_id", "revenue_cents", "share_bps", "royalty_cents", "prorated", "description"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, line := range lines {
		assetID, licenseID := "", ""
		if line.AssetID != nil {
			assetID = line.AssetID.String()
		}
		if line.LicenseID != nil {
			licenseID = line.LicenseID.String()
		}
		record := []string{
			strconv.FormatInt(line.ID, 10),
			string(line.Type),
			assetID,
			licenseID,
			strconv.FormatInt(line.RevenueCents, 10),
			strconv.FormatInt(line.ShareBps, 10),
			strconv.FormatInt(line.CalculatedRoyaltyCents, 10),
			strconv.FormatBool(line.Prorated),
			line.Description,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	// Summary rows keep the export self-contained for creators.
	summary := [][]string{
		{"", "total_earnings_cents", "", "", "", "", strconv.FormatInt(statement.TotalEarningsCents, 10), "", ""},
		{"", "platform_fee_cents", "", "", "", "", strconv.FormatInt(statement.PlatformFeeCents, 10), "", ""},
		{"", "net_payable_cents", "", "", "", "", strconv.FormatInt(statement.NetPayableCents, 10), "", ""},
		{"", "carryover_out_cents", "", "", "", "", strconv.FormatInt(statement.CarryoverOutCents, 10), "", ""},
	}
	for _, record := range summary {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV summary: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}
