package provider

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"royaltyengine/models"
	"royaltyengine/service"
)

func TestCSVRenderer(t *testing.T) {
	ctx := context.Background()

	uow := new(service.MockUnitOfWork)
	factory := new(service.MockUnitOfWorkFactory)
	statementRepo := new(service.MockStatementRepository)
	lineRepo := new(service.MockLineRepository)
	uow.SetRepositories(new(service.MockRoyaltyRunRepository), statementRepo, lineRepo,
		new(service.MockRollbackArchiveRepository), new(service.MockEventPublisher))
	factory.On("Create").Return(uow)
	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback").Return(nil)

	assetID := uuid.New()
	licenseID := uuid.New()
	statementRepo.On("GetByID", ctx, int64(1)).Return(&models.RoyaltyStatement{
		ID:                 1,
		TotalEarningsCents: 2000,
		PlatformFeeCents:   300,
		NetPayableCents:    1700,
	}, nil)
	lineRepo.On("GetByStatement", ctx, int64(1)).Return([]*models.RoyaltyLine{
		{
			ID: 10, Type: models.LineTypeStandard,
			AssetID: &assetID, LicenseID: &licenseID,
			RevenueCents: 3000, ShareBps: 6667, CalculatedRoyaltyCents: 2000,
		},
	}, nil)

	renderer := NewCSVRenderer(factory)

	doc, err := renderer.RenderStatementDocument(ctx, 1, "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(doc)), "\n")
	assert.Equal(t, "line_id,type,asset_id,license_id,revenue_cents,share_bps,royalty_cents,prorated,description", lines[0])
	assert.Contains(t, lines[1], "standard")
	assert.Contains(t, lines[1], "2000")
	assert.Contains(t, string(doc), "net_payable_cents")
}

func TestCSVRenderer_UnsupportedFormat(t *testing.T) {
	renderer := NewCSVRenderer(new(service.MockUnitOfWorkFactory))

	_, err := renderer.RenderStatementDocument(context.Background(), 1, "pdf")

	assert.True(t, service.IsInputError(err))
}

func TestCSVRenderer_StatementNotFound(t *testing.T) {
	ctx := context.Background()

	uow := new(service.MockUnitOfWork)
	factory := new(service.MockUnitOfWorkFactory)
	statementRepo := new(service.MockStatementRepository)
	uow.SetRepositories(new(service.MockRoyaltyRunRepository), statementRepo, new(service.MockLineRepository),
		new(service.MockRollbackArchiveRepository), new(service.MockEventPublisher))
	factory.On("Create").Return(uow)
	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback").Return(nil)
	statementRepo.On("GetByID", ctx, mock.Anything).Return(nil, nil)

	renderer := NewCSVRenderer(factory)

	_, err := renderer.RenderStatementDocument(ctx, 404, "csv")

	assert.ErrorIs(t, err, service.ErrNotFound)
}
