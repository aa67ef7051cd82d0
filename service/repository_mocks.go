package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"royaltyengine/events"
	"royaltyengine/models"
)

// MockRoyaltyRunRepository is a mock implementation of RoyaltyRunRepository
type MockRoyaltyRunRepository struct {
	mock.Mock
}

func (m *MockRoyaltyRunRepository) Create(ctx context.Context, run *models.RoyaltyRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRoyaltyRunRepository) GetByID(ctx context.Context, id int64) (*models.RoyaltyRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RoyaltyRun), args.Error(1)
}

func (m *MockRoyaltyRunRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.RoyaltyRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RoyaltyRun), args.Error(1)
}

func (m *MockRoyaltyRunRepository) Update(ctx context.Context, run *models.RoyaltyRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRoyaltyRunRepository) List(ctx context.Context, filter models.RunFilter) ([]*models.RoyaltyRun, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoyaltyRun), args.Error(1)
}

func (m *MockRoyaltyRunRepository) FindOverlapping(ctx context.Context, periodStart, periodEnd time.Time) ([]*models.RoyaltyRun, error) {
	args := m.Called(ctx, periodStart, periodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoyaltyRun), args.Error(1)
}

func (m *MockRoyaltyRunRepository) FindStuckProcessing(ctx context.Context, cutoff time.Time) ([]*models.RoyaltyRun, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoyaltyRun), args.Error(1)
}

// MockStatementRepository is a mock implementation of StatementRepository
type MockStatementRepository struct {
	mock.Mock
}

func (m *MockStatementRepository) Create(ctx context.Context, statement *models.RoyaltyStatement) error {
	args := m.Called(ctx, statement)
	return args.Error(0)
}

func (m *MockStatementRepository) GetByID(ctx context.Context, id int64) (*models.RoyaltyStatement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RoyaltyStatement), args.Error(1)
}

func (m *MockStatementRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.RoyaltyStatement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RoyaltyStatement), args.Error(1)
}

func (m *MockStatementRepository) GetByRun(ctx context.Context, runID int64) ([]*models.RoyaltyStatement, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoyaltyStatement), args.Error(1)
}

func (m *MockStatementRepository) Update(ctx context.Context, statement *models.RoyaltyStatement) error {
	args := m.Called(ctx, statement)
	return args.Error(0)
}

func (m *MockStatementRepository) List(ctx context.Context, filter models.StatementFilter) ([]*models.RoyaltyStatement, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoyaltyStatement), args.Error(1)
}

func (m *MockStatementRepository) DeleteByRun(ctx context.Context, runID int64) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

func (m *MockStatementRepository) CountPaidByRun(ctx context.Context, runID int64) (int, error) {
	args := m.Called(ctx, runID)
	return args.Int(0), args.Error(1)
}

func (m *MockStatementRepository) GetPriorCarryover(ctx context.Context, creatorID uuid.UUID, periodStart time.Time) (*models.CarryoverBalance, error) {
	args := m.Called(ctx, creatorID, periodStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CarryoverBalance), args.Error(1)
}

func (m *MockStatementRepository) ListOutstandingCarryover(ctx context.Context, periodStart time.Time) ([]*models.CarryoverBalance, error) {
	args := m.Called(ctx, periodStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CarryoverBalance), args.Error(1)
}

// MockLineRepository is a mock implementation of LineRepository
type MockLineRepository struct {
	mock.Mock
}

func (m *MockLineRepository) CreateBatch(ctx context.Context, lines []*models.RoyaltyLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

func (m *MockLineRepository) GetByStatement(ctx context.Context, statementID int64) ([]*models.RoyaltyLine, error) {
	args := m.Called(ctx, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoyaltyLine), args.Error(1)
}

func (m *MockLineRepository) GetByRun(ctx context.Context, runID int64) ([]*models.RoyaltyLine, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoyaltyLine), args.Error(1)
}

// MockRollbackArchiveRepository is a mock implementation of RollbackArchiveRepository
type MockRollbackArchiveRepository struct {
	mock.Mock
}

func (m *MockRollbackArchiveRepository) Create(ctx context.Context, archive *models.RollbackArchive) error {
	args := m.Called(ctx, archive)
	return args.Error(0)
}

func (m *MockRollbackArchiveRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RollbackArchive, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RollbackArchive), args.Error(1)
}

func (m *MockRollbackArchiveRepository) GetByRun(ctx context.Context, runID int64) ([]*models.RollbackArchive, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RollbackArchive), args.Error(1)
}

// MockLicenseProvider is a mock implementation of LicenseProvider
type MockLicenseProvider struct {
	mock.Mock
}

func (m *MockLicenseProvider) ListActiveLicenses(ctx context.Context, periodStart, periodEnd time.Time) ([]*models.License, error) {
	args := m.Called(ctx, periodStart, periodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.License), args.Error(1)
}

func (m *MockLicenseProvider) GetOwnershipShares(ctx context.Context, assetID uuid.UUID) ([]*models.OwnershipShare, error) {
	args := m.Called(ctx, assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.OwnershipShare), args.Error(1)
}

// MockUsageEventSource is a mock implementation of UsageEventSource
type MockUsageEventSource struct {
	mock.Mock
}

func (m *MockUsageEventSource) ListUsageEvents(ctx context.Context, licenseID uuid.UUID, periodStart, periodEnd time.Time) ([]*models.UsageEvent, error) {
	args := m.Called(ctx, licenseID, periodStart, periodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UsageEvent), args.Error(1)
}

// MockNotificationSink is a mock implementation of NotificationSink
type MockNotificationSink struct {
	mock.Mock
}

func (m *MockNotificationSink) Notify(ctx context.Context, creatorID uuid.UUID, statementID int64, event string) error {
	args := m.Called(ctx, creatorID, statementID, event)
	return args.Error(0)
}

// MockDocumentRenderer is a mock implementation of DocumentRenderer
type MockDocumentRenderer struct {
	mock.Mock
}

func (m *MockDocumentRenderer) RenderStatementDocument(ctx context.Context, statementID int64, format string) ([]byte, error) {
	args := m.Called(ctx, statementID, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockCalculationQueue is a mock implementation of CalculationQueue
type MockCalculationQueue struct {
	mock.Mock
}

func (m *MockCalculationQueue) Enqueue(runID int64) {
	m.Called(runID)
}

// MockValidationService is a mock implementation of ValidationService
type MockValidationService struct {
	mock.Mock
}

func (m *MockValidationService) ValidateRun(ctx context.Context, runID int64) (*models.ValidationReport, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ValidationReport), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository getters
// return the doubles installed via SetRepositories rather than going through
// the expectation engine.
type MockUnitOfWork struct {
	mock.Mock
	runRepo       RoyaltyRunRepository
	statementRepo StatementRepository
	lineRepo      LineRepository
	archiveRepo   RollbackArchiveRepository
	eventBus      EventPublisher
}

// SetRepositories installs the repository doubles this unit of work hands out
func (m *MockUnitOfWork) SetRepositories(runRepo RoyaltyRunRepository, statementRepo StatementRepository, lineRepo LineRepository, archiveRepo RollbackArchiveRepository, eventBus EventPublisher) {
	m.runRepo = runRepo
	m.statementRepo = statementRepo
	m.lineRepo = lineRepo
	m.archiveRepo = archiveRepo
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) RunRepository() RoyaltyRunRepository {
	return m.runRepo
}

func (m *MockUnitOfWork) StatementRepository() StatementRepository {
	return m.statementRepo
}

func (m *MockUnitOfWork) LineRepository() LineRepository {
	return m.lineRepo
}

func (m *MockUnitOfWork) ArchiveRepository() RollbackArchiveRepository {
	return m.archiveRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
