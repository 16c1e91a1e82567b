package worker

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/tabresto/fiscal/internal/clock"
	"github.com/tabresto/fiscal/internal/config"
	exportdomain "github.com/tabresto/fiscal/internal/exportjob/domain"
	exportrepo "github.com/tabresto/fiscal/internal/exportjob/repository"
	settingsdomain "github.com/tabresto/fiscal/internal/fiscalsettings/domain"
	settingsrepo "github.com/tabresto/fiscal/internal/fiscalsettings/repository"
	orderdomain "github.com/tabresto/fiscal/internal/order/domain"
	orderrepo "github.com/tabresto/fiscal/internal/order/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	worker     *Worker
	repo       exportdomain.Repository
	db         *gorm.DB
	node       *snowflake.Node
	clk        *clock.FakeClock
	merchantID snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&settingsdomain.FiscalSettings{},
		&orderdomain.Order{},
		&orderdomain.OrderLine{},
		&exportdomain.ExportJob{},
		&exportdomain.ExportArtifact{},
	))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC))

	merchantID := node.Generate()
	assert.NoError(t, db.Create(&settingsdomain.FiscalSettings{
		ID:            node.Generate(),
		MerchantID:    merchantID,
		SIRET:         "12345678901234",
		InvoicePrefix: "FAC",
		VATRegime:     settingsdomain.RegimeNormal,
		CreatedAt:     clk.Now(),
		UpdatedAt:     clk.Now(),
	}).Error)

	repo := exportrepo.NewRepository(db)
	w := NewWorker(Params{
		Jobs:     repo,
		Orders:   orderrepo.NewRepository(db),
		Settings: settingsrepo.NewRepository(db),
		Policy:   config.StaticFiscalPolicyHolder(config.DefaultFiscalPolicy()),
		Clock:    clk,
		Log:      zap.NewNop(),
	})
	return &fixture{worker: w, repo: repo, db: db, node: node, clk: clk, merchantID: merchantID}
}

func (f *fixture) seedJob(t *testing.T, format exportdomain.Format) snowflake.ID {
	t.Helper()
	job := &exportdomain.ExportJob{
		ID:          f.node.Generate(),
		MerchantID:  f.merchantID,
		Format:      format,
		Status:      exportdomain.StatusPending,
		PeriodStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Options:     datatypes.JSONMap{},
		CreatedAt:   f.clk.Now(),
	}
	assert.NoError(t, f.repo.Create(context.Background(), job))
	return job.ID
}

func (f *fixture) seedOrder(t *testing.T) {
	t.Helper()
	rate := 0.10
	order := orderdomain.Order{
		ID:            f.node.Generate(),
		MerchantID:    f.merchantID,
		InvoiceNumber: "FAC-2025-0001",
		PaymentMethod: orderdomain.PaymentCard,
		PaidAt:        time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		Lines: []orderdomain.OrderLine{
			{ID: f.node.Generate(), Name: "plat", Quantity: 2, UnitPriceCents: 1200, VATRate: &rate},
		},
	}
	order.Lines[0].OrderID = order.ID
	assert.NoError(t, f.db.Create(&order).Error)
}

func TestRunOnce_CompletesCSVJob(t *testing.T) {
	f := newFixture(t)
	f.seedOrder(t)
	jobID := f.seedJob(t, exportdomain.FormatCSV)

	assert.NoError(t, f.worker.RunOnce(context.Background()))

	job, err := f.repo.FindByID(context.Background(), jobID)
	assert.NoError(t, err)
	assert.Equal(t, exportdomain.StatusCompleted, job.Status)
	assert.Equal(t, "ventes_20250301_20250401.csv", job.OutputName)
	assert.Equal(t, int64(1), job.RowCount)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.CompletedAt)

	artifact, err := f.repo.FindArtifact(context.Background(), jobID)
	assert.NoError(t, err)
	assert.Equal(t, job.OutputSize, int64(len(artifact.Data)))
}

func TestRunOnce_CompletesFECJob(t *testing.T) {
	f := newFixture(t)
	f.seedOrder(t)
	jobID := f.seedJob(t, exportdomain.FormatFEC)

	assert.NoError(t, f.worker.RunOnce(context.Background()))

	job, err := f.repo.FindByID(context.Background(), jobID)
	assert.NoError(t, err)
	assert.Equal(t, exportdomain.StatusCompleted, job.Status)
	assert.Equal(t, "12345678901234FEC20250331.txt", job.OutputName)
	// Caisse + Ventes + TVA.
	assert.Equal(t, int64(3), job.RowCount)
}

func TestRunOnce_FailsJobWithReason(t *testing.T) {
	f := newFixture(t)

	// A negative quantity poisons the period.
	order := orderdomain.Order{
		ID:            f.node.Generate(),
		MerchantID:    f.merchantID,
		InvoiceNumber: "FAC-BAD",
		PaymentMethod: orderdomain.PaymentCard,
		PaidAt:        time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		Lines: []orderdomain.OrderLine{
			{ID: f.node.Generate(), Name: "bad", Quantity: -1, UnitPriceCents: 1000},
		},
	}
	order.Lines[0].OrderID = order.ID
	assert.NoError(t, f.db.Create(&order).Error)

	jobID := f.seedJob(t, exportdomain.FormatCSV)
	assert.NoError(t, f.worker.RunOnce(context.Background()))

	job, err := f.repo.FindByID(context.Background(), jobID)
	assert.NoError(t, err)
	assert.Equal(t, exportdomain.StatusFailed, job.Status)
	assert.NotEmpty(t, job.FailureReason)
}

func TestRunOnce_ReapsStuckJobs(t *testing.T) {
	f := newFixture(t)
	jobID := f.seedJob(t, exportdomain.FormatCSV)

	// Claim, then crash: the job stays processing.
	claimed, err := f.repo.ClaimPending(context.Background(), 10, f.clk.Now())
	assert.NoError(t, err)
	assert.Len(t, claimed, 1)

	f.clk.Advance(10 * time.Minute)
	assert.NoError(t, f.worker.RunOnce(context.Background()))

	job, err := f.repo.FindByID(context.Background(), jobID)
	assert.NoError(t, err)
	assert.Equal(t, exportdomain.StatusFailed, job.Status)
	assert.Equal(t, "timeout", job.FailureReason)
}

func TestRunOnce_FreshProcessingJobSurvivesReaper(t *testing.T) {
	f := newFixture(t)
	f.seedJob(t, exportdomain.FormatCSV)

	claimed, err := f.repo.ClaimPending(context.Background(), 10, f.clk.Now())
	assert.NoError(t, err)
	assert.Len(t, claimed, 1)

	f.clk.Advance(time.Minute)
	assert.NoError(t, f.worker.RunOnce(context.Background()))

	job, err := f.repo.FindByID(context.Background(), claimed[0].ID)
	assert.NoError(t, err)
	assert.Equal(t, exportdomain.StatusProcessing, job.Status)
}
