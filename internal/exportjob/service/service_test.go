package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/tabresto/fiscal/internal/clock"
	exportdomain "github.com/tabresto/fiscal/internal/exportjob/domain"
	exportrepo "github.com/tabresto/fiscal/internal/exportjob/repository"
	settingsdomain "github.com/tabresto/fiscal/internal/fiscalsettings/domain"
	settingsrepo "github.com/tabresto/fiscal/internal/fiscalsettings/repository"
	"github.com/tabresto/fiscal/pkg/db/pagination"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc        exportdomain.Service
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
	svc := NewService(ServiceParam{
		Jobs:     repo,
		Settings: settingsrepo.NewRepository(db),
		GenID:    node,
		Clock:    clk,
		Log:      zap.NewNop(),
	})
	return &fixture{svc: svc, repo: repo, db: db, node: node, clk: clk, merchantID: merchantID}
}

func (f *fixture) createRequest() exportdomain.CreateRequest {
	return exportdomain.CreateRequest{
		MerchantID:  f.merchantID.String(),
		Format:      "csv",
		PeriodStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreate_ReturnsPendingJob(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Create(context.Background(), f.createRequest())
	assert.NoError(t, err)
	assert.Equal(t, exportdomain.StatusPending, resp.Status)
	assert.Equal(t, exportdomain.FormatCSV, resp.Format)
	assert.Empty(t, resp.OutputName)
}

func TestCreate_RejectsUnsupportedFormat(t *testing.T) {
	f := newFixture(t)

	req := f.createRequest()
	req.Format = "xlsx"
	_, err := f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, exportdomain.ErrUnsupportedFormat)

	// No job row was created.
	list, err := f.svc.List(context.Background(), f.merchantID.String(), pagination.Pagination{PageSize: 10})
	assert.NoError(t, err)
	assert.Empty(t, list.Jobs)
}

func TestCreate_RejectsBadPeriods(t *testing.T) {
	f := newFixture(t)

	req := f.createRequest()
	req.PeriodEnd = req.PeriodStart
	_, err := f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, exportdomain.ErrInvalidPeriod)

	req = f.createRequest()
	req.PeriodStart = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	req.PeriodEnd = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	_, err = f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, exportdomain.ErrInvalidPeriod)
}

func TestCreate_FECRequiresSIRET(t *testing.T) {
	f := newFixture(t)

	other := f.node.Generate()
	assert.NoError(t, f.db.Create(&settingsdomain.FiscalSettings{
		ID:            f.node.Generate(),
		MerchantID:    other,
		InvoicePrefix: "FAC",
		VATRegime:     settingsdomain.RegimeNormal,
		CreatedAt:     f.clk.Now(),
		UpdatedAt:     f.clk.Now(),
	}).Error)

	req := f.createRequest()
	req.MerchantID = other.String()
	req.Format = "fec"
	_, err := f.svc.Create(context.Background(), req)
	cfgErr, ok := exportdomain.AsConfigurationError(err)
	assert.True(t, ok)
	assert.Equal(t, "siret", cfgErr.Field)

	// The same merchant may still request a CSV.
	req.Format = "csv"
	_, err = f.svc.Create(context.Background(), req)
	assert.NoError(t, err)
}

func TestList_NewestFirstWithCursor(t *testing.T) {
	f := newFixture(t)

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		resp, err := f.svc.Create(context.Background(), f.createRequest())
		assert.NoError(t, err)
		ids = append(ids, resp.ID)
	}

	page, err := f.svc.List(context.Background(), f.merchantID.String(), pagination.Pagination{PageSize: 3})
	assert.NoError(t, err)
	assert.Len(t, page.Jobs, 3)
	assert.True(t, page.PageInfo.HasMore)
	assert.Equal(t, ids[4], page.Jobs[0].ID)

	rest, err := f.svc.List(context.Background(), f.merchantID.String(), pagination.Pagination{
		PageSize:  3,
		PageToken: page.PageInfo.NextPageToken,
	})
	assert.NoError(t, err)
	assert.Len(t, rest.Jobs, 2)
	assert.False(t, rest.PageInfo.HasMore)
	assert.Equal(t, ids[0], rest.Jobs[1].ID)
}

func TestDownload_Lifecycle(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Create(context.Background(), f.createRequest())
	assert.NoError(t, err)

	_, err = f.svc.Download(context.Background(), resp.ID)
	assert.ErrorIs(t, err, exportdomain.ErrNotReady)

	// Complete the job by hand, the way the worker does.
	jobID, err := snowflake.ParseString(resp.ID)
	assert.NoError(t, err)
	claimed, err := f.repo.ClaimPending(context.Background(), 10, f.clk.Now())
	assert.NoError(t, err)
	assert.Len(t, claimed, 1)

	completedAt := f.clk.Now()
	claimed[0].OutputName = "ventes_20250301_20250401.csv"
	claimed[0].OutputSize = 4
	claimed[0].RowCount = 1
	claimed[0].CompletedAt = &completedAt
	applied, err := f.repo.Complete(context.Background(), &claimed[0], &exportdomain.ExportArtifact{
		JobID:       jobID,
		ContentType: "text/csv; charset=utf-8",
		Data:        []byte("data"),
		CreatedAt:   completedAt,
	})
	assert.NoError(t, err)
	assert.True(t, applied)

	dl, err := f.svc.Download(context.Background(), resp.ID)
	assert.NoError(t, err)
	assert.Equal(t, "ventes_20250301_20250401.csv", dl.Filename)
	assert.Equal(t, []byte("data"), dl.Data)
}

func TestDownload_FailedJobSurfacesReason(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Create(context.Background(), f.createRequest())
	assert.NoError(t, err)

	claimed, err := f.repo.ClaimPending(context.Background(), 10, f.clk.Now())
	assert.NoError(t, err)
	assert.NoError(t, f.repo.Fail(context.Background(), claimed[0].ID, "boom", f.clk.Now()))

	_, err = f.svc.Download(context.Background(), resp.ID)
	assert.ErrorIs(t, err, exportdomain.ErrNotCompleted)
	assert.Contains(t, err.Error(), "boom")
}

func TestDelete_RemovesJobAndArtifact(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Create(context.Background(), f.createRequest())
	assert.NoError(t, err)

	assert.NoError(t, f.svc.Delete(context.Background(), resp.ID))
	_, err = f.svc.Get(context.Background(), resp.ID)
	assert.ErrorIs(t, err, exportdomain.ErrNotFound)
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Create(context.Background(), f.createRequest())
	assert.NoError(t, err)

	claimed, err := f.repo.ClaimPending(context.Background(), 10, f.clk.Now())
	assert.NoError(t, err)
	assert.NoError(t, f.repo.Fail(context.Background(), claimed[0].ID, "boom", f.clk.Now()))

	// A late Complete from a slow worker is dropped and reported as such,
	// so the worker knows not to record a completion.
	completedAt := f.clk.Now()
	claimed[0].CompletedAt = &completedAt
	applied, err := f.repo.Complete(context.Background(), &claimed[0], &exportdomain.ExportArtifact{
		JobID:       claimed[0].ID,
		ContentType: "text/csv",
		Data:        []byte("late"),
		CreatedAt:   completedAt,
	})
	assert.NoError(t, err)
	assert.False(t, applied)

	// No artifact was stored for the dropped result.
	artifact, err := f.repo.FindArtifact(context.Background(), claimed[0].ID)
	assert.NoError(t, err)
	assert.Nil(t, artifact)

	got, err := f.svc.Get(context.Background(), resp.ID)
	assert.NoError(t, err)
	assert.Equal(t, exportdomain.StatusFailed, got.Status)
	assert.Equal(t, "boom", got.FailureReason)

	// Claiming again finds nothing.
	again, err := f.repo.ClaimPending(context.Background(), 10, f.clk.Now())
	assert.NoError(t, err)
	assert.Empty(t, again)
}
