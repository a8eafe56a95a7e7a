package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/models"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/utils"
)

func newProductFixture(tx *fakeTx) (*ProductService, *fakeScheduler) {
	runner := &fakeRunner{tx: tx}
	jobs := &fakeScheduler{}
	notifier := &fakeNotifier{}
	gw := newFakeGateway()
	sync := NewSyncService(gw, runner, NewAllocatorService(gw), notifier, 1, time.Millisecond)
	trigger := NewTriggerService(jobs, sync, notifier, 4*time.Second)
	return NewProductService(nil, runner, trigger), jobs
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func TestUpdateSizeChangeReleasesTag(t *testing.T) {
	tx := newFakeTx()
	tx.addProduct(models.Product{ID: 1, Barcode: "B1", Name: "Milk",
		SyncEnabled: true, PreferredTagSize: "2.9", RemoteGoodsID: "G-1"})
	tag := tx.addTag(models.Tag{ID: 10, TagID: "T10", TagSize: "2.9", TemplateID: "tpl", StationID: "st"})
	require.NoError(t, tx.BindTag(tag.ID, 1, "G-1", "Milk"))

	svc, jobs := newProductFixture(tx)
	updated, err := svc.Update(context.Background(), 1, ProductUpdate{PreferredTagSize: strPtr("4.2")})

	require.NoError(t, err)
	assert.Nil(t, updated.BoundTagID)
	assert.Nil(t, tx.tags[10].ProductID, "old tag freed immediately")
	assert.Empty(t, tx.products[1].RemoteGoodsID, "size change forces a fresh full sync")
	assert.Nil(t, tx.products[1].LastSyncAt)
	require.Len(t, jobs.jobs, 1, "size change queues a sync")
}

func TestUpdateBarcodeChangeDiscardsVendorIdentity(t *testing.T) {
	tx := newFakeTx()
	tx.addProduct(models.Product{ID: 1, Barcode: "B1", Name: "Milk",
		SyncEnabled: true, RemoteGoodsID: "G-1"})

	svc, jobs := newProductFixture(tx)
	_, err := svc.Update(context.Background(), 1, ProductUpdate{Barcode: strPtr("B2")})

	require.NoError(t, err)
	assert.Empty(t, tx.products[1].RemoteGoodsID, "vendor keys goods by barcode")
	assert.Nil(t, tx.products[1].LastSyncAt)
	require.Len(t, jobs.jobs, 1)
}

func TestUpdatePriceChangeSchedulesSync(t *testing.T) {
	tx := newFakeTx()
	tx.addProduct(models.Product{ID: 1, Barcode: "B1", Name: "Milk",
		SyncEnabled: true, RemoteGoodsID: "G-1", ListPrice: 2})

	svc, jobs := newProductFixture(tx)
	_, err := svc.Update(context.Background(), 1, ProductUpdate{ListPrice: f64Ptr(3)})

	require.NoError(t, err)
	assert.Equal(t, "G-1", tx.products[1].RemoteGoodsID)
	require.Len(t, jobs.jobs, 1)
}

func TestUpdateNoChangeSkipsSync(t *testing.T) {
	tx := newFakeTx()
	tx.addProduct(models.Product{ID: 1, Barcode: "B1", Name: "Milk", SyncEnabled: true})

	svc, jobs := newProductFixture(tx)
	_, err := svc.Update(context.Background(), 1, ProductUpdate{Name: strPtr("Milk")})

	require.NoError(t, err)
	assert.Empty(t, jobs.jobs, "no-op edits do not reach the vendor")
}

func TestUpdateDisabledProductNeverSyncs(t *testing.T) {
	tx := newFakeTx()
	tx.addProduct(models.Product{ID: 1, Barcode: "B1", Name: "Milk", SyncEnabled: false})

	svc, jobs := newProductFixture(tx)
	_, err := svc.Update(context.Background(), 1, ProductUpdate{ListPrice: f64Ptr(9)})

	require.NoError(t, err)
	assert.Empty(t, jobs.jobs)
}

func TestUpdateRejectsUnknownSize(t *testing.T) {
	tx := newFakeTx()
	tx.addProduct(models.Product{ID: 1, Barcode: "B1", Name: "Milk"})

	svc, _ := newProductFixture(tx)
	_, err := svc.Update(context.Background(), 1, ProductUpdate{PreferredTagSize: strPtr("3.3")})

	assert.ErrorIs(t, err, utils.ErrInvalidTagSize)
}

func TestValidateSize(t *testing.T) {
	assert.NoError(t, validateSize(""))
	assert.NoError(t, validateSize("2.13"))
	assert.NoError(t, validateSize("7.5"))
	assert.NoError(t, validateSize(models.TagSizeOther))
	assert.ErrorIs(t, validateSize("2.8"), utils.ErrInvalidTagSize)
}
