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

func newReassignFixture(tx *fakeTx) (*ReassignService, *fakeScheduler, *fakeNotifier) {
	runner := &fakeRunner{tx: tx}
	jobs := &fakeScheduler{}
	notifier := &fakeNotifier{}
	gw := newFakeGateway()
	sync := NewSyncService(gw, runner, NewAllocatorService(gw), notifier, 1, time.Millisecond)
	trigger := NewTriggerService(jobs, sync, notifier, 4*time.Second)
	return NewReassignService(runner, trigger, 4*time.Second, 2*time.Second), jobs, notifier
}

func TestPreviewRejectsUnknownSize(t *testing.T) {
	svc, _, _ := newReassignFixture(newFakeTx())
	_, err := svc.Preview(context.Background(), 1, "12.4")
	assert.ErrorIs(t, err, utils.ErrInvalidTagSize)
}

func TestPreviewNoneProvisioned(t *testing.T) {
	tx := newFakeTx()
	tx.addProduct(models.Product{ID: 1, Name: "Milk"})

	svc, _, _ := newReassignFixture(tx)
	preview, err := svc.Preview(context.Background(), 1, "7.5")

	require.NoError(t, err)
	assert.Equal(t, PreviewNoneProvisioned, preview.Kind)
	assert.Zero(t, preview.TotalTags)
}

func TestPreviewNoConflictWhenFreeTagExists(t *testing.T) {
	tx := newFakeTx()
	tx.addProduct(models.Product{ID: 1, Name: "Milk"})
	tx.addTag(models.Tag{ID: 10, TagID: "T10", TagSize: "2.9", TemplateID: "tpl", StationID: "st"})

	svc, _, _ := newReassignFixture(tx)
	preview, err := svc.Preview(context.Background(), 1, "2.9")

	require.NoError(t, err)
	assert.Equal(t, PreviewNoConflict, preview.Kind)
	assert.Equal(t, 1, preview.FreeTags)
}

func TestPreviewConflictNamesDisplacedOwner(t *testing.T) {
	tx := newFakeTx()
	tx.addProduct(models.Product{ID: 1, Name: "Milk"})
	owner := tx.addProduct(models.Product{ID: 2, Name: "Bread"})
	tag := tx.addTag(models.Tag{ID: 10, TagID: "T10", TagSize: "2.9", TemplateID: "tpl", StationID: "st"})
	require.NoError(t, tx.BindTag(tag.ID, owner.ID, "G-2", "Bread"))

	svc, _, _ := newReassignFixture(tx)
	preview, err := svc.Preview(context.Background(), 1, "2.9")

	require.NoError(t, err)
	assert.Equal(t, PreviewConflict, preview.Kind)
	assert.Equal(t, "Bread", preview.DisplacedName)
	assert.Equal(t, "T10", preview.DisplacedTag)
	assert.Contains(t, preview.Summary, "Bread")
}

func TestPreviewNoConflictWhenProductAlreadyHoldsTag(t *testing.T) {
	tx := newFakeTx()
	tx.addProduct(models.Product{ID: 1, Name: "Milk"})
	tag := tx.addTag(models.Tag{ID: 10, TagID: "T10", TagSize: "2.9", TemplateID: "tpl", StationID: "st"})
	require.NoError(t, tx.BindTag(tag.ID, 1, "G-1", "Milk"))

	svc, _, _ := newReassignFixture(tx)
	preview, err := svc.Preview(context.Background(), 1, "2.9")

	require.NoError(t, err)
	assert.Equal(t, PreviewNoConflict, preview.Kind, "own tag counts as available")
	assert.Contains(t, preview.Summary, "already holds")
}

func TestPreviewConflictListsEveryOwner(t *testing.T) {
	tx := newFakeTx()
	tx.addProduct(models.Product{ID: 1, Name: "Milk"})
	bread := tx.addProduct(models.Product{ID: 2, Name: "Bread"})
	jam := tx.addProduct(models.Product{ID: 3, Name: "Jam"})
	first := tx.addTag(models.Tag{ID: 10, TagID: "T10", TagSize: "2.9", TemplateID: "tpl", StationID: "st"})
	require.NoError(t, tx.BindTag(first.ID, bread.ID, "G-2", "Bread"))
	second := tx.addTag(models.Tag{ID: 11, TagID: "T11", TagSize: "2.9", TemplateID: "tpl", StationID: "st"})
	require.NoError(t, tx.BindTag(second.ID, jam.ID, "G-3", "Jam"))

	svc, _, _ := newReassignFixture(tx)
	preview, err := svc.Preview(context.Background(), 1, "2.9")

	require.NoError(t, err)
	assert.Equal(t, PreviewConflict, preview.Kind)
	assert.Contains(t, preview.Summary, "Bread")
	assert.Contains(t, preview.Summary, "Jam")
}

func TestReassignUsesFreeTagWithoutDisplacing(t *testing.T) {
	tx := newFakeTx()
	tx.addProduct(models.Product{ID: 1, Name: "Milk", SyncEnabled: true})
	owner := tx.addProduct(models.Product{ID: 2, Name: "Bread", SyncEnabled: true})
	occupied := tx.addTag(models.Tag{ID: 10, TagID: "T10", TagSize: "2.9", TemplateID: "tpl", StationID: "st"})
	require.NoError(t, tx.BindTag(occupied.ID, owner.ID, "G-2", "Bread"))
	tx.addTag(models.Tag{ID: 11, TagID: "T11", TagSize: "2.9", TemplateID: "tpl", StationID: "st"})

	svc, jobs, _ := newReassignFixture(tx)
	require.NoError(t, svc.Reassign(context.Background(), 1, "2.9"))

	assert.Equal(t, "2.9", tx.products[1].PreferredTagSize)
	require.NotNil(t, tx.tags[10].ProductID, "occupied tag untouched when a free one exists")
	assert.Equal(t, int64(2), *tx.tags[10].ProductID)
	require.Len(t, jobs.jobs, 1, "only the target product syncs")
	assert.Equal(t, 4*time.Second, jobs.jobs[0].delay)
}

func TestReassignDisplacesOwnerAndSchedulesBothSyncs(t *testing.T) {
	tx := newFakeTx()
	tx.addProduct(models.Product{ID: 1, Name: "Milk", SyncEnabled: true,
		PreferredTagSize: "2.13", RemoteGoodsID: "G-1"})
	owner := tx.addProduct(models.Product{ID: 2, Name: "Bread", SyncEnabled: true, RemoteGoodsID: "G-2"})
	current := tx.addTag(models.Tag{ID: 5, TagID: "T5", TagSize: "2.13", TemplateID: "tpl", StationID: "st"})
	require.NoError(t, tx.BindTag(current.ID, 1, "G-1", "Milk"))
	taken := tx.addTag(models.Tag{ID: 10, TagID: "T10", TagSize: "2.9", TemplateID: "tpl", StationID: "st"})
	require.NoError(t, tx.BindTag(taken.ID, owner.ID, "G-2", "Bread"))

	svc, jobs, _ := newReassignFixture(tx)
	require.NoError(t, svc.Reassign(context.Background(), 1, "2.9"))

	assert.Nil(t, tx.tags[5].ProductID, "old size tag released")
	assert.Nil(t, tx.tags[10].ProductID, "displaced tag freed for the next sync to claim")
	assert.Nil(t, tx.products[2].BoundTagID)
	assert.Equal(t, "2.9", tx.products[1].PreferredTagSize)
	assert.Empty(t, tx.products[1].RemoteGoodsID, "vendor identity dropped so the sync re-registers in full")
	assert.Equal(t, "G-2", tx.products[2].RemoteGoodsID, "displaced owner keeps its vendor record")

	require.Len(t, jobs.jobs, 2)
	assert.Equal(t, 4*time.Second, jobs.jobs[0].delay, "target product uses the standard delay")
	assert.Equal(t, 2*time.Second, jobs.jobs[1].delay, "displaced owner re-syncs sooner")
}

func TestReassignSkipsDisabledDisplacedOwnerSync(t *testing.T) {
	tx := newFakeTx()
	tx.addProduct(models.Product{ID: 1, Name: "Milk", SyncEnabled: true})
	owner := tx.addProduct(models.Product{ID: 2, Name: "Bread", SyncEnabled: false})
	taken := tx.addTag(models.Tag{ID: 10, TagID: "T10", TagSize: "2.9", TemplateID: "tpl", StationID: "st"})
	require.NoError(t, tx.BindTag(taken.ID, owner.ID, "G-2", "Bread"))

	svc, jobs, _ := newReassignFixture(tx)
	require.NoError(t, svc.Reassign(context.Background(), 1, "2.9"))

	require.Len(t, jobs.jobs, 1, "disabled owner gets no sync job")
}

func TestPickDisplacementCandidatePrefersBindable(t *testing.T) {
	pid := int64(2)
	tags := []models.Tag{
		{ID: 1, TagID: "T1", TemplateID: "", StationID: "st", ProductID: &pid},
		{ID: 2, TagID: "T2", TemplateID: "tpl", StationID: "st", ProductID: &pid},
	}
	candidate := PickDisplacementCandidate(tags)
	require.NotNil(t, candidate)
	assert.Equal(t, "T2", candidate.TagID)

	unbindable := []models.Tag{{ID: 1, TagID: "T1", ProductID: &pid}}
	candidate = PickDisplacementCandidate(unbindable)
	require.NotNil(t, candidate, "falls back to the first tag so the preview can name an owner")
	assert.Equal(t, "T1", candidate.TagID)

	assert.Nil(t, PickDisplacementCandidate(nil))
}
