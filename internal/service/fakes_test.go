package service

import (
	"context"
	"sort"
	"time"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/models"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/repository"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/utils"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/pkg/sunlux"
)

// fakeTx is an in-memory SyncTx over plain maps, mirroring the ordering
// semantics of the SQL implementation.
type fakeTx struct {
	products map[int64]*models.Product
	tags     map[int64]*models.Tag
}

func newFakeTx() *fakeTx {
	return &fakeTx{
		products: make(map[int64]*models.Product),
		tags:     make(map[int64]*models.Tag),
	}
}

func (f *fakeTx) addProduct(p models.Product) *models.Product {
	cp := p
	f.products[cp.ID] = &cp
	return &cp
}

func (f *fakeTx) addTag(t models.Tag) *models.Tag {
	ct := t
	f.tags[ct.ID] = &ct
	return &ct
}

func (f *fakeTx) sortedTags() []*models.Tag {
	out := make([]*models.Tag, 0, len(f.tags))
	for _, t := range f.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status < out[j].Status
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *fakeTx) ProductsByIDs(ids []int64) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTx) ProductByID(id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, utils.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeTx) SetRemoteGoods(productID int64, goodsID string) error {
	p := f.products[productID]
	now := time.Now()
	p.RemoteGoodsID = goodsID
	p.LastSyncAt = &now
	return nil
}

func (f *fakeTx) ClearRemoteGoods(productID int64) error {
	p := f.products[productID]
	p.RemoteGoodsID = ""
	p.LastSyncAt = nil
	return nil
}

func (f *fakeTx) TouchLastSync(productID int64) error {
	now := time.Now()
	f.products[productID].LastSyncAt = &now
	return nil
}

func (f *fakeTx) SetPreferredSize(productID int64, size string) error {
	f.products[productID].PreferredTagSize = size
	return nil
}

func (f *fakeTx) UpdateProduct(p *models.Product) error {
	stored, ok := f.products[p.ID]
	if !ok {
		return utils.ErrProductNotFound
	}
	keepGoods, keepSync, keepBound := stored.RemoteGoodsID, stored.LastSyncAt, stored.BoundTagID
	*stored = *p
	stored.RemoteGoodsID, stored.LastSyncAt, stored.BoundTagID = keepGoods, keepSync, keepBound
	return nil
}

func (f *fakeTx) BoundTag(productID int64) (*models.Tag, error) {
	for _, t := range f.sortedTags() {
		if t.ProductID != nil && *t.ProductID == productID {
			ct := *t
			return &ct, nil
		}
	}
	return nil, nil
}

func (f *fakeTx) ClaimFreeTag(size string) (*models.Tag, error) {
	for _, t := range f.sortedTags() {
		if t.TagSize == size && t.ProductID == nil && t.TemplateID != "" && t.StationID != "" {
			ct := *t
			return &ct, nil
		}
	}
	return nil, nil
}

func (f *fakeTx) FreeTagExists(size string, productID int64) (bool, error) {
	for _, t := range f.tags {
		if t.TagSize == size && t.TemplateID != "" && t.StationID != "" &&
			(t.ProductID == nil || *t.ProductID == productID) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTx) OccupiedTagsOfSize(size string, excludeProductID int64) ([]models.Tag, error) {
	var out []models.Tag
	for _, t := range f.sortedTags() {
		if t.TagSize == size && t.ProductID != nil && *t.ProductID != excludeProductID {
			ct := *t
			if owner, ok := f.products[*t.ProductID]; ok {
				name := owner.Name
				ct.OwnerName = &name
			}
			out = append(out, ct)
		}
	}
	return out, nil
}

func (f *fakeTx) CountTagsBySize(size string) (int, int, error) {
	total, free := 0, 0
	for _, t := range f.tags {
		if t.TagSize != size {
			continue
		}
		total++
		if t.ProductID == nil {
			free++
		}
	}
	return total, free, nil
}

func (f *fakeTx) BindTag(tagID, productID int64, goodsID, goodsName string) error {
	t := f.tags[tagID]
	t.ProductID = &productID
	t.CurrentGoodsID = goodsID
	t.CurrentGoodsName = goodsName
	f.products[productID].BoundTagID = &tagID
	return nil
}

func (f *fakeTx) ReleaseTag(tagID int64) error {
	t := f.tags[tagID]
	if t.ProductID != nil {
		if p, ok := f.products[*t.ProductID]; ok {
			p.BoundTagID = nil
		}
	}
	t.ProductID = nil
	return nil
}

func (f *fakeTx) ClearProductBinding(productID int64) error {
	for _, t := range f.tags {
		if t.ProductID != nil && *t.ProductID == productID {
			t.ProductID = nil
		}
	}
	f.products[productID].BoundTagID = nil
	return nil
}

// fakeRunner hands every unit of work the same fakeTx, optionally failing
// the first N commits with scripted errors.
type fakeRunner struct {
	tx    *fakeTx
	errs  []error
	calls int
}

func (r *fakeRunner) InTransaction(ctx context.Context, fn func(tx repository.SyncTx) error) error {
	r.calls++
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		if err != nil {
			return err
		}
	}
	return fn(r.tx)
}

type bindCall struct {
	TagID, TemplateID, StationID, GoodsID string
}

// fakeGateway returns scripted vendor responses and records bind calls.
type fakeGateway struct {
	configured  bool
	authErr     error
	fullResult  *sunlux.BatchResult
	priceResult *sunlux.BatchResult
	lookups     map[string]string
	tagPages    []sunlux.TagRecord
	listErr     error
	bindOK      bool
	bindErr     error
	bindCalls   []bindCall
	fullCalls   int
	priceCalls  int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		configured:  true,
		fullResult:  &sunlux.BatchResult{},
		priceResult: &sunlux.BatchResult{},
		lookups:     map[string]string{},
		bindOK:      true,
	}
}

func (g *fakeGateway) Configured() bool { return g.configured }

func (g *fakeGateway) Authenticate(ctx context.Context, force bool) (string, error) {
	if g.authErr != nil {
		return "", g.authErr
	}
	return "token", nil
}

func (g *fakeGateway) PushFull(ctx context.Context, goods []sunlux.Goods, ref sunlux.CallRef) (*sunlux.BatchResult, error) {
	g.fullCalls++
	if g.authErr != nil {
		return nil, g.authErr
	}
	return g.fullResult, nil
}

func (g *fakeGateway) PushPrices(ctx context.Context, prices []sunlux.PriceUpdate, ref sunlux.CallRef) (*sunlux.BatchResult, error) {
	g.priceCalls++
	if g.authErr != nil {
		return nil, g.authErr
	}
	return g.priceResult, nil
}

func (g *fakeGateway) LookupGoodsID(ctx context.Context, barcode string) (string, error) {
	return g.lookups[barcode], nil
}

func (g *fakeGateway) ListTags(ctx context.Context, pageSize int) ([]sunlux.TagRecord, error) {
	return g.tagPages, g.listErr
}

func (g *fakeGateway) BindTag(ctx context.Context, tagID, templateID, stationID, goodsID string) (bool, error) {
	g.bindCalls = append(g.bindCalls, bindCall{tagID, templateID, stationID, goodsID})
	if g.bindErr != nil {
		return false, g.bindErr
	}
	return g.bindOK, nil
}

func (g *fakeGateway) ClearToken(ctx context.Context) {}

// fakeNotifier counts emitted events.
type fakeNotifier struct {
	started   [][]int64
	refreshed int
}

func (n *fakeNotifier) NotifySyncStarted(productIDs []int64) {
	n.started = append(n.started, productIDs)
}

func (n *fakeNotifier) NotifyTagsRefreshed() { n.refreshed++ }

type scheduledJob struct {
	key   string
	delay time.Duration
	run   func(ctx context.Context)
}

// fakeScheduler records jobs without timers; tests run them explicitly.
type fakeScheduler struct {
	jobs []scheduledJob
}

func (s *fakeScheduler) Schedule(key string, delay time.Duration, job func(ctx context.Context)) {
	s.jobs = append(s.jobs, scheduledJob{key: key, delay: delay, run: job})
}

func (s *fakeScheduler) runAll() {
	jobs := s.jobs
	s.jobs = nil
	for _, j := range jobs {
		j.run(context.Background())
	}
}
