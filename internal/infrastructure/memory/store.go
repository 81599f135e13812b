package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invorya/ledger-api/internal/application/ledger"
	"github.com/invorya/ledger-api/internal/domain"
	"github.com/invorya/ledger-api/internal/domain/entity"
	"github.com/invorya/ledger-api/internal/domain/repository"
)

// Store implementación en memoria de todos los puertos de persistencia más el
// TxRunner. Se usa en tests y en APP_ENV=test; el despliegue real usa
// PostgreSQL.
//
// Semántica transaccional: Run toma el lock de escritura, saca una foto del
// estado mutable y la restaura si el callback falla. Como los repos siempre
// guardan y devuelven copias (nunca mutan en sitio), la foto puede ser
// superficial.
type Store struct {
	mu sync.RWMutex

	movements   []*entity.StockMovement
	balances    map[entity.BalanceKey]*entity.Balance
	grns        map[string]*entity.ReceivingDocument
	sales       map[string]*entity.SalesOrder
	adjustments map[string]*entity.Adjustment
	transfers   map[string]*entity.TransferOrder
	products    map[string]*entity.Product
	warehouses  map[string]*entity.Warehouse
	suppliers   map[string]*entity.Supplier
	customers   map[string]*entity.Customer
	seq         map[string]int
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{
		balances:    make(map[entity.BalanceKey]*entity.Balance),
		grns:        make(map[string]*entity.ReceivingDocument),
		sales:       make(map[string]*entity.SalesOrder),
		adjustments: make(map[string]*entity.Adjustment),
		transfers:   make(map[string]*entity.TransferOrder),
		products:    make(map[string]*entity.Product),
		warehouses:  make(map[string]*entity.Warehouse),
		suppliers:   make(map[string]*entity.Supplier),
		customers:   make(map[string]*entity.Customer),
		seq:         make(map[string]int),
	}
}

type snapshot struct {
	movements   []*entity.StockMovement
	balances    map[entity.BalanceKey]*entity.Balance
	grns        map[string]*entity.ReceivingDocument
	sales       map[string]*entity.SalesOrder
	adjustments map[string]*entity.Adjustment
	transfers   map[string]*entity.TransferOrder
	products    map[string]*entity.Product
	seq         map[string]int
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		movements:   append([]*entity.StockMovement(nil), s.movements...),
		balances:    copyMap(s.balances),
		grns:        copyMap(s.grns),
		sales:       copyMap(s.sales),
		adjustments: copyMap(s.adjustments),
		transfers:   copyMap(s.transfers),
		products:    copyMap(s.products),
		seq:         copyMap(s.seq),
	}
}

func (s *Store) restore(sn snapshot) {
	s.movements = sn.movements
	s.balances = sn.balances
	s.grns = sn.grns
	s.sales = sn.sales
	s.adjustments = sn.adjustments
	s.transfers = sn.transfers
	s.products = sn.products
	s.seq = sn.seq
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Run implementa ledger.TxRunner: serializa las transacciones con el lock de
// escritura y revierte restaurando la foto si fn falla.
func (s *Store) Run(ctx context.Context, fn func(r ledger.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn := s.snapshot()
	if err := fn(s.txRepos()); err != nil {
		s.restore(sn)
		return err
	}
	return nil
}

func (s *Store) txRepos() ledger.TxRepos {
	return ledger.TxRepos{
		Movements:   &movementRepo{s: s, tx: true},
		Balances:    &balanceRepo{s: s, tx: true},
		Receiving:   &receivingRepo{s: s, tx: true},
		Sales:       &salesRepo{s: s, tx: true},
		Adjustments: &adjustmentRepo{s: s, tx: true},
		Transfers:   &transferRepo{s: s, tx: true},
		Products:    &productRepo{s: s, tx: true},
	}
}

// Repos atados al store (lecturas fuera de transacción).
func (s *Store) MovementRepo() repository.MovementRepository     { return &movementRepo{s: s} }
func (s *Store) BalanceRepo() repository.BalanceRepository       { return &balanceRepo{s: s} }
func (s *Store) ReceivingRepo() repository.ReceivingRepository   { return &receivingRepo{s: s} }
func (s *Store) SalesRepo() repository.SalesOrderRepository      { return &salesRepo{s: s} }
func (s *Store) AdjustmentRepo() repository.AdjustmentRepository { return &adjustmentRepo{s: s} }
func (s *Store) TransferRepo() repository.TransferRepository     { return &transferRepo{s: s} }
func (s *Store) ProductRepo() repository.ProductRepository       { return &productRepo{s: s} }
func (s *Store) WarehouseRepo() repository.WarehouseRepository   { return &warehouseRepo{s: s} }
func (s *Store) SupplierRepo() repository.SupplierRepository     { return &supplierRepo{s: s} }
func (s *Store) CustomerRepo() repository.CustomerRepository     { return &customerRepo{s: s} }

// Seeds de maestros (tests / modo demo).

func (s *Store) SeedProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = &p
}

func (s *Store) SeedWarehouse(w entity.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warehouses[w.ID] = &w
}

func (s *Store) SeedSupplier(sp entity.Supplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppliers[sp.ID] = &sp
}

func (s *Store) SeedCustomer(c entity.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = &c
}

// MovementCount largo actual del log (asserts de tests).
func (s *Store) MovementCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.movements)
}

func (s *Store) next(kind, format string) string {
	s.seq[kind]++
	return fmt.Sprintf(format, s.seq[kind])
}

// ─── movimientos ─────────────────────────────────────────────────────────────

type movementRepo struct {
	s  *Store
	tx bool
}

func (r *movementRepo) rlock() func() {
	if r.tx {
		return func() {}
	}
	r.s.mu.RLock()
	return r.s.mu.RUnlock
}

func (r *movementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	if !r.tx {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	cp := *m
	r.s.movements = append(r.s.movements, &cp)
	return nil
}

func (r *movementRepo) GetByID(_ context.Context, id string) (*entity.StockMovement, error) {
	defer r.rlock()()
	for _, m := range r.s.movements {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func matches(m *entity.StockMovement, f repository.MovementFilter) bool {
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if f.WarehouseID != "" && m.WarehouseID != f.WarehouseID {
		return false
	}
	if f.BatchID != "" && m.BatchID != f.BatchID {
		return false
	}
	if f.Kind != "" && m.Kind != f.Kind {
		return false
	}
	if f.From != nil && m.RecordedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && m.RecordedAt.After(*f.To) {
		return false
	}
	return true
}

func (r *movementRepo) List(_ context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, error) {
	defer r.rlock()()
	var all []*entity.StockMovement
	for _, m := range r.s.movements {
		if matches(m, f) {
			cp := *m
			all = append(all, &cp)
		}
	}
	// Más recientes primero, como el listado de auditoría.
	sort.SliceStable(all, func(i, j int) bool { return all[i].RecordedAt.After(all[j].RecordedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *movementRepo) Count(_ context.Context, f repository.MovementFilter) (int, error) {
	defer r.rlock()()
	n := 0
	for _, m := range r.s.movements {
		if matches(m, f) {
			n++
		}
	}
	return n, nil
}

func (r *movementRepo) SumByKey(_ context.Context, key entity.BalanceKey) (decimal.Decimal, error) {
	defer r.rlock()()
	sum := decimal.Zero
	for _, m := range r.s.movements {
		if m.BalanceKey() == key {
			sum = sum.Add(m.Signed())
		}
	}
	return sum, nil
}

func (r *movementRepo) ListKeys(_ context.Context) ([]entity.BalanceKey, error) {
	defer r.rlock()()
	seen := make(map[entity.BalanceKey]struct{})
	var keys []entity.BalanceKey
	for _, m := range r.s.movements {
		k := m.BalanceKey()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys, nil
}

func (r *movementRepo) NextMovementNumber(_ context.Context) (string, error) {
	if !r.tx {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	return r.s.next("movement", "MOV-%06d"), nil
}

// ─── saldos ──────────────────────────────────────────────────────────────────

type balanceRepo struct {
	s  *Store
	tx bool
}

func (r *balanceRepo) Get(_ context.Context, key entity.BalanceKey) (*entity.Balance, error) {
	if !r.tx {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
	}
	if b, ok := r.s.balances[key]; ok {
		cp := *b
		return &cp, nil
	}
	return &entity.Balance{
		ProductID:   key.ProductID,
		WarehouseID: key.WarehouseID,
		BatchID:     key.BatchID,
		Quantity:    decimal.Zero,
	}, nil
}

func (r *balanceRepo) GetForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.Balance, error) {
	// En memoria el lock de fila lo suple el lock del store que ya sostiene
	// la transacción.
	return r.Get(ctx, key)
}

func (r *balanceRepo) Upsert(_ context.Context, b *entity.Balance) error {
	if !r.tx {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	cp := *b
	r.s.balances[b.Key()] = &cp
	return nil
}

func (r *balanceRepo) ListByWarehouse(_ context.Context, warehouseID string, limit, offset int) ([]*entity.Balance, error) {
	if !r.tx {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
	}
	var all []*entity.Balance
	for _, b := range r.s.balances {
		if b.WarehouseID == warehouseID {
			cp := *b
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Key().String() < all[j].Key().String() })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *balanceRepo) ListAll(_ context.Context) ([]*entity.Balance, error) {
	if !r.tx {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
	}
	var all []*entity.Balance
	for _, b := range r.s.balances {
		cp := *b
		all = append(all, &cp)
	}
	return all, nil
}

// ─── GRNs ────────────────────────────────────────────────────────────────────

type receivingRepo struct {
	s  *Store
	tx bool
}

func copyGRN(d *entity.ReceivingDocument) *entity.ReceivingDocument {
	cp := *d
	cp.Items = append([]entity.ReceivingItem(nil), d.Items...)
	return &cp
}

func (r *receivingRepo) Create(_ context.Context, doc *entity.ReceivingDocument) error {
	if !r.tx {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	r.s.grns[doc.ID] = copyGRN(doc)
	return nil
}

func (r *receivingRepo) GetByID(_ context.Context, id string) (*entity.ReceivingDocument, error) {
	if !r.tx {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
	}
	if d, ok := r.s.grns[id]; ok {
		return copyGRN(d), nil
	}
	return nil, nil
}

func (r *receivingRepo) List(_ context.Context, status entity.GRNStatus, limit, offset int) ([]*entity.ReceivingDocument, error) {
	if !r.tx {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
	}
	var all []*entity.ReceivingDocument
	for _, d := range r.s.grns {
		if status == "" || d.Status == status {
			all = append(all, copyGRN(d))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].DocumentNumber < all[j].DocumentNumber })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *receivingRepo) transition(id string, apply func(*entity.ReceivingDocument) error) error {
	if !r.tx {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	d, ok := r.s.grns[id]
	if !ok {
		return domain.ErrNotFound
	}
	cp := copyGRN(d)
	if err := apply(cp); err != nil {
		return err
	}
	r.s.grns[id] = cp
	return nil
}

func (r *receivingRepo) Approve(_ context.Context, id, by string, at time.Time) error {
	return r.transition(id, func(d *entity.ReceivingDocument) error {
		return d.Approve(by, at)
	})
}

func (r *receivingRepo) Cancel(_ context.Context, id, by string, at time.Time) error {
	return r.transition(id, func(d *entity.ReceivingDocument) error {
		return d.Cancel(by, at)
	})
}

func (r *receivingRepo) NextDocumentNumber(_ context.Context) (string, error) {
	if !r.tx {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	return r.s.next("grn", "GRN-%06d"), nil
}

// ─── documentos emisores ─────────────────────────────────────────────────────

type salesRepo struct {
	s  *Store
	tx bool
}

func (r *salesRepo) Create(_ context.Context, o *entity.SalesOrder) error {
	if !r.tx {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	cp := *o
	cp.Lines = append([]entity.SalesLine(nil), o.Lines...)
	r.s.sales[o.ID] = &cp
	return nil
}

func (r *salesRepo) GetByID(_ context.Context, id string) (*entity.SalesOrder, error) {
	if !r.tx {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
	}
	if o, ok := r.s.sales[id]; ok {
		cp := *o
		cp.Lines = append([]entity.SalesLine(nil), o.Lines...)
		return &cp, nil
	}
	return nil, nil
}

func (r *salesRepo) NextOrderNumber(_ context.Context) (string, error) {
	if !r.tx {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	return r.s.next("sales", "SO-%06d"), nil
}

type adjustmentRepo struct {
	s  *Store
	tx bool
}

func (r *adjustmentRepo) Create(_ context.Context, a *entity.Adjustment) error {
	if !r.tx {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	cp := *a
	r.s.adjustments[a.ID] = &cp
	return nil
}

func (r *adjustmentRepo) GetByID(_ context.Context, id string) (*entity.Adjustment, error) {
	if !r.tx {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
	}
	if a, ok := r.s.adjustments[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (r *adjustmentRepo) NextDocumentNumber(_ context.Context) (string, error) {
	if !r.tx {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	return r.s.next("adjustment", "ADJ-%06d"), nil
}

type transferRepo struct {
	s  *Store
	tx bool
}

func (r *transferRepo) Create(_ context.Context, t *entity.TransferOrder) error {
	if !r.tx {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	cp := *t
	r.s.transfers[t.ID] = &cp
	return nil
}

func (r *transferRepo) GetByID(_ context.Context, id string) (*entity.TransferOrder, error) {
	if !r.tx {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
	}
	if t, ok := r.s.transfers[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r *transferRepo) NextDocumentNumber(_ context.Context) (string, error) {
	if !r.tx {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	return r.s.next("transfer", "TR-%06d"), nil
}

// ─── maestros ────────────────────────────────────────────────────────────────

type productRepo struct {
	s  *Store
	tx bool
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	if !r.tx {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
	}
	if p, ok := r.s.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *productRepo) UpdateCost(_ context.Context, id string, cost decimal.Decimal) error {
	if !r.tx {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	p, ok := r.s.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	cp := *p
	cp.Cost = cost
	r.s.products[id] = &cp
	return nil
}

type warehouseRepo struct{ s *Store }

func (r *warehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if w, ok := r.s.warehouses[id]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, nil
}

type supplierRepo struct{ s *Store }

func (r *supplierRepo) GetByID(_ context.Context, id string) (*entity.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if sp, ok := r.s.suppliers[id]; ok {
		cp := *sp
		return &cp, nil
	}
	return nil, nil
}

type customerRepo struct{ s *Store }

func (r *customerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if c, ok := r.s.customers[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}
