package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/roster/core/payment"
)

type receiptRepository struct {
	db *receiptTable
}

var _ payment.ReceiptRepository = (*receiptRepository)(nil)

func NewReceiptRepository(db *DB) payment.ReceiptRepository {
	return &receiptRepository{db: db.receipt}
}

func (repo *receiptRepository) CreateReceipt(_ context.Context, r payment.Receipt) (payment.Receipt, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if _, exists := repo.db.table[r.ID]; exists {
		return payment.Receipt{}, payment.ErrReceiptExists
	}
	repo.db.table[r.ID] = &r
	return r, nil
}

func (repo *receiptRepository) GetReceiptByID(_ context.Context, id string) (payment.Receipt, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if r, ok := repo.db.table[id]; ok {
		return *r, nil
	}
	return payment.Receipt{}, payment.ErrReceiptNotFound
}

func (repo *receiptRepository) QueryTeacherReceipts(_ context.Context, teacherID string) ([]payment.Receipt, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	receipts := make([]payment.Receipt, 0)
	for _, r := range repo.db.table {
		if r.TeacherID == teacherID {
			receipts = append(receipts, *r)
		}
	}
	sort.Slice(receipts, func(i, j int) bool { return receipts[i].SettledAt.After(receipts[j].SettledAt) })
	return receipts, nil
}
