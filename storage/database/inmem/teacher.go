package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/teacher"
)

var newIDFunc = uuid.NewString // mockable

type teacherRepository struct {
	db *teacherTable
}

var _ teacher.Repository = (*teacherRepository)(nil)

func NewTeacherRepository(db *DB) teacher.Repository {
	return &teacherRepository{db: db.teacher}
}

func (repo *teacherRepository) query() []teacher.Teacher {
	teachers := make([]teacher.Teacher, 0, len(repo.db.table))
	for _, t := range repo.db.table {
		teachers = append(teachers, t.Clone())
	}
	return teachers
}

func (repo *teacherRepository) CheckEmailUniqueness(email string, excludedIDs ...string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	sort.Strings(excludedIDs)
	for _, t := range repo.db.table {
		if t.Email == email && !isExcluded(t.ID, excludedIDs) {
			return teacher.ErrEmailExists
		}
	}
	return nil
}

func (repo *teacherRepository) CreateTeacher(_ context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// IDs are never reused, even those of deleted teachers
	for {
		t.ID = newIDFunc()
		_, exists := repo.db.table[t.ID]
		_, deleted := repo.db.deleted[t.ID]
		if !exists && !deleted {
			break
		}
	}
	stored := t.Clone()
	repo.db.table[t.ID] = &stored
	repo.db.record(teacher.OpCreate, t.ID, t.CreatedAt)
	return t, nil
}

func (repo *teacherRepository) QueryAllTeachers(
	_ context.Context,
	filter *teacher.QueryFilter,
	orderings []core.Ordering,
) ([]teacher.Teacher, error) {
	repo.db.mutex.RLock()
	all := repo.query()
	repo.db.mutex.RUnlock()

	teachers := make([]teacher.Teacher, 0, len(all))
	for _, t := range all {
		if filter == nil || filter.Match(t) {
			teachers = append(teachers, t)
		}
	}

	// default ordering: oldest first
	sort.SliceStable(teachers, func(i, j int) bool {
		return teachers[i].CreatedAt.Before(teachers[j].CreatedAt) ||
			(teachers[i].CreatedAt.Equal(teachers[j].CreatedAt) && teachers[i].ID < teachers[j].ID)
	})
	if len(orderings) > 0 {
		sort.SliceStable(teachers, func(i, j int) bool {
			for _, ord := range orderings {
				cmp := teacher.Compare(teachers[i], teachers[j], ord.Field)
				if cmp == 0 {
					continue
				}
				if ord.Ascending {
					return cmp < 0
				}
				return cmp > 0
			}
			return false
		})
	}
	return teachers, nil
}

func (repo *teacherRepository) GetTeacherByID(_ context.Context, id string) (teacher.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if t, ok := repo.db.table[id]; ok {
		return t.Clone(), nil
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) UpdateTeacher(_ context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[t.ID]
	if !ok {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	t.CreatedAt = orig.CreatedAt
	// a payment settled since t was loaded must survive a profile edit
	if t.PaymentStatus == "" {
		t.PaymentStatus = orig.PaymentStatus
	}
	if t.LastPaymentDate == "" {
		t.LastPaymentDate = orig.LastPaymentDate
	}
	stored := t.Clone()
	repo.db.table[t.ID] = &stored
	repo.db.record(teacher.OpUpdate, t.ID, t.UpdatedAt)
	return t, nil
}

func (repo *teacherRepository) UpdateTeacherPaymentStatus(
	_ context.Context,
	id string,
	status teacher.PaymentStatus,
	lastPaymentDate string,
	at time.Time,
) (teacher.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[id]
	if !ok {
		return teacher.Teacher{}, teacher.ErrNotFound
	}

	// work on a copy: the stored record is replaced only when both fields are valid
	t := orig.Clone()
	if err := t.ApplyPaymentStatus(status, lastPaymentDate); err != nil {
		return teacher.Teacher{}, err
	}
	t.UpdatedAt = at
	repo.db.table[id] = &t
	repo.db.record(teacher.OpPayment, id, at)
	return t.Clone(), nil
}

func (repo *teacherRepository) DeleteTeacher(_ context.Context, id string, at time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return teacher.ErrNotFound
	}
	delete(repo.db.table, id)
	repo.db.deleted[id] = struct{}{}
	repo.db.record(teacher.OpDelete, id, at)
	return nil
}

func (repo *teacherRepository) Version(_ context.Context) uint64 {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.version
}

func (repo *teacherRepository) Changes(_ context.Context, since uint64) ([]teacher.Change, uint64) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	// versions are contiguous: changes[i].Version == i+1
	if since >= uint64(len(repo.db.changes)) {
		return []teacher.Change{}, repo.db.version
	}
	changes := make([]teacher.Change, len(repo.db.changes)-int(since))
	copy(changes, repo.db.changes[since:])
	return changes, repo.db.version
}

func isExcluded(id string, excludedIDs []string) bool {
	idx := sort.SearchStrings(excludedIDs, id)
	return idx < len(excludedIDs) && excludedIDs[idx] == id
}
