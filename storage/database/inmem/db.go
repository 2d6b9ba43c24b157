package inmemdb

import (
	"sync"
	"time"

	"github.com/trezcool/roster/core/payment"
	"github.com/trezcool/roster/core/teacher"
)

type (
	// DB is a process-wide, in-memory database; it resets whenever the process restarts.
	DB struct {
		teacher *teacherTable
		receipt *receiptTable
	}

	teacherTable struct {
		mutex   sync.RWMutex
		table   map[string]*teacher.Teacher
		deleted map[string]struct{} // IDs of deleted teachers
		version uint64
		changes []teacher.Change
	}

	receiptTable struct {
		mutex sync.RWMutex
		table map[string]*payment.Receipt
	}
)

func Open() *DB {
	return &DB{
		teacher: &teacherTable{
			table:   make(map[string]*teacher.Teacher),
			deleted: make(map[string]struct{}),
		},
		receipt: &receiptTable{table: make(map[string]*payment.Receipt)},
	}
}

// record bumps the table version; callers must hold the write lock.
func (tbl *teacherTable) record(op, teacherID string, at time.Time) {
	tbl.version++
	tbl.changes = append(tbl.changes, teacher.Change{
		Version:   tbl.version,
		Op:        op,
		TeacherID: teacherID,
		At:        at.UTC(),
	})
}
