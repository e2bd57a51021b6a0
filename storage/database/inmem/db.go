// Package inmemdb keeps the tables in process memory. It backs the tests and the API when no database is configured.
package inmemdb

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/course"
	"github.com/flowlearn/pawfessor/core/profile"
)

var newIDFunc = uuid.NewString // mockable

// DB holds every table; slices keep insertion order.
type DB struct {
	mu          sync.RWMutex
	profiles    []profile.Profile
	courses     []course.Course
	enrollments []course.Enrollment
	contents    []course.Content
	progress    []course.Progress
	submissions []course.Submission
}

func NewDB() *DB {
	return new(DB)
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.profiles = nil
	db.courses = nil
	db.enrollments = nil
	db.contents = nil
	db.progress = nil
	db.submissions = nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// sortBy stable-sorts items following orderings; less reports whether a sorts before b on field,
// and whether field is known at all.
func sortBy(n int, swap func(i, j int), orderings []core.DBOrdering, less func(i, j int, field string) (bool, bool)) {
	if len(orderings) == 0 {
		return
	}
	sort.Stable(sorter{n: n, swap: swap, less: func(i, j int) bool {
		for _, ord := range orderings {
			iLess, known := less(i, j, ord.Field)
			if !known {
				continue
			}
			jLess, _ := less(j, i, ord.Field)
			if iLess == jLess { // equal
				continue
			}
			if ord.Ascending {
				return iLess
			}
			return jLess
		}
		return false
	}})
}

type sorter struct {
	n    int
	swap func(i, j int)
	less func(i, j int) bool
}

func (s sorter) Len() int           { return s.n }
func (s sorter) Swap(i, j int)      { s.swap(i, j) }
func (s sorter) Less(i, j int) bool { return s.less(i, j) }
