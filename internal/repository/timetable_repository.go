package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// TimetableRepository persists registry snapshots. Rows carry a position column so a restored
// registry keeps registration and scheduling order.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// LoadSnapshot reads every professor, classroom, course and lesson in stored order.
func (r *TimetableRepository) LoadSnapshot(ctx context.Context) (models.TimetableSnapshot, error) {
	var snap models.TimetableSnapshot
	if err := r.db.SelectContext(ctx, &snap.Professors, `SELECT id, name, department FROM professors ORDER BY position ASC`); err != nil {
		return snap, fmt.Errorf("load professors: %w", err)
	}
	if err := r.db.SelectContext(ctx, &snap.Classrooms, `SELECT id, capacity, has_projector FROM classrooms ORDER BY position ASC`); err != nil {
		return snap, fmt.Errorf("load classrooms: %w", err)
	}
	if err := r.db.SelectContext(ctx, &snap.Courses, `SELECT id, name, course_type FROM courses ORDER BY position ASC`); err != nil {
		return snap, fmt.Errorf("load courses: %w", err)
	}
	if err := r.db.SelectContext(ctx, &snap.Lessons, `SELECT id, course_id, professor_id, classroom_id, day_of_week, time_slot FROM lessons ORDER BY position ASC`); err != nil {
		return snap, fmt.Errorf("load lessons: %w", err)
	}
	return snap, nil
}

// SaveSnapshot stores snap in one transaction. Reference data is insert-only; lessons are
// replaced wholesale so the stored set always equals the snapshot.
func (r *TimetableRepository) SaveSnapshot(ctx context.Context, snap models.TimetableSnapshot) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save timetable: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, p := range snap.Professors {
		if _, err = tx.ExecContext(ctx, `INSERT INTO professors (id, name, department, position) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`, p.ID, p.Name, p.Department, i); err != nil {
			return fmt.Errorf("insert professor %d: %w", p.ID, err)
		}
	}
	for i, c := range snap.Classrooms {
		if _, err = tx.ExecContext(ctx, `INSERT INTO classrooms (id, capacity, has_projector, position) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`, c.ID, c.Capacity, c.HasProjector, i); err != nil {
			return fmt.Errorf("insert classroom %s: %w", c.ID, err)
		}
	}
	for i, c := range snap.Courses {
		if _, err = tx.ExecContext(ctx, `INSERT INTO courses (id, name, course_type, position) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`, c.ID, c.Name, string(c.Type), i); err != nil {
			return fmt.Errorf("insert course %d: %w", c.ID, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM lessons`); err != nil {
		return fmt.Errorf("clear lessons: %w", err)
	}
	for i, l := range snap.Lessons {
		if _, err = tx.ExecContext(ctx, `INSERT INTO lessons (id, course_id, professor_id, classroom_id, day_of_week, time_slot, position) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, l.CourseID, l.ProfessorID, l.ClassroomID, string(l.Day), string(l.Slot), i); err != nil {
			return fmt.Errorf("insert lesson %d: %w", l.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save timetable: %w", err)
	}
	return nil
}
