package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimetableRepositoryLoadSnapshot(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, department FROM professors ORDER BY position ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "department"}).AddRow(1, "Ivanova", "Mathematics"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, capacity, has_projector FROM classrooms ORDER BY position ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "capacity", "has_projector"}).AddRow("101", 30, true).AddRow("102", 24, false))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, course_type FROM courses ORDER BY position ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "course_type"}).AddRow(1, "Calculus", "Lecture"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, professor_id, classroom_id, day_of_week, time_slot FROM lessons ORDER BY position ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "professor_id", "classroom_id", "day_of_week", "time_slot"}).
			AddRow(1, 1, 1, "101", "Monday", "8:30-10:00"))

	snap, err := repo.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Professor{{ID: 1, Name: "Ivanova", Department: "Mathematics"}}, snap.Professors)
	assert.Len(t, snap.Classrooms, 2)
	assert.True(t, snap.Classrooms[0].HasProjector)
	assert.Equal(t, models.CourseTypeLecture, snap.Courses[0].Type)
	assert.Equal(t, models.Lesson{ID: 1, CourseID: 1, ProfessorID: 1, ClassroomID: "101", Day: models.Monday, Slot: models.SlotFirst}, snap.Lessons[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositorySaveSnapshot(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	snap := models.TimetableSnapshot{
		Professors: []models.Professor{{ID: 1, Name: "Ivanova"}},
		Classrooms: []models.Classroom{{ID: "101", Capacity: 30}},
		Courses:    []models.Course{{ID: 1, Name: "Calculus", Type: models.CourseTypeLecture}},
		Lessons: []models.Lesson{
			{ID: 1, CourseID: 1, ProfessorID: 1, ClassroomID: "101", Day: models.Monday, Slot: models.SlotFirst},
			{ID: 3, CourseID: 1, ProfessorID: 1, ClassroomID: "101", Day: models.Monday, Slot: models.SlotSecond},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO professors").WithArgs(1, "Ivanova", "", 0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO classrooms").WithArgs("101", 30, false, 0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO courses").WithArgs(1, "Calculus", "Lecture", 0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM lessons").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("INSERT INTO lessons").WithArgs(1, 1, 1, "101", "Monday", "8:30-10:00", 0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO lessons").WithArgs(3, 1, 1, "101", "Monday", "10:10-11:40", 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveSnapshot(context.Background(), snap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositorySaveSnapshotRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM lessons").WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	err := repo.SaveSnapshot(context.Background(), models.TimetableSnapshot{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear lessons")
	assert.NoError(t, mock.ExpectationsWereMet())
}
