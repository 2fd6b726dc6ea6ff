package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = fmt.Errorf("directory record not found")

type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	DB Querier
}

func NewStore(db Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, email, password_hash, role, created_at
    FROM users
    WHERE email = $1
  `, email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) Student(ctx context.Context, userID string) (*Student, error) {
	var st Student
	err := s.DB.QueryRow(ctx, `
    SELECT s.user_id, u.name, s.course, s.branch, s.gender, s.parent_phone, s.parent_permission_for_outing
    FROM students s
    JOIN users u ON u.id = s.user_id
    WHERE s.user_id = $1
  `, userID).Scan(&st.UserID, &st.Name, &st.Course, &st.Branch, &st.Gender, &st.ParentPhone, &st.ParentPermissionForOuting)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// WardenGenderScopes returns the genders a warden is assigned to. An empty
// result means the warden is unscoped and may act on every student.
func (s *Store) WardenGenderScopes(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT gender FROM warden_scopes WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var gender string
		if err := rows.Scan(&gender); err != nil {
			return nil, err
		}
		out = append(out, gender)
	}
	return out, rows.Err()
}

// PrincipalCourses returns the course names a principal may decide for.
func (s *Store) PrincipalCourses(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT course FROM principal_courses WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var course string
		if err := rows.Scan(&course); err != nil {
			return nil, err
		}
		out = append(out, course)
	}
	return out, rows.Err()
}
