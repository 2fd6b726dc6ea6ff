package directory

import (
	"context"
	"errors"

	"hostel/internal/domain/auth"
	"hostel/internal/domain/outing"
)

// Service answers the scope questions the outing engine asks: who is this
// student, and may this staff member act on them. Wardens are scoped by
// hostel gender, principals by the courses assigned to them, admins are
// unscoped.
type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

var _ outing.Directory = (*Service)(nil)

func (s *Service) Student(ctx context.Context, studentID string) (outing.StudentInfo, error) {
	st, err := s.Store.Student(ctx, studentID)
	if errors.Is(err, ErrNotFound) {
		return outing.StudentInfo{}, outing.ErrNotFound
	}
	if err != nil {
		return outing.StudentInfo{}, err
	}
	return outing.StudentInfo{
		UserID:                    st.UserID,
		Name:                      st.Name,
		Course:                    st.Course,
		Branch:                    st.Branch,
		Gender:                    st.Gender,
		ParentPhone:               st.ParentPhone,
		ParentPermissionForOuting: st.ParentPermissionForOuting,
	}, nil
}

func (s *Service) CanActOn(ctx context.Context, actorUserID, role, studentID string) (bool, error) {
	switch role {
	case auth.RoleAdmin, auth.RoleSecurity:
		return true, nil
	case auth.RoleWarden:
		scopes, err := s.Store.WardenGenderScopes(ctx, actorUserID)
		if err != nil {
			return false, err
		}
		if len(scopes) == 0 {
			return true, nil
		}
		st, err := s.Store.Student(ctx, studentID)
		if err != nil {
			return false, err
		}
		for _, gender := range scopes {
			if gender == st.Gender {
				return true, nil
			}
		}
		return false, nil
	case auth.RolePrincipal:
		courses, err := s.Store.PrincipalCourses(ctx, actorUserID)
		if err != nil {
			return false, err
		}
		if len(courses) == 0 {
			return false, nil
		}
		st, err := s.Store.Student(ctx, studentID)
		if err != nil {
			return false, err
		}
		for _, course := range courses {
			if course == st.Course {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}
