package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nextlevel-sports/academy-api/internal/models"
	appErrors "github.com/nextlevel-sports/academy-api/pkg/errors"
)

type studentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

type studentLessonReader interface {
	ListByStudent(ctx context.Context, studentID string, limit int) ([]models.Lesson, error)
}

type studentReceivableReader interface {
	List(ctx context.Context, filter models.ReceivableFilter) ([]models.Receivable, error)
}

type studentContractReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Contract, error)
}

// RegisterStudentRequest is the payload for student self-registration.
type RegisterStudentRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone"`
}

// StudentSnapshot groups a student's record with their recent activity.
type StudentSnapshot struct {
	Student     *models.Student     `json:"student"`
	Contracts   []models.Contract   `json:"contracts"`
	Lessons     []models.Lesson     `json:"lessons"`
	Receivables []models.Receivable `json:"receivables"`
}

// StudentService manages student enrollment and profile queries.
type StudentService struct {
	students    studentStore
	users       userStore
	lessons     studentLessonReader
	receivables studentReceivableReader
	contracts   studentContractReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService instantiates StudentService.
func NewStudentService(
	students studentStore,
	users userStore,
	lessons studentLessonReader,
	receivables studentReceivableReader,
	contracts studentContractReader,
	validate *validator.Validate,
	logger *zap.Logger,
) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		students:    students,
		users:       users,
		lessons:     lessons,
		receivables: receivables,
		contracts:   contracts,
		validator:   validate,
		logger:      logger,
	}
}

// List returns students matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	students, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Register enrolls a new student: creates the user account and the student
// record in sequence.
func (s *StudentService) Register(ctx context.Context, req RegisterStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         models.RoleStudent,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	student := &models.Student{UserID: user.ID, Status: "active"}
	if req.Phone != "" {
		student.Phone = &req.Phone
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	student.FullName = user.FullName
	return student, nil
}

// Snapshot returns a student's profile with contracts, recent lessons and
// receivables.
func (s *StudentService) Snapshot(ctx context.Context, id string) (*StudentSnapshot, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	contracts, err := s.contracts.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contracts")
	}
	lessons, err := s.lessons.ListByStudent(ctx, id, 20)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	receivables, err := s.receivables.List(ctx, models.ReceivableFilter{StudentID: id})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list receivables")
	}

	return &StudentSnapshot{
		Student:     student,
		Contracts:   contracts,
		Lessons:     lessons,
		Receivables: receivables,
	}, nil
}
