package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"portal/accounts/internal/model"
)

// ErrNotFound is returned when a referenced account or profile does not
// exist.
var ErrNotFound = errors.New("not found")

// DuplicateError reports a uniqueness violation on a business key. The
// orchestration layer maps it to a field-scoped 400, never a 500.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return "duplicate " + e.Field
}

const uniqueViolation = "23505"

// translateError folds storage-level race errors on unique indexes into
// DuplicateError so concurrent registrations fail cleanly.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return &DuplicateError{Field: "email"}
		case strings.Contains(pgErr.ConstraintName, "username"):
			return &DuplicateError{Field: "username"}
		case strings.Contains(pgErr.ConstraintName, "admission_number"):
			return &DuplicateError{Field: "admission_number"}
		case strings.Contains(pgErr.ConstraintName, "staff_id"):
			return &DuplicateError{Field: "staff_id"}
		case strings.Contains(pgErr.ConstraintName, "user_id"):
			return &DuplicateError{Field: "user_id"}
		}
		return &DuplicateError{Field: pgErr.ConstraintName}
	}
	return err
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const accountColumns = `id, username, email, password_hash, first_name, last_name, role,
	phone, date_of_birth, address, profile_photo, is_active, is_staff,
	date_joined, updated_at, last_login`

func scanAccount(row pgx.Row) (model.Account, error) {
	var account model.Account
	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.FirstName,
		&account.LastName,
		&account.Role,
		&account.Phone,
		&account.DateOfBirth,
		&account.Address,
		&account.ProfilePhoto,
		&account.IsActive,
		&account.IsStaff,
		&account.DateJoined,
		&account.UpdatedAt,
		&account.LastLogin,
	)
	return account, translateError(err)
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (model.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

func (s *Store) GetAccountByID(ctx context.Context, id string) (model.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// execer is satisfied by both the pool and a transaction, so the
// insert statements below run in either.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Profile is the role-specific record created alongside an account.
// At most one field is set; all nil means the account carries none.
type Profile struct {
	Student *model.StudentProfile
	Teacher *model.TeacherProfile
	Parent  *model.ParentProfile
}

// CreateAccountWithProfile inserts the account and its profile in one
// transaction: a uniqueness violation on either leaves no partial
// state behind, so the email and username stay free for a retry.
func (s *Store) CreateAccountWithProfile(ctx context.Context, account model.Account, profile Profile) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := insertAccount(ctx, tx, account); err != nil {
			return err
		}
		switch {
		case profile.Student != nil:
			return insertStudentProfile(ctx, tx, *profile.Student)
		case profile.Teacher != nil:
			return insertTeacherProfile(ctx, tx, *profile.Teacher)
		case profile.Parent != nil:
			return insertParentProfile(ctx, tx, *profile.Parent)
		}
		return nil
	})
	return translateError(err)
}

func insertAccount(ctx context.Context, db execer, account model.Account) error {
	_, err := db.Exec(ctx, `
		INSERT INTO accounts (id, username, email, password_hash, first_name, last_name, role,
			phone, date_of_birth, address, profile_photo, is_active, is_staff,
			date_joined, updated_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, account.ID, account.Username, account.Email, account.PasswordHash,
		account.FirstName, account.LastName, account.Role,
		account.Phone, account.DateOfBirth, account.Address, account.ProfilePhoto,
		account.IsActive, account.IsStaff, account.DateJoined, account.UpdatedAt, account.LastLogin)
	return err
}

// AccountUpdate is a partial update; nil fields are left untouched.
type AccountUpdate struct {
	FirstName   *string
	LastName    *string
	Phone       *string
	DateOfBirth *time.Time
	Address     *string
}

func (s *Store) UpdateAccount(ctx context.Context, id string, update AccountUpdate) (model.Account, error) {
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.FirstName != nil {
		add("first_name", *update.FirstName)
	}
	if update.LastName != nil {
		add("last_name", *update.LastName)
	}
	if update.Phone != nil {
		add("phone", *update.Phone)
	}
	if update.DateOfBirth != nil {
		add("date_of_birth", *update.DateOfBirth)
	}
	if update.Address != nil {
		add("address", *update.Address)
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE accounts SET %s WHERE id = $%d RETURNING `+accountColumns,
		strings.Join(sets, ", "), len(args))
	return scanAccount(s.pool.QueryRow(ctx, query, args...))
}

func (s *Store) SetPassword(ctx context.Context, id, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts SET password_hash = $1, updated_at = $2 WHERE id = $3
	`, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE accounts SET last_login = $1, updated_at = $1 WHERE id = $2
	`, at, id)
	return translateError(err)
}

func insertStudentProfile(ctx context.Context, db execer, profile model.StudentProfile) error {
	_, err := db.Exec(ctx, `
		INSERT INTO student_profiles (id, user_id, admission_number, current_class, gender,
			blood_group, parent_id, emergency_contact_name, emergency_contact_phone,
			emergency_contact_relationship, medical_conditions, admission_date, status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, profile.ID, profile.UserID, profile.AdmissionNumber, profile.CurrentClass, profile.Gender,
		profile.BloodGroup, profile.ParentID, profile.EmergencyContactName, profile.EmergencyContactPhone,
		profile.EmergencyContactRelationship, profile.MedicalConditions, profile.AdmissionDate,
		profile.Status, profile.CreatedAt, profile.UpdatedAt)
	return err
}

func (s *Store) GetStudentProfile(ctx context.Context, userID string) (model.StudentProfile, error) {
	var profile model.StudentProfile
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, admission_number, current_class, gender, blood_group, parent_id,
			emergency_contact_name, emergency_contact_phone, emergency_contact_relationship,
			medical_conditions, admission_date, status, created_at, updated_at
		FROM student_profiles
		WHERE user_id = $1
	`, userID)
	err := row.Scan(&profile.ID, &profile.UserID, &profile.AdmissionNumber, &profile.CurrentClass,
		&profile.Gender, &profile.BloodGroup, &profile.ParentID, &profile.EmergencyContactName,
		&profile.EmergencyContactPhone, &profile.EmergencyContactRelationship,
		&profile.MedicalConditions, &profile.AdmissionDate, &profile.Status,
		&profile.CreatedAt, &profile.UpdatedAt)
	return profile, translateError(err)
}

func insertTeacherProfile(ctx context.Context, db execer, profile model.TeacherProfile) error {
	_, err := db.Exec(ctx, `
		INSERT INTO teacher_profiles (id, user_id, staff_id, employment_status, date_of_joining,
			highest_qualification, specialization, years_of_experience, subjects_taught,
			monthly_salary, is_class_teacher, assigned_class, emergency_contact_name,
			emergency_contact_phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, profile.ID, profile.UserID, profile.StaffID, profile.EmploymentStatus, profile.DateOfJoining,
		profile.HighestQualification, profile.Specialization, profile.YearsOfExperience,
		profile.SubjectsTaught, profile.MonthlySalary, profile.IsClassTeacher, profile.AssignedClass,
		profile.EmergencyContactName, profile.EmergencyContactPhone, profile.CreatedAt, profile.UpdatedAt)
	return err
}

func (s *Store) GetTeacherProfile(ctx context.Context, userID string) (model.TeacherProfile, error) {
	var profile model.TeacherProfile
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, staff_id, employment_status, date_of_joining, highest_qualification,
			specialization, years_of_experience, subjects_taught, monthly_salary,
			is_class_teacher, assigned_class, emergency_contact_name, emergency_contact_phone,
			created_at, updated_at
		FROM teacher_profiles
		WHERE user_id = $1
	`, userID)
	err := row.Scan(&profile.ID, &profile.UserID, &profile.StaffID, &profile.EmploymentStatus,
		&profile.DateOfJoining, &profile.HighestQualification, &profile.Specialization,
		&profile.YearsOfExperience, &profile.SubjectsTaught, &profile.MonthlySalary,
		&profile.IsClassTeacher, &profile.AssignedClass, &profile.EmergencyContactName,
		&profile.EmergencyContactPhone, &profile.CreatedAt, &profile.UpdatedAt)
	return profile, translateError(err)
}

func insertParentProfile(ctx context.Context, db execer, profile model.ParentProfile) error {
	_, err := db.Exec(ctx, `
		INSERT INTO parent_profiles (id, user_id, relationship_to_student, occupation, employer,
			office_address, office_phone, alternate_phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, profile.ID, profile.UserID, profile.RelationshipToStudent, profile.Occupation,
		profile.Employer, profile.OfficeAddress, profile.OfficePhone, profile.AlternatePhone,
		profile.CreatedAt, profile.UpdatedAt)
	return err
}

func (s *Store) GetParentProfile(ctx context.Context, userID string) (model.ParentProfile, error) {
	var profile model.ParentProfile
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, relationship_to_student, occupation, employer, office_address,
			office_phone, alternate_phone, created_at, updated_at
		FROM parent_profiles
		WHERE user_id = $1
	`, userID)
	err := row.Scan(&profile.ID, &profile.UserID, &profile.RelationshipToStudent,
		&profile.Occupation, &profile.Employer, &profile.OfficeAddress, &profile.OfficePhone,
		&profile.AlternatePhone, &profile.CreatedAt, &profile.UpdatedAt)
	return profile, translateError(err)
}

// CountChildren derives a parent's children count from the student
// profiles whose parent link points at the account.
func (s *Store) CountChildren(ctx context.Context, parentID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM student_profiles WHERE parent_id = $1
	`, parentID).Scan(&count)
	return count, translateError(err)
}
