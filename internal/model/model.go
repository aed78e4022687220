package model

import "time"

const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleParent  = "parent"
	RoleStudent = "student"
)

const (
	StudentStatusActive      = "active"
	StudentStatusGraduated   = "graduated"
	StudentStatusTransferred = "transferred"
	StudentStatusSuspended   = "suspended"
)

const (
	EmploymentFullTime = "full_time"
	EmploymentPartTime = "part_time"
	EmploymentContract = "contract"
)

const (
	RelationshipFather   = "father"
	RelationshipMother   = "mother"
	RelationshipGuardian = "guardian"
	RelationshipOther    = "other"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTeacher, RoleParent, RoleStudent:
		return true
	}
	return false
}

type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	Phone        *string
	DateOfBirth  *time.Time
	Address      *string
	ProfilePhoto *string
	IsActive     bool
	IsStaff      bool
	DateJoined   time.Time
	UpdatedAt    time.Time
	LastLogin    *time.Time
}

type StudentProfile struct {
	ID                           string
	UserID                       string
	AdmissionNumber              string
	CurrentClass                 *string
	Gender                       string
	BloodGroup                   *string
	ParentID                     *string
	EmergencyContactName         *string
	EmergencyContactPhone        *string
	EmergencyContactRelationship *string
	MedicalConditions            *string
	AdmissionDate                time.Time
	Status                       string
	CreatedAt                    time.Time
	UpdatedAt                    time.Time
}

type TeacherProfile struct {
	ID                    string
	UserID                string
	StaffID               string
	EmploymentStatus      string
	DateOfJoining         time.Time
	HighestQualification  *string
	Specialization        *string
	YearsOfExperience     int
	SubjectsTaught        *string
	MonthlySalary         *float64
	IsClassTeacher        bool
	AssignedClass         *string
	EmergencyContactName  *string
	EmergencyContactPhone *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type ParentProfile struct {
	ID                    string
	UserID                string
	RelationshipToStudent string
	Occupation            *string
	Employer              *string
	OfficeAddress         *string
	OfficePhone           *string
	AlternatePhone        *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
