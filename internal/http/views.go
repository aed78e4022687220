package http

import (
	"context"
	"errors"
	"time"

	"portal/accounts/internal/model"
	"portal/accounts/internal/repository"
)

const dateFormat = "2006-01-02"

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type userView struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	FullName     string  `json:"full_name"`
	Role         string  `json:"role"`
	Phone        *string `json:"phone"`
	DateOfBirth  *string `json:"date_of_birth"`
	Address      *string `json:"address"`
	ProfilePhoto *string `json:"profile_photo"`
	IsActive     bool    `json:"is_active"`
	DateJoined   string  `json:"date_joined"`
	LastLogin    *string `json:"last_login,omitempty"`
}

func mapUserView(account model.Account) userView {
	view := userView{
		ID:           account.ID,
		Username:     account.Username,
		Email:        account.Email,
		FirstName:    account.FirstName,
		LastName:     account.LastName,
		FullName:     account.FirstName + " " + account.LastName,
		Role:         account.Role,
		Phone:        account.Phone,
		Address:      account.Address,
		ProfilePhoto: account.ProfilePhoto,
		IsActive:     account.IsActive,
		DateJoined:   account.DateJoined.UTC().Format(time.RFC3339),
	}
	if account.DateOfBirth != nil {
		dob := account.DateOfBirth.Format(dateFormat)
		view.DateOfBirth = &dob
	}
	if account.LastLogin != nil {
		last := account.LastLogin.UTC().Format(time.RFC3339)
		view.LastLogin = &last
	}
	return view
}

type studentProfileView struct {
	ID                           string  `json:"id"`
	AdmissionNumber              string  `json:"admission_number"`
	CurrentClass                 *string `json:"current_class"`
	Gender                       string  `json:"gender"`
	BloodGroup                   *string `json:"blood_group"`
	Parent                       *string `json:"parent"`
	ParentName                   *string `json:"parent_name,omitempty"`
	EmergencyContactName         *string `json:"emergency_contact_name"`
	EmergencyContactPhone        *string `json:"emergency_contact_phone"`
	EmergencyContactRelationship *string `json:"emergency_contact_relationship"`
	MedicalConditions            *string `json:"medical_conditions"`
	AdmissionDate                string  `json:"admission_date"`
	Status                       string  `json:"status"`
}

type teacherProfileView struct {
	ID                    string   `json:"id"`
	StaffID               string   `json:"staff_id"`
	EmploymentStatus      string   `json:"employment_status"`
	DateOfJoining         string   `json:"date_of_joining"`
	HighestQualification  *string  `json:"highest_qualification"`
	Specialization        *string  `json:"specialization"`
	YearsOfExperience     int      `json:"years_of_experience"`
	SubjectsTaught        *string  `json:"subjects_taught"`
	MonthlySalary         *float64 `json:"monthly_salary"`
	IsClassTeacher        bool     `json:"is_class_teacher"`
	AssignedClass         *string  `json:"assigned_class"`
	EmergencyContactName  *string  `json:"emergency_contact_name"`
	EmergencyContactPhone *string  `json:"emergency_contact_phone"`
}

type parentProfileView struct {
	ID                    string  `json:"id"`
	RelationshipToStudent string  `json:"relationship_to_student"`
	Occupation            *string `json:"occupation"`
	Employer              *string `json:"employer"`
	OfficeAddress         *string `json:"office_address"`
	OfficePhone           *string `json:"office_phone"`
	AlternatePhone        *string `json:"alternate_phone"`
	ChildrenCount         int     `json:"children_count"`
}

func mapStudentProfileView(profile model.StudentProfile, parentName *string) studentProfileView {
	return studentProfileView{
		ID:                           profile.ID,
		AdmissionNumber:              profile.AdmissionNumber,
		CurrentClass:                 profile.CurrentClass,
		Gender:                       profile.Gender,
		BloodGroup:                   profile.BloodGroup,
		Parent:                       profile.ParentID,
		ParentName:                   parentName,
		EmergencyContactName:         profile.EmergencyContactName,
		EmergencyContactPhone:        profile.EmergencyContactPhone,
		EmergencyContactRelationship: profile.EmergencyContactRelationship,
		MedicalConditions:            profile.MedicalConditions,
		AdmissionDate:                profile.AdmissionDate.Format(dateFormat),
		Status:                       profile.Status,
	}
}

func mapTeacherProfileView(profile model.TeacherProfile) teacherProfileView {
	return teacherProfileView{
		ID:                    profile.ID,
		StaffID:               profile.StaffID,
		EmploymentStatus:      profile.EmploymentStatus,
		DateOfJoining:         profile.DateOfJoining.Format(dateFormat),
		HighestQualification:  profile.HighestQualification,
		Specialization:        profile.Specialization,
		YearsOfExperience:     profile.YearsOfExperience,
		SubjectsTaught:        profile.SubjectsTaught,
		MonthlySalary:         profile.MonthlySalary,
		IsClassTeacher:        profile.IsClassTeacher,
		AssignedClass:         profile.AssignedClass,
		EmergencyContactName:  profile.EmergencyContactName,
		EmergencyContactPhone: profile.EmergencyContactPhone,
	}
}

func mapParentProfileView(profile model.ParentProfile, childrenCount int) parentProfileView {
	return parentProfileView{
		ID:                    profile.ID,
		RelationshipToStudent: profile.RelationshipToStudent,
		Occupation:            profile.Occupation,
		Employer:              profile.Employer,
		OfficeAddress:         profile.OfficeAddress,
		OfficePhone:           profile.OfficePhone,
		AlternatePhone:        profile.AlternatePhone,
		ChildrenCount:         childrenCount,
	}
}

// profileForAccount looks up the one profile matching the account's
// role. A nil return with nil error means no profile has been
// provisioned yet; admins never carry one.
func (s *Server) profileForAccount(ctx context.Context, account model.Account) (interface{}, error) {
	switch account.Role {
	case model.RoleStudent:
		profile, err := s.store.GetStudentProfile(ctx, account.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		var parentName *string
		if profile.ParentID != nil {
			if parent, err := s.store.GetAccountByID(ctx, *profile.ParentID); err == nil {
				name := parent.FirstName + " " + parent.LastName
				parentName = &name
			}
		}
		return mapStudentProfileView(profile, parentName), nil
	case model.RoleTeacher:
		profile, err := s.store.GetTeacherProfile(ctx, account.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return mapTeacherProfileView(profile), nil
	case model.RoleParent:
		profile, err := s.store.GetParentProfile(ctx, account.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		count, err := s.store.CountChildren(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		return mapParentProfileView(profile, count), nil
	default:
		return nil, nil
	}
}
