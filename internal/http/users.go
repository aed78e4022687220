package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"portal/accounts/internal/crypto"
	"portal/accounts/internal/model"
	"portal/accounts/internal/repository"
	"portal/accounts/internal/validate"
)

type meResponse struct {
	User    userView    `json:"user"`
	Profile interface{} `json:"profile"`
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())

	profile, err := s.profileForAccount(r.Context(), account)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{User: mapUserView(account), Profile: profile})
}

type updateMeRequest struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	Address     *string `json:"address,omitempty"`
}

// handleUpdateMe partially updates the editable account fields. Email,
// username and role are not self-service.
func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())

	var req updateMeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	errs := validate.Errors{}
	update := repository.AccountUpdate{}

	if req.FirstName != nil {
		first := strings.TrimSpace(*req.FirstName)
		if first == "" {
			errs.Add("first_name", "This field may not be blank.")
		} else {
			update.FirstName = &first
		}
	}
	if req.LastName != nil {
		last := strings.TrimSpace(*req.LastName)
		if last == "" {
			errs.Add("last_name", "This field may not be blank.")
		} else {
			update.LastName = &last
		}
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if !validate.ValidPhone(phone) {
			errs.Add("phone", "Enter a valid phone number.")
		} else {
			update.Phone = &phone
		}
	}
	if req.DateOfBirth != nil {
		parsed, ok := validate.ParseDate(*req.DateOfBirth)
		if !ok {
			errs.Add("date_of_birth", "Date has wrong format. Use YYYY-MM-DD.")
		} else {
			update.DateOfBirth = &parsed
		}
	}
	if req.Address != nil {
		address := strings.TrimSpace(*req.Address)
		update.Address = &address
	}

	if errs.HasErrors() {
		writeFieldErrors(w, errs)
		return
	}

	updated, err := s.store.UpdateAccount(r.Context(), account.ID, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]userView{"user": mapUserView(updated)})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	caller, _ := accountFromContext(r.Context())
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing_user_id")
		return
	}
	if caller.Role != model.RoleAdmin && caller.ID != userID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	account, err := s.store.GetAccountByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	profile, err := s.profileForAccount(r.Context(), account)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{User: mapUserView(account), Profile: profile})
}

type createUserRequest struct {
	Email       string  `json:"email"`
	Username    string  `json:"username"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Password    string  `json:"password"`
	Role        string  `json:"role"`
	Phone       *string `json:"phone,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`

	// student fields
	AdmissionNumber *string `json:"admission_number,omitempty"`
	Gender          *string `json:"gender,omitempty"`
	AdmissionDate   *string `json:"admission_date,omitempty"`
	ParentID        *string `json:"parent_id,omitempty"`

	// teacher fields
	StaffID          *string `json:"staff_id,omitempty"`
	EmploymentStatus *string `json:"employment_status,omitempty"`
	DateOfJoining    *string `json:"date_of_joining,omitempty"`

	// parent fields
	RelationshipToStudent *string `json:"relationship_to_student,omitempty"`
}

// handleCreateUser is the administrative provisioning path: unlike
// self-registration it accepts any role and creates the matching
// profile in the same request.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	req.Email = validate.NormalizeIdentifier(req.Email)
	req.Username = validate.NormalizeIdentifier(req.Username)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))

	errs := validate.Errors{}
	if req.Email == "" {
		errs.Add("email", "This field is required.")
	} else if !validate.ValidEmail(req.Email) {
		errs.Add("email", "Enter a valid email address.")
	}
	if req.Username == "" {
		errs.Add("username", "This field is required.")
	}
	if req.FirstName == "" {
		errs.Add("first_name", "This field is required.")
	}
	if req.LastName == "" {
		errs.Add("last_name", "This field is required.")
	}
	if req.Password == "" {
		errs.Add("password", "This field is required.")
	} else {
		for _, violation := range validate.CheckPassword(req.Password, req.Email, req.Username, req.FirstName, req.LastName) {
			errs.Add("password", violation)
		}
	}
	if !model.ValidRole(req.Role) {
		errs.Add("role", "Not a valid role.")
	}

	var phone *string
	if req.Phone != nil && strings.TrimSpace(*req.Phone) != "" {
		trimmed := strings.TrimSpace(*req.Phone)
		if !validate.ValidPhone(trimmed) {
			errs.Add("phone", "Enter a valid phone number.")
		} else {
			phone = &trimmed
		}
	}
	var dateOfBirth *time.Time
	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		parsed, ok := validate.ParseDate(*req.DateOfBirth)
		if !ok {
			errs.Add("date_of_birth", "Date has wrong format. Use YYYY-MM-DD.")
		} else {
			dateOfBirth = &parsed
		}
	}

	var studentProfile *model.StudentProfile
	var teacherProfile *model.TeacherProfile
	var parentProfile *model.ParentProfile
	now := time.Now().UTC()

	switch req.Role {
	case model.RoleStudent:
		profile, profileErrs := s.buildStudentProfile(r, req, now)
		for field, messages := range profileErrs {
			for _, msg := range messages {
				errs.Add(field, msg)
			}
		}
		studentProfile = profile
	case model.RoleTeacher:
		profile := model.TeacherProfile{
			ID:               uuid.NewString(),
			EmploymentStatus: model.EmploymentFullTime,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if req.StaffID == nil || strings.TrimSpace(*req.StaffID) == "" {
			errs.Add("staff_id", "This field is required.")
		} else {
			profile.StaffID = strings.TrimSpace(*req.StaffID)
		}
		if req.DateOfJoining == nil || *req.DateOfJoining == "" {
			errs.Add("date_of_joining", "This field is required.")
		} else if parsed, ok := validate.ParseDate(*req.DateOfJoining); ok {
			profile.DateOfJoining = parsed
		} else {
			errs.Add("date_of_joining", "Date has wrong format. Use YYYY-MM-DD.")
		}
		if req.EmploymentStatus != nil {
			switch *req.EmploymentStatus {
			case model.EmploymentFullTime, model.EmploymentPartTime, model.EmploymentContract:
				profile.EmploymentStatus = *req.EmploymentStatus
			default:
				errs.Add("employment_status", "Not a valid employment status.")
			}
		}
		teacherProfile = &profile
	case model.RoleParent:
		profile := model.ParentProfile{
			ID:                    uuid.NewString(),
			RelationshipToStudent: model.RelationshipFather,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if req.RelationshipToStudent != nil {
			switch *req.RelationshipToStudent {
			case model.RelationshipFather, model.RelationshipMother, model.RelationshipGuardian, model.RelationshipOther:
				profile.RelationshipToStudent = *req.RelationshipToStudent
			default:
				errs.Add("relationship_to_student", "Not a valid relationship.")
			}
		}
		parentProfile = &profile
	}

	if errs.HasErrors() {
		writeFieldErrors(w, errs)
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	account := model.Account{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		Phone:        phone,
		DateOfBirth:  dateOfBirth,
		IsActive:     true,
		IsStaff:      req.Role == model.RoleAdmin,
		DateJoined:   now,
		UpdatedAt:    now,
	}

	if studentProfile != nil {
		studentProfile.UserID = account.ID
	}
	if teacherProfile != nil {
		teacherProfile.UserID = account.ID
	}
	if parentProfile != nil {
		parentProfile.UserID = account.ID
	}
	newProfile := repository.Profile{
		Student: studentProfile,
		Teacher: teacherProfile,
		Parent:  parentProfile,
	}

	// Account and profile land together or not at all, so a duplicate
	// staff_id or admission_number does not burn the email/username.
	if err := s.store.CreateAccountWithProfile(r.Context(), account, newProfile); err != nil {
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			writeDuplicate(w, dup)
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	profile, err := s.profileForAccount(r.Context(), account)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusCreated, meResponse{User: mapUserView(account), Profile: profile})
}

// buildStudentProfile validates the student-specific provisioning
// fields, including that a supplied parent link points at a parent
// account.
func (s *Server) buildStudentProfile(r *http.Request, req createUserRequest, now time.Time) (*model.StudentProfile, validate.Errors) {
	errs := validate.Errors{}
	profile := model.StudentProfile{
		ID:        uuid.NewString(),
		Status:    model.StudentStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if req.AdmissionNumber == nil || strings.TrimSpace(*req.AdmissionNumber) == "" {
		errs.Add("admission_number", "This field is required.")
	} else {
		profile.AdmissionNumber = strings.TrimSpace(*req.AdmissionNumber)
	}
	if req.Gender == nil {
		errs.Add("gender", "This field is required.")
	} else if *req.Gender != "M" && *req.Gender != "F" {
		errs.Add("gender", "Not a valid gender.")
	} else {
		profile.Gender = *req.Gender
	}
	if req.AdmissionDate == nil || *req.AdmissionDate == "" {
		errs.Add("admission_date", "This field is required.")
	} else if parsed, ok := validate.ParseDate(*req.AdmissionDate); ok {
		profile.AdmissionDate = parsed
	} else {
		errs.Add("admission_date", "Date has wrong format. Use YYYY-MM-DD.")
	}
	if req.ParentID != nil && *req.ParentID != "" {
		parent, err := s.store.GetAccountByID(r.Context(), *req.ParentID)
		if err != nil || parent.Role != model.RoleParent {
			errs.Add("parent_id", "Parent must reference an existing parent account.")
		} else {
			profile.ParentID = req.ParentID
		}
	}

	return &profile, errs
}
