package staff

import (
	"context"
	"fmt"
	"time"

	"github.com/carebase/carebase/internal/authz"
	"github.com/carebase/carebase/internal/id"
	"github.com/carebase/carebase/internal/identity"
)

// DoctorInput carries doctor attributes for provisioning and update.
type DoctorInput struct {
	Email                string
	Password             string
	FullName             string
	Specialty            string
	LicenseNumber        string
	ConsultationFeeCents int64
}

// MemberInput carries staff attributes for provisioning and update.
type MemberInput struct {
	Email       string
	Password    string
	FullName    string
	Role        authz.Role
	Designation string
	Department  string
}

// Service provisions and manages doctor and staff profiles. Profile
// creation also creates the backing user account.
type Service struct {
	doctors  DoctorRepository
	members  MemberRepository
	identity *identity.Service
	tx       TxRunner
}

// NewService creates a new staff service
func NewService(doctors DoctorRepository, members MemberRepository, identitySvc *identity.Service, tx TxRunner) *Service {
	return &Service{
		doctors:  doctors,
		members:  members,
		identity: identitySvc,
		tx:       tx,
	}
}

// CreateDoctor provisions a doctor user plus profile atomically.
func (s *Service) CreateDoctor(ctx context.Context, tenantID string, in DoctorInput) (*Doctor, error) {
	var d *Doctor

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.identity.Provision(ctx, tenantID, in.Email, in.FullName, in.Password, authz.RoleDoctor)
		if err != nil {
			return err
		}

		now := time.Now()
		d = &Doctor{
			ID:                   id.NewUUIDv7(),
			TenantID:             tenantID,
			UserID:               user.ID,
			FullName:             in.FullName,
			Specialty:            in.Specialty,
			LicenseNumber:        in.LicenseNumber,
			ConsultationFeeCents: in.ConsultationFeeCents,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := s.doctors.Create(ctx, d); err != nil {
			return fmt.Errorf("failed to create doctor profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return d, nil
}

// CreateMember provisions a staff user plus profile atomically. The
// role must be a non-clinician tenant role.
func (s *Service) CreateMember(ctx context.Context, tenantID string, in MemberInput) (*Member, error) {
	switch in.Role {
	case authz.RoleAdmin, authz.RoleNurse, authz.RoleReceptionist, authz.RolePharmacist:
	default:
		return nil, fmt.Errorf("invalid staff role: %s", in.Role)
	}

	var m *Member

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.identity.Provision(ctx, tenantID, in.Email, in.FullName, in.Password, in.Role)
		if err != nil {
			return err
		}

		now := time.Now()
		m = &Member{
			ID:          id.NewUUIDv7(),
			TenantID:    tenantID,
			UserID:      user.ID,
			FullName:    in.FullName,
			Designation: in.Designation,
			Department:  in.Department,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.members.Create(ctx, m); err != nil {
			return fmt.Errorf("failed to create staff profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

// GetDoctor retrieves a doctor by id within a tenant.
func (s *Service) GetDoctor(ctx context.Context, tenantID, doctorID string) (*Doctor, error) {
	return s.doctors.GetByID(ctx, tenantID, doctorID)
}

// UpdateDoctor rewrites a doctor's profile attributes.
func (s *Service) UpdateDoctor(ctx context.Context, tenantID, doctorID string, in DoctorInput) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, tenantID, doctorID)
	if err != nil {
		return nil, err
	}

	d.FullName = in.FullName
	d.Specialty = in.Specialty
	d.LicenseNumber = in.LicenseNumber
	d.ConsultationFeeCents = in.ConsultationFeeCents
	d.UpdatedAt = time.Now()

	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDoctor removes a doctor profile and disables its user.
func (s *Service) DeleteDoctor(ctx context.Context, tenantID, doctorID string) error {
	d, err := s.doctors.GetByID(ctx, tenantID, doctorID)
	if err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.doctors.Delete(ctx, tenantID, doctorID); err != nil {
			return err
		}
		return s.identity.DeleteUser(ctx, tenantID, d.UserID)
	})
}

// ListDoctors lists a tenant's doctors with pagination.
func (s *Service) ListDoctors(ctx context.Context, tenantID string, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, tenantID, limit, offset)
}

// GetMember retrieves a staff member by id within a tenant.
func (s *Service) GetMember(ctx context.Context, tenantID, memberID string) (*Member, error) {
	return s.members.GetByID(ctx, tenantID, memberID)
}

// UpdateMember rewrites a staff member's profile attributes.
func (s *Service) UpdateMember(ctx context.Context, tenantID, memberID string, in MemberInput) (*Member, error) {
	m, err := s.members.GetByID(ctx, tenantID, memberID)
	if err != nil {
		return nil, err
	}

	m.FullName = in.FullName
	m.Designation = in.Designation
	m.Department = in.Department
	m.UpdatedAt = time.Now()

	if err := s.members.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMember removes a staff profile and disables its user.
func (s *Service) DeleteMember(ctx context.Context, tenantID, memberID string) error {
	m, err := s.members.GetByID(ctx, tenantID, memberID)
	if err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.members.Delete(ctx, tenantID, memberID); err != nil {
			return err
		}
		return s.identity.DeleteUser(ctx, tenantID, m.UserID)
	})
}

// ListMembers lists a tenant's staff with pagination.
func (s *Service) ListMembers(ctx context.Context, tenantID string, limit, offset int) ([]*Member, int, error) {
	return s.members.List(ctx, tenantID, limit, offset)
}
