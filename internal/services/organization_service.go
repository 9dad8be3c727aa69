package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskflow-ai/taskflow-api/internal/constants"
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"github.com/taskflow-ai/taskflow-api/internal/repository"
	"github.com/taskflow-ai/taskflow-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrOrganizationNotFound       = errors.New("organization not found")
	ErrInvalidOrganizationName    = errors.New("organization name cannot be empty")
	ErrOrganizationNameTooLong    = errors.New("organization name is too long")
	ErrInviteCodeGenerationFailed = errors.New("failed to generate invite code")
	ErrInvalidInviteCode          = errors.New("invalid invite code")
	ErrAlreadyOrganizationMember  = errors.New("user is already a member of this organization")
	ErrCannotRemoveYourself       = errors.New("cannot remove yourself from the organization")
	ErrCannotRemoveOwner          = errors.New("the organization owner cannot be removed")
	ErrCannotChangeOwnRole        = errors.New("cannot change your own role")
	ErrCannotChangeOwnerRole      = errors.New("the owner's role cannot be changed")
	ErrInvalidRole                = errors.New("role must be admin or member")
	ErrOrganizationMemberNotFound = errors.New("organization member not found")
	ErrInsufficientRole           = errors.New("your role does not allow this action")
)

// OrganizationService provides business logic for organization operations.
type OrganizationService struct {
	orgRepo  repository.OrganizationRepository
	recovery *RecoveryService
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgRepo repository.OrganizationRepository, recovery *RecoveryService) *OrganizationService {
	return &OrganizationService{
		orgRepo:  orgRepo,
		recovery: recovery,
	}
}

// CreateOrganizationInput represents parameters to create a new organization.
type CreateOrganizationInput struct {
	Name    string
	OwnerID string
}

func validateOrganizationName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidOrganizationName
	}
	if len(name) > constants.MaxNameLength {
		return "", ErrOrganizationNameTooLong
	}
	return name, nil
}

// CreateOrganization creates a new organization owned by the caller.
func (s *OrganizationService) CreateOrganization(input CreateOrganizationInput) (*models.Organization, error) {
	name, err := validateOrganizationName(input.Name)
	if err != nil {
		return nil, err
	}

	inviteCode, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	org := &models.Organization{
		Name:       name,
		InviteCode: inviteCode,
	}
	owner := &models.OrganizationMember{
		UserID:   input.OwnerID,
		Role:     models.RoleOwner,
		JoinedAt: time.Now(),
	}

	if err := s.orgRepo.CreateWithOwner(org, owner); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	return org, nil
}

// ListOrganizationsForUser returns the live organizations the user belongs to.
func (s *OrganizationService) ListOrganizationsForUser(userID string) ([]models.OrganizationMember, error) {
	memberships, err := s.orgRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return memberships, nil
}

// GetOrganizationWithMembers returns an organization and all of its members.
func (s *OrganizationService) GetOrganizationWithMembers(orgID string) (*models.Organization, []models.OrganizationMember, error) {
	org, err := s.findOrganization(orgID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.orgRepo.ListMembers(orgID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list organization members: %w", err)
	}

	return org, members, nil
}

// UpdateOrganizationName updates an organization's name.
func (s *OrganizationService) UpdateOrganizationName(orgID string, name string) (*models.Organization, error) {
	name, err := validateOrganizationName(name)
	if err != nil {
		return nil, err
	}

	org, err := s.findOrganization(orgID)
	if err != nil {
		return nil, err
	}

	org.Name = name
	if err := s.orgRepo.Update(org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	return org, nil
}

// DeleteOrganization soft-deletes an organization. It stays restorable for
// the recovery window and its projects and tasks are left untouched.
func (s *OrganizationService) DeleteOrganization(orgID, actorID string) (time.Time, error) {
	if _, err := s.findOrganization(orgID); err != nil {
		return time.Time{}, err
	}

	expiresAt, err := s.recovery.SoftDelete(models.ItemTypeOrganization, orgID, actorID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return time.Time{}, ErrOrganizationNotFound
		}
		return time.Time{}, err
	}
	return expiresAt, nil
}

// JoinOrganizationByInvite adds a user to an organization via invite code.
func (s *OrganizationService) JoinOrganizationByInvite(userID string, inviteCode string) (*models.Organization, error) {
	code := utils.NormalizeInviteCode(inviteCode)
	if code == "" {
		return nil, ErrInvalidInviteCode
	}

	org, err := s.orgRepo.FindByInviteCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, fmt.Errorf("failed to find organization by invite code: %w", err)
	}

	if _, err := s.orgRepo.FindMember(org.ID, userID); err == nil {
		return nil, ErrAlreadyOrganizationMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         userID,
		Role:           models.RoleMember,
		JoinedAt:       time.Now(),
	}

	if err := s.orgRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member to organization: %w", err)
	}

	return org, nil
}

// RegenerateInviteCode generates a new invite code for the organization.
func (s *OrganizationService) RegenerateInviteCode(orgID string) (*models.Organization, error) {
	org, err := s.findOrganization(orgID)
	if err != nil {
		return nil, err
	}

	code, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	org.InviteCode = code
	if err := s.orgRepo.Update(org); err != nil {
		return nil, fmt.Errorf("failed to update invite code: %w", err)
	}

	return org, nil
}

// RemoveMember removes a member from the organization. Admins may only
// remove plain members; the owner cannot be removed.
func (s *OrganizationService) RemoveMember(orgID, actorID, targetID string) error {
	if targetID == actorID {
		return ErrCannotRemoveYourself
	}

	actor, err := s.findMember(orgID, actorID)
	if err != nil {
		return err
	}
	if !actor.Role.CanManage() {
		return ErrInsufficientRole
	}

	target, err := s.findMember(orgID, targetID)
	if err != nil {
		return err
	}
	if target.Role == models.RoleOwner {
		return ErrCannotRemoveOwner
	}
	if actor.Role == models.RoleAdmin && target.Role != models.RoleMember {
		return ErrInsufficientRole
	}

	if err := s.orgRepo.RemoveMember(orgID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

// UpdateMemberRole promotes or demotes a member. Only the owner may do this.
func (s *OrganizationService) UpdateMemberRole(orgID, actorID, targetID string, role models.OrganizationRole) (*models.OrganizationMember, error) {
	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, ErrInvalidRole
	}
	if targetID == actorID {
		return nil, ErrCannotChangeOwnRole
	}

	actor, err := s.findMember(orgID, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleOwner {
		return nil, ErrNotOrganizationOwner
	}

	target, err := s.findMember(orgID, targetID)
	if err != nil {
		return nil, err
	}
	if target.Role == models.RoleOwner {
		return nil, ErrCannotChangeOwnerRole
	}

	if err := s.orgRepo.UpdateMemberRole(orgID, targetID, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationMemberNotFound
		}
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}

	target.Role = role
	return target, nil
}

func (s *OrganizationService) findOrganization(orgID string) (*models.Organization, error) {
	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}

func (s *OrganizationService) findMember(orgID, userID string) (*models.OrganizationMember, error) {
	member, err := s.orgRepo.FindMember(orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationMemberNotFound
		}
		return nil, fmt.Errorf("failed to find organization member: %w", err)
	}
	return member, nil
}
