package services

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/taskflow-ai/taskflow-api/internal/constants"
	"github.com/taskflow-ai/taskflow-api/internal/metrics"
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"github.com/taskflow-ai/taskflow-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrUserIDRequired         = errors.New("user id is required")
	ErrItemIDRequired         = errors.New("item id is required")
	ErrInvalidItemType        = errors.New("item type must be task, project or organization")
	ErrItemNotFound           = errors.New("item not found")
	ErrItemNotDeleted         = errors.New("item is not deleted")
	ErrRecoveryExpired        = errors.New("recovery window has expired")
	ErrPurgeNotPermitted      = errors.New("user does not have permission to permanently delete this item")
	ErrOrganizationIDRequired = errors.New("organization id is required")
	ErrNotOrganizationOwner   = errors.New("only the organization owner can perform this action")
)

// ItemRef identifies a recoverable record. An empty Type means the id is
// looked up in tasks, then projects, then organizations.
type ItemRef struct {
	Type models.ItemType
	ID   string
}

// RecoveryService owns the soft-delete lifecycle of tasks, projects and
// organizations: deleting, listing, restoring within the recovery window,
// and permanent purge.
type RecoveryService struct {
	recoveryRepo repository.RecoveryRepository
	orgRepo      repository.OrganizationRepository
	metrics      *metrics.Metrics
	logger       *slog.Logger
	now          func() time.Time
	window       time.Duration
}

// RecoveryOption configures a RecoveryService.
type RecoveryOption func(*RecoveryService)

// WithClock replaces the wall clock. Returned times are converted to UTC.
func WithClock(now func() time.Time) RecoveryOption {
	return func(s *RecoveryService) { s.now = now }
}

func WithRecoveryMetrics(m *metrics.Metrics) RecoveryOption {
	return func(s *RecoveryService) { s.metrics = m }
}

func WithRecoveryLogger(l *slog.Logger) RecoveryOption {
	return func(s *RecoveryService) { s.logger = l }
}

// NewRecoveryService creates a new RecoveryService
func NewRecoveryService(recoveryRepo repository.RecoveryRepository, orgRepo repository.OrganizationRepository, opts ...RecoveryOption) *RecoveryService {
	s := &RecoveryService{
		recoveryRepo: recoveryRepo,
		orgRepo:      orgRepo,
		logger:       slog.Default(),
		now:          time.Now,
		window:       constants.RecoveryWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RecoveryService) clock() time.Time {
	return s.now().UTC()
}

// ParseItemType accepts the wire form of an item type. An empty string is
// allowed and means "scan all types".
func ParseItemType(raw string) (models.ItemType, error) {
	t := models.ItemType(strings.ToLower(strings.TrimSpace(raw)))
	if t == "" || t.Valid() {
		return t, nil
	}
	return "", ErrInvalidItemType
}

// SoftDelete flags a live record as deleted by actorID. The caller is
// responsible for checking that the actor may delete it. The returned time
// is when the record stops being restorable.
func (s *RecoveryService) SoftDelete(itemType models.ItemType, id, actorID string) (time.Time, error) {
	if id == "" {
		return time.Time{}, ErrItemIDRequired
	}
	if !itemType.Valid() {
		return time.Time{}, ErrInvalidItemType
	}

	deletedAt := s.clock()
	expiresAt := deletedAt.Add(s.window)

	if err := s.recoveryRepo.SoftDelete(itemType, id, actorID, deletedAt, expiresAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, ErrItemNotFound
		}
		return time.Time{}, fmt.Errorf("failed to soft delete %s: %w", itemType, err)
	}

	s.metrics.RecordRecovery("soft_delete", string(itemType))
	s.logger.Info("item soft-deleted",
		"item_type", itemType,
		"item_id", id,
		"actor_id", actorID,
		"expires_at", expiresAt,
	)
	return expiresAt, nil
}

// ListDeleted returns the restorable records the actor can see, newest
// deletion first. organizationScope narrows the listing to one organization.
func (s *RecoveryService) ListDeleted(actorID string, organizationScope *string) ([]repository.RecoveryRecord, error) {
	if actorID == "" {
		return nil, ErrUserIDRequired
	}

	orgIDs, err := s.orgRepo.ListOrganizationIDsByUserID(actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organization memberships: %w", err)
	}

	filter := repository.DeletedItemFilter{
		ActorID:           actorID,
		OrganizationIDs:   orgIDs,
		OrganizationScope: organizationScope,
		Now:               s.clock(),
	}

	items := []repository.RecoveryRecord{}
	for _, itemType := range models.RecoverableItemTypes {
		records, err := s.recoveryRepo.ListDeleted(itemType, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list deleted %ss: %w", itemType, err)
		}
		items = append(items, records...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].DeletedAt, items[j].DeletedAt
		if !a.Equal(*b) {
			return a.After(*b)
		}
		return items[i].ID > items[j].ID
	})

	return items, nil
}

// Restore clears the deletion fields of a record the actor can see, provided
// its recovery window is still open.
func (s *RecoveryService) Restore(ref ItemRef, actorID string) (*repository.RecoveryRecord, error) {
	record, err := s.resolveVisible(ref, actorID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if err := checkRestorable(record, now); err != nil {
		return nil, err
	}

	if err := s.recoveryRepo.Restore(record.Type, record.ID, now); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to restore %s: %w", record.Type, err)
		}
		// Lost a race with another restore, a purge or the sweeper.
		current, findErr := s.recoveryRepo.FindItem(record.Type, record.ID)
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		if findErr != nil {
			return nil, fmt.Errorf("failed to find %s: %w", record.Type, findErr)
		}
		if checkErr := checkRestorable(current, now); checkErr != nil {
			return nil, checkErr
		}
		return nil, ErrItemNotFound
	}

	s.metrics.RecordRecovery("restore", string(record.Type))
	s.logger.Info("item restored",
		"item_type", record.Type,
		"item_id", record.ID,
		"actor_id", actorID,
	)

	record.DeletedAt = nil
	record.ExpiresAt = nil
	record.DeletedBy = nil
	return record, nil
}

// Purge permanently removes a record the actor can see, whether or not it is
// soft-deleted. Organizations can only be purged by their owner and go
// through the full cascade.
func (s *RecoveryService) Purge(ref ItemRef, actorID string) (*repository.RecoveryRecord, error) {
	record, err := s.resolveVisible(ref, actorID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureCanPurge(record, actorID); err != nil {
		return nil, err
	}

	if err := s.recoveryRepo.Purge(record.Type, record.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to purge %s: %w", record.Type, err)
	}

	s.metrics.RecordRecovery("purge", string(record.Type))
	s.logger.Warn("item permanently deleted",
		"item_type", record.Type,
		"item_id", record.ID,
		"actor_id", actorID,
	)
	return record, nil
}

// PurgeOrganization permanently deletes an organization with all of its
// projects, their tasks and columns, and its member roles. Only an owner may
// do this; the organization may be live or soft-deleted.
func (s *RecoveryService) PurgeOrganization(organizationID, actorID string) error {
	if organizationID == "" {
		return ErrOrganizationIDRequired
	}

	if _, err := s.orgRepo.FindByIDIncludingDeleted(organizationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to find organization: %w", err)
	}

	member, err := s.orgRepo.FindMember(organizationID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to verify organization membership: %w", err)
	}
	if member.Role != models.RoleOwner {
		return ErrNotOrganizationOwner
	}

	if err := s.orgRepo.PurgeCascade(organizationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationNotFound
		}
		s.logger.Error("organization purge failed",
			"organization_id", organizationID,
			"actor_id", actorID,
			"error", err,
		)
		return fmt.Errorf("failed to purge organization: %w", err)
	}

	s.metrics.RecordRecovery("purge", string(models.ItemTypeOrganization))
	s.logger.Warn("organization permanently deleted",
		"organization_id", organizationID,
		"actor_id", actorID,
	)
	return nil
}

// resolveVisible finds the record behind ref and hides it from actors who
// could not otherwise see it.
func (s *RecoveryService) resolveVisible(ref ItemRef, actorID string) (*repository.RecoveryRecord, error) {
	if ref.ID == "" {
		return nil, ErrItemIDRequired
	}
	if ref.Type != "" && !ref.Type.Valid() {
		return nil, ErrInvalidItemType
	}

	record, err := s.find(ref)
	if err != nil {
		return nil, err
	}

	orgIDs, err := s.orgRepo.ListOrganizationIDsByUserID(actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organization memberships: %w", err)
	}

	if !visibleTo(record, actorID, orgIDs) {
		return nil, ErrItemNotFound
	}
	return record, nil
}

func (s *RecoveryService) find(ref ItemRef) (*repository.RecoveryRecord, error) {
	types := models.RecoverableItemTypes
	if ref.Type != "" {
		types = []models.ItemType{ref.Type}
	}

	for _, itemType := range types {
		record, err := s.recoveryRepo.FindItem(itemType, ref.ID)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to find %s: %w", itemType, err)
		}
	}
	return nil, ErrItemNotFound
}

func (s *RecoveryService) ensureCanPurge(record *repository.RecoveryRecord, actorID string) error {
	if record.Type != models.ItemTypeOrganization {
		if record.OwnerID == actorID || deletedBy(record, actorID) {
			return nil
		}
	}

	member, err := s.orgRepo.FindMember(record.OrganizationID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPurgeNotPermitted
		}
		return fmt.Errorf("failed to verify organization membership: %w", err)
	}

	if record.Type == models.ItemTypeOrganization {
		if member.Role != models.RoleOwner {
			return ErrNotOrganizationOwner
		}
		return nil
	}
	if !member.Role.CanManage() {
		return ErrPurgeNotPermitted
	}
	return nil
}

func checkRestorable(record *repository.RecoveryRecord, now time.Time) error {
	if record.DeletedAt == nil {
		return ErrItemNotDeleted
	}
	if record.ExpiresAt == nil || !now.Before(*record.ExpiresAt) {
		return ErrRecoveryExpired
	}
	return nil
}

func visibleTo(record *repository.RecoveryRecord, actorID string, orgIDs []string) bool {
	if deletedBy(record, actorID) {
		return true
	}
	if record.Type != models.ItemTypeOrganization && record.OwnerID == actorID {
		return true
	}
	return slices.Contains(orgIDs, record.OrganizationID)
}

func deletedBy(record *repository.RecoveryRecord, actorID string) bool {
	return record.DeletedBy != nil && *record.DeletedBy == actorID
}
