package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scolaris/recouvrement-api/internal/models"
	appErrors "github.com/scolaris/recouvrement-api/pkg/errors"
)

type campaignRepository interface {
	CreateWithRecipients(ctx context.Context, campaign *models.Campaign, studentIDs []string) error
	FindByID(ctx context.Context, id string) (*models.Campaign, error)
	List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, int, error)
	FindRecipient(ctx context.Context, campaignID, studentID string) (*models.CampaignRecipient, error)
	ListRecipients(ctx context.Context, campaignID string) ([]models.CampaignRecipient, error)
	UpdateRecipientStatus(ctx context.Context, recipientID string, status models.DeliveryStatus, sentAt *time.Time) error
	Progress(ctx context.Context, campaignID string) (*models.CampaignProgress, error)
}

type campaignStudentValidator interface {
	ValidateIDs(ctx context.Context, studentIDs []string) (map[string]bool, error)
}

type campaignCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// Placeholders the delivery collaborator knows how to resolve. Anything
// else is left unresolved in the stored template and reported as a warning.
var allowedPlaceholders = map[string]struct{}{
	"student-name": {},
	"parent-name":  {},
	"debt-amount":  {},
	"class-name":   {},
	"phone":        {},
}

var placeholderPattern = regexp.MustCompile(`\{([a-z][a-z0-9-]*)\}`)

// CampaignService creates notification campaigns and tracks per-recipient
// delivery state. The actual gateway delivery is an external collaborator;
// this service only materialises the rows it works from.
type CampaignService struct {
	repo          campaignRepository
	students      campaignStudentValidator
	cache         campaignCacheInvalidator
	validator     *validator.Validate
	logger        *zap.Logger
	maxRecipients int
}

// NewCampaignService constructs the service.
func NewCampaignService(repo campaignRepository, students campaignStudentValidator, cache campaignCacheInvalidator, validate *validator.Validate, logger *zap.Logger, maxRecipients int) *CampaignService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRecipients <= 0 {
		maxRecipients = 2000
	}
	svc := &CampaignService{repo: repo, students: students, cache: cache, validator: validate, logger: logger, maxRecipients: maxRecipients}
	svc.validator.RegisterValidation("campaign_channel", func(fl validator.FieldLevel) bool {
		return models.ValidCampaignChannel(models.CampaignChannel(fl.Field().String()))
	})
	return svc
}

// CreateCampaignRequest describes the creation payload.
type CreateCampaignRequest struct {
	Channel             string   `json:"channel" validate:"required,campaign_channel"`
	Subject             string   `json:"subject" validate:"required"`
	Template            string   `json:"template" validate:"required"`
	GroupName           string   `json:"group_name"`
	RecipientStudentIDs []string `json:"recipient_student_ids"`
	CreatedBy           string   `json:"created_by" validate:"required"`
}

// CampaignDetail is returned on creation and lookups.
type CampaignDetail struct {
	models.Campaign
	RecipientCount int      `json:"recipient_count"`
	Warnings       []string `json:"warnings,omitempty"`
}

// CreateCampaign atomically persists the campaign and its pending recipient
// rows. An empty recipient list or any unknown student id fails the whole
// creation; nothing is persisted.
func (s *CampaignService) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*CampaignDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campaign payload")
	}
	if len(req.RecipientStudentIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyRecipientList, "")
	}
	if len(req.RecipientStudentIDs) > s.maxRecipients {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("campaign exceeds the %d recipient limit", s.maxRecipients))
	}

	seen := make(map[string]struct{}, len(req.RecipientStudentIDs))
	recipients := make([]string, 0, len(req.RecipientStudentIDs))
	for _, id := range req.RecipientStudentIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}

	existing, err := s.students.ValidateIDs(ctx, recipients)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate recipients")
	}
	for _, id := range recipients {
		if !existing[id] {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown recipient student "+id)
		}
	}

	warnings := templateWarnings(req.Template)

	var groupName *string
	if req.GroupName != "" {
		groupName = &req.GroupName
	}
	campaign := &models.Campaign{
		Channel:   models.CampaignChannel(req.Channel),
		Subject:   req.Subject,
		Template:  req.Template,
		GroupName: groupName,
		CreatedBy: req.CreatedBy,
	}

	if err := s.repo.CreateWithRecipients(ctx, campaign, recipients); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create campaign")
	}

	s.invalidateSummaries(ctx)
	s.logger.Info("campaign created",
		zap.String("campaign_id", campaign.ID),
		zap.String("channel", req.Channel),
		zap.Int("recipients", len(recipients)))

	return &CampaignDetail{Campaign: *campaign, RecipientCount: len(recipients), Warnings: warnings}, nil
}

// templateWarnings reports placeholder tokens outside the allowed set.
func templateWarnings(template string) []string {
	var warnings []string
	reported := map[string]struct{}{}
	for _, match := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		token := match[1]
		if _, ok := allowedPlaceholders[token]; ok {
			continue
		}
		if _, dup := reported[token]; dup {
			continue
		}
		reported[token] = struct{}{}
		warnings = append(warnings, fmt.Sprintf("placeholder {%s} is not recognised and will be left unresolved", token))
	}
	return warnings
}

// Get returns a campaign with its recipient count.
func (s *CampaignService) Get(ctx context.Context, id string) (*CampaignDetail, error) {
	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch campaign")
	}
	recipients, err := s.repo.ListRecipients(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recipients")
	}
	return &CampaignDetail{Campaign: *campaign, RecipientCount: len(recipients)}, nil
}

// List returns campaigns with pagination.
func (s *CampaignService) List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	campaigns, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campaigns")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return campaigns, pagination, nil
}

// Recipients returns all recipient rows of a campaign.
func (s *CampaignService) Recipients(ctx context.Context, campaignID string) ([]models.CampaignRecipient, error) {
	if _, err := s.repo.FindByID(ctx, campaignID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch campaign")
	}
	recipients, err := s.repo.ListRecipients(ctx, campaignID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recipients")
	}
	return recipients, nil
}

// MarkSent records a successful delivery. Repeating it on an already SENT
// recipient is an idempotent no-op; a FAILED recipient cannot become SENT.
func (s *CampaignService) MarkSent(ctx context.Context, campaignID, studentID string) error {
	return s.transition(ctx, campaignID, studentID, models.DeliverySent)
}

// MarkFailed records a delivery failure. Terminal; never retried here.
func (s *CampaignService) MarkFailed(ctx context.Context, campaignID, studentID string) error {
	return s.transition(ctx, campaignID, studentID, models.DeliveryFailed)
}

func (s *CampaignService) transition(ctx context.Context, campaignID, studentID string, target models.DeliveryStatus) error {
	recipient, err := s.repo.FindRecipient(ctx, campaignID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "campaign recipient not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch recipient")
	}

	if recipient.Status == target {
		// Terminal state already reached; repeating the transition is a no-op
		// so delivery-progress percentages never double count.
		return nil
	}
	if recipient.Status != models.DeliveryPending {
		return appErrors.Clone(appErrors.ErrInvalidStateTransition,
			fmt.Sprintf("recipient is %s, cannot become %s", recipient.Status, target))
	}

	var sentAt *time.Time
	if target == models.DeliverySent {
		now := time.Now().UTC()
		sentAt = &now
	}
	if err := s.repo.UpdateRecipientStatus(ctx, recipient.ID, target, sentAt); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update recipient status")
	}
	s.invalidateSummaries(ctx)
	return nil
}

// Progress returns delivery counts for a campaign.
func (s *CampaignService) Progress(ctx context.Context, campaignID string) (*models.CampaignProgress, error) {
	if _, err := s.repo.FindByID(ctx, campaignID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch campaign")
	}
	progress, err := s.repo.Progress(ctx, campaignID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate progress")
	}
	return progress, nil
}

func (s *CampaignService) invalidateSummaries(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "summary:*"); err != nil {
		s.logger.Warn("failed to invalidate summary cache", zap.Error(err))
	}
}
