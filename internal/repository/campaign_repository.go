package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scolaris/recouvrement-api/internal/models"
)

// CampaignRepository persists notification campaigns and recipient rows.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository constructs the repository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// CreateWithRecipients inserts the campaign row and one PENDING recipient
// row per student inside a single transaction. Any failure rolls the whole
// creation back, so no partial campaigns exist.
func (r *CampaignRepository) CreateWithRecipients(ctx context.Context, campaign *models.Campaign, studentIDs []string) error {
	if campaign.ID == "" {
		campaign.ID = uuid.NewString()
	}
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin campaign tx: %w", err)
	}

	const campaignQuery = `INSERT INTO campaigns (id, channel, subject, template, group_name, created_by, created_at)
        VALUES (:id, :channel, :subject, :template, :group_name, :created_by, :created_at)`
	if _, err := tx.NamedExecContext(ctx, campaignQuery, campaign); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert campaign: %w", err)
	}

	const recipientQuery = `INSERT INTO campaign_recipients (id, campaign_id, student_id, status, sent_at)
        VALUES (:id, :campaign_id, :student_id, :status, :sent_at)`
	for _, studentID := range studentIDs {
		recipient := models.CampaignRecipient{
			ID:         uuid.NewString(),
			CampaignID: campaign.ID,
			StudentID:  studentID,
			Status:     models.DeliveryPending,
		}
		if _, err := tx.NamedExecContext(ctx, recipientQuery, recipient); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert campaign recipient: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit campaign tx: %w", err)
	}
	return nil
}

// FindByID returns a campaign by its ID.
func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*models.Campaign, error) {
	const query = `SELECT id, channel, subject, template, group_name, created_by, created_at FROM campaigns WHERE id = $1`
	var campaign models.Campaign
	if err := r.db.GetContext(ctx, &campaign, query, id); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// List returns campaigns filtered by the provided criteria.
func (r *CampaignRepository) List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, int, error) {
	base := "FROM campaigns"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Channel != "" {
		where = append(where, fmt.Sprintf("channel = $%d", len(args)+1))
		args = append(args, filter.Channel)
	}
	if filter.GroupName != "" {
		where = append(where, fmt.Sprintf("group_name = $%d", len(args)+1))
		args = append(args, filter.GroupName)
	}
	whereClause := strings.Join(where, " AND ")
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, channel, subject, template, group_name, created_by, created_at
        %s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var campaigns []models.Campaign
	if err := r.db.SelectContext(ctx, &campaigns, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}
	return campaigns, total, nil
}

// FindRecipient returns the recipient row for a (campaign, student) pair.
func (r *CampaignRepository) FindRecipient(ctx context.Context, campaignID, studentID string) (*models.CampaignRecipient, error) {
	const query = `SELECT id, campaign_id, student_id, status, sent_at
        FROM campaign_recipients WHERE campaign_id = $1 AND student_id = $2`
	var recipient models.CampaignRecipient
	if err := r.db.GetContext(ctx, &recipient, query, campaignID, studentID); err != nil {
		return nil, err
	}
	return &recipient, nil
}

// ListRecipients returns all recipient rows of a campaign.
func (r *CampaignRepository) ListRecipients(ctx context.Context, campaignID string) ([]models.CampaignRecipient, error) {
	const query = `SELECT id, campaign_id, student_id, status, sent_at
        FROM campaign_recipients WHERE campaign_id = $1 ORDER BY student_id ASC`
	var recipients []models.CampaignRecipient
	if err := r.db.SelectContext(ctx, &recipients, query, campaignID); err != nil {
		return nil, fmt.Errorf("list campaign recipients: %w", err)
	}
	return recipients, nil
}

// UpdateRecipientStatus records the terminal delivery state of a recipient.
func (r *CampaignRepository) UpdateRecipientStatus(ctx context.Context, recipientID string, status models.DeliveryStatus, sentAt *time.Time) error {
	const query = `UPDATE campaign_recipients SET status = $2, sent_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, recipientID, status, sentAt); err != nil {
		return fmt.Errorf("update recipient status: %w", err)
	}
	return nil
}

// Progress aggregates delivery counts for a campaign.
func (r *CampaignRepository) Progress(ctx context.Context, campaignID string) (*models.CampaignProgress, error) {
	const query = `SELECT COUNT(*) AS total,
        COALESCE(SUM(CASE WHEN status = 'PENDING' THEN 1 ELSE 0 END), 0) AS pending,
        COALESCE(SUM(CASE WHEN status = 'SENT' THEN 1 ELSE 0 END), 0) AS sent,
        COALESCE(SUM(CASE WHEN status = 'FAILED' THEN 1 ELSE 0 END), 0) AS failed
        FROM campaign_recipients WHERE campaign_id = $1`
	var progress models.CampaignProgress
	progress.CampaignID = campaignID
	if err := r.db.QueryRowxContext(ctx, query, campaignID).Scan(&progress.Total, &progress.Pending, &progress.Sent, &progress.Failed); err != nil {
		return nil, fmt.Errorf("campaign progress: %w", err)
	}
	if progress.Total > 0 {
		progress.SentRatio = float64(progress.Sent) / float64(progress.Total)
	}
	return &progress, nil
}
