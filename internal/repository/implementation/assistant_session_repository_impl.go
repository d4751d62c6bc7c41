package implementation

import (
	"context"
	"errors"
	"time"

	"watchfolio-be/internal/entity"
	"watchfolio-be/internal/mapper"
	"watchfolio-be/internal/model"
	"watchfolio-be/internal/repository/contract"
	"watchfolio-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssistantSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AssistantMapper
}

func NewAssistantSessionRepository(db *gorm.DB) contract.AssistantSessionRepository {
	return &AssistantSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewAssistantMapper(),
	}
}

func (r *AssistantSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// Upsert writes the full session snapshot. Session identities are minted
// client-side by the controller, so a write is an insert on first save and
// an overwrite on every save after that.
func (r *AssistantSessionRepositoryImpl) Upsert(ctx context.Context, session *entity.AssistantSession) error {
	m, err := r.mapper.SessionToModel(session)
	if err != nil {
		return err
	}
	m.UpdatedAt = time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = m.UpdatedAt
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"mode", "title", "messages", "results", "metadata", "updated_at",
		}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	updated, err := r.mapper.SessionToEntity(m)
	if err != nil {
		return err
	}
	*session = *updated
	return nil
}

func (r *AssistantSessionRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.AssistantSession{}).Error
}

func (r *AssistantSessionRepositoryImpl) DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Where("user_id = ?", userId).Delete(&model.AssistantSession{}).Error
}

func (r *AssistantSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AssistantSession, error) {
	var m model.AssistantSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m)
}

func (r *AssistantSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AssistantSession, error) {
	var models []*model.AssistantSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.AssistantSession, 0, len(models))
	for _, m := range models {
		e, err := r.mapper.SessionToEntity(m)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func (r *AssistantSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.AssistantSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
