package implementation

import (
	"context"
	"errors"

	"identity-coach-be/internal/entity"
	"identity-coach-be/internal/mapper"
	"identity-coach-be/internal/model"
	"identity-coach-be/internal/repository/contract"
	"identity-coach-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IdentityRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CoachingMapper
}

func NewIdentityRepository(db *gorm.DB) contract.IdentityRepository {
	return &IdentityRepositoryImpl{
		db:     db,
		mapper: mapper.NewCoachingMapper(),
	}
}

func (r *IdentityRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *IdentityRepositoryImpl) Create(ctx context.Context, identity *entity.Identity) error {
	if identity.Id == uuid.Nil {
		identity.Id = uuid.New()
	}
	m := r.mapper.IdentityToModel(identity)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*identity = *r.mapper.IdentityToEntity(m)
	return nil
}

func (r *IdentityRepositoryImpl) Update(ctx context.Context, identity *entity.Identity) error {
	m := r.mapper.IdentityToModel(identity)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*identity = *r.mapper.IdentityToEntity(m)
	return nil
}

func (r *IdentityRepositoryImpl) Delete(ctx context.Context, userId, id uuid.UUID) error {
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.UserOwnedBy{UserID: userId},
		specification.ByID{ID: id},
	)
	return query.Delete(&model.Identity{}).Error
}

func (r *IdentityRepositoryImpl) DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&model.Identity{}).Error
}

func (r *IdentityRepositoryImpl) FindById(ctx context.Context, userId, id uuid.UUID) (*entity.Identity, error) {
	var m model.Identity
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.UserOwnedBy{UserID: userId},
		specification.ByID{ID: id},
	)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.IdentityToEntity(&m), nil
}

func (r *IdentityRepositoryImpl) FindAllByUserId(ctx context.Context, userId uuid.UUID) ([]*entity.Identity, error) {
	var models []*model.Identity
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: false},
		specification.OrderBy{Field: "id", Desc: false},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.IdentitiesToEntities(models), nil
}
