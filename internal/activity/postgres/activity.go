package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/backoffice-crm/backoffice-crm/internal"
	"github.com/backoffice-crm/backoffice-crm/internal/activity"
)

// ActivityRepository implements the activity.Repository interface using GORM
type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) activity.Repository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(a *activity.Activity) error {
	return r.db.Create(a).Error
}

func (r *ActivityRepository) GetByID(id int64) (*activity.Activity, error) {
	var a activity.Activity
	err := r.db.Where("id = ?", id).First(&a).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrActivityNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *ActivityRepository) GetAll(limit, offset int) ([]*activity.Activity, error) {
	var activities []*activity.Activity
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&activities).Error
	return activities, err
}

// GetByDepartment matches the stored department snapshot, never the
// owner's live department. Rows with no department are never returned.
func (r *ActivityRepository) GetByDepartment(department string, limit, offset int) ([]*activity.Activity, error) {
	var activities []*activity.Activity
	err := r.db.Where("department = ?", department).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&activities).Error
	return activities, err
}

func (r *ActivityRepository) GetByOwner(ownerID int64, limit, offset int) ([]*activity.Activity, error) {
	var activities []*activity.Activity
	err := r.db.Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&activities).Error
	return activities, err
}

func (r *ActivityRepository) Update(a *activity.Activity) error {
	a.UpdatedAt = time.Now()
	return r.db.Save(a).Error
}

func (r *ActivityRepository) Delete(id int64) error {
	return r.db.Delete(&activity.Activity{}, id).Error
}
