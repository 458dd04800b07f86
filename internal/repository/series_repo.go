package repository

import (
	"context"

	"gorm.io/gorm"

	"room-booking/internal/model"
)

// SeriesRepository 批量预约记录数据访问接口
type SeriesRepository interface {
	Create(ctx context.Context, series *model.BookingSeries) error
	GetByID(ctx context.Context, id string) (*model.BookingSeries, error)
	UpdateCounts(ctx context.Context, id string, created, skipped int) error
}

type seriesRepo struct {
	db *gorm.DB
}

// NewSeriesRepo 创建 SeriesRepository 实例
func NewSeriesRepo(db *gorm.DB) SeriesRepository {
	return &seriesRepo{db: db}
}

func (r *seriesRepo) Create(ctx context.Context, series *model.BookingSeries) error {
	return r.db.WithContext(ctx).Create(series).Error
}

func (r *seriesRepo) GetByID(ctx context.Context, id string) (*model.BookingSeries, error) {
	var series model.BookingSeries
	err := r.db.WithContext(ctx).Where("series_id = ?", id).First(&series).Error
	if err != nil {
		return nil, err
	}
	return &series, nil
}

func (r *seriesRepo) UpdateCounts(ctx context.Context, id string, created, skipped int) error {
	return r.db.WithContext(ctx).
		Model(&model.BookingSeries{}).
		Where("series_id = ?", id).
		Updates(map[string]interface{}{
			"created_count": created,
			"skipped_count": skipped,
		}).Error
}
