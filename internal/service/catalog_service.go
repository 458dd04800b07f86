package service

import (
	"context"

	"go.uber.org/zap"

	"room-booking/internal/dto"
	"room-booking/internal/repository"
)

// CatalogService 教师与课程的只读目录
type CatalogService interface {
	ListLecturers(ctx context.Context) ([]dto.LecturerResponse, error)
	ListCourses(ctx context.Context) ([]dto.CourseResponse, error)
}

type catalogService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCatalogService 创建 CatalogService 实例
func NewCatalogService(repo *repository.Repository, logger *zap.Logger) CatalogService {
	return &catalogService{repo: repo, logger: logger}
}

func (s *catalogService) ListLecturers(ctx context.Context) ([]dto.LecturerResponse, error) {
	lecturers, err := s.repo.Lecturer.List(ctx, false)
	if err != nil {
		s.logger.Error("列出教师失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.LecturerResponse, 0, len(lecturers))
	for _, l := range lecturers {
		result = append(result, dto.LecturerResponse{
			ID:         l.LecturerID,
			Name:       l.Name,
			Email:      l.Email,
			Department: l.Department,
		})
	}
	return result, nil
}

func (s *catalogService) ListCourses(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.repo.Course.List(ctx)
	if err != nil {
		s.logger.Error("列出课程失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for _, c := range courses {
		result = append(result, dto.CourseResponse{ID: c.CourseID, Code: c.Code, Name: c.Name})
	}
	return result, nil
}
