package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"room-booking/config"
	"room-booking/internal/dto"
	"room-booking/internal/model"
	"room-booking/internal/repository"
	"room-booking/internal/scheduling"
)

// ── 导出模块业务错误 ──

var (
	ErrExportRangeInvalid = errors.New("导出日期范围无效")
	ErrExportNoBookings   = errors.New("该时间范围内没有预约")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// exportMaxDays 单次导出允许的最大天数
const exportMaxDays = 366

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
// 两个 Sheet：预约明细（按日期、开始时间排序）与教室汇总（按状态计数）。
type ExportService interface {
	ExportBookings(ctx context.Context, req *dto.ExportBookingsRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, loc: cfg.Booking.Location(), logger: logger}
}

var statusLabels = map[string]string{
	model.BookingStatusPending:   "待审批",
	model.BookingStatusApproved:  "已通过",
	model.BookingStatusCancelled: "已取消",
}

// ═══════════════════════════════════════════════════════════
// ExportBookings 导出预约报表为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportBookings(ctx context.Context, req *dto.ExportBookingsRequest) (*bytes.Buffer, string, error) {
	// 1. 校验日期范围
	from, err := scheduling.ParseDate(req.From, s.loc)
	if err != nil {
		return nil, "", ErrExportRangeInvalid
	}
	to, err := scheduling.ParseDate(req.To, s.loc)
	if err != nil || to.Before(from) || scheduling.DaysBetween(from, to) >= exportMaxDays {
		return nil, "", ErrExportRangeInvalid
	}

	// 2. 查询预约
	bookings, err := s.repo.Booking.ListBetween(ctx, from, to)
	if err != nil {
		s.logger.Error("查询导出预约失败", zap.Error(err))
		return nil, "", err
	}
	if len(bookings) == 0 {
		return nil, "", ErrExportNoBookings
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	if err := s.writeDetailSheet(f, bookings, headerStyle); err != nil {
		s.logger.Error("写入预约明细失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	if err := s.writeSummarySheet(f, bookings, headerStyle); err != nil {
		s.logger.Error("写入教室汇总失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	// 删除默认 Sheet1
	_ = f.DeleteSheet("Sheet1")

	// 4. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("bookings_%s_%s.xlsx", from.Format(dateLayout), to.Format(dateLayout))
	return buf, filename, nil
}

func (s *exportService) writeDetailSheet(f *excelize.File, bookings []model.Booking, headerStyle int) error {
	const sheet = "预约明细"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	headers := []string{"日期", "开始", "结束", "时长(分钟)", "教室", "预约人", "学号", "课程", "教师", "主题", "状态"}
	for i, h := range headers {
		_ = f.SetCellValue(sheet, cell(colName(i), 1), h)
	}
	_ = f.SetCellStyle(sheet, "A1", cell(colName(len(headers)-1), 1), headerStyle)
	_ = f.SetColWidth(sheet, "A", "A", 12)
	_ = f.SetColWidth(sheet, "E", "J", 18)

	for i := range bookings {
		b := &bookings[i]
		row := i + 2
		values := []interface{}{
			b.StartTime.In(s.loc).Format(dateLayout),
			b.StartTime.In(s.loc).Format(clockLayout),
			b.EndTime.In(s.loc).Format(clockLayout),
			b.DurationMinutes,
			"", "", "", "", "",
			deref(b.Subject),
			statusLabels[b.Status],
		}
		if b.Room != nil {
			values[4] = b.Room.Name
		}
		if b.Booker != nil {
			values[5] = b.Booker.Name
			values[6] = b.Booker.StudentID
		}
		if b.Course != nil {
			values[7] = b.Course.Code + " " + b.Course.Name
		}
		if b.Lecturer != nil {
			values[8] = b.Lecturer.Name
		}
		if err := f.SetSheetRow(sheet, cell("A", row), &values); err != nil {
			return err
		}
	}
	return nil
}

func (s *exportService) writeSummarySheet(f *excelize.File, bookings []model.Booking, headerStyle int) error {
	const sheet = "教室汇总"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	type roomStat struct {
		name    string
		counts  map[string]int
		minutes int
	}
	stats := make(map[string]*roomStat)
	for i := range bookings {
		b := &bookings[i]
		st, ok := stats[b.RoomID]
		if !ok {
			name := b.RoomID
			if b.Room != nil {
				name = b.Room.Name
			}
			st = &roomStat{name: name, counts: make(map[string]int)}
			stats[b.RoomID] = st
		}
		st.counts[b.Status]++
		if b.IsActive() {
			st.minutes += b.DurationMinutes
		}
	}

	rows := make([]*roomStat, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, st)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })

	headers := []interface{}{"教室", "待审批", "已通过", "已取消", "占用时长(小时)"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	_ = f.SetCellStyle(sheet, "A1", "E1", headerStyle)
	_ = f.SetColWidth(sheet, "A", "A", 20)

	for i, st := range rows {
		values := []interface{}{
			st.name,
			st.counts[model.BookingStatusPending],
			st.counts[model.BookingStatusApproved],
			st.counts[model.BookingStatusCancelled],
			float64(st.minutes) / 60,
		}
		if err := f.SetSheetRow(sheet, cell("A", i+2), &values); err != nil {
			return err
		}
	}
	return nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
