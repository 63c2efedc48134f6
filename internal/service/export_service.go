package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ── 导出模块业务错误 ──

var (
	ErrExportEmpty        = errors.New("课表为空，无可导出内容")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// 默认导出周数
const defaultExportWeeks = 16

// ExportService 学生课表导出
//
// 设计说明：
//   - Excel：行为 7 个固定时段（06:00-20:00），列为周一 ~ 周五
//   - iCalendar：每个课时块一个按周重复的 VEVENT
//   - 导出内容来自 TimetableService，与接口返回的课表一致
type ExportService interface {
	ExportStudentExcel(ctx context.Context, studentID string) (*bytes.Buffer, string, error)
	ExportStudentICS(ctx context.Context, studentID string, weekStart time.Time, weeks int) ([]byte, string, error)
}

type exportService struct {
	timetable TimetableService
	logger    *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(timetable TimetableService, logger *zap.Logger) ExportService {
	return &exportService{timetable: timetable, logger: logger}
}

var dayNames = map[int]string{1: "周一", 2: "周二", 3: "周三", 4: "周四", 5: "周五"}

// ═══════════════════════════════════════════════════════════
// ExportStudentExcel: 导出学生课表为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportStudentExcel(ctx context.Context, studentID string) (*bytes.Buffer, string, error) {
	tt, err := s.timetable.StudentTimetable(ctx, studentID)
	if err != nil {
		return nil, "", err
	}
	if len(tt.Entries) == 0 {
		return nil, "", ErrExportEmpty
	}

	// "周几:起始时间" → 单元格文本；重叠的课时块写在同一格
	grid := make(map[string][]string)
	for _, e := range tt.Entries {
		key := fmt.Sprintf("%d:%s", e.DayOfWeek, e.StartTime)
		grid[key] = append(grid[key], fmt.Sprintf("%s (%s)", e.CourseName, e.CourseCode))
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "课表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, "B", "F", 26)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	bodyStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})

	// 表头
	f.SetCellValue(sheetName, "A1", "时间")
	for day := 1; day <= weekdayCount; day++ {
		f.SetCellValue(sheetName, cell(colName(day), 1), dayNames[day])
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(weekdayCount), 1), headerStyle)

	// 数据行：每个固定时段一行
	for slot := 0; slot < slotCount; slot++ {
		row := slot + 2
		start := SlotStart(slot)
		startText := clock(start)
		f.SetCellValue(sheetName, cell("A", row), fmt.Sprintf("%s-%s", startText, clock(SlotStart(slot+1))))
		for day := 1; day <= weekdayCount; day++ {
			text := "-"
			if names, ok := grid[fmt.Sprintf("%d:%s", day, startText)]; ok {
				text = strings.Join(names, "\n")
			}
			f.SetCellValue(sheetName, cell(colName(day), row), text)
		}
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(weekdayCount), slotCount+1), bodyStyle)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, fmt.Sprintf("timetable_%s.xlsx", studentID), nil
}

// ═══════════════════════════════════════════════════════════
// ExportStudentICS: 导出学生课表为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// weekStart 会被归一到所在周的周一；weeks <= 0 时取默认 16 周

func (s *exportService) ExportStudentICS(ctx context.Context, studentID string, weekStart time.Time, weeks int) ([]byte, string, error) {
	tt, err := s.timetable.StudentTimetable(ctx, studentID)
	if err != nil {
		return nil, "", err
	}
	if len(tt.Entries) == 0 {
		return nil, "", ErrExportEmpty
	}
	if weeks <= 0 {
		weeks = defaultExportWeeks
	}
	monday := MondayOf(weekStart)
	stamp := time.Now().UTC()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//lucy-tejada//timetable//ZH")
	cal.SetXWRCalName("课表")

	for _, e := range tt.Entries {
		start, err := entryTime(monday, e.DayOfWeek, e.StartTime)
		if err != nil {
			s.logger.Warn("课时块时间格式错误", zap.String("block_id", e.BlockID), zap.Error(err))
			continue
		}
		end, err := entryTime(monday, e.DayOfWeek, e.EndTime)
		if err != nil {
			s.logger.Warn("课时块时间格式错误", zap.String("block_id", e.BlockID), zap.Error(err))
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("%s-%s@lucy-tejada", studentID, e.BlockID))
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(e.CourseName)
		desc := e.CourseCode
		if e.TeacherName != "" {
			desc += " / " + e.TeacherName
		}
		event.SetDescription(desc)
		event.AddProperty(ics.ComponentPropertyRrule, fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", weeks))
	}

	return []byte(cal.Serialize()), fmt.Sprintf("timetable_%s.ics", studentID), nil
}

// MondayOf 返回 t 所在周周一 00:00（与 t 同时区）
func MondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// entryTime 周一 + (day-1) 天 + "15:04"
func entryTime(monday time.Time, day int, hhmm string) (time.Time, error) {
	tod, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return monday.AddDate(0, 0, day-1).
		Add(time.Duration(tod.Hour())*time.Hour + time.Duration(tod.Minute())*time.Minute), nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
