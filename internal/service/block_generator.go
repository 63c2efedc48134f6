package service

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/SRCAndy/lucy-tejada/config"
	"github.com/SRCAndy/lucy-tejada/internal/model"
)

// ── 课时块生成 ──

var (
	ErrInvalidCredits = errors.New("学分必须为正整数")
)

// 每周可放置的起始时段：06:00 起每 2 小时一个，最后一个 18:00-20:00
const (
	firstSlotHour = 6
	slotCount     = 7
	blockHours    = 2
	weekdayCount  = 5
)

// BlockSpec 生成结果，尚未绑定课程
type BlockSpec struct {
	DayOfWeek int // 1=周一 … 5=周五
	StartTime datatypes.Time
	EndTime   datatypes.Time
}

// WeeklyHours 学分 → 每周学时
// 2→2、3→4、4→6 为固定映射，其余取 max(2, 学分×2)
func WeeklyHours(credits int) int {
	switch credits {
	case 2:
		return 2
	case 3:
		return 4
	case 4:
		return 6
	}
	if h := credits * 2; h > 2 {
		return h
	}
	return 2
}

// BlockCount 每周课时块数量 = ceil(学时 / 2)
func BlockCount(credits int) int {
	return (WeeklyHours(credits) + blockHours - 1) / blockHours
}

// SlotStart 第 slot 个时段的起始时间
func SlotStart(slot int) datatypes.Time {
	return datatypes.NewTime(firstSlotHour+slot*blockHours, 0, 0, 0)
}

// SlotPicker 决定第 i 个课时块落在哪个时段（0..6）
type SlotPicker interface {
	Pick(index int) int
}

// RandomSlotPicker 均匀随机选择时段，可通过种子复现
type RandomSlotPicker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomSlotPicker seed 为 0 时按当前时间取种子
func NewRandomSlotPicker(seed int64) *RandomSlotPicker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomSlotPicker{rnd: rand.New(rand.NewSource(seed))}
}

func (p *RandomSlotPicker) Pick(_ int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Intn(slotCount)
}

// SequentialSlotPicker 确定性放置：第 i 个块取 (offset+i) mod 7
type SequentialSlotPicker struct {
	Offset int
}

func (p SequentialSlotPicker) Pick(index int) int {
	return (p.Offset + index) % slotCount
}

// NewSlotPicker 按配置选择放置策略
func NewSlotPicker(cfg *config.ScheduleConfig) SlotPicker {
	if cfg != nil && cfg.Placement == config.PlacementSequential {
		return SequentialSlotPicker{Offset: cfg.SlotOffset}
	}
	var seed int64
	if cfg != nil {
		seed = cfg.Seed
	}
	return NewRandomSlotPicker(seed)
}

// BlockGenerator 按学分生成每周课时块，不做任何 I/O
// 不处理跨课程的时间冲突
type BlockGenerator struct {
	picker SlotPicker
}

// NewBlockGenerator 创建 BlockGenerator；picker 为 nil 时使用随机策略
func NewBlockGenerator(picker SlotPicker) *BlockGenerator {
	if picker == nil {
		picker = NewRandomSlotPicker(0)
	}
	return &BlockGenerator{picker: picker}
}

// Generate 生成课时块：第 i 块落在周 (i mod 5)+1，时长固定 2 小时
func (g *BlockGenerator) Generate(credits int) ([]BlockSpec, error) {
	if credits <= 0 {
		return nil, ErrInvalidCredits
	}

	n := BlockCount(credits)
	specs := make([]BlockSpec, 0, n)
	for i := 0; i < n; i++ {
		slot := g.picker.Pick(i) % slotCount
		if slot < 0 {
			slot += slotCount
		}
		start := SlotStart(slot)
		specs = append(specs, BlockSpec{
			DayOfWeek: i%weekdayCount + 1,
			StartTime: start,
			EndTime:   start + datatypes.Time(model.BlockDuration),
		})
	}
	return specs, nil
}

// ToModels 将生成结果绑定到课程与教师
func ToModels(specs []BlockSpec, courseID, teacherID string) []model.CourseBlock {
	blocks := make([]model.CourseBlock, 0, len(specs))
	for _, s := range specs {
		blocks = append(blocks, model.CourseBlock{
			CourseID:  courseID,
			TeacherID: teacherID,
			DayOfWeek: s.DayOfWeek,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
		})
	}
	return blocks
}
