package dto

// ── 课表同步模块 DTO ──

// SyncRequest 按范围同步；student_id 与 course_id 至少一个
type SyncRequest struct {
	StudentID string `json:"student_id" binding:"omitempty,uuid"`
	CourseID  string `json:"course_id"  binding:"omitempty,uuid"`
}

// SyncResult 一次同步的汇总统计
type SyncResult struct {
	Created int `json:"created"` // 新写入的课表行
	Skipped int `json:"skipped"` // 已存在而跳过的课表行
	Removed int `json:"removed"` // 删除的多余课表行
	Errors  int `json:"errors"`  // 同步失败的选课对数量
	Pairs   int `json:"pairs"`   // 处理的选课对数量
}

// Add 累加另一次同步的统计
func (r *SyncResult) Add(other SyncResult) {
	r.Created += other.Created
	r.Skipped += other.Skipped
	r.Removed += other.Removed
	r.Errors += other.Errors
	r.Pairs += other.Pairs
}

// CleanupResult 孤儿记录统计 / 清理结果
type CleanupResult struct {
	Assignments int64 `json:"assignments"`
	Blocks      int64 `json:"blocks"`
	Enrollments int64 `json:"enrollments"`
}

// SyncStats 同步状态统计
type SyncStats struct {
	MissingPairs int64       `json:"missing_pairs"`
	SyncedPairs  int64       `json:"synced_pairs"`
	Totals       TableTotals `json:"totals"`
}

// TableTotals 各表总行数
type TableTotals struct {
	Students    int64 `json:"students"`
	Courses     int64 `json:"courses"`
	Blocks      int64 `json:"blocks"`
	Enrollments int64 `json:"enrollments"`
	Assignments int64 `json:"assignments"`
}
