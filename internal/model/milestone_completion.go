package model

import "time"

// MilestoneCompletion 路线图里程碑/模块完成记录，同一 (user, roadmap, milestone) 只记一次
type MilestoneCompletion struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_milestone_user_item" json:"userId"`
	RoadmapID   string    `gorm:"size:100;not null;uniqueIndex:idx_milestone_user_item" json:"roadmapId"`
	MilestoneID string    `gorm:"size:100;not null;uniqueIndex:idx_milestone_user_item" json:"milestoneId"`
	CompletedAt time.Time `gorm:"not null" json:"completedAt"`
	CreditDate  string    `gorm:"size:10;not null" json:"creditDate"`
}

func (MilestoneCompletion) TableName() string {
	return "milestone_completions"
}
