package model

// PlatformSnapshot 某用户某天各平台的累计计数（绝对值，不是增量）
type PlatformSnapshot struct {
	DailyModel
	UserID                 uint   `gorm:"not null;uniqueIndex:idx_snapshot_user_date" json:"userId"`
	Date                   string `gorm:"size:10;not null;uniqueIndex:idx_snapshot_user_date" json:"date"`
	LeetCodeTotal          int    `gorm:"column:leetcode_total;not null;default:0" json:"leetcodeTotal"`
	CodeChefTotal          int    `gorm:"column:codechef_total;not null;default:0" json:"codechefTotal"`
	CodeforcesTotal        int    `gorm:"not null;default:0" json:"codeforcesTotal"`
	CodeforcesContestTotal int    `gorm:"not null;default:0" json:"codeforcesContestTotal"`
	CodeChefContestTotal   int    `gorm:"column:codechef_contest_total;not null;default:0" json:"codechefContestTotal"`
}

func (PlatformSnapshot) TableName() string {
	return "platform_snapshots"
}
