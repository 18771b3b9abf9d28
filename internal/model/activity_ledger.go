package model

// ActivityLedgerEntry 每个用户每天一行的学习/刷题台账。
// 刷题字段保存本月截至当天的累计值，*_daily 字段保存当天的增量。
type ActivityLedgerEntry struct {
	DailyModel
	UserID                    uint   `gorm:"not null;uniqueIndex:idx_ledger_user_date" json:"userId"`
	Date                      string `gorm:"size:10;not null;uniqueIndex:idx_ledger_user_date" json:"date"`
	StudyMinutes              int    `gorm:"not null;default:0" json:"studyMinutes"`
	LeetCodeSolved            int    `gorm:"column:leetcode_solved;not null;default:0" json:"leetcodeSolved"`
	CodeChefSolved            int    `gorm:"column:codechef_solved;not null;default:0" json:"codechefSolved"`
	CodeforcesSolved          int    `gorm:"not null;default:0" json:"codeforcesSolved"`
	ContestsParticipated      int    `gorm:"not null;default:0" json:"contestsParticipated"`
	CareerMilestonesCompleted int    `gorm:"not null;default:0" json:"careerMilestonesCompleted"`
	TotalProblemsSolved       int    `gorm:"not null;default:0" json:"totalProblemsSolved"`
	LeetCodeDaily             int    `gorm:"column:leetcode_daily;not null;default:0" json:"leetcodeDaily"`
	CodeChefDaily             int    `gorm:"column:codechef_daily;not null;default:0" json:"codechefDaily"`
	CodeforcesDaily           int    `gorm:"not null;default:0" json:"codeforcesDaily"`
	ContestsDaily             int    `gorm:"not null;default:0" json:"contestsDaily"`
}

func (ActivityLedgerEntry) TableName() string {
	return "activity_ledger"
}
