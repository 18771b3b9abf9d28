package model

// StreakRecord 截至某天的各类连续天数，由台账推导，不可单独编辑
type StreakRecord struct {
	DailyModel
	UserID           uint   `gorm:"not null;uniqueIndex:idx_streak_user_date" json:"userId"`
	Date             string `gorm:"size:10;not null;uniqueIndex:idx_streak_user_date" json:"date"`
	LeetCodeStreak   int    `gorm:"column:leetcode_streak;not null;default:0" json:"leetcodeStreak"`
	CodeChefStreak   int    `gorm:"column:codechef_streak;not null;default:0" json:"codechefStreak"`
	CodeforcesStreak int    `gorm:"not null;default:0" json:"codeforcesStreak"`
	CodingStreak     int    `gorm:"not null;default:0" json:"codingStreak"`
	CareerStreak     int    `gorm:"not null;default:0" json:"careerStreak"`
	StudyStreak      int    `gorm:"not null;default:0" json:"studyStreak"`
	OverallStreak    int    `gorm:"not null;default:0" json:"overallStreak"`

	HadLeetCodeActivity   bool `gorm:"column:had_leetcode_activity;not null;default:false" json:"hadLeetcodeActivity"`
	HadCodeChefActivity   bool `gorm:"column:had_codechef_activity;not null;default:false" json:"hadCodechefActivity"`
	HadCodeforcesActivity bool `gorm:"not null;default:false" json:"hadCodeforcesActivity"`
	HadCodingActivity     bool `gorm:"not null;default:false" json:"hadCodingActivity"`
	HadCareerActivity     bool `gorm:"not null;default:false" json:"hadCareerActivity"`
	HadStudyActivity      bool `gorm:"not null;default:false" json:"hadStudyActivity"`
	HadOverallActivity    bool `gorm:"not null;default:false" json:"hadOverallActivity"`
}

func (StreakRecord) TableName() string {
	return "streak_records"
}
