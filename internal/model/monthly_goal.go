package model

// MonthlyGoal 用户为某个自然月设定的目标，缺省时各项目标为 0
type MonthlyGoal struct {
	BaseModel
	UserID               uint `gorm:"not null;uniqueIndex:idx_goal_user_month" json:"userId"`
	Year                 int  `gorm:"not null;uniqueIndex:idx_goal_user_month" json:"year"`
	Month                int  `gorm:"not null;uniqueIndex:idx_goal_user_month" json:"month"`
	DailyStudyMinutes    int  `gorm:"not null;default:0" json:"dailyStudyMinutes"`
	LeetCodeProblems     int  `gorm:"column:leetcode_problems;not null;default:0" json:"leetcodeProblems"`
	CodeChefProblems     int  `gorm:"column:codechef_problems;not null;default:0" json:"codechefProblems"`
	CodeforcesProblems   int  `gorm:"not null;default:0" json:"codeforcesProblems"`
	ContestParticipation int  `gorm:"not null;default:0" json:"contestParticipation"`
	CareerMilestones     int  `gorm:"not null;default:0" json:"careerMilestones"`
}

func (MonthlyGoal) TableName() string {
	return "monthly_goals"
}
