package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name             string     `gorm:"size:100;not null" json:"name"`
	Email            string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password         string     `gorm:"size:100;not null" json:"-"`
	Role             UserRole   `gorm:"size:20;default:'student'" json:"role"`
	LeetCodeHandle   string     `gorm:"column:leetcode_handle;size:100" json:"leetcodeHandle"`
	CodeChefHandle   string     `gorm:"column:codechef_handle;size:100" json:"codechefHandle"`
	CodeforcesHandle string     `gorm:"size:100" json:"codeforcesHandle"`
	Disabled         bool       `gorm:"default:false" json:"disabled"`
	LastSeen         time.Time  `json:"lastSeen"`
	LastSyncedAt     *time.Time `json:"lastSyncedAt"`
}

func (User) TableName() string {
	return "users"
}

// HasAnyHandle 是否至少配置了一个平台账号
func (u *User) HasAnyHandle() bool {
	return u.LeetCodeHandle != "" || u.CodeChefHandle != "" || u.CodeforcesHandle != ""
}
