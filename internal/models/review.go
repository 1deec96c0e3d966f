package models

import (
	"time"
)

const (
	MinScore = 1
	MaxScore = 10
)

// Review belongs to a title; one per (title, author).
type Review struct {
	ID       uint      `gorm:"primaryKey"`
	TitleID  uint      `gorm:"not null;uniqueIndex:idx_review_title_author"`
	AuthorID uint      `gorm:"not null;uniqueIndex:idx_review_title_author;index"`
	Text     string    `gorm:"type:text;not null"`
	Score    int       `gorm:"not null;check:chk_reviews_score,score >= 1 AND score <= 10"`
	PubDate  time.Time `gorm:"autoCreateTime;index"`

	Title  Title `gorm:"foreignKey:TitleID;constraint:OnDelete:CASCADE"`
	Author User  `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

type Comment struct {
	ID       uint      `gorm:"primaryKey"`
	ReviewID uint      `gorm:"not null;index"`
	AuthorID uint      `gorm:"not null;index"`
	Text     string    `gorm:"type:text;not null"`
	PubDate  time.Time `gorm:"autoCreateTime;index"`

	Review Review `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE"`
	Author User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}
