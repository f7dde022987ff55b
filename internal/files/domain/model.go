package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// File is a generated document kept for download.
type File struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID `gorm:"not null;index" json:"company_id"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	ContentType string       `gorm:"type:text;not null" json:"content_type"`
	Size        int64        `gorm:"not null;default:0" json:"size"`
	Content     []byte       `gorm:"not null" json:"-"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
}

func (File) TableName() string { return "files" }

// URL is the download path served by the HTTP API.
func (f File) URL() string {
	return "/api/files/" + f.ID.String()
}
