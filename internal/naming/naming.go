// Package naming allocates human-readable document names per company, series and year.
package naming

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/agrimarket/internal/orgcontext"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrUnknownSeries       = errors.New("unknown_naming_series")
)

// NamingSeries holds the last number issued for a series in a year.
type NamingSeries struct {
	OrgID      snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	Series     string       `gorm:"primaryKey;type:text"`
	Year       int          `gorm:"primaryKey;autoIncrement:false"`
	LastNumber int64        `gorm:"not null;default:0"`
	UpdatedAt  time.Time    `gorm:"not null"`
}

func (NamingSeries) TableName() string { return "naming_series" }

// Namer issues the next document name inside the caller's transaction.
type Namer interface {
	Next(ctx context.Context, tx *gorm.DB, series Series, postingDate time.Time) (string, error)
}

type namer struct{}

func New() Namer { return &namer{} }

var Module = fx.Module("naming",
	fx.Provide(New),
)

func (n *namer) Next(ctx context.Context, tx *gorm.DB, series Series, postingDate time.Time) (string, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return "", ErrInvalidOrganization
	}
	tmpl, ok := Template(series)
	if !ok {
		return "", ErrUnknownSeries
	}

	year := postingDate.UTC().Year()
	now := time.Now().UTC()
	row := NamingSeries{OrgID: orgID, Series: string(series), Year: year, UpdatedAt: now}
	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error; err != nil {
		return "", fmt.Errorf("init naming series: %w", err)
	}

	key := tx.WithContext(ctx).
		Model(&NamingSeries{}).
		Where("org_id = ? AND series = ? AND year = ?", orgID, string(series), year)
	if err := key.Updates(map[string]any{
		"last_number": gorm.Expr("last_number + 1"),
		"updated_at":  now,
	}).Error; err != nil {
		return "", fmt.Errorf("advance naming series: %w", err)
	}

	var current NamingSeries
	if err := tx.WithContext(ctx).
		Where("org_id = ? AND series = ? AND year = ?", orgID, string(series), year).
		First(&current).Error; err != nil {
		return "", fmt.Errorf("read naming series: %w", err)
	}
	return FormatNumber(tmpl, postingDate, current.LastNumber)
}
