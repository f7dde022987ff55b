package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type SaveRequest struct {
	// Name is a human title; the stored name is slugged and made unique.
	Name        string
	Extension   string
	ContentType string
	Content     []byte
}

type Service interface {
	Save(ctx context.Context, req SaveRequest) (File, error)
	Get(ctx context.Context, id snowflake.ID) (File, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_file_name")
	ErrEmptyContent        = errors.New("empty_file_content")
	ErrNotFound            = errors.New("file_not_found")
)
