package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/agrimarket/internal/clock"
	"github.com/smallbiznis/agrimarket/internal/files/domain"
	"github.com/smallbiznis/agrimarket/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("files.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Save(ctx context.Context, req domain.SaveRequest) (domain.File, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.File{}, domain.ErrInvalidOrganization
	}
	base := slug.Make(req.Name)
	if base == "" {
		return domain.File{}, domain.ErrInvalidName
	}
	if len(req.Content) == 0 {
		return domain.File{}, domain.ErrEmptyContent
	}

	file := domain.File{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Name:        fileName(base, req.Extension),
		ContentType: strings.TrimSpace(req.ContentType),
		Size:        int64(len(req.Content)),
		Content:     req.Content,
		CreatedAt:   s.clock.Now(),
	}
	if file.ContentType == "" {
		file.ContentType = "application/octet-stream"
	}
	if err := s.repo.Insert(ctx, s.db, &file); err != nil {
		return domain.File{}, fmt.Errorf("store file: %w", err)
	}

	s.log.Debug("file stored",
		zap.String("file_id", file.ID.String()),
		zap.String("name", file.Name),
		zap.Int64("size", file.Size),
	)
	return file, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.File, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.File{}, domain.ErrInvalidOrganization
	}
	if id == 0 {
		return domain.File{}, domain.ErrInvalidID
	}
	file, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.File{}, err
	}
	if file == nil {
		return domain.File{}, domain.ErrNotFound
	}
	return *file, nil
}

// fileName appends a short random suffix so repeated exports never collide.
func fileName(base, ext string) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return base + "-" + suffix
	}
	return base + "-" + suffix + "." + ext
}
