package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrisentry/biosecure-api/internal/dto"
	"github.com/agrisentry/biosecure-api/internal/models"
	"github.com/agrisentry/biosecure-api/internal/policy"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
	"github.com/agrisentry/biosecure-api/pkg/storage"
)

type discussionStore interface {
	Create(ctx context.Context, post *models.DiscussionPost) error
	List(ctx context.Context, filter models.DiscussionFilter) ([]models.DiscussionPost, int, error)
}

// DiscussionConfig tunes forum behaviour.
type DiscussionConfig struct {
	MaxImageSize int64
	AllowedMIMEs []string
}

// DiscussionService manages the append-only forum. Posts are never
// edited or deleted; attached images are stored on disk and served
// through signed, expiring URLs.
type DiscussionService struct {
	repo    discussionStore
	storage *storage.LocalStorage
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     DiscussionConfig
}

// NewDiscussionService constructs the service.
func NewDiscussionService(repo discussionStore, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger, cfg DiscussionConfig) *DiscussionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxImageSize <= 0 {
		cfg.MaxImageSize = 5 << 20
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/jpeg", "image/png", "image/webp"}
	}
	return &DiscussionService{repo: repo, storage: store, signer: signer, logger: logger, cfg: cfg}
}

// CreatePost stores a new forum post with an optional image.
func (s *DiscussionService) CreatePost(ctx context.Context, req dto.CreatePostRequest, actor *models.JWTClaims) (*models.DiscussionPost, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !policy.Can(actor.Role, policy.ActionDiscussionPost) {
		return nil, appErrors.ErrForbidden
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "text is required")
	}

	post := &models.DiscussionPost{
		AuthorID:   actor.UserID,
		AuthorName: actor.FullName,
		Text:       text,
	}

	if req.Image != nil {
		if req.ImageSize > s.cfg.MaxImageSize {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("image exceeds %d bytes", s.cfg.MaxImageSize))
		}
		if !s.mimeAllowed(req.ImageMIME) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported image type")
		}
		ext := filepath.Ext(req.ImageName)
		filename := fmt.Sprintf("discussion/%s%s", uuid.NewString(), ext)
		stored, err := s.storage.SaveStream(filename, req.Image)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to store image")
		}
		post.ImagePath = &stored
	}

	if err := s.repo.Create(ctx, post); err != nil {
		if post.ImagePath != nil {
			if delErr := s.storage.Delete(*post.ImagePath); delErr != nil {
				s.logger.Warn("failed to remove orphaned image", zap.String("path", *post.ImagePath), zap.Error(delErr))
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create post")
	}

	s.attachImageURL(post)
	return post, nil
}

// List returns posts latest first with signed image links attached.
func (s *DiscussionService) List(ctx context.Context, filter models.DiscussionFilter, actor *models.JWTClaims) ([]models.DiscussionPost, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	posts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}
	for i := range posts {
		s.attachImageURL(&posts[i])
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return posts, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// ResolveImage validates a signed token and returns the on-disk path.
func (s *DiscussionService) ResolveImage(token string) (string, error) {
	if s.signer == nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, "image links are disabled")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired image link")
	}
	return s.storage.Path(relPath), nil
}

func (s *DiscussionService) attachImageURL(post *models.DiscussionPost) {
	if post.ImagePath == nil || s.signer == nil {
		return
	}
	token, _, err := s.signer.Generate(post.ID, *post.ImagePath)
	if err != nil {
		s.logger.Warn("failed to sign image url", zap.String("post_id", post.ID), zap.Error(err))
		return
	}
	url := fmt.Sprintf("/api/v1/discussion/images?token=%s", token)
	post.ImageURL = &url
}

func (s *DiscussionService) mimeAllowed(mime string) bool {
	for _, allowed := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(strings.TrimSpace(allowed), mime) {
			return true
		}
	}
	return false
}
