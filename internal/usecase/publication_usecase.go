package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"

	"apptrueq/internal/domain/entity"
	"apptrueq/internal/domain/repository"
	"apptrueq/internal/domain/service"
	"apptrueq/internal/infrastructure/ratelimit"
	"apptrueq/pkg/errors"
	"apptrueq/pkg/logger"
	"apptrueq/pkg/stream"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

type PublicationUseCase struct {
	publicationRepo repository.PublicationRepository
	userRepo        repository.UserRepository
	fileService     service.FileUploadService
	limiter         RateLimiter
	exploreLimit    int
	maxUploadBytes  int64
}

func NewPublicationUseCase(
	publicationRepo repository.PublicationRepository,
	userRepo repository.UserRepository,
	fileService service.FileUploadService,
	limiter RateLimiter,
	exploreLimit int,
	maxUploadBytes int64,
) *PublicationUseCase {
	return &PublicationUseCase{
		publicationRepo: publicationRepo,
		userRepo:        userRepo,
		fileService:     fileService,
		limiter:         limiter,
		exploreLimit:    exploreLimit,
		maxUploadBytes:  maxUploadBytes,
	}
}

type CreatePublicationInput struct {
	Title       string
	Description string
	Category    string
	Location    string
	ImageURL    string
	Kind        string
}

func (uc *PublicationUseCase) Create(ctx context.Context, ownerID string, input CreatePublicationInput) (*entity.Publication, error) {
	if ownerID == "" {
		return nil, errors.Unauthorized("You must be signed in", nil)
	}

	kind := entity.PublicationKind(strings.ToUpper(strings.TrimSpace(input.Kind)))
	if !kind.Valid() {
		return nil, errors.Validation("kind must be one of: OFFER NEED")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.Validation("title is required")
	}

	if ok, wait := uc.limiter.Allow(ownerID, ratelimit.ActionCreatePublication); !ok {
		return nil, errors.TooManyRequests(fmt.Sprintf("Too many publications, try again in %d seconds", waitSeconds(wait)))
	}

	ownerName := ""
	if profile, err := uc.userRepo.GetByID(ctx, ownerID); err == nil {
		ownerName = profile.DisplayName
	} else if !errors.Is(err, errors.CodeNotFound) {
		return nil, err
	}

	publication := &entity.Publication{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		Location:    strings.TrimSpace(input.Location),
		ImageURL:    strings.TrimSpace(input.ImageURL),
		OwnerID:     ownerID,
		OwnerName:   ownerName,
		Kind:        kind,
	}

	if err := uc.publicationRepo.Create(ctx, publication); err != nil {
		uc.discardUpload(ctx, ownerID, publication.ImageURL)
		return nil, err
	}

	logger.Info("Publication %s (%s) created by %s", publication.ID, kind, ownerID)
	return publication, nil
}

// discardUpload removes an image the owner uploaded for a publication that
// was never saved. Images outside the owner's folder are left alone.
func (uc *PublicationUseCase) discardUpload(ctx context.Context, ownerID, imageURL string) {
	if imageURL == "" || !strings.Contains(imageURL, "/"+uploadFolder(ownerID)+"/") {
		return
	}
	if err := uc.fileService.DeleteFile(ctx, imageURL); err != nil {
		log := logger.With(map[string]interface{}{"owner_id": ownerID, "image_url": imageURL})
		log.Warn().Err(err).Msg("failed to remove orphaned publication image")
	}
}

func uploadFolder(ownerID string) string {
	return "publications/" + ownerID
}

func (uc *PublicationUseCase) Get(ctx context.Context, id string) (*entity.Publication, error) {
	return uc.publicationRepo.GetByID(ctx, id)
}

func parseKind(kind string) (entity.PublicationKind, error) {
	k := entity.PublicationKind(strings.ToUpper(strings.TrimSpace(kind)))
	if k != "" && !k.Valid() {
		return "", errors.Validation("kind must be one of: OFFER NEED")
	}
	return k, nil
}

func (uc *PublicationUseCase) ListMine(ctx context.Context, ownerID, kind string) ([]*entity.Publication, error) {
	k, err := parseKind(kind)
	if err != nil {
		return nil, err
	}
	items, err := uc.publicationRepo.ListByOwner(ctx, ownerID, k)
	if err != nil {
		return nil, err
	}
	return service.MergeByIdentity(items), nil
}

// Explore is the one-shot form of FeedUseCase.ExploreFeed.
func (uc *PublicationUseCase) Explore(ctx context.Context, userID string, filter service.PublicationFilter) ([]*entity.Publication, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, errors.Validation("kind must be one of: OFFER NEED")
	}
	filter.ExcludeOwnerID = userID

	offers, err := uc.publicationRepo.ListRecent(ctx, entity.KindOffer, uc.exploreLimit)
	if err != nil {
		return nil, err
	}
	needs, err := uc.publicationRepo.ListRecent(ctx, entity.KindNeed, uc.exploreLimit)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	states := stream.CombineLatest(ctx, exploreView(filter),
		stream.FromSlice(offers, nil),
		stream.FromSlice(needs, nil),
	)
	state, err := stream.First(ctx, states)
	if err != nil {
		return nil, errors.Internal("Failed to build explore feed", err)
	}
	return state.Data, nil
}

// UploadImage stores a publication image under publications/<ownerID>/ and
// returns its public URL.
func (uc *PublicationUseCase) UploadImage(ctx context.Context, ownerID string, file io.Reader, contentType string, size int64) (string, error) {
	if ownerID == "" {
		return "", errors.Unauthorized("You must be signed in", nil)
	}
	if !allowedImageTypes[contentType] {
		return "", errors.BadRequest("Only JPEG, PNG and GIF images are allowed", nil)
	}
	if size <= 0 || size > uc.maxUploadBytes {
		return "", errors.BadRequest(fmt.Sprintf("Image must be smaller than %d MB", uc.maxUploadBytes/(1024*1024)), nil)
	}

	url, err := uc.fileService.UploadFile(ctx, io.LimitReader(file, uc.maxUploadBytes), contentType, uploadFolder(ownerID))
	if err != nil {
		return "", errors.Internal("Failed to upload image", err)
	}
	return url, nil
}
