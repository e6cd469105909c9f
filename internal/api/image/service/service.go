package imageService

import (
	"time"

	imageRepository "ImageTagger/internal/api/image/repository"
	"ImageTagger/internal/entity"
	"ImageTagger/pkg/redis"
	"ImageTagger/pkg/s3"
	"ImageTagger/pkg/tagger"
	"ImageTagger/pkg/utils"
	"ImageTagger/pkg/vision"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	DefaultCacheTTL  = 24 * time.Hour
	DefaultPageLimit = 20
)

type IImageService interface {
	TagImage(ctx context.Context, imageURL string) (*entity.ExtractionResult, error)
	GetTagging(ctx context.Context, id string) (entity.ImageTagging, error)
	ListTaggings(ctx context.Context, limit, offset int) ([]entity.ImageTagging, error)
}

// imageService tags images through the configured provider. The cache,
// repository and archive are optional and may be nil.
type imageService struct {
	log        *logrus.Logger
	vision     vision.IVision
	extractor  *tagger.Extractor
	repository imageRepository.Repository
	cache      redis.IRedis
	archive    s3.ItfS3
	utils      utils.IUtils
	cacheTTL   time.Duration
	now        func() time.Time
}

func NewImageService(
	log *logrus.Logger,
	visionClient vision.IVision,
	extractor *tagger.Extractor,
	repository imageRepository.Repository,
	cache redis.IRedis,
	archive s3.ItfS3,
	utils utils.IUtils,
	cacheTTL time.Duration,
) IImageService {
	if extractor == nil {
		extractor = tagger.New()
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}

	return &imageService{
		log:        log,
		vision:     visionClient,
		extractor:  extractor,
		repository: repository,
		cache:      cache,
		archive:    archive,
		utils:      utils,
		cacheTTL:   cacheTTL,
		now:        time.Now,
	}
}
