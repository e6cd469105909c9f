package imageService

import (
	"errors"
	"fmt"
	"time"

	"ImageTagger/internal/api/image"
	"ImageTagger/internal/entity"
	contextPkg "ImageTagger/pkg/context"
	"ImageTagger/pkg/metrics"
	"ImageTagger/pkg/redis"
	"ImageTagger/pkg/s3"
	"ImageTagger/pkg/tagger"

	jsoniter "github.com/json-iterator/go"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func (s *imageService) TagImage(ctx context.Context, imageURL string) (*entity.ExtractionResult, error) {
	requestID := contextPkg.GetRequestID(ctx)

	raw := s.cachedResult(ctx, requestID, imageURL)
	cached := raw != nil

	if !cached {
		started := time.Now()
		analysis, err := s.vision.AnalyzeImage(ctx, imageURL)
		metrics.RecordUpstream(s.vision.Name(), started)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"provider":   s.vision.Name(),
				"image_url":  imageURL,
				"error":      err.Error(),
			}).Error("Image analysis provider failed")
			metrics.RecordExtraction(metrics.StatusUpstreamFailure)
			return nil, fmt.Errorf("%w: %w", image.ErrUpstreamFailure, err)
		}
		raw = analysis
	}

	var rawKey string
	if !cached {
		rawKey = s.archiveRaw(ctx, requestID, raw)
	}

	result, err := s.extractor.Extract(raw)
	if err != nil {
		fields := logrus.Fields{
			"request_id": requestID,
			"provider":   s.vision.Name(),
			"image_url":  imageURL,
			"error":      err.Error(),
		}
		var pathErr *tagger.PathError
		if errors.As(err, &pathErr) {
			fields["path"] = pathErr.Path
		}
		s.log.WithFields(fields).Error("Classification result could not be tagged")
		metrics.RecordExtraction(metrics.StatusMalformedInput)
		return nil, fmt.Errorf("%w: %w", image.ErrMalformedInput, err)
	}

	s.saveTagging(ctx, requestID, imageURL, result, rawKey)

	if !cached {
		s.storeResult(ctx, requestID, imageURL, raw)
	}

	metrics.RecordExtraction(metrics.StatusSuccess)
	metrics.RecordTags(len(result.Tags))

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"image_url":  imageURL,
		"tags":       len(result.Tags),
		"cached":     cached,
	}).Debug("Image tagged")

	return result, nil
}

func (s *imageService) GetTagging(ctx context.Context, id string) (entity.ImageTagging, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if s.repository == nil {
		return entity.ImageTagging{}, image.ErrHistoryUnavailable
	}

	if _, err := ulid.ParseStrict(id); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id":         id,
		}).Warn("Invalid tagging id")
		return entity.ImageTagging{}, image.ErrInvalidTaggingID
	}

	repo, err := s.repository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.ImageTagging{}, err
	}

	tagging, err := repo.Tagging.GetTaggingByID(ctx, id)
	if err != nil {
		return entity.ImageTagging{}, err
	}

	if s.archive != nil && tagging.RawKey != "" {
		rawURL, err := s.archive.PresignUrl(tagging.RawKey)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"raw_key":    tagging.RawKey,
				"error":      err.Error(),
			}).Warn("Failed to presign raw result")
		} else {
			tagging.RawURL = rawURL
		}
	}

	return tagging, nil
}

func (s *imageService) ListTaggings(ctx context.Context, limit, offset int) ([]entity.ImageTagging, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if s.repository == nil {
		return nil, image.ErrHistoryUnavailable
	}

	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	repo, err := s.repository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return nil, err
	}

	taggings, err := repo.Tagging.ListTaggings(ctx, limit, offset)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"limit":      limit,
			"offset":     offset,
			"error":      err.Error(),
		}).Error("Failed to list taggings")
		return nil, err
	}

	return taggings, nil
}

func (s *imageService) cachedResult(ctx context.Context, requestID, imageURL string) *entity.RawClassificationResult {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.GetRawResult(ctx, imageURL)
	switch {
	case err == nil:
		metrics.RecordCache(metrics.CacheHit)
		return raw
	case errors.Is(err, redis.ErrCacheMiss):
		metrics.RecordCache(metrics.CacheMiss)
	default:
		metrics.RecordCache(metrics.CacheError)
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Tag cache lookup failed")
	}

	return nil
}

func (s *imageService) storeResult(ctx context.Context, requestID, imageURL string, raw *entity.RawClassificationResult) {
	if s.cache == nil {
		return
	}

	if err := s.cache.SetRawResult(ctx, imageURL, raw, s.cacheTTL); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to cache classification result")
	}
}

func (s *imageService) archiveRaw(ctx context.Context, requestID string, raw *entity.RawClassificationResult) string {
	if s.archive == nil {
		return ""
	}

	body, err := jsoniter.Marshal(raw)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to encode raw result for archive")
		return ""
	}

	key := s3.RawResultKey(requestID, s.now())
	if _, err := s.archive.UploadRawResult(ctx, key, body); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"key":        key,
			"error":      err.Error(),
		}).Warn("Failed to archive raw result")
		return ""
	}

	return key
}

func (s *imageService) saveTagging(ctx context.Context, requestID, imageURL string, result *entity.ExtractionResult, rawKey string) {
	if s.repository == nil {
		return
	}

	id, err := s.utils.NewULIDFromTimestamp(s.now())
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to generate ULID")
		return
	}

	repo, err := s.repository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to create new client")
		return
	}

	tagging := entity.ImageTagging{
		ID:           id,
		ImageURL:     imageURL,
		Provider:     s.vision.Name(),
		Tags:         result.Tags,
		Age:          result.Data.Age,
		FaceLocation: result.Data.FaceLocation,
		RawKey:       rawKey,
		CreatedAt:    s.now(),
	}

	if err := repo.Tagging.CreateTagging(ctx, tagging); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to save tagging")
	}
}
