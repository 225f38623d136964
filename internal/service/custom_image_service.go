package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"tierimage/internal/apperrors"
	"tierimage/internal/ids"
	"tierimage/internal/media/derivative"
	"tierimage/internal/media/sniffer"
	"tierimage/internal/models"
	"tierimage/internal/policy"
	"tierimage/internal/queue"
	"tierimage/internal/repository"
	"tierimage/internal/storage"
	"tierimage/internal/views"
)

// CustomImageInput is the writable part of a custom image. Nil means the
// field was absent or not writable for the caller.
type CustomImageInput struct {
	Name               *string `json:"name"`
	ExpiringLinkVal    *int    `json:"expiring_link_val"`
	CustomExpiringLink *int    `json:"custom_expiring_link"`
	CustomLinkHeight   *int    `json:"custom_link_height"`
	CustomLinkWidth    *int    `json:"custom_link_width"`
}

func (in CustomImageInput) apply(image *models.CustomImage) {
	if in.Name != nil {
		image.Name = *in.Name
	}
	if in.ExpiringLinkVal != nil {
		image.ExpiringLinkSeconds = *in.ExpiringLinkVal
	}
	if in.CustomExpiringLink != nil {
		image.CustomExpiringSeconds = *in.CustomExpiringLink
	}
	if in.CustomLinkHeight != nil {
		image.CustomHeight = *in.CustomLinkHeight
	}
	if in.CustomLinkWidth != nil {
		image.CustomWidth = *in.CustomLinkWidth
	}
}

// Upload is a source image file as received.
type Upload struct {
	Filename string
	Data     []byte
}

type CustomImageService struct {
	store   repository.Store
	objects storage.Objects
	cleanup cleanup
	log     zerolog.Logger
}

func NewCustomImageService(store repository.Store, objects storage.Objects, q queue.Enqueuer, log zerolog.Logger) *CustomImageService {
	return &CustomImageService{
		store:   store,
		objects: objects,
		cleanup: cleanup{queue: q, log: log},
		log:     log,
	}
}

// schema authorizes the action and picks the view for the caller's plan.
func (s *CustomImageService) schema(id policy.Identity, action views.Action) (views.Schema, error) {
	if err := policy.Authorize(id, action, policy.Collection(policy.KindCustomImage)); err != nil {
		return views.Schema{}, err
	}
	capability, err := id.Capability()
	if err != nil {
		return views.Schema{}, fmt.Errorf("resolve plan of account %s: %w", id.AccountID, err)
	}
	return views.Select(capability, action)
}

func (s *CustomImageService) input(schema views.Schema, payload views.Payload, full bool) (CustomImageInput, error) {
	var in CustomImageInput
	if err := decode(schema, payload, &in); err != nil {
		return in, err
	}
	p := problems{}
	p.name(views.FieldName, in.Name, full)
	p.seconds(views.FieldExpiringLinkVal, in.ExpiringLinkVal)
	p.seconds(views.FieldCustomExpiringLink, in.CustomExpiringLink)
	p.dimension(views.FieldCustomLinkHeight, in.CustomLinkHeight)
	p.dimension(views.FieldCustomLinkWidth, in.CustomLinkWidth)
	return in, p.err()
}

func (s *CustomImageService) List(ctx context.Context, id policy.Identity) ([]map[string]any, error) {
	schema, err := s.schema(id, views.ActionList)
	if err != nil {
		return nil, err
	}
	images, err := s.store.CustomImages().List(ctx, id.AccountID)
	if err != nil {
		return nil, fmt.Errorf("list custom images: %w", err)
	}
	out := make([]map[string]any, 0, len(images))
	for _, image := range images {
		doc, err := s.render(ctx, schema, image)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *CustomImageService) Get(ctx context.Context, id policy.Identity, imageID string) (map[string]any, error) {
	schema, err := s.schema(id, views.ActionRetrieve)
	if err != nil {
		return nil, err
	}
	image, err := s.store.CustomImages().Get(ctx, id.AccountID, imageID)
	if err != nil {
		return nil, fmt.Errorf("load custom image: %w", err)
	}
	if err := policy.Authorize(id, views.ActionRetrieve, policy.Record(policy.KindCustomImage, image.OwnerID)); err != nil {
		return nil, err
	}
	return s.render(ctx, schema, image)
}

func (s *CustomImageService) Create(ctx context.Context, id policy.Identity, payload views.Payload) (map[string]any, error) {
	schema, err := s.schema(id, views.ActionCreate)
	if err != nil {
		return nil, err
	}
	in, err := s.input(schema, payload, true)
	if err != nil {
		return nil, err
	}

	image := models.CustomImage{ID: ids.New(), OwnerID: policy.OwnedBy(id)}
	in.apply(&image)
	if err := s.store.CustomImages().Create(ctx, image); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.FieldError("name", "custom image with this name already exists")
		}
		return nil, fmt.Errorf("create custom image: %w", err)
	}
	return s.render(ctx, schema, image)
}

// Update applies a full or partial update. Changing the custom dimensions
// regenerates the custom derivative in the same transaction.
func (s *CustomImageService) Update(ctx context.Context, id policy.Identity, imageID string, action views.Action, payload views.Payload) (map[string]any, error) {
	schema, err := s.schema(id, action)
	if err != nil {
		return nil, err
	}
	in, err := s.input(schema, payload, !action.Partial())
	if err != nil {
		return nil, err
	}

	var before, after models.CustomImage
	var written []string
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		current, err := tx.CustomImages().Lock(ctx, id.AccountID, imageID)
		if err != nil {
			return fmt.Errorf("load custom image: %w", err)
		}
		if err := policy.Authorize(id, action, policy.Record(policy.KindCustomImage, current.OwnerID)); err != nil {
			return err
		}

		next := current
		in.apply(&next)
		written, err = s.derive(ctx, &next, nil)
		if err != nil {
			return err
		}
		if err := tx.CustomImages().Update(ctx, next); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return apperrors.FieldError("name", "custom image with this name already exists")
			}
			return fmt.Errorf("update custom image: %w", err)
		}
		before, after = current, next
		return nil
	})
	if err != nil {
		s.cleanup.purge(ctx, nil, written)
		return nil, err
	}

	s.cleanup.replaced(ctx, before, after)
	return s.render(ctx, schema, after)
}

func (s *CustomImageService) Delete(ctx context.Context, id policy.Identity, imageID string) error {
	if _, err := s.schema(id, views.ActionDestroy); err != nil {
		return err
	}

	var deleted models.CustomImage
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		current, err := tx.CustomImages().Lock(ctx, id.AccountID, imageID)
		if err != nil {
			return fmt.Errorf("load custom image: %w", err)
		}
		if err := policy.Authorize(id, views.ActionDestroy, policy.Record(policy.KindCustomImage, current.OwnerID)); err != nil {
			return err
		}
		if err := tx.CustomImages().Delete(ctx, id.AccountID, imageID); err != nil {
			return fmt.Errorf("delete custom image: %w", err)
		}
		deleted = current
		return nil
	})
	if err != nil {
		return err
	}

	s.cleanup.removed(ctx, deleted)
	return nil
}

// UploadImage replaces the source image and recomputes every derivative
// before the response is written.
func (s *CustomImageService) UploadImage(ctx context.Context, id policy.Identity, imageID string, upload *Upload) (map[string]any, error) {
	schema, err := s.schema(id, views.ActionUploadImage)
	if err != nil {
		return nil, err
	}
	if upload == nil || len(upload.Data) == 0 {
		return nil, apperrors.FieldError(string(views.FieldImage), "no file was submitted")
	}
	ext, err := storage.ValidateExtension(upload.Filename)
	if err != nil {
		return nil, err
	}
	if err := sniffer.Verify(ext, upload.Data); err != nil {
		return nil, fmt.Errorf("verify %s: %w", upload.Filename, err)
	}

	var before, after models.CustomImage
	var originals, variants []string
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		current, err := tx.CustomImages().Lock(ctx, id.AccountID, imageID)
		if err != nil {
			return fmt.Errorf("load custom image: %w", err)
		}
		if err := policy.Authorize(id, views.ActionUploadImage, policy.Record(policy.KindCustomImage, current.OwnerID)); err != nil {
			return err
		}

		sum := sha256.Sum256(upload.Data)
		next := current
		next.ImageKey = storage.SourceKey(ext)
		next.ImageExt = ext
		next.ImageChecksum = hex.EncodeToString(sum[:])

		variants, err = s.derive(ctx, &next, upload.Data)
		if err != nil {
			return err
		}
		if err := s.objects.Put(ctx, storage.Originals, next.ImageKey, upload.Data, storage.ContentType(ext)); err != nil {
			return fmt.Errorf("store source image: %w", err)
		}
		originals = append(originals, next.ImageKey)

		if err := tx.CustomImages().Update(ctx, next); err != nil {
			return fmt.Errorf("update custom image: %w", err)
		}
		before, after = current, next
		return nil
	})
	if err != nil {
		s.cleanup.purge(ctx, originals, variants)
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Error().Err(err).Str("custom_image_id", imageID).Msg("upload image failed")
		}
		return nil, err
	}

	s.cleanup.replaced(ctx, before, after)
	return s.render(ctx, schema, after)
}

// derive brings the derivative keys of image in line with its source and
// dimensions. A rendition whose key is unchanged is not generated again.
// source may be nil, in which case it is read back from storage when
// needed. The keys of stored renditions are returned.
func (s *CustomImageService) derive(ctx context.Context, image *models.CustomImage, source []byte) ([]string, error) {
	if !image.HasSource() {
		image.Link200Key, image.Link400Key, image.CustomLinkKey = "", "", ""
		return nil, nil
	}

	type target struct {
		size derivative.Size
		key  *string
	}
	targets := []target{
		{derivative.Size200, &image.Link200Key},
		{derivative.Size400, &image.Link400Key},
	}
	if image.HasCustomDimensions() {
		targets = append(targets, target{
			derivative.Size{Width: image.CustomWidth, Height: image.CustomHeight},
			&image.CustomLinkKey,
		})
	} else {
		image.CustomLinkKey = ""
	}

	var (
		pending []target
		keys    []string
		sizes   []derivative.Size
	)
	for _, t := range targets {
		key := storage.DerivativeKey(image.ID, image.ImageChecksum, t.size.Width, t.size.Height)
		if *t.key == key {
			continue
		}
		pending = append(pending, t)
		keys = append(keys, key)
		sizes = append(sizes, t.size)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	if source == nil {
		var err error
		source, err = s.objects.Get(ctx, storage.Originals, image.ImageKey)
		if err != nil {
			return nil, fmt.Errorf("read source image: %w", err)
		}
	}

	renditions, err := derivative.Renditions(source, sizes...)
	if err != nil {
		return nil, err
	}

	var written []string
	for i, rendition := range renditions {
		if err := s.objects.Put(ctx, storage.Variants, keys[i], rendition.Data, "image/png"); err != nil {
			return written, fmt.Errorf("store derivative: %w", err)
		}
		written = append(written, keys[i])
		*pending[i].key = keys[i]
	}
	return written, nil
}
