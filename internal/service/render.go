package service

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"tierimage/internal/models"
	"tierimage/internal/storage"
	"tierimage/internal/views"
)

func nullable(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func (s *CustomImageService) link(bucket storage.Bucket, key string) any {
	if key == "" {
		return nil
	}
	return s.objects.URL(bucket, key)
}

func (s *CustomImageService) presign(ctx context.Context, bucket storage.Bucket, key string, seconds int) (any, error) {
	if key == "" || seconds == 0 {
		return nil, nil
	}
	url, err := s.objects.PresignedURL(ctx, bucket, key, time.Duration(seconds)*time.Second)
	if err != nil {
		return nil, err
	}
	return url, nil
}

func (s *CustomImageService) render(ctx context.Context, schema views.Schema, image models.CustomImage) (map[string]any, error) {
	return schema.Render(func(f views.Field) (any, error) {
		switch f {
		case views.FieldID:
			return image.ID, nil
		case views.FieldName:
			return image.Name, nil
		case views.FieldImage:
			return s.link(storage.Originals, image.ImageKey), nil
		case views.FieldLink200:
			return s.link(storage.Variants, image.Link200Key), nil
		case views.FieldLink400:
			return s.link(storage.Variants, image.Link400Key), nil
		case views.FieldExpiringLinkVal:
			return nullable(image.ExpiringLinkSeconds), nil
		case views.FieldExpiringLink:
			return s.presign(ctx, storage.Originals, image.ImageKey, image.ExpiringLinkSeconds)
		case views.FieldCustomExpiringLink:
			return nullable(image.CustomExpiringSeconds), nil
		case views.FieldCustomLink:
			if image.CustomExpiringSeconds > 0 {
				return s.presign(ctx, storage.Variants, image.CustomLinkKey, image.CustomExpiringSeconds)
			}
			return s.link(storage.Variants, image.CustomLinkKey), nil
		}
		return nil, fmt.Errorf("no value for field %q", f)
	})
}

func renderTier(tier models.Tier) (map[string]any, error) {
	return views.TierSchema().Render(func(f views.Field) (any, error) {
		switch f {
		case views.FieldID:
			return tier.ID, nil
		case views.FieldTitle:
			return tier.Title, nil
		case views.FieldDescription:
			return tier.Description, nil
		case views.FieldCustomImages:
			return lo.Map(tier.CustomImages, func(ref models.CustomImageRef, _ int) map[string]any {
				return map[string]any{"id": ref.ID, "name": ref.Name}
			}), nil
		}
		return nil, fmt.Errorf("no value for field %q", f)
	})
}

func renderAccount(schema views.Schema, account models.Account) (map[string]any, error) {
	return schema.Render(func(f views.Field) (any, error) {
		switch f {
		case views.FieldID:
			return account.ID, nil
		case views.FieldEmail:
			return account.Email, nil
		case views.FieldName:
			return account.Name, nil
		case views.FieldAccountPlan:
			return string(account.Plan), nil
		case views.FieldIsStaff:
			return account.IsStaff, nil
		}
		return nil, fmt.Errorf("no value for field %q", f)
	})
}
