package repository

import (
	"context"

	"tierimage/internal/models"
)

type CustomImageRepository struct {
	q querier
}

const customImageColumns = `
	id, owner_id, name, image_key, image_ext, image_checksum,
	link_200_key, link_400_key, expiring_link_seconds,
	custom_expiring_seconds, custom_height, custom_width, custom_link_key,
	created_at, updated_at`

func (r *CustomImageRepository) Create(ctx context.Context, image models.CustomImage) error {
	const query = `
		INSERT INTO custom_images (
			id, owner_id, name, image_key, image_ext, image_checksum,
			link_200_key, link_400_key, expiring_link_seconds,
			custom_expiring_seconds, custom_height, custom_width, custom_link_key,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12, $13,
			NOW(), NOW()
		)
	`
	_, err := r.q.Exec(ctx, query,
		image.ID,
		image.OwnerID,
		image.Name,
		image.ImageKey,
		image.ImageExt,
		image.ImageChecksum,
		image.Link200Key,
		image.Link400Key,
		image.ExpiringLinkSeconds,
		image.CustomExpiringSeconds,
		image.CustomHeight,
		image.CustomWidth,
		image.CustomLinkKey,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *CustomImageRepository) Get(ctx context.Context, ownerID, id string) (models.CustomImage, error) {
	row := r.q.QueryRow(ctx, `SELECT `+customImageColumns+` FROM custom_images WHERE id = $1 AND owner_id = $2`, id, ownerID)
	image, err := scanCustomImage(row)
	return image, notFound(err)
}

func (r *CustomImageRepository) Lock(ctx context.Context, ownerID, id string) (models.CustomImage, error) {
	row := r.q.QueryRow(ctx, `SELECT `+customImageColumns+` FROM custom_images WHERE id = $1 AND owner_id = $2 FOR UPDATE`, id, ownerID)
	image, err := scanCustomImage(row)
	return image, notFound(err)
}

func (r *CustomImageRepository) List(ctx context.Context, ownerID string) ([]models.CustomImage, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+customImageColumns+`
		FROM custom_images
		WHERE owner_id = $1
		ORDER BY created_at, id
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.CustomImage
	for rows.Next() {
		image, err := scanCustomImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

func (r *CustomImageRepository) Update(ctx context.Context, image models.CustomImage) error {
	const query = `
		UPDATE custom_images
		SET name = $3,
		    image_key = $4,
		    image_ext = $5,
		    image_checksum = $6,
		    link_200_key = $7,
		    link_400_key = $8,
		    expiring_link_seconds = $9,
		    custom_expiring_seconds = $10,
		    custom_height = $11,
		    custom_width = $12,
		    custom_link_key = $13,
		    updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`
	cmd, err := r.q.Exec(ctx, query,
		image.ID,
		image.OwnerID,
		image.Name,
		image.ImageKey,
		image.ImageExt,
		image.ImageChecksum,
		image.Link200Key,
		image.Link400Key,
		image.ExpiringLinkSeconds,
		image.CustomExpiringSeconds,
		image.CustomHeight,
		image.CustomWidth,
		image.CustomLinkKey,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CustomImageRepository) Delete(ctx context.Context, ownerID, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM custom_images WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CustomImageRepository) GetOrCreate(ctx context.Context, candidate models.CustomImage) (models.CustomImage, bool, error) {
	const insert = `
		INSERT INTO custom_images (id, owner_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (owner_id, name) DO NOTHING
	`
	cmd, err := r.q.Exec(ctx, insert, candidate.ID, candidate.OwnerID, candidate.Name)
	if err != nil {
		return models.CustomImage{}, false, err
	}

	row := r.q.QueryRow(ctx, `SELECT `+customImageColumns+` FROM custom_images WHERE owner_id = $1 AND name = $2`, candidate.OwnerID, candidate.Name)
	image, err := scanCustomImage(row)
	if err != nil {
		return models.CustomImage{}, false, notFound(err)
	}
	return image, cmd.RowsAffected() == 1, nil
}

func (r *CustomImageRepository) Referenced(ctx context.Context, keys []string) (map[string]bool, error) {
	referenced := make(map[string]bool, len(keys))
	if len(keys) == 0 {
		return referenced, nil
	}
	const query = `
		SELECT k FROM unnest($1::text[]) AS k
		WHERE EXISTS (
			SELECT 1 FROM custom_images
			WHERE image_key = k OR link_200_key = k OR link_400_key = k OR custom_link_key = k
		)
	`
	rows, err := r.q.Query(ctx, query, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		referenced[key] = true
	}
	return referenced, rows.Err()
}

func scanCustomImage(row scanner) (models.CustomImage, error) {
	var image models.CustomImage
	err := row.Scan(
		&image.ID,
		&image.OwnerID,
		&image.Name,
		&image.ImageKey,
		&image.ImageExt,
		&image.ImageChecksum,
		&image.Link200Key,
		&image.Link400Key,
		&image.ExpiringLinkSeconds,
		&image.CustomExpiringSeconds,
		&image.CustomHeight,
		&image.CustomWidth,
		&image.CustomLinkKey,
		&image.CreatedAt,
		&image.UpdatedAt,
	)
	return image, err
}
