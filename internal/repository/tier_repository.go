package repository

import (
	"context"

	"tierimage/internal/models"
)

type TierRepository struct {
	q querier
}

func (r *TierRepository) Create(ctx context.Context, tier models.Tier) error {
	const query = `
		INSERT INTO tiers (id, owner_id, title, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := r.q.Exec(ctx, query, tier.ID, tier.OwnerID, tier.Title, tier.Description)
	return err
}

func (r *TierRepository) Get(ctx context.Context, ownerID, id string) (models.Tier, error) {
	return r.get(ctx, ownerID, id, "")
}

func (r *TierRepository) Lock(ctx context.Context, ownerID, id string) (models.Tier, error) {
	return r.get(ctx, ownerID, id, "FOR UPDATE")
}

func (r *TierRepository) get(ctx context.Context, ownerID, id, lock string) (models.Tier, error) {
	query := `
		SELECT id, owner_id, title, description, created_at, updated_at
		FROM tiers WHERE id = $1 AND owner_id = $2
	` + lock

	var tier models.Tier
	if err := r.q.QueryRow(ctx, query, id, ownerID).Scan(
		&tier.ID,
		&tier.OwnerID,
		&tier.Title,
		&tier.Description,
		&tier.CreatedAt,
		&tier.UpdatedAt,
	); err != nil {
		return models.Tier{}, notFound(err)
	}

	refs, err := r.customImageRefs(ctx, []string{tier.ID})
	if err != nil {
		return models.Tier{}, err
	}
	tier.CustomImages = refs[tier.ID]
	return tier, nil
}

func (r *TierRepository) List(ctx context.Context, ownerID string) ([]models.Tier, error) {
	const query = `
		SELECT id, owner_id, title, description, created_at, updated_at
		FROM tiers
		WHERE owner_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.q.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []models.Tier
	var ids []string
	for rows.Next() {
		var tier models.Tier
		if err := rows.Scan(
			&tier.ID,
			&tier.OwnerID,
			&tier.Title,
			&tier.Description,
			&tier.CreatedAt,
			&tier.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
		ids = append(ids, tier.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return tiers, nil
	}

	refs, err := r.customImageRefs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range tiers {
		tiers[i].CustomImages = refs[tiers[i].ID]
	}
	return tiers, nil
}

func (r *TierRepository) customImageRefs(ctx context.Context, tierIDs []string) (map[string][]models.CustomImageRef, error) {
	const query = `
		SELECT tc.tier_id, c.id, c.name
		FROM tier_custom_images tc
		JOIN custom_images c ON c.id = tc.custom_image_id
		WHERE tc.tier_id = ANY($1)
		ORDER BY c.name, c.id
	`
	rows, err := r.q.Query(ctx, query, tierIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make(map[string][]models.CustomImageRef, len(tierIDs))
	for rows.Next() {
		var tierID string
		var ref models.CustomImageRef
		if err := rows.Scan(&tierID, &ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		refs[tierID] = append(refs[tierID], ref)
	}
	return refs, rows.Err()
}

func (r *TierRepository) Update(ctx context.Context, tier models.Tier) error {
	const query = `
		UPDATE tiers
		SET title = $3,
		    description = $4,
		    updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`
	cmd, err := r.q.Exec(ctx, query, tier.ID, tier.OwnerID, tier.Title, tier.Description)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TierRepository) Delete(ctx context.Context, ownerID, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM tiers WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TierRepository) SetCustomImages(ctx context.Context, tierID string, customImageIDs []string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM tier_custom_images WHERE tier_id = $1`, tierID); err != nil {
		return err
	}
	if len(customImageIDs) == 0 {
		return nil
	}
	const query = `
		INSERT INTO tier_custom_images (tier_id, custom_image_id)
		SELECT $1, unnest($2::text[])
		ON CONFLICT DO NOTHING
	`
	_, err := r.q.Exec(ctx, query, tierID, customImageIDs)
	return err
}
