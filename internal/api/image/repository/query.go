package imageRepository

const (
	queryCreateTagging = `
		INSERT INTO image_taggings (
			id,
			image_url,
			provider,
			tags,
			age_min,
			age_max,
			face_location,
			raw_key,
			created_at
		) VALUES (
			:id,
			:image_url,
			:provider,
			:tags,
			:age_min,
			:age_max,
			:face_location,
			:raw_key,
			:created_at
		)
	`

	queryGetTaggingByID = `
		SELECT
			id,
			image_url,
			provider,
			tags,
			age_min,
			age_max,
			face_location,
			raw_key,
			created_at
		FROM image_taggings
		WHERE id = :id
	`

	queryListTaggings = `
		SELECT
			id,
			image_url,
			provider,
			tags,
			age_min,
			age_max,
			face_location,
			raw_key,
			created_at
		FROM image_taggings
		ORDER BY created_at DESC, id DESC
		LIMIT :limit OFFSET :offset
	`
)
