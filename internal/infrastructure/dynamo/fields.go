package dynamo

// DynamoDB attribute names used in expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID       = "user_id"
	fieldEmail        = "email"
	fieldPasswordHash = "password_hash"
	fieldStatus       = "status"
	fieldUpdatedAt    = "updated_at"
	fieldVacantLeft   = "vacant_left"
	fieldRead         = "read"
	fieldHasResume    = "has_resume"
	fieldExpiresAt    = "expires_at"
)

// Secondary index names.
const (
	indexEmail         = "email-index"
	indexUserCreatedAt = "user_id-created_at-index"
	indexUserTimestamp = "user_id-timestamp-index"
)
