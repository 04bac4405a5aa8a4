package errors

// Error codes returned in the "error" field of every error response.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these to messages.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED" // login required
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid = "AUTH_TOKEN_INVALID"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzOwnerOnly = "AUTHZ_OWNER_ONLY" // wishlist owner only

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Wishlist (WISHLIST_) ====================
	WishlistNotFound = "WISHLIST_NOT_FOUND"

	// ==================== Item (ITEM_) ====================
	ItemNotFound        = "ITEM_NOT_FOUND"
	ItemWrongKind       = "ITEM_WRONG_KIND"       // reserve on group gift, contribute on regular item
	ItemAlreadyReserved = "ITEM_ALREADY_RESERVED" // lost the reservation race
	ItemNotReserved     = "ITEM_NOT_RESERVED"

	// ==================== Contribution (CONTRIBUTION_) ====================
	ContributionAmountTooLow     = "CONTRIBUTION_AMOUNT_TOO_LOW"
	ContributionExceedsRemaining = "CONTRIBUTION_EXCEEDS_REMAINING"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError = "INTERNAL_SERVER_ERROR"
	InternalUnavailable = "INTERNAL_UNAVAILABLE" // ledger store unreachable, retry
)
