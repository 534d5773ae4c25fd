package constants

const (
	ErrorBadRequest       = "Bad Request"
	ErrorInternal         = "Internal Service Error"
	ErrorNotAuthenticated = "Not Authenticated"
	ErrorNotAuthorised    = "Not Authorised"
	ErrorNotFound         = "Not found"
	ErrorInviteInvalid    = "Invalid invite code"
	ErrorInviteExpired    = "Invite code expired"
	ErrorInviteUsed       = "Invite code already used"
	ErrorStateConflict    = "Operation not allowed in current state"
	ErrorCapacity         = "Capacity exceeded"
)
