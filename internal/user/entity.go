package user

import "chatline/internal/user/entity"

// User and Summary live in the entity leaf package so that auth can name
// them without importing this package; the aliases keep user.User and
// user.Summary as the canonical names everywhere else.
type User = entity.User

type Summary = entity.Summary
