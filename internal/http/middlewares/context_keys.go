package middlewares

type ctxKey string

const (
	CtxRequestID ctxKey = "requestID"
	CtxUserID    ctxKey = "userID"
	CtxRoles     ctxKey = "roles"
)
