package middleware

import tele "gopkg.in/telebot.v4"

// AccessOptions defines how restricted-command checks should behave.
// An empty AllowedIDs list denies everyone.
type AccessOptions struct {
	AllowedIDs []int64
	OnReject   tele.HandlerFunc
}

func (o AccessOptions) allows(id int64) bool {
	for _, allowed := range o.AllowedIDs {
		if allowed == id {
			return true
		}
	}
	return false
}

// AllowlistMiddleware ensures that only users from the allow-list can invoke
// downstream handlers.
func AllowlistMiddleware(opts AccessOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if !opts.allows(c.Sender().ID) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
