package action

import "github.com/heartmarshall/signalflow-backend/internal/domain"

const (
	defaultLimit = 100
	maxLimit     = 500
)

func normalize(f domain.ActionFilter) domain.ActionFilter {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
