package memory

import (
	"time"

	"identity-coach-be/internal/dto"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// IssuedDirective is a directive handed to a user together with its owner.
type IssuedDirective struct {
	UserId    uuid.UUID
	Directive *dto.Directive
}

// DirectiveRepository remembers issued directives so replayed choices are always the
// server's own bindings.
type DirectiveRepository struct {
	cache *cache.Cache
}

func NewDirectiveRepository(ttl time.Duration) *DirectiveRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &DirectiveRepository{
		cache: cache.New(ttl, ttl/6),
	}
}

func (r *DirectiveRepository) Save(userId uuid.UUID, directive *dto.Directive) {
	r.cache.Set(directive.Id.String(), &IssuedDirective{UserId: userId, Directive: directive}, cache.DefaultExpiration)
}

// Get returns the directive only when it was issued to userId.
func (r *DirectiveRepository) Get(userId, directiveId uuid.UUID) (*dto.Directive, bool) {
	x, found := r.cache.Get(directiveId.String())
	if !found {
		return nil, false
	}
	issued := x.(*IssuedDirective)
	if issued.UserId != userId {
		return nil, false
	}
	return issued.Directive, true
}

func (r *DirectiveRepository) Delete(directiveId uuid.UUID) {
	r.cache.Delete(directiveId.String())
}
