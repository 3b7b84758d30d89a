package models

// Actor is the identity a service call runs on behalf of. The zero value
// is the anonymous actor.
type Actor struct {
	UserID uint
}

func AnonymousActor() Actor { return Actor{} }

func UserActor(id uint) Actor { return Actor{UserID: id} }

// Authenticated reports whether the actor resolved to a user.
func (a Actor) Authenticated() bool { return a.UserID != 0 }

// ViewerID is the id used for per-viewer flags; 0 for anonymous actors.
func (a Actor) ViewerID() uint { return a.UserID }

// Require returns an UNAUTHORIZED error for anonymous actors.
func (a Actor) Require() error {
	if !a.Authenticated() {
		return NewUnauthorizedError("Authentication credentials were not provided.")
	}
	return nil
}
