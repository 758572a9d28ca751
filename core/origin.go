package core

import "errors"

// ErrNotAuthorized is returned when the caller lacks the privilege a call
// requires, or is not authenticated at all.
var ErrNotAuthorized = errors.New("not authorized")

// OriginKind classifies who is invoking a call.
type OriginKind int

const (
	OriginNone   OriginKind = iota // unauthenticated
	OriginSigned                   // an ordinary signed account
	OriginRoot                     // the privileged administrative identity
)

func (k OriginKind) String() string {
	switch k {
	case OriginSigned:
		return "signed"
	case OriginRoot:
		return "root"
	default:
		return "none"
	}
}

// Origin is the authenticated caller of a call, resolved by the dispatcher
// before any handler runs.
type Origin struct {
	Kind    OriginKind
	Account AccountID // set for OriginSigned, and for OriginRoot when known
}

func NoneOrigin() Origin { return Origin{Kind: OriginNone} }

func SignedOrigin(id AccountID) Origin { return Origin{Kind: OriginSigned, Account: id} }

func RootOrigin(signer AccountID) Origin { return Origin{Kind: OriginRoot, Account: signer} }

// EnsureRoot fails unless the origin is root.
func (o Origin) EnsureRoot() error {
	if o.Kind != OriginRoot {
		return ErrNotAuthorized
	}
	return nil
}

// EnsureSigned returns the signing account, or fails for root and
// unauthenticated origins.
func (o Origin) EnsureSigned() (AccountID, error) {
	if o.Kind != OriginSigned || o.Account == "" {
		return "", ErrNotAuthorized
	}
	return o.Account, nil
}
