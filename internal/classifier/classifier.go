package classifier

import (
	"errors"
	"fmt"

	"github.com/oshokin/catpoint/internal/config"
	"github.com/oshokin/catpoint/internal/service/security"
)

// ErrUnknownKind is returned for classifier kinds New does not know.
var ErrUnknownKind = errors.New("unknown classifier kind")

// New builds the classifier selected in settings.
//
//nolint:ireturn // Callers only need the capability.
func New(settings config.Classifier) (security.CatClassifier, error) {
	switch settings.Kind {
	case "", config.ClassifierFake:
		return NewFake(settings.Seed), nil
	case config.ClassifierRekognition:
		return NewRekognitionFromRegion(settings.Region)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, settings.Kind)
	}
}
