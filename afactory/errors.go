package afactory

import "errors"

var (
	ErrDuplicateTemplate = errors.New("template already defined")
	ErrUnknownTemplate   = errors.New("unknown template")
	ErrInvalidTemplate   = errors.New("invalid template")
	ErrUnknownTrait      = errors.New("unknown trait")
	ErrTypeMismatch      = errors.New("template builds a different type")

	ErrDuplicateSequence = errors.New("sequence already defined")
	ErrUnknownSequence   = errors.New("unknown sequence")

	ErrInvalidAttribute = errors.New("invalid attribute")
)
