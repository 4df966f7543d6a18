package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Detection and generation errors
	ErrNoItemsDetected      = fmt.Errorf("no clothing items detected")
	ErrUnparsableResponse   = fmt.Errorf("provider response could not be parsed")
	ErrProviderRequest      = fmt.Errorf("provider request failed")
	ErrUnknownProvider      = fmt.Errorf("unknown detection provider")
	ErrMissingPhoto         = fmt.Errorf("missing photo")
	ErrGenerationUnexpected = fmt.Errorf("generation response missing image URL")

	// Persistence errors
	ErrStoreUnavailable = fmt.Errorf("local store unavailable")
	ErrOutfitNotFound   = fmt.Errorf("outfit not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrEmptyOutfitName = fmt.Errorf("outfit name is empty")
	ErrEmptyOutfit     = fmt.Errorf("outfit requires at least one article")
)
